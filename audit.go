package goAuthClient

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventRequest        = "request"
	auditEventRequestFailure = "request_failure"
	auditEventRefreshSuccess = "refresh_success"
	auditEventRefreshFailure = "refresh_failure"
	auditEventRefreshShared  = "refresh_shared"
	auditEventForcedLogout   = "forced_logout"
	auditEventLoginSuccess   = "login_success"
	auditEventLoginFailure   = "login_failure"
	auditEventLogout         = "logout"
)

// AuditErrorCode defines a public type used by goAuthClient APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrAuthExpired    AuditErrorCode = "authentication_expired"
	auditErrRefreshFailed  AuditErrorCode = "refresh_failed"
	auditErrRefreshNoToken AuditErrorCode = "refresh_no_token"
	auditErrLoginNoToken   AuditErrorCode = "login_no_token"
	auditErrTransport      AuditErrorCode = "transport_failure"
	auditErrHTTP           AuditErrorCode = "http_error"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthenticationExpired):
		return auditErrAuthExpired
	case errors.Is(err, ErrRefreshNoToken):
		return auditErrRefreshNoToken
	case errors.Is(err, ErrRefreshFailed):
		return auditErrRefreshFailed
	case errors.Is(err, ErrLoginNoToken):
		return auditErrLoginNoToken
	default:
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return auditErrHTTP
		}
		return auditErrTransport
	}
}

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	endpoint string,
	method string,
	status int,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Endpoint:  endpoint,
		Method:    method,
		Status:    status,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}
