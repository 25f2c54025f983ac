package goAuthClient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goAuthClient/internal/flows"
)

const refreshGroupKey = "refresh"

// Response defines a public type used by goAuthClient APIs.
//
// Response instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

type requestOptions struct {
	body   any
	header http.Header
}

// RequestOption defines a public type used by goAuthClient APIs.
//
// RequestOption instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RequestOption func(*requestOptions)

// WithBody attaches a JSON-encoded request body. []byte and json.RawMessage
// values are sent as-is; everything else goes through json.Marshal.
func WithBody(body any) RequestOption {
	return func(o *requestOptions) {
		o.body = body
	}
}

// WithHeader adds a request header to the outgoing call. The pipeline-owned
// Authorization and X-Request-ID headers always win over caller values.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Add(key, value)
	}
}

// Do describes the do operation and its observable behavior.
//
// Do may return an error when input validation, dependency calls, or security checks fail.
// Do does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Do(ctx context.Context, method, endpoint string, out any, opts ...RequestOption) (*Response, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	resp, err := c.do(ctx, method, endpoint, o.body, o.header)
	if err != nil {
		return publicResponse(resp), err
	}

	if out != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return publicResponse(resp), fmt.Errorf("decode response body: %w", err)
		}
	}

	return publicResponse(resp), nil
}

// do runs one logical call through the attach→send→classify→refresh→replay
// state machine and maps the terminal flow state onto the public error
// taxonomy. It is the single entry point for every authenticated method.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, header http.Header) (*flows.HTTPResponse, error) {
	if c == nil || !c.flows.Initialized() {
		return nil, ErrClientNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	// One identifier per logical call so the original and its replay stay
	// correlated in server logs.
	requestID := requestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	req := flows.Request{
		Method:    method,
		Endpoint:  endpoint,
		Body:      payload,
		Header:    header,
		RequestID: requestID,
	}

	start := time.Now()
	result := c.flows.Execute(ctx, req)
	c.metrics.Observe(MetricRequestLatency, time.Since(start))

	if result.Refreshed {
		c.metrics.Inc(MetricRequestUnauthorized)
	}

	switch result.Failure {
	case flows.RequestFailureNone:
		c.metrics.Inc(MetricRequestSuccess)
		if result.Replayed {
			c.metrics.Inc(MetricReplaySuccess)
		}
		c.emitAudit(ctx, auditEventRequest, true, endpoint, method, result.Response.Status, nil, nil)
		return result.Response, nil

	case flows.RequestFailureTransport:
		c.metrics.Inc(MetricRequestTransportFailure)
		if result.Replayed {
			c.metrics.Inc(MetricReplayFailure)
		}
		wrapped := fmt.Errorf("%s %s: %w", method, endpoint, result.Err)
		c.emitAudit(ctx, auditEventRequestFailure, false, endpoint, method, 0, wrapped, nil)
		return nil, wrapped

	case flows.RequestFailureAuthExpired:
		wrapped := fmt.Errorf("%w: %v", ErrAuthenticationExpired, result.Err)
		c.emitAudit(ctx, auditEventRequestFailure, false, endpoint, method, http.StatusUnauthorized, wrapped, nil)
		return nil, wrapped

	default:
		c.metrics.Inc(MetricRequestHTTPError)
		if result.Replayed {
			c.metrics.Inc(MetricReplayFailure)
		}
		apiErr := newAPIError(result.Response)
		c.emitAudit(ctx, auditEventRequestFailure, false, endpoint, method, result.Response.Status, apiErr, nil)
		return result.Response, apiErr
	}
}

// send performs a single HTTP round trip for the request flow. The token
// argument comes from the flow, never from caller headers: when present the
// Authorization header is overwritten, when absent it is removed, so the
// attach step stays idempotent across the original send and the replay.
func (c *Client) send(ctx context.Context, req flows.Request, token string) (*flows.HTTPResponse, error) {
	target, err := c.resolveEndpoint(req.Endpoint)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if ua := c.config.API.UserAgent; ua != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", ua)
	}

	// The Authorization header is always present, even when empty, so the
	// request shape stays stable for servers and tests alike.
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	} else {
		httpReq.Header.Set("Authorization", "")
	}
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}

	return c.roundTrip(httpReq)
}

// sendBare performs the cookie-credentialed POST used by the refresh and
// logout flows. No bearer header, no body: the refresh cookie held by the
// client's jar is the only credential.
func (c *Client) sendBare(ctx context.Context, endpoint string) (*flows.HTTPResponse, error) {
	target, err := c.resolveEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if ua := c.config.API.UserAgent; ua != "" {
		httpReq.Header.Set("User-Agent", ua)
	}

	return c.roundTrip(httpReq)
}

func (c *Client) roundTrip(req *http.Request) (*flows.HTTPResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &flows.HTTPResponse{
		Status: resp.StatusCode,
		Body:   body,
		Header: resp.Header,
	}, nil
}

func (c *Client) resolveEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return "", ErrInvalidEndpoint
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint, nil
	}

	base := strings.TrimSuffix(c.config.API.BaseURL, "/")
	return base + "/" + strings.TrimPrefix(endpoint, "/"), nil
}

// sharedRefresh is the single-flight wrapper around the refresh flow.
// Concurrent expiry detectors coalesce on one in-flight exchange: the winner
// performs the HTTP call and writes the replacement token; every waiter gets
// the same verdict and replays with the credential the winner wrote.
//
// The exchange runs on a detached context: a caller that abandons interest
// mid-refresh still lets the in-flight exchange complete and its token write
// land, and waiters sharing the flight never inherit another caller's
// cancellation as an authentication-expired verdict. The abandoned caller
// surfaces its own context error on the replay instead.
func (c *Client) sharedRefresh(ctx context.Context) (string, error) {
	refreshCtx := context.WithoutCancel(ctx)
	value, err, shared := c.refreshGroup.Do(refreshGroupKey, func() (any, error) {
		result := c.flows.Refresh(refreshCtx)

		switch result.Failure {
		case flows.RefreshFailureNone:
		case flows.RefreshFailureMissingToken:
			c.metrics.Inc(MetricRefreshFailure)
			refreshErr := fmt.Errorf("%w: status %d", ErrRefreshNoToken, result.Status)
			c.emitAudit(refreshCtx, auditEventRefreshFailure, false, c.config.Endpoints.Refresh, http.MethodPost, result.Status, refreshErr, nil)
			return "", refreshErr
		default:
			c.metrics.Inc(MetricRefreshFailure)
			refreshErr := fmt.Errorf("%w: %v", ErrRefreshFailed, result.Err)
			c.emitAudit(refreshCtx, auditEventRefreshFailure, false, c.config.Endpoints.Refresh, http.MethodPost, result.Status, refreshErr, nil)
			return "", refreshErr
		}

		c.tokens.Set(result.Token)
		c.metrics.Inc(MetricRefreshSuccess)
		c.emitAudit(refreshCtx, auditEventRefreshSuccess, true, c.config.Endpoints.Refresh, http.MethodPost, result.Status, nil, nil)
		return result.Token, nil
	})

	if shared {
		c.metrics.Inc(MetricRefreshShared)
		c.emitAudit(ctx, auditEventRefreshShared, err == nil, c.config.Endpoints.Refresh, http.MethodPost, 0, err, nil)
	}

	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// forceLogout is the refresh-failure cleanup: token memory and the session
// record are cleared before the authentication-expired error surfaces, so no
// caller can observe a logged-in snapshot after the verdict.
func (c *Client) forceLogout(ctx context.Context) {
	c.tokens.Clear()
	if err := c.sessions.Clear(ctx); err != nil {
		c.metrics.Inc(MetricSessionPersistFailure)
	}
	c.metrics.Inc(MetricForcedLogout)
	c.emitAudit(ctx, auditEventForcedLogout, true, "", "", 0, nil, nil)
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// newAPIError builds the structured non-2xx error. A JSON body becomes Data
// directly; anything else is wrapped in a one-field message object so callers
// always have a message to show.
func newAPIError(resp *flows.HTTPResponse) *APIError {
	apiErr := &APIError{
		Status:  resp.Status,
		Message: http.StatusText(resp.Status),
	}

	if len(resp.Body) == 0 {
		return apiErr
	}

	var data any
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		apiErr.Data = map[string]any{"message": strings.TrimSpace(string(resp.Body))}
		return apiErr
	}

	apiErr.Data = data
	if obj, ok := data.(map[string]any); ok {
		if msg, ok := obj["message"].(string); ok && msg != "" {
			apiErr.Message = msg
		}
	}
	return apiErr
}

func publicResponse(resp *flows.HTTPResponse) *Response {
	if resp == nil {
		return nil
	}
	return &Response{
		Status: resp.Status,
		Body:   resp.Body,
		Header: resp.Header,
	}
}
