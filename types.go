package goAuthClient

import (
	"fmt"
	"io"

	internalaudit "github.com/MrEthical07/goAuthClient/internal/audit"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/rs/zerolog"
)

// User is the non-sensitive profile carried in the session record.
type User = session.User

// Credentials is the input for [Client.Login].
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the input for [Client.Register].
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgetPasswordRequest is the input for [Client.ForgetPassword].
type ForgetPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest is the input for [Client.VerifyOTP].
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest is the input for [Client.ResetPassword].
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}

// LoginResult is returned by [Client.Login]. AccessToken is also written to
// [TokenMemory] and User into the session store before Login returns, so
// most callers only need the error.
type LoginResult struct {
	AccessToken string
	User        *User
}

// APIError is the structured non-2xx outcome of a pipeline call. Data holds
// the parsed response body, or a fallback message object when the body is
// not valid JSON.
type APIError struct {
	Status  int
	Data    any
	Message string
}

// Error describes the error operation and its observable behavior.
//
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// AuditEvent is a structured audit record emitted by the client.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the client's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// ZerologSink is an [AuditSink] that forwards events through a zerolog
// logger.
type ZerologSink = internalaudit.ZerologSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewZerologSink creates a [ZerologSink] backed by the given logger.
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return internalaudit.NewZerologSink(logger)
}
