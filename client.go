package goAuthClient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/session"
)

// Client defines a public type used by goAuthClient APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	config     Config
	httpClient *http.Client

	tokens   TokenMemory
	sessions *session.Store
	flows    flows.Service

	refreshGroup singleflight.Group

	audit   *auditDispatcher
	metrics *Metrics
}

// loginEnvelope mirrors the signin response shape. Token and user fields are
// probed nested-first so older flat payloads keep working.
type loginEnvelope struct {
	Payload struct {
		AccessToken string        `json:"accessToken"`
		User        *session.User `json:"user"`
	} `json:"payload"`
	AccessToken string        `json:"accessToken"`
	Token       string        `json:"token"`
	User        *session.User `json:"user"`
}

type profileEnvelope struct {
	Payload struct {
		User *session.User `json:"user"`
	} `json:"payload"`
	User *session.User `json:"user"`
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	endpoint := c.config.Endpoints.Signin

	resp, err := c.do(ctx, http.MethodPost, endpoint, creds, nil)
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, endpoint, http.MethodPost, statusOf(resp), err, nil)
		return nil, err
	}

	var envelope loginEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		c.metrics.Inc(MetricLoginFailure)
		decodeErr := fmt.Errorf("decode login response: %w", err)
		c.emitAudit(ctx, auditEventLoginFailure, false, endpoint, http.MethodPost, resp.Status, decodeErr, nil)
		return nil, decodeErr
	}

	token := flows.ExtractToken(envelope.Payload.AccessToken, envelope.AccessToken, envelope.Token)
	if token == "" {
		c.metrics.Inc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, endpoint, http.MethodPost, resp.Status, ErrLoginNoToken, nil)
		return nil, ErrLoginNoToken
	}

	user := envelope.Payload.User
	if user == nil {
		user = envelope.User
	}

	c.tokens.Set(token)
	if user != nil {
		if err := c.sessions.Establish(ctx, *user); err != nil {
			c.metrics.Inc(MetricSessionPersistFailure)
			return nil, err
		}
	}

	c.metrics.Inc(MetricLoginSuccess)
	c.emitAudit(ctx, auditEventLoginSuccess, true, endpoint, http.MethodPost, resp.Status, nil, func() map[string]string {
		if user == nil {
			return nil
		}
		return map[string]string{"role": user.Role}
	})

	result := &LoginResult{AccessToken: token}
	if user != nil {
		u := *user
		result.User = &u
	}
	return result, nil
}

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	_, err := c.do(ctx, http.MethodPost, c.config.Endpoints.Signup, req, nil)
	return err
}

// ForgetPassword describes the forgetpassword operation and its observable behavior.
//
// ForgetPassword may return an error when input validation, dependency calls, or security checks fail.
// ForgetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) ForgetPassword(ctx context.Context, email string) error {
	req := ForgetPasswordRequest{Email: email}
	_, err := c.do(ctx, http.MethodPost, c.config.Endpoints.ForgetPassword, req, nil)
	return err
}

// VerifyOTP describes the verifyotp operation and its observable behavior.
//
// VerifyOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifyOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	req := VerifyOTPRequest{Email: email, OTP: otp}
	_, err := c.do(ctx, http.MethodPost, c.config.Endpoints.VerifyOTP, req, nil)
	return err
}

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
// ResetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) ResetPassword(ctx context.Context, email, otp, password string) error {
	req := ResetPasswordRequest{Email: email, OTP: otp, Password: password}
	_, err := c.do(ctx, http.MethodPost, c.config.Endpoints.ResetPassword, req, nil)
	return err
}

// Logout notifies the server over the cookie path and then clears token
// memory and the session record. A remote failure never blocks the local
// teardown; only a persistence failure of the local clear is returned.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || !c.flows.Initialized() {
		return ErrClientNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := c.flows.Logout(ctx)

	c.metrics.Inc(MetricLogout)
	c.emitAudit(ctx, auditEventLogout, result.RemoteErr == nil && result.ClearErr == nil,
		c.config.Endpoints.Logout, http.MethodPost, 0, result.RemoteErr, nil)

	if result.ClearErr != nil {
		c.metrics.Inc(MetricSessionPersistFailure)
		return result.ClearErr
	}
	return nil
}

// GetProfile fetches the current user through the full pipeline and folds
// the non-sensitive fields back into the session record.
//
// GetProfile may return an error when input validation, dependency calls, or security checks fail.
// GetProfile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) GetProfile(ctx context.Context) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, c.config.Endpoints.Profile, nil, nil)
	if err != nil {
		return nil, err
	}

	var envelope profileEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}

	user := envelope.Payload.User
	if user == nil {
		user = envelope.User
	}
	if user == nil {
		// Some deployments return the user object bare.
		var bare session.User
		if err := json.Unmarshal(resp.Body, &bare); err == nil && (bare.Email != "" || bare.Name != "") {
			user = &bare
		}
	}
	if user == nil {
		return nil, fmt.Errorf("profile response contained no user")
	}

	update := session.ProfileUpdate{}
	if user.Name != "" {
		update.Name = &user.Name
	}
	if user.Email != "" {
		update.Email = &user.Email
	}
	if err := c.sessions.UpdateProfile(ctx, update); err != nil {
		c.metrics.Inc(MetricSessionPersistFailure)
		return nil, err
	}

	u := *user
	return &u, nil
}

// UpdateProfile merges a partial user update into the session record. When
// logged out it is a no-op.
//
// UpdateProfile may return an error when input validation, dependency calls, or security checks fail.
// UpdateProfile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) UpdateProfile(ctx context.Context, update session.ProfileUpdate) error {
	if c == nil || c.sessions == nil {
		return ErrClientNotReady
	}
	if err := c.sessions.UpdateProfile(ctx, update); err != nil {
		c.metrics.Inc(MetricSessionPersistFailure)
		return err
	}
	return nil
}

// Session returns a deep copy of the current session record for routing
// guards and UI state.
//
// Session does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Session() session.Session {
	if c == nil || c.sessions == nil {
		return session.Session{}
	}
	return c.sessions.Snapshot()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close flushes and stops the audit dispatcher. The client must not be used
// after Close.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.audit.Close()
}

func statusOf(resp *flows.HTTPResponse) int {
	if resp == nil {
		return 0
	}
	return resp.Status
}
