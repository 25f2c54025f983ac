package test

import (
	"context"
	"net/http"
	"testing"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/session"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goAuthClient.New

	var _ *goAuthClient.Client
	var _ goAuthClient.Config
	var _ goAuthClient.Credentials
	var _ goAuthClient.RegisterRequest
	var _ goAuthClient.LoginResult
	var _ goAuthClient.Response
	var _ goAuthClient.RequestOption
	var _ goAuthClient.TokenMemory
	var _ goAuthClient.AuditEvent
	var _ goAuthClient.AuditSink
	var _ goAuthClient.MetricsSnapshot
	var _ session.Session
	var _ session.User
	var _ session.Backend
	var _ session.ProfileUpdate

	var _ = goAuthClient.ErrAuthenticationExpired
	var _ = goAuthClient.ErrRefreshFailed
	var _ = goAuthClient.ErrClientNotReady
	var _ = goAuthClient.ErrRefreshNoToken
	var _ = goAuthClient.ErrLoginNoToken

	var client *goAuthClient.Client
	var _ http.RoundTripper = client.Transport()

	var _ = goAuthClient.WithRequestID
	var _ = goAuthClient.WithBody
	var _ = goAuthClient.WithHeader

	if _, err := client.Do(context.Background(), http.MethodGet, "x", nil); err == nil {
		t.Fatal("nil client must not be usable")
	}
}
