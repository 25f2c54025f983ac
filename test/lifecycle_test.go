//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
)

func TestLifecycleLoginCallExpireRefreshLogout(t *testing.T) {
	server := newAuthServer(t, 1*time.Second)
	rdb := newIntegrationRedis(t)
	client := newIntegrationClient(t, server, rdb)
	ctx := context.Background()

	result, err := client.Login(ctx, goAuthClient.Credentials{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.User == nil || result.User.Role != "admin" {
		t.Fatalf("unexpected login result %+v", result)
	}

	var orders struct {
		Orders []string `json:"orders"`
	}
	if _, err := client.Do(ctx, http.MethodGet, "orders", &orders); err != nil {
		t.Fatalf("orders call failed: %v", err)
	}
	if len(orders.Orders) != 2 {
		t.Fatalf("unexpected orders %v", orders.Orders)
	}

	// Let the JWT expire and watch the refresh happen underneath the call.
	time.Sleep(1500 * time.Millisecond)

	if _, err := client.Do(ctx, http.MethodGet, "orders", &orders); err != nil {
		t.Fatalf("orders after expiry failed: %v", err)
	}
	if got := server.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected one refresh call, got %d", got)
	}

	snapshot := client.MetricsSnapshot()
	if snapshot.Counters[goAuthClient.MetricRefreshSuccess] != 1 {
		t.Fatalf("expected one refresh success counted, got %d",
			snapshot.Counters[goAuthClient.MetricRefreshSuccess])
	}
	if snapshot.Counters[goAuthClient.MetricReplaySuccess] != 1 {
		t.Fatalf("expected one replay success counted, got %d",
			snapshot.Counters[goAuthClient.MetricReplaySuccess])
	}

	if err := client.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if client.Session().IsLoggedIn {
		t.Fatal("session must be cleared after logout")
	}
}

func TestSessionSurvivesClientRestart(t *testing.T) {
	server := newAuthServer(t, time.Minute)
	rdb := newIntegrationRedis(t)
	ctx := context.Background()

	// One cookie jar across restarts, standing in for the browser that keeps
	// its refresh cookie while the page (and its token memory) reloads.
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	shared := &http.Client{Jar: jar}
	withShared := func(b *goAuthClient.Builder) { b.WithHTTPClient(shared) }

	first := newIntegrationClient(t, server, rdb, withShared)
	if _, err := first.Login(ctx, goAuthClient.Credentials{
		Email:    "alice@example.com",
		Password: "correct-horse",
	}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	first.Close()

	// A new client over the same Redis sees the persisted record but holds
	// no credential: the next authenticated call must walk the refresh path.
	second := newIntegrationClient(t, server, rdb, withShared)
	snap := second.Session()
	if !snap.IsLoggedIn || snap.Role != "admin" {
		t.Fatalf("expected restored session, got %+v", snap)
	}

	user, err := second.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile after restart failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected profile %+v", user)
	}
	if server.refreshCalls.Load() != 1 {
		t.Fatalf("expected the restarted client to refresh once, got %d", server.refreshCalls.Load())
	}
}

func TestRecoveryFlowEndpoints(t *testing.T) {
	server := newAuthServer(t, time.Minute)
	rdb := newIntegrationRedis(t)
	client := newIntegrationClient(t, server, rdb)
	ctx := context.Background()

	// The fixture API has no recovery routes; the structured error must
	// carry the status through rather than masking it.
	err := client.ForgetPassword(ctx, "alice@example.com")
	var apiErr *goAuthClient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 from fixture, got %d", apiErr.Status)
	}
}
