package goAuthClient

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/MrEthical07/goAuthClient/session"
)

func newTestClient(t *testing.T, baseURL string, mutate ...func(*Builder)) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.API.BaseURL = baseURL + "/"

	builder := New().WithConfig(cfg)
	for _, m := range mutate {
		m(builder)
	}

	client, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func establishTestSession(t *testing.T, client *Client) {
	t.Helper()

	err := client.sessions.Establish(context.Background(), session.User{
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  "admin",
	})
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode response: %v", err)
	}
}
