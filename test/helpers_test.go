//go:build integration
// +build integration

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

var integrationSigningKey = []byte("integration-signing-key")

// authServer is a realistic fixture API: HS256 access tokens with a short
// TTL, an opaque refresh cookie, and bearer-guarded business endpoints.
type authServer struct {
	srv          *httptest.Server
	accessTTL    time.Duration
	refreshCalls atomic.Int64
}

func newAuthServer(t *testing.T, accessTTL time.Duration) *authServer {
	t.Helper()

	s := &authServer{accessTTL: accessTTL}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil ||
			creds.Email != "alice@example.com" || creds.Password != "correct-horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid credentials"})
			return
		}

		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "refresh-1", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]any{
			"payload": map[string]any{
				"accessToken": s.mint(t),
				"user":        map[string]any{"name": "Alice", "email": "alice@example.com", "role": "admin"},
			},
		})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("refresh_token"); err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "missing refresh cookie"})
			return
		}
		s.refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"accessToken": s.mint(t)})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "", Path: "/", MaxAge: -1})
		writeJSON(w, http.StatusOK, map[string]any{"message": "bye"})
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user": map[string]any{"name": "Alice", "email": "alice@example.com", "role": "admin"},
		})
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"orders": []string{"order-1", "order-2"}})
	})

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *authServer) mint(t *testing.T) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  "alice@example.com",
		"role": "admin",
		"exp":  time.Now().Add(s.accessTTL).Unix(),
		"iat":  time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(integrationSigningKey)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return token
}

func (s *authServer) authorized(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	if len(auth) < 8 || auth[:7] != "Bearer " {
		return false
	}
	token, err := jwt.Parse(auth[7:], func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return integrationSigningKey, nil
	})
	return err == nil && token.Valid
}

func newIntegrationRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func newIntegrationClient(t *testing.T, server *authServer, rdb *redis.Client, mutate ...func(*goAuthClient.Builder)) *goAuthClient.Client {
	t.Helper()

	cfg := goAuthClient.DefaultConfig()
	cfg.API.BaseURL = server.srv.URL + "/"

	builder := goAuthClient.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithMetricsEnabled(true)
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

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
