package goAuthClient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/session"
)

// Builder defines a public type used by goAuthClient APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	httpClient *http.Client
	backend    session.Backend
	redis      *redis.Client
	tokens     TokenMemory
	auditSink  AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the API base URL on the builder's config.
//
// WithBaseURL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithHTTPClient injects the transport client. The builder copies it and
// attaches a cookie jar when it has none; the refresh cookie lives there.
//
// WithHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithSessionBackend describes the withsessionbackend operation and its observable behavior.
//
// WithSessionBackend may return an error when input validation, dependency calls, or security checks fail.
// WithSessionBackend does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSessionBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

// WithRedis selects a Redis-backed session record. Ignored when an explicit
// backend was provided through [Builder.WithSessionBackend].
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithTokenMemory describes the withtokenmemory operation and its observable behavior.
//
// WithTokenMemory may return an error when input validation, dependency calls, or security checks fail.
// WithTokenMemory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTokenMemory(tokens TokenMemory) *Builder {
	b.tokens = tokens
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, restores the persisted session record,
// and returns a ready client. ctx bounds the initial record load.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build(ctx context.Context) (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	if ctx == nil {
		ctx = context.Background()
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{}
	if b.httpClient != nil {
		clone := *b.httpClient
		httpClient = &clone
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	backend := b.backend
	if backend == nil && b.redis != nil {
		rb, err := session.NewRedisBackend(b.redis, "", 0)
		if err != nil {
			return nil, err
		}
		backend = rb
	}
	if backend == nil {
		backend = session.NewMemoryBackend()
	}

	store, err := session.NewStore(ctx, backend, cfg.Session.StorageKey)
	if err != nil {
		return nil, err
	}

	tokens := b.tokens
	if tokens == nil {
		tokens = NewTokenMemory()
	}

	client := &Client{
		config:     cfg,
		httpClient: httpClient,
		tokens:     tokens,
		sessions:   store,
		metrics:    NewMetrics(cfg.Metrics),
	}
	client.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	client.flows = flows.New(flows.Deps{
		Request: flows.RequestDeps{
			CurrentToken: tokens.Get,
			Send:         client.send,
			Refresh:      client.sharedRefresh,
			ForceLogout:  client.forceLogout,
		},
		Refresh: flows.RefreshDeps{
			Send: func(ctx context.Context) (*flows.HTTPResponse, error) {
				return client.sendBare(ctx, cfg.Endpoints.Refresh)
			},
		},
		Logout: flows.LogoutDeps{
			Send: func(ctx context.Context) (*flows.HTTPResponse, error) {
				return client.sendBare(ctx, cfg.Endpoints.Logout)
			},
			ClearToken:   tokens.Clear,
			ClearSession: store.Clear,
		},
	})

	return client, nil
}
