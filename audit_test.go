package goAuthClient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type blockingSink struct {
	entered chan struct{}
	gate    chan struct{}
	once    atomic.Bool
}

func newBlockingSink() *blockingSink {
	return &blockingSink{
		entered: make(chan struct{}),
		gate:    make(chan struct{}),
	}
}

func (s *blockingSink) Emit(context.Context, AuditEvent) {
	if s.once.CompareAndSwap(false, true) {
		close(s.entered)
	}
	<-s.gate
}

func TestDispatcherDisabledReturnsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("disabled audit config must not build a dispatcher")
	}

	// Nil dispatchers swallow every call.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must read zero drops")
	}
}

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "request", Success: true})
	}
	d.Close()

	received := 0
	for {
		select {
		case <-sink.Events():
			received++
		default:
			if received != 5 {
				t.Fatalf("expected 5 delivered events after Close, got %d", received)
			}
			return
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := newBlockingSink()
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event is taken by the drain loop, which then blocks in the sink.
	d.Emit(context.Background(), AuditEvent{EventType: "e1"})
	<-sink.entered

	// Second event parks in the buffer; the rest must be dropped.
	d.Emit(context.Background(), AuditEvent{EventType: "e2"})
	d.Emit(context.Background(), AuditEvent{EventType: "e3"})
	d.Emit(context.Background(), AuditEvent{EventType: "e4"})

	if got := d.Dropped(); got != 2 {
		t.Fatalf("expected 2 dropped events, got %d", got)
	}

	close(sink.gate)
	d.Close()
}

func TestAuditErrorCodeTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want AuditErrorCode
	}{
		{"nil", nil, ""},
		{"auth expired", fmt.Errorf("%w: refresh rejected", ErrAuthenticationExpired), auditErrAuthExpired},
		{"refresh failed", fmt.Errorf("%w: status 401", ErrRefreshFailed), auditErrRefreshFailed},
		{"refresh no token", fmt.Errorf("%w: status 200", ErrRefreshNoToken), auditErrRefreshNoToken},
		{"login no token", ErrLoginNoToken, auditErrLoginNoToken},
		{"http error", &APIError{Status: 403, Message: "nope"}, auditErrHTTP},
		{"anything else", errors.New("connection reset"), auditErrTransport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := auditErrorCode(tc.err); got != tc.want {
				t.Fatalf("auditErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestDispatcherCountsDropsAfterClose(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4, DropIfFull: true}, sink)

	d.Emit(context.Background(), AuditEvent{EventType: "e1"})
	d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: "late-1"})
	d.Emit(context.Background(), AuditEvent{EventType: "late-2"})

	if got := d.Dropped(); got != 2 {
		t.Fatalf("events emitted after Close must count as drops, got %d", got)
	}
	if got := sink.count.Load(); got != 1 {
		t.Fatalf("expected only the pre-Close event delivered, got %d", got)
	}
}

func TestAuditEventsEmittedThroughClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	}))
	defer srv.Close()

	sink := NewChannelSink(16)
	client := newTestClient(t, srv.URL, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	client.tokens.Set("tok-1")

	ctx := WithRequestID(context.Background(), "rid-audit")
	if _, err := client.Do(ctx, http.MethodGet, "data", nil); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	client.Close()

	select {
	case event := <-sink.Events():
		if event.EventType != "request" || !event.Success {
			t.Fatalf("unexpected event %+v", event)
		}
		if event.Endpoint != "data" || event.Method != http.MethodGet {
			t.Fatalf("unexpected event target %+v", event)
		}
		if event.RequestID != "rid-audit" {
			t.Fatalf("expected propagated request id, got %q", event.RequestID)
		}
		if event.Status != http.StatusOK {
			t.Fatalf("expected status 200 on event, got %d", event.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an audit event")
	}
}

func TestAuditFailureEventCarriesErrorCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, http.StatusUnauthorized, map[string]any{"message": "refresh expired"})
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, http.StatusUnauthorized, map[string]any{"message": "expired"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sink := NewChannelSink(16)
	client := newTestClient(t, srv.URL, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	client.tokens.Set("stale")

	_, _ = client.Do(context.Background(), http.MethodGet, "data", nil)
	client.Close()

	var sawRefreshFailure, sawForcedLogout, sawAuthExpired bool
	for {
		select {
		case event := <-sink.Events():
			switch event.EventType {
			case "refresh_failure":
				sawRefreshFailure = true
				if event.Error != string(auditErrRefreshFailed) {
					t.Fatalf("unexpected refresh failure code %q", event.Error)
				}
			case "forced_logout":
				sawForcedLogout = true
			case "request_failure":
				sawAuthExpired = event.Error == string(auditErrAuthExpired)
			}
		default:
			if !sawRefreshFailure || !sawForcedLogout || !sawAuthExpired {
				t.Fatalf("missing events: refresh=%v logout=%v expired=%v",
					sawRefreshFailure, sawForcedLogout, sawAuthExpired)
			}
			return
		}
	}
}

func TestZerologSinkWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	sink := NewZerologSink(logger)
	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: "refresh_failure",
		Endpoint:  "auth/refresh",
		Method:    http.MethodPost,
		Status:    401,
		Success:   false,
		Error:     "refresh_failed",
	})

	line := buf.String()
	if !strings.Contains(line, `"level":"warn"`) {
		t.Fatalf("failed events must log at warn, got %s", line)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("zerolog output must be JSON: %v", err)
	}
	if decoded["event_type"] != "refresh_failure" || decoded["error"] != "refresh_failed" {
		t.Fatalf("unexpected log fields: %v", decoded)
	}
}

func TestJSONWriterSinkOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{EventType: "request", Success: true})
	sink.Emit(context.Background(), AuditEvent{EventType: "logout", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		var event AuditEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
	}
}
