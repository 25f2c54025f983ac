package goAuthClient

import (
	"strings"
	"testing"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://api.example.com/api/"
	return cfg
}

func TestDefaultConfigEndpoints(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Endpoints.Signin != "auth/signin" {
		t.Fatalf("unexpected signin endpoint %q", cfg.Endpoints.Signin)
	}
	if cfg.Endpoints.Refresh != "auth/refresh" {
		t.Fatalf("unexpected refresh endpoint %q", cfg.Endpoints.Refresh)
	}
	if cfg.Endpoints.Profile != "auth/me" {
		t.Fatalf("unexpected profile endpoint %q", cfg.Endpoints.Profile)
	}
	if cfg.Session.StorageKey != "auth-storage" {
		t.Fatalf("unexpected storage key %q", cfg.Session.StorageKey)
	}
	if cfg.Audit.Enabled {
		t.Fatal("audit must default off")
	}
	if cfg.Metrics.Enabled {
		t.Fatal("metrics must default off")
	}
}

func TestValidateRequiresBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing BaseURL")
	}
}

func TestValidateRejectsNonHTTPScheme(t *testing.T) {
	cfg := validTestConfig()
	cfg.API.BaseURL = "ftp://api.example.com/"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for non-http scheme")
	}
}

func TestValidateRejectsEmptyEndpoint(t *testing.T) {
	cfg := validTestConfig()
	cfg.Endpoints.Refresh = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "Refresh") {
		t.Fatalf("expected refresh endpoint error, got %v", err)
	}
}

func TestValidateRejectsAbsoluteEndpoint(t *testing.T) {
	cfg := validTestConfig()
	cfg.Endpoints.Logout = "https://elsewhere.example.com/logout"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for absolute endpoint")
	}
}

func TestValidateRejectsStorageKeyWithSeparators(t *testing.T) {
	cfg := validTestConfig()
	cfg.Session.StorageKey = "../escape"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for storage key with path separators")
	}
}

func TestValidateRejectsNonPositiveAuditBuffer(t *testing.T) {
	cfg := validTestConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero audit buffer")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestBuilderRejectsSecondBuild(t *testing.T) {
	builder := New().WithBaseURL("https://api.example.com/")

	if _, err := builder.Build(nil); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := builder.Build(nil); err == nil {
		t.Fatal("expected error on second Build")
	}
}

func TestBuilderAttachesCookieJar(t *testing.T) {
	client, err := New().WithBaseURL("https://api.example.com/").Build(nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer client.Close()

	if client.httpClient.Jar == nil {
		t.Fatal("expected a cookie jar on the built client")
	}
}
