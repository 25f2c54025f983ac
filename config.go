package goAuthClient

import (
	"errors"
	"net/url"
	"strings"
)

// Config defines a public type used by goAuthClient APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API       APIConfig
	Endpoints EndpointsConfig
	Session   SessionConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines a public type used by goAuthClient APIs.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	// BaseURL is the absolute prefix every relative endpoint is resolved
	// against, e.g. "https://api.example.com/api/". Required.
	BaseURL   string
	UserAgent string
}

// EndpointsConfig holds the fixed auth endpoint paths, relative to BaseURL.
//
// EndpointsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EndpointsConfig struct {
	Signin         string
	Signup         string
	Refresh        string
	Logout         string
	Profile        string
	ForgetPassword string
	VerifyOTP      string
	ResetPassword  string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by goAuthClient APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// StorageKey names the persisted record in the backend, mirroring the
	// local-storage key of browser hosts.
	StorageKey string
}

// AuditConfig defines a public type used by goAuthClient APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goAuthClient APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			UserAgent: "goAuthClient",
		},
		Endpoints: EndpointsConfig{
			Signin:         "auth/signin",
			Signup:         "auth/signup",
			Refresh:        "auth/refresh",
			Logout:         "auth/logout",
			Profile:        "auth/me",
			ForgetPassword: "auth/forget-password",
			VerifyOTP:      "auth/verify-otp",
			ResetPassword:  "auth/reset-password",
		},
		Session: SessionConfig{
			StorageKey: "auth-storage",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the baseline configuration. BaseURL must be set by
// the caller before [Builder.Build].
//
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return errors.New("API BaseURL is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("API BaseURL must be http or https")
	}

	endpoints := map[string]string{
		"Signin":         c.Endpoints.Signin,
		"Signup":         c.Endpoints.Signup,
		"Refresh":        c.Endpoints.Refresh,
		"Logout":         c.Endpoints.Logout,
		"Profile":        c.Endpoints.Profile,
		"ForgetPassword": c.Endpoints.ForgetPassword,
		"VerifyOTP":      c.Endpoints.VerifyOTP,
		"ResetPassword":  c.Endpoints.ResetPassword,
	}
	for name, path := range endpoints {
		if path == "" {
			return errors.New("Endpoints " + name + " required")
		}
		if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			return errors.New("Endpoints " + name + " must be relative to BaseURL")
		}
	}

	if c.Session.StorageKey == "" {
		return errors.New("Session StorageKey required")
	}
	if strings.ContainsAny(c.Session.StorageKey, "/\\") {
		return errors.New("Session StorageKey must not contain path separators")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be positive when audit is enabled")
	}

	return nil
}
