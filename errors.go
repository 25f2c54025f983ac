package goAuthClient

import "errors"

var (
	// ErrAuthenticationExpired is an exported constant or variable used by the session client.
	ErrAuthenticationExpired = errors.New("authentication expired")
	// ErrRefreshFailed is an exported constant or variable used by the session client.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrRefreshNoToken is an exported constant or variable used by the session client.
	ErrRefreshNoToken = errors.New("refresh response contained no token")
	// ErrClientNotReady is an exported constant or variable used by the session client.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrInvalidEndpoint is an exported constant or variable used by the session client.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrLoginNoToken is an exported constant or variable used by the session client.
	ErrLoginNoToken = errors.New("login response contained no token")
)
