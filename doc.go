// Package goAuthClient provides the client half of a cookie+bearer session
// protocol: an in-memory access token, a transparent 401→refresh→replay
// request pipeline, and a small persisted session record ({isLoggedIn, user,
// role}) that survives process restarts.
//
// The package is designed for concurrent callers: Client methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
// Concurrent requests that observe an expired credential share a single
// in-flight refresh exchange.
//
// # Architecture boundaries
//
// goAuthClient is the public surface. It exposes [Client], [Builder],
// [Config], and value types (User, APIError, MetricsSnapshot, etc.). All
// internal coordination — request/refresh/logout flow orchestration, audit
// dispatch — lives under internal/ and is never exported. Session record
// persistence lives in the session sub-package behind [session.Backend].
//
// # What this package must NOT do
//
//   - Persist the access token anywhere. It lives in [TokenMemory] only and
//     dies with the process; the session record type has no token field.
//   - Parse or interpret the access token. It is an opaque bearer string;
//     expiry is discovered through a 401 response, never proactively.
//   - Interpret business status codes. Only 401 triggers the refresh path;
//     403 and every other non-2xx pass through to the caller untouched.
//
// # Performance contract
//
// A call that does not hit a 401 costs exactly one HTTP round trip. A call
// that does costs at most two plus a shared refresh exchange; the
// single-replay rule bounds worst-case work and guarantees termination.
package goAuthClient
