// Package session provides the durable, non-sensitive session record
// ({isLoggedIn, user, role}) and its pluggable persistence backends.
//
// # Persistence record
//
// The record is a versioned JSON envelope written synchronously on every
// mutation. The record type contains exactly the three session fields — the
// access credential has no field to land in, so the persistence boundary is
// enforced by construction, not convention.
//
// # Architecture boundaries
//
// This package owns the [Store] (mutation entry points and persistence) and
// the [Session]/[User] models. It does NOT touch tokens, HTTP, or the refresh
// protocol — those responsibilities belong to the Client.
//
// # What this package must NOT do
//
//   - Import goAuthClient (no upward imports).
//   - Accept, store, or serialize any credential material.
//   - Persist asynchronously — readers must observe mutations after the
//     mutating call returns.
package session
