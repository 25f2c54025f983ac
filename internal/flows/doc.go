// Package flows contains pure-function orchestrators for every Client operation.
//
// Each flow function (RunRequest, RunRefresh, RunLogout) accepts a typed
// dependency struct and returns results without side-effects beyond those
// dependencies. This design enables exhaustive unit testing with mock
// dependencies and keeps the Client type thin.
//
// # Architecture boundaries
//
// Flow functions coordinate token memory reads, HTTP sends, refresh
// exchanges, and local state teardown. They do NOT own any of these
// resources — ownership stays with the Client.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAuthClient (to avoid import cycles).
//   - Perform I/O directly — all I/O is mediated through dependency functions.
package flows
