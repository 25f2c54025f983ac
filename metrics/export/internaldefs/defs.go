package internaldefs

import (
	goAuthClient "github.com/MrEthical07/goAuthClient"
)

// CounterDef defines a public type used by goAuthClient APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goAuthClient APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session client.
var CounterDefs = []CounterDef{
	{ID: goAuthClient.MetricRequestSuccess, Name: "goauthclient_request_success_total", Help: "Successful pipeline requests."},
	{ID: goAuthClient.MetricRequestTransportFailure, Name: "goauthclient_request_transport_failure_total", Help: "Requests failed at the transport layer."},
	{ID: goAuthClient.MetricRequestHTTPError, Name: "goauthclient_request_http_error_total", Help: "Requests terminated by a non-2xx response."},
	{ID: goAuthClient.MetricRequestUnauthorized, Name: "goauthclient_request_unauthorized_total", Help: "Requests that observed a 401 and entered the refresh path."},
	{ID: goAuthClient.MetricRefreshSuccess, Name: "goauthclient_refresh_success_total", Help: "Successful token refresh exchanges."},
	{ID: goAuthClient.MetricRefreshFailure, Name: "goauthclient_refresh_failure_total", Help: "Failed token refresh exchanges."},
	{ID: goAuthClient.MetricRefreshShared, Name: "goauthclient_refresh_shared_total", Help: "Refresh waiters coalesced onto an in-flight exchange."},
	{ID: goAuthClient.MetricReplaySuccess, Name: "goauthclient_replay_success_total", Help: "Replays that succeeded after a refresh."},
	{ID: goAuthClient.MetricReplayFailure, Name: "goauthclient_replay_failure_total", Help: "Replays that failed after a refresh."},
	{ID: goAuthClient.MetricForcedLogout, Name: "goauthclient_forced_logout_total", Help: "Local logouts forced by refresh failure."},
	{ID: goAuthClient.MetricLoginSuccess, Name: "goauthclient_login_success_total", Help: "Successful login operations."},
	{ID: goAuthClient.MetricLoginFailure, Name: "goauthclient_login_failure_total", Help: "Failed login operations."},
	{ID: goAuthClient.MetricLogout, Name: "goauthclient_logout_total", Help: "Logout operations."},
	{ID: goAuthClient.MetricSessionPersistFailure, Name: "goauthclient_session_persist_failure_total", Help: "Session record persistence failures."},
}

// HistogramDefs is an exported constant or variable used by the session client.
var HistogramDefs = []HistogramDef{
	{ID: goAuthClient.MetricRequestLatency, Name: "goauthclient_request_latency_seconds", Help: "Request latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session client.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session client.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
