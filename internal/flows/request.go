package flows

import (
	"context"
	"net/http"
)

// Outcome classifies an HTTP response for the request pipeline. Classification
// happens in exactly one place so the replay and cleanup logic is a total
// match over variants rather than ad hoc status comparisons.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeAuthExpired
	OutcomeOtherError
)

// Classify maps an HTTP status to an Outcome. 401 is the sole refresh
// trigger; 403 and every other non-2xx pass through to the caller.
func Classify(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status == http.StatusUnauthorized:
		return OutcomeAuthExpired
	default:
		return OutcomeOtherError
	}
}

// RequestFailureKind classifies request flow failures for root-level mapping.
type RequestFailureKind int

const (
	RequestFailureNone RequestFailureKind = iota
	RequestFailureTransport
	RequestFailureAuthExpired
	RequestFailureHTTP
)

// Request is the caller-shaped description of a single logical API call.
// Endpoint is relative to the configured base URL unless absolute.
type Request struct {
	Method    string
	Endpoint  string
	Body      []byte
	Header    http.Header
	RequestID string
}

// HTTPResponse is the transport-level result handed back by Send dependencies.
type HTTPResponse struct {
	Status int
	Body   []byte
	Header http.Header
}

// RequestResult carries the terminal state of one pipeline run.
type RequestResult struct {
	Failure   RequestFailureKind
	Err       error
	Response  *HTTPResponse
	Refreshed bool
	Replayed  bool
}

// RequestDeps captures request flow dependencies.
type RequestDeps struct {
	CurrentToken func() (string, bool)
	Send         func(ctx context.Context, req Request, token string) (*HTTPResponse, error)
	Refresh      func(ctx context.Context) (string, error)
	ForceLogout  func(ctx context.Context)
}

// RunRequest executes the attach→send→classify→refresh→replay state machine
// for one logical call. The replay, when it happens, reads the token back
// from CurrentToken so concurrent refreshes all settle on the same
// credential. A 401 on the replay itself is returned as-is — there is never
// a second refresh for the same call.
func RunRequest(ctx context.Context, req Request, deps RequestDeps) RequestResult {
	token, _ := deps.CurrentToken()

	resp, err := deps.Send(ctx, req, token)
	if err != nil {
		return RequestResult{
			Failure: RequestFailureTransport,
			Err:     err,
		}
	}

	switch Classify(resp.Status) {
	case OutcomeSuccess:
		return RequestResult{Response: resp}
	case OutcomeOtherError:
		return RequestResult{
			Failure:  RequestFailureHTTP,
			Response: resp,
		}
	case OutcomeAuthExpired:
	}

	if _, err := deps.Refresh(ctx); err != nil {
		deps.ForceLogout(ctx)
		return RequestResult{
			Failure:   RequestFailureAuthExpired,
			Err:       err,
			Refreshed: true,
		}
	}

	token, _ = deps.CurrentToken()
	resp, err = deps.Send(ctx, req, token)
	if err != nil {
		return RequestResult{
			Failure:   RequestFailureTransport,
			Err:       err,
			Refreshed: true,
			Replayed:  true,
		}
	}

	if Classify(resp.Status) == OutcomeSuccess {
		return RequestResult{
			Response:  resp,
			Refreshed: true,
			Replayed:  true,
		}
	}

	return RequestResult{
		Failure:   RequestFailureHTTP,
		Response:  resp,
		Refreshed: true,
		Replayed:  true,
	}
}
