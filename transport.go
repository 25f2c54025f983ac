package goAuthClient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Transport is an [http.RoundTripper] that routes third-party HTTP consumers
// through the authenticated pipeline: bearer attach, 401 refresh and a
// single replay happen transparently underneath libraries that only accept
// an *http.Client.
//
// Transport instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Transport struct {
	client *Client
}

// NewTransport describes the newtransport operation and its observable behavior.
//
// NewTransport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewTransport(client *Client) *Transport {
	return &Transport{client: client}
}

// Transport returns an [http.RoundTripper] backed by this client, for
// wrapping in an *http.Client handed to data-layer libraries.
//
// Transport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Transport() http.RoundTripper {
	return NewTransport(c)
}

// RoundTrip satisfies [http.RoundTripper]. Non-2xx responses are returned as
// responses, per the RoundTripper contract; only transport failures and the
// authentication-expired verdict surface as errors.
//
// RoundTrip may return an error when input validation, dependency calls, or security checks fail.
// RoundTrip does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t == nil || t.client == nil {
		return nil, ErrClientNotReady
	}

	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body = b
	}

	resp, err := t.client.do(req.Context(), req.Method, req.URL.String(), body, req.Header)
	if resp == nil {
		return nil, err
	}

	var apiErr *APIError
	if err != nil && !errors.As(err, &apiErr) {
		return nil, err
	}

	header := resp.Header
	if header == nil {
		header = http.Header{}
	}

	return &http.Response{
		Status:        strconv.Itoa(resp.Status) + " " + http.StatusText(resp.Status),
		StatusCode:    resp.Status,
		Proto:         req.Proto,
		ProtoMajor:    req.ProtoMajor,
		ProtoMinor:    req.ProtoMinor,
		Header:        header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(resp.Body)),
		ContentLength: int64(len(resp.Body)),
		Request:       req,
	}, nil
}
