package flows

import (
	"context"
	"encoding/json"
	"fmt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureTransport
	RefreshFailureStatus
	RefreshFailureDecode
	RefreshFailureMissingToken
)

// RefreshResult carries either the exchanged token or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Status  int
	Token   string
}

// RefreshDeps captures refresh flow dependencies. Send must perform the
// cookie-credentialed exchange: no bearer header, no body, Accept JSON.
type RefreshDeps struct {
	Send func(ctx context.Context) (*HTTPResponse, error)
}

type refreshEnvelope struct {
	Payload struct {
		AccessToken string `json:"accessToken"`
	} `json:"payload"`
	AccessToken string `json:"accessToken"`
	Token       string `json:"token"`
}

// RunRefresh executes one refresh exchange against the session cookie and
// extracts the replacement credential. The token field is checked in order
// payload.accessToken, accessToken, token; the first non-empty wins. A 2xx
// response without any of them is a definitive failure — no partial or
// ambiguous states are retained.
func RunRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	resp, err := deps.Send(ctx)
	if err != nil {
		return RefreshResult{
			Failure: RefreshFailureTransport,
			Err:     err,
		}
	}

	if Classify(resp.Status) != OutcomeSuccess {
		return RefreshResult{
			Failure: RefreshFailureStatus,
			Err:     fmt.Errorf("refresh endpoint returned status %d", resp.Status),
			Status:  resp.Status,
		}
	}

	var envelope refreshEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return RefreshResult{
			Failure: RefreshFailureDecode,
			Err:     fmt.Errorf("decode refresh response: %w", err),
			Status:  resp.Status,
		}
	}

	token := ExtractToken(envelope.Payload.AccessToken, envelope.AccessToken, envelope.Token)
	if token == "" {
		return RefreshResult{
			Failure: RefreshFailureMissingToken,
			Status:  resp.Status,
		}
	}

	return RefreshResult{
		Status: resp.Status,
		Token:  token,
	}
}

// ExtractToken returns the first non-empty candidate. Shared by the refresh
// and login flows, which read the same envelope field order.
func ExtractToken(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
