package flows

import (
	"context"
	"fmt"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Send         func(ctx context.Context) (*HTTPResponse, error)
	ClearToken   func()
	ClearSession func(ctx context.Context) error
}

// LogoutResult reports the remote teardown outcome separately from the local
// one. Local teardown always runs.
type LogoutResult struct {
	RemoteErr error
	ClearErr  error
}

// RunLogout notifies the server over the cookie-credentialed logout endpoint
// and then clears token memory and the session record. A remote failure is
// recorded but never blocks the local teardown.
func RunLogout(ctx context.Context, deps LogoutDeps) LogoutResult {
	var result LogoutResult

	resp, err := deps.Send(ctx)
	switch {
	case err != nil:
		result.RemoteErr = err
	case Classify(resp.Status) != OutcomeSuccess:
		result.RemoteErr = fmt.Errorf("logout endpoint returned status %d", resp.Status)
	}

	deps.ClearToken()
	result.ClearErr = deps.ClearSession(ctx)

	return result
}
