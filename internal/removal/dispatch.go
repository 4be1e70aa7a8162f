package removal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"secureflag-tools/internal/secureflag"
)

// Remover is the write side of the management API.
type Remover interface {
	RemoveAssignments(ctx context.Context, req secureflag.RemoveAssignmentsRequest) (secureflag.RemoveAssignmentsResponse, error)
}

// failureKeys in a 2xx body mean the API rejected part of the request.
var failureKeys = []string{"error", "failed", "errors", "failures"}

// APIReportedError is a 2xx answer whose body still reports a failure.
type APIReportedError struct {
	User string
	Body string
}

func (e *APIReportedError) Error() string {
	return fmt.Sprintf("API reported error for %s: %s", e.User, e.Body)
}

func bodyReportsFailure(body []byte) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return false
	}
	for _, k := range failureKeys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

type Dispatcher struct {
	Client Remover
	DryRun bool
	// Out receives the per-user result lines.
	Out io.Writer
	Log *zap.Logger
}

// Dispatch sends one request per user and stops at the first failure.
// In dry-run mode the payloads are printed instead and nothing is sent.
func (d Dispatcher) Dispatch(ctx context.Context, users []UserRemoval) error {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	out := d.Out
	if out == nil {
		out = io.Discard
	}

	for _, u := range users {
		if u.Empty() {
			return &NoActivitiesError{User: u.User}
		}

		req := u.Request()
		payload, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("removal: marshal payload for %s: %w", u.User, err)
		}

		if d.DryRun {
			fmt.Fprintf(out, "[Dry-run] Would remove for %s: %s\n", u.User, payload)
			continue
		}

		resp, err := d.Client.RemoveAssignments(ctx, req)
		if err != nil {
			return fmt.Errorf("error removing for %s: %w", u.User, err)
		}
		if bodyReportsFailure(resp.Body) {
			return &APIReportedError{User: u.User, Body: string(resp.Body)}
		}

		fmt.Fprintf(out, "Removed %d Paths and %d Labs for %s [HTTP %d]\n",
			len(req.AssignedPaths), len(req.AssignedLabs), u.User, resp.StatusCode)
		log.Debug("removal request",
			zap.String("user", u.User),
			zap.ByteString("payload", payload),
			zap.ByteString("response", resp.Body),
		)
	}
	return nil
}
