package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/howard-nolan/vertexproxy/internal/auth"
)

// Outcome classifies one region attempt's result (spec.md §3, §4.6).
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeTerminal
	OutcomeTransportError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeTerminal:
		return "terminal"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// RegionAttempt is the per-region execution record (spec.md §3). It is
// local to a single dispatch and is never persisted.
type RegionAttempt struct {
	Region  string
	Start   time.Time
	Outcome Outcome
	Status  int
	Body    string
	Err     error
}

// retryableSubstrings are body fragments that force a retryable
// classification regardless of status code (spec.md §4.6).
var retryableSubstrings = []string{"capacity", "overloaded", "unavailable"}

func classifyBody(status int, body []byte) Outcome {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return OutcomeRetryable
	}
	lower := strings.ToLower(string(body))
	for _, s := range retryableSubstrings {
		if strings.Contains(lower, s) {
			return OutcomeRetryable
		}
	}
	return OutcomeTerminal
}

// AttemptFunc performs one region's upstream POST and returns the raw
// response. It must not read or close resp.Body on a 2xx response —
// the failover loop hands that body to the Response Handler untouched
// so streaming bodies are never buffered.
type AttemptFunc func(ctx context.Context, region string) (*http.Response, error)

// FailoverResult is the outcome of a successful failover run: the
// winning region's response, plus the full attempt log for logging.
type FailoverResult struct {
	Response *http.Response
	Region   string
	Attempts []RegionAttempt
}

// TerminalError is surfaced immediately when a region attempt
// classifies as terminal (spec.md §4.6: "surfaces terminal
// immediately... no further regions tried").
type TerminalError struct {
	Status   int
	Body     string
	Attempts []RegionAttempt
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("upstream terminal error (status %d): %s", e.Status, e.Body)
}

// ExhaustedError is surfaced when every region in the plan was tried
// and none succeeded or terminated (spec.md §4.6: "records the last
// retryable error for final reporting if all regions are exhausted").
// TransportErr is set instead of Status/Body when the last attempt
// failed before it ever received upstream headers.
type ExhaustedError struct {
	Status       int
	Body         string
	TransportErr error
	Attempts     []RegionAttempt
}

func (e *ExhaustedError) Error() string {
	if e.TransportErr != nil {
		return fmt.Sprintf("all regions exhausted, last attempt was a transport error: %v", e.TransportErr)
	}
	return fmt.Sprintf("all regions exhausted, last attempt status %d: %s", e.Status, e.Body)
}

// ErrNoRegions is returned when the region plan is empty, which
// spec.md §4.5 says "should not happen" but the loop guards against
// anyway.
var ErrNoRegions = errors.New("dispatch: no regions in plan")

// RunFailover iterates regions in plan order, sequentially (spec.md
// §4.6: "no parallel fan-out"), classifying each outcome and stopping
// on the first success or terminal failure. It honors ctx cancellation
// between regions — on cancellation it abandons the loop without
// starting the next region.
func RunFailover(ctx context.Context, regions []string, do AttemptFunc) (*FailoverResult, error) {
	if len(regions) == 0 {
		return nil, ErrNoRegions
	}

	var attempts []RegionAttempt
	var lastStatus int
	var lastBody string
	var lastTransportErr error

	for _, region := range regions {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		resp, err := do(ctx, region)
		if err != nil {
			var authErr *auth.AuthError
			if errors.As(err, &authErr) {
				// The credential provider refused outright; every other
				// region shares the same credential source, so retrying
				// them would just reproduce the same failure. Surface
				// immediately rather than burning through the plan.
				return nil, err
			}
			attempts = append(attempts, RegionAttempt{Region: region, Start: start, Outcome: OutcomeTransportError, Err: err})
			lastTransportErr = err
			lastStatus, lastBody = 0, ""
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			attempts = append(attempts, RegionAttempt{Region: region, Start: start, Outcome: OutcomeSuccess, Status: resp.StatusCode})
			return &FailoverResult{Response: resp, Region: region, Attempts: attempts}, nil
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		outcome := classifyBody(resp.StatusCode, body)
		attempts = append(attempts, RegionAttempt{Region: region, Start: start, Outcome: outcome, Status: resp.StatusCode, Body: string(body)})

		if outcome == OutcomeTerminal {
			return nil, &TerminalError{Status: resp.StatusCode, Body: string(body), Attempts: attempts}
		}

		lastTransportErr = nil
		lastStatus, lastBody = resp.StatusCode, string(body)
	}

	return nil, &ExhaustedError{
		Status:       lastStatus,
		Body:         lastBody,
		TransportErr: lastTransportErr,
		Attempts:     attempts,
	}
}
