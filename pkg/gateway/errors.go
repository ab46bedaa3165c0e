package gateway

import (
	"errors"
	"fmt"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/metrics"
)

// The three remote failure axes, normalized to one taxonomy. Local storage
// failures are the fourth axis and live in pkg/store.
var (
	// ErrTransport means no usable response reached us: dial failure,
	// timeout, or a non-2xx HTTP status.
	ErrTransport = errors.New("gateway: transport failure")

	// ErrApplication means the backend responded but reported logical
	// failure in its envelope. The message is for direct display.
	ErrApplication = errors.New("gateway: application failure")

	// ErrDataShape means the response was not valid JSON or was missing
	// expected envelope fields.
	ErrDataShape = errors.New("gateway: malformed response")

	// ErrCircuitOpen means the breaker is rejecting calls after repeated
	// transport failures.
	ErrCircuitOpen = errors.New("gateway: circuit open")
)

// ApplicationError carries the backend's human-readable failure message.
type ApplicationError struct {
	Endpoint string
	Message  string
}

// Error implements the error interface.
func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway %s: request failed", e.Endpoint)
	}
	return e.Message
}

// Unwrap makes errors.Is(err, ErrApplication) work.
func (e *ApplicationError) Unwrap() error {
	return ErrApplication
}

// IsTransport checks for the transport failure axis, including an open
// circuit (the backend is equally unreachable either way).
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrCircuitOpen)
}

// IsApplication checks for the backend-reported failure axis.
func IsApplication(err error) bool {
	return errors.Is(err, ErrApplication)
}

// IsDataShape checks for the malformed-response axis.
func IsDataShape(err error) bool {
	return errors.Is(err, ErrDataShape)
}

// DisplayMessage extracts the message suitable for direct UI display.
// Application errors pass their backend message through; everything else
// maps to a generic retry prompt.
func DisplayMessage(err error) string {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	if err != nil {
		return "Unable to reach the server. Please try again."
	}
	return ""
}

// ClassifyOutcome maps an error onto a metrics outcome label.
func ClassifyOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case IsApplication(err):
		return metrics.OutcomeApplication
	case IsDataShape(err):
		return metrics.OutcomeDataShape
	default:
		return metrics.OutcomeTransport
	}
}
