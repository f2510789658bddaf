package leads

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSubmissionInFlight rejects a submit while another one is pending.
var ErrSubmissionInFlight = errors.New("leads: submission already in progress")

// NetworkKind classifies transport failures. The classification is best
// effort: it depends on what the transport exposes about the failure.
type NetworkKind string

const (
	NetworkConnectivity NetworkKind = "connectivity"
	NetworkTimeout      NetworkKind = "timeout"
	NetworkRejected     NetworkKind = "rejected"
	NetworkCanceled     NetworkKind = "canceled"
	NetworkUnknown      NetworkKind = "unknown"
)

// ValidationError lists required fields left empty. Nothing was sent.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "leads: missing required fields: " + strings.Join(e.Missing, ", ")
}

// UserMessage names the missing fields by label.
func (e *ValidationError) UserMessage() string {
	labels := make([]string, 0, len(e.Missing))
	for _, id := range e.Missing {
		labels = append(labels, Label(id))
	}
	return "Please fill in all required fields: " + strings.Join(labels, ", ")
}

// ServerError means the webhook answered with a non-success status.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("leads: webhook responded %d: %s", e.StatusCode, e.Body)
}

// UserMessage includes the status code and raw response text when present.
func (e *ServerError) UserMessage() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("Server error (%d). Please try again.", e.StatusCode)
	}
	return fmt.Sprintf("Server error (%d): %s", e.StatusCode, body)
}

// NetworkError means the request never produced a response.
type NetworkError struct {
	Kind NetworkKind
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("leads: network error (%s): %v", e.Kind, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UserMessage describes the failure per kind.
func (e *NetworkError) UserMessage() string {
	switch e.Kind {
	case NetworkConnectivity:
		return "Could not connect to the submission service. Please check your internet connection and try again."
	case NetworkTimeout:
		return "The submission service took too long to respond. Please try again."
	case NetworkRejected:
		return "The submission service rejected the connection. Please contact us if this keeps happening."
	case NetworkCanceled:
		return "The submission was cancelled before it completed. Please try again."
	default:
		return "There was an error submitting your request. Please try again."
	}
}

// Detail returns the user facing text for a submit error.
func Detail(err error) string {
	var msg interface{ UserMessage() string }
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSubmissionInFlight):
		return "Your request is already being processed."
	case errors.As(err, &msg):
		return msg.UserMessage()
	default:
		return "There was an error submitting your request. Please try again."
	}
}
