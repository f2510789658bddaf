package leads

import "slices"

// Status is the submission status shown next to the form.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// SuccessDetail is shown after the webhook accepted a submission.
const SuccessDetail = "Request submitted successfully! You'll receive your custom reward strategy report shortly."

// State is everything one visitor's form carries between requests.
type State struct {
	Values  FormValues `json:"values"`
	Status  Status     `json:"status"`
	Detail  string     `json:"detail,omitempty"`
	Missing []string   `json:"missing,omitempty"`
}

// NewState returns an idle, empty form.
func NewState() *State {
	return &State{Values: NewFormValues(), Status: StatusIdle}
}

// Normalize restores invariants after decoding.
func (s *State) Normalize() {
	s.Values.Normalize()
	if s.Status == "" {
		s.Status = StatusIdle
	}
}

// IsMissing reports whether the last validation flagged field.
func (s *State) IsMissing(field string) bool {
	return slices.Contains(s.Missing, field)
}
