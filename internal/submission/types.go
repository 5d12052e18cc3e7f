package submission

import "time"

// Outcome classifies what happened to one meter's field in a submission.
type Outcome string

// Possible per-meter outcomes.
const (
	// OutcomeWritten means the reading was validated and stored.
	OutcomeWritten Outcome = "written"

	// OutcomeSkipped means the field was blank and deliberately ignored.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeInvalid means the field value failed validation.
	OutcomeInvalid Outcome = "invalid"

	// OutcomeWriteFailed means the reading was valid but the store
	// rejected the write. The value is not retried or buffered.
	OutcomeWriteFailed Outcome = "write_failed"
)

// MeterResult is the outcome for a single meter within a submission.
type MeterResult struct {
	MeterID     string   `json:"meter_id"`
	MeterName   string   `json:"meter_name"`
	Room        string   `json:"room"`
	Outcome     Outcome  `json:"outcome"`
	StoredValue *float64 `json:"stored_value,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Result summarises a whole submission.
type Result struct {
	SubmissionID string        `json:"submission_id"`
	Timestamp    time.Time     `json:"timestamp"`
	Results      []MeterResult `json:"results"`
	Written      int           `json:"written"`
	Skipped      int           `json:"skipped"`
	Invalid      int           `json:"invalid"`
	Failed       int           `json:"failed"`
}

// OK reports whether the submission had no invalid fields and no write
// failures. Skipped meters do not count against success.
func (r *Result) OK() bool {
	return r.Invalid == 0 && r.Failed == 0
}
