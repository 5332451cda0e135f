package harness

// TraceEvent records the observable outcome of one scenario step.
//
// Post is the owner label of the target post, present on react and comment
// steps only. Reactions and Comments snapshot the target post's counters
// after the step and are present only when the step succeeded.
type TraceEvent struct {
	Seq       int64   `json:"seq"`
	Step      string  `json:"step"`
	Actor     string  `json:"actor"`
	Post      string  `json:"post,omitempty"`
	Output    string  `json:"output"`
	Reactions *uint64 `json:"reactions,omitempty"`
	Comments  *uint64 `json:"comments,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Passed is true when every step produced its expected outcome and
	// every assertion held.
	Passed bool `json:"passed"`

	// Trace lists one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Failures describes every expectation or assertion that did not hold.
	Failures []string `json:"failures,omitempty"`
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{
		Passed:   true,
		Trace:    []TraceEvent{},
		Failures: []string{},
	}
}

// AddFailure records a failed expectation and marks the result failed.
func (r *Result) AddFailure(msg string) {
	r.Failures = append(r.Failures, msg)
	r.Passed = false
}
