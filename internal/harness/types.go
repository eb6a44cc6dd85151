package harness

import "fmt"

// TraceEvent is one journal row rendered for assertions and golden
// snapshots. Content and Result carry canonical JSON text.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Token   string `json:"token"`
	Entity  string `json:"entity"`
	Op      string `json:"op"`
	Content string `json:"content,omitempty"`
	Outcome string `json:"outcome"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace is the journal in sequence order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists expectation and assertion failures. Empty when Pass.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
