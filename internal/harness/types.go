package harness

// StepError is the construction error a step produced.
type StepError struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Check   string `json:"check,omitempty"`
	Message string `json:"message"`
}

// StepEvent records the outcome of one scenario step.
type StepEvent struct {
	Step int    `json:"step"`
	Op   string `json:"op"` // "construct" or "decode"
	Type string `json:"type"`
	Name string `json:"name,omitempty"`

	// Record is the encoded record as plain values. Nil if the step failed.
	Record map[string]any `json:"record,omitempty"`

	Error    *StepError `json:"error,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`

	// Stored is the number of rows written by a put step.
	Stored int `json:"stored,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step met its expectation and
	// every assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []StepEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step event to the trace.
func (r *Result) AddStep(e StepEvent) {
	r.Trace = append(r.Trace, e)
}
