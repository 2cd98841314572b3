package handler

// FailureRecord is one non-fatal failure observed while parsing: the raw
// offending input plus the reason it was skipped. Stage is filled in when
// a handler-scoped context is merged into the flow-scoped one.
type FailureRecord struct {
	Stage  string `json:"stage,omitempty"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// ParserContext accumulates row-level failures for one handler invocation.
// It is return-only diagnostics: nothing in the pipeline branches on it.
type ParserContext struct {
	failures []FailureRecord
}

// NewParserContext creates an empty parser context
func NewParserContext() *ParserContext {
	return &ParserContext{}
}

// NoteFailure records a skipped input row. Never fails.
func (c *ParserContext) NoteFailure(raw, reason string) {
	c.failures = append(c.failures, FailureRecord{Raw: raw, Reason: reason})
}

// Failures returns the recorded failures in observation order
func (c *ParserContext) Failures() []FailureRecord {
	out := make([]FailureRecord, len(c.failures))
	copy(out, c.failures)
	return out
}

// Len returns the number of recorded failures
func (c *ParserContext) Len() int {
	return len(c.failures)
}

// FlowContext aggregates failure records across all handler invocations of
// one flow run. It is the only diagnostic surface exposed to the caller.
type FlowContext struct {
	failures []FailureRecord
}

// NewFlowContext creates an empty flow context
func NewFlowContext() *FlowContext {
	return &FlowContext{}
}

// Merge folds a handler-scoped context into the aggregate, attributing each
// record to the given stage. Pure append, no deduplication.
func (c *FlowContext) Merge(stage string, pctx *ParserContext) {
	for _, f := range pctx.failures {
		f.Stage = stage
		c.failures = append(c.failures, f)
	}
}

// Failures returns all aggregated failures in merge order
func (c *FlowContext) Failures() []FailureRecord {
	out := make([]FailureRecord, len(c.failures))
	copy(out, c.failures)
	return out
}

// HasFailures reports whether any row-level failure was recorded
func (c *FlowContext) HasFailures() bool {
	return len(c.failures) > 0
}

// Len returns the number of aggregated failures
func (c *FlowContext) Len() int {
	return len(c.failures)
}
