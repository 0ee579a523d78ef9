// Package research defines the deep-research pipeline consumed by the
// dispatcher, plus the Gemini-backed implementation and the markdown
// report writer.
//
// The dispatcher and transports depend only on the Engine interface;
// the pipeline itself is replaceable (and is replaced by fakes in tests).
package research

import "context"

// ProgressFunc receives one-way progress notifications while a research
// run is in flight. It carries no control-flow significance; sinks
// typically just log.
type ProgressFunc func(stage, detail string)

// Request describes one logical research run.
type Request struct {
	Query             string
	Depth             int // 1..5, recursion depth of follow-up queries
	Breadth           int // 1..5, parallel query fan-out per level
	ExistingLearnings []string
	Goal              string

	// Per-call overrides of the process-level feature flags. Nil means
	// "use the configured default".
	Grounding  *bool
	URLContext *bool
}

// Result is what a completed research run produces. Content is
// authoritative when present; otherwise ReportPath points at a file
// holding the rendered report.
type Result struct {
	Learnings   []string
	VisitedURLs []string
	ReportPath  string
	Content     string
}

// Engine runs a research request to completion. Once invoked it runs to
// completion or failure; callers must not expect mid-run cancellation
// beyond ctx deadline semantics.
type Engine interface {
	Research(ctx context.Context, req Request, progress ProgressFunc) (Result, error)
}

// ClampLevel forces depth/breadth into the supported 1..5 range,
// substituting the fallback when the value is unset (zero).
func ClampLevel(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}
