package check

import "github.com/kingrea/fieldcheck/internal/record"

// Meta carries optional out-of-band instructions alongside a completion.
type Meta struct {
	// Abort ends the run as valid without evaluating remaining checks.
	Abort bool
}

// Completion reports the outcome of one evaluation. A nil or false failure
// means the check passed; any other value fails the check and is carried
// verbatim into the field's result. It must be called exactly once per
// evaluation, synchronously or later.
type Completion func(failure any, meta ...Meta)

// Evaluator is a configured check bound to a single field.
type Evaluator interface {
	Evaluate(value any, attrs record.Attributes, done Completion)
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(value any, attrs record.Attributes, done Completion)

// Evaluate calls f(value, attrs, done).
func (f EvaluatorFunc) Evaluate(value any, attrs record.Attributes, done Completion) {
	f(value, attrs, done)
}

// Failed reports whether a completion payload counts as a failure.
func Failed(failure any) bool {
	if failure == nil {
		return false
	}
	if b, ok := failure.(bool); ok {
		return b
	}
	return true
}

// MergeMeta folds optional completion metadata into one value.
func MergeMeta(meta []Meta) Meta {
	var out Meta
	for _, m := range meta {
		out.Abort = out.Abort || m.Abort
	}
	return out
}
