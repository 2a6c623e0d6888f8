package series

import (
	"fmt"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/record"
	"github.com/kingrea/fieldcheck/internal/runner"
)

// Failure is a failed check. Plain failures are reported as a done result
// and the series continues; fatal failures are reported as the run's error.
type Failure struct {
	Check   string
	Payload any
	Fatal   bool
}

func (f *Failure) Error() string {
	return fmt.Sprintf("check %s failed: %v", f.Check, f.Payload)
}

// CheckEntries adapts configured check steps into series entries. The run
// context must be the record.Attributes snapshot the checks evaluate
// against. Steps are already configured, so the entries never read
// Call.Config. An abort requested by a check aborts the run.
func CheckEntries(steps []runner.Step) []Entry {
	entries := make([]Entry, 0, len(steps))
	for _, step := range steps {
		step := step
		entries = append(entries, Entry{
			Key: step.Name,
			Task: func(call *Call, done Done) {
				attrs, _ := call.Context.(record.Attributes)
				step.Evaluator.Evaluate(call.Value, attrs, func(failure any, meta ...check.Meta) {
					if check.Failed(failure) {
						f := &Failure{Check: step.Name, Payload: failure, Fatal: step.Fatal}
						if step.Fatal {
							done(nil, f)
							return
						}
						done(f, nil)
						return
					}
					if check.MergeMeta(meta).Abort {
						call.Abort()
					}
					done(nil, nil)
				})
			},
		})
	}
	return entries
}
