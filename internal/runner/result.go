package runner

import (
	"sort"
	"strings"
)

// Result maps failing check names to their failure payloads. An empty
// Result means the field is valid. Outside collect mode it holds at most
// one entry: the first failing check.
type Result map[string]any

// Valid reports whether no check failed.
func (r Result) Valid() bool {
	return len(r) == 0
}

// Value is the form published to the result record: false when valid,
// the failure mapping otherwise.
func (r Result) Value() any {
	if r.Valid() {
		return false
	}
	out := make(map[string]any, len(r))
	for name, payload := range r {
		out[name] = payload
	}
	return out
}

// Checks lists the failing check names in sorted order.
func (r Result) Checks() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r Result) String() string {
	if r.Valid() {
		return "valid"
	}
	return "failed: " + strings.Join(r.Checks(), ", ")
}

// ResultOf converts a published value back into a Result. Anything that is
// not a failure mapping reads as valid.
func ResultOf(published any) Result {
	switch v := published.(type) {
	case Result:
		return v
	case map[string]any:
		return Result(v)
	default:
		return nil
	}
}
