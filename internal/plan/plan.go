package plan

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kingrea/fieldcheck/internal/check"
)

// Plan is an ordered, duplicate-free list of check names. Every prerequisite
// appears before the checks that require it. Plans are shared and must not be
// mutated.
type Plan struct {
	Steps []string
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Steps)
}

// Index returns the position of name in the plan, or -1.
func (p *Plan) Index(name string) int {
	if p == nil {
		return -1
	}
	for i, step := range p.Steps {
		if step == name {
			return i
		}
	}
	return -1
}

// String renders the plan as "a -> b -> c".
func (p *Plan) String() string {
	if p == nil {
		return ""
	}
	return strings.Join(p.Steps, " -> ")
}

// Resolver builds plans from a catalogue's check definitions.
type Resolver struct {
	catalogue *check.Catalogue

	mu    sync.Mutex
	cache map[string]*Plan
}

// NewResolver constructs a resolver over catalogue.
func NewResolver(catalogue *check.Catalogue) (*Resolver, error) {
	if catalogue == nil {
		return nil, fmt.Errorf("plan: catalogue is required")
	}
	return &Resolver{catalogue: catalogue, cache: make(map[string]*Plan)}, nil
}

// Resolve returns the plan for the requested check names. Resolving the same
// names again returns the same *Plan.
func (r *Resolver) Resolve(requested ...string) (*Plan, error) {
	names := dedupe(requested)
	key := strings.Join(names, "\x00")

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[key]; ok {
		return cached, nil
	}

	placed := make(map[string]bool, len(names))
	inProgress := make(map[string]bool)
	var trail []string
	steps := make([]string, 0, len(names))

	var visit func(name, requiredBy string) error
	visit = func(name, requiredBy string) error {
		if placed[name] {
			return nil
		}
		if inProgress[name] {
			return &check.DependencyCycleError{Path: cyclePath(trail, name)}
		}
		def, ok := r.catalogue.Check(name)
		if !ok {
			return &check.UnknownCheckError{Name: name, RequiredBy: requiredBy}
		}
		inProgress[name] = true
		trail = append(trail, name)
		for _, dep := range def.Requires {
			if err := visit(dep, name); err != nil {
				return err
			}
		}
		trail = trail[:len(trail)-1]
		delete(inProgress, name)
		placed[name] = true
		steps = append(steps, name)
		return nil
	}
	for _, name := range names {
		if err := visit(name, ""); err != nil {
			return nil, err
		}
	}

	resolved := &Plan{Steps: steps}
	r.cache[key] = resolved
	return resolved, nil
}

// Cached reports how many distinct plans have been resolved.
func (r *Resolver) Cached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func cyclePath(trail []string, name string) []string {
	start := 0
	for i, step := range trail {
		if step == name {
			start = i
			break
		}
	}
	path := append([]string{}, trail[start:]...)
	return append(path, name)
}
