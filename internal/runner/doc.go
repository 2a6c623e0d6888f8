// Package runner executes one field's check plan sequentially against a
// value. Each run is identified by a ticket; completions carrying an older
// ticket than the runner's current one are discarded, so restarting a run is
// all it takes to cancel the previous one.
//
// A Runner is not safe for concurrent use. Checks that complete later must
// deliver their completion on the goroutine that drives the runner, for
// example through loop.Loop.
package runner
