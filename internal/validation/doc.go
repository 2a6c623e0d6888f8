// Package validation owns one runner per configured field and keeps a
// record's validation state current as its attributes change.
//
// Validate compares a proposed snapshot against the source record, expands
// the changed fields through the relation graph (transitively) and restarts
// the runner of every affected field. Each run publishes nil (undefined) for
// its field on the result record when it starts and the field's outcome
// when it ends: false for valid, a map of failing check names to payloads
// otherwise. Pending and error counts are maintained alongside.
//
// Like the runners it drives, a Validator is not safe for concurrent use.
package validation
