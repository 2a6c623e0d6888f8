// Package series runs named asynchronous tasks one after another against a
// value and a caller-supplied context. Several runs may be in flight at
// once; each is isolated by its own execution state, so a slow task of one
// run never affects another.
//
// A run emits start, then done for every task that completes, then either
// error (the first task that reports an error) or end. A task may abort its
// run: the run stops after that task's done without error or end.
package series
