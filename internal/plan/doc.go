// Package plan resolves the checks requested for a field into an execution
// plan that runs every prerequisite before its dependents. Plans are cached
// so fields requesting the same checks share one plan.
package plan
