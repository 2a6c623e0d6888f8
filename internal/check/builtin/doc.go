// Package builtin provides the stock check catalogue: presence, type,
// numeric and length bounds, identity and deep equality, list membership,
// pattern matching and cross-field duplication.
package builtin
