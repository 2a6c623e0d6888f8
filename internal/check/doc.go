// Package check defines the contract every validation check implements,
// the layered registries that hold check definitions and named patterns,
// and the error taxonomy raised while configuring checks.
package check
