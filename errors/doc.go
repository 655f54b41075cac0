// Package errors provides the typed errors used across dataflow.
// Every failure carries a machine-readable code, a retryable flag and an
// optional cause, so callers can tell lookup failures from fatal stage faults.
package errors
