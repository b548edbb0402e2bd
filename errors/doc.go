// Package errors provides the structured error type used across starschema.
//
// Every failure a stage or the graph can report is an *AppError carrying a
// machine-readable code, a human-readable message, and a retryable flag.
// The executor consults IsRetryable to decide whether a failed stage may be
// attempted again.
package errors
