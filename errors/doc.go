// Package errors provides unified error handling for storagekit.
// It implements a structured error type with machine-readable codes,
// HTTP status mapping, and retryable detection.
package errors
