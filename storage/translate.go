package storage

import (
	"context"
	stderrors "errors"

	apperrors "github.com/skillsenselab/storagekit/errors"
)

// Translate converts a storage-layer error into an AppError suitable for an
// HTTP boundary. Errors outside the storage taxonomy are classified as
// external-service failures so that backend diagnostic detail is preserved
// in the cause chain.
func Translate(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case IsNotFound(err):
		return apperrors.NotFound("object", "").WithCause(err)
	case IsIntegrity(err):
		return apperrors.Integrity("object").WithCause(err)
	case IsAuthentication(err):
		return apperrors.Unauthorized("Storage backend authentication failed.").WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("storage").WithCause(err)
	case stderrors.Is(err, context.Canceled):
		return apperrors.Internal(err)
	default:
		return apperrors.ExternalService("storage", err)
	}
}
