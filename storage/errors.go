package storage

import "errors"

// Sentinel errors forming the stable error taxonomy of the storage layer.
// Backends map their native failure signals onto these; conditions with no
// storage-level meaning are propagated unchanged.
var (
	// ErrNotFound indicates no object exists at the requested path.
	ErrNotFound = errors.New("storage: object not found")

	// ErrIntegrity indicates an upload could not be verified as stored
	// correctly (checksum mismatch or truncated transfer).
	ErrIntegrity = errors.New("storage: content integrity verification failed")

	// ErrAuthentication indicates the backend rejected or could not issue
	// credentials (e.g. a failed token refresh).
	ErrAuthentication = errors.New("storage: backend authentication failed")
)

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsIntegrity reports whether err is, or wraps, ErrIntegrity.
func IsIntegrity(err error) bool { return errors.Is(err, ErrIntegrity) }

// IsAuthentication reports whether err is, or wraps, ErrAuthentication.
func IsAuthentication(err error) bool { return errors.Is(err, ErrAuthentication) }
