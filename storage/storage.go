package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload writes data from reader to the given path.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download returns a reader for the object at the given path.
	// The caller is responsible for closing the returned ReadCloser.
	// Returns ErrNotFound if no object exists at path.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the given path.
	// Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error

	// DeletePrefix removes everything stored under prefix. Backends with
	// native recursive deletion strip the trailing separator and delete the
	// single path it names instead of listing matching keys individually,
	// so callers should pass single-segment prefixes. Missing targets are
	// not an error.
	DeletePrefix(ctx context.Context, prefix string) error

	// Exists checks whether an object exists at the given path.
	// A missing object is (false, nil); any other backend failure is
	// returned as an error, never collapsed into false.
	Exists(ctx context.Context, path string) (bool, error)

	// URL returns a public URL for accessing the object at the given path.
	URL(ctx context.Context, path string) (string, error)

	// List returns metadata for all objects whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// SignedURLOptions carries optional parameters for signed link generation.
// Backends apply what they support and ignore the rest: the Dropbox backend
// controls link expiry and headers itself, so it ignores all of these.
type SignedURLOptions struct {
	// Expiry is the requested link lifetime.
	Expiry time.Duration
	// Filename suggests a download filename.
	Filename string
	// Disposition is the Content-Disposition type ("inline" or "attachment").
	Disposition string
	// ContentType overrides the response Content-Type.
	ContentType string
}

// SignedURLProvider is optionally implemented by storage backends that support
// generating time-limited signed URLs for private object access.
type SignedURLProvider interface {
	// SignedURL returns a time-limited URL for the object at path.
	SignedURL(ctx context.Context, path string, opts SignedURLOptions) (string, error)
}

// DownloadTo streams the object at path to w chunk by chunk without
// buffering the whole object in memory. It returns the number of bytes
// written.
func DownloadTo(ctx context.Context, s Storage, path string, w io.Writer) (int64, error) {
	rc, err := s.Download(ctx, path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return io.Copy(w, rc)
}
