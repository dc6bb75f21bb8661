package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/storagekit/logger"
	"github.com/skillsenselab/storagekit/observability"
)

// Instrumented decorates a Storage with OpenTelemetry spans, metrics and
// structured logging per operation. Every call is wrapped in a span named
// "storage.<operation>" carrying the provider, the path and, for Exists and
// URL operations, the result ("exist", "url") as attributes.
type Instrumented struct {
	inner    Storage
	provider string
	log      *logger.Logger
	metrics  *observability.StorageMetrics
}

// NewInstrumented wraps inner with instrumentation. providerName tags spans,
// metrics and log events. metrics may be nil to disable metric recording.
func NewInstrumented(inner Storage, providerName string, log *logger.Logger, metrics *observability.StorageMetrics) *Instrumented {
	return &Instrumented{
		inner:    inner,
		provider: providerName,
		log:      log.WithComponent("storage"),
		metrics:  metrics,
	}
}

// Unwrap returns the decorated Storage.
func (s *Instrumented) Unwrap() Storage { return s.inner }

// Upload writes data from reader to the given path, counting bytes moved.
func (s *Instrumented) Upload(ctx context.Context, path string, reader io.Reader) error {
	cr := &countingReader{r: reader}
	err := s.span(ctx, "upload", path, nil, func(ctx context.Context) error {
		return s.inner.Upload(ctx, path, cr)
	})
	if err == nil {
		s.metrics.RecordBytes(ctx, "upload", s.provider, cr.n)
	}
	return err
}

// Download returns a reader for the object at the given path. The span covers
// the call that opens the stream; consumption happens on the caller's time.
func (s *Instrumented) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := s.span(ctx, "download", path, nil, func(ctx context.Context) error {
		var err error
		rc, err = s.inner.Download(ctx, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// Delete removes the object at the given path.
func (s *Instrumented) Delete(ctx context.Context, path string) error {
	return s.span(ctx, "delete", path, nil, func(ctx context.Context) error {
		return s.inner.Delete(ctx, path)
	})
}

// DeletePrefix removes the object or folder addressed by prefix.
func (s *Instrumented) DeletePrefix(ctx context.Context, prefix string) error {
	return s.span(ctx, "delete_prefixed", prefix, nil, func(ctx context.Context) error {
		return s.inner.DeletePrefix(ctx, prefix)
	})
}

// Exists checks whether an object exists, attaching the result to the span.
func (s *Instrumented) Exists(ctx context.Context, path string) (bool, error) {
	var exists bool
	result := map[string]any{}
	err := s.span(ctx, "exist", path, result, func(ctx context.Context) error {
		var err error
		exists, err = s.inner.Exists(ctx, path)
		if err == nil {
			result["exist"] = exists
		}
		return err
	})
	return exists, err
}

// URL returns a public URL, attaching it to the span.
func (s *Instrumented) URL(ctx context.Context, path string) (string, error) {
	var u string
	result := map[string]any{}
	err := s.span(ctx, "url", path, result, func(ctx context.Context) error {
		var err error
		u, err = s.inner.URL(ctx, path)
		if err == nil {
			result["url"] = u
		}
		return err
	})
	return u, err
}

// List returns metadata for all objects whose path starts with prefix.
func (s *Instrumented) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	var files []FileInfo
	err := s.span(ctx, "list", prefix, nil, func(ctx context.Context) error {
		var err error
		files, err = s.inner.List(ctx, prefix)
		return err
	})
	return files, err
}

// SignedURL generates a time-limited URL if the decorated backend supports it.
func (s *Instrumented) SignedURL(ctx context.Context, path string, opts SignedURLOptions) (string, error) {
	sp, ok := s.inner.(SignedURLProvider)
	if !ok {
		return "", fmt.Errorf("storage: provider %s does not support signed URLs", s.provider)
	}
	var u string
	result := map[string]any{}
	err := s.span(ctx, "url", path, result, func(ctx context.Context) error {
		var err error
		u, err = sp.SignedURL(ctx, path, opts)
		if err == nil {
			result["url"] = u
		}
		return err
	})
	return u, err
}

// span runs fn inside an instrumentation span, recording outcome on the span,
// the metrics and the log. result carries operation-specific payload fields
// attached after fn completes.
func (s *Instrumented) span(ctx context.Context, op, path string, result map[string]any, fn func(context.Context) error) error {
	ctx, sp := observability.StartSpan(ctx, "storage."+op)
	defer sp.End()

	requestID := uuid.NewString()
	observability.SetSpanAttribute(ctx, observability.AttrStorageProvider, s.provider)
	observability.SetSpanAttribute(ctx, observability.AttrOperationName, op)
	observability.SetSpanAttribute(ctx, observability.AttrStoragePath, path)
	observability.SetSpanAttribute(ctx, logger.FieldRequestID, requestID)

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	for k, v := range result {
		observability.SetSpanAttribute(ctx, k, v)
	}
	observability.SetSpanAttribute(ctx, observability.AttrDurationMs, duration.Milliseconds())

	s.metrics.RecordOperation(ctx, op, s.provider, duration, err)

	fields := logger.Fields(
		logger.FieldOperation, op,
		logger.FieldPath, path,
		logger.FieldProvider, s.provider,
		logger.FieldDuration, duration.Milliseconds(),
		logger.FieldRequestID, requestID,
	)
	if err != nil {
		observability.SetSpanError(ctx, err)
		s.log.Error("storage operation failed", logger.MergeWithError(fields, err))
		return err
	}
	s.log.Debug("storage operation complete", fields)
	return nil
}

// countingReader counts bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// compile-time checks
var _ Storage = (*Instrumented)(nil)
var _ SignedURLProvider = (*Instrumented)(nil)
