// Package dropbox implements storage.Storage on the Dropbox API v2.
//
// Authentication uses the OAuth2 refresh-token flow: a long-lived refresh
// token is exchanged for short-lived access tokens, which are cached and
// refreshed shortly before expiry with single-flight semantics so that
// concurrent callers never trigger duplicate token exchanges.
package dropbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/skillsenselab/storagekit/logger"
	"github.com/skillsenselab/storagekit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderDropbox, func(cfg storage.Config, providerCfg any, log *logger.Logger) (storage.Storage, error) {
		c := &Config{}
		if providerCfg != nil {
			pc, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("dropbox: expected *dropbox.Config, got %T", providerCfg)
			}
			c = pc
		}
		if c.AppKey == "" {
			c.AppKey = cfg.AppKey
		}
		if c.AppSecret == "" {
			c.AppSecret = cfg.AppSecret
		}
		if c.RefreshToken == "" {
			c.RefreshToken = cfg.RefreshToken
		}
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewStorage(c)
	})
}

// Storage implements storage.Storage using the Dropbox API.
type Storage struct {
	tokens     *tokenCache
	verifyHash bool
}

// NewStorage creates a new Dropbox storage client from the given config.
func NewStorage(cfg *Config) (*Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: 5 * time.Minute,
	}
	tokens := newTokenCache(cfg, httpClient, func(accessToken string) *apiClient {
		return newAPIClient(accessToken, cfg.APIURL, cfg.ContentURL, httpClient)
	})

	return &Storage{
		tokens:     tokens,
		verifyHash: !cfg.DisableContentVerify,
	}, nil
}

// rooted prefixes path with "/", the root of Dropbox's flat namespace.
func rooted(path string) string {
	return "/" + strings.TrimPrefix(path, "/")
}

// Upload writes data from reader to Dropbox. When content hash verification
// is enabled, a mismatch between the locally computed hash and the hash
// reported by the backend fails with ErrIntegrity: the caller must not assume
// the object was stored correctly.
func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader) error {
	client, err := s.tokens.client(ctx)
	if err != nil {
		return err
	}

	var hasher *contentHasher
	if s.verifyHash {
		hasher = newContentHasher()
		reader = io.TeeReader(reader, hasher)
	}

	md, err := client.upload(ctx, rooted(path), reader)
	if err != nil {
		return fmt.Errorf("storage: dropbox upload: %w", err)
	}

	if hasher != nil && md.ContentHash != "" && md.ContentHash != hasher.Sum() {
		return fmt.Errorf("%w: content hash mismatch for %s", storage.ErrIntegrity, path)
	}
	return nil
}

// Download returns a streaming reader for the object at the given path.
// Bytes are delivered in backend order with no buffering of the whole object.
func (s *Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	client, err := s.tokens.client(ctx)
	if err != nil {
		return nil, err
	}

	rc, err := client.download(ctx, rooted(path))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
		}
		return nil, fmt.Errorf("storage: dropbox download: %w", err)
	}
	return rc, nil
}

// Delete removes the object at path. Deleting a missing object succeeds:
// the backend's not-found signal is collapsed into the success outcome.
func (s *Storage) Delete(ctx context.Context, path string) error {
	client, err := s.tokens.client(ctx)
	if err != nil {
		return err
	}

	if err := client.delete(ctx, rooted(path)); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("storage: dropbox delete: %w", err)
	}
	return nil
}

// DeletePrefix removes the single path named by prefix with its trailing
// separator stripped. Dropbox deletes folders recursively on its side, so a
// folder prefix removes the folder's contents; no per-key listing happens
// here. Missing targets succeed.
func (s *Storage) DeletePrefix(ctx context.Context, prefix string) error {
	return s.Delete(ctx, strings.TrimSuffix(prefix, "/"))
}

// Exists checks whether an object exists via a metadata probe. Only the
// backend's not-found signal maps to false; any other failure is returned
// so callers never mistake an outage for an absent object.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	client, err := s.tokens.client(ctx)
	if err != nil {
		return false, err
	}

	if _, err := client.getMetadata(ctx, rooted(path)); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage: dropbox metadata: %w", err)
	}
	return true, nil
}

// URL returns a temporary public link to the object. Dropbox issues and
// expires these links itself.
func (s *Storage) URL(ctx context.Context, path string) (string, error) {
	client, err := s.tokens.client(ctx)
	if err != nil {
		return "", err
	}

	link, err := client.temporaryLink(ctx, rooted(path))
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: %s", storage.ErrNotFound, path)
		}
		return "", fmt.Errorf("storage: dropbox temporary link: %w", err)
	}
	return link, nil
}

// SignedURL returns a temporary link to the object. The expiry, filename,
// disposition and content type options are accepted for interface symmetry
// but not applied: the backend's temporary-link feature controls its own
// expiry and headers.
func (s *Storage) SignedURL(ctx context.Context, path string, _ storage.SignedURLOptions) (string, error) {
	return s.URL(ctx, path)
}

// List returns metadata for all objects whose path starts with prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	client, err := s.tokens.client(ctx)
	if err != nil {
		return nil, err
	}

	// Bound the listing to the prefix's folder; only the last segment may
	// be a partial name, which the prefix filter below handles.
	want := rooted(prefix)
	folder := want[:strings.LastIndex(want, "/")]

	entries, err := client.listFolder(ctx, folder)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: dropbox list: %w", err)
	}
	var files []storage.FileInfo
	for _, e := range entries {
		if e.Tag != "file" {
			continue
		}
		if prefix != "" && !strings.HasPrefix(e.PathDisplay, want) {
			continue
		}
		files = append(files, storage.FileInfo{
			Path:         strings.TrimPrefix(e.PathDisplay, "/"),
			Size:         e.Size,
			LastModified: e.ServerModified,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// isNotFound reports whether err carries the backend's missing-path signal.
func isNotFound(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.notFound()
}

// compile-time checks
var _ storage.Storage = (*Storage)(nil)
var _ storage.SignedURLProvider = (*Storage)(nil)
