package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/skillsenselab/storagekit/logger"
)

// mockStorage implements Storage for testing.
type mockStorage struct {
	data   map[string][]byte
	failOn string // method name to fail on
	calls  []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{data: make(map[string][]byte)}
}

func (m *mockStorage) Upload(_ context.Context, path string, reader io.Reader) error {
	m.calls = append(m.calls, "upload")
	if m.failOn == "upload" {
		return fmt.Errorf("mock upload error")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.data[path] = data
	return nil
}

func (m *mockStorage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	m.calls = append(m.calls, "download")
	if m.failOn == "download" {
		return nil, fmt.Errorf("mock download error")
	}
	data, ok := m.data[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Delete(_ context.Context, path string) error {
	m.calls = append(m.calls, "delete")
	if m.failOn == "delete" {
		return fmt.Errorf("mock delete error")
	}
	delete(m.data, path)
	return nil
}

func (m *mockStorage) DeletePrefix(_ context.Context, prefix string) error {
	m.calls = append(m.calls, "delete_prefix")
	if m.failOn == "delete_prefix" {
		return fmt.Errorf("mock delete prefix error")
	}
	trimmed := strings.TrimSuffix(prefix, "/")
	for k := range m.data {
		if k == trimmed || strings.HasPrefix(k, trimmed+"/") {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *mockStorage) Exists(_ context.Context, path string) (bool, error) {
	m.calls = append(m.calls, "exists")
	if m.failOn == "exists" {
		return false, fmt.Errorf("mock exists error")
	}
	_, ok := m.data[path]
	return ok, nil
}

func (m *mockStorage) URL(_ context.Context, path string) (string, error) {
	m.calls = append(m.calls, "url")
	if m.failOn == "url" {
		return "", fmt.Errorf("mock url error")
	}
	return "https://example.com/" + path, nil
}

func (m *mockStorage) List(_ context.Context, prefix string) ([]FileInfo, error) {
	m.calls = append(m.calls, "list")
	var files []FileInfo
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			files = append(files, FileInfo{Path: k, Size: int64(len(v)), LastModified: time.Now()})
		}
	}
	return files, nil
}

// mockSignedStorage adds SignedURL support on top of mockStorage.
type mockSignedStorage struct {
	*mockStorage
	lastOpts SignedURLOptions
}

func (m *mockSignedStorage) SignedURL(_ context.Context, path string, opts SignedURLOptions) (string, error) {
	m.lastOpts = opts
	return "https://example.com/signed/" + path, nil
}

func newInstrumented(inner Storage) *Instrumented {
	return NewInstrumented(inner, "mock", logger.NewDefault("test"), nil)
}

func TestInstrumentedUploadDelegates(t *testing.T) {
	ms := newMockStorage()
	s := newInstrumented(ms)

	if err := s.Upload(context.Background(), "a.txt", strings.NewReader("hello")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if string(ms.data["a.txt"]) != "hello" {
		t.Errorf("stored data = %q, want %q", ms.data["a.txt"], "hello")
	}
}

func TestInstrumentedDownloadDelegates(t *testing.T) {
	ms := newMockStorage()
	ms.data["a.txt"] = []byte("content")
	s := newInstrumented(ms)

	rc, err := s.Download(context.Background(), "a.txt")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "content" {
		t.Errorf("Download() = %q, want %q", data, "content")
	}
}

func TestInstrumentedErrorsPassThrough(t *testing.T) {
	tests := []struct {
		failOn string
		call   func(s *Instrumented) error
	}{
		{"upload", func(s *Instrumented) error {
			return s.Upload(context.Background(), "x", strings.NewReader("y"))
		}},
		{"download", func(s *Instrumented) error {
			_, err := s.Download(context.Background(), "x")
			return err
		}},
		{"delete", func(s *Instrumented) error {
			return s.Delete(context.Background(), "x")
		}},
		{"delete_prefix", func(s *Instrumented) error {
			return s.DeletePrefix(context.Background(), "x/")
		}},
		{"exists", func(s *Instrumented) error {
			_, err := s.Exists(context.Background(), "x")
			return err
		}},
		{"url", func(s *Instrumented) error {
			_, err := s.URL(context.Background(), "x")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			ms := newMockStorage()
			ms.failOn = tt.failOn
			if err := tt.call(newInstrumented(ms)); err == nil {
				t.Errorf("expected %s error to pass through", tt.failOn)
			}
		})
	}
}

func TestInstrumentedExists(t *testing.T) {
	ms := newMockStorage()
	ms.data["present.txt"] = []byte("x")
	s := newInstrumented(ms)

	ok, err := s.Exists(context.Background(), "present.txt")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !ok {
		t.Error("Exists() = false, want true")
	}

	ok, err = s.Exists(context.Background(), "absent.txt")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Error("Exists() = true, want false")
	}
}

func TestInstrumentedSignedURL(t *testing.T) {
	ms := &mockSignedStorage{mockStorage: newMockStorage()}
	s := newInstrumented(ms)

	opts := SignedURLOptions{Expiry: time.Minute, Filename: "dl.txt"}
	u, err := s.SignedURL(context.Background(), "a.txt", opts)
	if err != nil {
		t.Fatalf("SignedURL() error = %v", err)
	}
	if u != "https://example.com/signed/a.txt" {
		t.Errorf("SignedURL() = %q", u)
	}
	if ms.lastOpts != opts {
		t.Errorf("options not forwarded: got %+v", ms.lastOpts)
	}
}

func TestInstrumentedSignedURLUnsupported(t *testing.T) {
	s := newInstrumented(newMockStorage())

	if _, err := s.SignedURL(context.Background(), "a.txt", SignedURLOptions{}); err == nil {
		t.Error("expected error for backend without signed URL support")
	}
}

func TestInstrumentedUnwrap(t *testing.T) {
	ms := newMockStorage()
	s := newInstrumented(ms)
	if s.Unwrap() != Storage(ms) {
		t.Error("Unwrap() did not return the inner storage")
	}
}

func TestDownloadTo(t *testing.T) {
	ms := newMockStorage()
	ms.data["big.bin"] = bytes.Repeat([]byte{0x42}, 1<<16)

	var buf bytes.Buffer
	n, err := DownloadTo(context.Background(), ms, "big.bin", &buf)
	if err != nil {
		t.Fatalf("DownloadTo() error = %v", err)
	}
	if n != 1<<16 {
		t.Errorf("DownloadTo() n = %d, want %d", n, 1<<16)
	}
	if !bytes.Equal(buf.Bytes(), ms.data["big.bin"]) {
		t.Error("DownloadTo() wrote different bytes")
	}
}
