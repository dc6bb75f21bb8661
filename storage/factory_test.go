package storage

import (
	"testing"

	"github.com/skillsenselab/storagekit/logger"
)

func TestNewUnknownProvider(t *testing.T) {
	cfg := Config{Provider: "nope"}
	if _, err := New(cfg, nil, logger.NewDefault("test")); err == nil {
		t.Error("New() with unknown provider should fail")
	}
}

func TestNewUnregisteredProvider(t *testing.T) {
	// No provider package is imported in this test binary, so the factory
	// for a valid provider name is not registered.
	cfg := Config{Provider: ProviderS3, Bucket: "b", Region: "us-east-1"}
	if _, err := New(cfg, nil, logger.NewDefault("test")); err == nil {
		t.Error("New() without a registered factory should fail")
	}
}

func TestNewRegisteredProvider(t *testing.T) {
	ms := newMockStorage()
	RegisterFactory(ProviderLocal, func(cfg Config, providerCfg any, log *logger.Logger) (Storage, error) {
		return ms, nil
	})

	got, err := New(Config{Provider: ProviderLocal, BasePath: "/tmp/x"}, nil, logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got != Storage(ms) {
		t.Error("New() did not return the factory's storage")
	}
}
