package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skillsenselab/storagekit/storage"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("test-service", LoaderConfig{
		ConfigFile: "",
		EnvFile:    filepath.Join(t.TempDir(), "absent.env"),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service != "test-service" {
		t.Errorf("Service = %q, want %q", cfg.Service, "test-service")
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "development")
	}
	if cfg.Storage.Provider != storage.ProviderLocal {
		t.Errorf("Storage.Provider = %q, want %q", cfg.Storage.Provider, storage.ProviderLocal)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("Telemetry.SampleRate = %v, want 1.0", cfg.Telemetry.SampleRate)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, `
service: filesvc
environment: staging
storage:
  provider: dropbox
  app_key: key-from-file
  app_secret: secret-from-file
  refresh_token: token-from-file
logging:
  level: debug
`)

	cfg, err := Load("ignored", LoaderConfig{
		ConfigFile: cfgPath,
		EnvFile:    filepath.Join(dir, "absent.env"),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service != "filesvc" {
		t.Errorf("Service = %q, want %q", cfg.Service, "filesvc")
	}
	if cfg.Storage.Provider != storage.ProviderDropbox {
		t.Errorf("Storage.Provider = %q, want %q", cfg.Storage.Provider, storage.ProviderDropbox)
	}
	if cfg.Storage.RefreshToken != "token-from-file" {
		t.Error("Storage.RefreshToken not read from config file")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	writeFile(t, envPath, "TESTKIT_STORAGE_BASE_PATH=/var/data\n")

	// godotenv.Load sets process env vars; clean up after the test.
	t.Cleanup(func() { os.Unsetenv("TESTKIT_STORAGE_BASE_PATH") })

	cfg, err := Load("svc", LoaderConfig{
		EnvFile:   envPath,
		EnvPrefix: "TESTKIT",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.BasePath != "/var/data" {
		t.Errorf("Storage.BasePath = %q, want %q", cfg.Storage.BasePath, "/var/data")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TESTKIT_STORAGE_PROVIDER", "s3")
	t.Setenv("TESTKIT_STORAGE_BUCKET", "my-bucket")

	cfg, err := Load("svc", LoaderConfig{
		EnvFile:   filepath.Join(t.TempDir(), "absent.env"),
		EnvPrefix: "TESTKIT",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Provider != storage.ProviderS3 {
		t.Errorf("Storage.Provider = %q, want %q", cfg.Storage.Provider, storage.ProviderS3)
	}
	if cfg.Storage.Bucket != "my-bucket" {
		t.Errorf("Storage.Bucket = %q, want %q", cfg.Storage.Bucket, "my-bucket")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, `
storage:
  provider: dropbox
`)

	_, err := Load("svc", LoaderConfig{
		ConfigFile: cfgPath,
		EnvFile:    filepath.Join(dir, "absent.env"),
	})
	if err == nil {
		t.Error("Load() with incomplete dropbox config should fail validation")
	}
}
