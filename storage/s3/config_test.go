package s3

import "testing"

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &Config{Bucket: "b"}
	cfg.ApplyDefaults()
	if cfg.Region != DefaultRegion {
		t.Errorf("Region = %q, want %q", cfg.Region, DefaultRegion)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Bucket: "b", Region: "eu-west-1"}, false},
		{"missing bucket", Config{Region: "eu-west-1"}, true},
		{"missing region", Config{Bucket: "b"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
