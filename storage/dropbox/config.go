package dropbox

import (
	"errors"
	"fmt"
)

// Default Dropbox API hosts.
const (
	DefaultAuthURL    = "https://api.dropbox.com"
	DefaultAPIURL     = "https://api.dropboxapi.com"
	DefaultContentURL = "https://content.dropboxapi.com"
)

// Config holds Dropbox-specific storage configuration.
type Config struct {
	// AppKey is the Dropbox app key (OAuth2 client id).
	AppKey string `mapstructure:"app_key" json:"app_key"`

	// AppSecret is the Dropbox app secret (OAuth2 client secret).
	AppSecret string `mapstructure:"app_secret" json:"app_secret"`

	// RefreshToken is the long-lived token used to mint access tokens.
	RefreshToken string `mapstructure:"refresh_token" json:"-"`

	// AuthURL overrides the token endpoint host. Used in tests.
	AuthURL string `mapstructure:"auth_url" json:"auth_url"`

	// APIURL overrides the RPC endpoint host. Used in tests.
	APIURL string `mapstructure:"api_url" json:"api_url"`

	// ContentURL overrides the content endpoint host. Used in tests.
	ContentURL string `mapstructure:"content_url" json:"content_url"`

	// DisableContentVerify turns off comparing the locally computed content
	// hash against the hash Dropbox reports after an upload. Verification is
	// on by default.
	DisableContentVerify bool `mapstructure:"disable_content_verify" json:"disable_content_verify"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.ContentURL == "" {
		c.ContentURL = DefaultContentURL
	}
}

// Validate checks that the Dropbox configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.AppKey == "" {
		errs = append(errs, errors.New("dropbox: app_key is required"))
	}
	if c.AppSecret == "" {
		errs = append(errs, errors.New("dropbox: app_secret is required"))
	}
	if c.RefreshToken == "" {
		errs = append(errs, errors.New("dropbox: refresh_token is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("dropbox: invalid config: %w", errors.Join(errs...))
	}
	return nil
}
