package dropbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/skillsenselab/storagekit/storage"
)

// safetyMargin is subtracted from the reported token lifetime so that a
// refresh happens before hard expiry, avoiding races against in-flight
// requests that were issued with the old token.
const safetyMargin = 10 * time.Second

// tokenCache owns the access token, its expiry, and the API client handle
// bound to it. The handle is rebuilt in lockstep with each token refresh and
// reused across calls otherwise. All methods are safe for concurrent use;
// at most one refresh is in flight at any time.
type tokenCache struct {
	appKey       string
	appSecret    string
	refreshToken string
	authURL      string
	httpClient   *http.Client
	newHandle    func(accessToken string) *apiClient

	group singleflight.Group

	mu        sync.RWMutex
	handle    *apiClient
	expiresAt time.Time
}

func newTokenCache(cfg *Config, httpClient *http.Client, newHandle func(string) *apiClient) *tokenCache {
	return &tokenCache{
		appKey:       cfg.AppKey,
		appSecret:    cfg.AppSecret,
		refreshToken: cfg.RefreshToken,
		authURL:      strings.TrimRight(cfg.AuthURL, "/"),
		httpClient:   httpClient,
		newHandle:    newHandle,
	}
}

// client returns an API client bound to a non-expired access token,
// refreshing the token first if needed. Concurrent callers that observe an
// expired token share a single refresh; callers that observe a fresh token
// take only the read path.
func (tc *tokenCache) client(ctx context.Context) (*apiClient, error) {
	if h := tc.current(); h != nil {
		return h, nil
	}

	v, err, _ := tc.group.Do("refresh", func() (any, error) {
		// A waiter may arrive after the winner already installed a new
		// token; re-check before hitting the token endpoint.
		if h := tc.current(); h != nil {
			return h, nil
		}
		return tc.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*apiClient), nil
}

// current returns the cached handle if its token is still usable, or nil.
func (tc *tokenCache) current() *apiClient {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	if tc.handle != nil && time.Until(tc.expiresAt) > safetyMargin {
		return tc.handle
	}
	return nil
}

// tokenResponse is the token endpoint's JSON response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// refresh exchanges the refresh token for a new access token and installs
// the new token and handle atomically. On failure the previous token and
// handle are left untouched.
func (tc *tokenCache) refresh(ctx context.Context) (*apiClient, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {tc.refreshToken},
		"client_id":     {tc.appKey},
		"client_secret": {tc.appSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.authURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: create token request: %v", storage.ErrAuthentication, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := tc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token request: %v", storage.ErrAuthentication, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: token endpoint returned status %d: %s", storage.ErrAuthentication, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %v", storage.ErrAuthentication, err)
	}
	if tok.AccessToken == "" || tok.ExpiresIn <= 0 {
		return nil, fmt.Errorf("%w: token response missing access_token or expires_in", storage.ErrAuthentication)
	}

	handle := tc.newHandle(tok.AccessToken)
	expiresAt := time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)

	tc.mu.Lock()
	tc.handle = handle
	tc.expiresAt = expiresAt
	tc.mu.Unlock()

	return handle, nil
}
