package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"
)

// apiError is a native Dropbox API failure. It is raised unchanged by
// apiClient; mapping onto the storage error taxonomy happens in Storage.
type apiError struct {
	StatusCode int
	Summary    string
	Body       string
}

func (e *apiError) Error() string {
	if e.Summary != "" {
		return fmt.Sprintf("dropbox: %s (HTTP %d)", e.Summary, e.StatusCode)
	}
	return fmt.Sprintf("dropbox: HTTP %d: %s", e.StatusCode, e.Body)
}

// notFound reports whether the failure indicates a missing path. Dropbox
// encodes this as a path lookup error, e.g. "path/not_found/.." or
// "path_lookup/not_found/..".
func (e *apiError) notFound() bool {
	return strings.Contains(e.Summary, "not_found")
}

// fileMetadata is the subset of Dropbox file metadata this package reads.
type fileMetadata struct {
	Tag            string    `json:".tag"`
	Name           string    `json:"name"`
	PathDisplay    string    `json:"path_display"`
	Size           int64     `json:"size"`
	ServerModified time.Time `json:"server_modified"`
	ContentHash    string    `json:"content_hash"`
}

// apiClient is a stateless-per-call wrapper over the Dropbox HTTP API,
// bound to a single access token. It performs argument marshaling only;
// path prefixing and error translation belong to the caller.
type apiClient struct {
	accessToken string
	apiURL      string
	contentURL  string
	httpClient  *http.Client
}

func newAPIClient(accessToken, apiURL, contentURL string, httpClient *http.Client) *apiClient {
	return &apiClient{
		accessToken: accessToken,
		apiURL:      strings.TrimRight(apiURL, "/"),
		contentURL:  strings.TrimRight(contentURL, "/"),
		httpClient:  httpClient,
	}
}

// pathArg is the common single-path RPC argument.
type pathArg struct {
	Path string `json:"path"`
}

// upload stores the reader's content at path using the content endpoint.
// Dropbox negotiates transfer framing internally; the body is streamed as-is.
func (c *apiClient) upload(ctx context.Context, path string, reader io.Reader) (*fileMetadata, error) {
	arg := struct {
		Path string `json:"path"`
		Mode string `json:"mode"`
		Mute bool   `json:"mute"`
	}{Path: path, Mode: "overwrite", Mute: true}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentURL+"/2/files/upload", reader)
	if err != nil {
		return nil, fmt.Errorf("dropbox: create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Dropbox-API-Arg", headerSafeJSON(arg))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dropbox: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var md fileMetadata
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return nil, fmt.Errorf("dropbox: decode upload response: %w", err)
	}
	return &md, nil
}

// download opens a streaming read of the object at path. The caller owns the
// returned body and must close it.
func (c *apiClient) download(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentURL+"/2/files/download", nil)
	if err != nil {
		return nil, fmt.Errorf("dropbox: create download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Dropbox-API-Arg", headerSafeJSON(pathArg{Path: path}))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dropbox: download: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}
	return resp.Body, nil
}

// getMetadata fetches metadata for the object at path.
func (c *apiClient) getMetadata(ctx context.Context, path string) (*fileMetadata, error) {
	var md fileMetadata
	if err := c.rpc(ctx, "/2/files/get_metadata", pathArg{Path: path}, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// delete removes the object or folder at path.
func (c *apiClient) delete(ctx context.Context, path string) error {
	return c.rpc(ctx, "/2/files/delete_v2", pathArg{Path: path}, nil)
}

// temporaryLink asks the backend for a time-limited download URL. Dropbox
// controls the link's lifetime itself (about four hours).
func (c *apiClient) temporaryLink(ctx context.Context, path string) (string, error) {
	var out struct {
		Link string `json:"link"`
	}
	if err := c.rpc(ctx, "/2/files/get_temporary_link", pathArg{Path: path}, &out); err != nil {
		return "", err
	}
	return out.Link, nil
}

// listFolderPage is one page of a folder listing.
type listFolderPage struct {
	Entries []fileMetadata `json:"entries"`
	Cursor  string         `json:"cursor"`
	HasMore bool           `json:"has_more"`
}

// listFolder walks the full tree under path, following pagination cursors.
func (c *apiClient) listFolder(ctx context.Context, path string) ([]fileMetadata, error) {
	arg := struct {
		Path      string `json:"path"`
		Recursive bool   `json:"recursive"`
	}{Path: path, Recursive: true}

	var page listFolderPage
	if err := c.rpc(ctx, "/2/files/list_folder", arg, &page); err != nil {
		return nil, err
	}

	entries := page.Entries
	for page.HasMore {
		cont := struct {
			Cursor string `json:"cursor"`
		}{Cursor: page.Cursor}
		page = listFolderPage{}
		if err := c.rpc(ctx, "/2/files/list_folder/continue", cont, &page); err != nil {
			return nil, err
		}
		entries = append(entries, page.Entries...)
	}
	return entries, nil
}

// rpc performs a JSON-in/JSON-out call against the RPC endpoint host.
func (c *apiClient) rpc(ctx context.Context, endpoint string, arg any, out any) error {
	body, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("dropbox: marshal %s argument: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dropbox: create %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dropbox: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("dropbox: decode %s response: %w", endpoint, err)
	}
	return nil
}

// readAPIError turns a non-200 response into an *apiError, extracting the
// error_summary field when the body is the standard JSON error shape.
func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	var parsed struct {
		ErrorSummary string `json:"error_summary"`
	}
	_ = json.Unmarshal(body, &parsed)

	return &apiError{
		StatusCode: resp.StatusCode,
		Summary:    parsed.ErrorSummary,
		Body:       strings.TrimSpace(string(body)),
	}
}

// headerSafeJSON serializes v for the Dropbox-API-Arg header, escaping
// characters outside the printable ASCII range as HTTP headers require.
// JSON \u escapes are UTF-16 code units, so runes beyond the BMP must be
// emitted as a surrogate pair, not a single oversized escape.
func headerSafeJSON(v any) string {
	b, _ := json.Marshal(v)
	var sb strings.Builder
	for _, r := range string(b) {
		switch {
		case r >= 0x20 && r <= 0x7e:
			sb.WriteRune(r)
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&sb, "\\u%04x\\u%04x", hi, lo)
		default:
			fmt.Fprintf(&sb, "\\u%04x", r)
		}
	}
	return sb.String()
}
