package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// WebDAV adapts a WebDAV collection to the ObjectStore interface using
// plain HTTP verbs: HEAD, GET, PUT and MKCOL.
type WebDAV struct {
	base     string
	username string
	password string
	client   *http.Client
}

var _ ObjectStore = (*WebDAV)(nil)

// NewWebDAV builds an adapter for the collection at baseURL. Credentials are
// optional; when set they are sent as basic auth.
func NewWebDAV(baseURL, username, password string) *WebDAV {
	return &WebDAV{
		base:     strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		client:   http.DefaultClient,
	}
}

func (w *WebDAV) url(path string) string {
	return w.base + "/" + strings.TrimLeft(path, "/")
}

func (w *WebDAV) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, w.url(path), rd)
	if err != nil {
		return nil, err
	}
	if w.username != "" {
		req.SetBasicAuth(w.username, w.password)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	return w.client.Do(req)
}

func (w *WebDAV) Exists(ctx context.Context, path string) (bool, error) {
	resp, err := w.do(ctx, http.MethodHead, path, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, fmt.Errorf("webdav HEAD %s: status %d", path, resp.StatusCode)
	}
}

func (w *WebDAV) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := w.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("webdav GET %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webdav GET %s: status %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (w *WebDAV) WriteBytes(ctx context.Context, path string, data []byte) error {
	resp, err := w.do(ctx, http.MethodPut, path, data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webdav PUT %s: status %d", path, resp.StatusCode)
	}
	return nil
}

// EnsureDirectory issues MKCOL. An existing collection answers 405, which
// counts as success.
func (w *WebDAV) EnsureDirectory(ctx context.Context, path string) error {
	resp, err := w.do(ctx, "MKCOL", path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusMethodNotAllowed {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webdav MKCOL %s: status %d", path, resp.StatusCode)
	}
	return nil
}
