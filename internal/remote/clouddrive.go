package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CloudDrive adapts a token-authenticated object API to the ObjectStore
// interface. Object keys are flat, so EnsureDirectory is a no-op.
type CloudDrive struct {
	base   string
	token  string
	client *http.Client
}

var _ ObjectStore = (*CloudDrive)(nil)

func NewCloudDrive(baseURL, token string) *CloudDrive {
	return &CloudDrive{
		base:   strings.TrimRight(baseURL, "/"),
		token:  token,
		client: http.DefaultClient,
	}
}

// checkToken parses the bearer token without verifying the signature
// (verification is the server's job) purely to fail fast on expiry instead
// of burning a network round trip on a guaranteed 401.
func (c *CloudDrive) checkToken() error {
	if c.token == "" {
		return fmt.Errorf("cloud drive: empty token: %w", ErrTokenExpired)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err != nil {
		// Opaque (non-JWT) tokens are passed through; the server decides.
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return fmt.Errorf("cloud drive: token expired at %s: %w", exp.Format(time.RFC3339), ErrTokenExpired)
	}
	return nil
}

func (c *CloudDrive) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	if err := c.checkToken(); err != nil {
		return nil, err
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	url := c.base + "/api/objects/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	return c.client.Do(req)
}

func (c *CloudDrive) Exists(ctx context.Context, path string) (bool, error) {
	resp, err := c.do(ctx, http.MethodHead, path, nil)
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
		return false, fmt.Errorf("cloud drive HEAD %s: status %d", path, resp.StatusCode)
	}
}

func (c *CloudDrive) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("cloud drive GET %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cloud drive GET %s: status %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *CloudDrive) WriteBytes(ctx context.Context, path string, data []byte) error {
	resp, err := c.do(ctx, http.MethodPut, path, data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cloud drive PUT %s: status %d", path, resp.StatusCode)
	}
	return nil
}

// EnsureDirectory is a no-op: cloud-drive object keys are flat.
func (c *CloudDrive) EnsureDirectory(ctx context.Context, path string) error {
	return nil
}
