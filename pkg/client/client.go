// Package client provides the HTTP client for the remote filesystem API,
// with retry, offline tracking, and auth.
package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fruitsalade/fruitshell/internal/logging"
	"github.com/fruitsalade/fruitshell/internal/metrics"
	"github.com/fruitsalade/fruitshell/pkg/models"
	"github.com/fruitsalade/fruitshell/pkg/protocol"
	"github.com/fruitsalade/fruitshell/pkg/retry"
)

// ErrNotFound is returned when the requested path or resource does not
// exist on the server.
var ErrNotFound = errors.New("not found")

// Client talks to the remote filesystem service.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig retry.Config

	mu        sync.RWMutex
	online    bool
	authToken string
}

// Config holds client configuration.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RetryConfig retry.Config
	AuthToken   string
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		retryConfig: cfg.RetryConfig,
		online:      true,
		authToken:   cfg.AuthToken,
	}
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAuthToken sets the JWT auth token for requests.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

func (c *Client) applyAuth(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

// IsOnline returns true if the server was reachable on the last request.
func (c *Client) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.online != online {
		if online {
			logging.Info("server is back online")
		} else {
			logging.Warn("server is offline")
		}
	}
	c.online = online
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.setOnline(false)
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	c.setOnline(true)
	return nil
}

// getJSON issues a GET with retry and decodes a JSON response into out.
func (c *Client) getJSON(ctx context.Context, op, url string, out interface{}) error {
	start := time.Now()
	err := retry.Do(ctx, c.retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept-Encoding", "gzip")
		c.applyAuth(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.setOnline(false)
			return retry.Retryable(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			c.setOnline(true)
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		if resp.StatusCode != http.StatusOK {
			c.setOnline(false)
			if resp.StatusCode >= 500 {
				return retry.Retryable(fmt.Errorf("server error: %d", resp.StatusCode))
			}
			return apiError(op, resp)
		}

		c.setOnline(true)

		var reader io.Reader = resp.Body
		if resp.Header.Get("Content-Encoding") == "gzip" {
			gr, err := gzip.NewReader(resp.Body)
			if err != nil {
				return err
			}
			defer gr.Close()
			reader = gr
		}

		return json.NewDecoder(reader).Decode(out)
	})
	metrics.RecordRemoteRequest(op, time.Since(start), err)
	return err
}

// apiError reads an error body and formats it with the operation name.
func apiError(op string, resp *http.Response) error {
	var errResp protocol.ErrorResponse
	if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("%s failed: %s", op, errResp.Error)
	}
	return fmt.Errorf("%s failed: %d", op, resp.StatusCode)
}

// List fetches the directory listing for path.
func (c *Client) List(ctx context.Context, path string, opts protocol.ListOptions) ([]models.ListEntry, error) {
	var lr protocol.ListResponse
	u := c.baseURL + "/api/v1/list?" + opts.Query(path).Encode()
	if err := c.getJSON(ctx, "list", u, &lr); err != nil {
		return nil, err
	}
	return lr.Entries, nil
}

// MapPhysical maps a logical path to its physical storage address.
func (c *Client) MapPhysical(ctx context.Context, path string) (string, error) {
	var rr protocol.ResolveResponse
	u := c.baseURL + "/api/v1/resolve?path=" + url.QueryEscape(path)
	if err := c.getJSON(ctx, "resolve", u, &rr); err != nil {
		return "", err
	}
	return rr.Physical, nil
}

// FetchContent fetches file content with optional range. Pass length -1
// for the full file.
func (c *Client) FetchContent(ctx context.Context, path string, offset, length int64) (io.ReadCloser, int64, error) {
	var reader io.ReadCloser
	var totalSize int64

	start := time.Now()
	err := retry.Do(ctx, c.retryConfig, func() error {
		u := c.baseURL + "/api/v1/content/" + escapePath(path)
		req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
		if err != nil {
			return err
		}

		if offset > 0 || length > 0 {
			end := ""
			if length > 0 {
				end = fmt.Sprintf("%d", offset+length-1)
			}
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-%s", offset, end))
		}
		c.applyAuth(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.setOnline(false)
			return retry.Retryable(err)
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			c.setOnline(true)
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
			resp.Body.Close()
			c.setOnline(false)
			if resp.StatusCode >= 500 {
				return retry.Retryable(fmt.Errorf("server error: %d", resp.StatusCode))
			}
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		c.setOnline(true)

		if cl := resp.Header.Get("Content-Length"); cl != "" {
			fmt.Sscanf(cl, "%d", &totalSize)
		}
		reader = resp.Body
		return nil
	})
	metrics.RecordRemoteRequest("content", time.Since(start), err)

	return reader, totalSize, err
}

// ConflictError is returned when an upload conflicts with the current
// server version.
type ConflictError struct {
	Path            string
	ExpectedVersion int
	CurrentVersion  int
	CurrentHash     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: expected version %d, server has %d",
		e.Path, e.ExpectedVersion, e.CurrentVersion)
}

// AsConflict checks if an error is a ConflictError and returns it.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Upload uploads file content to path. If expectedVersion > 0, the
// X-Expected-Version header is sent for conflict detection.
func (c *Client) Upload(ctx context.Context, path string, content io.Reader, size int64, expectedVersion int) (*protocol.UploadResponse, error) {
	var result *protocol.UploadResponse

	start := time.Now()
	err := retry.Do(ctx, c.retryConfig, func() error {
		u := c.baseURL + "/api/v1/content/" + escapePath(path)
		req, err := http.NewRequestWithContext(ctx, "POST", u, content)
		if err != nil {
			return err
		}

		req.ContentLength = size
		req.Header.Set("Content-Type", "application/octet-stream")
		if expectedVersion > 0 {
			req.Header.Set("X-Expected-Version", strconv.Itoa(expectedVersion))
		}
		c.applyAuth(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.setOnline(false)
			return retry.Retryable(err)
		}
		defer resp.Body.Close()

		// 409 Conflict is not retryable
		if resp.StatusCode == http.StatusConflict {
			c.setOnline(true)
			var cr protocol.ConflictResponse
			if json.NewDecoder(resp.Body).Decode(&cr) == nil {
				return &ConflictError{
					Path:            cr.Path,
					ExpectedVersion: cr.ExpectedVersion,
					CurrentVersion:  cr.CurrentVersion,
					CurrentHash:     cr.CurrentHash,
				}
			}
			return &ConflictError{Path: path, ExpectedVersion: expectedVersion}
		}

		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			c.setOnline(false)
			if resp.StatusCode >= 500 {
				return retry.Retryable(fmt.Errorf("server error: %d", resp.StatusCode))
			}
			return apiError("upload", resp)
		}

		c.setOnline(true)

		result = &protocol.UploadResponse{}
		return json.NewDecoder(resp.Body).Decode(result)
	})
	metrics.RecordRemoteRequest("upload", time.Since(start), err)

	return result, err
}

// Mkdir creates a directory on the server.
func (c *Client) Mkdir(ctx context.Context, path string) error {
	return c.treeOp(ctx, "mkdir", "PUT", escapePath(path)+"?type=dir", nil)
}

// Touch creates an empty file on the server.
func (c *Client) Touch(ctx context.Context, path string) error {
	return c.treeOp(ctx, "touch", "PUT", escapePath(path)+"?type=file", nil)
}

// Move renames or moves a file or directory.
func (c *Client) Move(ctx context.Context, src, dst string) error {
	body, _ := json.Marshal(protocol.MoveRequest{Destination: dst})
	return c.treeOp(ctx, "mv", "POST", escapePath(src)+"?action=move", body)
}

// Delete removes a file or directory on the server.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.treeOp(ctx, "rm", "DELETE", escapePath(path), nil)
}

// treeOp issues a mutating request against /api/v1/tree.
func (c *Client) treeOp(ctx context.Context, op, method, pathQuery string, body []byte) error {
	start := time.Now()
	err := retry.Do(ctx, c.retryConfig, func() error {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1/tree/"+pathQuery, r)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		c.applyAuth(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.setOnline(false)
			return retry.Retryable(err)
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			c.setOnline(true)
			return nil
		case http.StatusNotFound:
			c.setOnline(true)
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		c.setOnline(false)
		if resp.StatusCode >= 500 {
			return retry.Retryable(fmt.Errorf("server error: %d", resp.StatusCode))
		}
		return apiError(op, resp)
	})
	metrics.RecordRemoteRequest(op, time.Since(start), err)
	return err
}

// escapePath escapes a resource path for use in a URL, keeping slashes.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
