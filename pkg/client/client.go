// Package client provides an HTTP client for the folder REST API.
// Requests are never retried; callers decide how to recover.
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
	"strings"
	"sync"
	"time"

	"github.com/samsirama/windows-explorer-clone/internal/logging"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/protocol"
)

// ErrNotFound matches API errors with status 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Is reports 404 responses as ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the folder REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu       sync.RWMutex
	online   bool
	lastPing time.Time
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
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
		online: true,
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsOnline reports whether the last request reached the server.
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
			logging.Info("server is back online", logging.String("url", c.baseURL))
		} else {
			logging.Warn("server is offline", logging.String("url", c.baseURL))
		}
	}
	c.online = online
	c.lastPing = time.Now()
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// FetchTree fetches the full forest.
func (c *Client) FetchTree(ctx context.Context) ([]*models.Node, error) {
	var roots []*models.Node
	if err := c.do(ctx, http.MethodGet, "/folders", nil, &roots); err != nil {
		return nil, err
	}
	if roots == nil {
		roots = []*models.Node{}
	}
	return roots, nil
}

// FetchNode fetches a node with its direct children.
func (c *Client) FetchNode(ctx context.Context, id string) (*models.Node, error) {
	var n models.Node
	if err := c.do(ctx, http.MethodGet, "/folders/"+url.PathEscape(id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Search returns the flat list of nodes whose names contain query.
func (c *Client) Search(ctx context.Context, query string) ([]*models.Node, error) {
	var nodes []*models.Node
	if err := c.do(ctx, http.MethodGet, "/folders?q="+url.QueryEscape(query), nil, &nodes); err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []*models.Node{}
	}
	return nodes, nil
}

// CreateNode creates a node. The response may be an object or a
// one-element array; both are accepted.
func (c *Client) CreateNode(ctx context.Context, req protocol.CreateNodeRequest) (*models.Node, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/folders", req, &raw); err != nil {
		return nil, err
	}
	n, err := protocol.DecodeNode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode created node: %w", err)
	}
	return n, nil
}

// UpdateNode sends a partial update.
func (c *Client) UpdateNode(ctx context.Context, id string, patch models.NodePatch) (*models.Node, error) {
	var n models.Node
	body := protocol.UpdateFromPatch(patch)
	if err := c.do(ctx, http.MethodPatch, "/folders/"+url.PathEscape(id), body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteNode deletes exactly one node.
func (c *Client) DeleteNode(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/folders/"+url.PathEscape(id), nil, nil)
}

// DeleteTree deletes a node and everything below it.
func (c *Client) DeleteTree(ctx context.Context, id string) (int64, error) {
	var resp protocol.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, "/folders/"+url.PathEscape(id)+"?recursive=true", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// do issues one request. in is JSON-encoded when non-nil; out is decoded
// from the response when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.setOnline(true)

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer gr.Close()
		reader = gr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp protocol.ErrorResponse
		if json.NewDecoder(reader).Decode(&errResp) == nil {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if out == nil {
		io.Copy(io.Discard, reader)
		return nil
	}
	if err := json.NewDecoder(reader).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
