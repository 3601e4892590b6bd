// Package api talks to the translation backend: the erase endpoint and the
// translate detail lookup.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/toonretouch/internal/snapshot"
)

// DefaultTimeout bounds a single request when no other timeout is set.
const DefaultTimeout = 60 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 64 << 20

// Client is an HTTP client for the backend API rooted at a base URL such as
// http://localhost:8000/api.
type Client struct {
	base string
	http *http.Client
	log  *logrus.Entry
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption { return func(c *Client) { c.http = hc } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithLogger sets the log entry for request events.
func WithLogger(l *logrus.Entry) ClientOption { return func(c *Client) { c.log = l } }

// NewClient returns a Client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: DefaultTimeout},
		log:  logrus.WithField("component", "api"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.base }

// Erase asks the server to inpaint the masked region. The source snapshot is
// optional; when zero the server uses its stored copy of the image.
func (c *Client) Erase(ctx context.Context, translateID string, mask, source snapshot.Snapshot) (snapshot.Snapshot, error) {
	req := EraseRequest{
		TranslateID: translateID,
		MaskImage:   snapshot.Parse(mask.String()).String(),
		SourceImage: snapshot.Parse(source.String()).String(),
	}
	var resp EraseResponse
	if err := c.do(ctx, http.MethodPost, "/erase", req, &resp); err != nil {
		return "", err
	}
	if resp.ResultImage == "" {
		return "", &Error{Status: http.StatusOK, Code: "EMPTY_RESULT"}
	}
	return snapshot.Parse(resp.ResultImage), nil
}

// GetTranslate fetches the translate record for id.
func (c *Client) GetTranslate(ctx context.Context, id string) (*Translate, error) {
	var t Translate
	if err := c.do(ctx, http.MethodGet, "/translate/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "path": path})
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": time.Since(start)})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, data)
		log.WithField("code", apiErr.Code).Warn("server error")
		return apiErr
	}
	log.Debug("request complete")
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
