package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatdesk/models"
)

const (
	// DefaultBaseURL is the backend address used when nothing else is configured.
	DefaultBaseURL = "http://localhost:5000"
	// MessagesPath is the collection resource.
	MessagesPath = "/messages"
	// RequestIDHeader carries the per-write request identifier.
	RequestIDHeader = "X-Request-Id"
	// maxErrorBody bounds how much of a failed response body is kept.
	maxErrorBody = 512
)

// Operation names carried in FetchError.Op and the metrics labels.
const (
	// OpList fetches the whole collection.
	OpList = "list"
	// OpCreate posts a new message.
	OpCreate = "create"
	// OpUpdate replaces a message body.
	OpUpdate = "update"
	// OpDelete removes a message.
	OpDelete = "delete"
)

type requestIDKey struct{}

// WithRequestID attaches the identifier sent in RequestIDHeader by the next write.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the identifier set by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Metrics    *Metrics

	// NewID generates message identifiers. Defaults to uuid.NewString.
	NewID func() string
}

func (o Options) withDefaults() Options {
	out := o
	if strings.TrimSpace(out.BaseURL) == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.HTTPClient == nil {
		out.HTTPClient = http.DefaultClient
	}
	if out.NewID == nil {
		out.NewID = uuid.NewString
	}
	return out
}

// Client talks to the message collection over HTTP. Every call is a single
// round trip with no retry and no backoff.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	metrics   *Metrics
	newID     func() string
}

// NewClient validates the base URL and returns a ready client.
func NewClient(options Options) (*Client, error) {
	opts := options.withDefaults()

	base, err := normalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   base,
		http:      opts.HTTPClient,
		userAgent: opts.UserAgent,
		metrics:   opts.Metrics,
		newID:     opts.NewID,
	}, nil
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListMessages fetches the whole collection in backend order.
func (c *Client) ListMessages(ctx context.Context) ([]models.Message, error) {
	var messages []models.Message
	if err := c.do(ctx, OpList, http.MethodGet, MessagesPath, nil, &messages); err != nil {
		return nil, err
	}
	if messages == nil {
		messages = make([]models.Message, 0)
	}
	return messages, nil
}

// CreateMessage assigns a fresh identifier, submits the message and returns
// the identifier. The identifier is returned on failure too so the attempt can
// be traced. The response body is ignored.
func (c *Client) CreateMessage(ctx context.Context, body string) (string, error) {
	id := c.newID()
	payload := struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}{ID: id, Message: body}

	if err := c.do(ctx, OpCreate, http.MethodPost, MessagesPath, payload, nil); err != nil {
		return id, err
	}
	return id, nil
}

// UpdateMessage replaces the body of an existing message.
func (c *Client) UpdateMessage(ctx context.Context, id, body string) error {
	payload := struct {
		Message string `json:"message"`
	}{Message: body}
	return c.do(ctx, OpUpdate, http.MethodPut, messagePath(id), payload, nil)
}

// DeleteMessage removes a message by identifier.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.do(ctx, OpDelete, http.MethodDelete, messagePath(id), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	started := time.Now()
	err := c.roundTrip(ctx, op, method, path, body, out)
	c.metrics.observe(op, started, err)
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, body, out any) error {
	target := c.baseURL + path
	fail := func(status int, err error) error {
		return &FetchError{Op: op, Method: method, URL: target, StatusCode: status, Err: err}
	}

	if op == OpUpdate || op == OpDelete {
		if strings.TrimPrefix(path, MessagesPath+"/") == "" {
			return fail(0, ErrEmptyID)
		}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fail(0, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fail(0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if method != http.MethodGet {
		requestID := RequestIDFromContext(ctx)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		req.Header.Set(RequestIDHeader, requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var bodyErr error
		if text := strings.TrimSpace(string(snippet)); text != "" {
			bodyErr = errors.New(text)
		}
		return fail(resp.StatusCode, bodyErr)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func messagePath(id string) string {
	return MessagesPath + "/" + url.PathEscape(id)
}

func normalizeBaseURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("base url %q: scheme must be http or https", raw)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("base url %q: host is required", raw)
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return strings.TrimRight(parsed.String(), "/"), nil
}
