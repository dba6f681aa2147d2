// Package apiclient is the authenticated request client for the fitness
// coaching API. It owns the session credential: every request carries it
// as a bearer token, and a 401 response drops it from the store.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fitgoalz/fitgoalz/internal/credstore"
	"github.com/fitgoalz/fitgoalz/internal/metrics"
)

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// Options configures where requests go.
type Options struct {
	// BaseURL is the backend origin, e.g. http://localhost:8000.
	BaseURL string
	// Prefix is prepended to every path, e.g. /api. Empty means none.
	Prefix string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec metrics.Recorder) Option {
	return func(c *Client) { c.metrics = rec }
}

// WithCredentialKey changes the store key the token lives under.
func WithCredentialKey(key string) Option {
	return func(c *Client) { c.credentialKey = key }
}

// WithRequestHook appends a hook that runs after the built-in request hooks.
func WithRequestHook(h RequestHook) Option {
	return func(c *Client) { c.extraRequestHooks = append(c.extraRequestHooks, h) }
}

// WithResponseHook appends a hook that runs after the built-in response hooks.
func WithResponseHook(h ResponseHook) Option {
	return func(c *Client) { c.extraResponseHooks = append(c.extraResponseHooks, h) }
}

// Client sends requests to the backend on behalf of the stored session.
// Safe for concurrent use; the credential is read from the store on every
// request, so several clients sharing one store see each other's changes.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	prefix        string
	store         credstore.Store
	credentialKey string
	logger        *slog.Logger
	metrics       metrics.Recorder

	extraRequestHooks  []RequestHook
	extraResponseHooks []ResponseHook

	requestHooks  []RequestHook
	responseHooks []ResponseHook
}

// Response is a successful (2xx) reply with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return &Error{Kind: KindDecode, StatusCode: r.StatusCode, Message: "empty response body", RequestID: r.RequestID}
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Error{Kind: KindDecode, StatusCode: r.StatusCode, Message: "invalid JSON in response", RequestID: r.RequestID, Err: err}
	}
	return nil
}

// New creates a client bound to store.
func New(opts Options, store credstore.Store, options ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		prefix:        normalizePrefix(opts.Prefix),
		store:         store,
		credentialKey: credstore.TokenKey,
		logger:        slog.New(slog.DiscardHandler),
		metrics:       metrics.NewNoop(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(opts.Timeout)
	}

	c.requestHooks = append([]RequestHook{
		assignRequestID,
		c.attachCredential,
	}, c.extraRequestHooks...)
	c.responseHooks = append([]ResponseHook{
		c.clearOnUnauthorized,
		c.recordMetrics,
		c.logExchange,
	}, c.extraResponseHooks...)

	return c
}

// BaseURL returns the origin plus prefix requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL + c.prefix
}

// SetCredential stores token as the session credential. Only storage
// failures are returned; an empty token is stored and reads back as absent.
func (c *Client) SetCredential(ctx context.Context, token string) error {
	if err := c.store.Set(ctx, c.credentialKey, token); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Credential returns the stored token. ok is false when none is stored.
func (c *Client) Credential(ctx context.Context) (token string, ok bool, err error) {
	token, err = c.store.Get(ctx, c.credentialKey)
	if errors.Is(err, credstore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read credential: %w", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// ClearCredential removes the stored token. Clearing an absent token succeeds.
func (c *Client) ClearCredential(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.credentialKey); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// Do sends a request to path below the configured prefix.
//
// body may be nil, url.Values (form encoded), []byte, json.RawMessage or
// io.Reader (sent as is), or any other value (JSON encoded). Entries in
// header override the defaults; an explicit Authorization header is never
// replaced by the stored credential.
//
// Non-2xx replies return an *Error classified by status, even when the
// body was cut short. On a 401 the stored credential is cleared before Do
// returns.
func (c *Client) Do(ctx context.Context, method, path string, body any, header http.Header) (*Response, error) {
	reqBody, contentType, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	for _, hook := range c.requestHooks {
		if err := hook(ctx, req); err != nil {
			return nil, err
		}
	}

	ex := &Exchange{Request: req, RequestID: req.Header.Get(HeaderRequestID)}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err == nil {
		ex.StatusCode = resp.StatusCode
		ex.Header = resp.Header
		ex.Body, ex.ReadErr = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		resp.Body.Close()
	}
	ex.Duration = time.Since(start)
	ex.Err = err

	var hookErrs []error
	for _, hook := range c.responseHooks {
		if herr := hook(ctx, ex); herr != nil {
			hookErrs = append(hookErrs, herr)
		}
	}
	hookErr := errors.Join(hookErrs...)

	if ex.Err != nil {
		netErr := &Error{
			Kind:       KindNetwork,
			StatusCode: ex.StatusCode,
			Message:    "no response from " + c.baseURL,
			RequestID:  ex.RequestID,
			Err:        ex.Err,
		}
		return nil, joinErrors(netErr, hookErr)
	}

	if ex.StatusCode < 200 || ex.StatusCode > 299 {
		statusErr := newStatusError(ex.StatusCode, ex.Body, ex.RequestID)
		statusErr.Err = ex.ReadErr
		return nil, joinErrors(statusErr, hookErr)
	}
	if ex.ReadErr != nil {
		readErr := &Error{
			Kind:       KindNetwork,
			StatusCode: ex.StatusCode,
			Message:    "incomplete response body",
			RequestID:  ex.RequestID,
			Err:        ex.ReadErr,
		}
		return nil, joinErrors(readErr, hookErr)
	}
	if hookErr != nil {
		return nil, hookErr
	}

	return &Response{
		StatusCode: ex.StatusCode,
		Header:     ex.Header,
		Body:       ex.Body,
		RequestID:  ex.RequestID,
	}, nil
}

// GetJSON sends a GET and decodes the reply into result when non-nil.
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	return c.call(ctx, http.MethodGet, path, nil, result)
}

// PostJSON sends body as JSON and decodes the reply into result when non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, result any) error {
	return c.call(ctx, http.MethodPost, path, body, result)
}

// PutJSON sends body as JSON with PUT and decodes the reply into result when non-nil.
func (c *Client) PutJSON(ctx context.Context, path string, body, result any) error {
	return c.call(ctx, http.MethodPut, path, body, result)
}

// PostForm sends values form encoded and decodes the reply into result when non-nil.
func (c *Client) PostForm(ctx context.Context, path string, values url.Values, result any) error {
	if values == nil {
		values = url.Values{}
	}
	return c.call(ctx, http.MethodPost, path, values, result)
}

func (c *Client) call(ctx context.Context, method, path string, body, result any) error {
	resp, err := c.Do(ctx, method, path, body, nil)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return resp.Decode(result)
}

func (c *Client) url(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + c.prefix + path
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case url.Values:
		return strings.NewReader(b.Encode()), "application/x-www-form-urlencoded", nil
	case json.RawMessage:
		return bytes.NewReader(b), "application/json", nil
	case []byte:
		return bytes.NewReader(b), "application/json", nil
	case io.Reader:
		return b, "application/json", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

func joinErrors(primary, secondary error) error {
	if secondary == nil {
		return primary
	}
	return errors.Join(primary, secondary)
}
