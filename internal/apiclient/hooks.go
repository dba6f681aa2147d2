package apiclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fitgoalz/fitgoalz/internal/credstore"
)

// RequestHook runs before a request is sent. Returning an error aborts it.
type RequestHook func(ctx context.Context, req *http.Request) error

// ResponseHook runs after every exchange, including ones that got no response.
// Errors are joined into the error Do returns.
type ResponseHook func(ctx context.Context, ex *Exchange) error

// Exchange describes one finished request.
type Exchange struct {
	Request    *http.Request
	RequestID  string
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	// Err is set when no response was received.
	Err error
	// ReadErr is set when the status arrived but the body could not be
	// read in full. Body then holds what was read.
	ReadErr error
}

// assignRequestID sets X-Request-ID unless the caller supplied one.
func assignRequestID(_ context.Context, req *http.Request) error {
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	return nil
}

// attachCredential adds the bearer token. A caller-supplied Authorization
// header wins; with no stored token the header is left out entirely. A
// credential that cannot be decrypted counts as absent.
func (c *Client) attachCredential(ctx context.Context, req *http.Request) error {
	if len(req.Header.Values("Authorization")) > 0 {
		return nil
	}
	token, ok, err := c.Credential(ctx)
	if errors.Is(err, credstore.ErrDecrypt) {
		c.logger.Warn("stored credential is unreadable, sending request without it",
			slog.String("error", err.Error()),
		)
		return nil
	}
	if err != nil {
		return err
	}
	if ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// clearOnUnauthorized drops the credential after a 401. The clear runs
// even if ctx is already done so an expired session never lingers.
func (c *Client) clearOnUnauthorized(ctx context.Context, ex *Exchange) error {
	if ex.Err != nil || ex.StatusCode != http.StatusUnauthorized {
		return nil
	}
	if err := c.ClearCredential(context.WithoutCancel(ctx)); err != nil {
		c.logger.Error("failed to clear credential after 401",
			slog.String("request_id", ex.RequestID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("session rejected: %w", err)
	}
	c.metrics.IncCredentialCleared()
	c.logger.Info("credential cleared after 401",
		slog.String("request_id", ex.RequestID),
		slog.String("path", ex.Request.URL.Path),
	)
	return nil
}

func (c *Client) recordMetrics(_ context.Context, ex *Exchange) error {
	if ex.Err != nil || ex.ReadErr != nil {
		c.metrics.IncNetworkError()
	}
	c.metrics.ObserveRequest(ex.Request.Method, ex.StatusCode, ex.Duration)
	return nil
}

// logExchange logs method, path, status and timing. Headers and bodies
// are never logged.
func (c *Client) logExchange(ctx context.Context, ex *Exchange) error {
	attrs := []slog.Attr{
		slog.String("request_id", ex.RequestID),
		slog.String("method", ex.Request.Method),
		slog.String("path", ex.Request.URL.Path),
		slog.Int64("duration_ms", ex.Duration.Milliseconds()),
	}

	if ex.Err != nil {
		attrs = append(attrs, slog.String("error", ex.Err.Error()))
		c.logger.LogAttrs(ctx, slog.LevelWarn, "request failed", attrs...)
		return nil
	}

	attrs = append(attrs, slog.Int("status", ex.StatusCode))
	if ex.ReadErr != nil {
		attrs = append(attrs, slog.String("error", ex.ReadErr.Error()))
		c.logger.LogAttrs(ctx, slog.LevelWarn, "response body incomplete", attrs...)
		return nil
	}
	level := slog.LevelDebug
	switch {
	case ex.StatusCode >= 500:
		level = slog.LevelError
	case ex.StatusCode >= 400:
		level = slog.LevelWarn
	}
	c.logger.LogAttrs(ctx, level, "request completed", attrs...)
	return nil
}
