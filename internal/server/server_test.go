package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(h http.Handler) *Server {
	return New(h, 0, time.Second, time.Second, 2*time.Second, slog.New(slog.DiscardHandler))
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"first", "second"} {
		s.OnShutdown(name, func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.Equal(t, []string{"second", "first"}, order, "components stop in reverse order")
}

func TestServer_ShutdownErrorsAreJoined(t *testing.T) {
	s := newTestServer(http.NotFoundHandler())
	errA := errors.New("flush failed")
	errB := errors.New("close failed")
	s.OnShutdown("a", func(ctx context.Context) error { return errA })
	s.OnShutdown("b", func(ctx context.Context) error { return errB })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Serve(ctx, ln)
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestServer_Addr(t *testing.T) {
	s := New(http.NotFoundHandler(), 8000, time.Second, time.Second, time.Second, slog.New(slog.DiscardHandler))
	assert.Equal(t, ":8000", s.Addr())
}
