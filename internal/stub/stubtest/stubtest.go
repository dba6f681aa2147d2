// Package stubtest starts the in-memory backend for client tests.
package stubtest

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fitgoalz/fitgoalz/internal/handler"
	"github.com/fitgoalz/fitgoalz/internal/stub"
)

// Secret signs the tokens issued by NewServer.
const Secret = "stubtest-secret"

// NewServer starts the in-memory backend under prefix ("" or "/api").
// The server is closed when the test ends.
func NewServer(t testing.TB, prefix string) (*httptest.Server, *stub.Store) {
	t.Helper()

	store := stub.NewStore()
	router, err := handler.NewRouter(handler.RouterConfig{
		Store:        store,
		Secret:       Secret,
		TokenTTL:     30 * time.Minute,
		Prefix:       prefix,
		MaxBodyBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("build stub router: %v", err)
	}

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}
