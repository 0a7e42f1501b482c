//go:build integration

package e2e

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"docset-deps/internal/app"
	"docset-deps/tests/testutil"
)

// TestRestoreAgainstContainerServer runs the full restore and GC cycle
// against a containerized HTTP server holding a config fragment and data
// resources.
func TestRestoreAgainstContainerServer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers e2e in short mode")
	}

	ctx := t.Context()
	endpoint, cleanup := startDocServer(ctx, t)
	t.Cleanup(cleanup)

	root := testutil.NewDocsetDir(t, fmt.Sprintf(
		"name: container-e2e\nextend:\n  - %s/fragments/base\nreferences:\n  - %s/data/config\n",
		endpoint, endpoint,
	))
	cache := t.TempDir()

	service := app.NewService()
	result, err := service.Restore(t.Context(), app.RestoreRequest{
		DocsetDir:      root,
		CacheDir:       cache,
		HTTPTimeoutSec: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "container-e2e", result.DocsetName)
	assert.Equal(t, 1, result.DocsetCount)
	// base fragment, its contributed reference, and the direct reference.
	assert.Equal(t, 3, result.URLCount)

	// A second run reuses the cache without error.
	again, err := service.Restore(t.Context(), app.RestoreRequest{
		DocsetDir:      root,
		CacheDir:       cache,
		HTTPTimeoutSec: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, result.URLCount, again.URLCount)

	// Dropping the extension makes the fragment and its reference
	// unreachable for the next GC pass.
	testutil.WriteDocset(t, root, fmt.Sprintf(
		"name: container-e2e\nreferences:\n  - %s/data/config\n", endpoint))
	gcResult, err := service.GC(t.Context(), app.GCRequest{
		DocsetDir: root,
		CacheDir:  cache,
	})
	require.NoError(t, err)
	assert.Len(t, gcResult.RemovedURLs, 2)
}

// startDocServer launches a static file server seeded with a fragment
// that contributes one extra reference.
func startDocServer(ctx context.Context, t *testing.T) (string, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "python:3.12-alpine",
		ExposedPorts: []string{"8080/tcp"},
		Cmd:          []string{"python", "-c", docServerScript},
		WaitingFor:   wait.ForListeningPort("8080/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8080/tcp")
	require.NoError(t, err)

	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())
	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return endpoint, cleanup
}

// The fragment references /data/extra relative to whatever address the
// container is reached on; the server rewrites the placeholder host from
// the incoming request.
const docServerScript = `
import os
from http.server import BaseHTTPRequestHandler, ThreadingHTTPServer

files = {
    "/data/config": b"config payload",
    "/data/extra": b"extra payload",
}

class Handler(BaseHTTPRequestHandler):
    def do_GET(self):
        if self.path == "/fragments/base":
            host = self.headers.get("Host", "localhost")
            body = ("references:\n  - http://%s/data/extra\n" % host).encode("utf-8")
            self.send_response(200)
            self.end_headers()
            self.wfile.write(body)
            return
        body = files.get(self.path)
        if body is None:
            self.send_response(404)
            self.end_headers()
            return
        self.send_response(200)
        self.end_headers()
        self.wfile.write(body)

    def log_message(self, format, *args):
        return

def main():
    server = ThreadingHTTPServer(("0.0.0.0", 8080), Handler)
    server.serve_forever()

if __name__ == "__main__":
    main()
`
