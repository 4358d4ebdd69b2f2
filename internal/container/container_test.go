package container_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/container"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryServer wires the full server on the memory backend with its
// consumers running, as the server binary does.
func memoryServer(t *testing.T) *chi.Mux {
	t.Helper()

	injector := do.New()
	container.Server(injector, &container.Options{
		Port:      8888,
		Backend:   container.BackendMemory,
		LogFormat: "console",
	})

	_, err := do.Invoke[huma.API](injector)
	require.NoError(t, err)

	group := do.MustInvoke[*messaging.ConsumerGroup](injector)
	require.NoError(t, group.Start(context.Background()))

	t.Cleanup(func() { _ = injector.Shutdown() })

	return do.MustInvoke[*chi.Mux](injector)
}

func serve(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestOptions(t *testing.T) {
	t.Run("public url defaults to localhost and port", func(t *testing.T) {
		opts := &container.Options{Port: 9000}

		assert.Equal(t, "http://localhost:9000", opts.PublicURL())
	})

	t.Run("explicit base url wins", func(t *testing.T) {
		opts := &container.Options{Port: 9000, BaseURL: "https://sho.rt"}

		assert.Equal(t, "https://sho.rt", opts.PublicURL())
	})

	t.Run("only the memory backend consumes in process", func(t *testing.T) {
		assert.True(t, (&container.Options{Backend: container.BackendMemory}).EmbeddedConsumers())
		assert.False(t, (&container.Options{Backend: container.BackendRedis}).EmbeddedConsumers())
		assert.False(t, (&container.Options{Backend: container.BackendPostgres}).EmbeddedConsumers())
	})
}

func TestRepositoryPackage_UnknownBackend(t *testing.T) {
	injector := do.New()
	container.Server(injector, &container.Options{Backend: "cassandra", LogFormat: "console"})

	_, err := do.Invoke[shortener.Repository](injector)

	assert.ErrorContains(t, err, "cassandra")
}

func TestServer_MemoryBackend(t *testing.T) {
	router := memoryServer(t)

	w := serve(t, router, http.MethodPost, "/api/links", `{"url":"example.com/docs"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created handlers.LinkBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "https://example.com/docs", created.Long)
	assert.Equal(t, "http://localhost:8888/"+created.Code, created.Short)
	assert.Equal(t, created.Short, w.Header().Get("Location"))

	t.Run("shortening again returns the same link", func(t *testing.T) {
		w := serve(t, router, http.MethodPost, "/api/links", `{"url":"https://example.com/docs"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var again handlers.LinkBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
		assert.Equal(t, created.Code, again.Code)
	})

	t.Run("redirect is counted by the in-process consumer", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/"+created.Code, "")
		require.Equal(t, http.StatusMovedPermanently, w.Code)
		assert.Equal(t, "https://example.com/docs", w.Header().Get("Location"))

		require.Eventually(t, func() bool {
			w := serve(t, router, http.MethodGet, "/api/links/"+created.Code, "")
			if w.Code != http.StatusOK {
				return false
			}

			var link handlers.LinkBody
			if err := json.Unmarshal(w.Body.Bytes(), &link); err != nil {
				return false
			}

			return link.Views.All == 1 && link.Views.Today == 1
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("search finds the link", func(t *testing.T) {
		w := serve(t, router, http.MethodPost, "/api/links/search", `{"query":"example.com/d"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), created.Short)
	})

	t.Run("health has no dependencies", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","dependencies":{}}`, stripSchema(t, w.Body.Bytes()))
	})

	t.Run("deleted links stop resolving", func(t *testing.T) {
		w := serve(t, router, http.MethodDelete, "/api/links/"+created.Code, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = serve(t, router, http.MethodGet, "/"+created.Code, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// stripSchema drops the $schema link huma adds to JSON bodies.
func stripSchema(t *testing.T, body []byte) string {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	delete(m, "$schema")

	out, err := json.Marshal(m)
	require.NoError(t, err)

	return string(out)
}
