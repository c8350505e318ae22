package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// chi only routes methods it knows about.
	chi.RegisterMethod("MKCOL")
}

// davStub is a minimal WebDAV collection backed by a map.
func davStub(t *testing.T, wantUser, wantPass string) (*httptest.Server, *sync.Map) {
	t.Helper()
	var objects sync.Map

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if wantUser != "" {
				u, p, ok := req.BasicAuth()
				if !ok || u != wantUser || p != wantPass {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key := req.URL.Path
		switch req.Method {
		case http.MethodHead, http.MethodGet:
			v, ok := objects.Load(key)
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if req.Method == http.MethodGet {
				_, _ = w.Write(v.([]byte))
			}
		case http.MethodPut:
			b, _ := io.ReadAll(req.Body)
			objects.Store(key, b)
			w.WriteHeader(http.StatusCreated)
		case "MKCOL":
			if _, ok := objects.Load(key); ok {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			objects.Store(key, []byte(nil))
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &objects
}

func TestWebDAV_RoundTrip(t *testing.T) {
	srv, _ := davStub(t, "", "")
	dav := NewWebDAV(srv.URL, "", "")
	ctx := context.Background()

	ok, err := dav.Exists(ctx, "PromptKeeper/snapshot.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, dav.EnsureDirectory(ctx, "PromptKeeper"))
	require.NoError(t, dav.WriteBytes(ctx, "PromptKeeper/snapshot.json", []byte(`{"items":[]}`)))

	ok, err = dav.Exists(ctx, "PromptKeeper/snapshot.json")
	require.NoError(t, err)
	assert.True(t, ok)

	b, err := dav.ReadBytes(ctx, "PromptKeeper/snapshot.json")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(b))
}

func TestWebDAV_ReadMissingIsNotFound(t *testing.T) {
	srv, _ := davStub(t, "", "")
	dav := NewWebDAV(srv.URL, "", "")

	_, err := dav.ReadBytes(context.Background(), "nope.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWebDAV_EnsureDirectoryIdempotent(t *testing.T) {
	srv, _ := davStub(t, "", "")
	dav := NewWebDAV(srv.URL, "", "")
	ctx := context.Background()

	require.NoError(t, dav.EnsureDirectory(ctx, "PromptKeeper"))
	// Second MKCOL answers 405, which must still succeed.
	require.NoError(t, dav.EnsureDirectory(ctx, "PromptKeeper"))
}

func TestWebDAV_BasicAuth(t *testing.T) {
	srv, _ := davStub(t, "alice", "secret")

	authed := NewWebDAV(srv.URL, "alice", "secret")
	require.NoError(t, authed.WriteBytes(context.Background(), "x", []byte("1")))

	anon := NewWebDAV(srv.URL, "", "")
	err := anon.WriteBytes(context.Background(), "x", []byte("2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestWebDAV_ServerUnreachable(t *testing.T) {
	dav := NewWebDAV("http://127.0.0.1:1", "", "")
	_, err := dav.ReadBytes(context.Background(), "x")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
