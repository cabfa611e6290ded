package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/okozhevnikov/imgcache/imgcache"
)

func TestHTTPSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		r := require.New(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.Equal("/a.png", req.URL.Path)
			w.Write([]byte("image bytes"))
		}))
		defer server.Close()

		src := NewHTTPSource(time.Second)

		data, err := src.Fetch(ctx, imgcache.NewKey(server.URL+"/a.png"))
		r.NoError(err)
		r.Equal("image bytes", string(data))
	})

	t.Run("non-2xx response", func(t *testing.T) {
		r := require.New(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			http.Error(w, "no such image", http.StatusNotFound)
		}))
		defer server.Close()

		src := NewHTTPSource(time.Second)

		_, err := src.Fetch(ctx, imgcache.NewKey(server.URL+"/missing.png"))
		r.Error(err)

		var statusErr *StatusError
		r.ErrorAs(err, &statusErr)
		r.Equal(http.StatusNotFound, statusErr.StatusCode)
		r.Contains(statusErr.BodyPrefix, "no such image")
	})

	t.Run("timeout", func(t *testing.T) {
		r := require.New(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			time.Sleep(time.Second)
		}))
		defer server.Close()

		src := NewHTTPSource(10 * time.Millisecond)

		_, err := src.Fetch(ctx, imgcache.NewKey(server.URL))
		r.Error(err)
	})

	t.Run("canceled context", func(t *testing.T) {
		r := require.New(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			time.Sleep(time.Second)
		}))
		defer server.Close()

		canceledCtx, cancel := context.WithCancel(ctx)
		cancel()

		src := NewHTTPSource(time.Second)

		_, err := src.Fetch(canceledCtx, imgcache.NewKey(server.URL))
		r.ErrorIs(err, context.Canceled)
	})

	t.Run("body size limit", func(t *testing.T) {
		r := require.New(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Write(make([]byte, 1024))
		}))
		defer server.Close()

		src := NewHTTPSource(time.Second)
		src.maxBodySize = 512

		_, err := src.Fetch(ctx, imgcache.NewKey(server.URL))
		r.ErrorContains(err, "exceeds")
	})
}
