package gcs

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(r *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": {"application/json"}},
		Request:    r,
	}
}

func clientOptions(rt roundTripperFunc) []option.ClientOption {
	return []option.ClientOption{
		option.WithoutAuthentication(),
		option.WithHTTPClient(&http.Client{Transport: rt}),
	}
}

func newTestClient(t *testing.T, rt roundTripperFunc) *storage.Client {
	t.Helper()
	client, err := storage.NewClient(context.Background(), clientOptions(rt)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.Error(t, err)

	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(r, http.StatusOK, `{}`), nil
	})
	_, err = New(client, Config{})
	require.Error(t, err)
}

func TestPutObjectUploads(t *testing.T) {
	t.Parallel()

	var uploaded atomic.Bool
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Contains(t, r.URL.Path, "/b/snapshots/o")
		assert.Equal(t, "serp/view/abc.html", r.URL.Query().Get("name"))
		assert.Equal(t, "0", r.URL.Query().Get("ifGenerationMatch"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), "<html>serp</html>")
		uploaded.Store(true)
		return jsonResponse(r, http.StatusOK, `{"name":"serp/view/abc.html","bucket":"snapshots"}`), nil
	})

	store, err := New(client, Config{Bucket: "snapshots"})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "serp/view/abc.html", "text/html", bytes.NewReader([]byte("<html>serp</html>")))
	require.NoError(t, err)
	assert.Equal(t, "gs://snapshots/serp/view/abc.html", uri)
	assert.True(t, uploaded.Load())
	require.NoError(t, store.Close())
}

func TestPutObjectExistingIsSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(r, http.StatusPreconditionFailed,
			`{"error":{"code":412,"message":"At least one of the pre-conditions you specified did not hold."}}`), nil
	})
	store, err := New(client, Config{Bucket: "snapshots"})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "serp/a.html", "text/html", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "gs://snapshots/serp/a.html", uri)
}

func TestPutObjectError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(r, http.StatusForbidden, `{"error":{"code":403,"message":"denied"}}`), nil
	})
	store, err := New(client, Config{Bucket: "snapshots"})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "serp/a.html", "text/html", strings.NewReader("x"))
	require.Error(t, err)

	_, err = store.PutObject(context.Background(), " ", "text/html", strings.NewReader("x"))
	require.ErrorContains(t, err, "path is required")
}

func TestOpenChecksBucket(t *testing.T) {
	t.Parallel()

	store, err := Open(context.Background(), Config{Bucket: "snapshots"}, nil, clientOptions(func(r *http.Request) (*http.Response, error) {
		assert.Contains(t, r.URL.Path, "/storage/v1/b/snapshots")
		return jsonResponse(r, http.StatusOK, `{"name":"snapshots"}`), nil
	})...)
	require.NoError(t, err)
	require.NotNil(t, store)
	require.NoError(t, store.Close())
}

func TestOpenBucketAttrsError(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Bucket: "missing"}, nil, clientOptions(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(r, http.StatusNotFound, `{"error":{"code":404,"message":"Not Found"}}`), nil
	})...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get GCS bucket")

	_, err = Open(context.Background(), Config{}, nil)
	require.Error(t, err)
}
