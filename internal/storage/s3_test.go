package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jarne/linkleopard/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method      string
	Path        string
	Query       string
	ContentType string
}

// fakeS3 answers just enough of the S3 API for a path-style client.
type fakeS3 struct {
	mu           sync.Mutex
	bucketExists bool
	requests     []recordedRequest
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.RawQuery,
		ContentType: r.Header.Get("Content-Type"),
	})

	isBucket := strings.Count(strings.Trim(r.URL.Path, "/"), "/") == 0
	switch {
	case r.Method == http.MethodHead && isBucket:
		if !f.bucketExists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && isBucket && strings.Contains(r.URL.RawQuery, "policy"):
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPut && isBucket:
		f.bucketExists = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestS3(t *testing.T, fake *fakeS3) *S3 {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3(context.Background(), config.StorageConfig{
		Endpoint:       srv.URL,
		Region:         "us-east-1",
		Bucket:         "leopard",
		AccessKey:      "key",
		AccessSecret:   "secret",
		ForcePathStyle: true,
	}, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestS3Put(t *testing.T) {
	fake := &fakeS3{bucketExists: true}
	store := newTestS3(t, fake)

	ref, err := store.Put(context.Background(), "favicon-1.png", []byte("png bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "favicon-1.png", ref)
	assert.True(t, strings.HasSuffix(store.URL(ref), "/leopard/favicon-1.png"))

	reqs := fake.recorded()
	require.NotEmpty(t, reqs)
	last := reqs[len(reqs)-1]
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, "/leopard/favicon-1.png", last.Path)
	assert.Equal(t, "image/png", last.ContentType)
}

func TestS3PutRejectsPaths(t *testing.T) {
	store := newTestS3(t, &fakeS3{bucketExists: true})

	_, err := store.Put(context.Background(), "../x.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestS3EnsureBucketCreatesMissingBucket(t *testing.T) {
	fake := &fakeS3{}
	store := newTestS3(t, fake)

	require.NoError(t, store.EnsureBucket(context.Background()))

	var methods []string
	for _, r := range fake.recorded() {
		methods = append(methods, r.Method+" "+r.Path+"?"+r.Query)
	}
	require.Len(t, methods, 3)
	assert.True(t, strings.HasPrefix(methods[0], "HEAD /leopard"))
	assert.True(t, strings.HasPrefix(methods[1], "PUT /leopard"))
	assert.Contains(t, methods[2], "policy")
}

func TestS3EnsureBucketExisting(t *testing.T) {
	fake := &fakeS3{bucketExists: true}
	store := newTestS3(t, fake)

	require.NoError(t, store.EnsureBucket(context.Background()))
	assert.Len(t, fake.recorded(), 1)
}

func TestNewS3Validation(t *testing.T) {
	_, err := NewS3(context.Background(), config.StorageConfig{Endpoint: "http://localhost:9000"}, zerolog.Nop())
	assert.Error(t, err)
}
