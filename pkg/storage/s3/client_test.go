package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"

	"github.com/feirinha/feirinha-backend/pkg/config"
	"github.com/feirinha/feirinha-backend/pkg/storage"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	deny    bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deny {
		writeS3Error(w, http.StatusForbidden, "AccessDenied")
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		if _, ok := f.objects[r.URL.Path]; !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>`+code+`</Code><Message>`+code+`</Message></Error>`)
}

func newTestClient(t *testing.T, publicBase string) (*Client, *fakeS3, *httptest.Server) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := New(context.Background(), config.StorageConfig{
		Endpoint:      srv.URL,
		AccessKey:     "access",
		SecretKey:     "secret",
		Bucket:        "photos",
		Region:        "us-east-1",
		UseSSL:        false,
		PublicBaseURL: publicBase,
	}, nil)
	require.NoError(t, err)
	return client, fake, srv
}

func TestPutStoresObjectAndReturnsPathStyleURL(t *testing.T) {
	client, fake, srv := newTestClient(t, "")

	url, err := client.Put(context.Background(), "items/abc/one.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/photos/items/abc/one.png", url)
	require.Equal(t, []byte("png-bytes"), fake.objects["/photos/items/abc/one.png"])
	require.Equal(t, "image/png", fake.types["/photos/items/abc/one.png"])
}

func TestDeleteIgnoresMissingObject(t *testing.T) {
	client, fake, _ := newTestClient(t, "")
	ctx := context.Background()

	_, err := client.Put(ctx, "items/abc/one.png", []byte("x"), "image/png")
	require.NoError(t, err)
	require.NoError(t, client.Delete(ctx, "items/abc/one.png"))
	require.Empty(t, fake.objects)

	require.NoError(t, client.Delete(ctx, "items/abc/one.png"))
}

func TestAccessDeniedIsPermanentStoreError(t *testing.T) {
	client, fake, _ := newTestClient(t, "")
	fake.deny = true

	_, err := client.Put(context.Background(), "items/abc/one.png", []byte("x"), "image/png")
	require.Error(t, err)
	require.True(t, storage.IsStoreError(err))
	require.False(t, storage.IsTransient(err))
	require.Contains(t, err.Error(), "items/abc/one.png")
}

func TestPublicURLUsesConfiguredBase(t *testing.T) {
	client, _, _ := newTestClient(t, "https://cdn.example.com/storage/v1/object/public/photos/")
	got := client.PublicURL("items/abc/foto da frente.jpg")
	require.Equal(t, "https://cdn.example.com/storage/v1/object/public/photos/items/abc/foto%20da%20frente.jpg", got)
	require.False(t, strings.HasSuffix(got, "/"))
}

func TestIsTransient(t *testing.T) {
	require.True(t, isTransient(minio.ErrorResponse{StatusCode: http.StatusServiceUnavailable, Code: "SlowDown"}))
	require.True(t, isTransient(minio.ErrorResponse{StatusCode: http.StatusTooManyRequests}))
	require.True(t, isTransient(context.DeadlineExceeded))
	require.False(t, isTransient(context.Canceled))
	require.False(t, isTransient(minio.ErrorResponse{StatusCode: http.StatusForbidden, Code: "AccessDenied"}))
	require.False(t, isTransient(minio.ErrorResponse{StatusCode: http.StatusInternalServerError, Code: "NoSuchBucket"}))
}
