package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStorage records stored assets keyed by storage key.
type fakeStorage struct {
	mu     sync.Mutex
	stored map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{stored: make(map[string][]byte)}
}

func (f *fakeStorage) Store(_ context.Context, key string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[key] = data
	return "https://cdn.example.com/" + key, nil
}

func newTestPipeline(storage AssetStorage) *AttachmentPipeline {
	return NewAttachmentPipeline(&config.SyncConfig{
		BatchSize:           2,
		MaxRetries:          3,
		FetchTimeout:        2 * time.Second,
		PlaceholderImageURL: "/assets/placeholder.png",
	}, storage, zap.NewNop())
}

func TestStableFilename(t *testing.T) {
	tests := []struct {
		name string
		desc catalog.AttachmentDescriptor
		want string
	}{
		{
			name: "descriptor filename wins",
			desc: catalog.AttachmentDescriptor{URL: "https://x.test/attABCDEFGHIJK/dl.png", Filename: "front.png"},
			want: "front.png",
		},
		{
			name: "filename sanitized of path segments",
			desc: catalog.AttachmentDescriptor{URL: "https://x.test/a", Filename: "../../etc/passwd"},
			want: "passwd",
		},
		{
			name: "embedded attachment id extracted with extension",
			desc: catalog.AttachmentDescriptor{URL: "https://x.test/attABCDEFGHIJK123/photo.JPG"},
			want: "attABCDEFGHIJK123.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StableFilename(tt.desc))
		})
	}

	t.Run("hash fallback is deterministic", func(t *testing.T) {
		desc := catalog.AttachmentDescriptor{URL: "https://x.test/some/path.png"}
		first := StableFilename(desc)
		assert.Equal(t, first, StableFilename(desc))
		assert.True(t, strings.HasSuffix(first, ".png"))
	})
}

func TestAttachmentPipeline_Resolve(t *testing.T) {
	t.Run("output positionally aligned with input", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("img-bytes" + r.URL.Path))
		}))
		defer srv.Close()

		storage := newFakeStorage()
		pipeline := newTestPipeline(storage)

		descs := []catalog.AttachmentDescriptor{
			{URL: srv.URL + "/1", Filename: "one.png"},
			{URL: srv.URL + "/2", Filename: "two.png"},
			{URL: srv.URL + "/3", Filename: "three.png"},
		}
		urls, errs := pipeline.Resolve(context.Background(), catalog.EnvironmentVirtual, descs)

		assert.Empty(t, errs)
		require.Len(t, urls, 3)
		assert.Equal(t, "https://cdn.example.com/products/virtual/one.png", urls[0])
		assert.Equal(t, "https://cdn.example.com/products/virtual/two.png", urls[1])
		assert.Equal(t, "https://cdn.example.com/products/virtual/three.png", urls[2])
	})

	t.Run("exhausted retries substitute placeholder and report error", func(t *testing.T) {
		var attempts int32
		var mu sync.Mutex
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			attempts++
			mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		pipeline := newTestPipeline(newFakeStorage())
		urls, errs := pipeline.Resolve(context.Background(), catalog.EnvironmentVirtual,
			[]catalog.AttachmentDescriptor{{URL: srv.URL + "/broken.png"}})

		require.Len(t, urls, 1)
		assert.Equal(t, "/assets/placeholder.png", urls[0])
		require.Len(t, errs, 1)
		assert.Equal(t, "ATTACHMENT_ERROR", errs[0].Code)
		mu.Lock()
		assert.Equal(t, int32(3), attempts)
		mu.Unlock()
	})

	t.Run("oversize body is rejected, not stored truncated", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(make([]byte, maxAssetSize+1))
		}))
		defer srv.Close()

		storage := newFakeStorage()
		pipeline := newTestPipeline(storage)
		urls, errs := pipeline.Resolve(context.Background(), catalog.EnvironmentVirtual,
			[]catalog.AttachmentDescriptor{{URL: srv.URL + "/huge.png"}})

		require.Len(t, urls, 1)
		assert.Equal(t, "/assets/placeholder.png", urls[0])
		require.Len(t, errs, 1)
		assert.Equal(t, "ATTACHMENT_ERROR", errs[0].Code)
		assert.Empty(t, storage.stored)
	})

	t.Run("one failure does not poison the batch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Path, "bad") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		pipeline := newTestPipeline(newFakeStorage())
		urls, errs := pipeline.Resolve(context.Background(), catalog.EnvironmentVirtual,
			[]catalog.AttachmentDescriptor{
				{URL: srv.URL + "/good.png", Filename: "good.png"},
				{URL: srv.URL + "/bad.png"},
			})

		require.Len(t, urls, 2)
		assert.Equal(t, "https://cdn.example.com/products/virtual/good.png", urls[0])
		assert.Equal(t, "/assets/placeholder.png", urls[1])
		assert.Len(t, errs, 1)
	})

	t.Run("repeat resolution reuses the same key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		storage := newFakeStorage()
		pipeline := newTestPipeline(storage)
		desc := []catalog.AttachmentDescriptor{{URL: srv.URL + "/attZYXWVUTSRQP/x.png"}}

		_, errs := pipeline.Resolve(context.Background(), catalog.EnvironmentVirtual, desc)
		require.Empty(t, errs)
		_, errs = pipeline.Resolve(context.Background(), catalog.EnvironmentVirtual, desc)
		require.Empty(t, errs)

		assert.Len(t, storage.stored, 1)
	})
}

func TestAttachmentPipeline_ResolveNamedAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("logo-bytes"))
	}))
	defer srv.Close()

	storage := newFakeStorage()
	pipeline := newTestPipeline(storage)

	url, err := pipeline.ResolveNamedAsset(context.Background(), catalog.EnvironmentRegular,
		"logo", catalog.AttachmentDescriptor{URL: srv.URL + "/brand.png", Filename: "brand.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/webphotos/regular/logo/brand.png", url)
	assert.Contains(t, storage.stored, "webphotos/regular/logo/brand.png")
}
