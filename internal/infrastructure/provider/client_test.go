package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(&config.ProviderConfig{
		BaseURL:  baseURL,
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
		PageSize: 2,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("requires base URL", func(t *testing.T) {
		_, err := NewClient(&config.ProviderConfig{}, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestClient_FetchAll(t *testing.T) {
	t.Run("follows offset pagination to the end", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/records", r.URL.Path)
			gotAuth = r.Header.Get("Authorization")

			offset := r.URL.Query().Get("offset")
			switch offset {
			case "":
				_ = json.NewEncoder(w).Encode(map[string]any{
					"records": []map[string]any{
						{"id": "r1", "fields": map[string]any{"name": "A"}},
						{"id": "r2", "fields": map[string]any{"name": "B"}},
					},
					"offset": "page2",
				})
			case "page2":
				_ = json.NewEncoder(w).Encode(map[string]any{
					"records": []map[string]any{
						{"id": "r3", "fields": map[string]any{"name": "C"}},
					},
				})
			default:
				t.Fatalf("unexpected offset %q", offset)
			}
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		records, err := client.FetchAll(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "r1", records[0].ID)
		assert.Equal(t, "r3", records[2].ID)
		assert.Equal(t, "Bearer test-key", gotAuth)
	})

	t.Run("propagates non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		_, err := client.FetchAll(context.Background())
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})
}

func TestClient_FetchSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/schema", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"fields": []map[string]any{
				{"name": "Name", "type": "singleLineText"},
				{"name": "Price", "type": "number"},
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	fields, err := client.FetchSchema(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "Name", fields[0].Name)
	assert.Equal(t, "number", fields[1].Type)
}

func TestClient_Ping(t *testing.T) {
	t.Run("succeeds when provider answers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("pageSize"))
			_ = json.NewEncoder(w).Encode(map[string]any{"records": []any{}})
		}))
		defer srv.Close()

		assert.NoError(t, newTestClient(t, srv.URL).Ping(context.Background()))
	})

	t.Run("fails when provider is down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		assert.Error(t, newTestClient(t, srv.URL).Ping(context.Background()))
	})
}
