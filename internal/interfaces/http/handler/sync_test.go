package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSyncer struct {
	result *catalog.SyncResult
	err    error
	gotEnv catalog.Environment
}

func (f *fakeSyncer) Sync(_ context.Context, env catalog.Environment) (*catalog.SyncResult, error) {
	f.gotEnv = env
	return f.result, f.err
}

func newSyncTestRouter(syncer CatalogSyncer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewSyncHandler(syncer, zap.NewNop()).RegisterRoutes(api)
	return engine
}

func postSync(t *testing.T, engine *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSyncHandler_Sync(t *testing.T) {
	t.Run("returns sync result", func(t *testing.T) {
		syncer := &fakeSyncer{result: &catalog.SyncResult{
			Environment:  catalog.EnvironmentVirtual,
			SyncedCount:  5,
			TotalRecords: 5,
		}}
		w := postSync(t, newSyncTestRouter(syncer), `{"context":"virtual"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, catalog.EnvironmentVirtual, syncer.gotEnv)

		var resp struct {
			Success bool               `json:"success"`
			Data    catalog.SyncResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 5, resp.Data.SyncedCount)
	})

	t.Run("in-flight sync yields 409", func(t *testing.T) {
		syncer := &fakeSyncer{err: shared.ErrSyncInProgress}
		w := postSync(t, newSyncTestRouter(syncer), `{"context":"virtual"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		var resp struct {
			Success bool `json:"success"`
			Error   struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "SYNC_IN_PROGRESS", resp.Error.Code)
	})

	t.Run("verification failure still carries the partial result", func(t *testing.T) {
		syncer := &fakeSyncer{
			result: &catalog.SyncResult{
				Environment:        catalog.EnvironmentVirtual,
				SyncedCount:        4,
				TotalRecords:       5,
				FinalDatabaseCount: 4,
				Errors: []catalog.SyncError{
					{RecordID: "rec5", Code: "CONVERSION_ERROR", Message: "bad payload"},
				},
			},
			err: shared.ErrVerification,
		}
		w := postSync(t, newSyncTestRouter(syncer), `{"context":"virtual"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp struct {
			Success bool               `json:"success"`
			Data    catalog.SyncResult `json:"data"`
			Error   struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "VERIFICATION_ERROR", resp.Error.Code)
		assert.Equal(t, 4, resp.Data.SyncedCount)
		require.Len(t, resp.Data.Errors, 1)
		assert.Equal(t, "rec5", resp.Data.Errors[0].RecordID)
	})

	t.Run("connectivity failure yields 502", func(t *testing.T) {
		syncer := &fakeSyncer{err: shared.ErrConnectivity}
		w := postSync(t, newSyncTestRouter(syncer), `{"context":"regular"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("unknown context yields 400", func(t *testing.T) {
		w := postSync(t, newSyncTestRouter(&fakeSyncer{}), `{"context":"staging"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing body yields 400", func(t *testing.T) {
		w := postSync(t, newSyncTestRouter(&fakeSyncer{}), ``)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
