package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clipcast/internal/response"
	"clipcast/internal/storage"
	"clipcast/internal/types"
	"clipcast/log"
	apperrors "clipcast/pkg/errors"
)

func init() {
	log.InitLogger()
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&storage.ClipJob{}))

	original := storage.DB
	storage.DB = db
	t.Cleanup(func() { storage.DB = original })
}

func newTestRouter() *gin.Engine {
	r := gin.New()
	hdl := NewHandler()
	api := r.Group("/api")
	api.GET("/jobs", hdl.GetJobHistory)
	api.GET("/job", hdl.GetClipJob)
	api.DELETE("/job/:jobId", hdl.DeleteClipJob)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, target string) response.Response {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestGetClipJob(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, storage.SaveJob(&storage.ClipJob{
		JobId:          "job-1",
		ChatId:         42,
		Title:          "Best of Animated",
		Status:         types.ClipJobStatusSucceeded,
		ClipsTotal:     3,
		ClipsDelivered: 3,
	}))

	r := newTestRouter()

	res := doRequest(t, r, http.MethodGet, "/api/job?jobId=job-1")
	assert.Equal(t, int32(0), res.Error)
	data, ok := res.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "job-1", data["job_id"])
	assert.Equal(t, float64(3), data["clips_delivered"])

	res = doRequest(t, r, http.MethodGet, "/api/job?jobId=missing")
	assert.Equal(t, int32(apperrors.CodeNotFound), res.Error)

	res = doRequest(t, r, http.MethodGet, "/api/job")
	assert.Equal(t, int32(apperrors.CodeInvalidParams), res.Error)
}

func TestGetJobHistoryAndDelete(t *testing.T) {
	setupTestDB(t)
	for _, id := range []string{"a", "b"} {
		require.NoError(t, storage.SaveJob(&storage.ClipJob{
			JobId:  id,
			Status: types.ClipJobStatusSucceeded,
		}))
	}

	r := newTestRouter()

	res := doRequest(t, r, http.MethodGet, "/api/jobs")
	assert.Equal(t, int32(0), res.Error)
	list, ok := res.Data.([]any)
	require.True(t, ok)
	assert.Len(t, list, 2)

	res = doRequest(t, r, http.MethodDelete, "/api/job/a")
	assert.Equal(t, int32(0), res.Error)

	res = doRequest(t, r, http.MethodGet, "/api/jobs")
	list, ok = res.Data.([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)
}
