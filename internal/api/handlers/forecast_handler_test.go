package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/pipeline"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository/memory"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/service"
)

type busyRunner struct{}

func (busyRunner) Run(context.Context, pipeline.RunOptions) (*pipeline.BatchResult, error) {
	return nil, pipeline.ErrRunInProgress
}

func newTestRouter(t *testing.T, runner service.ForecastRunner) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	items := memory.NewItemRepository(
		domain.Item{ID: 1, Name: "Copy paper", Category: "office", CurrentStock: 100, MinStock: 20},
		domain.Item{ID: 2, Name: "Toner", Category: "printing", CurrentStock: 10, MinStock: 50},
	)
	forecasts := memory.NewForecastRepository()
	runs := memory.NewRunRepository()
	if runner == nil {
		runner = pipeline.NewRunner(items, memory.NewTransactionRepository(), forecasts, pipeline.DefaultConfig(),
			pipeline.WithRunRepository(runs))
	}

	h := NewForecastHandler(service.NewForecastService(runner, forecasts, runs, nil))

	r := gin.New()
	g := r.Group("/api/v1/forecast")
	g.POST("/run", h.RunForecast)
	g.GET("/latest", h.GetLatest)
	g.GET("/summary", h.GetSummary)
	g.GET("/reorder", h.GetReorderList)
	g.GET("/batches", h.ListBatches)
	g.DELETE("/batches", h.PurgeBatches)
	g.GET("/runs", h.ListRuns)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestForecastHandler_RunThenRead(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/api/v1/forecast/latest", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"forecast_date":null`)

	w = do(r, http.MethodPost, "/api/v1/forecast/run", `{"reference_date":"2026-10-01"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result pipeline.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.ProcessedItems)
	assert.Equal(t, 1, result.ReorderWithin3Months)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), result.ReferenceDate)

	w = do(r, http.MethodGet, "/api/v1/forecast/latest?category=printing&page_size=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	var latest struct {
		Items []domain.ForecastRecord `json:"items"`
		Total int                     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &latest))
	require.Len(t, latest.Items, 1)
	assert.Equal(t, "Toner", latest.Items[0].ItemName)
	assert.Equal(t, 1, latest.Total)

	w = do(r, http.MethodGet, "/api/v1/forecast/reorder", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"urgency":"critical"`)

	w = do(r, http.MethodGet, "/api/v1/forecast/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_items":2`)

	w = do(r, http.MethodGet, "/api/v1/forecast/batches?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var batches struct {
		Dates []time.Time `json:"dates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batches))
	assert.Len(t, batches.Dates, 1)

	w = do(r, http.MethodGet, "/api/v1/forecast/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)
}

func TestForecastHandler_RunWithoutBody(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/v1/forecast/run", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestForecastHandler_BadInput(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/v1/forecast/run", `{"reference_date":"01/10/2026"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid reference_date")

	w = do(r, http.MethodDelete, "/api/v1/forecast/batches", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/api/v1/forecast/batches?before=2026-10-01", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"purged_records":0}`, w.Body.String())
}

func TestForecastHandler_RunInProgress(t *testing.T) {
	r := newTestRouter(t, busyRunner{})

	w := do(r, http.MethodPost, "/api/v1/forecast/run", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestParseCategories(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?category=a,b&category=b&category=%20c%20", nil)

	assert.Equal(t, []string{"a", "b", "c"}, parseCategories(c))
}
