package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/pipeline"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/service"
)

const dateLayout = "2006-01-02"

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

type runRequest struct {
	ReferenceDate string `json:"reference_date"`
}

// RunForecast triggers a synchronous batch run. The run is detached from the client
// connection and bounded by the runner's own timeout.
func (h *ForecastHandler) RunForecast(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	opts := pipeline.RunOptions{}
	if ref := strings.TrimSpace(req.ReferenceDate); ref != "" {
		parsed, err := time.Parse(dateLayout, ref)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference_date", "details": err.Error()})
			return
		}
		opts.ReferenceDate = parsed
	}

	result, err := h.service.RunForecast(context.WithoutCancel(c.Request.Context()), opts)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "forecast run already in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "forecast run failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ForecastHandler) GetLatest(c *gin.Context) {
	filter := parseForecastFilter(c)
	batch, err := h.service.GetLatest(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch latest forecast", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"forecast_date": nullableDate(batch.ForecastDate),
		"items":         batch.Records,
		"total":         batch.Total,
		"page":          filter.Page,
		"page_size":     filter.PageSize,
	})
}

func (h *ForecastHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.GetSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch summary", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ForecastHandler) GetReorderList(c *gin.Context) {
	items, err := h.service.GetReorderList(c.Request.Context(), parseCategories(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reorder list", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *ForecastHandler) ListBatches(c *gin.Context) {
	limit := parseLimit(c, 30)
	dates, err := h.service.ListBatches(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch forecast batches", "details": err.Error()})
		return
	}
	if dates == nil {
		dates = []time.Time{}
	}

	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

func (h *ForecastHandler) PurgeBatches(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("before"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "before is required"})
		return
	}
	before, err := time.Parse(dateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before date", "details": err.Error()})
		return
	}

	purged, err := h.service.PurgeBefore(c.Request.Context(), before)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purge forecast batches", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purged_records": purged})
}

func (h *ForecastHandler) ListRuns(c *gin.Context) {
	runs, err := h.service.ListRuns(c.Request.Context(), parseLimit(c, 20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch forecast runs", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func parseForecastFilter(c *gin.Context) domain.ForecastFilter {
	filter := domain.ForecastFilter{
		Page:       1,
		PageSize:   50,
		Categories: parseCategories(c),
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}

	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}

	parseFloat64 := func(param string) *float64 {
		value := strings.TrimSpace(c.Query(param))
		if value == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return &f
		}
		return nil
	}

	filter.MaxMonths = parseFloat64("max_months")
	filter.MinConfidence = parseFloat64("min_confidence")

	return filter
}

// parseCategories accepts both ?category=A&category=B and ?category=A,B.
func parseCategories(c *gin.Context) []string {
	var categories []string
	seen := make(map[string]struct{})
	for _, raw := range c.QueryArray("category") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			categories = append(categories, part)
		}
	}
	return categories
}

func parseLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
