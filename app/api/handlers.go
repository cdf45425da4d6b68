package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"newsdeck/app/analytics"
	"newsdeck/app/database"
	"newsdeck/app/feed"
	"newsdeck/app/ingest"
)

type Handler struct {
	orchestrator *ingest.Orchestrator
	stats        *analytics.Service
	feedRepo     database.FeedRepository
	itemRepo     database.ItemRepository
	eventRepo    database.AnalyticsRepository
}

func NewHandler(orchestrator *ingest.Orchestrator, stats *analytics.Service,
	feedRepo database.FeedRepository, itemRepo database.ItemRepository,
	eventRepo database.AnalyticsRepository) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		stats:        stats,
		feedRepo:     feedRepo,
		itemRepo:     itemRepo,
		eventRepo:    eventRepo,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(c.Request.Context()); err == nil {
		health["feeds"] = feedCount
	}
	if itemCount, err := h.itemRepo.GetItemCount(c.Request.Context(), 0); err == nil {
		health["news_items"] = itemCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) RefreshFeed(c *gin.Context) {
	feedID, ok := paramID(c)
	if !ok {
		return
	}

	inserted, err := h.orchestrator.RefreshOne(c.Request.Context(), feedID)
	if err != nil {
		h.renderRefreshError(c, feedID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feed_id":   feedID,
		"new_items": inserted,
	})
}

func (h *Handler) RefreshAllFeeds(c *gin.Context) {
	report, err := h.orchestrator.RefreshAll(c.Request.Context())
	if err != nil {
		slog.Error("Bulk refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refresh run failed"})
		return
	}

	perFeedErrors := make(map[string]string, len(report.PerFeedErrors))
	for feedID, feedErr := range report.PerFeedErrors {
		perFeedErrors[strconv.FormatInt(feedID, 10)] = feedErr.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds_processed": report.FeedsProcessed,
		"feeds_failed":    report.FeedsFailed,
		"total_new_items": report.TotalNewItems,
		"errors":          perFeedErrors,
		"summary":         report.Summary(),
	})
}

func (h *Handler) GetUserStats(c *gin.Context) {
	window := windowParam(c, analytics.DefaultStatsWindow)

	stats, err := h.stats.UserStats(c.Request.Context(), window)
	if err != nil {
		slog.Error("User stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute user stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetDailyViews(c *gin.Context) {
	window := windowParam(c, analytics.DefaultChartWindow)

	series, err := h.stats.DailyViewCounts(c.Request.Context(), window)
	if err != nil {
		slog.Error("Daily view counts failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute view counts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"window_days": window, "series": series})
}

func (h *Handler) GetDailyBookmarks(c *gin.Context) {
	window := windowParam(c, analytics.DefaultChartWindow)

	series, err := h.stats.DailyBookmarkCounts(c.Request.Context(), window)
	if err != nil {
		slog.Error("Daily bookmark counts failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute bookmark counts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"window_days": window, "series": series})
}

func (h *Handler) GetCategoryRollup(c *gin.Context) {
	rollup, err := h.stats.CategoryRollup(c.Request.Context())
	if err != nil {
		slog.Error("Category rollup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute category rollup"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": rollup})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.feedRepo.ListFeedsWithCategory(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]gin.H, 0, len(feeds))
	for _, fd := range feeds {
		out = append(out, gin.H{
			"id":       fd.ID,
			"title":    fd.Title,
			"url":      fd.URL,
			"category": fd.CategoryName,
			"active":   fd.Active,
		})
	}

	c.JSON(http.StatusOK, gin.H{"feeds": out, "total": len(out)})
}

func (h *Handler) ListNews(c *gin.Context) {
	var feedID int64
	if raw := c.Query("feed_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feed_id parameter"})
			return
		}
		feedID = parsed
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	items, err := h.itemRepo.GetRecentItems(c.Request.Context(), feedID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_news", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"news": newsJSON(items), "total": len(items)})
}

func (h *Handler) GetNews(c *gin.Context) {
	newsID, ok := paramID(c)
	if !ok {
		return
	}

	item, err := h.itemRepo.GetItem(c.Request.Context(), newsID)
	if err != nil {
		slog.Error("Database error", "operation", "get_news", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "News item not found"})
		return
	}

	c.JSON(http.StatusOK, newsItemJSON(*item))
}

func (h *Handler) RecordView(c *gin.Context) {
	h.recordEvent(c, h.eventRepo.RecordView)
}

func (h *Handler) AddBookmark(c *gin.Context) {
	h.recordEvent(c, h.eventRepo.AddBookmark)
}

func (h *Handler) RemoveBookmark(c *gin.Context) {
	h.recordEvent(c, h.eventRepo.RemoveBookmark)
}

type eventRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) recordEvent(c *gin.Context, record func(ctx context.Context, userID string, newsID int64) error) {
	newsID, ok := paramID(c)
	if !ok {
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id"})
		return
	}

	item, err := h.itemRepo.GetItem(c.Request.Context(), newsID)
	if err != nil {
		slog.Error("Database error", "operation", "get_news", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "News item not found"})
		return
	}

	if err := record(c.Request.Context(), req.UserID, newsID); err != nil {
		slog.Error("Database error", "operation", "record_event", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) renderRefreshError(c *gin.Context, feedID int64, err error) {
	var fetchErr *feed.FetchError
	var parseErr *feed.ParseError
	var storeErr *ingest.StoreError

	switch {
	case errors.Is(err, ingest.ErrFeedNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found", "feed_id": feedID})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Feed fetch failed", "feed_id": feedID, "details": fetchErr.Error()})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Feed payload malformed", "feed_id": feedID, "details": parseErr.Error()})
	case errors.As(err, &storeErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage failure", "feed_id": feedID, "details": storeErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refresh failed", "feed_id": feedID, "details": err.Error()})
	}
}

// windowParam reads the optional ?days= query parameter, clamped to a year.
func windowParam(c *gin.Context, fallback int) int {
	raw := c.Query("days")
	if raw == "" {
		return fallback
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > 365 {
		return fallback
	}
	return days
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter"})
		return 0, false
	}
	return id, true
}

func newsItemJSON(item database.NewsItem) gin.H {
	out := gin.H{
		"id":           item.ID,
		"feed_id":      item.FeedID,
		"guid":         item.GUID,
		"title":        item.Title,
		"description":  item.Description,
		"content":      item.Content,
		"url":          item.URL,
		"published_at": item.PublishedAt.Format(time.RFC3339),
		"created_at":   item.CreatedAt.Format(time.RFC3339),
	}
	if item.ImageURL != "" {
		out["image_url"] = item.ImageURL
	}
	return out
}

func newsJSON(items []database.NewsItem) []gin.H {
	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		out = append(out, newsItemJSON(item))
	}
	return out
}
