package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"newsdeck/app/database"
)

const (
	// DefaultStatsWindow is the trailing window for new/active user
	// classification.
	DefaultStatsWindow = 7
	// DefaultChartWindow is the trailing window for daily chart series.
	DefaultChartWindow = 30

	dateLayout = "2006-01-02"
)

type UserStats struct {
	TotalUsers  int `json:"total_users"`
	NewUsers    int `json:"new_users"`
	ActiveUsers int `json:"active_users"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Service computes windowed usage statistics from the append-only event log.
// All operations are read-only; results are raw exact counts, with any
// percentage math left to the consumer.
type Service struct {
	repo     database.AnalyticsRepository
	cache    Cache
	cacheTTL time.Duration
	now      func() time.Time
}

// NewService creates the aggregator. cache may be nil to disable response
// caching.
func NewService(repo database.AnalyticsRepository, cache Cache, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// UserStats returns total, new and active user counts. Active users are
// counted by distinct viewer id inside the window, so a user viewing fifty
// articles counts once.
func (s *Service) UserStats(ctx context.Context, windowDays int) (*UserStats, error) {
	if windowDays <= 0 {
		windowDays = DefaultStatsWindow
	}
	since := s.windowStart(windowDays)

	total, err := s.repo.CountProfiles(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("count total users: %w", err)
	}

	newUsers, err := s.repo.CountProfiles(ctx, &since)
	if err != nil {
		return nil, fmt.Errorf("count new users: %w", err)
	}

	viewers, err := s.repo.DistinctViewerIDs(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}

	return &UserStats{
		TotalUsers:  total,
		NewUsers:    newUsers,
		ActiveUsers: len(viewers),
	}, nil
}

// DailyViewCounts returns one entry per calendar day in the window, oldest
// first, zero-filled for days without events.
func (s *Service) DailyViewCounts(ctx context.Context, windowDays int) ([]DailyCount, error) {
	return s.dailySeries(ctx, database.EventViews, windowDays)
}

// DailyBookmarkCounts is the bookmark-creation counterpart of
// DailyViewCounts.
func (s *Service) DailyBookmarkCounts(ctx context.Context, windowDays int) ([]DailyCount, error) {
	return s.dailySeries(ctx, database.EventBookmarks, windowDays)
}

// CategoryRollup returns per-category view counts sorted by count
// descending. Categories without views are omitted.
func (s *Service) CategoryRollup(ctx context.Context) ([]database.CategoryCount, error) {
	const key = "stats:categories"

	var cached []database.CategoryCount
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}

	counts, err := s.repo.ViewCountsByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("category rollup: %w", err)
	}

	s.setCached(ctx, key, counts)
	return counts, nil
}

func (s *Service) dailySeries(ctx context.Context, kind database.EventKind, windowDays int) ([]DailyCount, error) {
	if windowDays <= 0 {
		windowDays = DefaultChartWindow
	}
	since := s.windowStart(windowDays)

	key := fmt.Sprintf("stats:daily:%s:%d", kind, windowDays)
	var cached []DailyCount
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}

	counts, err := s.repo.DailyCounts(ctx, kind, since)
	if err != nil {
		return nil, fmt.Errorf("daily %s counts: %w", kind, err)
	}

	series := make([]DailyCount, 0, windowDays)
	for day := 0; day < windowDays; day++ {
		date := since.AddDate(0, 0, day).Format(dateLayout)
		series = append(series, DailyCount{Date: date, Count: counts[date]})
	}

	s.setCached(ctx, key, series)
	return series, nil
}

// windowStart returns the start of the first UTC calendar day inside a
// trailing window that includes today.
func (s *Service) windowStart(windowDays int) time.Time {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -(windowDays - 1))
}

// getCached loads a cached aggregate into out. Cache failures are logged and
// treated as misses; they must never break a read.
func (s *Service) getCached(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Debug("Analytics cache read failed", "key", key, "error", err)
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Debug("Analytics cache entry invalid", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Service) setCached(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		slog.Debug("Analytics cache write failed", "key", key, "error", err)
	}
}
