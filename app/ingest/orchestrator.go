package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"newsdeck/app/database"
	"newsdeck/app/feed"
)

// RunReport summarizes one bulk refresh run. Feeds that failed are recorded
// in PerFeedErrors and never abort the run.
type RunReport struct {
	FeedsProcessed int
	FeedsFailed    int
	PerFeedErrors  map[int64]error
	TotalNewItems  int
}

// Summary renders the report in the "4 of 5 feeds updated; 1 failed" form.
func (r *RunReport) Summary() string {
	updated := r.FeedsProcessed - r.FeedsFailed
	if r.FeedsFailed == 0 {
		return fmt.Sprintf("%d of %d feeds updated", updated, r.FeedsProcessed)
	}
	return fmt.Sprintf("%d of %d feeds updated; %d failed", updated, r.FeedsProcessed, r.FeedsFailed)
}

// Orchestrator drives the fetch -> normalize -> dedupe -> insert pipeline for
// one feed, and fans it out over all active feeds with a bounded worker pool.
type Orchestrator struct {
	fetcher     *feed.Fetcher
	normalizer  *feed.Normalizer
	feedRepo    database.FeedRepository
	itemRepo    database.ItemRepository
	workerCount int
	now         func() time.Time
}

func NewOrchestrator(fetcher *feed.Fetcher, normalizer *feed.Normalizer,
	feedRepo database.FeedRepository, itemRepo database.ItemRepository,
	workerCount int) *Orchestrator {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Orchestrator{
		fetcher:     fetcher,
		normalizer:  normalizer,
		feedRepo:    feedRepo,
		itemRepo:    itemRepo,
		workerCount: workerCount,
		now:         time.Now,
	}
}

// RefreshOne runs the ingestion pipeline for a single feed and returns the
// number of newly inserted items. Any stage failure aborts this feed's run
// and propagates with its original error type intact.
func (o *Orchestrator) RefreshOne(ctx context.Context, feedID int64) (int, error) {
	fd, err := o.feedRepo.GetFeed(ctx, feedID)
	if err != nil {
		return 0, &StoreError{Op: "get_feed", Err: err}
	}
	if fd == nil {
		return 0, fmt.Errorf("%w: %d", ErrFeedNotFound, feedID)
	}

	rawItems, err := o.fetcher.Fetch(ctx, fd.URL)
	if err != nil {
		return 0, err
	}

	candidates := make([]feed.NormalizedItem, 0, len(rawItems))
	for _, raw := range rawItems {
		if raw == nil {
			continue
		}
		normalized := o.normalizer.Run(raw, fd.ID)
		if normalized.GUID == "" {
			// No id and no link: nothing to deduplicate on.
			slog.Warn("Skipping entry without identity", "feed", fd.ID, "title", normalized.Title)
			continue
		}
		candidates = append(candidates, normalized)
	}

	existing, err := o.itemRepo.ExistingGUIDs(ctx, fd.ID)
	if err != nil {
		return 0, &StoreError{Op: "existing_guids", Err: err}
	}

	fresh := FilterNew(existing, candidates)

	inserted := 0
	if len(fresh) > 0 {
		rows := make([]database.NewsItem, 0, len(fresh))
		createdAt := o.now().UTC()
		for _, item := range fresh {
			rows = append(rows, database.NewsItem{
				FeedID:      item.FeedID,
				GUID:        item.GUID,
				Title:       item.Title,
				Description: item.Description,
				Content:     item.Content,
				ImageURL:    item.ImageURL,
				URL:         item.Link,
				PublishedAt: item.PublishedAt,
				CreatedAt:   createdAt,
			})
		}

		inserted, err = o.itemRepo.InsertItems(ctx, rows)
		if err != nil {
			return 0, &StoreError{Op: "insert_items", Err: err}
		}
	}

	slog.Info("Feed refreshed",
		"feed", fd.ID,
		"title", fd.Title,
		"entries", len(rawItems),
		"duplicates", len(candidates)-len(fresh),
		"new", inserted)

	return inserted, nil
}

// RefreshAll runs RefreshOne for every active feed concurrently, bounded by
// the worker count. One feed's failure is recorded in the report and never
// cancels sibling feeds.
func (o *Orchestrator) RefreshAll(ctx context.Context) (*RunReport, error) {
	feeds, err := o.feedRepo.ListActiveFeeds(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list_active_feeds", Err: err}
	}

	report := &RunReport{
		FeedsProcessed: len(feeds),
		PerFeedErrors:  make(map[int64]error),
	}

	sem := make(chan struct{}, o.workerCount)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, fd := range feeds {
		wg.Add(1)
		go func(fd database.Feed) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			inserted, err := o.RefreshOne(ctx, fd.ID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.FeedsFailed++
				report.PerFeedErrors[fd.ID] = err
				slog.Warn("Feed refresh failed", "feed", fd.ID, "title", fd.Title, "error", err)
				return
			}
			report.TotalNewItems += inserted
		}(fd)
	}

	wg.Wait()

	slog.Info("Refresh run completed",
		"processed", report.FeedsProcessed,
		"failed", report.FeedsFailed,
		"new_items", report.TotalNewItems)

	return report, nil
}
