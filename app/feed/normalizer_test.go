package feed

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

func fixedNormalizer(now time.Time) *Normalizer {
	n := NewNormalizer()
	n.now = func() time.Time { return now }
	return n
}

func TestNormalizeBasicFields(t *testing.T) {
	published := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	item := &gofeed.Item{
		GUID:            "item-1",
		Title:           "Test Title",
		Description:     "Test description",
		Content:         "Test content",
		Link:            "https://example.com/item1",
		PublishedParsed: &published,
	}

	normalized := NewNormalizer().Run(item, 42)

	if normalized.FeedID != 42 {
		t.Errorf("Expected feed ID 42, got: %d", normalized.FeedID)
	}
	if normalized.GUID != "item-1" {
		t.Errorf("Expected GUID 'item-1', got: %s", normalized.GUID)
	}
	if normalized.Title != "Test Title" {
		t.Errorf("Expected title 'Test Title', got: %s", normalized.Title)
	}
	if !normalized.PublishedAt.Equal(published) {
		t.Errorf("Expected published at %v, got: %v", published, normalized.PublishedAt)
	}
}

func TestNormalizeGUIDFallsBackToLink(t *testing.T) {
	item := &gofeed.Item{
		Title: "No GUID",
		Link:  "https://example.com/no-guid",
	}

	normalized := NewNormalizer().Run(item, 1)

	if normalized.GUID != "https://example.com/no-guid" {
		t.Errorf("Expected GUID to fall back to link, got: %s", normalized.GUID)
	}
}

func TestNormalizeImageFromEnclosure(t *testing.T) {
	item := &gofeed.Item{
		GUID:    "item-1",
		Content: `<p><img src="https://example.com/inline.png"></p>`,
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://example.com/audio.mp3", Type: "audio/mpeg"},
			{URL: "https://example.com/photo.jpg", Type: "image/jpeg"},
		},
	}

	normalized := NewNormalizer().Run(item, 1)

	if normalized.ImageURL != "https://example.com/photo.jpg" {
		t.Errorf("Expected enclosure image to win, got: %s", normalized.ImageURL)
	}
}

func TestNormalizeImageFromContent(t *testing.T) {
	item := &gofeed.Item{
		GUID:    "item-1",
		Content: "<p><img src='http://x/y.png'></p>",
	}

	normalized := NewNormalizer().Run(item, 1)

	if normalized.ImageURL != "http://x/y.png" {
		t.Errorf("Expected image 'http://x/y.png', got: %s", normalized.ImageURL)
	}
}

func TestNormalizeImageFromDescription(t *testing.T) {
	item := &gofeed.Item{
		GUID:        "item-1",
		Content:     "<p>No images here</p>",
		Description: `<p>Text <img src="https://example.com/desc.png" alt="x"></p>`,
	}

	normalized := NewNormalizer().Run(item, 1)

	if normalized.ImageURL != "https://example.com/desc.png" {
		t.Errorf("Expected image from description, got: %s", normalized.ImageURL)
	}
}

func TestNormalizeNoImage(t *testing.T) {
	item := &gofeed.Item{
		GUID:        "item-1",
		Content:     "<p>Plain text</p>",
		Description: "No markup either",
	}

	normalized := NewNormalizer().Run(item, 1)

	if normalized.ImageURL != "" {
		t.Errorf("Expected no image, got: %s", normalized.ImageURL)
	}
}

func TestNormalizeDateFromRawString(t *testing.T) {
	item := &gofeed.Item{
		GUID:      "item-1",
		Published: "2023-07-03 10:00:00",
	}

	normalized := NewNormalizer().Run(item, 1)

	want := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !normalized.PublishedAt.Equal(want) {
		t.Errorf("Expected published at %v, got: %v", want, normalized.PublishedAt)
	}
}

func TestNormalizeUnparseableDateFallsBackToNow(t *testing.T) {
	ingestionTime := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	normalizer := fixedNormalizer(ingestionTime)

	item := &gofeed.Item{
		GUID:      "item-1",
		Published: "sometime around lunch",
	}

	normalized := normalizer.Run(item, 1)

	if !normalized.PublishedAt.Equal(ingestionTime) {
		t.Errorf("Expected published at ingestion time %v, got: %v", ingestionTime, normalized.PublishedAt)
	}
}

func TestNormalizeMissingFieldsDegradeToEmpty(t *testing.T) {
	normalizer := fixedNormalizer(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	normalized := normalizer.Run(&gofeed.Item{Link: "https://example.com/bare"}, 1)

	if normalized.Title != "" || normalized.Description != "" || normalized.Content != "" {
		t.Error("Expected missing fields to degrade to empty strings")
	}
	if normalized.GUID == "" {
		t.Error("Expected GUID fallback from link")
	}
	if normalized.PublishedAt.IsZero() {
		t.Error("Expected published at to never be zero")
	}
}
