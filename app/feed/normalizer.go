package feed

import (
	"cmp"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"golang.org/x/text/unicode/norm"
)

// Matches both single- and double-quoted src attributes. A regex scan over
// raw HTML is imprecise for malformed markup; kept for parity with the
// legacy extraction behavior.
var imgSrcPattern = regexp.MustCompile(`<img[^>]+src=['"]([^'">]+)['"]`)

// Normalizer converts one raw syndication entry into a NormalizedItem.
// It never fails on a malformed entry; missing fields degrade to empty.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

func (n *Normalizer) Run(item *gofeed.Item, feedID int64) NormalizedItem {
	link := item.Link
	if link == "" && len(item.Links) > 0 {
		link = item.Links[0]
	}

	return NormalizedItem{
		FeedID:      feedID,
		GUID:        cmp.Or(item.GUID, link),
		Title:       norm.NFC.String(item.Title),
		Description: norm.NFC.String(item.Description),
		Content:     norm.NFC.String(item.Content),
		ImageURL:    n.resolveImage(item),
		Link:        link,
		PublishedAt: n.resolveDate(item),
	}
}

// resolveImage picks an image for the item: the first image/* enclosure wins,
// then the first <img src> found in the content, then in the description.
func (n *Normalizer) resolveImage(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") && enclosure.URL != "" {
			return enclosure.URL
		}
	}

	if match := imgSrcPattern.FindStringSubmatch(item.Content); match != nil {
		return match[1]
	}
	if match := imgSrcPattern.FindStringSubmatch(item.Description); match != nil {
		return match[1]
	}

	return ""
}

// resolveDate parses the entry's publication date permissively. An
// unparseable date falls back to the ingestion time so every stored item
// sorts by a usable timestamp.
func (n *Normalizer) resolveDate(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}

	if item.Published != "" {
		if parsed, err := dateparse.ParseAny(item.Published); err == nil {
			return parsed.UTC()
		}
	}

	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}

	return n.now().UTC()
}
