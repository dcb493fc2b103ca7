package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/finsightio/finsight/internal/fetch"
)

// Item is one article reference pulled from a news feed.
type Item struct {
	Title string
	URL   string
}

// Parser turns an RSS/Atom feed URL into a bounded list of article URLs for
// batch analysis. Fetching goes through the shared HTTP client so feeds get
// the same caching, retry, and User-Agent behavior as article pages.
type Parser struct {
	Client *fetch.Client
}

// ArticleURLs fetches and parses the feed, returning up to limit items with
// usable links, deduplicated in feed order. A non-positive limit returns all.
func (p *Parser) ArticleURLs(ctx context.Context, feedURL string, limit int) ([]Item, error) {
	if p == nil || p.Client == nil {
		return nil, fmt.Errorf("feed parser not configured")
	}
	body, _, err := p.Client.Get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	seen := make(map[string]struct{}, len(parsed.Items))
	items := make([]Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		link := strings.TrimSpace(it.Link)
		if link == "" {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		items = append(items, Item{Title: strings.TrimSpace(it.Title), URL: link})
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}
