package backloggd

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/gamestats/internal/fetch"
	"github.com/fortuna/gamestats/internal/igdb"
)

const (
	defaultDetailWorkers = 6
	defaultPagePause     = 100 * time.Millisecond
)

// Config tunes the crawl behavior. Zero values fall back to defaults.
type Config struct {
	// BaseURL overrides the site root, mainly for tests.
	BaseURL string
	// DetailWorkers bounds the concurrent detail-page fetches per page.
	DetailWorkers int
	// PagePause is the politeness pause between page fetches during a
	// full crawl.
	PagePause time.Duration
}

// Client crawls a user's collection on the source site. The enrichment
// client may be nil (or unconfigured), in which case records keep their
// scraped fields only.
type Client struct {
	fetcher  *fetch.Client
	enricher *igdb.Client

	baseURL       string
	detailWorkers int
	pagePause     time.Duration
}

// NewClient creates a crawl client on top of a shared fetcher.
func NewClient(fetcher *fetch.Client, enricher *igdb.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.DetailWorkers <= 0 {
		cfg.DetailWorkers = defaultDetailWorkers
	}
	if cfg.PagePause <= 0 {
		cfg.PagePause = defaultPagePause
	}

	return &Client{
		fetcher:       fetcher,
		enricher:      enricher,
		baseURL:       cfg.BaseURL,
		detailWorkers: cfg.DetailWorkers,
		pagePause:     cfg.PagePause,
	}
}

// headers returns the browser-shaped headers the site expects. The referer
// mirrors the in-site navigation that would lead to the target page.
func (c *Client) headers(referer string) map[string]string {
	return map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.8",
		"Referer":                   referer,
		"Turbolinks-Referrer":       referer,
		"Upgrade-Insecure-Requests": "1",
	}
}

// document fetches a URL and parses it into a goquery document.
func (c *Client) document(ctx context.Context, url, referer string) (*goquery.Document, error) {
	resp, err := c.fetcher.Do(ctx, url, c.headers(referer))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

func (c *Client) userURL(username string) string {
	return c.baseURL + "/u/" + username
}

func (c *Client) gamesURL(username string, page int) string {
	return fmt.Sprintf("%s/u/%s/games?page=%d", c.baseURL, username, page)
}

func (c *Client) searchReferer(username string) string {
	return c.baseURL + "/search/users/" + username
}
