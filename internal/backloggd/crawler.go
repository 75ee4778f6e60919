package backloggd

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// CrawlGames walks a user's collection starting at the given page. With
// allPages set it continues through every remaining page, pausing briefly
// between page fetches; detail resolution within a page fans out
// concurrently and joins back in extraction order.
//
// A fetch failure on the first page (including an unknown user's 404)
// aborts with an error. A failure on a later page of a full crawl returns
// the pages assembled so far together with the error, so callers can tell
// a partial result from a complete one.
func (c *Client) CrawlGames(ctx context.Context, username string, page int, allPages bool) (*CollectionPage, error) {
	if page < 1 {
		page = 1
	}
	referer := c.searchReferer(username)

	doc, err := c.document(ctx, c.gamesURL(username, page), referer)
	if err != nil {
		return nil, err
	}

	games := ExtractGames(doc, c.baseURL)
	totalPages := TotalPages(doc)
	log.Printf("[crawl] %s: extracted %d games from page %d/%d", username, len(games), page, totalPages)

	games = c.resolveDetails(ctx, username, games)

	if !allPages {
		return &CollectionPage{
			Games: games,
			Pagination: Pagination{
				CurrentPage: page,
				TotalPages:  totalPages,
				TotalGames:  len(games),
				HasNext:     page < totalPages,
				HasPrev:     page > 1,
			},
		}, nil
	}

	all := games
	for n := page + 1; n <= totalPages; n++ {
		select {
		case <-ctx.Done():
			return c.fullCrawlPage(all, totalPages), ctx.Err()
		case <-time.After(c.pagePause):
		}

		nextDoc, err := c.document(ctx, c.gamesURL(username, n), referer)
		if err != nil {
			log.Printf("[crawl] %s: stopping at page %d: %v", username, n, err)
			return c.fullCrawlPage(all, totalPages), fmt.Errorf("crawl stopped at page %d: %w", n, err)
		}

		pageGames := c.resolveDetails(ctx, username, ExtractGames(nextDoc, c.baseURL))
		all = append(all, pageGames...)
		log.Printf("[crawl] %s: page %d/%d done (%d games so far)", username, n, totalPages, len(all))
	}

	log.Printf("[crawl] ✓ %s: full crawl finished with %d games", username, len(all))
	return c.fullCrawlPage(all, totalPages), nil
}

// CrawlProfile fetches and parses a user's profile page.
func (c *Client) CrawlProfile(ctx context.Context, username string) (*UserProfile, error) {
	doc, err := c.document(ctx, c.userURL(username), c.searchReferer(username))
	if err != nil {
		return nil, err
	}
	return ParseProfile(doc, username), nil
}

func (c *Client) fullCrawlPage(games []Game, totalPages int) *CollectionPage {
	return &CollectionPage{
		Games: games,
		Pagination: Pagination{
			CurrentPage: 1,
			TotalPages:  totalPages,
			TotalGames:  len(games),
			HasNext:     false,
			HasPrev:     false,
		},
	}
}

// resolveDetails enriches every game on a page concurrently. Results land
// back at their extraction index, so the output order matches the source
// document regardless of fetch completion order.
func (c *Client) resolveDetails(ctx context.Context, username string, games []Game) []Game {
	sem := make(chan struct{}, c.detailWorkers)
	var wg sync.WaitGroup

	for i := range games {
		if games[i].URL == "" {
			continue
		}

		wg.Add(1)
		go func(game *Game) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			c.resolveGame(ctx, username, game)
		}(&games[i])
	}

	wg.Wait()

	for i := range games {
		normalizeFlags(&games[i])
	}
	return games
}

// resolveGame fills in detail-page, log-page and enrichment data for one
// game. Every step degrades to the record's base fields on failure; a
// single bad game never sinks the page.
func (c *Client) resolveGame(ctx context.Context, username string, game *Game) {
	doc, err := c.document(ctx, game.URL, c.baseURL+"/")
	if err != nil {
		log.Printf("[crawl] detail fetch failed for %s: %v", game.URL, err)
		return
	}

	details := ParseDetailPage(doc)
	game.Developer = details.Developer
	game.ReleaseDate = details.ReleaseDate
	game.Platforms = details.Platforms
	game.Genres = details.Genres
	game.IsRemaster = details.IsRemaster
	game.IsRemake = details.IsRemake
	game.IsExpansion = details.IsExpansion

	game.IGDBPage = IGDBPageURL(game.URL)
	game.LogPage = LogPageURL(c.baseURL, username, game.URL)

	c.resolveLogPage(ctx, game)
	c.enrich(ctx, game)
}

// resolveLogPage reads the per-user log page for status and mastery. The
// log-page status takes precedence over the one inferred from the listing's
// CSS classes when both exist.
func (c *Client) resolveLogPage(ctx context.Context, game *Game) {
	if game.LogPage == "" {
		return
	}

	logDoc, err := c.document(ctx, game.LogPage, game.URL)
	if err != nil {
		log.Printf("[crawl] log page fetch failed for %s: %v", game.LogPage, err)
		game.Mastered = "no"
		return
	}

	status, mastered := ParseLogPage(logDoc)
	if status != "" {
		game.Status = status
	}
	game.Mastered = mastered
}

// enrich attaches the IGDB bundle: the scraped numeric ID first, then a
// title search. A nil result leaves the record as scraped.
func (c *Client) enrich(ctx context.Context, game *Game) {
	if !c.enricher.Enabled() {
		return
	}

	if info := c.enricher.GameInfoByID(ctx, game.ID); info != nil {
		game.IGDBInfo = info
		return
	}

	name := game.Name
	if name == "" {
		name = NameFromSlug(game.URL)
	}
	game.IGDBInfo = c.enricher.GameInfoByName(ctx, name)
}

// normalizeFlags pins the tri-state flags to "no" wherever resolution left
// them unset, so aggregation over the whole collection stays total.
func normalizeFlags(game *Game) {
	if game.Mastered == "" {
		game.Mastered = "no"
	}
	if game.IsRemaster == "" {
		game.IsRemaster = "no"
	}
	if game.IsRemake == "" {
		game.IsRemake = "no"
	}
	if game.IsExpansion == "" {
		game.IsExpansion = "no"
	}
}
