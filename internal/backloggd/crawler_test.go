package backloggd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gamestats/internal/fetch"
	"github.com/fortuna/gamestats/internal/igdb"
)

func testFetcher() *fetch.Client {
	return fetch.New(fetch.Options{
		Baseline:          time.Millisecond,
		Plateau:           2 * time.Millisecond,
		MaxRetries:        3,
		RequestsPerSecond: 10000,
	})
}

func cardHTML(id int, slug, name string) string {
	return fmt.Sprintf(`<div class="card game-cover fade-playing" game_id="%d">
  <a class="cover-link" href="/games/%s/"></a>
  <div class="overflow-wrapper"><img src="https://img.example/%s.jpg" alt="%s"></div>
  <div class="game-text-centered">%s</div>
</div>`, id, slug, slug, name, name)
}

// fakeSite serves a two-page collection of six games, with detail and log
// pages for each. Page 2 can be told to fail to exercise partial crawls.
func fakeSite(t *testing.T, failPage2 bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/u/testuser/games", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			var cards []string
			for i := 1; i <= 3; i++ {
				cards = append(cards, cardHTML(i, fmt.Sprintf("game-%d", i), fmt.Sprintf("Game %d", i)))
			}
			fmt.Fprintf(w, `<html><body>%s
<nav class="pagination"><a href="/u/testuser/games?page=2">2</a></nav>
</body></html>`, strings.Join(cards, "\n"))
		case "2":
			if failPage2 {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			var cards []string
			for i := 4; i <= 6; i++ {
				cards = append(cards, cardHTML(i, fmt.Sprintf("game-%d", i), fmt.Sprintf("Game %d", i)))
			}
			fmt.Fprintf(w, `<html><body>%s</body></html>`, strings.Join(cards, "\n"))
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("/games/", func(w http.ResponseWriter, r *http.Request) {
		category := ""
		if strings.Contains(r.URL.Path, "game-1") {
			category = `<div class="game-parent-category"><p>This game is a remake of Some Classic</p></div>`
		}
		fmt.Fprintf(w, `<html><body>
<div class="row"><div class="col-auto sub-title"><a href="/company/example-studio/">Example Studio</a></div></div>
<div class="row mt-2 d-md-none"><div class="col-auto ml-auto my-auto"><a class="game-details-value" href="#">Oct 13, 2023</a></div></div>
%s
<a class="game-page-platform" href="#">PC (Microsoft Windows)</a>
<p class="genre-tag"><a href="#">Adventure</a></p>
</body></html>`, category)
	})

	mux.HandleFunc("/u/testuser/logs/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "game-1") {
			fmt.Fprint(w, `<html><body>
<div id="log-status"><p>PlayingBacklogWishlistCompleted</p></div>
<span>Mastered</span>
</body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body><div class="journal"></div></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testCrawler(srv *httptest.Server, enricher *igdb.Client) *Client {
	return NewClient(testFetcher(), enricher, Config{
		BaseURL:       srv.URL,
		DetailWorkers: 3,
		PagePause:     time.Millisecond,
	})
}

func TestCrawlGamesFullCrawl(t *testing.T) {
	c := testCrawler(fakeSite(t, false), nil)

	page, err := c.CrawlGames(context.Background(), "testuser", 1, true)
	require.NoError(t, err)

	assert.Equal(t, 6, page.Pagination.TotalGames)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
	assert.False(t, page.Pagination.HasPrev)

	require.Len(t, page.Games, 6)
	for i, g := range page.Games {
		assert.Equal(t, fmt.Sprintf("Game %d", i+1), g.Name, "results must keep source document order")
	}

	first := page.Games[0]
	assert.Equal(t, "Completed", first.Status, "log-page status wins over the listing CSS state")
	assert.Equal(t, "yes", first.Mastered)
	assert.Equal(t, "yes", first.IsRemake)
	assert.Equal(t, "no", first.IsRemaster)
	assert.Equal(t, "Example Studio", first.Developer)
	assert.Equal(t, "13/10/2023", first.ReleaseDate)
	assert.Equal(t, []string{"PC (Microsoft Windows)"}, first.Platforms)
	assert.Equal(t, []string{"Adventure"}, first.Genres)
	assert.Contains(t, first.LogPage, "/u/testuser/logs/game-1/")
	assert.Equal(t, "https://www.igdb.com/games/game-1", first.IGDBPage)

	second := page.Games[1]
	assert.Equal(t, "playing", second.Status, "empty log status keeps the listing state")
	assert.Equal(t, "no", second.Mastered)
	assert.Equal(t, "no", second.IsRemake)
}

func TestCrawlGamesSinglePage(t *testing.T) {
	c := testCrawler(fakeSite(t, false), nil)

	page, err := c.CrawlGames(context.Background(), "testuser", 1, false)
	require.NoError(t, err)

	assert.Len(t, page.Games, 3)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, 3, page.Pagination.TotalGames)
	assert.True(t, page.Pagination.HasNext)
	assert.False(t, page.Pagination.HasPrev)
}

func TestCrawlGamesUserNotFound(t *testing.T) {
	c := testCrawler(fakeSite(t, false), nil)

	page, err := c.CrawlGames(context.Background(), "ghost", 1, false)
	require.Error(t, err)
	assert.Nil(t, page)
	assert.True(t, fetch.IsNotFound(err))
}

func TestCrawlGamesPartialOnPageFailure(t *testing.T) {
	c := testCrawler(fakeSite(t, true), nil)

	page, err := c.CrawlGames(context.Background(), "testuser", 1, true)
	require.Error(t, err, "a mid-crawl page failure must be signaled")
	require.NotNil(t, page, "pages assembled before the failure are returned")
	assert.Len(t, page.Games, 3)
	assert.Equal(t, 3, page.Pagination.TotalGames)
}

func TestCrawlGamesWithEnrichment(t *testing.T) {
	igdbSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/oauth2/token") {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "tok"}`))
			return
		}
		w.Write([]byte(`[{"id": 1, "name": "Game 1", "genres": [{"id": 31, "name": "Adventure"}]}]`))
	}))
	defer igdbSrv.Close()

	enricher := igdb.NewClient(igdb.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      igdbSrv.URL + "/v4",
		TokenURL:     igdbSrv.URL + "/oauth2/token",
		RetryDelay:   time.Millisecond,
	})

	c := testCrawler(fakeSite(t, false), enricher)

	page, err := c.CrawlGames(context.Background(), "testuser", 1, false)
	require.NoError(t, err)
	require.Len(t, page.Games, 3)

	for _, g := range page.Games {
		require.NotNil(t, g.IGDBInfo)
		assert.Equal(t, []string{"Adventure"}, g.IGDBInfo.Genres)
	}
}
