package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gamestats/internal/backloggd"
	"github.com/fortuna/gamestats/internal/cache"
)

type stubCrawler struct {
	page    *backloggd.CollectionPage
	profile *backloggd.UserProfile
	err     error

	gamesCalls   int
	profileCalls int
}

func (s *stubCrawler) CrawlGames(context.Context, string, int, bool) (*backloggd.CollectionPage, error) {
	s.gamesCalls++
	return s.page, s.err
}

func (s *stubCrawler) CrawlProfile(context.Context, string) (*backloggd.UserProfile, error) {
	s.profileCalls++
	return s.profile, s.err
}

func collectionPage(names ...string) *backloggd.CollectionPage {
	page := &backloggd.CollectionPage{
		Pagination: backloggd.Pagination{CurrentPage: 1, TotalPages: 1, TotalGames: len(names)},
	}
	for i, name := range names {
		page.Games = append(page.Games, backloggd.Game{ID: string(rune('1' + i)), Name: name})
	}
	return page
}

func TestGamesCachesCompleteResults(t *testing.T) {
	crawler := &stubCrawler{page: collectionPage("Hades", "Celeste")}
	svc := NewCollectionService(crawler, cache.NewMemory(), time.Hour)
	ctx := context.Background()

	first, err := svc.Games(ctx, "alice", 1, false, false)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Len(t, first.Page.Games, 2)

	second, err := svc.Games(ctx, "alice", 1, false, false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Page.Games, second.Page.Games)
	assert.Equal(t, 1, crawler.gamesCalls, "cache hit must not crawl again")
}

func TestGamesRefreshBypassesCache(t *testing.T) {
	crawler := &stubCrawler{page: collectionPage("Hades")}
	svc := NewCollectionService(crawler, cache.NewMemory(), time.Hour)
	ctx := context.Background()

	_, err := svc.Games(ctx, "alice", 1, false, false)
	require.NoError(t, err)

	result, err := svc.Games(ctx, "alice", 1, false, true)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, crawler.gamesCalls)
}

func TestGamesKeySeparatesRequestShapes(t *testing.T) {
	crawler := &stubCrawler{page: collectionPage("Hades")}
	svc := NewCollectionService(crawler, cache.NewMemory(), time.Hour)
	ctx := context.Background()

	_, err := svc.Games(ctx, "alice", 1, false, false)
	require.NoError(t, err)

	result, err := svc.Games(ctx, "alice", 1, true, false)
	require.NoError(t, err)
	assert.False(t, result.Cached, "full-crawl request must not reuse the single-page entry")
	assert.Equal(t, 2, crawler.gamesCalls)
}

func TestGamesPartialResultIsNotCached(t *testing.T) {
	crawlErr := errors.New("crawl stopped at page 2")
	crawler := &stubCrawler{page: collectionPage("Hades"), err: crawlErr}
	svc := NewCollectionService(crawler, cache.NewMemory(), time.Hour)
	ctx := context.Background()

	result, err := svc.Games(ctx, "alice", 1, true, false)
	require.ErrorIs(t, err, crawlErr)
	require.NotNil(t, result)
	assert.True(t, result.Partial)
	assert.Len(t, result.Page.Games, 1)

	crawler.err = nil
	again, err := svc.Games(ctx, "alice", 1, true, false)
	require.NoError(t, err)
	assert.False(t, again.Cached, "partial result must not have been cached")
	assert.Equal(t, 2, crawler.gamesCalls)
}

func TestGamesErrorPropagates(t *testing.T) {
	crawlErr := errors.New("user not found")
	crawler := &stubCrawler{err: crawlErr}
	svc := NewCollectionService(crawler, cache.NewMemory(), time.Hour)

	result, err := svc.Games(context.Background(), "ghost", 1, false, false)
	assert.ErrorIs(t, err, crawlErr)
	assert.Nil(t, result)
}

func TestGamesExpiredEntryTriggersRecrawl(t *testing.T) {
	crawler := &stubCrawler{page: collectionPage("Hades")}
	svc := NewCollectionService(crawler, cache.NewMemory(), time.Millisecond)
	ctx := context.Background()

	_, err := svc.Games(ctx, "alice", 1, false, false)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	result, err := svc.Games(ctx, "alice", 1, false, false)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, crawler.gamesCalls)
}

func TestProfileCaches(t *testing.T) {
	crawler := &stubCrawler{profile: &backloggd.UserProfile{Username: "alice", Bio: "hi"}}
	svc := NewCollectionService(crawler, cache.NewMemory(), time.Hour)
	ctx := context.Background()

	first, err := svc.Profile(ctx, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, "hi", first.Bio)

	second, err := svc.Profile(ctx, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, crawler.profileCalls)

	_, err = svc.Profile(ctx, "alice", true)
	require.NoError(t, err)
	assert.Equal(t, 2, crawler.profileCalls)
}
