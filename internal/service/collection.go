package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/fortuna/gamestats/internal/backloggd"
	"github.com/fortuna/gamestats/internal/cache"
)

// DefaultTTL is how long crawled results stay cached.
const DefaultTTL = time.Hour

// Crawler is the scraping surface the service drives. Satisfied by
// backloggd.Client; tests substitute a stub.
type Crawler interface {
	CrawlGames(ctx context.Context, username string, page int, allPages bool) (*backloggd.CollectionPage, error)
	CrawlProfile(ctx context.Context, username string) (*backloggd.UserProfile, error)
}

// CollectionService fronts the crawler with a cache. Complete results are
// cached under a key derived from the request shape; partial results are
// returned to the caller but never cached.
type CollectionService struct {
	crawler Crawler
	store   cache.Store
	ttl     time.Duration
}

// NewCollectionService creates a collection service. A non-positive ttl
// falls back to DefaultTTL.
func NewCollectionService(crawler Crawler, store cache.Store, ttl time.Duration) *CollectionService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CollectionService{
		crawler: crawler,
		store:   store,
		ttl:     ttl,
	}
}

// GamesResult is a collection page plus how it was obtained.
type GamesResult struct {
	Page    *backloggd.CollectionPage
	Cached  bool
	Partial bool
}

// Games returns a user's collection page, from cache when possible. With
// refresh set the cached entry is dropped first and a fresh crawl runs.
//
// A crawl that fails partway through a full crawl returns the assembled
// partial result together with the error; the caller decides how to
// present it. Partial results are not cached.
func (s *CollectionService) Games(ctx context.Context, username string, page int, allPages, refresh bool) (*GamesResult, error) {
	key := cache.GamesKey(username, page, allPages)

	if refresh {
		if err := s.store.Invalidate(ctx, key); err != nil {
			log.Printf("[service] cache invalidate failed for %s: %v", key, err)
		}
	} else if cached := s.lookup(ctx, key); cached != nil {
		var result backloggd.CollectionPage
		if err := json.Unmarshal(cached, &result); err == nil {
			return &GamesResult{Page: &result, Cached: true}, nil
		}
		log.Printf("[service] dropping undecodable cache entry %s", key)
		_ = s.store.Invalidate(ctx, key)
	}

	result, err := s.crawler.CrawlGames(ctx, username, page, allPages)
	if err != nil {
		if result != nil {
			return &GamesResult{Page: result, Partial: true}, err
		}
		return nil, err
	}

	s.save(ctx, key, result)
	return &GamesResult{Page: result}, nil
}

// Profile returns a user's profile, from cache when possible.
func (s *CollectionService) Profile(ctx context.Context, username string, refresh bool) (*backloggd.UserProfile, error) {
	key := cache.ProfileKey(username)

	if refresh {
		if err := s.store.Invalidate(ctx, key); err != nil {
			log.Printf("[service] cache invalidate failed for %s: %v", key, err)
		}
	} else if cached := s.lookup(ctx, key); cached != nil {
		var profile backloggd.UserProfile
		if err := json.Unmarshal(cached, &profile); err == nil {
			return &profile, nil
		}
		log.Printf("[service] dropping undecodable cache entry %s", key)
		_ = s.store.Invalidate(ctx, key)
	}

	profile, err := s.crawler.CrawlProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	s.save(ctx, key, profile)
	return profile, nil
}

// lookup reads the cache, treating any failure as a miss.
func (s *CollectionService) lookup(ctx context.Context, key string) []byte {
	value, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Printf("[service] cache read failed for %s: %v", key, err)
		}
		return nil
	}
	return value
}

// save writes the cache, logging failures rather than surfacing them.
func (s *CollectionService) save(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Printf("[service] cache encode failed for %s: %v", key, err)
		return
	}
	if err := s.store.Set(ctx, key, payload, s.ttl); err != nil {
		log.Printf("[service] cache write failed for %s: %v", key, err)
		return
	}
	log.Printf("[service] ✓ cached %s for %s", key, s.ttl)
}
