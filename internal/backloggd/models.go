package backloggd

import (
	"github.com/fortuna/gamestats/internal/igdb"
)

// BaseURL is the scraped site's root. Extraction rules in this package are
// versioned against its current markup and fail soft when a node is missing.
const BaseURL = "https://www.backloggd.com"

// Game is one entry of a user's collection. Optional fields are omitted
// from JSON when absent; the four classification flags are always "yes" or
// "no" so downstream aggregation counts stay total.
type Game struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Image    string  `json:"image,omitempty"`
	URL      string  `json:"url,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	Playtime string  `json:"playtime,omitempty"`
	Status   string  `json:"status,omitempty"`

	Developer   string   `json:"developer,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Platforms   []string `json:"platforms,omitempty"`
	Genres      []string `json:"genres,omitempty"`

	LogPage  string `json:"logpage,omitempty"`
	IGDBPage string `json:"igdbpage,omitempty"`

	Mastered    string `json:"mastered"`
	IsRemaster  string `json:"isRemaster"`
	IsRemake    string `json:"isRemake"`
	IsExpansion string `json:"isExpansion"`

	IGDBInfo *igdb.GameInfo `json:"igdbgameinfo,omitempty"`
}

// Pagination describes where a CollectionPage sits in the user's listing.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalGames  int  `json:"totalGames"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// CollectionPage is the assembled crawl output for one page (or, for a full
// crawl, all pages) of a user's collection.
type CollectionPage struct {
	Games      []Game     `json:"games"`
	Pagination Pagination `json:"pagination"`
}

// ProfileGame is a lightweight game reference shown on a profile page
// (favorites, journal, reviews). It never goes through detail resolution.
type ProfileGame struct {
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	URL          string  `json:"url,omitempty"`
	PlayedDate   string  `json:"date,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	MostFavorite bool    `json:"mostFavorite,omitempty"`
	Review       string  `json:"review,omitempty"`
}

// Badge is a profile achievement badge.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description"`
}

// UserProfile aggregates everything scraped from a user's profile page.
type UserProfile struct {
	Username         string         `json:"username"`
	Profile          string         `json:"profile"`
	Bio              string         `json:"bio"`
	GamesCount       int            `json:"gamescount,omitempty"`
	Stats            map[string]int `json:"stats,omitempty"`
	Badges           []Badge        `json:"badges,omitempty"`
	FavoriteGames    []ProfileGame  `json:"favoriteGames,omitempty"`
	RecentlyPlayed   []ProfileGame  `json:"recentlyPlayed,omitempty"`
	RecentlyReviewed []ProfileGame  `json:"recentlyReviewed,omitempty"`
}
