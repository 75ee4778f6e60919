package backloggd

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const defaultAvatar = "https://backloggd.b-cdn.net/no_avatar.jpg"

var (
	gamesCountRegex = regexp.MustCompile(`^(\d+)\s+Games?`)
	starWidthRegex  = regexp.MustCompile(`width:\s*(\d+(?:\.\d+)?)%`)
)

// ParseProfile extracts a user's profile page: avatar, bio, headline stats,
// favorite games, journal and recent reviews. Like the listing extractor it
// is pure over the document and fails soft on missing sections.
func ParseProfile(doc *goquery.Document, username string) *UserProfile {
	profile := &UserProfile{
		Username: username,
		Profile:  defaultAvatar,
		Bio:      "Nothing here!",
	}

	if avatar := doc.Find("meta[property='og:image']").AttrOr("content", ""); avatar != "" {
		profile.Profile = avatar
	}

	if bio := strings.TrimSpace(doc.Find("#bio-body").Text()); bio != "" {
		profile.Bio = bio
	}

	if m := gamesCountRegex.FindStringSubmatch(strings.TrimSpace(doc.Find("p.mb-0.subtitle-text").Text())); m != nil {
		profile.GamesCount, _ = strconv.Atoi(m[1])
	}

	doc.Find("#profile-stats").Children().Each(func(_ int, stat *goquery.Selection) {
		key := strings.TrimSpace(stat.ChildrenFiltered("h4").Text())
		value := strings.TrimSpace(stat.ChildrenFiltered("h1").Text())
		if key == "" {
			return
		}
		if n, err := strconv.Atoi(value); err == nil {
			if profile.Stats == nil {
				profile.Stats = make(map[string]int)
			}
			profile.Stats[key] = n
		}
	})

	doc.Find("#profile-favorites").Children().Each(func(_ int, fav *goquery.Selection) {
		if game, ok := extractProfileGame(fav); ok {
			game.MostFavorite = strings.Contains(fav.AttrOr("class", ""), "ultimate_fav")
			profile.FavoriteGames = append(profile.FavoriteGames, game)
		}
	})

	doc.Find("#profile-journal").Children().Each(func(_ int, entry *goquery.Selection) {
		if game, ok := extractProfileGame(entry); ok {
			profile.RecentlyPlayed = append(profile.RecentlyPlayed, game)
		}
	})

	profile.RecentlyReviewed = extractRecentReviews(doc)
	profile.Badges = extractBadges(doc)

	return profile
}

// extractProfileGame reads one game tile (cover, name, link, played date,
// star rating). Tiles without both a name and a cover are malformed and
// dropped.
func extractProfileGame(sel *goquery.Selection) (ProfileGame, bool) {
	cover := sel.Find("div.overflow-wrapper")
	game := ProfileGame{
		Name:  cover.Find("img").AttrOr("alt", ""),
		Image: cover.Find("img").AttrOr("src", ""),
	}
	if game.Name == "" || game.Image == "" {
		return ProfileGame{}, false
	}

	if href := cardLink(sel); href != "" {
		game.URL = absoluteURL(BaseURL, href)
	}
	game.PlayedDate = strings.TrimSpace(sel.Find("p.mb-0.played-date").Text())
	game.Rating = starRating(sel.Find("div.star-ratings-static div.stars-top").AttrOr("style", ""))

	return game, true
}

// extractRecentReviews pulls the review cards: the game tile plus the
// review text keyed by the card's review ID.
func extractRecentReviews(doc *goquery.Document) []ProfileGame {
	var reviews []ProfileGame

	doc.Find("div.row.mb-3 .review-card").Each(func(_ int, card *goquery.Selection) {
		reviewID := card.Find(".review-body").AttrOr("review_id", "")
		game, ok := extractProfileGame(card)
		if reviewID == "" || !ok {
			return
		}

		game.Review = strings.TrimSpace(card.Find("#collapseReview" + reviewID).Text())
		if rating := starRating(card.Find("div.row.star-ratings-static div.stars-top").AttrOr("style", "")); rating > 0 {
			game.Rating = rating
		}
		reviews = append(reviews, game)
	})

	return reviews
}

// extractBadges reads the sidebar badge list. Each badge tooltip carries an
// ID pointing at the element with its title and description.
func extractBadges(doc *goquery.Document) []Badge {
	var badges []Badge

	doc.Find("#profile-sidebar .badges .backlog-badge-cus-col").Each(func(_ int, sel *goquery.Selection) {
		tooltip := sel.Find(".badge-tooltip")
		id := tooltip.AttrOr("badge_id", "")
		if id == "" {
			return
		}

		detail := sel.Find("#badge-" + id)
		badges = append(badges, Badge{
			ID:          id,
			Name:        strings.TrimSpace(detail.Find(".badge-title").Text()),
			Image:       tooltip.Find("img").AttrOr("src", ""),
			Description: strings.TrimSpace(detail.Find(".badge-desc").Text()),
		})
	})

	return badges
}

// starRating converts the star overlay's width percentage into a 0-5 score.
func starRating(style string) float64 {
	m := starWidthRegex.FindStringSubmatch(style)
	if m == nil {
		return 0
	}
	width, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return width / 100 * 5
}
