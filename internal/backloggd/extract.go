package backloggd

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var pageParamRegex = regexp.MustCompile(`page=(\d+)`)

// ExtractGames pulls every game card out of a collection listing page.
// A card missing its ID or name is treated as malformed and skipped; the
// rest of the page still parses. Optional attributes are simply left at
// their zero value when the markup does not carry them.
func ExtractGames(doc *goquery.Document, baseURL string) []Game {
	var games []Game

	doc.Find(".game-cover").Each(func(_ int, card *goquery.Selection) {
		id := card.AttrOr("game_id", "")
		name := strings.TrimSpace(card.Find(".game-text-centered").Text())
		if id == "" || name == "" {
			return
		}

		game := Game{
			ID:    id,
			Name:  name,
			Image: card.Find(".overflow-wrapper img").AttrOr("src", ""),
		}

		if href := cardLink(card); href != "" {
			game.URL = absoluteURL(baseURL, href)
		}

		if ratingAttr, ok := card.Attr("data-rating"); ok {
			if rating, err := strconv.ParseFloat(ratingAttr, 64); err == nil {
				game.Rating = rating
			}
		}

		game.Playtime = card.Find(".time-badge").AttrOr("title", "")
		game.Status = statusFromClasses(card.AttrOr("class", ""))

		games = append(games, game)
	})

	return games
}

// TotalPages computes the listing's page count from its pagination links:
// the maximum page number seen in any link. No pagination links means a
// single page.
func TotalPages(doc *goquery.Document) int {
	maxPage := 1

	doc.Find("a[href*='page=']").Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		if m := pageParamRegex.FindStringSubmatch(href); m != nil {
			if page, err := strconv.Atoi(m[1]); err == nil && page > maxPage {
				maxPage = page
			}
		}
	})

	return maxPage
}

// statusFromClasses maps a card's CSS state classes to a play status with a
// fixed precedence. Cards with no state class count as plain "played".
func statusFromClasses(classes string) string {
	switch {
	case strings.Contains(classes, "fade-completed"):
		return "completed"
	case strings.Contains(classes, "fade-playing"):
		return "playing"
	case strings.Contains(classes, "fade-backlog"):
		return "backlog"
	case strings.Contains(classes, "fade-wishlist"):
		return "wishlist"
	default:
		return "played"
	}
}

// cardLink finds the detail-page link for a card, preferring the explicit
// cover link over a wrapping anchor.
func cardLink(card *goquery.Selection) string {
	if href, ok := card.Find("a.cover-link").Attr("href"); ok {
		return href
	}
	return card.Closest("a").AttrOr("href", "")
}

func absoluteURL(baseURL, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return baseURL + href
}
