package backloggd

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Details holds everything recoverable from a game's detail page.
type Details struct {
	Developer   string
	ReleaseDate string
	Platforms   []string
	Genres      []string
	IsRemaster  string
	IsRemake    string
	IsExpansion string
}

// logStatusNoise is boilerplate the site renders inside the log status
// element alongside the actual status text.
const logStatusNoise = "PlayingBacklogWishlist"

// masteredMarker on a log page means the user mastered the game.
const masteredMarker = "Mastered"

// releaseDateLayouts cover the human date formats the site renders.
var releaseDateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2006",
}

// ParseDetailPage derives developers, release date, platform and genre tags
// and the remaster/remake/expansion classification from a detail page.
// Every rule fails soft: a missing node leaves its field empty (or "no" for
// the classification flags), never an error.
func ParseDetailPage(doc *goquery.Document) Details {
	details := Details{
		IsRemaster:  "no",
		IsRemake:    "no",
		IsExpansion: "no",
	}

	// Developers live in the sub-title next to the game name; fall back to
	// any company link on the page when that section is missing.
	developers := collectTexts(doc.Find("div.col-auto.sub-title a[href*='/company/']"))
	if len(developers) == 0 {
		developers = collectTexts(doc.Find("a[href*='/company/']"))
	}
	details.Developer = strings.Join(developers, ", ")

	details.ReleaseDate = extractReleaseDate(doc)
	details.Platforms = collectTexts(doc.Find("a.game-page-platform"))
	details.Genres = collectTexts(doc.Find(".genre-tag a, p.genre-tag a"))

	// A single "parent category" phrase carries the classification. First
	// match wins; the flags are mutually exclusive.
	category := strings.ToLower(strings.TrimSpace(doc.Find(".game-parent-category").Text()))
	switch {
	case strings.Contains(category, "a remaster of"):
		details.IsRemaster = "yes"
	case strings.Contains(category, "a remake of"):
		details.IsRemake = "yes"
	case strings.Contains(category, "an expansion for"):
		details.IsExpansion = "yes"
	}

	return details
}

// ParseLogPage extracts the play status and the mastered flag from a
// per-user log page. The status has known noise text stripped; mastered is
// "yes" only when the literal marker appears anywhere on the page.
func ParseLogPage(doc *goquery.Document) (status string, mastered string) {
	mastered = "no"

	raw := doc.Find("#log-status p").First().Text()
	status = strings.TrimSpace(strings.ReplaceAll(raw, logStatusNoise, ""))

	if strings.Contains(doc.Text(), masteredMarker) {
		mastered = "yes"
	}

	return status, mastered
}

// extractReleaseDate reads the RELEASED section first and falls back to the
// older "released on" filler-text layout. Unparsable dates are dropped.
func extractReleaseDate(doc *goquery.Document) string {
	text := strings.TrimSpace(doc.Find("div.row.mt-2.d-md-none").
		Find("div.col-auto.ml-auto.my-auto a.game-details-value").Text())
	if date := normalizeReleaseDate(text); date != "" {
		return date
	}

	var fallback string
	doc.Find("span.filler-text").EachWithBreak(func(_ int, filler *goquery.Selection) bool {
		if strings.TrimSpace(filler.Text()) != "released on" {
			return true
		}
		fallback = normalizeReleaseDate(strings.TrimSpace(filler.Next().Text()))
		return fallback == ""
	})
	return fallback
}

// normalizeReleaseDate converts a human date string like "Oct 13, 2023"
// into DD/MM/YYYY. Anything unparsable yields "", never a default date.
func normalizeReleaseDate(text string) string {
	if text == "" {
		return ""
	}
	for _, layout := range releaseDateLayouts {
		if date, err := time.Parse(layout, text); err == nil {
			return date.Format("02/01/2006")
		}
	}
	return ""
}

// LogPageURL derives the per-user log page for a game from its slug.
func LogPageURL(baseURL, username, gameURL string) string {
	slug := gameSlug(gameURL)
	if slug == "" {
		return ""
	}
	return baseURL + "/u/" + username + "/logs/" + slug + "/"
}

// IGDBPageURL derives the game's IGDB page from its slug. The site reuses
// IGDB slugs, so this is a plain substitution.
func IGDBPageURL(gameURL string) string {
	slug := gameSlug(gameURL)
	if slug == "" {
		return ""
	}
	return "https://www.igdb.com/games/" + slug
}

// NameFromSlug turns a game URL's slug into a searchable title:
// "silent-hill-f-2025" becomes "Silent Hill F 2025".
func NameFromSlug(gameURL string) string {
	slug := gameSlug(gameURL)
	if slug == "" {
		return ""
	}

	words := strings.Split(slug, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// gameSlug extracts the slug segment from a detail-page URL like
// https://www.backloggd.com/games/silent-hill-f-2025/.
func gameSlug(gameURL string) string {
	trimmed := strings.TrimSuffix(gameURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	return trimmed[idx+1:]
}

// collectTexts gathers trimmed, deduplicated texts in document order.
func collectTexts(sel *goquery.Selection) []string {
	var out []string
	seen := make(map[string]bool)

	sel.Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, text)
	})

	return out
}
