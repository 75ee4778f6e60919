package backloggd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDetailPage(t *testing.T) {
	details := ParseDetailPage(loadDoc(t, "detail_remake.html"))

	assert.Equal(t, "Capcom, Capcom Development Division 1", details.Developer, "sub-title companies, deduplicated")
	assert.Equal(t, "13/10/2023", details.ReleaseDate)
	assert.Equal(t, []string{"PC (Microsoft Windows)", "PlayStation 5"}, details.Platforms)
	assert.Equal(t, []string{"Adventure", "Shooter"}, details.Genres)

	assert.Equal(t, "yes", details.IsRemake)
	assert.Equal(t, "no", details.IsRemaster)
	assert.Equal(t, "no", details.IsExpansion)
}

func TestParseDetailPageFallbacks(t *testing.T) {
	details := ParseDetailPage(loadDoc(t, "detail_fallback.html"))

	assert.Equal(t, "Team Cherry", details.Developer, "page-wide company links when no sub-title section exists")
	assert.Empty(t, details.ReleaseDate, "unparsable dates are dropped, not defaulted")
	assert.Empty(t, details.Platforms)
	assert.Empty(t, details.Genres)

	assert.Equal(t, "no", details.IsRemake)
	assert.Equal(t, "no", details.IsRemaster)
	assert.Equal(t, "no", details.IsExpansion)
}

func TestNormalizeReleaseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Oct 13, 2023", "13/10/2023"},
		{"Feb 25, 2022", "25/02/2022"},
		{"February 25, 2022", "25/02/2022"},
		{"Jan 1, 1998", "01/01/1998"},
		{"2017", "01/01/2017"},
		{"To Be Determined", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeReleaseDate(tc.in), "input %q", tc.in)
	}
}

func TestParseLogPage(t *testing.T) {
	status, mastered := ParseLogPage(loadDoc(t, "log_page.html"))
	assert.Equal(t, "Completed", status, "noise text is stripped from the status")
	assert.Equal(t, "yes", mastered)
}

func TestParseLogPageEmpty(t *testing.T) {
	status, mastered := ParseLogPage(loadDoc(t, "games_single_page.html"))
	assert.Empty(t, status)
	assert.Equal(t, "no", mastered)
}

func TestLogPageURL(t *testing.T) {
	got := LogPageURL(BaseURL, "testuser", "https://www.backloggd.com/games/silent-hill-f-2025/")
	assert.Equal(t, "https://www.backloggd.com/u/testuser/logs/silent-hill-f-2025/", got)
}

func TestIGDBPageURL(t *testing.T) {
	got := IGDBPageURL("https://www.backloggd.com/games/silent-hill-f-2025/")
	assert.Equal(t, "https://www.igdb.com/games/silent-hill-f-2025", got)
}

func TestNameFromSlug(t *testing.T) {
	assert.Equal(t, "Silent Hill F 2025", NameFromSlug("https://www.backloggd.com/games/silent-hill-f-2025/"))
	assert.Equal(t, "Hades", NameFromSlug("https://www.backloggd.com/games/hades/"))
}

func TestClassificationIsMutuallyExclusive(t *testing.T) {
	cases := []struct {
		category  string
		remaster  string
		remake    string
		expansion string
	}{
		{"This game is a remaster of Dark Souls", "yes", "no", "no"},
		{"This game is a remake of Foo", "no", "yes", "no"},
		{"This game is an expansion for Bar", "no", "no", "yes"},
		{"", "no", "no", "no"},
	}

	for _, tc := range cases {
		html := `<html><body><div class="game-parent-category"><p>` + tc.category + `</p></div></body></html>`
		details := ParseDetailPage(docFromString(t, html))
		assert.Equal(t, tc.remaster, details.IsRemaster, "category %q", tc.category)
		assert.Equal(t, tc.remake, details.IsRemake, "category %q", tc.category)
		assert.Equal(t, tc.expansion, details.IsExpansion, "category %q", tc.category)
	}
}
