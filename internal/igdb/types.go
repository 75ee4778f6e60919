package igdb

import (
	"encoding/json"
)

// GameInfo is the normalized enrichment bundle attached to a scraped game.
// Every list is independently empty-able; consumers must not assume any
// category is populated.
type GameInfo struct {
	Name       string   `json:"name,omitempty"`
	Genres     []string `json:"genres_readable,omitempty"`
	GameModes  []string `json:"game_modes_readable,omitempty"`
	Themes     []string `json:"themes_readable,omitempty"`
	Developers []string `json:"developers_readable,omitempty"`
	Series     []string `json:"series_readable,omitempty"`
	Franchises []string `json:"franchises_readable,omitempty"`
	Engines    []string `json:"game_engines_readable,omitempty"`
	Keywords   []string `json:"keywords_readable,omitempty"`
}

// namedRef is one element of an IGDB relation. When the query expands the
// relation (".name" field) it arrives as {"id": N, "name": "..."}; when it
// does not, it arrives as a bare numeric ID. Both shapes decode here.
type namedRef struct {
	ID   int64
	Name string
}

func (r *namedRef) UnmarshalJSON(data []byte) error {
	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		r.ID = id
		return nil
	}

	var obj struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	r.Name = obj.Name
	return nil
}

// involvedCompany links a game to a company with a role flag. Only
// developer entries contribute to the enrichment bundle.
type involvedCompany struct {
	Developer bool      `json:"developer"`
	Company   *namedRef `json:"company"`
}

// gameRecord is the wire shape of one /games result row.
type gameRecord struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Genres            []namedRef        `json:"genres"`
	GameModes         []namedRef        `json:"game_modes"`
	Themes            []namedRef        `json:"themes"`
	InvolvedCompanies []involvedCompany `json:"involved_companies"`
	Collections       []namedRef        `json:"collections"`
	Franchises        []namedRef        `json:"franchises"`
	GameEngines       []namedRef        `json:"game_engines"`
	Keywords          []namedRef        `json:"keywords"`
}

// toGameInfo flattens a wire record into readable name lists, falling back
// to the local mapping table for relations that arrived as bare IDs.
func (g *gameRecord) toGameInfo() *GameInfo {
	info := &GameInfo{
		Name:       g.Name,
		Genres:     readableNames(g.Genres, "genres"),
		GameModes:  readableNames(g.GameModes, "game_modes"),
		Themes:     readableNames(g.Themes, "themes"),
		Series:     readableNames(g.Collections, "collections"),
		Franchises: readableNames(g.Franchises, "franchises"),
		Engines:    readableNames(g.GameEngines, "game_engines"),
		Keywords:   readableNames(g.Keywords, "keywords"),
	}

	for _, ic := range g.InvolvedCompanies {
		if !ic.Developer || ic.Company == nil {
			continue
		}
		name := ic.Company.Name
		if name == "" {
			name = lookupName("companies", ic.Company.ID)
		}
		info.Developers = append(info.Developers, name)
	}

	return info
}

func readableNames(refs []namedRef, category string) []string {
	if len(refs) == 0 {
		return nil
	}
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.Name != "" {
			names = append(names, ref.Name)
			continue
		}
		names = append(names, lookupName(category, ref.ID))
	}
	return names
}
