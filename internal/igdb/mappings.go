package igdb

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
)

// mappings.json is a static ID→name table generated by cmd/mappings. It is
// the decoder of last resort for responses that carry bare IDs instead of
// expanded names.
//
//go:embed mappings.json
var mappingsData []byte

var (
	mappingsOnce sync.Once
	mappings     map[string]map[string]string
)

func loadMappings() {
	mappingsOnce.Do(func() {
		if err := json.Unmarshal(mappingsData, &mappings); err != nil {
			log.Printf("[igdb] failed to load embedded mappings: %v", err)
			mappings = map[string]map[string]string{}
		}
	})
}

// lookupName resolves an ID through the local table. Unknown IDs render as
// a placeholder label rather than being dropped, so list lengths stay
// aligned with the counts reported elsewhere.
func lookupName(category string, id int64) string {
	loadMappings()
	if table, ok := mappings[category]; ok {
		if name, ok := table[strconv.FormatInt(id, 10)]; ok {
			return name
		}
	}
	return fmt.Sprintf("Unknown %s ID: %d", strings.TrimSuffix(category, "s"), id)
}
