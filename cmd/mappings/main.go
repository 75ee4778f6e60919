package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/gamestats/internal/igdb"
)

// endpoints maps the local mapping table names onto IGDB API endpoints.
var endpoints = map[string]string{
	"genres":       "genres",
	"game_modes":   "game_modes",
	"themes":       "themes",
	"companies":    "companies",
	"game_engines": "game_engines",
	"collections":  "collections",
	"franchises":   "franchises",
	"keywords":     "keywords",
}

const pageSize = 500

var (
	output   string
	tables   []string
	maxPages int
)

// newRootCmd builds the mappings generator. It pulls id/name tables from
// the IGDB API and writes the JSON file the enrichment fallback embeds.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mappings",
		Short: "Regenerate the local IGDB id-to-name mapping tables",
		Long: `mappings pulls id/name reference tables (genres, themes, companies and
friends) from the IGDB API and writes them as a single JSON document.

The service embeds that document to resolve IGDB ids locally when the API
returns bare ids instead of expanded names.

Credentials come from IGDB_CLIENT_ID and IGDB_CLIENT_SECRET (or a
pre-issued IGDB_ACCESS_TOKEN).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	rootCmd.Flags().StringVarP(&output, "output", "o", "mappings.json", "Output file path")
	rootCmd.Flags().StringSliceVar(&tables, "tables", nil, "Tables to fetch (default: all)")
	rootCmd.Flags().IntVar(&maxPages, "max-pages", 4, "Page cap per table (500 rows per page)")

	return rootCmd
}

func run(ctx context.Context) error {
	client := igdb.NewClient(igdb.Config{
		ClientID:     os.Getenv("IGDB_CLIENT_ID"),
		ClientSecret: os.Getenv("IGDB_CLIENT_SECRET"),
		AccessToken:  os.Getenv("IGDB_ACCESS_TOKEN"),
	})
	if !client.Enabled() {
		return fmt.Errorf("IGDB credentials not set (IGDB_CLIENT_ID / IGDB_CLIENT_SECRET)")
	}

	selected := tables
	if len(selected) == 0 {
		for table := range endpoints {
			selected = append(selected, table)
		}
	}

	document := make(map[string]map[string]string, len(selected))
	for _, table := range selected {
		endpoint, ok := endpoints[table]
		if !ok {
			return fmt.Errorf("unknown table %q", table)
		}

		rows, err := fetchTable(ctx, client, endpoint)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", table, err)
		}

		document[table] = rows
		log.Printf("✓ %s: %d entries", table, len(rows))
	}

	payload, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, append(payload, '\n'), 0o644); err != nil {
		return err
	}

	log.Printf("✓ wrote %s", output)
	return nil
}

// fetchTable pages through one endpoint until a short page or the page cap.
func fetchTable(ctx context.Context, client *igdb.Client, endpoint string) (map[string]string, error) {
	rows := make(map[string]string)

	for page := 0; page < maxPages; page++ {
		batch, err := client.ListNames(ctx, endpoint, pageSize, page*pageSize)
		if err != nil {
			return nil, err
		}

		for _, entry := range batch {
			rows[strconv.FormatInt(entry.ID, 10)] = entry.Name
		}

		if len(batch) < pageSize {
			break
		}
	}

	return rows, nil
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
