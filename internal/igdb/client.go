package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the IGDB v4 API root.
	DefaultBaseURL = "https://api.igdb.com/v4"
	// DefaultTokenURL is the twitch client-credentials endpoint IGDB
	// authenticates against.
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

	defaultRetryDelay = 3 * time.Second
)

// batchedGameFields requests every relation we need with names expanded, so
// one round trip returns the whole enrichment bundle.
const batchedGameFields = "fields name, genres.name, game_modes.name, themes.name, " +
	"involved_companies.developer, involved_companies.company.name, " +
	"collections.name, franchises.name, game_engines.name, keywords.name;"

// Config carries IGDB credentials and endpoint overrides. A pre-issued
// AccessToken wins over the client-credentials pair when both are set.
type Config struct {
	ClientID     string
	ClientSecret string
	AccessToken  string

	// BaseURL and TokenURL default to the public endpoints; tests point
	// them at a local server.
	BaseURL  string
	TokenURL string

	// RetryDelay is the fixed backoff before the single 429 retry.
	RetryDelay time.Duration
}

// Client queries the IGDB game database. All lookup methods degrade to nil
// rather than failing, so a broken enrichment path never sinks a crawl.
type Client struct {
	http *resty.Client
	cfg  Config

	mu    sync.Mutex
	token string
}

// NewClient creates an IGDB client from config.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	httpClient := resty.New()
	httpClient.SetTimeout(15 * time.Second)

	return &Client{
		http: httpClient,
		cfg:  cfg,
	}
}

// Enabled reports whether the client has credentials to work with.
func (c *Client) Enabled() bool {
	if c == nil {
		return false
	}
	return c.cfg.AccessToken != "" || (c.cfg.ClientID != "" && c.cfg.ClientSecret != "")
}

// GameInfoByID fetches the enrichment bundle for a known IGDB ID. This is
// the authoritative path: the scraped site carries IGDB IDs on its cards.
func (c *Client) GameInfoByID(ctx context.Context, id string) *GameInfo {
	if !c.Enabled() {
		return nil
	}

	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		log.Printf("[igdb] invalid game ID %q", id)
		return nil
	}

	info, err := c.gameInfo(ctx, numericID)
	if err != nil {
		log.Printf("[igdb] lookup by ID %d failed: %v", numericID, err)
		return nil
	}
	return info
}

// GameInfoByName is the fallback path: fuzzy title search for a candidate
// ID, then the same batched query.
func (c *Client) GameInfoByName(ctx context.Context, name string) *GameInfo {
	if !c.Enabled() || name == "" {
		return nil
	}

	id, err := c.searchGameID(ctx, name)
	if err != nil {
		log.Printf("[igdb] search for %q failed: %v", name, err)
		return nil
	}
	if id == 0 {
		log.Printf("[igdb] no match for %q", name)
		return nil
	}

	info, err := c.gameInfo(ctx, id)
	if err != nil {
		log.Printf("[igdb] lookup for %q (ID %d) failed: %v", name, id, err)
		return nil
	}
	return info
}

// Named is one id/name row from a category endpoint, used by cmd/mappings
// to regenerate the local mapping table.
type Named struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListNames pages through a category endpoint (genres, themes, ...).
func (c *Client) ListNames(ctx context.Context, endpoint string, limit, offset int) ([]Named, error) {
	q := fmt.Sprintf("fields id,name; limit %d; offset %d; sort id asc;", limit, offset)

	var rows []Named
	if err := c.query(ctx, endpoint, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) gameInfo(ctx context.Context, id int64) (*GameInfo, error) {
	q := fmt.Sprintf("%s where id = %d;", batchedGameFields, id)

	var records []gameRecord
	if err := c.query(ctx, "/games", q, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0].toGameInfo(), nil
}

func (c *Client) searchGameID(ctx context.Context, name string) (int64, error) {
	q := fmt.Sprintf("search %q; fields id,name; limit 1;", strings.ReplaceAll(name, `"`, ""))

	var rows []Named
	if err := c.query(ctx, "/games", q, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].ID, nil
}

// query issues one Apicalypse POST. A 429 gets a fixed short backoff and a
// single retry; anything else fails straight away.
func (c *Client) query(ctx context.Context, endpoint, body string, out any) error {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	for attempt := 0; ; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			return err
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Client-ID", c.cfg.ClientID).
			SetHeader("Authorization", "Bearer "+token).
			SetHeader("Content-Type", "text/plain").
			SetBody(body).
			Post(c.cfg.BaseURL + endpoint)
		if err != nil {
			return fmt.Errorf("igdb request: %w", err)
		}

		if resp.StatusCode() == 429 && attempt == 0 {
			log.Printf("[igdb] rate limited, waiting %v before retry", c.cfg.RetryDelay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
			continue
		}

		if resp.StatusCode() != 200 {
			return fmt.Errorf("igdb %s: unexpected status %d", endpoint, resp.StatusCode())
		}

		return json.Unmarshal(resp.Body(), out)
	}
}

// accessToken returns the cached token, acquiring one via the
// client-credentials exchange on first use.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}
	if c.cfg.AccessToken != "" {
		c.token = c.cfg.AccessToken
		return c.token, nil
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
			"grant_type":    "client_credentials",
		}).
		SetResult(&result).
		Post(c.cfg.TokenURL)
	if err != nil {
		return "", fmt.Errorf("igdb token exchange: %w", err)
	}
	if resp.StatusCode() != 200 || result.AccessToken == "" {
		return "", fmt.Errorf("igdb token exchange: status %d", resp.StatusCode())
	}

	c.token = result.AccessToken
	return c.token, nil
}
