package edgeconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZhaoShanGeng/antigravity2api/lib/logging"
	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
)

var logger = logging.GetLogger("edgeconfig")

const (
	// defaultBaseURL is the Vercel Edge Config read endpoint.
	defaultBaseURL = "https://edge-config.vercel.com"

	// tokensItem is the config item holding the token record sequence.
	tokensItem = "tokens"

	defaultTimeout = 10 * time.Second
)

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

// Options configures an Edge Config client.
type Options struct {
	// ID is the Edge Config identifier (ecfg_...).
	ID string

	// Token is the read access token, sent as a bearer token.
	Token string

	// BaseURL overrides the Vercel endpoint, mainly for tests.
	BaseURL string

	// Timeout bounds a single fetch. Zero selects the default.
	Timeout time.Duration
}

// Client reads token records from a Vercel Edge Config.
type Client struct {
	baseURL string
	id      string
	token   string
	client  *http.Client
}

// NewClient creates a new Edge Config client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{
		baseURL: opts.BaseURL,
		id:      opts.ID,
		token:   opts.Token,
		client:  &http.Client{Timeout: opts.Timeout},
	}
}

// FetchRecords retrieves the token record sequence from the config. A
// missing tokens item is not an error and yields an empty sequence.
func (c *Client) FetchRecords(ctx context.Context) ([]store.Record, error) {
	url := fmt.Sprintf("%s/%s/item/%s", c.baseURL, c.id, tokensItem)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build edge config request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edge config request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		logger.Infof("edge config has no %s item", tokensItem)
		return []store.Record{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edge config returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read edge config response: %w", err)
	}

	var records []store.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode edge config records: %w", err)
	}
	if records == nil {
		records = []store.Record{}
	}

	logger.Infof("fetched %d records from edge config", len(records))
	return records, nil
}

// --------------------------------------------------------------------------
// Store Seeding
// --------------------------------------------------------------------------

// SeedStore populates an empty store with the records held in the config.
// A store that already has records is left untouched, so a restart never
// clobbers local state with a stale remote copy.
func SeedStore(ctx context.Context, c *Client, s store.IStore) error {
	existing, err := s.ReadAll()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Debugf("store already has %d records, skipping seed", len(existing))
		return nil
	}

	records, err := c.FetchRecords(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	if err := s.WriteAll(records); err != nil {
		return err
	}
	logger.Infof("seeded store with %d records from edge config", len(records))
	return nil
}
