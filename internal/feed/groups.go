// Package feed consumes the grouped-markets service, an external collaborator
// that pairs identifiers of the same real-world event across venues.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/okaybet/crossarb/internal/domain"
)

// MarketGroup is one real-world event with its venue-local identifiers.
type MarketGroup struct {
	Title         string
	KalshiTickers []string
	PolymarketIDs []string
}

// Pair is a single cross-venue comparison target drawn from a group.
type Pair struct {
	Title        string
	KalshiTicker string
	PolymarketID string
}

// Pairs expands the group into the cross product of its venue identifiers.
// Most groups carry one id per venue and yield exactly one pair.
func (g MarketGroup) Pairs() []Pair {
	pairs := make([]Pair, 0, len(g.KalshiTickers)*len(g.PolymarketIDs))
	for _, kt := range g.KalshiTickers {
		for _, pid := range g.PolymarketIDs {
			pairs = append(pairs, Pair{Title: g.Title, KalshiTicker: kt, PolymarketID: pid})
		}
	}
	return pairs
}

// groupRecord is the wire shape of one grouped-markets entry.
type groupRecord struct {
	Title     string `json:"title"`
	MarketIDs struct {
		Kalshi     []string `json:"kalshi"`
		Polymarket []string `json:"polymarket"`
	} `json:"market_ids"`
}

// Client fetches market groups over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a grouped-markets client for the given service root.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "feed")),
	}
}

// GetGroups fetches the current grouped markets. Entries missing either
// venue's identifiers cannot be compared and are skipped with a debug log,
// not an error.
func (c *Client) GetGroups(ctx context.Context) ([]MarketGroup, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/groups", nil)
	if err != nil {
		return nil, fmt.Errorf("feed: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: fetch groups: %w: %v", domain.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed: read response: %w: %v", domain.ErrTransientNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: %w: HTTP %d", domain.ErrTransientNetwork, resp.StatusCode)
	}

	var records []groupRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("feed: %w: decode groups: %v", domain.ErrSchema, err)
	}

	groups := make([]MarketGroup, 0, len(records))
	for _, rec := range records {
		if len(rec.MarketIDs.Kalshi) == 0 || len(rec.MarketIDs.Polymarket) == 0 {
			c.logger.Debug("skipping one-venue group", slog.String("title", rec.Title))
			continue
		}
		groups = append(groups, MarketGroup{
			Title:         rec.Title,
			KalshiTickers: rec.MarketIDs.Kalshi,
			PolymarketIDs: rec.MarketIDs.Polymarket,
		})
	}
	return groups, nil
}
