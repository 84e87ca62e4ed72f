// Package venue is a read-only client for the prediction-market venue's
// series/events/markets/orderbook endpoints. It never calls an order,
// portfolio, or position path; the underlying httptransport.Client enforces
// that as a hard allowlist.
package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tylergwlk/weatherslate/internal/httptransport"
)

// Client wraps an httptransport.Client bound to the venue's base URL.
type Client struct {
	transport *httptransport.Client
	baseURL   string
}

// New builds a venue Client. transport must have Enforce set so that any
// attempt to call a non-allowlisted path panics rather than silently
// succeeding.
func New(transport *httptransport.Client, baseURL string) *Client {
	return &Client{transport: transport, baseURL: baseURL}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	fullURL, pathOnly, err := httptransport.BuildURL(c.baseURL, path, query)
	if err != nil {
		return err
	}
	resp, err := c.transport.Do(ctx, http.MethodGet, fullURL, pathOnly, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("venue: %s returned status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("venue: decode %s: %w", path, err)
	}
	return nil
}

// ListSeries lists product series, optionally filtered by category and tags.
func (c *Client) ListSeries(ctx context.Context, category string, tags []string) ([]Series, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	for _, t := range tags {
		q.Add("tags", t)
	}
	var page seriesPage
	if err := c.get(ctx, "/series", q, &page); err != nil {
		return nil, err
	}
	return page.Series, nil
}

// ListEvents lists one page of events, returning the events and an opaque
// cursor to pass back in to continue; an empty cursor means no more pages.
func (c *Client) ListEvents(ctx context.Context, seriesTicker, status string, withNestedMarkets bool, limit int, cursor string) ([]Event, string, error) {
	q := url.Values{}
	if seriesTicker != "" {
		q.Set("series_ticker", seriesTicker)
	}
	if status != "" {
		q.Set("status", status)
	}
	if withNestedMarkets {
		q.Set("with_nested_markets", "true")
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	var page eventsPage
	if err := c.get(ctx, "/events", q, &page); err != nil {
		return nil, "", err
	}
	return page.Events, page.Cursor, nil
}

// ListAllEvents pages through ListEvents until the cursor is exhausted.
func (c *Client) ListAllEvents(ctx context.Context, seriesTicker, status string, withNestedMarkets bool) ([]Event, error) {
	var all []Event
	cursor := ""
	for {
		events, next, err := c.ListEvents(ctx, seriesTicker, status, withNestedMarkets, 200, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// GetEvent fetches a single event by ticker.
func (c *Client) GetEvent(ctx context.Context, ticker string, withNestedMarkets bool) (*Event, error) {
	q := url.Values{}
	if withNestedMarkets {
		q.Set("with_nested_markets", "true")
	}
	var out struct {
		Event Event `json:"event"`
	}
	if err := c.get(ctx, "/events/"+ticker, q, &out); err != nil {
		return nil, err
	}
	return &out.Event, nil
}

// ListMarkets lists one page of markets under an event ticker.
func (c *Client) ListMarkets(ctx context.Context, eventTicker, status string, limit int, cursor string) ([]Market, string, error) {
	q := url.Values{}
	if eventTicker != "" {
		q.Set("event_ticker", eventTicker)
	}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var page struct {
		Markets []Market `json:"markets"`
		Cursor  string   `json:"cursor"`
	}
	if err := c.get(ctx, "/markets", q, &page); err != nil {
		return nil, "", err
	}
	return page.Markets, page.Cursor, nil
}

// GetOrderbook fetches the top-of-book depth for one market.
func (c *Client) GetOrderbook(ctx context.Context, ticker string, depth int) (*Orderbook, error) {
	q := url.Values{}
	if depth > 0 {
		q.Set("depth", strconv.Itoa(depth))
	}
	var raw orderbookResponse
	if err := c.get(ctx, "/markets/"+ticker+"/orderbook", q, &raw); err != nil {
		return nil, err
	}
	ob := &Orderbook{Ticker: ticker}
	for _, lvl := range raw.Orderbook.Yes {
		ob.Yes = append(ob.Yes, PriceLevel{PriceCents: lvl[0], Quantity: lvl[1]})
	}
	for _, lvl := range raw.Orderbook.No {
		ob.No = append(ob.No, PriceLevel{PriceCents: lvl[0], Quantity: lvl[1]})
	}
	return ob, nil
}
