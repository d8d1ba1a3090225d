package datafeed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/vnpy/datamanager/internal/domain/bar"
	"github.com/vnpy/datamanager/pkg/errors"
)

// Client queries an HTTP history feed.
type Client struct {
	client *resty.Client
	apiKey string
}

var _ Datafeed = (*Client)(nil)

// NewClient creates a datafeed client for the given base URL.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &Client{
		client: client,
		apiKey: apiKey,
	}
}

type historyBar struct {
	Datetime     string `json:"datetime"`
	Open         string `json:"open"`
	High         string `json:"high"`
	Low          string `json:"low"`
	Close        string `json:"close"`
	Volume       string `json:"volume"`
	Turnover     string `json:"turnover"`
	OpenInterest string `json:"open_interest"`
}

type historyResponse struct {
	Bars []historyBar `json:"bars"`
}

// QueryBarHistory fetches the bar history of one series, ascending by timestamp.
func (c *Client) QueryBarHistory(ctx context.Context, req HistoryRequest) ([]*bar.Bar, error) {
	result := &historyResponse{}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   req.Key.Symbol,
			"exchange": req.Key.Exchange,
			"interval": req.Key.Interval,
			"start":    req.Start.UTC().Format(time.RFC3339),
			"end":      req.End.UTC().Format(time.RFC3339),
			"token":    c.apiKey,
		}).
		SetResult(result).
		Get("/history/bars")
	if err != nil {
		return nil, errors.NewDataError(errors.DatafeedError, err.Error()).
			WithKey(req.Key.String()).WithCause(err)
	}
	if resp.IsError() {
		return nil, errors.NewDataError(errors.DatafeedError,
			fmt.Sprintf("feed returned status %d", resp.StatusCode())).
			WithKey(req.Key.String())
	}

	bars := make([]*bar.Bar, 0, len(result.Bars))
	for _, raw := range result.Bars {
		b, err := c.decodeBar(req.Key, raw)
		if err != nil {
			return nil, errors.NewDataError(errors.DatafeedError, err.Error()).
				WithKey(req.Key.String()).WithCause(err)
		}
		bars = append(bars, b)
	}

	bar.List(bars).SortByTimestamp()
	return bars, nil
}

func (c *Client) decodeBar(key bar.Key, raw historyBar) (*bar.Bar, error) {
	timestamp, err := time.Parse(time.RFC3339, raw.Datetime)
	if err != nil {
		return nil, fmt.Errorf("invalid datetime %q: %w", raw.Datetime, err)
	}

	b := &bar.Bar{
		Symbol:    key.Symbol,
		Exchange:  key.Exchange,
		Interval:  key.Interval,
		Timestamp: timestamp.UTC(),
	}

	for _, field := range []struct {
		raw      string
		dest     *decimal.Decimal
		optional bool
	}{
		{raw.Open, &b.Open, false},
		{raw.High, &b.High, false},
		{raw.Low, &b.Low, false},
		{raw.Close, &b.Close, false},
		{raw.Volume, &b.Volume, false},
		{raw.Turnover, &b.Turnover, true},
		{raw.OpenInterest, &b.OpenInterest, true},
	} {
		if field.raw == "" {
			if field.optional {
				continue
			}
			return nil, fmt.Errorf("missing field in feed bar at %s", raw.Datetime)
		}
		value, err := decimal.NewFromString(field.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q in feed bar at %s", field.raw, raw.Datetime)
		}
		*field.dest = value
	}

	return b, nil
}
