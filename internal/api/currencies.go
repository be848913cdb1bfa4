package api

import (
	"context"
	"net/http"
	"net/url"

	"fintrack/internal/core"
)

// Rates returns the current table for base
func (c *Client) Rates(ctx context.Context, base string) (*core.ExchangeRateSet, error) {
	var out core.ExchangeRateSet
	if err := c.doJSON(ctx, http.MethodGet, "/currencies/rates", url.Values{"base": {base}}, nil, &out); err != nil {
		return nil, err
	}
	if out.Rates == nil {
		out.Rates = map[string]float64{}
	}
	return &out, nil
}

// History returns the daily series of base→target
func (c *Client) History(ctx context.Context, base, target string) ([]core.RatePoint, error) {
	var out []core.RatePoint
	q := url.Values{"base": {base}, "target": {target}}
	if err := c.doJSON(ctx, http.MethodGet, "/currencies/history", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetManualRate pins a rate on the backend; the new value shows up on the next Rates call
func (c *Client) SetManualRate(ctx context.Context, in core.ManualRate) error {
	const path = "/currencies/manual"
	if err := in.Validate(); err != nil {
		return invalidInput(http.MethodPost, path, err)
	}
	return c.doJSON(ctx, http.MethodPost, path, nil, in, nil)
}
