package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"fintrack/internal/core"
)

// AnalyticsQuery selects the summary window and bucket size
type AnalyticsQuery struct {
	GroupBy    core.GroupBy
	Period     core.Period
	CategoryID *int64
}

func (q AnalyticsQuery) Values() url.Values {
	v := url.Values{}
	if q.GroupBy != "" {
		v.Set("group_by", string(q.GroupBy))
	}
	if q.Period != "" {
		v.Set("period", string(q.Period))
	}
	if q.CategoryID != nil {
		v.Set("category_id", strconv.FormatInt(*q.CategoryID, 10))
	}
	return v
}

// Summary returns the aggregated analytics payload for q
func (c *Client) Summary(ctx context.Context, q AnalyticsQuery) (*core.AnalyticsSummary, error) {
	var out core.AnalyticsSummary
	if err := c.doJSON(ctx, http.MethodGet, "/analytics/summary", q.Values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
