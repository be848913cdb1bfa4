package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/views"
)

// ErrInvalidParameter marks a malformed query or path parameter
var ErrInvalidParameter = errors.New("invalid parameter")

// parseOptionalID reads a positive id; an absent or empty key yields nil
func parseOptionalID(query url.Values, key string) (*int64, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidParameter, key)
	}
	return &id, nil
}

// parsePathID reads the {id} wildcard of the matched route
func parsePathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", ErrInvalidParameter, r.PathValue("id"))
	}
	return id, nil
}

func parseBool(query url.Values, key string) (bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrInvalidParameter, key)
	}
	return b, nil
}

// ParseTransactionFilter builds the list filter from query parameters
// type, category_id, search, start_date and end_date
func ParseTransactionFilter(query url.Values) (views.TransactionFilter, error) {
	var f views.TransactionFilter
	if err := f.SetType(strings.TrimSpace(query.Get("type"))); err != nil {
		return f, err
	}
	id, err := parseOptionalID(query, "category_id")
	if err != nil {
		return f, err
	}
	f.SetCategory(id)
	f.SetSearch(sanitizeInput(query.Get("search")))
	if err := f.SetDateRange(strings.TrimSpace(query.Get("start_date")), strings.TrimSpace(query.Get("end_date"))); err != nil {
		return f, err
	}
	return f, nil
}

// ParseAnalyticsFilter applies period before group_by, since choosing a
// period resets the grouping to its natural default
func ParseAnalyticsFilter(query url.Values) (views.AnalyticsFilter, error) {
	f := views.DefaultAnalyticsFilter()
	if v := strings.TrimSpace(query.Get("period")); v != "" {
		p := core.Period(v)
		if err := p.Validate(); err != nil {
			return f, err
		}
		f.SetPeriod(p)
	}
	if v := strings.TrimSpace(query.Get("group_by")); v != "" {
		g := core.GroupBy(v)
		if err := g.Validate(); err != nil {
			return f, err
		}
		f.SetGroupBy(g)
	}
	id, err := parseOptionalID(query, "category_id")
	if err != nil {
		return f, err
	}
	f.SetCategory(id)
	return f, nil
}

// PreferencesUpdate is the body of PUT /views/preferences
type PreferencesUpdate struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
