package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"fintrack/internal/core"
)

const budgetsPath = "/budgets/"

// ListBudgets returns either the archived or the active budgets, never both
func (c *Client) ListBudgets(ctx context.Context, archived bool) ([]core.Budget, error) {
	q := url.Values{"archived": {strconv.FormatBool(archived)}}
	var out []core.Budget
	if err := c.doJSON(ctx, http.MethodGet, budgetsPath, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBudget(ctx context.Context, in core.BudgetInput) error {
	if err := in.Validate(); err != nil {
		return invalidInput(http.MethodPost, budgetsPath, err)
	}
	return c.doJSON(ctx, http.MethodPost, budgetsPath, nil, in, nil)
}

// UpdateBudget sends only the fields set in patch
func (c *Client) UpdateBudget(ctx context.Context, id int64, patch core.BudgetPatch) error {
	path := budgetsPath + strconv.FormatInt(id, 10)
	if err := patch.Validate(); err != nil {
		return invalidInput(http.MethodPut, path, err)
	}
	return c.doJSON(ctx, http.MethodPut, path, nil, patch, nil)
}

func (c *Client) DeleteBudget(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, budgetsPath+strconv.FormatInt(id, 10), nil, nil, nil)
}
