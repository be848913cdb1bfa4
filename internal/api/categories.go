package api

import (
	"context"
	"net/http"
	"strconv"

	"fintrack/internal/core"
)

const categoriesPath = "/categories/"

// ListCategories returns the flat category collection, system categories included
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	if err := c.doJSON(ctx, http.MethodGet, categoriesPath, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory returns the id assigned by the backend
func (c *Client) CreateCategory(ctx context.Context, in core.CategoryInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, invalidInput(http.MethodPost, categoriesPath, err)
	}
	var ack message
	if err := c.doJSON(ctx, http.MethodPost, categoriesPath, nil, in, &ack); err != nil {
		return 0, err
	}
	return ack.ID, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, in core.CategoryInput) error {
	path := categoriesPath + strconv.FormatInt(id, 10)
	if err := in.Validate(); err != nil {
		return invalidInput(http.MethodPut, path, err)
	}
	return c.doJSON(ctx, http.MethodPut, path, nil, in, nil)
}

// DeleteCategory fails with KindConflict when the category still has
// transactions or subcategories
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, categoriesPath+strconv.FormatInt(id, 10), nil, nil, nil)
}
