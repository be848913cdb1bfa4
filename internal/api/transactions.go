package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"fintrack/internal/core"
)

const transactionsPath = "/transactions/"

// TransactionQuery carries the list filter. Empty fields are not sent.
type TransactionQuery struct {
	Type       core.TxType
	CategoryID *int64
	Search     string
	StartDate  string
	EndDate    string
}

// Values encodes the query the way the backend expects it
func (q TransactionQuery) Values() url.Values {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if q.CategoryID != nil {
		v.Set("category_id", strconv.FormatInt(*q.CategoryID, 10))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	return v
}

// ListTransactions returns the transactions matching q, newest first
func (c *Client) ListTransactions(ctx context.Context, q TransactionQuery) ([]core.Transaction, error) {
	var out []core.Transaction
	if err := c.doJSON(ctx, http.MethodGet, transactionsPath, q.Values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTransaction posts a multipart form so an attachment can ride along.
// It returns the id assigned by the backend.
func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, invalidInput(http.MethodPost, transactionsPath, err)
	}

	fields := map[string]string{
		"type":        string(in.Type),
		"amount":      in.Amount.StringFixed(2),
		"currency":    in.Currency,
		"category_id": strconv.FormatInt(in.CategoryID, 10),
		"description": in.Description,
		"tags":        in.Tags,
	}
	if !in.Date.IsZero() {
		fields["date"] = in.Date.Format("2006-01-02T15:04:05")
	}

	body, contentType, err := multipartBody(fields, "file", in.Attachment)
	if err != nil {
		return 0, err
	}

	resp, err := c.send(ctx, request{method: http.MethodPost, path: transactionsPath, body: body, contentType: contentType})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var ack message
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return 0, fmt.Errorf("decode create transaction response: %w", err)
	}
	return ack.ID, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id int64, in core.TransactionUpdate) error {
	path := transactionsPath + strconv.FormatInt(id, 10)
	if err := in.Validate(); err != nil {
		return invalidInput(http.MethodPut, path, err)
	}
	return c.doJSON(ctx, http.MethodPut, path, nil, in, nil)
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, transactionsPath+strconv.FormatInt(id, 10), nil, nil, nil)
}

// multipartBody renders fields plus an optional file part
func multipartBody(fields map[string]string, fileField string, file *core.Attachment) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if file != nil && file.Content != nil {
		part, err := w.CreateFormFile(fileField, file.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", fmt.Errorf("copy file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
