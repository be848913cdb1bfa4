package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"fintrack/internal/core"
)

type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportQuery selects the export window; empty dates mean unbounded
type ExportQuery struct {
	Format    ExportFormat
	StartDate string
	EndDate   string
	Lang      string
}

// Download is a binary response; the caller must close Body
type Download struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}

// UpdateProfile returns the user as stored by the backend after the change
func (c *Client) UpdateProfile(ctx context.Context, in core.ProfileUpdate) (*core.User, error) {
	const path = "/settings/profile"
	if err := in.Validate(); err != nil {
		return nil, invalidInput(http.MethodPut, path, err)
	}
	var out struct {
		Msg  string     `json:"msg"`
		User *core.User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPut, path, nil, in, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// UploadAvatar returns the stored avatar reference
func (c *Client) UploadAvatar(ctx context.Context, file core.Attachment) (string, error) {
	var out struct {
		Msg    string `json:"msg"`
		Avatar string `json:"avatar"`
	}
	if err := c.upload(ctx, "/settings/avatar", file, &out); err != nil {
		return "", err
	}
	return out.Avatar, nil
}

// ImportCSV uploads a transactions CSV and returns the backend's summary message
func (c *Client) ImportCSV(ctx context.Context, file core.Attachment) (string, error) {
	var out message
	if err := c.upload(ctx, "/settings/import", file, &out); err != nil {
		return "", err
	}
	return out.Msg, nil
}

func (c *Client) upload(ctx context.Context, path string, file core.Attachment, out any) error {
	if file.Content == nil {
		return invalidInput(http.MethodPost, path, &core.ValidationError{
			Fields: []core.FieldError{{Field: "file", Message: "is required"}},
		})
	}
	body, contentType, err := multipartBody(nil, "file", &file)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, request{method: http.MethodPost, path: path, body: body, contentType: contentType})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Export streams a CSV or PDF report
func (c *Client) Export(ctx context.Context, q ExportQuery) (*Download, error) {
	var path string
	switch q.Format {
	case ExportCSV:
		path = "/settings/export"
	case ExportPDF:
		path = "/settings/export_pdf"
	default:
		return nil, invalidInput(http.MethodGet, "/settings/export", errors.New("format must be csv or pdf"))
	}

	v := url.Values{}
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	if q.Lang != "" {
		v.Set("lang", q.Lang)
	}

	resp, err := c.send(ctx, request{method: http.MethodGet, path: path, query: v})
	if err != nil {
		return nil, err
	}
	return &Download{
		Filename:    attachmentName(resp.Header.Get("Content-Disposition"), "export."+string(q.Format)),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

func attachmentName(disposition, fallback string) string {
	if disposition == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return fallback
	}
	return params["filename"]
}
