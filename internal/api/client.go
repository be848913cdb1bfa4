// Package api is the only channel to the finance backend. It attaches the
// bearer token to every request and invalidates the session centrally when
// the backend reports it as no longer valid.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"fintrack/internal/log"
	"fintrack/internal/state"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	headerRequestID = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// Session is the part of the session store the gateway needs
type Session interface {
	Token() string
	Logout(ctx context.Context) error
}

// Navigator is the part of the view state the gateway needs for the login redirect
type Navigator interface {
	Current() state.View
	Navigate(v state.View)
}

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	session   Session
	navigator Navigator
	logger    *log.Logger
	requestID func() string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentAPI) }
}

// WithNavigator enables the redirect to the login view on session invalidation
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// NewClient creates a gateway for the API rooted at baseURL (e.g. http://host/api)
func NewClient(baseURL string, session Session, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}
	if session == nil {
		return nil, errors.New("api client requires a session")
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: 15 * time.Second},
		session:   session,
		logger:    log.Discard().WithComponent(log.ComponentAPI),
		requestID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request describes one backend call
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// send executes r and returns the response for 2xx statuses. Any other status
// is converted to *Error; 401 and 422 additionally invalidate the session.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query), r.body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	reqID := c.requestID()
	req.Header.Set(headerRequestID, reqID)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Backend request failed",
			log.FieldMethod, r.method, log.FieldPath, r.path,
			log.FieldRequestID, reqID, log.FieldError, err)
		return nil, &Error{Kind: KindNetwork, Method: r.method, Path: r.path, Err: err}
	}

	c.logger.DebugContext(ctx, "Backend request completed",
		log.FieldMethod, r.method, log.FieldPath, r.path,
		log.FieldStatusCode, resp.StatusCode, log.FieldRequestID, reqID,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	apiErr := &Error{
		Status: resp.StatusCode,
		Kind:   classify(r.method, resp.StatusCode),
		Method: r.method,
		Path:   r.path,
	}
	apiErr.Message, apiErr.Err = decodeErrorBody(resp)

	if apiErr.Kind == KindAuth {
		c.invalidateSession(ctx, apiErr)
	}
	return nil, apiErr
}

// invalidateSession clears the session and sends the user to the login view
// unless a credential view is already showing
func (c *Client) invalidateSession(ctx context.Context, cause *Error) {
	c.logger.WarnContext(ctx, "Session rejected by backend, signing out",
		log.FieldStatusCode, cause.Status, log.FieldPath, cause.Path)

	if err := c.session.Logout(ctx); err != nil {
		c.logger.ErrorContext(ctx, "Failed to clear session", log.FieldError, err)
	}
	if c.navigator == nil || c.navigator.Current().IsAuthView() {
		return
	}
	c.navigator.Navigate(state.ViewLogin)
}

type errorBody struct {
	Msg   string `json:"msg"`
	Error string `json:"error"`
}

func decodeErrorBody(resp *http.Response) (string, error) {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && (body.Msg != "" || body.Error != "") {
		msg := body.Msg
		if msg == "" {
			msg = body.Error
		}
		var cause error
		if body.Error != "" {
			cause = errors.New(body.Error)
		}
		return msg, cause
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text, nil
}

// doJSON sends an optional JSON body and decodes a JSON response into out
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	r := request{method: method, path: path, query: query}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		r.body = bytes.NewReader(payload)
		r.contentType = "application/json"
	}

	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// message is the {"msg": ...} acknowledgement most mutations return
type message struct {
	Msg string `json:"msg"`
	ID  int64  `json:"id,omitempty"`
}
