package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/state"
	"fintrack/internal/storage"
)

type recorded struct {
	method string
	path   string
	query  string
	header http.Header
	form   map[string]string
	file   string
	body   string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recorded
	handler  http.HandlerFunc
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, header: r.Header.Clone()}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		_ = r.ParseMultipartForm(1 << 20)
		rec.form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			rec.form[k] = v[0]
		}
		if f, _, err := r.FormFile("file"); err == nil {
			b, _ := io.ReadAll(f)
			rec.file = string(b)
		}
	} else if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		rec.body = string(raw)
	}
	b.mu.Lock()
	b.requests = append(b.requests, rec)
	b.mu.Unlock()
	b.handler(w, r)
}

func (b *fakeBackend) last(t *testing.T) recorded {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		t.Fatal("backend received no requests")
	}
	return b.requests[len(b.requests)-1]
}

type harness struct {
	backend *fakeBackend
	server  *httptest.Server
	session *state.SessionStore
	nav     *state.Navigator
	client  *Client
}

func newHarness(t *testing.T, handler http.HandlerFunc) *harness {
	t.Helper()
	backend := &fakeBackend{handler: handler}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	session, err := state.NewSessionStore(context.Background(), storage.NewMemoryStore(), nil)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	nav := state.NewNavigator(state.ViewDashboard)

	client, err := NewClient(server.URL+"/api", session, WithNavigator(nav))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return &harness{backend: backend, server: server, session: session, nav: nav, client: client}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewClientValidation(t *testing.T) {
	sess, _ := state.NewSessionStore(context.Background(), storage.NewMemoryStore(), nil)
	if _, err := NewClient("/api", sess); err == nil {
		t.Fatal("relative base url should be rejected")
	}
	if _, err := NewClient("http://localhost/api", nil); err == nil {
		t.Fatal("nil session should be rejected")
	}
}

func TestLoginThenBearerThenUnauthorized(t *testing.T) {
	ctx := context.Background()
	var calls int
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Path {
		case "/api/auth/login":
			writeJSON(w, 200, `{"token":"tok-123","user":{"email":"ann@example.com","name":"Ann","currency":"RUB","avatar":null}}`)
		case "/api/categories/":
			if calls == 2 {
				writeJSON(w, 200, `[]`)
				return
			}
			writeJSON(w, 401, `{"msg":"Token has expired"}`)
		}
	})

	res, err := h.client.Login(ctx, core.Credentials{Email: "ann@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token != "tok-123" || res.User.Name != "Ann" {
		t.Fatalf("unexpected login result %+v", res)
	}
	if auth := h.backend.last(t).header.Get("Authorization"); auth != "" {
		t.Fatalf("login must not carry a bearer header, got %q", auth)
	}
	_ = h.session.SetSession(ctx, res.Token, res.User)

	if _, err := h.client.ListCategories(ctx); err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	last := h.backend.last(t)
	if got := last.header.Get("Authorization"); got != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", got)
	}
	if last.header.Get(headerRequestID) == "" {
		t.Fatal("missing request id header")
	}

	_, err = h.client.ListCategories(ctx)
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if h.session.IsAuthenticated() || h.session.User() != nil {
		t.Fatal("401 must clear token and user")
	}
	if h.nav.Current() != state.ViewLogin {
		t.Fatalf("view = %s, want login", h.nav.Current())
	}
}

func TestUnprocessableEntityInvalidatesSession(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 422, `{"msg":"Signature verification failed"}`)
	})
	_ = h.session.SetSession(context.Background(), "tok", &core.User{})

	_, err := h.client.ListBudgets(context.Background(), false)
	if KindOf(err) != KindAuth {
		t.Fatalf("kind = %q, want auth", KindOf(err))
	}
	if h.session.IsAuthenticated() {
		t.Fatal("422 must clear the session")
	}
	if h.nav.Current() != state.ViewLogin {
		t.Fatalf("view = %s", h.nav.Current())
	}
}

func TestUnauthorizedOnAuthViewDoesNotRedirect(t *testing.T) {
	for _, view := range []state.View{state.ViewLogin, state.ViewRegister} {
		t.Run(string(view), func(t *testing.T) {
			h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 401, `{"msg":"Invalid credentials"}`)
			})
			var navigations int
			h.nav.Navigate(view)
			h.nav.Subscribe(func(state.View) { navigations++ })

			_, err := h.client.Login(context.Background(), core.Credentials{Email: "a@b.co", Password: "bad"})
			if !errors.Is(err, ErrAuth) {
				t.Fatalf("expected ErrAuth, got %v", err)
			}
			if UserMessage(err) != "Invalid credentials" {
				t.Errorf("message = %q", UserMessage(err))
			}
			if h.nav.Current() != view || navigations != 0 {
				t.Fatalf("loop guard failed: view=%s navigations=%d", h.nav.Current(), navigations)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		call   func(c *Client) error
		want   error
		msg    string
	}{
		{
			name:   "delete category in use",
			status: 400,
			body:   `{"msg":"Cannot delete category with transactions"}`,
			call:   func(c *Client) error { return c.DeleteCategory(context.Background(), 3) },
			want:   ErrConflict,
			msg:    "Cannot delete category with transactions",
		},
		{
			name:   "create budget duplicate",
			status: 400,
			body:   `{"msg":"Budget exists"}`,
			call: func(c *Client) error {
				return c.CreateBudget(context.Background(), core.BudgetInput{CategoryID: 1, Limit: decimal.NewFromInt(10), Period: core.Month})
			},
			want: ErrValidation,
			msg:  "Budget exists",
		},
		{
			name:   "missing transaction",
			status: 404,
			body:   `<html>not found</html>`,
			call:   func(c *Client) error { return c.DeleteTransaction(context.Background(), 9) },
			want:   ErrNotFound,
			msg:    "<html>not found</html>",
		},
		{
			name:   "analytics failure",
			status: 500,
			body:   `{"msg":"Internal Server Error","error":"division by zero"}`,
			call: func(c *Client) error {
				_, err := c.Summary(context.Background(), AnalyticsQuery{GroupBy: core.ByMonth, Period: core.Year})
				return err
			},
			want: ErrServer,
			msg:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_ = h.session.SetSession(context.Background(), "tok", &core.User{})

			err := tt.call(h.client)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if UserMessage(err) != tt.msg {
				t.Errorf("message = %q, want %q", UserMessage(err), tt.msg)
			}
			if !h.session.IsAuthenticated() {
				t.Error("non-auth failures must not touch the session")
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	h.server.Close()

	_, err := h.client.ListCategories(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestLocalValidationSkipsRequest(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	_, err := h.client.CreateTransaction(context.Background(), core.TransactionInput{Type: core.Expense})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		t.Fatalf("expected field errors, got %#v", err)
	}
}

func TestCreateTransactionMultipart(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 201, `{"msg":"Transaction added","id":42}`)
	})

	id, err := h.client.CreateTransaction(context.Background(), core.TransactionInput{
		Type:        core.Expense,
		Amount:      decimal.RequireFromString("150"),
		Currency:    "USD",
		CategoryID:  4,
		Description: "flight",
		Date:        core.NewDate(2024, 10, 1),
		Attachment:  &core.Attachment{Filename: "receipt.pdf", Content: strings.NewReader("%PDF")},
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d", id)
	}

	req := h.backend.last(t)
	if req.method != http.MethodPost || req.path != "/api/transactions/" {
		t.Fatalf("request = %s %s", req.method, req.path)
	}
	want := map[string]string{"type": "expense", "amount": "150.00", "currency": "USD", "category_id": "4", "date": "2024-10-01T00:00:00"}
	for k, v := range want {
		if req.form[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, req.form[k], v)
		}
	}
	if req.file != "%PDF" {
		t.Errorf("file = %q", req.file)
	}
}

func TestListQueries(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/budgets/":
			writeJSON(w, 200, `[{"id":1,"category_name":"Food","limit":100,"spent":120,"remaining":-20,"percentage":120,"period":"month","archived":true}]`)
		case "/api/transactions/":
			writeJSON(w, 200, `[]`)
		case "/api/currencies/rates":
			writeJSON(w, 200, `{"base":"RUB","rates":{"USD":0.011}}`)
		case "/api/currencies/history":
			writeJSON(w, 200, `[{"date":"2024-10-01","rate":0.0108}]`)
		}
	})
	ctx := context.Background()

	budgets, err := h.client.ListBudgets(ctx, true)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if q := h.backend.last(t).query; q != "archived=true" {
		t.Errorf("budgets query = %q", q)
	}
	if len(budgets) != 1 || !budgets[0].Archived || budgets[0].Percentage != 120 {
		t.Errorf("budgets = %+v", budgets)
	}

	cat := int64(7)
	_, err = h.client.ListTransactions(ctx, TransactionQuery{Type: core.Income, CategoryID: &cat, Search: "rent", StartDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if q := h.backend.last(t).query; q != "category_id=7&search=rent&start_date=2024-01-01&type=income" {
		t.Errorf("transactions query = %q", q)
	}

	rates, err := h.client.Rates(ctx, "RUB")
	if err != nil || rates.Rates["USD"] != 0.011 {
		t.Fatalf("Rates = %+v, %v", rates, err)
	}
	hist, err := h.client.History(ctx, "RUB", "USD")
	if err != nil || len(hist) != 1 || hist[0].Date != "2024-10-01" {
		t.Fatalf("History = %+v, %v", hist, err)
	}
	if q := h.backend.last(t).query; q != "base=RUB&target=USD" {
		t.Errorf("history query = %q", q)
	}
}

func TestUpdateBudgetSendsOnlyPatchedFields(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"msg":"Updated"}`)
	})
	archived := true
	if err := h.client.UpdateBudget(context.Background(), 5, core.BudgetPatch{Archived: &archived}); err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	req := h.backend.last(t)
	if req.method != http.MethodPut || req.path != "/api/budgets/5" {
		t.Fatalf("request = %s %s", req.method, req.path)
	}
	if req.body != `{"archived":true}` {
		t.Errorf("body = %s", req.body)
	}
}

func TestExportDownload(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions_2024-01-01_2024-12-31.csv"`)
		_, _ = io.WriteString(w, "date,amount\n")
	})

	dl, err := h.client.Export(context.Background(), ExportQuery{Format: ExportCSV, StartDate: "2024-01-01", EndDate: "2024-12-31", Lang: "en"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	defer dl.Body.Close()

	if dl.Filename != "transactions_2024-01-01_2024-12-31.csv" {
		t.Errorf("filename = %q", dl.Filename)
	}
	body, _ := io.ReadAll(dl.Body)
	if string(body) != "date,amount\n" {
		t.Errorf("body = %q", body)
	}
	req := h.backend.last(t)
	if req.path != "/api/settings/export" || req.query != "end_date=2024-12-31&lang=en&start_date=2024-01-01" {
		t.Errorf("request = %s?%s", req.path, req.query)
	}

	if _, err := h.client.Export(context.Background(), ExportQuery{Format: "xml"}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown format should be a validation error, got %v", err)
	}
}

func TestUpdateProfileReturnsUser(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"msg":"Profile updated","user":{"email":"ann@example.com","name":"Ann B","currency":"EUR","avatar":null}}`)
	})
	cur := "EUR"
	u, err := h.client.UpdateProfile(context.Background(), core.ProfileUpdate{BaseCurrency: &cur})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if u.Currency != "EUR" || u.Name != "Ann B" {
		t.Errorf("user = %+v", u)
	}
}
