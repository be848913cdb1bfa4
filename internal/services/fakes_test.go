package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/core"
)

// fakeGateway records calls and serves canned data for every service
type fakeGateway struct {
	mu sync.Mutex

	categories []core.Category
	budgets    map[bool][]core.Budget
	rates      map[string]*core.ExchangeRateSet
	history    []core.RatePoint
	summary    *core.AnalyticsSummary
	txs        []core.Transaction
	user       *core.User

	listErr   error
	deleteErr error
	ratesErr  error

	// gate, when set, blocks ListTransactions until the query's search term is released
	gate map[string]chan struct{}

	calls         map[string]int
	txQueries     []api.TransactionQuery
	summaryCalls  []api.AnalyticsQuery
	budgetPatches []core.BudgetPatch
	exports       []api.ExportQuery
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{calls: map[string]int{}, budgets: map[bool][]core.Budget{}, rates: map[string]*core.ExchangeRateSet{}}
}

func (f *fakeGateway) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeGateway) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeGateway) ListCategories(ctx context.Context) ([]core.Category, error) {
	f.hit("ListCategories")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.categories, nil
}

func (f *fakeGateway) CreateCategory(ctx context.Context, in core.CategoryInput) (int64, error) {
	f.hit("CreateCategory")
	return 99, nil
}

func (f *fakeGateway) UpdateCategory(ctx context.Context, id int64, in core.CategoryInput) error {
	f.hit("UpdateCategory")
	return nil
}

func (f *fakeGateway) DeleteCategory(ctx context.Context, id int64) error {
	f.hit("DeleteCategory")
	return f.deleteErr
}

func (f *fakeGateway) ListBudgets(ctx context.Context, archived bool) ([]core.Budget, error) {
	f.hit("ListBudgets")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.budgets[archived], nil
}

func (f *fakeGateway) CreateBudget(ctx context.Context, in core.BudgetInput) error {
	f.hit("CreateBudget")
	return nil
}

func (f *fakeGateway) UpdateBudget(ctx context.Context, id int64, patch core.BudgetPatch) error {
	f.hit("UpdateBudget")
	f.mu.Lock()
	f.budgetPatches = append(f.budgetPatches, patch)
	f.mu.Unlock()
	return nil
}

func (f *fakeGateway) DeleteBudget(ctx context.Context, id int64) error {
	f.hit("DeleteBudget")
	return f.deleteErr
}

func (f *fakeGateway) Rates(ctx context.Context, base string) (*core.ExchangeRateSet, error) {
	f.hit("Rates")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ratesErr != nil {
		return nil, f.ratesErr
	}
	if r, ok := f.rates[base]; ok {
		return r, nil
	}
	return &core.ExchangeRateSet{Base: base, Rates: map[string]float64{}}, nil
}

func (f *fakeGateway) History(ctx context.Context, base, target string) ([]core.RatePoint, error) {
	f.hit("History")
	return f.history, nil
}

func (f *fakeGateway) SetManualRate(ctx context.Context, in core.ManualRate) error {
	f.hit("SetManualRate")
	return nil
}

func (f *fakeGateway) Summary(ctx context.Context, q api.AnalyticsQuery) (*core.AnalyticsSummary, error) {
	f.hit("Summary")
	f.mu.Lock()
	f.summaryCalls = append(f.summaryCalls, q)
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.summary, nil
}

func (f *fakeGateway) ListTransactions(ctx context.Context, q api.TransactionQuery) ([]core.Transaction, error) {
	f.hit("ListTransactions")
	f.mu.Lock()
	f.txQueries = append(f.txQueries, q)
	gate := f.gate[q.Search]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.Transaction
	for _, t := range f.txs {
		if q.Search == "" || strings.Contains(t.Description, q.Search) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeGateway) CreateTransaction(ctx context.Context, in core.TransactionInput) (int64, error) {
	f.hit("CreateTransaction")
	return 501, nil
}

func (f *fakeGateway) UpdateTransaction(ctx context.Context, id int64, in core.TransactionUpdate) error {
	f.hit("UpdateTransaction")
	return nil
}

func (f *fakeGateway) DeleteTransaction(ctx context.Context, id int64) error {
	f.hit("DeleteTransaction")
	return f.deleteErr
}

func (f *fakeGateway) Login(ctx context.Context, creds core.Credentials) (*api.AuthResult, error) {
	f.hit("Login")
	if creds.Password != "secret" {
		return nil, &api.Error{Status: 401, Kind: api.KindAuth, Message: "Invalid credentials"}
	}
	return &api.AuthResult{Token: "tok", User: f.user}, nil
}

func (f *fakeGateway) Register(ctx context.Context, reg core.Registration) (*api.AuthResult, error) {
	f.hit("Register")
	return &api.AuthResult{Token: "tok", User: f.user}, nil
}

func (f *fakeGateway) Me(ctx context.Context) (*core.User, error) {
	f.hit("Me")
	return f.user, nil
}

func (f *fakeGateway) UpdateProfile(ctx context.Context, in core.ProfileUpdate) (*core.User, error) {
	f.hit("UpdateProfile")
	u := *f.user
	if in.Name != nil {
		u.Name = *in.Name
	}
	return &u, nil
}

func (f *fakeGateway) UploadAvatar(ctx context.Context, file core.Attachment) (string, error) {
	f.hit("UploadAvatar")
	return "/uploads/" + file.Filename, nil
}

func (f *fakeGateway) ImportCSV(ctx context.Context, file core.Attachment) (string, error) {
	f.hit("ImportCSV")
	return "Imported 3 transactions", nil
}

func (f *fakeGateway) Export(ctx context.Context, q api.ExportQuery) (*api.Download, error) {
	f.hit("Export")
	f.mu.Lock()
	f.exports = append(f.exports, q)
	f.mu.Unlock()
	return &api.Download{Filename: "report." + string(q.Format), Body: io.NopCloser(strings.NewReader("x"))}, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChangedMessage
	err  error
}

func (p *fakePublisher) PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

var errBoom = errors.New("boom")
