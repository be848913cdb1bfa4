package cli

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/state"
)

var (
	_ services.AuthGateway        = (*api.Client)(nil)
	_ services.CategoryGateway    = (*api.Client)(nil)
	_ services.BudgetGateway      = (*api.Client)(nil)
	_ services.TransactionGateway = (*api.Client)(nil)
	_ services.AnalyticsGateway   = (*api.Client)(nil)
	_ services.SummaryGateway     = (*api.Client)(nil)
	_ services.CurrencyGateway    = (*api.Client)(nil)
	_ services.SettingsGateway    = (*api.Client)(nil)
	_ services.Publisher          = (*amqp.Client)(nil)
)

// App is the wired client: persisted stores, the gateway and one controller
// per page
type App struct {
	Session     *state.SessionStore
	Preferences *state.PreferenceStore
	Navigator   *state.Navigator
	Gateway     *api.Client

	Auth         *services.AuthService
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Transactions *services.TransactionService
	Analytics    *services.AnalyticsService
	Dashboard    *services.DashboardService
	Currencies   *services.CurrencyService
	Settings     *services.SettingsService

	closers []func() error
}

// AppOption customizes NewApp
type AppOption func(*appOptions)

type appOptions struct {
	apiOpts   []api.Option
	persister state.Persister
	publisher services.Publisher
	noAMQP    bool
}

// WithPersister bypasses the configured state backend
func WithPersister(p state.Persister) AppOption {
	return func(o *appOptions) { o.persister = p }
}

// WithPublisher bypasses the configured AMQP connection
func WithPublisher(p services.Publisher) AppOption {
	return func(o *appOptions) { o.publisher = p; o.noAMQP = true }
}

// WithoutAMQP disables ledger-change publishing
func WithoutAMQP() AppOption {
	return func(o *appOptions) { o.noAMQP = true }
}

func WithAPIOptions(opts ...api.Option) AppOption {
	return func(o *appOptions) { o.apiOpts = append(o.apiOpts, opts...) }
}

// NewApp opens the state backend, restores the session and preferences and
// builds every controller. Close releases what it opened.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...AppOption) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{}
	if err := app.wire(ctx, cfg, logger, o); err != nil {
		if cerr := app.Close(); cerr != nil {
			logger.Warn("Failed to release resources after start-up error", log.FieldError, cerr)
		}
		return nil, err
	}
	return app, nil
}

func (app *App) wire(ctx context.Context, cfg *config.Config, logger *log.Logger, o appOptions) (err error) {
	if cfg == nil {
		return errors.New("nil config")
	}

	persister := o.persister
	if persister == nil {
		bcfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return err
		}
		res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
		if err != nil {
			return fmt.Errorf("state backend: %w", err)
		}
		persister = res.Persister
		if res.Cleanup != nil {
			app.closers = append(app.closers, res.Cleanup)
		}
	}

	if app.Session, err = state.NewSessionStore(ctx, persister, logger); err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if app.Preferences, err = state.NewPreferenceStore(ctx, persister, logger); err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	initial := state.ViewLanding
	if app.Session.IsAuthenticated() {
		initial = state.ViewDashboard
	}
	app.Navigator = state.NewNavigator(initial)

	apiOpts := append([]api.Option{
		api.WithTimeout(cfg.APITimeout),
		api.WithLogger(logger),
		api.WithNavigator(app.Navigator),
	}, o.apiOpts...)
	if app.Gateway, err = api.NewClient(cfg.APIBaseURL, app.Session, apiOpts...); err != nil {
		return err
	}

	pub := o.publisher
	if !o.noAMQP && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// publishing is best effort; the client works without it
			logger.Warn("AMQP unavailable, ledger changes will not be published", log.FieldError, err)
		} else {
			pub = client
			app.closers = append(app.closers, client.Close)
		}
	}

	currency := func() string {
		if u := app.Session.User(); u != nil {
			return u.Currency
		}
		return ""
	}

	gw := app.Gateway
	app.Auth = services.NewAuthService(gw, app.Session, logger)
	app.Categories = services.NewCategoryService(gw, pub, logger)
	app.Budgets = services.NewBudgetService(gw, pub, app.Preferences, currency, logger)
	app.Transactions = services.NewTransactionService(gw, pub, app.Preferences, logger)
	app.Analytics = services.NewAnalyticsService(gw, app.Preferences, logger)
	app.Dashboard = services.NewDashboardService(gw, app.Preferences, logger)
	app.Currencies = services.NewCurrencyService(gw, app.Preferences, logger)
	app.Settings = services.NewSettingsService(gw, app.Session, app.Preferences, pub, logger)
	return nil
}

// Close releases the AMQP connection and the state backend
func (app *App) Close() error {
	if app == nil {
		return nil
	}
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i]())
	}
	app.closers = nil
	return errors.Join(errs...)
}
