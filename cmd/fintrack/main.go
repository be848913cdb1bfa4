// Command fintrack is the terminal client: it signs in against the backend,
// renders each page and can serve the page states as JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"fintrack/internal/api"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/export"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/state"
	"fintrack/internal/views"
)

const usage = `usage: fintrack <command> [flags]

commands:
  login         sign in (-email, -password or FINTRACK_PASSWORD)
  logout        forget the stored session
  categories    show the category tree
  budgets       show budgets (-archived)
  transactions  list transactions (-type -category -search -start -end)
  analytics     show analytics (-period -group-by -category)
  dashboard     show the dashboard
  rates         show exchange rates (-base -target)
  prefs         show or change preferences (-theme -lang)
  export        export transactions (-format xlsx|csv|pdf -out -start -end)
  serve         serve the page states as JSON on VIEW_SERVER_PORT
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	if err := run(os.Args[1], os.Args[2:], cfg, logger, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, DefaultStyles().Error.Render(api.UserMessage(err)))
		logger.Debug("Command failed", "command", os.Args[1], log.FieldError, err)
		os.Exit(1)
	}
}

func run(cmd string, args []string, cfg *config.Config, logger *log.Logger, out io.Writer) error {
	if cmd == "serve" {
		return serve(cfg, logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.APITimeout)
	defer cancel()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	styles := DefaultStyles()
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)

	switch cmd {
	case "login":
		email := fs.String("email", "", "account email")
		password := fs.String("password", os.Getenv("FINTRACK_PASSWORD"), "account password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		user, err := app.Auth.Login(ctx, core.Credentials{Email: *email, Password: *password})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Signed in as %s (%s)\n", user.Name, user.Currency)
		return nil

	case "logout":
		return app.Auth.Logout(ctx)
	}

	if !app.Session.IsAuthenticated() {
		return errors.New("not signed in, run `fintrack login` first")
	}

	switch cmd {
	case "categories":
		if err := app.Categories.Refresh(ctx); err != nil {
			return err
		}
		fmt.Fprint(out, styles.RenderCategories(app.Categories.State()))

	case "budgets":
		archived := fs.Bool("archived", false, "show archived budgets")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := app.Budgets.ShowArchived(ctx, *archived); err != nil {
			return err
		}
		fmt.Fprint(out, styles.RenderBudgets(app.Budgets.State()))

	case "transactions":
		var f views.TransactionFilter
		txType := fs.String("type", "", "income or expense")
		category := fs.Int64("category", 0, "category id")
		fs.StringVar(&f.Search, "search", "", "free-text search")
		fs.StringVar(&f.StartDate, "start", "", "start date YYYY-MM-DD")
		fs.StringVar(&f.EndDate, "end", "", "end date YYYY-MM-DD")
		if err := fs.Parse(args); err != nil {
			return err
		}
		f.Type = core.TxType(*txType)
		if *category != 0 {
			f.CategoryID = core.Int64Ptr(*category)
		}
		if err := app.Transactions.ApplyFilter(ctx, f); err != nil {
			return err
		}
		fmt.Fprint(out, styles.RenderTransactions(app.Transactions.State()))

	case "analytics":
		f := views.DefaultAnalyticsFilter()
		period := fs.String("period", string(f.Period), "month, quarter or year")
		groupBy := fs.String("group-by", string(f.GroupBy), "day, week or month")
		category := fs.Int64("category", 0, "category id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		f.Period = core.Period(*period)
		f.GroupBy = core.GroupBy(*groupBy)
		if *category != 0 {
			f.SetCategory(core.Int64Ptr(*category))
		}
		if err := app.Analytics.ApplyFilter(ctx, f); err != nil {
			return err
		}
		fmt.Fprint(out, styles.RenderAnalytics(app.Analytics.State()))

	case "dashboard":
		// failures are part of the rendered state
		_ = app.Dashboard.Refresh(ctx)
		fmt.Fprint(out, styles.RenderDashboard(app.Dashboard.State()))

	case "rates":
		base := fs.String("base", "", "base currency")
		target := fs.String("target", "", "history target currency")
		if err := fs.Parse(args); err != nil {
			return err
		}
		var err error
		switch {
		case *base != "" && *target != "":
			err = errors.Join(app.Currencies.SetTarget(ctx, *target), app.Currencies.SetBase(ctx, *base))
		case *base != "":
			err = app.Currencies.SetBase(ctx, *base)
		case *target != "":
			err = app.Currencies.SetTarget(ctx, *target)
		default:
			err = app.Currencies.Refresh(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Fprint(out, styles.RenderRates(app.Currencies.State()))

	case "prefs":
		theme := fs.String("theme", "", "light or dark")
		lang := fs.String("lang", "", "ru or en")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *theme != "" {
			if err := app.Preferences.SetTheme(ctx, state.Theme(*theme)); err != nil {
				return err
			}
		}
		if *lang != "" {
			if err := app.Preferences.SetLanguage(ctx, *lang); err != nil {
				return err
			}
		}
		p := app.Preferences.Get()
		fmt.Fprintf(out, "theme=%s language=%s\n", p.Theme, p.Language)

	case "export":
		return runExport(ctx, app, fs, args, out)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func runExport(ctx context.Context, app *cli.App, fs *flag.FlagSet, args []string, out io.Writer) error {
	format := fs.String("format", "xlsx", "xlsx, csv or pdf")
	path := fs.String("out", "", "output file")
	start := fs.String("start", "", "start date YYYY-MM-DD")
	end := fs.String("end", "", "end date YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *format == "xlsx" {
		if err := app.Transactions.ApplyFilter(ctx, views.TransactionFilter{StartDate: *start, EndDate: *end}); err != nil {
			return err
		}
		rows := app.Transactions.State().Rows
		txs := make([]core.Transaction, 0, len(rows))
		for _, r := range rows {
			txs = append(txs, r.Transaction)
		}
		if *path == "" {
			*path = "transactions.xlsx"
		}
		f, err := os.Create(*path)
		if err != nil {
			return err
		}
		if err := export.WriteXLSX(f, txs); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d transactions to %s\n", len(txs), *path)
		return nil
	}

	dl, err := app.Settings.Export(ctx, api.ExportFormat(*format), *start, *end)
	if err != nil {
		return err
	}
	defer dl.Body.Close()
	if *path == "" {
		*path = dl.Filename
	}
	f, err := os.Create(*path)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, dl.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d bytes to %s\n", n, *path)
	return nil
}

func serve(cfg *config.Config, logger *log.Logger) error {
	app, err := cli.NewApp(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	opts := apphttp.DefaultOptions()
	opts.RateLimit = ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit,
		Burst:             max(cfg.RateLimit/6, 1),
		MaxClients:        ratelimit.DefaultConfig().MaxClients,
		IdleTTL:           ratelimit.DefaultConfig().IdleTTL,
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Pages{
		Categories:   app.Categories,
		Budgets:      app.Budgets,
		Transactions: app.Transactions,
		Analytics:    app.Analytics,
		Dashboard:    app.Dashboard,
		Currencies:   app.Currencies,
		Preferences:  app.Preferences,
	}, opts, logger)
	if err != nil {
		return err
	}

	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting view server", "port", cfg.Port, "rate_limit", cfg.RateLimit)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-ctx.Done()
	<-done
	return nil
}
