// Package cli is the monevctl operator tool: one-off subscription scans,
// monthly reports and schema migrations against the configured store.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/app"
	"github.com/creativealip-rgb/Monev-sub001/internal/config"
	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/amqp"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/export"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/resilience"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/sqlite"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/telegram"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CLIApp wraps the cobra command tree.
type CLIApp struct {
	rootCmd *cobra.Command
	version string
}

// NewCLIApp builds the command tree.
func NewCLIApp(version string) *CLIApp {
	a := &CLIApp{version: version}

	root := &cobra.Command{
		Use:           "monevctl",
		Short:         "Operator tool for the Monev backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
				displayBanner(a.version)
			}
		},
	}
	root.SetVersionTemplate(`{{printf "monevctl version: %s\n" .Version}}`)

	root.PersistentFlags().String("env-file", ".env", "Path to a .env file loaded before the environment")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show service logs")
	root.PersistentFlags().BoolP("quiet", "q", false, "Skip the banner")

	root.AddCommand(a.detectCmd(), a.reportCmd(), a.migrateCmd())
	a.rootCmd = root
	return a
}

// Execute runs the CLI with ctx attached to every command.
func (a *CLIApp) Execute(ctx context.Context) error {
	return a.rootCmd.ExecuteContext(ctx)
}

// ============================================================
// detect
// ============================================================

func (a *CLIApp) detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run the subscription scan once, or list one user's recurring charges",
		RunE:  a.runDetect,
	}
	cmd.Flags().Bool("dry-run", false, "Log notifications instead of sending them")
	cmd.Flags().String("user", "", "Only list recurring charges for this user ID; nothing is sent")
	cmd.Flags().Int("months", 0, "Detection window in months (default from DETECTION_WINDOW_MONTHS)")
	return cmd
}

func (a *CLIApp) runDetect(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	userID, _ := cmd.Flags().GetString("user")
	months, _ := cmd.Flags().GetInt("months")
	ctx := cmd.Context()
	metrics := observability.NewMetrics()

	var broadcaster port.Broadcaster
	if userID == "" {
		var closeFn func() error
		broadcaster, closeFn, err = newBroadcaster(cfg, dryRun, metrics, logger)
		if err != nil {
			return err
		}
		defer closeFn()
	}

	svc, err := app.New(ctx, cfg, broadcaster, metrics, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if userID != "" {
		report, err := svc.Analytics.Recurring(ctx, userID, months)
		if err != nil {
			return err
		}
		lang := domain.LangIndonesian
		if st, err := svc.Settings.Get(ctx, userID); err == nil {
			lang = st.Language
		}
		pterm.Info.Printfln("Window: %s to %s (%d months)",
			report.From.Format("2006-01-02"), report.To.Format("2006-01-02"), report.WindowMonths)
		if len(report.Charges) == 0 {
			pterm.Warning.Println("No recurring charges detected")
			return nil
		}
		return renderTable(recurringTable(report.Charges, lang))
	}

	spinner, _ := pterm.DefaultSpinner.Start("Scanning users for recurring charges...")
	summary, err := svc.Subscriptions.Run(ctx)
	if err != nil {
		spinner.Fail("Scan failed")
		return err
	}
	if summary.Failed > 0 {
		spinner.Warning(fmt.Sprintf("Scan finished with %d failures", summary.Failed))
	} else {
		spinner.Success("Scan finished")
	}

	if err := renderTable(summaryTable(summary)); err != nil {
		return err
	}
	for _, e := range summary.Errors {
		fmt.Println(brightRed("  ✗ ") + e)
	}
	if dryRun {
		fmt.Println(dimYellow("dry run: messages were logged, not sent"))
	}
	return nil
}

// newBroadcaster mirrors the server's delivery path: the queue when
// configured, Telegram when a token is set, otherwise logging only.
func newBroadcaster(cfg *config.Config, dryRun bool, metrics *observability.Metrics, logger *zap.Logger) (port.Broadcaster, func() error, error) {
	noop := func() error { return nil }
	dryRunLogger := logger
	if !logger.Core().Enabled(zap.InfoLevel) {
		dryRunLogger = observability.NewLogger("info")
	}

	switch {
	case dryRun:
		return service.NewDispatcher(app.DryRunNotifier{Logger: dryRunLogger}, metrics, logger), noop, nil
	case cfg.AMQPURL != "":
		queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to AMQP: %w", err)
		}
		return queue, queue.Close, nil
	case cfg.TelegramBotToken != "":
		bot, err := telegram.NewTeleBot(cfg.TelegramBotToken, cfg.TelegramPollTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("create telegram bot: %w", err)
		}
		notifier := telegram.NewNotifier(bot, resilience.NewCircuitBreaker("telegram"), resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
		}, cfg.HTTPTimeout, logger)
		return service.NewDispatcher(notifier, metrics, logger), noop, nil
	default:
		pterm.Warning.Println("No AMQP_URL or TELEGRAM_BOT_TOKEN set: falling back to dry run")
		return service.NewDispatcher(app.DryRunNotifier{Logger: dryRunLogger}, metrics, logger), noop, nil
	}
}

// ============================================================
// report
// ============================================================

func (a *CLIApp) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a user's monthly report and optionally write it as PDF",
		RunE:  a.runReport,
	}
	cmd.Flags().String("user", "", "User ID (required)")
	cmd.Flags().Int("year", 0, "Report year (default current)")
	cmd.Flags().Int("month", 0, "Report month 1-12 (default current)")
	cmd.Flags().String("pdf", "", "Write the report as PDF to this path")
	cmd.Flags().String("lang", "", "Override the user's language (id, en)")
	cmd.MarkFlagRequired("user")
	return cmd
}

func (a *CLIApp) runReport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	userID, _ := cmd.Flags().GetString("user")
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")
	pdfPath, _ := cmd.Flags().GetString("pdf")
	lang, _ := cmd.Flags().GetString("lang")
	ctx := cmd.Context()

	svc, err := app.New(ctx, cfg, nil, observability.NewMetrics(), logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	loc := svc.Settings.Location(ctx, userID)
	year, month = defaultPeriod(year, month, time.Now().In(loc))
	if lang == "" {
		if st, err := svc.Settings.Get(ctx, userID); err == nil {
			lang = st.Language
		}
	}
	lang = domain.NormalizeLang(lang)

	report, err := svc.Analytics.MonthlyReport(ctx, userID, year, month)
	if err != nil {
		return err
	}

	for _, line := range statsLines(report.Stats, lang) {
		fmt.Println(line)
	}
	if report.OverBudget > 0 {
		pterm.Warning.Printfln("%d categories over budget", report.OverBudget)
	}
	if len(report.Categories) > 0 {
		if err := renderTable(categoryTable(report, lang)); err != nil {
			return err
		}
	}

	if pdfPath == "" {
		return nil
	}
	doc := export.MonthlyReport{Report: report, Lang: lang, GeneratedAt: time.Now().In(loc)}
	if rr, err := svc.Analytics.Recurring(ctx, userID, 0); err != nil {
		logger.Warn("recurring detection failed", zap.Error(err))
	} else {
		doc.Recurring = rr.Charges
	}
	if err := writePDF(pdfPath, doc); err != nil {
		return err
	}
	pterm.Success.Printfln("PDF written to %s", pdfPath)
	return nil
}

func writePDF(path string, doc export.MonthlyReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteMonthlyPDF(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// defaultPeriod fills a zero year or month from now.
func defaultPeriod(year, month int, now time.Time) (int, int) {
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return year, month
}

// ============================================================
// migrate
// ============================================================

func (a *CLIApp) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back SQLite schema migrations",
		RunE:  a.runMigrate,
	}
	cmd.Flags().Bool("down", false, "Roll back the most recent migration")
	return cmd
}

func (a *CLIApp) runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.DataBackend != config.BackendSQLite {
		return fmt.Errorf("migrate only applies to the sqlite backend (DATA_BACKEND=%s)", cfg.DataBackend)
	}

	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
	}

	if down, _ := cmd.Flags().GetBool("down"); down {
		if err := sqlite.Rollback(cfg.SQLitePath); err != nil {
			return err
		}
		pterm.Success.Printfln("Rolled back one migration on %s", cfg.SQLitePath)
		return nil
	}

	version, err := sqlite.Migrate(cfg.SQLitePath, logger)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("%s is at schema version %d", cfg.SQLitePath, version)
	return nil
}

// ============================================================
// Helpers
// ============================================================

func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, nil, err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level := "warn"
	if verbose {
		level = cfg.LogLevel
	}
	return cfg, observability.NewLogger(level), nil
}

func renderTable(data [][]string) error {
	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Render()
}
