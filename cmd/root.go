package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/budgetrecon/internal/blob"
	"github.com/theirongolddev/budgetrecon/internal/classify"
	"github.com/theirongolddev/budgetrecon/internal/config"
	"github.com/theirongolddev/budgetrecon/internal/dashboard"
	"github.com/theirongolddev/budgetrecon/internal/fx"
	"github.com/theirongolddev/budgetrecon/internal/logger"
	"github.com/theirongolddev/budgetrecon/internal/pipeline"
	"github.com/theirongolddev/budgetrecon/internal/source"
	"github.com/theirongolddev/budgetrecon/internal/store"
)

var (
	flagConfig   string
	flagUser     string
	flagLogLevel string
	flagJSON     bool
)

var rootCmd = &cobra.Command{
	Use:           "budgetrecon",
	Short:         "Budget reconciliation and allocation engine",
	Long:          "Reconcile departmental budgets against the expense ledger and classify what remains.",
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "Editor identity (overrides BUDGETRECON_USER)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of tables")
}

func loadConfig() (config.Config, error) {
	if flagConfig != "" {
		return config.LoadFrom(flagConfig)
	}
	return config.Load()
}

// app is the wired dependency graph shared by commands.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	db      *store.DB
	blobs   blob.Store
	dash    *dashboard.Service
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Debug().Err(err).Msg("closing")
		}
	}
}

// userName resolves the editor identity: --user, then env/config, then the
// OS account.
func (a *app) userName() (string, error) {
	if u := strings.TrimSpace(flagUser); u != "" {
		return u, nil
	}
	if u := strings.TrimSpace(config.GetUser(a.cfg)); u != "" {
		return u, nil
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username, nil
	}
	return "", errors.New("no editor identity: pass --user or set BUDGETRECON_USER")
}

func openApp(ctx context.Context, log zerolog.Logger) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	log = log.Level(logger.ParseLevel(level))

	a := &app{cfg: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	a.db, err = store.Open(config.DBPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.closers = append(a.closers, a.db.Close)
	if n, err := a.db.PruneSnapshots(ctx, time.Now().AddDate(0, 0, -7)); err != nil {
		log.Warn().Err(err).Msg("pruning snapshot cache")
	} else if n > 0 {
		log.Debug().Int64("removed", n).Msg("pruned snapshot cache")
	}

	if a.blobs, err = openBlobs(ctx, a); err != nil {
		return nil, err
	}
	ledger, err := openLedger(ctx, a)
	if err != nil {
		return nil, err
	}
	rates, err := openRates(cfg)
	if err != nil {
		return nil, err
	}

	hour, minute, loc, err := config.Rollover(cfg)
	if err != nil {
		return nil, err
	}

	a.dash = &dashboard.Service{
		Files: a.db,
		Blob:  a.blobs,
		Loader: &pipeline.Loader{
			Ledger:   ledger,
			Rates:    rates,
			Cache:    a.db,
			Rollover: pipeline.Rollover{Hour: hour, Minute: minute, Location: loc},
			Log:      log,
		},
		Classify: &classify.Manager{Store: a.db, CheckVersion: true},
		Org:      cfg.General.Organization,
		Log:      log,
	}
	ok = true
	return a, nil
}

func openBlobs(ctx context.Context, a *app) (blob.Store, error) {
	switch strings.ToLower(a.cfg.Blob.Backend) {
	case "", "local":
		return blob.NewLocalStore(config.BlobDir(a.cfg))
	case "gcs":
		if a.cfg.Blob.Bucket == "" {
			return nil, errors.New("blob backend gcs requires [blob] bucket")
		}
		gcs, err := blob.NewGCSStore(ctx, a.cfg.Blob.Bucket)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gcs.Close)
		return gcs, nil
	}
	return nil, fmt.Errorf("unknown blob backend %q", a.cfg.Blob.Backend)
}

func openLedger(ctx context.Context, a *app) (source.Ledger, error) {
	switch strings.ToLower(a.cfg.Ledger.Source) {
	case "", "csv", "blob":
		return source.BlobLedger{Store: a.blobs, Key: a.cfg.Ledger.BlobKey}, nil
	case "bigquery":
		bq, err := source.NewBigQueryLedger(ctx, config.GetProjectID(a.cfg), a.cfg.Ledger.Dataset, a.cfg.Ledger.Table)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, bq.Close)
		return bq, nil
	}
	return nil, fmt.Errorf("unknown ledger source %q", a.cfg.Ledger.Source)
}

func openRates(cfg config.Config) (fx.Provider, error) {
	if len(cfg.FX.StaticRates) > 0 {
		table, err := fx.ParseRateTable(cfg.FX.StaticRates)
		if err != nil {
			return nil, fmt.Errorf("[fx] static_rates: %w", err)
		}
		return fx.Static(table), nil
	}
	return fx.NewClient(config.GetFXBaseURL(cfg), config.FXTimeout(cfg)), nil
}

// withApp opens the app with a console logger for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, logger.New("info"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(logger.WithContext(ctx, a.log), a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
