package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/budgetrecon/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := loadConfig()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to budgetrecon!").
				Description("Budgets are reconciled against the expense ledger for one organization."),
			huh.NewInput().
				Title("Organization").
				Description("Ledger Company value to match exactly").
				Value(&cfg.General.Organization).
				Validate(notBlank("organization")),
			huh.NewInput().
				Title("Your name").
				Description("Recorded on classification edits and uploads").
				Value(&cfg.General.User),
			huh.NewInput().
				Title("Timezone").
				Value(&cfg.General.Timezone).
				Validate(func(s string) error {
					_, err := time.LoadLocation(s)
					return err
				}),
			huh.NewInput().
				Title("Daily cache rollover (HH:MM)").
				Value(&cfg.General.RolloverTime).
				Validate(func(s string) error {
					_, err := time.Parse("15:04", strings.TrimSpace(s))
					return err
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where are workbooks stored?").
				Options(
					huh.NewOption("Local directory", "local"),
					huh.NewOption("Google Cloud Storage", "gcs"),
				).
				Value(&cfg.Blob.Backend),
			huh.NewSelect[string]().
				Title("Where does the expense ledger come from?").
				Options(
					huh.NewOption("CSV export in the blob store", "csv"),
					huh.NewOption("BigQuery table", "bigquery"),
				).
				Value(&cfg.Ledger.Source),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("GCS bucket").
				Value(&cfg.Blob.Bucket).
				Validate(notBlank("bucket")),
		).WithHideFunc(func() bool { return cfg.Blob.Backend != "gcs" }),
		huh.NewGroup(
			huh.NewInput().
				Title("Ledger export key").
				Value(&cfg.Ledger.BlobKey).
				Validate(notBlank("ledger key")),
		).WithHideFunc(func() bool { return cfg.Ledger.Source != "csv" }),
		huh.NewGroup(
			huh.NewInput().
				Title("BigQuery project").
				Description("Blank uses GOOGLE_CLOUD_PROJECT").
				Value(&cfg.Ledger.ProjectID),
			huh.NewInput().
				Title("Dataset").
				Value(&cfg.Ledger.Dataset).
				Validate(notBlank("dataset")),
			huh.NewInput().
				Title("Table").
				Value(&cfg.Ledger.Table).
				Validate(notBlank("table")),
		).WithHideFunc(func() bool { return cfg.Ledger.Source != "bigquery" }),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled; nothing saved.")
			return nil
		}
		return err
	}

	path := config.ConfigPath()
	save := config.Save
	if flagConfig != "" {
		path = flagConfig
		save = func(c config.Config) error { return config.SaveTo(path, c) }
	}
	if err := save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `budgetrecon setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
