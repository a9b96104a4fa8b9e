// Package cmd implements the budgetrecon CLI commands.
package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/budgetrecon/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := config.ConfigPath()
	if flagConfig != "" {
		path = flagConfig
	}
	fmt.Printf("  Config file: %s\n", path)
	if flagConfig != "" || config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Organization: %s\n", cfg.General.Organization)
	fmt.Printf("    Timezone:     %s\n", cfg.General.Timezone)
	fmt.Printf("    Rollover:     %s\n", cfg.General.RolloverTime)
	if u := config.GetUser(cfg); u != "" {
		fmt.Printf("    Editor:       %s\n", u)
	}
	fmt.Println()

	fmt.Println("  [Storage]")
	fmt.Printf("    Database: %s\n", config.DBPath(cfg))
	fmt.Println()

	fmt.Println("  [Blob]")
	fmt.Printf("    Backend: %s\n", cfg.Blob.Backend)
	if cfg.Blob.Backend == "gcs" {
		fmt.Printf("    Bucket:  %s\n", cfg.Blob.Bucket)
	} else {
		fmt.Printf("    Dir:     %s\n", config.BlobDir(cfg))
	}
	fmt.Println()

	fmt.Println("  [Ledger]")
	fmt.Printf("    Source: %s\n", cfg.Ledger.Source)
	if cfg.Ledger.Source == "bigquery" {
		fmt.Printf("    Table:  %s.%s.%s\n", config.GetProjectID(cfg), cfg.Ledger.Dataset, cfg.Ledger.Table)
	} else {
		fmt.Printf("    Key:    %s\n", cfg.Ledger.BlobKey)
	}
	fmt.Println()

	fmt.Println("  [FX]")
	if len(cfg.FX.StaticRates) > 0 {
		codes := make([]string, 0, len(cfg.FX.StaticRates))
		for code := range cfg.FX.StaticRates {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		fmt.Println("    Static rates (per USD):")
		for _, code := range codes {
			fmt.Printf("      %s = %s\n", code, cfg.FX.StaticRates[code])
		}
	} else {
		fmt.Printf("    Rate service: %s (timeout %s)\n", config.GetFXBaseURL(cfg), config.FXTimeout(cfg))
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Addr: %s\n", cfg.Server.Addr)
	fmt.Println()

	fmt.Println("  Run `budgetrecon setup` to reconfigure.")
	return nil
}
