package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/budgetrecon/internal/cli"
	"github.com/theirongolddev/budgetrecon/internal/model"
)

var (
	flagUploadType     string
	flagUploadYear     int
	flagUploadActivate bool
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage uploaded budget workbooks",
	RunE:  runFilesList,
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a budget workbook (.xlsx or .csv)",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesUpload,
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded budget workbooks",
	RunE:  runFilesList,
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete <file-id>",
	Short: "Delete a workbook you uploaded",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesDelete,
}

var filesActivateCmd = &cobra.Command{
	Use:   "activate <file-id>",
	Short: "Make a workbook the active budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesActivate,
}

var filesActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "Show the active budget",
	RunE:  runFilesActive,
}

var filesDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Clear the active budget",
	RunE:  runFilesDeactivate,
}

func init() {
	filesUploadCmd.Flags().StringVarP(&flagUploadType, "type", "t", "opex", "Budget type: opex or capex")
	filesUploadCmd.Flags().IntVarP(&flagUploadYear, "year", "y", time.Now().Year(), "Fiscal year the budget covers")
	filesUploadCmd.Flags().BoolVar(&flagUploadActivate, "activate", false, "Make the upload the active budget")

	filesCmd.AddCommand(filesUploadCmd, filesListCmd, filesDeleteCmd,
		filesActivateCmd, filesActiveCmd, filesDeactivateCmd)
	rootCmd.AddCommand(filesCmd)
}

func runFilesUpload(cmd *cobra.Command, args []string) error {
	typ, err := model.ParseBudgetType(flagUploadType)
	if err != nil {
		return err
	}
	path := args[0]

	return withApp(cmd, func(ctx context.Context, a *app) error {
		user, err := a.userName()
		if err != nil {
			return err
		}
		//nolint:gosec // path is supplied by the local user
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()

		up, err := a.dash.Upload(ctx, user, filepath.Base(path), typ, flagUploadYear, f)
		if err != nil {
			return err
		}
		fmt.Printf("  Uploaded %s as %s\n", up, up.ID)

		if flagUploadActivate {
			if _, err := a.dash.Activate(ctx, up.ID); err != nil {
				return err
			}
			fmt.Println("  Now the active budget.")
		}
		return nil
	})
}

func runFilesList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		files, err := a.dash.ListFiles(ctx)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(files)
		}
		if len(files) == 0 {
			fmt.Println("\n  No budgets uploaded. Run `budgetrecon files upload <path>`.")
			return nil
		}

		activeID := ""
		if active, err := a.dash.Active(ctx); err == nil {
			activeID = active.ID
		} else if !errors.Is(err, model.ErrNoActiveBudget) {
			return err
		}

		rows := make([][]string, 0, len(files))
		for _, f := range files {
			mark := ""
			if f.ID == activeID {
				mark = "*"
			}
			rows = append(rows, []string{
				mark, f.ID, cli.Truncate(f.Name, 36), string(f.Type),
				fmt.Sprintf("%d", f.BudgetYear), f.Uploader, cli.FormatDate(f.UploadedAt),
			})
		}

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    "Uploaded budgets (* = active)",
			Headers:  []string{"", "ID", "Name", "Type", "Year", "Uploader", "Uploaded"},
			Rows:     rows,
			LeftCols: 7,
		}))
		fmt.Println()
		return nil
	})
}

func runFilesDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		user, err := a.userName()
		if err != nil {
			return err
		}
		f, err := a.dash.DeleteFile(ctx, user, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("  Deleted %s\n", f)
		return nil
	})
}

func runFilesActivate(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		f, err := a.dash.Activate(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("  Active budget: %s\n", f)
		return nil
	})
}

func runFilesActive(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		f, err := a.dash.Active(ctx)
		if errors.Is(err, model.ErrNoActiveBudget) {
			fmt.Println("  No active budget. Run `budgetrecon files activate <file-id>`.")
			return nil
		}
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(f)
		}
		fmt.Printf("  Active budget: %s\n", f)
		fmt.Printf("    ID:       %s\n", f.ID)
		fmt.Printf("    Uploader: %s on %s\n", f.Uploader, cli.FormatDate(f.UploadedAt))
		return nil
	})
}

func runFilesDeactivate(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.dash.Deactivate(ctx); err != nil {
			return err
		}
		fmt.Println("  Active budget cleared.")
		return nil
	})
}
