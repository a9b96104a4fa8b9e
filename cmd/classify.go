package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/budgetrecon/internal/classify"
	"github.com/theirongolddev/budgetrecon/internal/cli"
	"github.com/theirongolddev/budgetrecon/internal/model"
)

var (
	flagAllocLabel       string
	flagAllocInteractive bool
	flagUpdateAmount     string
	flagUpdateStatus     string
	flagClearYes         bool
	flagClearLine        []string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "View and edit budget line classifications",
	RunE:  runClassifyList,
}

var classifyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show each line's allocations and remaining balance",
	RunE:  runClassifyList,
}

var classifySetCmd = &cobra.Command{
	Use:   "set <category> <subcategory> <status>",
	Short: "Classify a whole budget line under one status",
	Args:  cobra.ExactArgs(3),
	RunE:  runClassifySet,
}

var classifyAllocateCmd = &cobra.Command{
	Use:   "allocate [<category> <subcategory> <amount> <status>]",
	Short: "Carve an amount out of a budget line",
	Args: func(cmd *cobra.Command, args []string) error {
		if flagAllocInteractive {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(4)(cmd, args)
	},
	RunE: runClassifyAllocate,
}

var classifyUpdateCmd = &cobra.Command{
	Use:   "update <allocation-id>",
	Short: "Change an allocation's amount or status",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassifyUpdate,
}

var classifyRemoveCmd = &cobra.Command{
	Use:   "remove <allocation-id>",
	Short: "Remove an allocation",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassifyRemove,
}

var classifyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete saved classifications for the active budget",
	RunE:  runClassifyClear,
}

func init() {
	classifyAllocateCmd.Flags().StringVar(&flagAllocLabel, "label", "", "Allocation label")
	classifyAllocateCmd.Flags().BoolVarP(&flagAllocInteractive, "interactive", "i", false, "Pick line, amount and status in a form")
	classifyUpdateCmd.Flags().StringVar(&flagUpdateAmount, "amount", "", "New allocated amount")
	classifyUpdateCmd.Flags().StringVar(&flagUpdateStatus, "status", "", "New status")
	classifyClearCmd.Flags().BoolVarP(&flagClearYes, "yes", "y", false, "Skip confirmation")
	classifyClearCmd.Flags().StringSliceVar(&flagClearLine, "line", nil, "Only clear one line: --line <category>,<subcategory>")

	classifyCmd.AddCommand(classifyListCmd, classifySetCmd, classifyAllocateCmd,
		classifyUpdateCmd, classifyRemoveCmd, classifyClearCmd)
	rootCmd.AddCommand(classifyCmd)
}

// parseStatusArg matches an assignable status case-insensitively.
func parseStatusArg(s string) (model.StatusCategory, error) {
	if st, ok := model.ParseStatus(s); ok {
		return st, nil
	}
	for _, st := range model.AssignableStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	names := make([]string, len(model.AssignableStatuses))
	for i, st := range model.AssignableStatuses {
		names[i] = fmt.Sprintf("%q", st)
	}
	return "", fmt.Errorf("unknown status %q (one of %s)", s, strings.Join(names, ", "))
}

func parseAmountArg(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// resolveAllocation expands a unique allocation id prefix, as printed by list.
func resolveAllocation(ed *classify.Editor, prefix string) (string, error) {
	var match string
	for _, e := range ed.Entries() {
		if e.AllocationID == "" || !strings.HasPrefix(e.AllocationID, prefix) {
			continue
		}
		if match != "" && match != e.AllocationID {
			return "", fmt.Errorf("allocation id %q is ambiguous", prefix)
		}
		match = e.AllocationID
	}
	if match == "" {
		return prefix, nil
	}
	return match, nil
}

// editAndSave opens an editor for the active budget, applies edit and saves.
func editAndSave(cmd *cobra.Command, edit func(ed *classify.Editor) error) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		user, err := a.userName()
		if err != nil {
			return err
		}
		ed, sess, err := a.dash.Editor(ctx, user)
		if err != nil {
			return err
		}
		if err := edit(ed); err != nil {
			return err
		}
		if len(ed.Entries()) == 0 {
			if err := a.dash.ClearClassifications(ctx, user); err != nil {
				return err
			}
			fmt.Println("  No classifications left; saved set cleared.")
			return nil
		}
		res, err := a.dash.SaveEditor(ctx, sess, ed)
		printRejections(res.Rejected)
		if err != nil {
			return err
		}
		fmt.Printf("  Saved %d entries (version %d)\n", res.Saved, res.Version)
		return nil
	})
}

func printRejections(rejected []classify.Rejection) {
	for _, r := range rejected {
		fmt.Printf("  Skipped %s / %s: %s\n", r.Entry.Category, r.Entry.SubCategory, r.Reason)
	}
}

func runClassifyList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		user, err := a.userName()
		if err != nil {
			return err
		}
		ed, _, err := a.dash.Editor(ctx, user)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(map[string]any{"version": ed.Version(), "entries": ed.Entries()})
		}

		var rows [][]string
		for _, l := range ed.Lines() {
			remaining, err := ed.Remaining(l.Category, l.SubCategory)
			if err != nil {
				return err
			}
			rows = append(rows, []string{
				l.Category, cli.Truncate(l.SubCategory, 32), "", "",
				cli.FormatMoney(l.Total), cli.FormatMoney(remaining),
			})
			for _, e := range ed.LineEntries(l.Category, l.SubCategory) {
				id, label := "(whole line)", e.Label
				if e.AllocationID != "" {
					id = e.AllocationID[:min(8, len(e.AllocationID))]
				}
				rows = append(rows, []string{
					"  " + id, cli.Truncate(label, 32), string(e.Status),
					cli.FormatMoney(e.EffectiveAmount()), "", "",
				})
			}
		}

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    fmt.Sprintf("Classifications (version %d)", ed.Version()),
			Headers:  []string{"Line / Allocation", "Sub-Category / Label", "Status", "Allocated", "Total", "Remaining"},
			Rows:     rows,
			LeftCols: 3,
		}))
		fmt.Println()
		return nil
	})
}

func runClassifySet(cmd *cobra.Command, args []string) error {
	status, err := parseStatusArg(args[2])
	if err != nil {
		return err
	}
	return editAndSave(cmd, func(ed *classify.Editor) error {
		return ed.Classify(args[0], args[1], status)
	})
}

func runClassifyAllocate(cmd *cobra.Command, args []string) error {
	if flagAllocInteractive {
		return editAndSave(cmd, allocateInteractive)
	}
	amount, err := parseAmountArg(args[2])
	if err != nil {
		return err
	}
	status, err := parseStatusArg(args[3])
	if err != nil {
		return err
	}
	return editAndSave(cmd, func(ed *classify.Editor) error {
		e, err := ed.AddAllocation(args[0], args[1], flagAllocLabel, amount, status)
		if err != nil {
			return err
		}
		fmt.Printf("  Allocated %s to %q (%s)\n", cli.FormatMoney(e.Allocated), e.Status, e.AllocationID)
		return nil
	})
}

func allocateInteractive(ed *classify.Editor) error {
	lines := ed.Lines()
	if len(lines) == 0 {
		return errors.New("the active budget has no lines")
	}

	lineOpts := make([]huh.Option[int], 0, len(lines))
	for i, l := range lines {
		remaining, _ := ed.Remaining(l.Category, l.SubCategory)
		label := fmt.Sprintf("%s / %s  (%s left)", l.Category, l.SubCategory, cli.FormatMoney(remaining))
		lineOpts = append(lineOpts, huh.NewOption(label, i))
	}
	statusOpts := make([]huh.Option[model.StatusCategory], 0, len(model.AssignableStatuses))
	for _, st := range model.AssignableStatuses {
		statusOpts = append(statusOpts, huh.NewOption(string(st), st))
	}

	var (
		lineIdx   int
		amountStr string
		status    = model.StatusToBeSpent
		label     = flagAllocLabel
	)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Budget line").
				Options(lineOpts...).
				Value(&lineIdx),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Amount (USD)").
				Value(&amountStr).
				Validate(func(s string) error {
					d, err := parseAmountArg(s)
					if err != nil {
						return err
					}
					l := lines[lineIdx]
					remaining, err := ed.Remaining(l.Category, l.SubCategory)
					if err != nil {
						return err
					}
					if !d.IsPositive() {
						return model.ErrInvalidAmount
					}
					if d.GreaterThan(remaining) {
						return fmt.Errorf("only %s remains on this line", cli.FormatMoney(remaining))
					}
					return nil
				}),
			huh.NewSelect[model.StatusCategory]().
				Title("Status").
				Options(statusOpts...).
				Value(&status),
			huh.NewInput().
				Title("Label").
				Value(&label),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.New("allocation canceled")
		}
		return err
	}

	amount, err := parseAmountArg(amountStr)
	if err != nil {
		return err
	}
	l := lines[lineIdx]
	e, err := ed.AddAllocation(l.Category, l.SubCategory, strings.TrimSpace(label), amount, status)
	if err != nil {
		return err
	}
	fmt.Printf("  Allocated %s to %q on %s / %s\n", cli.FormatMoney(e.Allocated), e.Status, l.Category, l.SubCategory)
	return nil
}

func runClassifyUpdate(cmd *cobra.Command, args []string) error {
	if flagUpdateAmount == "" && flagUpdateStatus == "" {
		return errors.New("nothing to update: pass --amount and/or --status")
	}
	return editAndSave(cmd, func(ed *classify.Editor) error {
		id, err := resolveAllocation(ed, args[0])
		if err != nil {
			return err
		}
		if flagUpdateAmount != "" {
			amount, err := parseAmountArg(flagUpdateAmount)
			if err != nil {
				return err
			}
			if err := ed.UpdateAmount(id, amount); err != nil {
				return err
			}
		}
		if flagUpdateStatus != "" {
			status, err := parseStatusArg(flagUpdateStatus)
			if err != nil {
				return err
			}
			if err := ed.SetStatus(id, status); err != nil {
				return err
			}
		}
		return nil
	})
}

func runClassifyRemove(cmd *cobra.Command, args []string) error {
	return editAndSave(cmd, func(ed *classify.Editor) error {
		id, err := resolveAllocation(ed, args[0])
		if err != nil {
			return err
		}
		return ed.Remove(id)
	})
}

func runClassifyClear(cmd *cobra.Command, _ []string) error {
	if len(flagClearLine) > 0 {
		if len(flagClearLine) != 2 {
			return errors.New("--line takes <category>,<subcategory>")
		}
		return editAndSave(cmd, func(ed *classify.Editor) error {
			return ed.ClearLine(flagClearLine[0], flagClearLine[1])
		})
	}

	if !flagClearYes {
		confirmed := false
		err := huh.NewConfirm().
			Title("Delete every saved classification for the active budget?").
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !confirmed {
			fmt.Println("  Nothing deleted.")
			return nil
		}
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		user, err := a.userName()
		if err != nil {
			return err
		}
		if err := a.dash.ClearClassifications(ctx, user); err != nil {
			return err
		}
		fmt.Println("  Classifications cleared.")
		return nil
	})
}
