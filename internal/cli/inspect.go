package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sheetpulse/internal/services"
)

func newInspectCommand(opts *globalOptions) *cobra.Command {
	var sheet string

	cmd := &cobra.Command{
		Use:   "inspect <workbook>",
		Short: "List the sheets, labels and columns of a workbook",
		Example: `  # Every sheet
  sheetpulse inspect prices.xlsx

  # One sheet
  sheetpulse inspect prices.xlsx --sheet 价格`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.openWorkbook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return runInspect(cmd.Context(), cmd.OutOrStdout(), svc, sheet)
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "Only show this sheet")

	return cmd
}

func runInspect(ctx context.Context, w io.Writer, svc *services.DashboardService, only string) error {
	sheets, err := svc.SheetNames(ctx)
	if err != nil {
		return err
	}
	if only != "" {
		sheets = []string{only}
	}

	for _, name := range sheets {
		if err := renderSheet(ctx, w, svc, name); err != nil {
			return err
		}
	}
	return nil
}

// renderSheet prints one row per column, walking the label hierarchy in
// workbook order.
func renderSheet(ctx context.Context, w io.Writer, svc *services.DashboardService, sheet string) error {
	primaries, err := svc.PrimaryLabels(ctx, sheet)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(sheet)
	t.AppendHeader(table.Row{"Primary", "Secondary", "Column", "Frequency", "Description"})

	count := 0
	for _, primary := range primaries {
		secondaries, err := svc.SecondaryLabels(ctx, sheet, primary)
		if err != nil {
			return err
		}
		for _, secondary := range secondaries {
			cols, err := svc.Columns(ctx, sheet, primary, secondary)
			if err != nil {
				return err
			}
			for _, c := range cols {
				t.AppendRow(table.Row{primary, secondary, c.ID, c.Frequency, c.Description})
				count++
			}
		}
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d columns)\n\n", count)
	return nil
}
