package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sheetpulse/internal/services"
)

func newChartCommand(opts *globalOptions) *cobra.Command {
	var (
		flags  chartFlags
		column string
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "chart <workbook>",
		Short: "Render one column as a chart file",
		Long: `Render one column as an interactive HTML page, a PNG image, the chart
data as CSV or the chart spec as JSON.

Use -o - to write to stdout.`,
		Example: `  sheetpulse chart prices.xlsx --sheet 价格 --column 华东现货价 -o price.html
  sheetpulse chart prices.xlsx --sheet 价格 --column 主力月均价 --kind seasonal --window all --format png -o season.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, window, err := flags.parse()
			if err != nil {
				return err
			}
			format = strings.ToLower(format)

			svc, err := opts.openWorkbook(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var body []byte
			if format == services.FormatJSON {
				spec, err := svc.ChartSpec(cmd.Context(), flags.sheet, column, kind, window)
				if err != nil {
					return err
				}
				if body, err = json.MarshalIndent(spec, "", "  "); err != nil {
					return err
				}
			} else {
				chart, err := svc.RenderChart(cmd.Context(), flags.sheet, column, kind, window, format)
				if err != nil {
					return err
				}
				body = chart.Body
			}

			if err := writeOutput(cmd.OutOrStdout(), output, body); err != nil {
				return err
			}
			if output != "-" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", output, len(body))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&column, "column", "", "Column identifier")
	cmd.Flags().StringVar(&format, "format", services.FormatHTML, "Output format (html|png|csv|json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("output")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{services.FormatHTML, services.FormatPNG, services.FormatCSV, services.FormatJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func writeOutput(stdout io.Writer, path string, body []byte) error {
	if path == "-" {
		_, err := stdout.Write(body)
		return err
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
