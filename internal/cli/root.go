// Package cli provides the sheetpulse command-line interface: inspecting a
// workbook, rendering a single chart and exporting a slide deck without
// running the server.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sheetpulse/internal/config"
	"sheetpulse/internal/infrastructure"
	"sheetpulse/internal/services"
	"sheetpulse/pkg/contracts"
	"sheetpulse/pkg/contracts/domain"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel    string
	headerStart int
	width       int
	height      int

	logger *slog.Logger
	closer io.Closer
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "sheetpulse",
		Short: "SheetPulse - spreadsheet time-series charts",
		Long: `SheetPulse reads workbooks whose sheets carry a multi-row header and a
date column, and turns any column into a time-series or seasonal chart.

The commands here work on a workbook file directly; run the web binary
for the interactive dashboard.`,
		Version: contracts.GetFullVersionString(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, closer, err := infrastructure.NewLogger(config.LoggingConfig{
				Level:  opts.logLevel,
				Output: "console",
			}, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.logger, opts.closer = logger, closer
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if opts.closer != nil {
				return opts.closer.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().IntVar(&opts.headerStart, "header-start", 1, "0-based row where the header block starts")
	rootCmd.PersistentFlags().IntVar(&opts.width, "width", 1000, "Image width in pixels")
	rootCmd.PersistentFlags().IntVar(&opts.height, "height", 800, "Image height in pixels")

	rootCmd.AddCommand(newInspectCommand(opts))
	rootCmd.AddCommand(newChartCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// openWorkbook loads path into a dashboard service configured from the
// persistent flags.
func (o *globalOptions) openWorkbook(ctx context.Context, path string) (*services.DashboardService, error) {
	dashOpts := services.DefaultDashboardOptions()
	dashOpts.Layout.HeaderStart = o.headerStart
	dashOpts.RasterWidth = o.width
	dashOpts.RasterHeight = o.height
	dashOpts.HTML.Width = fmt.Sprintf("%dpx", o.width)
	dashOpts.HTML.Height = fmt.Sprintf("%dpx", o.height)

	svc := services.NewDashboardService(dashOpts, nil, o.logger)
	if _, err := svc.Load(ctx, path); err != nil {
		return nil, fmt.Errorf("failed to load workbook %s: %w", path, err)
	}
	return svc, nil
}

// chartFlags are the chart selection flags of chart and export.
type chartFlags struct {
	sheet  string
	kind   string
	window string
}

func (f *chartFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Sheet name")
	cmd.Flags().StringVar(&f.kind, "kind", "timeseries", "Chart kind (timeseries|seasonal)")
	cmd.Flags().StringVar(&f.window, "window", "5y", "Seasonal year window (5y|8y|all)")
	_ = cmd.MarkFlagRequired("sheet")

	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(domain.ChartTimeSeries), string(domain.ChartSeasonal)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("window", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(domain.YearWindow5), string(domain.YearWindow8), string(domain.YearWindowAll)}, cobra.ShellCompDirectiveNoFileComp
	})
}

func (f *chartFlags) parse() (domain.ChartKind, domain.YearWindow, error) {
	kind, err := domain.ParseChartKind(f.kind)
	if err != nil {
		return "", "", fmt.Errorf("invalid --kind: %w", err)
	}
	window, err := domain.ParseYearWindow(f.window)
	if err != nil {
		return "", "", fmt.Errorf("invalid --window: %w", err)
	}
	return kind, window, nil
}
