package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sheetpulse/internal/config"
	"sheetpulse/internal/exporter"
	"sheetpulse/internal/services"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var (
		flags      chartFlags
		columns    []string
		title      string
		renderer   string
		chromePath string
		wait       time.Duration
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export <workbook>",
		Short: "Export charts of one sheet to a PowerPoint deck",
		Long: `Export one slide per --column. Columns that cannot be charted are skipped
and listed; the deck holds the rest.

The chrome renderer screenshots the interactive chart in headless Chrome;
the static renderer draws a PNG without a browser.`,
		Example: `  sheetpulse export prices.xlsx --sheet 价格 --column 华东现货价 --column 主力月均价 -o weekly.pptx
  sheetpulse export prices.xlsx --sheet 价格 --column 主力月均价 --kind seasonal --renderer static -o season.pptx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, window, err := flags.parse()
			if err != nil {
				return err
			}
			images, err := opts.imageRenderer(renderer, chromePath, wait)
			if err != nil {
				return err
			}
			if !strings.HasSuffix(strings.ToLower(output), config.DeckExtension) {
				output += config.DeckExtension
			}

			svc, err := opts.openWorkbook(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			items := make([]exporter.Item, 0, len(columns))
			for _, column := range columns {
				items = append(items, exporter.Item{Sheet: flags.sheet, Column: column, Kind: kind, Window: window})
			}
			if title == "" {
				title = services.DefaultDeckTitle
			}

			result, err := exporter.NewPipeline(svc, images, "", opts.logger).Run(cmd.Context(), title, items, output)
			if err != nil {
				return err
			}
			printExportResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringArrayVar(&columns, "column", nil, "Column identifier, repeat for more slides")
	cmd.Flags().StringVar(&title, "title", "", "Deck title")
	cmd.Flags().StringVar(&renderer, "renderer", config.RendererChrome, "Image renderer (chrome|static)")
	cmd.Flags().StringVar(&chromePath, "chrome-path", "", "Chrome executable, empty to search PATH")
	cmd.Flags().DurationVar(&wait, "wait", 2*time.Second, "Delay before each screenshot")
	cmd.Flags().StringVarP(&output, "output", "o", "deck"+config.DeckExtension, "Output deck")
	_ = cmd.MarkFlagRequired("column")

	_ = cmd.RegisterFlagCompletionFunc("renderer", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.RendererChrome, config.RendererStatic}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (o *globalOptions) imageRenderer(name, chromePath string, wait time.Duration) (exporter.ImageRenderer, error) {
	switch strings.ToLower(name) {
	case config.RendererStatic:
		return exporter.NewStaticRenderer(o.width, o.height), nil
	case config.RendererChrome:
		chrome := exporter.DefaultChromeOptions()
		chrome.Width, chrome.Height = o.width, o.height
		chrome.ExecPath = chromePath
		chrome.Wait = wait
		return exporter.NewChromeRenderer(chrome, o.logger), nil
	}
	return nil, fmt.Errorf("unknown renderer %q", name)
}

func printExportResult(w io.Writer, result *exporter.Result) {
	_, _ = fmt.Fprintf(w, "Wrote %s: %d slides in %s\n",
		result.Path, len(result.Succeeded), result.Duration.Round(time.Millisecond))
	if len(result.Failed) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Skipped")
	t.AppendHeader(table.Row{"Sheet", "Column", "Kind", "Error"})
	for _, f := range result.Failed {
		t.AppendRow(table.Row{f.Item.Sheet, f.Item.Column, f.Item.Kind, f.Err.Error()})
	}
	t.Render()
}
