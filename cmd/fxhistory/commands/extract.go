package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"fxhistory-backend/lib/browser"
	"fxhistory-backend/lib/configutil"
	"fxhistory-backend/lib/exporter"
	"fxhistory-backend/lib/scrapers/yahoofinance"
	"fxhistory-backend/lib/timeutil"
	"fxhistory-backend/services/forex"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	Browser browser.Options `json:"browser"`
	// OutputDir is where exported files land, default ".".
	OutputDir string `json:"output_dir"`
	// BaseURL overrides the history page URL template.
	BaseURL string `json:"base_url"`
	// SettleDelaySeconds overrides the wait after the page landmark appears.
	SettleDelaySeconds int `json:"settle_delay_seconds"`
}

var (
	extractFormat   *string
	extractOut      *string
	extractNoAppend *bool
	extractDir      *string
)

func init() {
	extractFormat = extractCmd.Flags().StringP("format", "f", "csv", "Output format: csv, json or both.")
	extractOut = extractCmd.Flags().StringP("out", "o", "", "Output filename, defaults to <PAIR>_historical_data.<ext>.")
	extractNoAppend = extractCmd.Flags().Bool("no-append", false, "Overwrite existing output files instead of appending.")
	extractDir = extractCmd.Flags().StringP("dir", "d", "", "Output directory, overrides the config file.")
	rootCmd.AddCommand(extractCmd)
}

func parseDateArg(name, value string) (time.Time, error) {
	date, ok := timeutil.ParseDateString(value)
	if !ok {
		return time.Time{}, fmt.Errorf("could not parse %s date %q", name, value)
	}
	return date, nil
}

var extractCmd = &cobra.Command{
	Use:   "extract <pair> <start> <end>",
	Short: "Extracts historical close prices for a currency pair between two dates.",
	Long: `Extracts historical close prices for a currency pair. <start> is the
most recent date of the range and <end> the oldest one. Dates accept
"Sep 30, 2024", "September 30, 2024", "2024-09-30", "09/30/2024" and
"30/09/2024".`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseDateArg("start", args[1])
		if err != nil {
			return err
		}
		end, err := parseDateArg("end", args[2])
		if err != nil {
			return err
		}

		cfg, err := configutil.ReadConfig[Config]("fxhistory.json5")
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if cfg.OutputDir == "" {
			cfg.OutputDir = "."
		}
		if *extractDir != "" {
			cfg.OutputDir = *extractDir
		}

		req, err := forex.NewRequest(forex.RequestParams{
			CurrencyPair: args[0],
			StartDate:    start,
			EndDate:      end,
			OutputFile:   *extractOut,
			NoAppend:     *extractNoAppend,
			Format:       *extractFormat,
		})
		if err != nil {
			return err
		}

		launcher, err := browser.NewLauncher(cfg.Browser)
		if err != nil {
			return fmt.Errorf("failed to initialize browser: %w", err)
		}

		service := forex.NewService(forex.ServiceOptions{
			Launcher: launcher,
			Scraper: yahoofinance.NewClient(yahoofinance.Options{
				BaseURL:     cfg.BaseURL,
				SettleDelay: time.Duration(cfg.SettleDelaySeconds) * time.Second,
			}),
			Exporter: exporter.New(exporter.Options{OutputDir: cfg.OutputDir}),
		})

		result := service.Extract(cmd.Context(), req)
		renderResult(result)
		if !result.Success {
			return errors.New(result.ErrorMessage)
		}
		return nil
	},
}

func renderResult(result forex.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Pair", "From", "To", "Points"})
	t.AppendRow(table.Row{
		result.Metadata.CurrencyPair,
		timeutil.FormatDisplay(result.Metadata.RangeEnd, false),
		timeutil.FormatDisplay(result.Metadata.RangeStart, false),
		result.Metadata.TotalPoints,
	})
	t.Render()

	if len(result.Exports) == 0 {
		return
	}
	files := table.NewWriter()
	files.SetOutputMirror(os.Stdout)
	files.SetStyle(table.StyleRounded)
	files.AppendHeader(table.Row{"File", "Format", "Rows", "Bytes", "Status"})
	for _, export := range result.Exports {
		status := "ok"
		if !export.Success {
			status = export.ErrorMessage
		}
		files.AppendRow(table.Row{
			export.Path, export.Format, export.RowsWritten, export.SizeBytes, status,
		})
	}
	files.Render()
}
