package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/market/data"
	"github.com/spf13/cobra"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage daily bar histories",
	Long: `List, check, import, export and convert the stock histories the game
plays from. The source is taken from data.source in the configuration.

Examples:
  papertrader data list
  papertrader data check --workers 8
  papertrader data import --csv 600519.csv --code 600519 --name 贵州茅台 --market sh
  papertrader data export 600519 -o 600519.csv
  papertrader data convert --to parquet --out ./data-parquet`,
}

var dataListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the instruments of the data source",
	Args:  cobra.NoArgs,
	RunE:  runDataList,
}

var dataCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load every history and report which are playable",
	Args:  cobra.NoArgs,
	RunE:  runDataCheck,
}

var dataImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a CSV of daily bars into the data directory",
	Args:  cobra.NoArgs,
	RunE:  runDataImport,
}

var dataExportCmd = &cobra.Command{
	Use:   "export <code>",
	Short: "Write the history of one instrument as CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runDataExport,
}

var dataConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Copy every history into another storage format",
	Args:  cobra.NoArgs,
	RunE:  runDataConvert,
}

var (
	dataWorkers int

	importCSV    string
	importCode   string
	importName   string
	importMarket string

	exportOutput string

	convertTo  string
	convertOut string
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataListCmd)
	dataCmd.AddCommand(dataCheckCmd)
	dataCmd.AddCommand(dataImportCmd)
	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataConvertCmd)

	dataCmd.PersistentFlags().IntVarP(&dataWorkers, "workers", "w", 4, "concurrent loads")

	dataImportCmd.Flags().StringVar(&importCSV, "csv", "", "CSV file of time,open,high,low,close,volume (required)")
	dataImportCmd.Flags().StringVar(&importCode, "code", "", "stock code (required)")
	dataImportCmd.Flags().StringVar(&importName, "name", "", "display name")
	dataImportCmd.Flags().StringVar(&importMarket, "market", "", "sh or sz")
	dataImportCmd.MarkFlagRequired("csv")
	dataImportCmd.MarkFlagRequired("code")

	dataExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")

	dataConvertCmd.Flags().StringVar(&convertTo, "to", "parquet", "target format: parquet or dir")
	dataConvertCmd.Flags().StringVar(&convertOut, "out", "", "target directory (required)")
	dataConvertCmd.MarkFlagRequired("out")
}

func runDataList(cmd *cobra.Command, args []string) error {
	c, err := catalog()
	if err != nil {
		return err
	}
	list, err := c.Instruments(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, i := range list {
		fmt.Fprintf(out, "%-8s %-4s %s\n", i.Code, i.Market, i.Name)
	}
	fmt.Fprintf(out, "%d instruments\n", len(list))
	return nil
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	c, err := catalog()
	if err != nil {
		return err
	}
	results, err := data.Check(cmd.Context(), c, cfg.Session.Duration, dataWorkers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	playable := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(out, "✗ %-8s %v\n", r.Instrument.Code, r.Err)
		case r.Playable:
			playable++
			fmt.Fprintf(out, "✓ %-8s %5d bars %s .. %s\n", r.Instrument.Code, r.Bars,
				r.First.Format(market.DateLayout), r.Last.Format(market.DateLayout))
		default:
			fmt.Fprintf(out, "- %-8s %5d bars, need %d\n", r.Instrument.Code, r.Bars, cfg.Session.Duration)
		}
	}
	fmt.Fprintf(out, "%d of %d playable\n", playable, len(results))
	return nil
}

func runDataImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(importCSV)
	if err != nil {
		return err
	}
	defer f.Close()

	bars, err := data.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", importCSV, err)
	}
	name := importName
	if name == "" {
		name = importCode
	}
	inst := market.Instrument{Code: importCode, Name: name, Market: importMarket}

	dir := data.NewDirCatalog(cfg.Data.Dir)
	if err := dir.Save(cmd.Context(), data.NewStockFile(inst, bars, time.Now())); err != nil {
		return err
	}
	log.Info("imported", "code", inst.Code, "bars", len(bars), "dir", cfg.Data.Dir)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d bars of %s into %s\n", len(bars), inst, cfg.Data.Dir)
	return nil
}

func runDataExport(cmd *cobra.Command, args []string) error {
	c, err := catalog()
	if err != nil {
		return err
	}
	bars, err := c.Bars(cmd.Context(), args[0], time.Time{}, time.Time{})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return data.WriteCSV(w, bars)
}

type barWriter func(ctx context.Context, inst market.Instrument, bars []market.Bar) error

func runDataConvert(cmd *cobra.Command, args []string) error {
	src, err := catalog()
	if err != nil {
		return err
	}

	var write barWriter
	switch convertTo {
	case "parquet":
		write = data.NewParquetStore(convertOut).Write
	case "dir":
		dst := data.NewDirCatalog(convertOut)
		write = func(ctx context.Context, inst market.Instrument, bars []market.Bar) error {
			return dst.Save(ctx, data.NewStockFile(inst, bars, time.Now()))
		}
	default:
		return fmt.Errorf("unknown target %q", convertTo)
	}

	ctx := cmd.Context()
	list, err := src.Instruments(ctx)
	if err != nil {
		return err
	}

	// DirCatalog.Save rewrites the shared stock list, so dir targets go
	// one at a time.
	limit := max(dataWorkers, 1)
	if convertTo == "dir" {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, inst := range list {
		g.Go(func() error {
			bars, err := src.Bars(gctx, inst.Code, time.Time{}, time.Time{})
			if err != nil {
				log.Warn("skip", "code", inst.Code, "err", err)
				return nil
			}
			if err := write(gctx, inst, bars); err != nil {
				return fmt.Errorf("%s: %w", inst.Code, err)
			}
			log.Debug("converted", "code", inst.Code, "bars", len(bars))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Converted %d instruments to %s in %s\n", len(list), convertTo, convertOut)
	return nil
}
