package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aouyang1/go-pcrforecast"
	"github.com/aouyang1/go-pcrforecast/source"
	"github.com/aouyang1/go-pcrforecast/timedataset"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type runFlags struct {
	horizon int
	format  string
	chart   string
	tail    int
	refresh bool
}

func runCmd(a *app) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download the daily counts, forecast the positivity rate and plot it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("horizon") {
				cfg.Forecast.Horizon = flags.horizon
			}
			if cmd.Flags().Changed("format") {
				cfg.Output.Format = flags.format
			}
			if cmd.Flags().Changed("chart") {
				cfg.Output.Chart = flags.chart
			}
			if cmd.Flags().Changed("tail") {
				cfg.Output.Tail = flags.tail
			}
			if cmd.Flags().Changed("refresh") {
				cfg.Source.Refresh = flags.refresh
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			tested, positive, err := loadCounts(cmd.Context(), a)
			if err != nil {
				return err
			}

			f, err := pcrforecast.New(cfg.ForecastOptions())
			if err != nil {
				return err
			}
			f.SetLogger(a.logger)
			if err := f.Fit(tested, positive); err != nil {
				return fmt.Errorf("unable to fit forecaster, %w", err)
			}
			res, err := f.Predict()
			if err != nil {
				return fmt.Errorf("unable to predict, %w", err)
			}

			if cfg.Output.Chart != "" {
				if err := writeChart(cfg.Output.Chart, res); err != nil {
					return err
				}
				a.logger.Info().Str("path", cfg.Output.Chart).Msg("wrote forecast chart")
			}

			out := cmd.OutOrStdout()
			if cfg.Output.Format == "json" {
				return writeResultsJSON(out, res)
			}
			m, err := f.Model()
			if err != nil {
				return err
			}
			if err := m.TablePrint(out); err != nil {
				return err
			}
			return res.TablePrint(out, "", "  ", cfg.Output.Tail)
		},
	}
	cmd.Flags().IntVar(&flags.horizon, "horizon", 0, "number of days to forecast")
	cmd.Flags().StringVar(&flags.format, "format", "", "output format, table or json")
	cmd.Flags().StringVar(&flags.chart, "chart", "", "html chart path, empty to skip")
	cmd.Flags().IntVar(&flags.tail, "tail", 0, "number of trailing actual days to print, -1 for all")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "download even when the csv is cached")
	return cmd
}

func loadCounts(ctx context.Context, a *app) ([]timedataset.DatedCount, []timedataset.DatedCount, error) {
	fetcher := source.NewFetcher(a.cfg.FetcherOptions())
	fetcher.SetLogger(a.logger)

	testedSrc, positiveSrc := a.cfg.Sources()
	tested, err := fetcher.Load(ctx, testedSrc)
	if err != nil {
		return nil, nil, err
	}
	positive, err := fetcher.Load(ctx, positiveSrc)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug().
		Int("tested", len(tested)).
		Int("positive", len(positive)).
		Msg("loaded daily counts")
	return tested, positive, nil
}

func writeChart(path string, res *pcrforecast.Results) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create chart file, %w", err)
	}
	if err := pcrforecast.PlotForecast(file, res, nil); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeResultsJSON(w io.Writer, res *pcrforecast.Results) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode results, %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
