package main

import (
	"fmt"

	"github.com/aouyang1/go-pcrforecast/source"
	"github.com/spf13/cobra"
)

func fetchCmd(a *app) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the daily count csv files into the cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			opt := a.cfg.FetcherOptions()
			if cmd.Flags().Changed("refresh") {
				opt.Refresh = refresh
			}
			fetcher := source.NewFetcher(opt)
			fetcher.SetLogger(a.logger)

			tested, positive := a.cfg.Sources()
			for _, src := range []source.Source{tested, positive} {
				path, err := fetcher.Fetch(cmd.Context(), src)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", src.Name, path); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "download even when the csv is cached")
	return cmd
}
