package main

import (
	"github.com/aouyang1/go-pcrforecast/internal/server"
	"github.com/spf13/cobra"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve forecasts over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Server
			if cmd.Flags().Changed("addr") {
				sc.Addr = addr
			}
			s := server.New(server.Config{
				Addr:         sc.Addr,
				ReadTimeout:  sc.ReadTimeoutDuration(),
				WriteTimeout: sc.WriteTimeoutDuration(),
				MaxBodyBytes: sc.MaxBodyBytes,
			}, a.cfg.ForecastOptions(), a.logger)
			return s.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	return cmd
}
