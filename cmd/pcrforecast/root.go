package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/aouyang1/go-pcrforecast/internal/config"
	"github.com/aouyang1/go-pcrforecast/internal/logger"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var ErrUnknownProfile = errors.New("profile must be cpu or mem")

type app struct {
	configPath  string
	logLevel    string
	profileMode string

	cfg    *config.Config
	logger zerolog.Logger
	closer io.Closer
	prof   interface{ Stop() }
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "pcrforecast",
		Short:         "Forecast the PCR positivity rate in Japan",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a yaml config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().StringVar(&a.profileMode, "profile", "", "write a cpu or mem profile to the working directory")

	root.AddCommand(
		runCmd(a),
		fetchCmd(a),
		serveCmd(a),
		configCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	l, closer, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return err
	}
	a.logger = l
	a.closer = closer

	switch a.profileMode {
	case "":
	case "cpu":
		a.prof = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet)
	case "mem":
		a.prof = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet)
	default:
		return fmt.Errorf("got %q, %w", a.profileMode, ErrUnknownProfile)
	}
	return nil
}

func (a *app) teardown() error {
	if a.prof != nil {
		a.prof.Stop()
		a.prof = nil
	}
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
