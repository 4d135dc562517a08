package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ivlev/photoreel/internal/config"
	"github.com/ivlev/photoreel/internal/system"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// app holds what every subcommand shares. Flags write straight into cfg.
type app struct {
	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "photoreel",
		Short:         "Слайд-шоу, коллажи и улучшение фотографий",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd.Context(), cmd.Flags(), &a.cfg); err != nil {
				return err
			}
			a.logger = a.cfg.Log.NewLogger(os.Stderr)
			system.InitResourceLimits(a.logger)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.Log.Level, "log-level", "", "Уровень логов: debug, info, warn, error")
	pf.StringVar(&a.cfg.Log.Format, "log-format", "", "Формат логов: console, json")

	root.AddCommand(
		newSlideshowCmd(a),
		newOverlayCmd(a),
		newCollageCmd(a),
		newEnhanceCmd(a),
	)
	return root
}

// loadConfig fills cfg from the environment and defaults, then applies every
// flag given on the command line again so an explicit zero is kept.
func loadConfig(ctx context.Context, fs *pflag.FlagSet, cfg *config.Config) error {
	explicit := map[string]string{}
	fs.Visit(func(f *pflag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	if err := config.Load(ctx, cfg); err != nil {
		return err
	}

	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
	}
	return cfg.Validate()
}
