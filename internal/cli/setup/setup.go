// Package setup holds the flags and start-up steps shared by every command.
package setup

import (
	"context"
	"io"
	"os"

	"github.com/thomas-vilte/materelease/internal/config"
	"github.com/thomas-vilte/materelease/internal/i18n"
	"github.com/thomas-vilte/materelease/internal/logger"
	"github.com/urfave/cli/v3"
)

const (
	FlagConfig = "config"
	FlagDebug  = "debug"
	FlagQuiet  = "quiet"
)

func ConfigFlag(t *i18n.Translations) cli.Flag {
	return &cli.StringFlag{
		Name:    FlagConfig,
		Aliases: []string{"c"},
		Usage:   t.GetMessage("flag_config_usage", 0, nil),
	}
}

// GlobalFlags are defined on the root command.
func GlobalFlags(t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  FlagDebug,
			Usage: t.GetMessage("flag_debug_usage", 0, nil),
		},
		&cli.BoolFlag{
			Name:    FlagQuiet,
			Aliases: []string{"q"},
			Usage:   t.GetMessage("flag_quiet_usage", 0, nil),
		},
	}
}

// Load configures logging from the root flags, reads the configuration named
// by --config and switches the translations to its language.
func Load(ctx context.Context, cmd *cli.Command, t *i18n.Translations) (*config.Config, error) {
	root := cmd.Root()
	logger.Initialize(root.Bool(FlagDebug), root.Bool(FlagQuiet))

	cfg, err := config.LoadConfig(cmd.String(FlagConfig))
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "configuration loaded", "path", cfg.PathFile, "repositories", len(cfg.Repositories))

	if err := t.SetLanguage(cfg.Language); err != nil {
		logger.Warn(ctx, "keeping default language", "language", cfg.Language, "error", err)
	}
	return cfg, nil
}

// Quiet reports whether progress output should be replaced by a spinner.
func Quiet(cmd *cli.Command) bool {
	return cmd.Root().Bool(FlagQuiet)
}

// Out is where command results are printed.
func Out(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
