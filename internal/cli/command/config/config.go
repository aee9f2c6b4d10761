package config

import (
	"context"
	"fmt"

	"github.com/thomas-vilte/materelease/internal/cli/setup"
	"github.com/thomas-vilte/materelease/internal/i18n"
	"github.com/thomas-vilte/materelease/internal/ui"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type ConfigCommandFactory struct{}

func NewConfigCommandFactory() *ConfigCommandFactory {
	return &ConfigCommandFactory{}
}

func (c *ConfigCommandFactory) CreateCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: t.GetMessage("config_command_usage", 0, nil),
		Commands: []*cli.Command{
			c.newShowCommand(t),
			c.newCheckCommand(t),
		},
	}
}

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config_show_usage", 0, nil),
		Flags: []cli.Flag{setup.ConfigFlag(t)},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := setup.Load(ctx, command, t)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg.Masked())
			if err != nil {
				return fmt.Errorf("error encoding configuration: %w", err)
			}

			w := setup.Out(command)
			ui.PrintKeyValue(w, "path", cfg.PathFile)
			_, _ = fmt.Fprintln(w, string(data))
			return nil
		},
	}
}

func (c *ConfigCommandFactory) newCheckCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: t.GetMessage("config_check_usage", 0, nil),
		Flags: []cli.Flag{setup.ConfigFlag(t)},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := setup.Load(ctx, command, t)
			if err != nil {
				return err
			}

			w := setup.Out(command)
			ui.PrintSuccess(w, t.GetMessage("config_valid", 0, map[string]interface{}{
				"Path":  cfg.PathFile,
				"Count": len(cfg.Repositories),
			}))
			if err := cfg.ValidateTracker(); err != nil {
				ui.PrintWarning(w, t.GetMessage("config_tracker_missing", 0, map[string]interface{}{
					"Error": err.Error(),
				}))
			}
			for _, target := range cfg.Targets() {
				ui.PrintKeyValue(w, target.Path, target.MasterBranch+" "+target.TagPrefix)
			}
			return nil
		},
	}
}
