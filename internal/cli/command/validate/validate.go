package validate

import (
	"context"

	"github.com/thomas-vilte/materelease/internal/cli/setup"
	"github.com/thomas-vilte/materelease/internal/config"
	"github.com/thomas-vilte/materelease/internal/httpclient"
	"github.com/thomas-vilte/materelease/internal/i18n"
	"github.com/thomas-vilte/materelease/internal/notify/slack"
	"github.com/thomas-vilte/materelease/internal/services"
	"github.com/thomas-vilte/materelease/internal/tickets/jira"
	"github.com/thomas-vilte/materelease/internal/ui"
	"github.com/urfave/cli/v3"
)

const flagNotify = "notify"

// projectValidator is a minimal interface for testing purposes
type projectValidator interface {
	Validate(ctx context.Context, notify bool) error
}

type ValidatorBuilder func(cfg *config.Config, t *i18n.Translations) (projectValidator, error)

type ValidateCommandFactory struct {
	newValidator ValidatorBuilder
}

func NewValidateCommandFactory() *ValidateCommandFactory {
	return &ValidateCommandFactory{newValidator: BuildValidator}
}

func NewValidateCommandFactoryWithValidator(builder ValidatorBuilder) *ValidateCommandFactory {
	return &ValidateCommandFactory{newValidator: builder}
}

func (v *ValidateCommandFactory) CreateCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: t.GetMessage("validate_command_usage", 0, nil),
		Flags: []cli.Flag{
			setup.ConfigFlag(t),
			&cli.BoolFlag{
				Name:  flagNotify,
				Usage: t.GetMessage("flag_notify_usage", 0, nil),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup.Load(ctx, cmd, t)
			if err != nil {
				return err
			}

			validator, err := v.newValidator(cfg, t)
			if err != nil {
				return err
			}

			validate := func() error {
				return validator.Validate(ctx, cmd.Bool(flagNotify))
			}
			if setup.Quiet(cmd) {
				err = ui.WithSpinnerAndDuration(t.GetMessage("validate_running", 0, nil), validate)
			} else {
				err = validate()
			}
			if err != nil {
				return err
			}

			ui.PrintSuccess(setup.Out(cmd), t.GetMessage("validation_passed", 0, nil))
			return nil
		},
	}
}

func BuildValidator(cfg *config.Config, t *i18n.Translations) (projectValidator, error) {
	if err := cfg.ValidateTracker(); err != nil {
		return nil, err
	}

	client := httpclient.New()
	tracker := jira.NewJiraService(cfg.Jira, client)
	if !cfg.SlackEnabled() {
		return services.NewProjectValidator(tracker, nil, cfg.Jira, t), nil
	}
	return services.NewProjectValidator(tracker, slack.NewSlackClient(cfg.Slack, client), cfg.Jira, t), nil
}
