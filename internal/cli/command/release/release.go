package release

import (
	"context"

	"github.com/thomas-vilte/materelease/internal/cli/setup"
	"github.com/thomas-vilte/materelease/internal/config"
	domainErrors "github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/httpclient"
	"github.com/thomas-vilte/materelease/internal/i18n"
	"github.com/thomas-vilte/materelease/internal/models"
	"github.com/thomas-vilte/materelease/internal/notify/slack"
	"github.com/thomas-vilte/materelease/internal/services"
	"github.com/thomas-vilte/materelease/internal/tickets/jira"
	"github.com/thomas-vilte/materelease/internal/ui"
	"github.com/thomas-vilte/materelease/internal/vcs"
	"github.com/thomas-vilte/materelease/internal/vcs/github"
	"github.com/urfave/cli/v3"
)

const (
	flagDryRun         = "dry-run"
	flagSkipValidation = "skip-validation"
	flagOnly           = "only"
)

// releaseRunner is a minimal interface for testing purposes
type releaseRunner interface {
	Run(ctx context.Context, targets []models.RepositoryTarget, opts services.RunOptions) ([]*models.ReleaseResult, error)
}

// RunnerBuilder wires the release manager for a loaded configuration.
type RunnerBuilder func(cfg *config.Config, t *i18n.Translations, skipValidation bool) (releaseRunner, error)

type ReleaseCommandFactory struct {
	newRunner RunnerBuilder
}

func NewReleaseCommandFactory() *ReleaseCommandFactory {
	return &ReleaseCommandFactory{newRunner: BuildRunner}
}

func NewReleaseCommandFactoryWithRunner(builder RunnerBuilder) *ReleaseCommandFactory {
	return &ReleaseCommandFactory{newRunner: builder}
}

func (r *ReleaseCommandFactory) CreateCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:    "release",
		Aliases: []string{"r"},
		Usage:   t.GetMessage("release_command_usage", 0, nil),
		Flags: []cli.Flag{
			setup.ConfigFlag(t),
			&cli.BoolFlag{
				Name:  flagDryRun,
				Usage: t.GetMessage("flag_dry_run_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:  flagSkipValidation,
				Usage: t.GetMessage("flag_skip_validation_usage", 0, nil),
			},
			&cli.StringSliceFlag{
				Name:  flagOnly,
				Usage: t.GetMessage("flag_only_usage", 0, nil),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup.Load(ctx, cmd, t)
			if err != nil {
				return err
			}

			opts := services.RunOptions{
				HandleOptions: services.HandleOptions{
					DryRun:         cmd.Bool(flagDryRun),
					SkipValidation: cmd.Bool(flagSkipValidation),
				},
				Only: cmd.StringSlice(flagOnly),
			}

			runner, err := r.newRunner(cfg, t, opts.SkipValidation)
			if err != nil {
				return err
			}

			var results []*models.ReleaseResult
			run := func() error {
				var runErr error
				results, runErr = runner.Run(ctx, cfg.Targets(), opts)
				return runErr
			}
			if setup.Quiet(cmd) {
				err = ui.WithSpinnerAndDuration(t.GetMessage("release_running", 0, nil), run)
			} else {
				err = run()
			}

			if len(results) > 0 {
				ui.PrintReleaseSummary(setup.Out(cmd), t, results)
			}
			return err
		},
	}
}

// BuildRunner gates releases on Jira labels unless validation is skipped, and
// announces them on Slack and GitHub when those are configured.
func BuildRunner(cfg *config.Config, t *i18n.Translations, skipValidation bool) (releaseRunner, error) {
	client := httpclient.New()
	opts := []services.HandlerOption{services.WithHandlerTranslations(t)}

	if !skipValidation {
		if err := cfg.ValidateTracker(); err != nil {
			return nil, domainErrors.ErrTrackerNotConfigured.WithError(err)
		}
		checker := services.NewReleasabilityChecker(jira.NewJiraService(cfg.Jira, client), cfg.Jira.ReleasableLabels)
		opts = append(opts, services.WithHandlerReleasability(checker.IsReleasable))
	}

	if cfg.SlackEnabled() {
		opts = append(opts, services.WithHandlerNotifier(slack.NewSlackClient(cfg.Slack, client)))
	}

	if cfg.GitHub.PublishReleases && cfg.GitHub.Token != "" {
		token := cfg.GitHub.Token
		opts = append(opts, services.WithHandlerPublisher(func(owner, repo string) vcs.ReleasePublisher {
			return github.NewGitHubClient(owner, repo, token)
		}))
	}

	return services.NewReleaseManager(services.NewRepositoryHandler(opts...)), nil
}
