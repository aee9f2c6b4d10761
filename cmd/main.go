package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thomas-vilte/materelease/internal/cli/command/config"
	"github.com/thomas-vilte/materelease/internal/cli/command/release"
	"github.com/thomas-vilte/materelease/internal/cli/command/validate"
	"github.com/thomas-vilte/materelease/internal/cli/registry"
	"github.com/thomas-vilte/materelease/internal/cli/setup"
	"github.com/thomas-vilte/materelease/internal/i18n"
	"github.com/thomas-vilte/materelease/internal/ui"
	"github.com/thomas-vilte/materelease/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	translations, err := i18n.NewTranslations(startupLanguage())
	if err != nil {
		log.Fatalf("Error loading translations: %v", err)
	}

	app, err := initializeApp(translations)
	if err != nil {
		log.Fatalf("Error starting the cli: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		stop()
		os.Exit(1)
	}
}

// startupLanguage is used for help output, before any configuration is read.
func startupLanguage() string {
	if lang := os.Getenv("MATE_RELEASE_LANG"); lang != "" {
		return lang
	}
	return "en"
}

func initializeApp(translations *i18n.Translations) (*cli.Command, error) {
	registerCommand := registry.NewRegistry(translations)

	if err := registerCommand.Register("release", release.NewReleaseCommandFactory()); err != nil {
		return nil, err
	}
	if err := registerCommand.Register("validate", validate.NewValidateCommandFactory()); err != nil {
		return nil, err
	}
	if err := registerCommand.Register("config", config.NewConfigCommandFactory()); err != nil {
		return nil, err
	}

	return &cli.Command{
		Name:     "mate-release",
		Usage:    translations.GetMessage("app_usage", 0, nil),
		Version:  version.FullVersion(),
		Flags:    setup.GlobalFlags(translations),
		Commands: registerCommand.CreateCommands(),
	}, nil
}
