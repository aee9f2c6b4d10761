package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	domainErrors "github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/logger"
	"github.com/thomas-vilte/materelease/internal/models"
)

type repositoryHandler interface {
	Handle(ctx context.Context, target models.RepositoryTarget, opts HandleOptions) (*models.ReleaseResult, error)
}

// RunOptions select and tune the repositories of a batch run.
type RunOptions struct {
	HandleOptions
	Only []string
}

// ReleaseManager releases the configured repositories one after another.
type ReleaseManager struct {
	handler repositoryHandler
}

func NewReleaseManager(handler repositoryHandler) *ReleaseManager {
	return &ReleaseManager{handler: handler}
}

// Run handles targets in order and stops at the first failure. Results of
// the repositories handled before the failure are returned with the error.
func (m *ReleaseManager) Run(ctx context.Context, targets []models.RepositoryTarget, opts RunOptions) ([]*models.ReleaseResult, error) {
	log := logger.FromContext(ctx)

	selected := FilterTargets(targets, opts.Only)
	if len(selected) == 0 {
		return nil, domainErrors.ErrNoMatchingRepository.WithContext("only", strings.Join(opts.Only, ","))
	}

	results := make([]*models.ReleaseResult, 0, len(selected))
	for _, target := range selected {
		log.Info("handling repository", "repository", target.Path)

		result, err := m.handler.Handle(ctx, target, opts.HandleOptions)
		if err != nil {
			log.Error("repository release failed", "repository", target.Path, "error", err)
			return results, fmt.Errorf("repository %s: %w", target.Path, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// FilterTargets keeps targets whose path or directory name is listed in only.
// An empty filter keeps everything.
func FilterTargets(targets []models.RepositoryTarget, only []string) []models.RepositoryTarget {
	if len(only) == 0 {
		return targets
	}

	var selected []models.RepositoryTarget
	for _, target := range targets {
		for _, want := range only {
			want = filepath.Clean(want)
			if target.Path == want || filepath.Base(target.Path) == want {
				selected = append(selected, target)
				break
			}
		}
	}
	return selected
}
