package services

import (
	"context"

	"github.com/thomas-vilte/materelease/internal/logger"
	"github.com/thomas-vilte/materelease/internal/models"
)

// ReleasableFunc reports whether the ticket's current state allows release.
type ReleasableFunc func(ctx context.Context, ticketID string) (bool, error)

// AllReleasable accepts every ticket.
func AllReleasable(context.Context, string) (bool, error) {
	return true, nil
}

// ResolveBoundary walks commits oldest first and returns the last commit of
// the longest prefix whose tickets are all releasable. A commit without a
// ticket never blocks. The walk stops at the first blocked ticket; commits
// after it are not released even when their own tickets are.
func ResolveBoundary(ctx context.Context, commits []models.CommitRecord, isReleasable ReleasableFunc) (models.ReleaseBoundary, error) {
	log := logger.FromContext(ctx)

	decided := make(map[string]bool)
	var last *models.CommitRecord
	for i := range commits {
		commit := &commits[i]
		if !commit.HasTicket() {
			last = commit
			continue
		}

		ok, seen := decided[commit.TicketID]
		if !seen {
			var err error
			ok, err = isReleasable(ctx, commit.TicketID)
			if err != nil {
				return models.ReleaseBoundary{}, err
			}
			decided[commit.TicketID] = ok
		}

		if !ok {
			log.Info("ticket blocks the release", "ticket", commit.TicketID, "sha", commit.SHA)
			return models.ReleaseBoundary{Commit: last, IsBranchTip: false}, nil
		}
		last = commit
	}

	return models.ReleaseBoundary{Commit: last, IsBranchTip: true}, nil
}

// labelSource defines only the tracker method needed by ReleasabilityChecker.
type labelSource interface {
	GetLabels(ctx context.Context, ticketID string) ([]string, error)
}

// ReleasabilityChecker accepts a ticket when one of its labels is on the
// allow-list. Labels compare exactly.
type ReleasabilityChecker struct {
	tracker    labelSource
	releasable map[string]struct{}
}

func NewReleasabilityChecker(tracker labelSource, releasableLabels []string) *ReleasabilityChecker {
	allowed := make(map[string]struct{}, len(releasableLabels))
	for _, label := range releasableLabels {
		allowed[label] = struct{}{}
	}
	return &ReleasabilityChecker{tracker: tracker, releasable: allowed}
}

func (c *ReleasabilityChecker) IsReleasable(ctx context.Context, ticketID string) (bool, error) {
	labels, err := c.tracker.GetLabels(ctx, ticketID)
	if err != nil {
		return false, err
	}
	for _, label := range labels {
		if _, ok := c.releasable[label]; ok {
			return true, nil
		}
	}
	logger.Debug(ctx, "ticket has no releasable label", "ticket", ticketID)
	return false, nil
}
