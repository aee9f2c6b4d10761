package services

import (
	"context"

	"github.com/thomas-vilte/materelease/internal/logger"
	"github.com/thomas-vilte/materelease/internal/models"
	"github.com/thomas-vilte/materelease/internal/regex"
)

// historyGitService defines only the methods needed by HistoryScanner.
type historyGitService interface {
	FetchTags(ctx context.Context) error
	ResolveBranch(ctx context.Context, name string) (string, error)
	ListTags(ctx context.Context) ([]models.TagRef, error)
	GetCommitsBetween(ctx context.Context, exclude, include string) ([]models.Commit, error)
}

// ScanResult is the unreleased history of one repository.
type ScanResult struct {
	Branch    string
	LatestTag *models.ReleaseTag
	Commits   []models.CommitRecord
}

type HistoryScanner struct {
	git historyGitService
}

func NewHistoryScanner(gitSvc historyGitService) *HistoryScanner {
	return &HistoryScanner{git: gitSvc}
}

// Scan lists the commits on the master branch that came after the highest
// release tag, oldest first, each tagged with the ticket it references.
// Version bump commits made by this tool are left out.
func (s *HistoryScanner) Scan(ctx context.Context, target models.RepositoryTarget) (*ScanResult, error) {
	log := logger.FromContext(ctx)

	if target.AutoFetch {
		if err := s.git.FetchTags(ctx); err != nil {
			log.Warn("failed to fetch tags, continuing with local tags", "error", err)
		}
	}

	branch, err := s.git.ResolveBranch(ctx, target.MasterBranch)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Branch: branch, Commits: []models.CommitRecord{}}

	latest, err := s.LatestReleaseTag(ctx, target.TagPrefix)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		log.Warn("no release tag found, nothing will be released", "prefix", target.TagPrefix)
		return result, nil
	}
	result.LatestTag = latest
	log.Info("release tag found", "tag", latest.Name, "sha", latest.CommitSHA)

	commits, err := s.git.GetCommitsBetween(ctx, latest.CommitSHA, "refs/heads/"+branch)
	if err != nil {
		return nil, err
	}

	result.Commits = ClassifyCommits(ctx, commits, regex.NewTicketPattern(target.TicketPrefix))
	log.Info("unreleased commits", "total", len(commits), "count", len(result.Commits))
	return result, nil
}

// LatestReleaseTag returns the tag with the numerically highest version among
// tags named <prefix>M.N.P, or nil when there is none.
func (s *HistoryScanner) LatestReleaseTag(ctx context.Context, prefix string) (*models.ReleaseTag, error) {
	tags, err := s.git.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	pattern := regex.NewTagPattern(prefix)
	var latest *models.ReleaseTag
	for _, tag := range tags {
		version, ok := pattern.Parse(tag.Name)
		if !ok {
			continue
		}
		if latest == nil || version.Compare(latest.Version) > 0 {
			latest = &models.ReleaseTag{Name: tag.Name, Version: version, CommitSHA: tag.CommitSHA}
		}
	}
	return latest, nil
}

// ClassifyCommits attaches ticket ids to commits. A ticket reference wins;
// otherwise a message mentioning version is one of our bump commits and is
// dropped.
func ClassifyCommits(ctx context.Context, commits []models.Commit, tickets *regex.TicketPattern) []models.CommitRecord {
	log := logger.FromContext(ctx)

	records := make([]models.CommitRecord, 0, len(commits))
	for _, c := range commits {
		if ticket, ok := tickets.Find(c.Message); ok {
			log.Debug("commit references ticket", "sha", c.SHA, "ticket", ticket)
			records = append(records, models.CommitRecord{SHA: c.SHA, TicketID: ticket})
			continue
		}
		if regex.VersionMarker.MatchString(c.Message) {
			log.Debug("skipping version commit", "sha", c.SHA)
			continue
		}
		log.Debug("commit without ticket", "sha", c.SHA)
		records = append(records, models.CommitRecord{SHA: c.SHA})
	}
	return records
}
