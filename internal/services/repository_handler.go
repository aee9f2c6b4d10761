package services

import (
	"context"
	"strings"

	"github.com/thomas-vilte/materelease/internal/git"
	"github.com/thomas-vilte/materelease/internal/i18n"
	"github.com/thomas-vilte/materelease/internal/logger"
	"github.com/thomas-vilte/materelease/internal/manifest"
	"github.com/thomas-vilte/materelease/internal/models"
	"github.com/thomas-vilte/materelease/internal/regex"
	"github.com/thomas-vilte/materelease/internal/semver"
	"github.com/thomas-vilte/materelease/internal/vcs"
)

// RepositoryGitService is everything the handler does with one repository.
type RepositoryGitService interface {
	historyGitService
	transactionGitService
	GetRepoInfo(ctx context.Context) (string, string, string, error)
}

// VersionStore reads and writes the manifest version of one repository.
type VersionStore interface {
	versionWriter
	CurrentVersion() (semver.Version, error)
}

type messageSender interface {
	SendMessage(ctx context.Context, text string) (bool, string, error)
}

type (
	GitServiceFactory       func(target models.RepositoryTarget) RepositoryGitService
	ManifestFactory         func(target models.RepositoryTarget) VersionStore
	ReleasePublisherFactory func(owner, repo string) vcs.ReleasePublisher
)

// HandleOptions tune a single repository run.
type HandleOptions struct {
	DryRun         bool
	SkipValidation bool
}

// RepositoryHandler releases one repository: scan, resolve the boundary,
// compute the next version and run the release transaction.
type RepositoryHandler struct {
	newGit       GitServiceFactory
	newManifest  ManifestFactory
	isReleasable ReleasableFunc
	notifier     messageSender
	newPublisher ReleasePublisherFactory
	trans        *i18n.Translations
}

type HandlerOption func(*RepositoryHandler)

func WithHandlerGitFactory(f GitServiceFactory) HandlerOption {
	return func(h *RepositoryHandler) {
		h.newGit = f
	}
}

func WithHandlerManifestFactory(f ManifestFactory) HandlerOption {
	return func(h *RepositoryHandler) {
		h.newManifest = f
	}
}

// WithHandlerReleasability gates commits on their tickets. Without it every
// commit is releasable.
func WithHandlerReleasability(f ReleasableFunc) HandlerOption {
	return func(h *RepositoryHandler) {
		h.isReleasable = f
	}
}

func WithHandlerNotifier(n messageSender) HandlerOption {
	return func(h *RepositoryHandler) {
		h.notifier = n
	}
}

func WithHandlerPublisher(f ReleasePublisherFactory) HandlerOption {
	return func(h *RepositoryHandler) {
		h.newPublisher = f
	}
}

func WithHandlerTranslations(t *i18n.Translations) HandlerOption {
	return func(h *RepositoryHandler) {
		h.trans = t
	}
}

func NewRepositoryHandler(opts ...HandlerOption) *RepositoryHandler {
	h := &RepositoryHandler{
		newGit: func(target models.RepositoryTarget) RepositoryGitService {
			return git.NewGitService(target)
		},
		newManifest: func(target models.RepositoryTarget) VersionStore {
			return manifest.NewStore(target.Path, target.ManifestFile)
		},
		isReleasable: AllReleasable,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *RepositoryHandler) Handle(ctx context.Context, target models.RepositoryTarget, opts HandleOptions) (*models.ReleaseResult, error) {
	ctx = logger.With(ctx, "repository", target.Path)
	log := logger.FromContext(ctx)

	gitSvc := h.newGit(target)
	store := h.newManifest(target)

	scan, err := NewHistoryScanner(gitSvc).Scan(ctx, target)
	if err != nil {
		return nil, err
	}

	isReleasable := h.isReleasable
	if opts.SkipValidation {
		log.Warn("skipping ticket validation, every commit is releasable")
		isReleasable = AllReleasable
	}

	boundary, err := ResolveBoundary(ctx, scan.Commits, isReleasable)
	if err != nil {
		return nil, err
	}

	result := &models.ReleaseResult{
		Repository: target.Path,
		Commits:    scan.Commits,
		Boundary:   boundary,
		DryRun:     opts.DryRun,
	}
	if boundary.Empty() {
		log.Info("nothing to release")
		return result, nil
	}

	result.TagTarget = boundary.Commit.SHA
	log.Info("release boundary resolved",
		"sha", boundary.Commit.SHA,
		"branch_tip", boundary.IsBranchTip)

	tx := NewReleaseTransaction(gitSvc, store)

	if opts.DryRun {
		previewRelease(ctx, tx, store, scan.Branch, target, result)
		log.Info("dry run, repository left untouched")
		return result, nil
	}

	plan, err := planRelease(store, scan.Branch, target, result)
	if err != nil {
		return nil, err
	}

	versionCommit, tagTarget, err := tx.Execute(ctx, plan)
	if err != nil {
		return nil, err
	}
	result.VersionCommit = versionCommit
	result.TagTarget = tagTarget

	h.announce(ctx, gitSvc, result)
	return result, nil
}

// planRelease reads the manifest and fills in the next version and tag.
func planRelease(store VersionStore, branch string, target models.RepositoryTarget, result *models.ReleaseResult) (ReleasePlan, error) {
	current, err := store.CurrentVersion()
	if err != nil {
		return ReleasePlan{}, err
	}
	result.PreviousVersion = current
	result.Version = current.Increment()
	result.TagName = regex.NewTagPattern(target.TagPrefix).Name(result.Version)

	return ReleasePlan{
		Branch:          branch,
		Boundary:        result.Boundary,
		Version:         result.Version,
		TagName:         result.TagName,
		MessageTemplate: target.CommitMessageTemplate,
	}, nil
}

// previewRelease adds the next version and tag to a dry run result and
// reports whether a real run would pass its preconditions. Failures are
// logged and never fail the dry run.
func previewRelease(ctx context.Context, tx *ReleaseTransaction, store VersionStore, branch string, target models.RepositoryTarget, result *models.ReleaseResult) {
	log := logger.FromContext(ctx)

	plan, err := planRelease(store, branch, target, result)
	if err != nil {
		log.Warn("cannot compute the next version", "error", err)
		return
	}
	log.Info("next release", "version", result.Version.String(), "tag", result.TagName)

	if err := tx.CheckPreconditions(ctx, plan); err != nil {
		log.Warn("a real release would fail", "error", err)
	}
}

// announce tells the team about a published release. Failures are logged
// and never fail the release.
func (h *RepositoryHandler) announce(ctx context.Context, gitSvc RepositoryGitService, result *models.ReleaseResult) {
	if h.trans == nil {
		return
	}
	log := logger.FromContext(ctx)
	tickets := result.Tickets()

	if h.notifier != nil {
		text := h.trans.GetMessage("release_notification_no_tickets", 0, map[string]interface{}{
			"Tag":        result.TagName,
			"Repository": result.Repository,
		})
		if len(tickets) > 0 {
			text = h.trans.GetMessage("release_notification", len(tickets), map[string]interface{}{
				"Tag":        result.TagName,
				"Repository": result.Repository,
				"Count":      len(tickets),
				"Tickets":    strings.Join(tickets, ", "),
			})
		}

		ok, errMsg, err := h.notifier.SendMessage(ctx, text)
		switch {
		case err != nil:
			log.Warn("failed to send release notification", "error", err)
		case !ok:
			log.Warn("slack rejected release notification", "error", errMsg)
		}
	}

	if h.newPublisher != nil {
		owner, repo, provider, err := gitSvc.GetRepoInfo(ctx)
		if err != nil {
			log.Warn("cannot publish release, unknown remote", "error", err)
			return
		}
		if provider != "github" {
			log.Debug("remote is not on github, release page skipped", "provider", provider)
			return
		}

		body := h.trans.GetMessage("release_notes_empty", 0, nil)
		if len(tickets) > 0 {
			body = h.trans.GetMessage("release_notes_body", 0, map[string]interface{}{
				"Tickets": "- " + strings.Join(tickets, "\n- "),
			})
		}
		title := h.trans.GetMessage("release_notes_title", 0, map[string]interface{}{
			"Version": result.Version.String(),
		})

		url, err := h.newPublisher(owner, repo).CreateRelease(ctx, result.TagName, title, body)
		if err != nil {
			log.Warn("failed to publish release page", "error", err)
			return
		}
		log.Info("release page published", "url", url)
	}
}
