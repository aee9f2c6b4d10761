package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainErrors "github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/logger"
	"github.com/thomas-vilte/materelease/internal/models"
	"github.com/thomas-vilte/materelease/internal/semver"
)

const (
	StepBump = "bump"
	StepPush = "push"
	StepTag  = "tag"

	CompensationDiscardChanges = "discard-changes"
	CompensationRemoveCommit   = "remove-commit"
	CompensationDeleteTag      = "delete-tag"
)

// transactionGitService defines only the methods needed by ReleaseTransaction.
type transactionGitService interface {
	GetCurrentBranch(ctx context.Context) (string, error)
	TagExists(ctx context.Context, name string) (bool, error)
	RemoteTagExists(ctx context.Context, name string) (bool, error)
	AddFileToStaging(ctx context.Context, file string) error
	CreateCommit(ctx context.Context, message string, files []string) (string, error)
	PushBranch(ctx context.Context, branch string) error
	CreateTag(ctx context.Context, name, sha string) error
	PushTag(ctx context.Context, name string) error
	DeleteTag(ctx context.Context, name string) error
	DiscardChanges(ctx context.Context) error
	RemoveCommit(ctx context.Context, sha string) error
}

type versionWriter interface {
	Path() string
	WriteVersion(v semver.Version) error
}

// ReleasePlan is what a transaction is asked to publish.
type ReleasePlan struct {
	Branch          string
	Boundary        models.ReleaseBoundary
	Version         semver.Version
	TagName         string
	MessageTemplate string
}

type transactionStep struct {
	name         string
	compensation string
	forward      func(ctx context.Context) error
	compensate   func(ctx context.Context) error
}

// ReleaseTransaction bumps the manifest version, commits, pushes and tags as
// one unit. When a step fails its compensation runs before the error is
// returned, so the repository is left either fully released, released
// without a tag, or untouched.
type ReleaseTransaction struct {
	git      transactionGitService
	manifest versionWriter

	versionCommit string
	tagCreated    bool
}

func NewReleaseTransaction(gitSvc transactionGitService, manifest versionWriter) *ReleaseTransaction {
	return &ReleaseTransaction{git: gitSvc, manifest: manifest}
}

// CheckPreconditions verifies the repository can take the release without
// changing anything.
func (tx *ReleaseTransaction) CheckPreconditions(ctx context.Context, plan ReleasePlan) error {
	if plan.Boundary.Empty() {
		return domainErrors.NewAppError(domainErrors.TypeInternal, "release plan has no boundary commit", nil)
	}

	current, err := tx.git.GetCurrentBranch(ctx)
	if err != nil {
		return domainErrors.ErrInvalidBranch.WithError(err)
	}
	if current != plan.Branch {
		return domainErrors.ErrInvalidBranch.
			WithError(fmt.Errorf("checked out %q, releasing %q", current, plan.Branch)).
			WithContext("branch", plan.Branch)
	}

	local, err := tx.git.TagExists(ctx, plan.TagName)
	if err != nil {
		return err
	}
	if local {
		return domainErrors.ErrTagAlreadyExists.
			WithError(fmt.Errorf("tag %s exists locally", plan.TagName)).
			WithContext("tag", plan.TagName)
	}

	remote, err := tx.git.RemoteTagExists(ctx, plan.TagName)
	if err != nil {
		return err
	}
	if remote {
		return domainErrors.ErrTagAlreadyExists.
			WithError(fmt.Errorf("tag %s exists on the remote", plan.TagName)).
			WithContext("tag", plan.TagName)
	}

	if _, err := commitMessage(plan); err != nil {
		return err
	}
	return nil
}

// Execute runs bump, push and tag. It returns the version commit sha and the
// commit the tag was placed on.
func (tx *ReleaseTransaction) Execute(ctx context.Context, plan ReleasePlan) (string, string, error) {
	if err := tx.CheckPreconditions(ctx, plan); err != nil {
		return "", "", err
	}

	log := logger.FromContext(ctx)
	message, _ := commitMessage(plan)
	var tagTarget string

	steps := []transactionStep{
		{
			name:         StepBump,
			compensation: CompensationDiscardChanges,
			forward: func(ctx context.Context) error {
				if err := tx.manifest.WriteVersion(plan.Version); err != nil {
					return err
				}
				path := tx.manifest.Path()
				if err := tx.git.AddFileToStaging(ctx, path); err != nil {
					return err
				}
				sha, err := tx.git.CreateCommit(ctx, message, []string{path})
				if err != nil {
					return err
				}
				tx.versionCommit = sha
				log.Info("version commit created", "sha", sha, "version", plan.Version.String())
				return nil
			},
			compensate: tx.git.DiscardChanges,
		},
		{
			name:         StepPush,
			compensation: CompensationRemoveCommit,
			forward: func(ctx context.Context) error {
				return tx.git.PushBranch(ctx, plan.Branch)
			},
			compensate: func(ctx context.Context) error {
				if err := tx.git.RemoveCommit(ctx, tx.versionCommit); err != nil {
					return err
				}
				return tx.git.DiscardChanges(ctx)
			},
		},
		{
			name:         StepTag,
			compensation: CompensationDeleteTag,
			forward: func(ctx context.Context) error {
				tagTarget = plan.Boundary.Commit.SHA
				if plan.Boundary.IsBranchTip {
					tagTarget = tx.versionCommit
				}
				if err := tx.git.CreateTag(ctx, plan.TagName, tagTarget); err != nil {
					return err
				}
				tx.tagCreated = true
				return tx.git.PushTag(ctx, plan.TagName)
			},
			compensate: func(ctx context.Context) error {
				if !tx.tagCreated {
					return nil
				}
				return tx.git.DeleteTag(ctx, plan.TagName)
			},
		},
	}

	for _, step := range steps {
		log.Debug("running release step", "step", step.name)
		if err := step.forward(ctx); err != nil {
			return "", "", tx.rollback(ctx, step, err)
		}
	}

	log.Info("release published", "tag", plan.TagName, "sha", tagTarget)
	return tx.versionCommit, tagTarget, nil
}

func (tx *ReleaseTransaction) rollback(ctx context.Context, step transactionStep, cause error) error {
	log := logger.FromContext(ctx)
	log.Error("release step failed, compensating", "step", step.name, "compensation", step.compensation, "error", cause)

	// Compensation must run even when the caller's context is already done.
	if err := step.compensate(context.WithoutCancel(ctx)); err != nil {
		log.Error("compensation failed", "compensation", step.compensation, "error", err)
		cause = errors.Join(cause, fmt.Errorf("%s: %w", step.compensation, err))
	}
	return &domainErrors.TransactionStepError{Step: step.name, Err: cause}
}

type commitMessageData struct {
	Version string
}

func commitMessage(plan ReleasePlan) (string, error) {
	text := plan.MessageTemplate
	if text == "" {
		text = DefaultCommitMessageTemplate
	}
	version := plan.Version.String()
	msg, err := renderTemplate("commit", text, commitMessageData{Version: version})
	if err != nil {
		return "", domainErrors.ErrCommitMessageTemplate.WithError(err)
	}
	if !strings.Contains(msg, version) {
		return "", domainErrors.ErrCommitMessageTemplate.
			WithError(fmt.Errorf("message %q does not contain version %s", msg, version)).
			WithContext("template", text)
	}
	return msg, nil
}

const DefaultCommitMessageTemplate = "Increment version to {{.Version}}"
