package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/i18n"
	"github.com/thomas-vilte/materelease/internal/models"
	"github.com/thomas-vilte/materelease/internal/semver"
	"github.com/thomas-vilte/materelease/internal/vcs"
)

func handlerTarget() models.RepositoryTarget {
	return models.RepositoryTarget{
		Path:         "/srv/api",
		MasterBranch: "master",
		TagPrefix:    "uat/",
		TicketPrefix: "HOST",
		RemoteName:   "origin",
	}
}

func newTestHandler(mockGit *MockGitService, store *MockManifest, opts ...HandlerOption) *RepositoryHandler {
	opts = append([]HandlerOption{
		WithHandlerGitFactory(func(models.RepositoryTarget) RepositoryGitService { return mockGit }),
		WithHandlerManifestFactory(func(models.RepositoryTarget) VersionStore { return store }),
	}, opts...)
	return NewRepositoryHandler(opts...)
}

func expectScan(m *MockGitService, commits []models.Commit) {
	m.On("ResolveBranch", mock.Anything, "master").Return("master", nil)
	m.On("ListTags", mock.Anything).Return([]models.TagRef{{Name: "uat/1.0.0", CommitSHA: "t100"}}, nil)
	m.On("GetCommitsBetween", mock.Anything, "t100", "refs/heads/master").Return(commits, nil)
}

func expectRelease(m *MockGitService, store *MockManifest, tagTarget string) {
	expectPreconditions(m)
	expectBump(m, store)
	m.On("PushBranch", mock.Anything, "master").Return(nil)
	m.On("CreateTag", mock.Anything, "uat/1.0.1", tagTarget).Return(nil)
	m.On("PushTag", mock.Anything, "uat/1.0.1").Return(nil)
}

var handlerCommits = []models.Commit{
	{SHA: "c1", Message: "HOST-1 add endpoint"},
	{SHA: "c2", Message: "HOST-2 fix rounding"},
	{SHA: "c3", Message: "HOST-3 new report"},
}

func TestRepositoryHandler_Handle(t *testing.T) {
	ctx := context.Background()
	trans, err := i18n.NewTranslations("en")
	require.NoError(t, err)

	t.Run("Dry run resolves without writing", func(t *testing.T) {
		mockGit := new(MockGitService)
		store := new(MockManifest)
		blocked := map[string]bool{"HOST-1": true, "HOST-2": false, "HOST-3": true}
		handler := newTestHandler(mockGit, store, WithHandlerReleasability(releasableSet(blocked, map[string]int{})))

		expectScan(mockGit, handlerCommits)
		expectPreconditions(mockGit)
		store.On("CurrentVersion").Return(semver.MustParse("1.0.0"), nil)

		result, err := handler.Handle(ctx, handlerTarget(), HandleOptions{DryRun: true})

		require.NoError(t, err)
		assert.True(t, result.DryRun)
		assert.Equal(t, "c1", result.Boundary.Commit.SHA)
		assert.False(t, result.Boundary.IsBranchTip)
		assert.Equal(t, semver.MustParse("1.0.0"), result.PreviousVersion)
		assert.Equal(t, semver.MustParse("1.0.1"), result.Version)
		assert.Equal(t, "uat/1.0.1", result.TagName)
		assert.Equal(t, "c1", result.TagTarget)
		assert.Empty(t, result.VersionCommit)
		store.AssertNotCalled(t, "WriteVersion", mock.Anything)
		mockGit.AssertNotCalled(t, "CreateCommit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Dry run reports the boundary when the manifest is missing", func(t *testing.T) {
		mockGit := new(MockGitService)
		store := new(MockManifest)
		handler := newTestHandler(mockGit, store)

		expectScan(mockGit, handlerCommits)
		store.On("CurrentVersion").Return(semver.Version{}, domainErrors.ErrManifestMissing)

		result, err := handler.Handle(ctx, handlerTarget(), HandleOptions{DryRun: true, SkipValidation: true})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "c3", result.Boundary.Commit.SHA)
		assert.True(t, result.Boundary.IsBranchTip)
		assert.Equal(t, "c3", result.TagTarget)
		assert.Empty(t, result.TagName)
		mockGit.AssertNotCalled(t, "GetCurrentBranch", mock.Anything)
		mockGit.AssertNotCalled(t, "RemoteTagExists", mock.Anything, mock.Anything)
	})

	t.Run("Dry run reports the boundary when preconditions fail", func(t *testing.T) {
		mockGit := new(MockGitService)
		store := new(MockManifest)
		handler := newTestHandler(mockGit, store)

		expectScan(mockGit, handlerCommits)
		store.On("CurrentVersion").Return(semver.MustParse("1.0.0"), nil)
		mockGit.On("GetCurrentBranch", mock.Anything).Return("feature", nil)

		result, err := handler.Handle(ctx, handlerTarget(), HandleOptions{DryRun: true, SkipValidation: true})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "c3", result.Boundary.Commit.SHA)
		assert.Equal(t, "uat/1.0.1", result.TagName)
		mockGit.AssertNotCalled(t, "TagExists", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "WriteVersion", mock.Anything)
	})

	t.Run("Nothing to release", func(t *testing.T) {
		mockGit := new(MockGitService)
		store := new(MockManifest)
		handler := newTestHandler(mockGit, store)

		mockGit.On("ResolveBranch", mock.Anything, "master").Return("master", nil)
		mockGit.On("ListTags", mock.Anything).Return([]models.TagRef{}, nil)

		result, err := handler.Handle(ctx, handlerTarget(), HandleOptions{})

		require.NoError(t, err)
		assert.True(t, result.Boundary.Empty())
		assert.Empty(t, result.TagName)
		store.AssertNotCalled(t, "CurrentVersion")
	})

	t.Run("Releases and announces", func(t *testing.T) {
		mockGit := new(MockGitService)
		store := new(MockManifest)
		notifier := new(MockNotifier)
		publisher := new(MockReleasePublisher)
		handler := newTestHandler(mockGit, store,
			WithHandlerNotifier(notifier),
			WithHandlerTranslations(trans),
			WithHandlerPublisher(func(owner, repo string) vcs.ReleasePublisher {
				assert.Equal(t, "acme", owner)
				assert.Equal(t, "api", repo)
				return publisher
			}),
		)

		expectScan(mockGit, handlerCommits)
		store.On("CurrentVersion").Return(semver.MustParse("1.0.0"), nil)
		expectRelease(mockGit, store, "v101")
		mockGit.On("GetRepoInfo", mock.Anything).Return("acme", "api", "github", nil)
		notifier.On("SendMessage", mock.Anything, mock.MatchedBy(func(text string) bool {
			return strings.Contains(text, "uat/1.0.1") && strings.Contains(text, "HOST-1, HOST-2, HOST-3")
		})).Return(true, "", nil)
		publisher.On("CreateRelease", mock.Anything, "uat/1.0.1", "UAT 1.0.1", mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "- HOST-3")
		})).Return("https://github.com/acme/api/releases/tag/uat/1.0.1", nil)

		result, err := handler.Handle(ctx, handlerTarget(), HandleOptions{})

		require.NoError(t, err)
		assert.True(t, result.Boundary.IsBranchTip)
		assert.Equal(t, "v101", result.VersionCommit)
		assert.Equal(t, "v101", result.TagTarget)
		mockGit.AssertExpectations(t)
		notifier.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("Skip validation releases everything", func(t *testing.T) {
		mockGit := new(MockGitService)
		store := new(MockManifest)
		handler := newTestHandler(mockGit, store, WithHandlerReleasability(func(context.Context, string) (bool, error) {
			return false, errors.New("tracker must not be asked")
		}))

		expectScan(mockGit, handlerCommits)
		store.On("CurrentVersion").Return(semver.MustParse("1.0.0"), nil)
		expectRelease(mockGit, store, "v101")

		result, err := handler.Handle(ctx, handlerTarget(), HandleOptions{SkipValidation: true})

		require.NoError(t, err)
		assert.Equal(t, "c3", result.Boundary.Commit.SHA)
	})

	t.Run("Announcement failures do not fail the release", func(t *testing.T) {
		mockGit := new(MockGitService)
		store := new(MockManifest)
		notifier := new(MockNotifier)
		handler := newTestHandler(mockGit, store,
			WithHandlerNotifier(notifier),
			WithHandlerTranslations(trans),
			WithHandlerPublisher(func(string, string) vcs.ReleasePublisher {
				t.Fatal("publisher must not be built for a non github remote")
				return nil
			}),
		)

		expectScan(mockGit, handlerCommits)
		store.On("CurrentVersion").Return(semver.MustParse("1.0.0"), nil)
		expectRelease(mockGit, store, "v101")
		mockGit.On("GetRepoInfo", mock.Anything).Return("acme", "api", "gitlab", nil)
		notifier.On("SendMessage", mock.Anything, mock.Anything).Return(false, "channel_not_found", nil)

		result, err := handler.Handle(ctx, handlerTarget(), HandleOptions{})

		require.NoError(t, err)
		assert.Equal(t, "uat/1.0.1", result.TagName)
	})

	t.Run("Tracker error fails the repository", func(t *testing.T) {
		mockGit := new(MockGitService)
		store := new(MockManifest)
		trackerErr := errors.New("jira down")
		handler := newTestHandler(mockGit, store, WithHandlerReleasability(func(context.Context, string) (bool, error) {
			return false, trackerErr
		}))

		expectScan(mockGit, handlerCommits)

		result, err := handler.Handle(ctx, handlerTarget(), HandleOptions{})

		assert.ErrorIs(t, err, trackerErr)
		assert.Nil(t, result)
	})

	t.Run("Unreadable manifest fails before any write", func(t *testing.T) {
		mockGit := new(MockGitService)
		store := new(MockManifest)
		manifestErr := errors.New("no version")
		handler := newTestHandler(mockGit, store)

		expectScan(mockGit, handlerCommits)
		store.On("CurrentVersion").Return(semver.Version{}, manifestErr)

		_, err := handler.Handle(ctx, handlerTarget(), HandleOptions{})

		assert.ErrorIs(t, err, manifestErr)
		mockGit.AssertNotCalled(t, "GetCurrentBranch", mock.Anything)
	})
}

func TestRepositoryHandler_Integration(t *testing.T) {
	repo := newReleaseRepo(t)
	first := repo.commit(t, "a.go", "package a\n", "HOST-1 add endpoint")
	repo.commit(t, "b.go", "package b\n", "HOST-2 still in review")
	repo.commit(t, "c.go", "package c\n", "HOST-3 ready")

	target := models.RepositoryTarget{
		Path:         repo.dir,
		MasterBranch: "Master",
		TagPrefix:    "uat/",
		TicketPrefix: "HOST",
	}
	ready := map[string]bool{"HOST-1": true, "HOST-3": true}
	handler := NewRepositoryHandler(WithHandlerReleasability(releasableSet(ready, map[string]int{})))

	result, err := handler.Handle(context.Background(), target, HandleOptions{})

	require.NoError(t, err)
	assert.Equal(t, first, result.Boundary.Commit.SHA)
	assert.False(t, result.Boundary.IsBranchTip)
	assert.Equal(t, "uat/1.0.1", result.TagName)
	assert.Equal(t, first, result.TagTarget)
	assert.Equal(t, []string{"HOST-1"}, result.Tickets())
	assert.Equal(t, first, runGit(t, repo.remote, "rev-parse", "uat/1.0.1^{commit}"))
	assert.Equal(t, result.VersionCommit, repo.remoteHead(t))
	assert.Contains(t, repo.manifest(t), `"version": "1.0.1"`)

	t.Run("Second run starts after the new tag", func(t *testing.T) {
		again, err := handler.Handle(context.Background(), target, HandleOptions{DryRun: true})

		require.NoError(t, err)
		assert.Empty(t, again.TagName)
		require.Len(t, again.Commits, 2)
		assert.Equal(t, "HOST-2", again.Commits[0].TicketID)
		assert.True(t, again.Boundary.Empty())
	})
}
