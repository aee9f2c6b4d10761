package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/materelease/internal/models"
	"github.com/thomas-vilte/materelease/internal/semver"
	"github.com/thomas-vilte/materelease/internal/tickets"
	"github.com/thomas-vilte/materelease/internal/vcs"
)

type (
	MockGitService struct {
		mock.Mock
	}

	MockManifest struct {
		mock.Mock
	}

	MockTicketManager struct {
		mock.Mock
	}

	MockNotifier struct {
		mock.Mock
	}

	MockReleasePublisher struct {
		mock.Mock
	}

	MockRepositoryHandler struct {
		mock.Mock
	}
)

var (
	_ RepositoryGitService  = (*MockGitService)(nil)
	_ VersionStore          = (*MockManifest)(nil)
	_ vcs.ReleasePublisher  = (*MockReleasePublisher)(nil)
	_ tickets.TicketManager = (*MockTicketManager)(nil)
)

func (m *MockGitService) FetchTags(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGitService) ResolveBranch(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockGitService) ListTags(ctx context.Context) ([]models.TagRef, error) {
	args := m.Called(ctx)
	if tags := args.Get(0); tags != nil {
		return tags.([]models.TagRef), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGitService) GetCommitsBetween(ctx context.Context, exclude, include string) ([]models.Commit, error) {
	args := m.Called(ctx, exclude, include)
	if commits := args.Get(0); commits != nil {
		return commits.([]models.Commit), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGitService) GetCurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockGitService) TagExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockGitService) RemoteTagExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockGitService) AddFileToStaging(ctx context.Context, file string) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockGitService) CreateCommit(ctx context.Context, message string, files []string) (string, error) {
	args := m.Called(ctx, message, files)
	return args.String(0), args.Error(1)
}

func (m *MockGitService) PushBranch(ctx context.Context, branch string) error {
	args := m.Called(ctx, branch)
	return args.Error(0)
}

func (m *MockGitService) CreateTag(ctx context.Context, name, sha string) error {
	args := m.Called(ctx, name, sha)
	return args.Error(0)
}

func (m *MockGitService) PushTag(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockGitService) DeleteTag(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockGitService) DiscardChanges(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGitService) RemoveCommit(ctx context.Context, sha string) error {
	args := m.Called(ctx, sha)
	return args.Error(0)
}

func (m *MockGitService) GetRepoInfo(ctx context.Context) (string, string, string, error) {
	args := m.Called(ctx)
	return args.String(0), args.String(1), args.String(2), args.Error(3)
}

func (m *MockManifest) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockManifest) CurrentVersion() (semver.Version, error) {
	args := m.Called()
	return args.Get(0).(semver.Version), args.Error(1)
}

func (m *MockManifest) WriteVersion(v semver.Version) error {
	args := m.Called(v)
	return args.Error(0)
}

func (m *MockTicketManager) GetLabels(ctx context.Context, ticketID string) ([]string, error) {
	args := m.Called(ctx, ticketID)
	if labels := args.Get(0); labels != nil {
		return labels.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTicketManager) GetIssues(ctx context.Context) ([]models.Issue, error) {
	args := m.Called(ctx)
	if issues := args.Get(0); issues != nil {
		return issues.([]models.Issue), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNotifier) SendMessage(ctx context.Context, text string) (bool, string, error) {
	args := m.Called(ctx, text)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *MockReleasePublisher) CreateRelease(ctx context.Context, tagName, name, body string) (string, error) {
	args := m.Called(ctx, tagName, name, body)
	return args.String(0), args.Error(1)
}

func (m *MockRepositoryHandler) Handle(ctx context.Context, target models.RepositoryTarget, opts HandleOptions) (*models.ReleaseResult, error) {
	args := m.Called(ctx, target, opts)
	if result := args.Get(0); result != nil {
		return result.(*models.ReleaseResult), args.Error(1)
	}
	return nil, args.Error(1)
}
