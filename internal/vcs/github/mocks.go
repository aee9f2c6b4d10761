package github

import (
	"context"

	"github.com/google/go-github/github"
	"github.com/stretchr/testify/mock"
)

type MockReleaseService struct {
	mock.Mock
}

func (m *MockReleaseService) CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error) {
	args := m.Called(ctx, owner, repo, release)
	var rel *github.RepositoryRelease
	if v := args.Get(0); v != nil {
		rel = v.(*github.RepositoryRelease)
	}
	var resp *github.Response
	if v := args.Get(1); v != nil {
		resp = v.(*github.Response)
	}
	return rel, resp, args.Error(2)
}

func (m *MockReleaseService) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error) {
	args := m.Called(ctx, owner, repo, tag)
	var rel *github.RepositoryRelease
	if v := args.Get(0); v != nil {
		rel = v.(*github.RepositoryRelease)
	}
	var resp *github.Response
	if v := args.Get(1); v != nil {
		resp = v.(*github.Response)
	}
	return rel, resp, args.Error(2)
}
