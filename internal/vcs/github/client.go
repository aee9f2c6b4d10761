package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/github"
	domainErrors "github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/logger"
	"github.com/thomas-vilte/materelease/internal/vcs"
	"golang.org/x/oauth2"
)

var _ vcs.ReleasePublisher = (*GitHubClient)(nil)

type ReleasesService interface {
	CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error)
	GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error)
}

type GitHubClient struct {
	releaseService ReleasesService
	owner          string
	repo           string
}

func NewGitHubClient(owner, repo, token string) *GitHubClient {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	return NewGitHubClientWithServices(client.Repositories, owner, repo)
}

func NewGitHubClientWithServices(releaseService ReleasesService, owner, repo string) *GitHubClient {
	return &GitHubClient{
		releaseService: releaseService,
		owner:          owner,
		repo:           repo,
	}
}

// CreateRelease publishes a release for tagName and returns its page URL. An
// existing release for the tag is left alone and its URL returned.
func (ghc *GitHubClient) CreateRelease(ctx context.Context, tagName, name, body string) (string, error) {
	log := logger.FromContext(ctx)

	existing, resp, err := ghc.releaseService.GetReleaseByTag(ctx, ghc.owner, ghc.repo, tagName)
	if err == nil && existing != nil {
		log.Debug("release already published", "tag", tagName, "url", existing.GetHTMLURL())
		return existing.GetHTMLURL(), nil
	}
	if err != nil && (resp == nil || resp.StatusCode != http.StatusNotFound) {
		return "", ghc.releaseError(err, resp, tagName)
	}

	releaseRequest := &github.RepositoryRelease{
		TagName:    github.String(tagName),
		Name:       github.String(name),
		Body:       github.String(body),
		Draft:      github.Bool(false),
		Prerelease: github.Bool(true),
	}

	created, resp, err := ghc.releaseService.CreateRelease(ctx, ghc.owner, ghc.repo, releaseRequest)
	if err != nil {
		return "", ghc.releaseError(err, resp, tagName)
	}

	log.Debug("release published", "tag", tagName, "url", created.GetHTMLURL())
	return created.GetHTMLURL(), nil
}

func (ghc *GitHubClient) releaseError(err error, resp *github.Response, tagName string) error {
	appErr := domainErrors.ErrCreateRelease.
		WithError(err).
		WithContext("tag", tagName).
		WithContext("repo", fmt.Sprintf("%s/%s", ghc.owner, ghc.repo))

	if resp == nil {
		return appErr
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return appErr.WithContext("reason", "invalid token")
	case http.StatusForbidden:
		return appErr.WithContext("reason", "insufficient permissions")
	case http.StatusNotFound:
		return appErr.WithContext("reason", "repository not found")
	case http.StatusUnprocessableEntity:
		return appErr.WithContext("reason", "release already exists")
	}
	return appErr.WithContext("status_code", resp.StatusCode)
}
