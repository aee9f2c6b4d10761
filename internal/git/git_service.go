package git

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/models"
	"github.com/thomas-vilte/materelease/internal/regex"
)

const (
	fieldSep  = "\x00"
	recordSep = "\x1e"
)

// GitService runs git commands against a single repository.
type GitService struct {
	repoPath string
	remote   string
	creds    models.Credentials
	author   models.Author
}

func NewGitService(target models.RepositoryTarget) *GitService {
	remote := target.RemoteName
	if remote == "" {
		remote = "origin"
	}
	return &GitService{
		repoPath: target.Path,
		remote:   remote,
		creds:    target.Credentials,
		author:   target.Author,
	}
}

func (s *GitService) RepoPath() string {
	return s.repoPath
}

// ResolveBranch finds a local branch by case-insensitive name and returns
// its real name. An exact match wins over a case-folded one.
func (s *GitService) ResolveBranch(ctx context.Context, name string) (string, error) {
	out, err := s.run(ctx, "for-each-ref", "--format=%(refname)", "refs/heads/")
	if err != nil {
		return "", errors.ErrBranchNotFound.WithError(err).WithContext("branch", name)
	}

	var folded string
	for _, line := range splitLines(out) {
		branch := strings.TrimPrefix(line, "refs/heads/")
		if branch == name {
			return branch, nil
		}
		if folded == "" && strings.EqualFold(branch, name) {
			folded = branch
		}
	}
	if folded != "" {
		return folded, nil
	}

	return "", errors.ErrBranchNotFound.
		WithError(fmt.Errorf("unable to find %s in repository", name)).
		WithContext("branch", name)
}

// GetCurrentBranch returns the checked out branch, empty on a detached HEAD.
func (s *GitService) GetCurrentBranch(ctx context.Context) (string, error) {
	out, err := s.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (s *GitService) ListTags(ctx context.Context) ([]models.TagRef, error) {
	out, err := s.run(ctx, "for-each-ref",
		"--format=%(refname)"+"%00"+"%(objectname)"+"%00"+"%(*objectname)",
		"refs/tags/")
	if err != nil {
		return nil, errors.ErrListTags.WithError(err)
	}

	var tags []models.TagRef
	for _, line := range splitLines(out) {
		parts := strings.Split(line, fieldSep)
		if len(parts) != 3 {
			continue
		}
		sha := parts[2]
		if sha == "" {
			sha = parts[1]
		}
		tags = append(tags, models.TagRef{
			Name:      strings.TrimPrefix(parts[0], "refs/tags/"),
			CommitSHA: sha,
		})
	}
	return tags, nil
}

// GetCommitsBetween lists commits reachable from include and not from
// exclude, ancestors first and otherwise oldest first.
func (s *GitService) GetCommitsBetween(ctx context.Context, exclude, include string) ([]models.Commit, error) {
	out, err := s.run(ctx, "log",
		"--date-order", "--reverse",
		"--format=%H"+"%x00"+"%B"+"%x1e",
		include, "^"+exclude, "--")
	if err != nil {
		return nil, errors.ErrGetCommits.WithError(err)
	}

	var commits []models.Commit
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		parts := strings.SplitN(record, fieldSep, 2)
		if len(parts) != 2 {
			continue
		}
		commits = append(commits, models.Commit{
			SHA:     parts[0],
			Message: strings.TrimSpace(parts[1]),
		})
	}
	return commits, nil
}

func (s *GitService) FetchTags(ctx context.Context) error {
	target, err := s.remoteTarget(ctx)
	if err != nil {
		return err
	}
	if _, err := s.run(ctx, "fetch", "--tags", target); err != nil {
		return errors.ErrFetchTags.WithError(err)
	}
	return nil
}

func (s *GitService) HeadSHA(ctx context.Context) (string, error) {
	out, err := s.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (s *GitService) AddFileToStaging(ctx context.Context, file string) error {
	if _, err := s.run(ctx, "add", "--", file); err != nil {
		return errors.ErrAddFile.WithError(err).WithContext("file", file)
	}
	return nil
}

// CreateCommit commits files and returns the new commit sha. Changes staged
// for other paths stay in the index. With no files the whole index is
// committed.
func (s *GitService) CreateCommit(ctx context.Context, message string, files []string) (string, error) {
	args := []string{}
	if s.author.Name != "" {
		args = append(args, "-c", "user.name="+s.author.Name)
	}
	if s.author.Email != "" {
		args = append(args, "-c", "user.email="+s.author.Email)
	}
	args = append(args, "commit", "-m", message)
	if len(files) > 0 {
		args = append(args, "--only", "--")
		args = append(args, files...)
	}

	if _, err := s.run(ctx, args...); err != nil {
		return "", errors.ErrCreateCommit.WithError(err)
	}
	return s.HeadSHA(ctx)
}

// PushBranch pushes HEAD to refs/heads/<branch> on the remote.
func (s *GitService) PushBranch(ctx context.Context, branch string) error {
	target, err := s.remoteTarget(ctx)
	if err != nil {
		return errors.ErrPush.WithError(err)
	}
	if _, err := s.run(ctx, "push", target, "HEAD:refs/heads/"+branch); err != nil {
		return errors.ErrPush.WithError(err).WithContext("branch", branch)
	}
	return nil
}

// TagExists checks local tags, ignoring case.
func (s *GitService) TagExists(ctx context.Context, name string) (bool, error) {
	out, err := s.run(ctx, "tag", "--list")
	if err != nil {
		return false, errors.ErrValidateTag.WithError(err)
	}
	for _, tag := range splitLines(out) {
		if strings.EqualFold(tag, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *GitService) RemoteTagExists(ctx context.Context, name string) (bool, error) {
	target, err := s.remoteTarget(ctx)
	if err != nil {
		return false, errors.ErrValidateTag.WithError(err)
	}
	out, err := s.run(ctx, "ls-remote", "--tags", target, "refs/tags/"+name)
	if err != nil {
		return false, errors.ErrValidateTag.WithError(err).WithContext("remote", s.remote)
	}
	return strings.TrimSpace(out) != "", nil
}

// CreateTag applies a lightweight tag to sha.
func (s *GitService) CreateTag(ctx context.Context, name, sha string) error {
	if _, err := s.run(ctx, "tag", name, sha); err != nil {
		return errors.ErrCreateTag.WithError(err).WithContext("tag", name)
	}
	return nil
}

func (s *GitService) PushTag(ctx context.Context, name string) error {
	target, err := s.remoteTarget(ctx)
	if err != nil {
		return errors.ErrPushTag.WithError(err)
	}
	if _, err := s.run(ctx, "push", target, "refs/tags/"+name); err != nil {
		return errors.ErrPushTag.WithError(err).WithContext("tag", name)
	}
	return nil
}

func (s *GitService) DeleteTag(ctx context.Context, name string) error {
	if _, err := s.run(ctx, "tag", "-d", name); err != nil {
		return errors.ErrDeleteTag.WithError(err).WithContext("tag", name)
	}
	return nil
}

// DiscardChanges resets the index and tracked files to HEAD.
func (s *GitService) DiscardChanges(ctx context.Context) error {
	if _, err := s.run(ctx, "reset", "--hard", "HEAD"); err != nil {
		return errors.ErrResetRepository.WithError(err)
	}
	return nil
}

// RemoveCommit drops sha from the branch. sha must be the current HEAD.
func (s *GitService) RemoveCommit(ctx context.Context, sha string) error {
	head, err := s.HeadSHA(ctx)
	if err != nil {
		return errors.ErrResetRepository.WithError(err)
	}
	if head != sha {
		return errors.ErrInvalidRepositoryState.
			WithError(fmt.Errorf("HEAD is %s, expected %s", head, sha)).
			WithContext("repository", s.repoPath)
	}
	if _, err := s.run(ctx, "reset", "--hard", sha+"~1"); err != nil {
		return errors.ErrResetRepository.WithError(err)
	}
	return nil
}

func (s *GitService) GetRemoteURL(ctx context.Context) (string, error) {
	out, err := s.run(ctx, "remote", "get-url", s.remote)
	if err != nil {
		return "", errors.ErrGetRepoURL.WithError(err).WithContext("remote", s.remote)
	}
	return strings.TrimSpace(out), nil
}

// GetRepoInfo returns owner, repository name and hosting provider of the remote.
func (s *GitService) GetRepoInfo(ctx context.Context) (string, string, string, error) {
	remoteURL, err := s.GetRemoteURL(ctx)
	if err != nil {
		return "", "", "", err
	}
	return parseRepoURL(remoteURL)
}

// remoteTarget is the remote name, or its URL carrying the configured token
// when the remote is reached over HTTP(S).
func (s *GitService) remoteTarget(ctx context.Context) (string, error) {
	if s.creds.Token == "" {
		return s.remote, nil
	}
	remoteURL, err := s.GetRemoteURL(ctx)
	if err != nil {
		return "", err
	}
	return authenticatedURL(remoteURL, s.creds), nil
}

func (s *GitService) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &CommandError{
			Args:   s.redact(strings.Join(args, " ")),
			Stderr: s.redact(strings.TrimSpace(stderr.String())),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

func (s *GitService) redact(text string) string {
	if s.creds.Token == "" {
		return text
	}
	return strings.ReplaceAll(text, s.creds.Token, "****")
}

// CommandError is a failed git invocation with its captured stderr.
type CommandError struct {
	Args   string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("git %s: %v", e.Args, e.Err)
	}
	return fmt.Sprintf("git %s: %v: %s", e.Args, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func authenticatedURL(remoteURL string, creds models.Credentials) string {
	u, err := url.Parse(remoteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return remoteURL
	}
	if creds.Username == "" {
		u.User = url.User(creds.Token)
	} else {
		u.User = url.UserPassword(creds.Username, creds.Token)
	}
	return u.String()
}

func parseRepoURL(remoteURL string) (string, string, string, error) {
	var matches []string
	if regex.SSHRepo.MatchString(remoteURL) {
		matches = regex.SSHRepo.FindStringSubmatch(remoteURL)
	} else if regex.HTTPSRepo.MatchString(remoteURL) {
		matches = regex.HTTPSRepo.FindStringSubmatch(remoteURL)
	}

	if len(matches) >= 4 {
		provider := detectProvider(matches[1])
		repoName := strings.TrimSuffix(matches[3], ".git")
		return matches[2], repoName, provider, nil
	}

	return "", "", "", errors.ErrExtractRepoInfo.WithContext("url", remoteURL)
}

func detectProvider(host string) string {
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if strings.Contains(host, "github") {
		return "github"
	}
	if strings.Contains(host, "gitlab") {
		return "gitlab"
	}
	return "unknown"
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
