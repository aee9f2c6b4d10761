package services

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("Error writing %s: %v", path, err)
	}
}

// releaseRepo is a working copy with a package.json at 1.0.0 tagged
// uat/1.0.0 and pushed to a bare origin.
type releaseRepo struct {
	dir    string
	remote string
}

func newReleaseRepo(t *testing.T) *releaseRepo {
	t.Helper()
	requireGit(t)

	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "symbolic-ref", "HEAD", "refs/heads/master")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	runGit(t, dir, "config", "tag.gpgsign", "false")

	remote := filepath.Join(t.TempDir(), "remote.git")
	runGit(t, "", "init", "-q", "--bare", remote)
	runGit(t, dir, "remote", "add", "origin", remote)

	repo := &releaseRepo{dir: dir, remote: remote}
	repo.commit(t, "package.json", "{\n  \"name\": \"api\",\n  \"version\": \"1.0.0\"\n}\n", "initial")
	runGit(t, dir, "tag", "uat/1.0.0")
	runGit(t, dir, "push", "-q", "origin", "master", "--tags")
	return repo
}

func (r *releaseRepo) commit(t *testing.T, name, content, message string) string {
	t.Helper()
	writeFile(t, filepath.Join(r.dir, name), content, 0644)
	runGit(t, r.dir, "add", name)
	runGit(t, r.dir, "commit", "-q", "-m", message)
	return r.head(t)
}

func (r *releaseRepo) head(t *testing.T) string {
	return runGit(t, r.dir, "rev-parse", "HEAD")
}

func (r *releaseRepo) status(t *testing.T) string {
	return runGit(t, r.dir, "status", "--porcelain")
}

func (r *releaseRepo) manifest(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.dir, "package.json"))
	if err != nil {
		t.Fatalf("Error reading manifest: %v", err)
	}
	return string(data)
}

func (r *releaseRepo) localTags(t *testing.T) string {
	return runGit(t, r.dir, "tag", "--list")
}

func (r *releaseRepo) remoteTags(t *testing.T) string {
	return runGit(t, r.remote, "tag", "--list")
}

func (r *releaseRepo) remoteHead(t *testing.T) string {
	return runGit(t, r.remote, "rev-parse", "refs/heads/master")
}

// rejectPushes installs a pre-receive hook on the remote that refuses refs
// matching pattern, a shell case pattern such as refs/tags/*.
func (r *releaseRepo) rejectPushes(t *testing.T, pattern string) {
	t.Helper()
	hook := "#!/bin/sh\n" +
		"while read old new ref; do\n" +
		"  case \"$ref\" in " + pattern + ") echo \"rejected $ref\" >&2; exit 1;; esac\n" +
		"done\n" +
		"exit 0\n"
	writeFile(t, filepath.Join(r.remote, "hooks", "pre-receive"), hook, 0755)
}
