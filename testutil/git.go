// Package testutil builds throwaway git repositories for tests that
// exercise the real git binary.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// SetupRepo creates a temporary repository with an initial commit on
// "main". The directory is removed when the test ends.
func SetupRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	Git(t, dir, "init")
	Git(t, dir, "config", "user.email", "test@test.com")
	Git(t, dir, "config", "user.name", "Test User")
	Git(t, dir, "checkout", "-b", "main")

	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# Test Repository\n"), 0o644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	Git(t, dir, "add", ".")
	Git(t, dir, "commit", "-m", "Initial commit")

	return dir
}

// SetupRepoWithFiles creates a repository whose initial history also
// contains the given files.
func SetupRepoWithFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := SetupRepo(t)
	for path, content := range files {
		WriteFile(t, dir, path, content)
	}
	Git(t, dir, "add", ".")
	Git(t, dir, "commit", "-m", "Add files")
	return dir
}

// SetupRemote creates a bare repository, wires it as origin and pushes
// main, so push paths have somewhere real to go.
func SetupRemote(t *testing.T, repoDir string) string {
	t.Helper()

	remote := t.TempDir()
	cmd := exec.Command("git", "init", "--bare")
	cmd.Dir = remote
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git init --bare: %v\n%s", err, out)
	}
	Git(t, repoDir, "remote", "add", "origin", remote)
	Git(t, repoDir, "push", "-u", "origin", "main")
	return remote
}

// CreateBranch creates and checks out a branch.
func CreateBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	Git(t, repoDir, "checkout", "-b", branch)
}

// SwitchBranch checks out an existing branch.
func SwitchBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	Git(t, repoDir, "checkout", branch)
}

// WriteFile writes a file under the repository without committing it.
func WriteFile(t *testing.T, repoDir, path, content string) {
	t.Helper()

	full := filepath.Join(repoDir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// CommitFile writes a file and commits it.
func CommitFile(t *testing.T, repoDir, path, content, message string) {
	t.Helper()

	WriteFile(t, repoDir, path, content)
	Git(t, repoDir, "add", path)
	Git(t, repoDir, "commit", "-m", message)
}

// CurrentBranch returns the checked-out branch name.
func CurrentBranch(t *testing.T, repoDir string) string {
	t.Helper()
	return GitOutput(t, repoDir, "branch", "--show-current")
}

// HeadSHA returns the commit HEAD points at.
func HeadSHA(t *testing.T, repoDir string) string {
	t.Helper()
	return GitOutput(t, repoDir, "rev-parse", "HEAD")
}

// CommitMessage returns the subject of the HEAD commit.
func CommitMessage(t *testing.T, repoDir string) string {
	t.Helper()
	return GitOutput(t, repoDir, "log", "-1", "--format=%s")
}

// ReadFile reads a file under the repository.
func ReadFile(t *testing.T, repoDir, path string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(repoDir, path))
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// Git runs a git command in dir, failing the test on error.
func Git(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test User",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test User",
		"GIT_COMMITTER_EMAIL=test@test.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

// GitOutput runs a git command in dir and returns its trimmed stdout.
func GitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
	return strings.TrimSpace(string(out))
}
