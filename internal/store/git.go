package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	log "github.com/nghyane/mux-console/internal/logging"
)

const reportsSubdir = "reports"

// GitArchive commits reports into a clone of a remote repository and
// pushes after every Put, so the remote doubles as an off-box backup.
type GitArchive struct {
	remoteURL string
	username  string
	password  string
	baseDir   string

	mu   sync.Mutex
	repo *git.Repository
}

// NewGitArchive prepares a git archive for the given remote.
// Call SetBaseDir and EnsureRepository before first use.
func NewGitArchive(remoteURL, username, password string) *GitArchive {
	return &GitArchive{
		remoteURL: remoteURL,
		username:  username,
		password:  password,
	}
}

// SetBaseDir sets the local clone path.
func (a *GitArchive) SetBaseDir(dir string) {
	a.baseDir = dir
}

// Location returns the remote URL for logs.
func (a *GitArchive) Location() string {
	return a.remoteURL
}

// EnsureRepository clones the remote on first run and opens the existing
// clone afterwards. The remote must already contain an initial commit.
func (a *GitArchive) EnsureRepository() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.remoteURL == "" {
		return fmt.Errorf("store: git remote URL is required")
	}
	if a.baseDir == "" {
		return fmt.Errorf("store: git local path is required")
	}

	repo, err := git.PlainClone(a.baseDir, false, &git.CloneOptions{
		URL:  a.remoteURL,
		Auth: a.auth(),
	})
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryAlreadyExists) {
			return fmt.Errorf("store: clone %s: %w", a.remoteURL, err)
		}
		repo, err = git.PlainOpen(a.baseDir)
		if err != nil {
			return fmt.Errorf("store: open git archive: %w", err)
		}
		if wt, wtErr := repo.Worktree(); wtErr == nil {
			if pullErr := wt.Pull(&git.PullOptions{Auth: a.auth()}); pullErr != nil && !errors.Is(pullErr, git.NoErrAlreadyUpToDate) {
				log.Warnf("git archive pull failed, continuing with local clone: %v", pullErr)
			}
		}
	}

	a.repo = repo
	return nil
}

func (a *GitArchive) Put(ctx context.Context, report Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateReport(report); err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.repo == nil {
		return "", fmt.Errorf("store: git archive not initialized")
	}

	wt, err := a.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("store: worktree: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(a.baseDir, reportsSubdir), 0o755); err != nil {
		return "", fmt.Errorf("store: create reports dir: %w", err)
	}

	base := BaseName(report.Window, reportCreatedAt(report))
	parts := []struct {
		ext  string
		data []byte
	}{
		{".html", report.HTML},
		{".json", report.JSON},
	}
	for _, part := range parts {
		if len(part.data) == 0 {
			continue
		}
		rel := path.Join(reportsSubdir, base+part.ext)
		if err := os.WriteFile(filepath.Join(a.baseDir, filepath.FromSlash(rel)), part.data, 0o644); err != nil {
			return "", fmt.Errorf("store: write %s: %w", rel, err)
		}
		if _, err := wt.Add(rel); err != nil {
			return "", fmt.Errorf("store: stage %s: %w", rel, err)
		}
	}

	msg := "usage report " + base
	if report.ID != "" {
		msg += " (" + report.ID + ")"
	}
	if _, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "mux-console",
			Email: "mux-console@localhost",
			When:  time.Now(),
		},
	}); err != nil {
		return "", fmt.Errorf("store: commit report: %w", err)
	}

	if err := a.repo.Push(&git.PushOptions{Auth: a.auth()}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", fmt.Errorf("store: push report: %w", err)
	}

	return base, nil
}

func (a *GitArchive) List(ctx context.Context) ([]ReportInfo, error) {
	a.mu.Lock()
	dir := filepath.Join(a.baseDir, reportsSubdir)
	a.mu.Unlock()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	return (&FSArchive{dir: dir}).List(ctx)
}

func (a *GitArchive) Close() error {
	return nil
}

// auth returns nil when no credentials are configured so go-git falls back
// to anonymous access.
func (a *GitArchive) auth() transport.AuthMethod {
	if a.username == "" && a.password == "" {
		return nil
	}
	username := a.username
	if username == "" {
		// token auth still needs a non-empty username
		username = "mux-console"
	}
	return &githttp.BasicAuth{Username: username, Password: a.password}
}
