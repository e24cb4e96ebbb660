package gitops

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

var (
	ErrInvalidTargetDir = fmt.Errorf("target directory is invalid: %w", errdefs.ErrInvalidArgument)
	ErrRepositoryBare   = fmt.Errorf("repository is bare: %w", errdefs.ErrFailedPrecondition)
)

// RemoteName is the remote every operation reads or writes.
const RemoteName = "origin"

// Credentials authenticate HTTPS git traffic. A GitHub token goes in Password.
type Credentials struct {
	Username string
	Password string
}

// IsZero reports whether no credentials are set.
func (c Credentials) IsZero() bool {
	return c.Password == ""
}

func (c Credentials) auth() transport.AuthMethod {
	if c.IsZero() {
		return nil
	}
	return &githttp.BasicAuth{Username: c.Username, Password: c.Password}
}

// Operator performs the local git step after the repository was created.
// Every method returns the working directory it acted on.
type Operator interface {
	// Clone clones repoURL into dir, or into a directory named after the
	// repository when dir is empty.
	Clone(ctx context.Context, repoURL, dir string, creds Credentials) (string, error)
	// Remotes points origin of the repository at dir (or the one containing
	// the working directory) to repoURL and fetches it.
	Remotes(ctx context.Context, repoURL, dir string, creds Credentials) (string, error)
	// Push pushes the current branch to origin and tracks it.
	Push(ctx context.Context, dir string, creds Credentials) (string, error)
	// RepoName returns the name of the working directory of the repository.
	RepoName(dir string) (string, error)
}

// TargetDir returns dir, or the last path element of repoURL without its
// extension ("https://github.com/o/hello.git" -> "hello").
func TargetDir(repoURL, dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}

	p := repoURL
	if u, err := url.Parse(repoURL); err == nil && u.Scheme != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndexAny(p, "/:"); i >= 0 {
		p = p[i+1:]
	}
	stem := strings.TrimSuffix(p, path.Ext(p))
	if stem == "" || stem == "." || stem == ".." {
		return "", fmt.Errorf("no repository name in %q: %w", repoURL, ErrInvalidTargetDir)
	}
	return stem, nil
}

// checkTarget accepts a path that does not exist or is an empty directory.
func checkTarget(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w: %w", dir, ErrInvalidTargetDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", dir, ErrInvalidTargetDir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", dir, ErrInvalidTargetDir, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%s is not empty: %w", dir, ErrInvalidTargetDir)
	}
	return nil
}
