package gitops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bassista/create_gh_repo/internal/logger"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// GoGit implements Operator in-process with go-git.
type GoGit struct {
	// Progress receives the remote's sideband output; nil discards it.
	Progress io.Writer
}

// NewGoGit returns a GoGit that discards progress output.
func NewGoGit() *GoGit {
	return &GoGit{}
}

func (g *GoGit) Clone(ctx context.Context, repoURL, dir string, creds Credentials) (string, error) {
	target, err := TargetDir(repoURL, dir)
	if err != nil {
		return "", err
	}
	if err := checkTarget(target); err != nil {
		return "", err
	}

	logger.WithComponent("git").Debugf("cloning %s into %s", repoURL, target)
	repo, err := git.PlainCloneContext(ctx, target, false, &git.CloneOptions{
		URL:        repoURL,
		RemoteName: RemoteName,
		Auth:       creds.auth(),
		Progress:   g.Progress,
	})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		// Created without auto_init: nothing to check out yet.
		logger.WithComponent("git").Infof("%s is empty, initializing %s", repoURL, target)
		repo, err = initWithOrigin(target, repoURL)
	}
	if err != nil {
		return "", fmt.Errorf("clone %s: %w", repoURL, err)
	}
	return workdir(repo)
}

func initWithOrigin(dir, repoURL string) (*git.Repository, error) {
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, err
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: RemoteName, URLs: []string{repoURL}}); err != nil {
		return nil, err
	}
	return repo, nil
}

func (g *GoGit) Remotes(ctx context.Context, repoURL, dir string, creds Credentials) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}

	if err := setOrigin(repo, repoURL); err != nil {
		return "", err
	}

	logger.WithComponent("git").Debugf("fetching %s", repoURL)
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: RemoteName,
		Auth:       creds.auth(),
		Progress:   g.Progress,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) && !errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return "", fmt.Errorf("fetch %s: %w", RemoteName, err)
	}

	// Tracking only works once the remote has the branch; a fresh empty
	// repository does not, so failure here is not fatal.
	if branch, err := currentBranch(repo); err == nil {
		if err := setUpstream(repo, branch); err != nil {
			logger.WithComponent("git").Debugf("not tracking %s: %v", branch, err)
		}
	}
	return workdir(repo)
}

func (g *GoGit) Push(ctx context.Context, dir string, creds Credentials) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}

	branch, err := currentBranch(repo)
	if err != nil {
		return "", err
	}
	ref := plumbing.NewBranchReferenceName(branch)
	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", ref, ref))

	logger.WithComponent("git").Debugf("pushing %s to %s", refSpec, RemoteName)
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: RemoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       creds.auth(),
		Progress:   g.Progress,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", fmt.Errorf("push %s: %w", branch, err)
	}

	if err := setUpstream(repo, branch); err != nil {
		return "", fmt.Errorf("set upstream: %w", err)
	}
	return workdir(repo)
}

func (g *GoGit) RepoName(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	wd, err := workdir(repo)
	if err != nil {
		return "", err
	}
	return filepath.Base(wd), nil
}

// open opens the repository at dir, or discovers the one containing the
// working directory when dir is empty.
func open(dir string) (*git.Repository, error) {
	if dir != "" {
		repo, err := git.PlainOpen(dir)
		if err != nil {
			return nil, fmt.Errorf("open repository %s: %w", dir, err)
		}
		return repo, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(cwd, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("find repository from %s: %w", cwd, err)
	}
	return repo, nil
}

func workdir(repo *git.Repository) (string, error) {
	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return "", ErrRepositoryBare
	}
	if err != nil {
		return "", err
	}
	return filepath.Abs(wt.Filesystem.Root())
}

func setOrigin(repo *git.Repository, repoURL string) error {
	_, err := repo.Remote(RemoteName)
	switch {
	case errors.Is(err, git.ErrRemoteNotFound):
		_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: RemoteName, URLs: []string{repoURL}})
		if err != nil {
			return fmt.Errorf("create remote %s: %w", RemoteName, err)
		}
		return nil
	case err != nil:
		return err
	}

	cfg, err := repo.Config()
	if err != nil {
		return err
	}
	cfg.Remotes[RemoteName].URLs = []string{repoURL}
	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("update remote %s: %w", RemoteName, err)
	}
	return nil
}

// currentBranch reads HEAD without resolving it, so it also works before the
// first commit.
func currentBranch(repo *git.Repository) (string, error) {
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	if head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		return head.Target().Short(), nil
	}
	if head.Type() == plumbing.HashReference {
		return "", errors.New("HEAD is detached")
	}
	return "", fmt.Errorf("HEAD points to %s, not a branch", head.Target())
}

// setUpstream makes branch track origin/branch. The local branch must exist.
func setUpstream(repo *git.Repository, branch string) error {
	ref := plumbing.NewBranchReferenceName(branch)
	if _, err := repo.Reference(ref, false); err != nil {
		return fmt.Errorf("branch %s: %w", branch, err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return err
	}
	cfg.Branches[branch] = &gitconfig.Branch{Name: branch, Remote: RemoteName, Merge: ref}
	return repo.SetConfig(cfg)
}
