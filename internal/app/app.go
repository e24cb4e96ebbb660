package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bassista/create_gh_repo/internal/config"
	"github.com/bassista/create_gh_repo/internal/github"
	"github.com/bassista/create_gh_repo/internal/gitops"
	"github.com/bassista/create_gh_repo/internal/logger"
	"github.com/bassista/create_gh_repo/internal/manifest"
	"github.com/bassista/create_gh_repo/internal/prompt"
	"github.com/bassista/create_gh_repo/internal/session"
	"github.com/sirupsen/logrus"
)

// tokenUsername is sent as the git username when a token is used without
// one; GitHub only looks at the password.
const tokenUsername = "x-access-token"

// Editor lets the user edit the repository parameters.
type Editor interface {
	Run(ctx context.Context, record manifest.Record) (session.Outcome, error)
	Resume(ctx context.Context, text []byte) (session.Outcome, error)
}

// Creator creates the repository on GitHub.
type Creator interface {
	CreateRepository(ctx context.Context, r manifest.Record) (*github.Repository, error)
}

// App is the application container: the resolved options and the
// collaborators one invocation runs through.
type App struct {
	Options *config.Options
	Editor  Editor
	GitHub  Creator
	Git     gitops.Operator
	Prompt  prompt.Prompter
	Out     io.Writer
}

func New(opts *config.Options, ed Editor, gh Creator, git gitops.Operator, p prompt.Prompter, out io.Writer) (*App, error) {
	if opts == nil {
		return nil, errors.New("options are nil")
	}
	if ed == nil {
		return nil, errors.New("editor is nil")
	}
	if gh == nil {
		return nil, errors.New("github client is nil")
	}
	if git == nil {
		return nil, errors.New("git operator is nil")
	}
	if p == nil {
		return nil, errors.New("prompter is nil")
	}
	if out == nil {
		out = io.Discard
	}
	return &App{Options: opts, Editor: ed, GitHub: gh, Git: git, Prompt: p, Out: out}, nil
}

// NewDefault wires the real collaborators for opts.
func NewDefault(opts *config.Options, version string) (*App, error) {
	if opts == nil {
		return nil, errors.New("options are nil")
	}
	sess := session.New(session.Config{
		Editor:       opts.Editor,
		ScratchDir:   opts.ScratchDir,
		PollInterval: opts.PollInterval,
	})
	gh := github.NewClient(opts.APIURL, opts.Auth, github.WithUserAgent("create_gh_repo/"+version))
	git := gitops.NewGoGit()
	if logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		git.Progress = os.Stderr
	}
	return New(opts, sess, gh, git, prompt.NewSurvey(), os.Stdout)
}

// Run edits the parameters, creates the repository and performs the git
// step the mode asks for. A user abort returns nil.
func (a *App) Run(ctx context.Context) error {
	log := logger.WithComponent("app")
	log.Debugf("mode=%s dir=%q auth=%s", a.Options.Mode, a.Options.Directory, a.Options.Auth)

	outcome, err := a.edit(ctx, a.template())
	if err != nil {
		return err
	}
	if !outcome.Saved() {
		fmt.Fprintln(a.Out, "Aborted: parameters were not saved, nothing was created.")
		return nil
	}

	repo, err := a.GitHub.CreateRepository(ctx, outcome.Record)
	if err != nil {
		return fmt.Errorf("create repository %q: %w", outcome.Record.Name, err)
	}
	fmt.Fprintf(a.Out, "Repository created: %s\n%s\n", repo.FullName, repo.CloneURL)

	dir := a.Options.Directory
	switch a.Options.Mode {
	case config.ModeCreate:
		return nil

	case config.ModeClone:
		wd, err := a.Git.Clone(ctx, repo.CloneURL, dir, a.credentials())
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Repository cloned into: %s\n", wd)

	case config.ModeRemotes:
		wd, err := a.Git.Remotes(ctx, repo.CloneURL, dir, a.credentials())
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Remote %s of %s set to %s\n", gitops.RemoteName, wd, repo.CloneURL)

	case config.ModePush:
		creds, err := a.pushCredentials(ctx)
		if err != nil {
			return err
		}
		if _, err := a.Git.Remotes(ctx, repo.CloneURL, dir, creds); err != nil {
			return err
		}
		wd, err := a.Git.Push(ctx, dir, creds)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Pushed %s to %s\n", wd, repo.CloneURL)

	default:
		return fmt.Errorf("unsupported mode %q", a.Options.Mode)
	}
	return nil
}

// template is the record the user starts from. When working on an existing
// repository it is named after its directory.
func (a *App) template() manifest.Record {
	record := manifest.Default()
	if a.Options.Mode != config.ModeRemotes && a.Options.Mode != config.ModePush {
		return record
	}
	name, err := a.Git.RepoName(a.Options.Directory)
	if err != nil {
		logger.WithComponent("app").Debugf("keeping default name: %v", err)
		return record
	}
	return record.WithName(name)
}

// edit runs the editor session and, when the saved parameters do not parse,
// offers to edit the rejected document again.
func (a *App) edit(ctx context.Context, record manifest.Record) (session.Outcome, error) {
	outcome, err := a.Editor.Run(ctx, record)
	for {
		if !errors.Is(err, manifest.ErrGrammarFailure) && !errors.Is(err, manifest.ErrMalformed) {
			return outcome, err
		}

		fmt.Fprintf(a.Out, "Invalid repository parameters: %v\n", err)
		again, perr := a.Prompt.Confirm(ctx, "Edit the parameters again?", true)
		if errors.Is(perr, prompt.ErrInterrupted) {
			return session.Outcome{Status: session.StatusAborted}, nil
		}
		if perr != nil {
			return session.Outcome{}, perr
		}
		if !again {
			return outcome, err
		}
		if len(outcome.Text) > 0 {
			outcome, err = a.Editor.Resume(ctx, outcome.Text)
		} else {
			outcome, err = a.Editor.Run(ctx, record)
		}
	}
}

func (a *App) credentials() gitops.Credentials {
	auth := a.Options.Auth
	user := auth.Username
	if user == "" {
		user = tokenUsername
	}
	return gitops.Credentials{Username: user, Password: auth.Secret}
}

// pushCredentials asks for whatever the options did not provide.
func (a *App) pushCredentials(ctx context.Context) (gitops.Credentials, error) {
	creds := a.credentials()
	if a.Options.Auth.Username == "" {
		user, err := a.Prompt.Input(ctx, "GitHub username for push", tokenUsername)
		if err != nil {
			return gitops.Credentials{}, err
		}
		creds.Username = user
	}
	if creds.Password == "" {
		secret, err := a.Prompt.Password(ctx, "GitHub token or password for push")
		if err != nil {
			return gitops.Credentials{}, err
		}
		creds.Password = secret
	}
	return creds, nil
}
