package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bassista/create_gh_repo/internal/app"
	"github.com/bassista/create_gh_repo/internal/config"
	"github.com/bassista/create_gh_repo/internal/logger"
	"github.com/bassista/create_gh_repo/internal/prompt"
	"github.com/bassista/create_gh_repo/internal/reporting"
	"github.com/spf13/cobra"
)

var version = "dev"

// runFunc runs one invocation with resolved options.
type runFunc func(ctx context.Context, opts *config.Options) error

func newRootCmd(run runFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-gh-repo [mode] [directory]",
		Short: "Create a GitHub repository from an edited parameter template",
		Long: `create-gh-repo opens your editor on a commented JSON template of the new
repository's parameters. Save and close the editor to create the repository;
close it without saving (or with a failing exit status) to abort.

Modes:
  create   only create the repository on GitHub
  clone    create it, then clone it into [directory] (default)
  remotes  create it, then point origin of the repository in [directory] at it
  push     like remotes, then push the current branch

Environment:
  EDITOR, VISUAL     editor command (--editor)
  GITHUB_USERNAME    account username (--user)
  GITHUB_TOKEN       personal access token (--token)
  GITHUB_PASSWORD    account password (--password)
  CREATE_GH_REPO_*   override any option, e.g. CREATE_GH_REPO_API_URL
  HONEYBADGER_API_KEY  report failures to Honeybadger`,
		Args:          cobra.MaximumNArgs(2),
		ValidArgs:     modeNames(),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.Load(cmd.Flags(), args)
			if err != nil {
				return err
			}
			if err := logger.SetLevel(opts.LogLevel); err != nil {
				logger.WithComponent("main").Warnf("invalid log level '%s': %v", opts.LogLevel, err)
			}
			return run(cmd.Context(), opts)
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive(config.FlagToken, config.FlagPassword)
	return cmd
}

func modeNames() []string {
	names := make([]string, len(config.Modes))
	for i, m := range config.Modes {
		names[i] = string(m)
	}
	return names
}

func runApp(ctx context.Context, opts *config.Options) error {
	a, err := app.NewDefault(opts, version)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, run runFunc, stderr io.Writer, rep *reporting.Reporter) int {
	var mode config.Mode
	cmd := newRootCmd(func(ctx context.Context, opts *config.Options) error {
		mode = opts.Mode
		return run(ctx, opts)
	})
	cmd.SetArgs(args)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, prompt.ErrInterrupted), errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "Aborted.")
		return 0
	case config.IsMissingParameter(err):
		fmt.Fprintf(stderr, "Error: %v\nRun '%s --help' for usage.\n", err, cmd.Name())
		return 1
	}

	tags := []string{"cli"}
	if mode != "" {
		tags = append(tags, string(mode))
	}
	rep.Notify(err, tags...)
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rep := reporting.FromEnv()

	code := execute(ctx, os.Args[1:], runApp, os.Stderr, rep)

	stop()
	rep.Flush()
	os.Exit(code)
}
