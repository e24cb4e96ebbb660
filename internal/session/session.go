package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bassista/create_gh_repo/internal/editor"
	"github.com/bassista/create_gh_repo/internal/logger"
	"github.com/bassista/create_gh_repo/internal/manifest"
	"github.com/bassista/create_gh_repo/internal/watcher"
)

// ErrScratch is returned when the scratch document cannot be created.
var ErrScratch = errors.New("session: cannot create scratch document")

// Config is what a session needs from the resolved command-line options.
type Config struct {
	Editor       string
	ScratchDir   string
	PollInterval time.Duration
}

// Outcome is the result of a session. When parsing failed, Text holds the
// rejected document so it can be offered again with Resume.
type Outcome struct {
	Status Status
	Record manifest.Record
	Text   []byte
}

// Saved reports whether the user saved usable parameters.
func (o Outcome) Saved() bool {
	return o.Status == StatusSaved
}

// Observer is a running write watch on the scratch document.
type Observer interface {
	// Stop ends the watch, waits for it to finish and reports whether the
	// document was written.
	Stop() bool
	// Err is non-nil when the write signal cannot be trusted.
	Err() error
}

// ObserveFunc starts an Observer on path.
type ObserveFunc func(path string) (Observer, error)

// Option configures a Session.
type Option func(*Session)

// WithEditor replaces the process-spawning editor runner.
func WithEditor(r editor.Runner) Option {
	return func(s *Session) { s.editor = r }
}

// WithObserver replaces the fsnotify-backed watcher.
func WithObserver(fn ObserveFunc) Option {
	return func(s *Session) { s.observe = fn }
}

// Session runs render, edit, decide and parse for one parameter record.
// A Session may be run again after it returns, but not concurrently.
type Session struct {
	cfg     Config
	editor  editor.Runner
	observe ObserveFunc
	state   State
}

// New creates a Session. Without options it spawns cfg.Editor as a child
// process and watches the scratch document with fsnotify.
func New(cfg Config, opts ...Option) *Session {
	s := &Session{cfg: cfg, editor: editor.NewExec(), state: Idle}
	s.observe = func(path string) (Observer, error) {
		w, err := watcher.Observe(path, watcher.WithPollInterval(cfg.PollInterval))
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the state the last Run reached.
func (s *Session) State() State {
	return s.state
}

// Run lets the user edit record and returns what they saved. Closing the
// editor with a failed exit status, or without writing the document, yields
// an Aborted outcome and a nil error. Parse failures are returned as
// manifest.ErrGrammarFailure or manifest.ErrMalformed. The scratch document is
// removed before Run returns.
func (s *Session) Run(ctx context.Context, record manifest.Record) (Outcome, error) {
	s.state = Idle

	s.transition(Rendering)
	text, err := manifest.Render(record)
	if err != nil {
		return s.fail(fmt.Errorf("render template: %w", err))
	}
	return s.edit(ctx, text)
}

// Resume is Run starting from text instead of a rendered record, typically
// the Text of an Outcome whose document did not parse.
func (s *Session) Resume(ctx context.Context, text []byte) (Outcome, error) {
	s.state = Idle
	s.transition(Rendering)
	return s.edit(ctx, text)
}

func (s *Session) edit(ctx context.Context, text []byte) (Outcome, error) {
	doc, err := createScratch(s.cfg.ScratchDir, text)
	if err != nil {
		return s.fail(fmt.Errorf("%w: %w", ErrScratch, err))
	}
	defer doc.remove()

	// Last point at which the session can be cancelled; once the editor is
	// running only the user can end it.
	if err := ctx.Err(); err != nil {
		return s.fail(err)
	}

	obs, err := s.observe(doc.path)
	if err != nil {
		return s.fail(err)
	}

	s.transition(Editing)
	res, runErr := s.editor.Run(s.cfg.Editor, doc.path)
	written := obs.Stop()
	if runErr != nil {
		return s.fail(runErr)
	}
	if err := obs.Err(); err != nil {
		return s.fail(err)
	}

	s.transition(Deciding)
	logger.WithComponent("session").Debugf("editor success=%v exit=%d, write observed=%v", res.Success, res.ExitCode, written)
	if !res.Success || !written {
		s.transition(Aborted)
		return Outcome{Status: StatusAborted}, nil
	}

	s.transition(Parsing)
	content, err := doc.read()
	if err != nil {
		return s.fail(err)
	}
	if bytes.Equal(content, doc.initial) {
		logger.WithComponent("session").Debug("document saved without changes")
	}
	parsed, err := manifest.Parse(content)
	if err != nil {
		s.transition(Failed)
		return Outcome{Text: content}, err
	}

	s.transition(Completed)
	return Outcome{Status: StatusSaved, Record: parsed}, nil
}

func (s *Session) transition(next State) {
	logger.WithComponent("session").Debugf("%s -> %s", s.state, next)
	s.state = next
}

func (s *Session) fail(err error) (Outcome, error) {
	s.transition(Failed)
	return Outcome{}, err
}
