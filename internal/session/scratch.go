package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bassista/create_gh_repo/internal/logger"
)

const scratchPattern = "create-gh-repo-*.json"

// scratch is the file the user edits during one session.
type scratch struct {
	path    string
	initial []byte
	final   []byte
}

// createScratch writes content to a new file in dir (os.TempDir when empty)
// and returns its absolute path. The file is closed so the editor owns it.
func createScratch(dir string, content []byte) (*scratch, error) {
	f, err := os.CreateTemp(dir, scratchPattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()

	fail := func(err error) (*scratch, error) {
		f.Close()
		os.Remove(name)
		return nil, err
	}

	if _, err := f.Write(content); err != nil {
		return fail(fmt.Errorf("write temp file: %w", err))
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("sync temp file: %w", err))
	}
	if err := f.Close(); err != nil {
		return fail(fmt.Errorf("close temp file: %w", err))
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		os.Remove(name)
		return nil, fmt.Errorf("resolve temp file: %w", err)
	}
	return &scratch{path: abs, initial: content}, nil
}

func (s *scratch) read() ([]byte, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read scratch document: %w", err)
	}
	s.final = content
	return content, nil
}

// remove deletes the file. Failures are logged only: by the time it runs the
// session already has its answer.
func (s *scratch) remove() {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.WithComponent("session").Warnf("cannot remove scratch document %s: %v", s.path, err)
	}
}
