package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects the git action performed after the repository is created.
type Mode string

const (
	ModeCreate  Mode = "create"
	ModeClone   Mode = "clone"
	ModeRemotes Mode = "remotes"
	ModePush    Mode = "push"
)

// Modes lists the accepted modes in help order.
var Modes = []Mode{ModeCreate, ModeClone, ModeRemotes, ModePush}

// ParseMode returns the Mode named by s; an empty string means ModeClone.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeClone, nil
	}
	for _, m := range Modes {
		if string(m) == strings.ToLower(s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q (supported: %s)", s, joinModes())
}

func joinModes() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// AuthKind tells how Secret should be presented to GitHub.
type AuthKind int

const (
	AuthToken AuthKind = iota
	AuthPassword
)

// Auth is the resolved GitHub credential.
type Auth struct {
	Kind     AuthKind
	Username string
	Secret   string
}

// IsZero reports whether no credential was resolved.
func (a Auth) IsZero() bool {
	return a.Secret == ""
}

// String never includes the secret.
func (a Auth) String() string {
	switch {
	case a.IsZero():
		return "none"
	case a.Kind == AuthPassword:
		return fmt.Sprintf("password for %s", a.Username)
	case a.Username != "":
		return fmt.Sprintf("token for %s", a.Username)
	default:
		return "token"
	}
}

// Options is the resolved configuration of one invocation.
type Options struct {
	Editor       string        `validate:"required"`
	Auth         Auth          `validate:"-"`
	Mode         Mode          `validate:"required,oneof=create clone remotes push"`
	Directory    string        `validate:"-"`
	APIURL       string        `validate:"required,url"`
	ScratchDir   string        `validate:"-"`
	LogLevel     string        `validate:"omitempty,oneof=panic fatal error warn warning info debug trace"`
	PollInterval time.Duration `validate:"gt=0"`
}

// MissingParameterError names a required option that could not be resolved
// from flags, environment or config file.
type MissingParameterError struct {
	Name string
	Hint string
}

func (e *MissingParameterError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("missing parameter: %s (%s)", e.Name, e.Hint)
	}
	return fmt.Sprintf("missing parameter: %s", e.Name)
}

// IsMissingParameter reports whether err is a *MissingParameterError.
func IsMissingParameter(err error) bool {
	var mp *MissingParameterError
	return errors.As(err, &mp)
}
