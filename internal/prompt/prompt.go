package prompt

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrInterrupted is returned when the user interrupts a prompt (Ctrl+C).
var ErrInterrupted = errors.New("prompt: interrupted")

// Prompter asks the user for the few values the tool cannot take from flags
// or the environment.
type Prompter interface {
	Input(ctx context.Context, message, def string) (string, error)
	Password(ctx context.Context, message string) (string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

// Survey is a Prompter on the terminal.
type Survey struct {
	opts []survey.AskOpt
}

// NewSurvey returns a Survey on the process terminal.
func NewSurvey() *Survey {
	return &Survey{}
}

// NewSurveyWithStdio returns a Survey that talks over the given terminal.
func NewSurveyWithStdio(stdio terminal.Stdio) *Survey {
	return &Survey{opts: []survey.AskOpt{survey.WithStdio(stdio.In, stdio.Out, stdio.Err)}}
}

func (s *Survey) Input(ctx context.Context, message, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	p := &survey.Input{Message: message, Default: def}
	if err := survey.AskOne(p, &out, s.opts...); err != nil {
		return "", translate(err)
	}
	return out, nil
}

func (s *Survey) Password(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	p := &survey.Password{Message: message}
	opts := append([]survey.AskOpt{survey.WithValidator(survey.Required)}, s.opts...)
	if err := survey.AskOne(p, &out, opts...); err != nil {
		return "", translate(err)
	}
	return out, nil
}

func (s *Survey) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	p := &survey.Confirm{Message: message, Default: def}
	if err := survey.AskOne(p, &out, s.opts...); err != nil {
		return false, translate(err)
	}
	return out, nil
}

func translate(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrInterrupted
	}
	return err
}
