package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrGrammarFailure means the comment-stripping stage could not consume the
	// whole document, e.g. a quoted literal was left open at end of line.
	ErrGrammarFailure = errors.New("manifest: grammar failure")
	// ErrMalformed means the document, once comments were removed, was not a
	// valid parameter object.
	ErrMalformed = errors.New("manifest: malformed document")
)

var (
	errUnterminatedString = errors.New("unterminated string literal")
	errTrailingData       = errors.New("unexpected data after the closing brace")
	errUnknownKey         = errors.New("unknown key")
	errDuplicateKey       = errors.New("duplicate key")
	errNullValue          = errors.New("null value")
)

// ParseError reports where and why a document was rejected. Kind is one of
// ErrGrammarFailure or ErrMalformed; both it and Err match errors.Is.
type ParseError struct {
	Kind error
	Line int // 1-based, 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: line %d: %v", e.Kind, e.Line, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
