package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Parse strips comments from text and decodes what remains into a Record.
// Keys missing from the document keep their Default values. Unknown,
// repeated or null keys, trailing data and values that fail validation are
// rejected.
func Parse(text []byte) (Record, error) {
	stripped, err := Strip(text)
	if err != nil {
		return Record{}, err
	}
	if err := checkKeys(stripped); err != nil {
		return Record{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(stripped))
	dec.DisallowUnknownFields()

	r := Default()
	if err := dec.Decode(&r); err != nil {
		return Record{}, malformed(stripped, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Record{}, malformed(stripped, errTrailingData)
	}
	if err := Validate(r); err != nil {
		return Record{}, &ParseError{Kind: ErrMalformed, Err: err}
	}
	return r, nil
}

func malformed(doc []byte, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &ParseError{Kind: ErrMalformed, Line: lineOf(doc, err), Err: err}
}

var recordKeys = func() map[string]bool {
	keys := make(map[string]bool, len(recordFields))
	for _, f := range recordFields {
		keys[f.key] = true
	}
	return keys
}()

// checkKeys walks the top-level object and rejects what encoding/json lets
// through: keys matching a field only case-insensitively, repeated keys and
// null values. Syntax errors are left to the decoder, which reports them with
// a position.
func checkKeys(doc []byte) error {
	dec := json.NewDecoder(bytes.NewReader(doc))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	seen := make(map[string]bool, len(recordKeys))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil
		}
		line := lineAt(doc, dec.InputOffset())
		switch {
		case !recordKeys[key]:
			return &ParseError{Kind: ErrMalformed, Line: line, Err: fmt.Errorf("%w %q", errUnknownKey, key)}
		case seen[key]:
			return &ParseError{Kind: ErrMalformed, Line: line, Err: fmt.Errorf("%w %q", errDuplicateKey, key)}
		}
		seen[key] = true

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil
		}
		if bytes.Equal(raw, []byte("null")) {
			return &ParseError{Kind: ErrMalformed, Line: line, Err: fmt.Errorf("%w for %q", errNullValue, key)}
		}
	}
	return nil
}

// lineOf maps the byte offset carried by a decoder error to a line number.
func lineOf(doc []byte, err error) int {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0
	}
	return lineAt(doc, offset)
}

func lineAt(doc []byte, offset int64) int {
	if offset > int64(len(doc)) {
		offset = int64(len(doc))
	}
	return bytes.Count(doc[:offset], []byte("\n")) + 1
}
