package manifest

import (
	"bytes"
)

var bom = []byte("\xef\xbb\xbf")

// Strip removes comments from text. Each line is scanned left to right with a
// single quoted/unquoted mode flag; the first Marker seen outside a quoted
// literal drops the rest of the line. Newlines are kept so line numbers in
// later errors still match the document the user edited.
func Strip(text []byte) ([]byte, error) {
	text = bytes.TrimPrefix(text, bom)
	out := make([]byte, 0, len(text))

	lineNo := 0
	for len(text) > 0 {
		lineNo++
		line := text
		rest := []byte(nil)
		if i := bytes.IndexByte(text, '\n'); i >= 0 {
			line, rest = text[:i+1], text[i+1:]
		}

		kept, err := stripLine(line)
		if err != nil {
			return nil, &ParseError{Kind: ErrGrammarFailure, Line: lineNo, Err: err}
		}
		out = append(out, kept...)
		text = rest
	}
	return out, nil
}

// stripLine returns the part of line that precedes an unquoted comment,
// plus the line terminator if there was one.
func stripLine(line []byte) ([]byte, error) {
	body := bytes.TrimSuffix(line, []byte("\n"))
	eol := line[len(body):]

	quoted, escaped := false, false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if quoted {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				quoted = false
			}
			continue
		}
		if c == '"' {
			quoted = true
			continue
		}
		if bytes.HasPrefix(body[i:], []byte(Marker)) {
			return append(body[:i:i], eol...), nil
		}
	}
	if quoted {
		return nil, errUnterminatedString
	}
	return line, nil
}
