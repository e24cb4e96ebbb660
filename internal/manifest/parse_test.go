package manifest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderParse_RoundTrip(t *testing.T) {
	records := map[string]Record{
		"default": Default(),
		"everything set": {
			Name:              "create_gh_repo",
			Description:       "Creates GitHub repositories from the terminal",
			Homepage:          "https://example.com/create-gh-repo",
			Private:           true,
			HasIssues:         false,
			HasWiki:           true,
			HasDownloads:      true,
			AutoInit:          false,
			GitignoreTemplate: "Go",
			LicenseTemplate:   "mit",
		},
		"awkward strings": {
			Name:        "x.y-z_0",
			Description: "quotes \" backslash \\ tab \t newline \n html <b>&</b> unicode äöü 日本",
		},
		"comment marker in value": {
			Name:        "notes",
			Description: "see // notes",
			Homepage:    "http://example.com//double//slash",
		},
		"trailing backslash": {
			Name:        "slash",
			Description: `ends with \`,
		},
	}

	for name, want := range records {
		t.Run(name, func(t *testing.T) {
			doc, err := Render(want)
			require.NoError(t, err)

			got, err := Parse(doc)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender_CommentsEveryField(t *testing.T) {
	doc, err := Render(Default())
	require.NoError(t, err)

	for _, f := range recordFields {
		assert.Contains(t, string(doc), `"`+f.key+`": `)
		assert.Contains(t, string(doc), Marker+" "+f.doc)
	}
	assert.True(t, bytes.HasSuffix(doc, []byte("}\n")))
}

func TestParse_CommentSafety(t *testing.T) {
	r := Default()
	r.Description = "see // notes"

	doc, err := Render(r)
	require.NoError(t, err)

	got, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "see // notes", got.Description)
}

func TestParse_UserEdits(t *testing.T) {
	doc := []byte(`// my own header
{
  "name": "edited",// no space before the marker
  "description": "a \"quoted\" // still text", // comment
  // a whole line of commentary
  "private": true   // trailing
}
// footer
`)

	got, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Name)
	assert.Equal(t, `a "quoted" // still text`, got.Description)
	assert.True(t, got.Private)
	// untouched keys keep their defaults
	assert.True(t, got.HasIssues)
	assert.True(t, got.AutoInit)
}

func TestParse_TruncatedIsMalformed(t *testing.T) {
	doc, err := Render(Default())
	require.NoError(t, err)

	idx := bytes.LastIndexByte(doc, '}')
	require.GreaterOrEqual(t, idx, 0)
	truncated := doc[:idx]

	got, err := Parse(truncated)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.NotErrorIs(t, err, ErrGrammarFailure)
	assert.Equal(t, Record{}, got)
}

func TestParse_UnterminatedStringIsGrammarFailure(t *testing.T) {
	doc := []byte("{\n  \"name\": \"oops, // never closed\n}\n")

	_, err := Parse(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGrammarFailure)
	assert.NotErrorIs(t, err, ErrMalformed)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		line int
	}{
		{"empty", "", 0},
		{"only comments", "// nothing here\n", 0},
		{"unknown key", "{\n\"name\": \"a\",\n\"stars\": 5\n}", 3},
		{"key differs in case", "{\n\"NAME\": \"upper\",\n\"Private\": true\n}", 2},
		{"duplicate key", "{\n\"name\": \"first\",\n\"name\": \"second\"\n}", 3},
		{"null string", "{\n\"name\": null\n}", 2},
		{"null bool", "{\n\"name\": \"a\",\n\"private\": null\n}", 3},
		{"wrong type", "{\n\"name\": \"a\",\n\"private\": \"yes\"\n}", 3},
		{"missing comma", "{\n\"name\": \"a\"\n\"private\": true\n}", 3},
		{"trailing comma", "{\n\"name\": \"a\",\n}", 3},
		{"trailing data", "{\"name\": \"a\"}\n{}", 0},
		{"top level array", "[]", 1},
		{"invalid name", `{"name": "has spaces"}`, 0},
		{"empty name", `{"name": ""}`, 0},
		{"bad homepage", `{"name": "a", "homepage": "not a url"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.NotErrorIs(t, err, ErrGrammarFailure)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			if tt.line > 0 {
				assert.Equal(t, tt.line, perr.Line)
			}
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	inputs := [][]byte{
		[]byte(`{"name": "ok"}`),
		[]byte(`{"name": "ok"`),
		[]byte("{\"name\": \"ok\n"),
	}
	for _, in := range inputs {
		r1, err1 := Parse(in)
		r2, err2 := Parse(in)
		assert.Equal(t, r1, r2)
		assert.Equal(t, errors.Is(err1, ErrMalformed), errors.Is(err2, ErrMalformed))
		assert.Equal(t, errors.Is(err1, ErrGrammarFailure), errors.Is(err2, ErrGrammarFailure))
	}
}

func TestParse_ByteOrderMarkAndCRLF(t *testing.T) {
	doc := []byte("\xef\xbb\xbf// header\r\n{\r\n  \"name\": \"win\", // c\r\n  \"private\": true\r\n}\r\n")

	got, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "win", got.Name)
	assert.True(t, got.Private)
}
