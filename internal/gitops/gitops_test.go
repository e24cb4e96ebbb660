package gitops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetDir(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		dir     string
		want    string
		wantErr bool
	}{
		{name: "explicit dir wins", url: "https://github.com/o/hello.git", dir: "elsewhere", want: "elsewhere"},
		{name: "https clone url", url: "https://github.com/o/hello.git", want: "hello"},
		{name: "no extension", url: "https://github.com/o/hello", want: "hello"},
		{name: "trailing slash", url: "https://github.com/o/hello/", want: "hello"},
		{name: "dotted name", url: "https://github.com/o/my.lib.git", want: "my.lib"},
		{name: "scp style", url: "git@github.com:o/hello.git", want: "hello"},
		{name: "scp style without owner", url: "git@host:hello.git", want: "hello"},
		{name: "local path", url: "/srv/git/hello.git", want: "hello"},
		{name: "no path", url: "https://github.com", wantErr: true},
		{name: "only extension", url: "https://github.com/o/.git", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TargetDir(tt.url, tt.dir)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTargetDir)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckTarget(t *testing.T) {
	base := t.TempDir()

	empty := filepath.Join(base, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))

	full := filepath.Join(base, "full")
	require.NoError(t, os.Mkdir(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, "x"), nil, 0o644))

	file := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.NoError(t, checkTarget(filepath.Join(base, "missing")))
	assert.NoError(t, checkTarget(empty))
	assert.ErrorIs(t, checkTarget(full), ErrInvalidTargetDir)
	assert.ErrorIs(t, checkTarget(file), ErrInvalidTargetDir)
}

func TestSentinelsAreClassified(t *testing.T) {
	assert.True(t, errdefs.IsInvalidArgument(ErrInvalidTargetDir))
	assert.True(t, errdefs.IsFailedPrecondition(ErrRepositoryBare))
}

func TestCredentialsAuth(t *testing.T) {
	assert.Nil(t, Credentials{}.auth())
	assert.Nil(t, Credentials{Username: "octocat"}.auth())
	assert.NotNil(t, Credentials{Username: "octocat", Password: "s3cret"}.auth())
}
