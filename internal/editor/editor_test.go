package editor

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("editor scripts need a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func quietExec() *Exec {
	return &Exec{Stdin: bytes.NewReader(nil), Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
}

func TestExec_Run_Success(t *testing.T) {
	requireShell(t)
	path := filepath.Join(t.TempDir(), "doc.json")

	res, err := quietExec().Run(`sh -c 'printf saved > "$0"'`, path)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "saved", string(content))
}

func TestExec_Run_NonZeroExitIsNotAnError(t *testing.T) {
	requireShell(t)

	res, err := quietExec().Run(`sh -c 'exit 3'`, "ignored")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.ExitCode)
}

func TestExec_Run_LaunchErrors(t *testing.T) {
	tests := []struct {
		name    string
		command string
	}{
		{"empty", "   "},
		{"unbalanced quotes", `vim "oops`},
		{"missing binary", "definitely-not-an-editor-binary-1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietExec().Run(tt.command, "doc.json")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLaunch)
		})
	}
}
