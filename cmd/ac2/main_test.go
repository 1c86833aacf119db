package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitCommitDecryptEndToEnd(t *testing.T) {
	dir := t.TempDir()
	app := CLI()

	require.NoError(t, app.Run([]string{
		"ac2", "init",
		"--dir", dir,
		"--label", "retro-q3",
		"--name", "A", "--name", "B", "--name", "C",
		"--min-count", "1",
	}))

	require.FileExists(t, filepath.Join(dir, "manifest.toml"))
	require.FileExists(t, filepath.Join(dir, "ac2.db"))

	for _, name := range []string{"A", "B", "C"} {
		app := CLI()
		require.NoError(t, app.Run([]string{
			"ac2", "commit",
			"--dir", dir,
			"--name", name,
			"--threshold", "1",
		}))
	}

	captured := captureStdout(t, func() {
		app := CLI()
		require.NoError(t, app.Run([]string{"ac2", "decrypt", "--dir", dir}))
	})
	require.Contains(t, captured, "A")
	require.Contains(t, captured, "B")
	require.Contains(t, captured, "C")
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	return string(buf[:n])
}
