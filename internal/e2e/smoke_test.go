package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	stdout, stderr, err := runGchat(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.NotEmpty(t, strings.TrimSpace(stdout))

	stdout, stderr, err = runGchat(t, binaryPath, home, "name", "show")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "device id: ")
	assert.FileExists(t, filepath.Join(home, ".gchat", "profile.toml"))

	_, _, err = runGchat(t, binaryPath, home, "history", "--limit", "500")
	require.Error(t, err)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "gchat-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/gchat")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build gchat binary: %s", string(output))
	return binaryPath
}

func runGchat(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(), "HOME="+home, "GCHAT_SUBSCRIBE_KEY=", "GCHAT_PUBLISH_KEY=")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
