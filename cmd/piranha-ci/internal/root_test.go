package internal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bluescarni/piranha-ci/internal/matrix"
)

func setCIEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, name := range matrix.EnvNames {
		t.Setenv(name, "")
	}
	for k, val := range vars {
		t.Setenv(k, val)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	setCIEnv(t, map[string]string{
		"BUILD_TYPE":             "Python35",
		"APPVEYOR_REPO_TAG":      "true",
		"APPVEYOR_REPO_TAG_NAME": "v2.1-beta",
		"PIRANHA_CI_ROOT":        "/ci",
	})

	out, err := execute(t, "resolve")
	require.NoError(t, err)

	var got matrix.Summary
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Python35", got.BuildType)
	assert.True(t, got.Release)
	assert.Equal(t, "v2.1-beta", got.Tag)
	require.NotNil(t, got.Python)
	assert.Equal(t, filepath.Join("/ci", "Python35", "python.exe"), got.Python.Interpreter)
	assert.Nil(t, got.TestSplit)
}

func TestResolveCommandUnsupported(t *testing.T) {
	setCIEnv(t, map[string]string{
		"BUILD_TYPE":        "Python36",
		"APPVEYOR_REPO_TAG": "false",
	})

	_, err := execute(t, "resolve")
	require.Error(t, err)
	assert.True(t, errors.Is(err, matrix.ErrUnsupportedBuildType))
}

func TestPurgeCommand(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "Python27")
	require.NoError(t, os.MkdirAll(filepath.Join(tree, "Lib"), 0o755))
	file := filepath.Join(dir, "python.7z")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := execute(t, "purge", tree, file, filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.NoDirExists(t, tree)
	assert.NoFileExists(t, file)
}

func TestInvalidLogLevel(t *testing.T) {
	t.Setenv("PIRANHA_CI_LOG_LEVEL", "loud")
	_, err := execute(t, "purge", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
