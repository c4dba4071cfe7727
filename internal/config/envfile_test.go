package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEnvFilePopulatesMissingKeys(t *testing.T) {
	unsetEnv(t, "AMPLIFY_TEST_DB_URL", "AMPLIFY_TEST_QUOTED")

	path := writeEnvFile(t, "# database\nAMPLIFY_TEST_DB_URL=postgres://localhost/amplify\nexport AMPLIFY_TEST_QUOTED=\"hello world\"\n")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "postgres://localhost/amplify", os.Getenv("AMPLIFY_TEST_DB_URL"))
	assert.Equal(t, "hello world", os.Getenv("AMPLIFY_TEST_QUOTED"))
}

func TestLoadEnvFileKeepsExistingEnvironment(t *testing.T) {
	t.Setenv("AMPLIFY_TEST_PRESET", "from-env")

	path := writeEnvFile(t, "AMPLIFY_TEST_PRESET=from-file\n")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-env", os.Getenv("AMPLIFY_TEST_PRESET"))
}

func TestLoadEnvFileFeedsLoad(t *testing.T) {
	unsetEnv(t, configEnvKeys...)

	path := writeEnvFile(t, "PORT=5000\n")
	require.NoError(t, LoadEnvFile(path))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
}

func TestLoadEnvFileMissingIsNotAnError(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
	assert.NoError(t, LoadEnvFile(""))
}

func TestLoadEnvFileMalformed(t *testing.T) {
	unsetEnv(t, "AMPLIFY_TEST_GOOD")

	path := writeEnvFile(t, "AMPLIFY_TEST_GOOD=1\nBAD-KEY=2\n")

	err := LoadEnvFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	_, set := os.LookupEnv("AMPLIFY_TEST_GOOD")
	assert.False(t, set, "values from a malformed file must not be applied")
}
