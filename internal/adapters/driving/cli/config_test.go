package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEnvKey_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, writeEnvKey(path, "OPENROUTER_API_KEY", "sk-test"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "OPENROUTER_API_KEY=sk-test\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteEnvKey_ReplacesExistingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OTHER=keep\nOPENROUTER_API_KEY=old\n"), 0o600))

	require.NoError(t, writeEnvKey(path, "OPENROUTER_API_KEY", "new"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "OTHER=keep\nOPENROUTER_API_KEY=new\n", string(data))
}

func TestWriteEnvKey_AppendsNewKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OTHER=keep\n"), 0o600))

	require.NoError(t, writeEnvKey(path, "OPENROUTER_API_KEY", "sk-test"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "OTHER=keep\nOPENROUTER_API_KEY=sk-test\n", string(data))
}
