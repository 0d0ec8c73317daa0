package tantivy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOverlaysYAMLOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte("block_size: 2048\n"), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2048, opts.BlockSize)
	require.Equal(t, DefaultOptions().ArenaBlocks, opts.ArenaBlocks)
}

func TestLoadRejectsInvalidOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte("block_size: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
