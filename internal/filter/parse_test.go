package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	ignoreFile := filepath.Join(dir, "ignore")

	content := `# version control
.git

  node_modules  
*.swp
`
	require.NoError(t, os.WriteFile(ignoreFile, []byte(content), 0o644))

	var s IgnoreSet
	require.NoError(t, s.LoadFile(ignoreFile))

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Match(".git"))
	assert.True(t, s.Match("node_modules"))
	assert.True(t, s.Match(".main.go.swp"))
	assert.False(t, s.Match("main.go"))
}

func TestLoadFileEmpty(t *testing.T) {
	dir := t.TempDir()
	ignoreFile := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(ignoreFile, []byte("# only comments\n\n"), 0o644))

	var s IgnoreSet
	require.NoError(t, s.LoadFile(ignoreFile))
	assert.Zero(t, s.Len())
}

func TestLoadFileNotExists(t *testing.T) {
	var s IgnoreSet
	assert.Error(t, s.LoadFile("/nonexistent/path"))
}

func TestLoadFileBadPattern(t *testing.T) {
	dir := t.TempDir()
	ignoreFile := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(ignoreFile, []byte("ok\nsub/*.log\n"), 0o644))

	var s IgnoreSet
	err := s.LoadFile(ignoreFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
