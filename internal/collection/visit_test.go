package collection

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisit_SkipsUnreadableBelowRoot(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "locked")
	require.NoError(t, os.Mkdir(sub, 0o755))
	info, err := os.Stat(sub)
	require.NoError(t, err)
	denied := &fs.PathError{Op: "open", Path: sub, Err: fs.ErrPermission}

	var paths []string
	visit := New(root, true, Filter{}).visit(&paths)

	assert.Equal(t, fs.SkipDir, visit(sub, fs.FileInfoToDirEntry(info), denied))
	assert.NoError(t, visit(filepath.Join(root, "gone.md"), nil, denied))
	assert.ErrorIs(t, visit(root, nil, denied), fs.ErrPermission)
	assert.Empty(t, paths)
}
