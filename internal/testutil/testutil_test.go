package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFileTree(t *testing.T) {
	root := t.TempDir()
	CreateFileTree(t, root, map[string]string{
		"a.py":         "x = 1\n",
		"pkg/sub/b.py": "y = 2\n",
	})

	data, err := os.ReadFile(filepath.Join(root, "pkg", "sub", "b.py"))
	require.NoError(t, err)
	assert.Equal(t, "y = 2\n", string(data))
}

func TestRepoCommit(t *testing.T) {
	r := InitRepo(t)
	first := r.Commit(t, "first", map[string]string{"app.py": "x = 1\n"})
	second := r.Commit(t, "second", map[string]string{"pkg/util.py": "y = 2\n"})

	assert.Len(t, first, 40)
	assert.NotEqual(t, first, second)

	repo, err := git.PlainOpen(r.Root)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, second, head.Hash().String())
}
