package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sig = &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Unix(1500000000, 0)}

func commit(t *testing.T, repo *git.Repository, dir, content string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte(content), 0o644))
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	h, err := wt.Commit(content, &git.CommitOptions{Author: sig})
	require.NoError(t, err)
	return h
}

func TestHeadTag(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	first := commit(t, repo, dir, "one")
	_, err = repo.CreateTag("v0.9", first, nil)
	require.NoError(t, err)

	_, ok, err := HeadTag(dir)
	require.NoError(t, err)
	assert.True(t, ok)

	second := commit(t, repo, dir, "two")
	_, ok, err = HeadTag(dir)
	require.NoError(t, err)
	assert.False(t, ok, "v0.9 does not point at HEAD any more")

	_, err = repo.CreateTag("v0.10", second, &git.CreateTagOptions{Tagger: sig, Message: "release 0.10"})
	require.NoError(t, err)

	sub := filepath.Join(dir, "tools")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	name, ok, err := HeadTag(sub)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v0.10", name)
}

func TestHeadTagNotARepository(t *testing.T) {
	_, _, err := HeadTag(t.TempDir())
	require.Error(t, err)
}
