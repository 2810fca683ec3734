package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"gotest.tools/v3/assert"
)

func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	assert.NilError(t, err)

	assert.NilError(t, os.MkdirAll(filepath.Join(dir, "app"), 0o755))
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "app", "Dockerfile"), []byte("FROM scratch\n"), 0o644))

	wt, err := repo.Worktree()
	assert.NilError(t, err)
	_, err = wt.Add("app/Dockerfile")
	assert.NilError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	assert.NilError(t, err)
	return dir, hash.String()
}

func TestOpenResolvesHead(t *testing.T) {
	dir, hash := initRepo(t)

	checkout, err := NewAdapter(nil, 0).Open(context.Background(), filepath.Join(dir, "app"))
	assert.NilError(t, err)
	defer checkout.Cleanup()

	assert.Equal(t, string(checkout.Revision), hash[:revisionLength])
	assert.Equal(t, checkout.Dir, filepath.Join(dir, "app"))
}

func TestOpenOutsideRepository(t *testing.T) {
	_, err := NewAdapter(nil, 0).Open(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "failed to open repository")
}

func TestCloneLocalRepository(t *testing.T) {
	src, hash := initRepo(t)

	checkout, err := NewAdapter(nil, 0).Clone(context.Background(), src)
	assert.NilError(t, err)

	assert.Equal(t, string(checkout.Revision), hash[:revisionLength])
	_, err = os.Stat(filepath.Join(checkout.Dir, "app", "Dockerfile"))
	assert.NilError(t, err)

	assert.NilError(t, checkout.Cleanup())
	_, err = os.Stat(checkout.Dir)
	assert.Assert(t, os.IsNotExist(err))
}
