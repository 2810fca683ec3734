package git

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/melih/lighthouse-build/internal/core/domain"
	"github.com/melih/lighthouse-build/internal/core/ports"
)

// revisionLength is the number of hex characters of the commit hash used as
// the image tag.
const revisionLength = 12

// Adapter implements ports.SourceService using go-git
type Adapter struct {
	progress io.Writer
	depth    int
}

// NewAdapter creates a source adapter. Clones fetch depth commits (all history
// when depth is 0) and report progress to progress when it is non-nil.
func NewAdapter(progress io.Writer, depth int) *Adapter {
	return &Adapter{progress: progress, depth: depth}
}

// Open resolves the working tree containing dir and its HEAD revision.
func (a *Adapter) Open(ctx context.Context, dir string) (*ports.Checkout, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}
	rev, err := Revision(repo)
	if err != nil {
		return nil, err
	}
	return &ports.Checkout{Dir: dir, Revision: rev, Cleanup: func() error { return nil }}, nil
}

// Clone makes a shallow clone of repoURL in a temporary directory.
func (a *Adapter) Clone(ctx context.Context, repoURL string) (*ports.Checkout, error) {
	tmpDir, err := os.MkdirTemp("", "lighthouse-build-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() error { return os.RemoveAll(tmpDir) }

	repo, err := git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{
		URL:      repoURL,
		Progress: a.progress,
		Depth:    a.depth,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to clone repo: %w", err)
	}

	rev, err := Revision(repo)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &ports.Checkout{Dir: tmpDir, Revision: rev, Cleanup: cleanup}, nil
}

// Revision returns the abbreviated hash of the repository's HEAD commit.
func Revision(repo *git.Repository) (domain.Revision, error) {
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return domain.Revision(head.Hash().String()[:revisionLength]), nil
}
