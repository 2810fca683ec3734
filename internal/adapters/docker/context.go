package docker

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/docker/docker/pkg/archive"
	"github.com/melih/lighthouse-build/internal/core/domain"
	"github.com/melih/lighthouse-build/internal/targets"
	"github.com/moby/patternmatcher/ignorefile"
)

// ContextProvider implements ports.ContextProvider by tarring the Dockerfile's
// directory. FROM lines naming an image of the current build group are pinned
// to the run's revision.
type ContextProvider struct {
	images  map[string]bool
	exclude []string
}

// NewContextProvider creates a provider for a build group. exclude patterns
// are applied on top of each context's .dockerignore.
func NewContextProvider(group []string, exclude []string) *ContextProvider {
	images := make(map[string]bool, len(group))
	for _, name := range group {
		images[name] = true
	}
	return &ContextProvider{images: images, exclude: exclude}
}

// BuildContext returns a tar archive of the directory holding the Dockerfile at path.
func (p *ContextProvider) BuildContext(rev domain.Revision, path string) (io.ReadCloser, error) {
	dir := filepath.Dir(path)
	dockerfile := filepath.Base(path)
	excludes, err := p.excludes(dir, dockerfile)
	if err != nil {
		return nil, err
	}

	tarball, err := archive.TarWithOptions(dir, &archive.TarOptions{
		ExcludePatterns: excludes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create build context: %w", err)
	}

	return archive.ReplaceFileTarWrapper(tarball, map[string]archive.TarModifierFunc{
		dockerfile: func(_ string, h *tar.Header, content io.Reader) (*tar.Header, []byte, error) {
			if h == nil {
				return nil, nil, fmt.Errorf("%s is missing from the build context", dockerfile)
			}
			data, err := io.ReadAll(content)
			if err != nil {
				return nil, nil, err
			}
			return h, targets.PinParents(data, p.images, rev), nil
		},
	}), nil
}

// excludes merges the context's .dockerignore with the provider's patterns.
// The Dockerfile and .dockerignore are always sent, as docker build does.
func (p *ContextProvider) excludes(dir, dockerfile string) ([]string, error) {
	patterns := append([]string(nil), p.exclude...)

	f, err := os.Open(filepath.Join(dir, ".dockerignore"))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read .dockerignore: %w", err)
	default:
		defer f.Close()
		ignored, err := ignorefile.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse .dockerignore: %w", err)
		}
		patterns = append(patterns, ignored...)
	}
	return append(patterns, "!"+dockerfile, "!.dockerignore"), nil
}
