package ports

import (
	"context"
	"io"

	"github.com/melih/lighthouse-build/internal/core/domain"
)

// BuildOptions are passed to the engine for a single image build.
type BuildOptions struct {
	Tag        string // image reference to apply, "{name}:{rev}"
	Dockerfile string // Dockerfile path relative to the build context
	Remove     bool   // remove intermediate containers
	// CustomContext marks the context as a prepared archive rather than a
	// directory, letting the provider pin in-group parent images.
	CustomContext bool
	Stream        bool // stream progress records instead of buffering them
}

// Engine is the container engine's build capability.
// This interface allows us to switch between Docker, Podman, or a test double
// without changing the build pipeline.
type Engine interface {
	// BuildImage starts a build and returns the engine's raw progress stream.
	// The caller must close the returned reader.
	BuildImage(ctx context.Context, buildContext io.Reader, opts BuildOptions) (io.ReadCloser, error)

	// TagImage applies an additional reference to an existing image.
	TagImage(ctx context.Context, imageID, ref string) error

	// PushImage uploads ref to its registry and returns the engine's raw
	// progress stream, framed like the build stream.
	PushImage(ctx context.Context, ref string) (io.ReadCloser, error)
}

// ContextProvider produces build context archives.
type ContextProvider interface {
	// BuildContext returns an archive of the build context for the Dockerfile
	// at path, prepared for the given revision.
	BuildContext(rev domain.Revision, path string) (io.ReadCloser, error)
}

// BuilderService defines operations for building container images from source code.
type BuilderService interface {
	// BuildImage builds a single target and returns the ID of the built image.
	BuildImage(ctx context.Context, rev domain.Revision, target domain.Target) (string, error)
}
