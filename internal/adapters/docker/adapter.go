package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/melih/lighthouse-build/internal/core/ports"
)

// Adapter implements ports.Engine using Docker SDK
type Adapter struct {
	cli  *client.Client
	auth string // encoded registry credentials sent with pushes
}

// NewAdapter creates a new Docker adapter instance.
// host overrides DOCKER_HOST when non-empty.
func NewAdapter(host string) (*Adapter, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli}, nil
}

// BuildImage starts an image build and returns the daemon's progress stream.
func (a *Adapter) BuildImage(ctx context.Context, buildContext io.Reader, opts ports.BuildOptions) (io.ReadCloser, error) {
	// The daemon always streams and always takes a tar context, so
	// CustomContext and Stream need no translation.
	resp, err := a.cli.ImageBuild(ctx, buildContext, buildOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to build image: %w", err)
	}
	return resp.Body, nil
}

// TagImage applies ref to an existing image
func (a *Adapter) TagImage(ctx context.Context, imageID, ref string) error {
	if err := a.cli.ImageTag(ctx, imageID, ref); err != nil {
		return fmt.Errorf("failed to tag image %s as %s: %w", imageID, ref, err)
	}
	return nil
}

// UseCredentials makes pushes authenticate with creds.
func (a *Adapter) UseCredentials(creds registry.AuthConfig) error {
	auth, err := registry.EncodeAuthConfig(creds)
	if err != nil {
		return fmt.Errorf("failed to encode registry credentials: %w", err)
	}
	a.auth = auth
	return nil
}

// PushImage uploads ref and returns the daemon's progress stream.
func (a *Adapter) PushImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	body, err := a.cli.ImagePush(ctx, ref, types.ImagePushOptions{RegistryAuth: a.auth})
	if err != nil {
		return nil, fmt.Errorf("failed to push image %s: %w", ref, err)
	}
	return body, nil
}

// Close releases the client's transport.
func (a *Adapter) Close() error {
	return a.cli.Close()
}

func buildOptions(opts ports.BuildOptions) types.ImageBuildOptions {
	return types.ImageBuildOptions{
		Tags:       []string{opts.Tag},
		Dockerfile: opts.Dockerfile,
		Remove:     opts.Remove,
		// The legacy builder is the one that reports "Successfully built <id>".
		Version: types.BuilderV1,
	}
}
