// Package cli implements the lighthouse command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docker/docker/api/types/registry"
	"github.com/melih/lighthouse-build/internal/adapters/docker"
	"github.com/melih/lighthouse-build/internal/adapters/git"
	"github.com/melih/lighthouse-build/internal/config"
	"github.com/melih/lighthouse-build/internal/core/ports"
	"github.com/melih/lighthouse-build/internal/logging"
	"github.com/melih/lighthouse-build/internal/service"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type rootOptions struct {
	configFile string
	namespace  string
	dockerHost string
	dir        string
	repoURL    string
	debug      bool
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "lighthouse",
		Short: "Build the container images of a repository",
		Long: "lighthouse builds every Dockerfile of a git repository, parents first,\n" +
			"tagging each image with the current commit.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(os.Stderr, opts.debug, opts.quiet)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: <dir>/"+config.DefaultFile+")")
	flags.StringVar(&opts.namespace, "namespace", "", "image namespace, overrides $"+config.EnvNamespace)
	flags.StringVarP(&opts.dockerHost, "docker-host", "H", "", "override DOCKER_HOST")
	flags.StringVar(&opts.dir, "dir", ".", "source tree to build")
	flags.StringVar(&opts.repoURL, "repo", "", "clone and build this repository instead of --dir")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "enable debug output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(
		newBuildCmd(opts),
		newPushCmd(opts),
		newTargetsCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// newService wires the Docker and git adapters into a build service.
func (o *rootOptions) newService() (*service.Service, func() error, error) {
	engine, err := docker.NewAdapter(o.dockerHost)
	if err != nil {
		return nil, nil, err
	}
	if user := os.Getenv(config.EnvRegistryUser); user != "" {
		creds := registry.AuthConfig{Username: user, Password: os.Getenv(config.EnvRegistryPassword)}
		if err := engine.UseCredentials(creds); err != nil {
			engine.Close()
			return nil, nil, err
		}
	}
	sources := git.NewAdapter(os.Stderr, 1)
	contexts := func(group, exclude []string) ports.ContextProvider {
		return docker.NewContextProvider(group, exclude)
	}
	return service.New(engine, sources, contexts), engine.Close, nil
}

func (o *rootOptions) request() service.Request {
	return service.Request{
		Dir:        o.dir,
		RepoURL:    o.repoURL,
		ConfigPath: o.configFile,
		Overrides:  config.Overrides{Namespace: o.namespace},
	}
}
