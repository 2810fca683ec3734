package cli

import (
	"context"
	"iter"

	"github.com/melih/lighthouse-build/internal/core/domain"
	"github.com/melih/lighthouse-build/internal/service"
	"github.com/spf13/cobra"
)

func newPushCmd(root *rootOptions) *cobra.Command {
	opts := &buildOptions{}
	var noBuild bool
	cmd := &cobra.Command{
		Use:   "push [TARGET...]",
		Short: "Build images and push them",
		Long: "Build images like build does, then push every image that was built as\n" +
			"NAME:REVISION and under each extra tag. With --no-build the images of\n" +
			"REVISION must already exist.\n\n" +
			"Registry credentials are read from $LH_REGISTRY_USER and $LH_REGISTRY_PASSWORD.",
		RunE: func(cmd *cobra.Command, args []string) error {
			push := func(svc *service.Service, ctx context.Context, plan *service.Plan) iter.Seq2[domain.Event, error] {
				return svc.Push(ctx, plan, !noBuild)
			}
			return runEvents(cmd, root, opts, args, !noBuild, push)
		},
	}
	opts.addFlags(cmd.Flags())
	cmd.Flags().BoolVar(&noBuild, "no-build", false, "push images built earlier without building")
	return cmd
}
