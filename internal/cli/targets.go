package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTargetsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the images that would be built, in build order",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeEngine, err := root.newService()
			if err != nil {
				return err
			}
			defer closeEngine()

			plan, err := svc.Plan(cmd.Context(), root.request())
			if err != nil {
				return err
			}
			defer plan.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range plan.Targets {
				fmt.Fprintf(w, "%s\t%s\n", t.Ref(plan.Revision()), t.Path)
			}
			return w.Flush()
		},
	}
}
