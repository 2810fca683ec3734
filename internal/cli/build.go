package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/melih/lighthouse-build/internal/core/domain"
	"github.com/melih/lighthouse-build/internal/render"
	"github.com/melih/lighthouse-build/internal/service"
	"github.com/melih/lighthouse-build/internal/success"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type buildOptions struct {
	exact      []string
	upto       []string
	dependents []string
	exclude    []string
	tags       []string
	revision   string
	dumpFile   string
}

func (o *buildOptions) addFlags(flags *pflag.FlagSet) {
	flags.StringArrayVarP(&o.exact, "exact", "e", nil, "build EXACT only; may fail if its parents have not been built")
	flags.StringArrayVarP(&o.upto, "upto", "u", nil, "build UPTO and the images it is based on")
	flags.StringArrayVarP(&o.dependents, "dependents", "D", nil, "build DEPENDENTS, its parents and every image based on it")
	flags.StringArrayVarP(&o.exclude, "exclude", "x", nil, "build everything but EXCLUDE and the images based on it")
	flags.StringArrayVarP(&o.tags, "tag", "t", nil, "extra tag to apply to every built image")
	flags.StringVar(&o.revision, "revision", "", "tag images with REVISION instead of the commit hash")
	flags.StringVar(&o.dumpFile, "dump-file", "", "write every raw event as JSON to FILE, useful for debugging")
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build [TARGET...]",
		Short: "Build images",
		Long: "Build images, parents first. Each TARGET is built together with the\n" +
			"images it is based on, like --upto.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(cmd, root, opts, args, true, (*service.Service).Run)
		},
	}
	opts.addFlags(cmd.Flags())
	return cmd
}

// runEvents plans the selected targets, prints the events of run and
// reports failures. With built set, every selected target must have
// produced an image.
func runEvents(cmd *cobra.Command, root *rootOptions, opts *buildOptions, args []string, built bool,
	run func(*service.Service, context.Context, *service.Plan) iter.Seq2[domain.Event, error]) error {
	ctx := cmd.Context()

	svc, closeEngine, err := root.newService()
	if err != nil {
		return err
	}
	defer closeEngine()

	req := root.request()
	req.Revision = domain.Revision(opts.revision)
	req.Overrides.Tags = opts.tags
	req.Selection.Exact = opts.exact
	req.Selection.Upto = append(opts.upto, args...)
	req.Selection.Dependents = opts.dependents
	req.Selection.Exclude = opts.exclude

	plan, err := svc.Plan(ctx, req)
	if err != nil {
		return err
	}
	defer plan.Close()

	var dump *json.Encoder
	if opts.dumpFile != "" {
		f, err := os.Create(opts.dumpFile)
		if err != nil {
			return fmt.Errorf("failed to create dump file: %w", err)
		}
		defer f.Close()
		dump = json.NewEncoder(f)
	}

	printer := render.NewPrinter(cmd.OutOrStdout(), isatty.IsTerminal(os.Stdout.Fd()))
	tracker := success.NewTracker()
	failures := 0

	slog.Info("running", "command", cmd.Name(), "targets", len(plan.Targets), "rev", plan.Revision())
	for evt, err := range run(svc, ctx, plan) {
		if err != nil {
			failures++
			slog.Error(err.Error())
			continue
		}
		if dump != nil {
			if err := dump.Encode(evt); err != nil {
				return fmt.Errorf("failed to write dump file: %w", err)
			}
		}
		if evt.Kind() == domain.EventPush && evt.ErrorMessage() != "" {
			failures++
		}
		tracker.Observe(evt)
		if err := printer.Print(evt); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	var missing []string
	if built {
		for _, outcome := range tracker.Outcomes(plan.Targets) {
			if !outcome.Built() {
				missing = append(missing, outcome.Target.Name)
				continue
			}
			slog.Info("built", "target", outcome.Target.Name, "image", outcome.ImageID)
		}
	}
	switch {
	case len(missing) > 0:
		return fmt.Errorf("build failed for: %s", strings.Join(missing, ", "))
	case failures > 0:
		return fmt.Errorf("%s finished with %d errors", cmd.Name(), failures)
	}
	return nil
}
