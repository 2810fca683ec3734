// Package service runs builds end to end: it resolves a source tree, loads
// its configuration, selects the targets to build and drives the builder.
package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"github.com/melih/lighthouse-build/internal/adapters/builder"
	"github.com/melih/lighthouse-build/internal/config"
	"github.com/melih/lighthouse-build/internal/core/domain"
	"github.com/melih/lighthouse-build/internal/core/ports"
	"github.com/melih/lighthouse-build/internal/render"
	"github.com/melih/lighthouse-build/internal/success"
	"github.com/melih/lighthouse-build/internal/targets"
)

var (
	ErrNoSource   = errors.New("either a directory or a repository URL is required")
	ErrNoImage    = errors.New("build finished without producing an image")
	ErrBuildError = errors.New("build reported an error")
)

// ContextFactory creates the context provider for one build group.
type ContextFactory func(group []string, exclude []string) ports.ContextProvider

// Service implements ports.BuilderService and plans multi-target runs.
type Service struct {
	engine   ports.Engine
	sources  ports.SourceService
	contexts ContextFactory
	env      func(string) string
}

// New creates a Service.
func New(engine ports.Engine, sources ports.SourceService, contexts ContextFactory) *Service {
	return &Service{engine: engine, sources: sources, contexts: contexts, env: os.Getenv}
}

// Request describes what to build.
type Request struct {
	Dir        string // local working tree; ignored when RepoURL is set
	RepoURL    string
	Revision   domain.Revision // overrides the commit-derived revision
	ConfigPath string
	Overrides  config.Overrides
	Selection  Selection
}

// Plan is a resolved request, ready to run.
type Plan struct {
	Checkout *ports.Checkout
	Config   *config.Config
	Graph    *targets.Graph
	Targets  []domain.Target
}

// Revision returns the tag every image of the plan is built with.
func (p *Plan) Revision() domain.Revision {
	return p.Checkout.Revision
}

// Close releases the plan's checkout.
func (p *Plan) Close() error {
	return p.Checkout.Cleanup()
}

// Plan resolves the source tree and selects the targets of req.
// The caller must Close the returned plan.
func (s *Service) Plan(ctx context.Context, req Request) (*Plan, error) {
	checkout, err := s.checkout(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Revision != "" {
		checkout.Revision = req.Revision
	}

	plan, err := s.plan(checkout, req)
	if err != nil {
		checkout.Cleanup()
		return nil, err
	}
	slog.Debug("planned build", "dir", checkout.Dir, "rev", checkout.Revision, "targets", len(plan.Targets))
	return plan, nil
}

func (s *Service) checkout(ctx context.Context, req Request) (*ports.Checkout, error) {
	switch {
	case req.RepoURL != "":
		return s.sources.Clone(ctx, req.RepoURL)
	case req.Dir != "":
		return s.sources.Open(ctx, req.Dir)
	default:
		return nil, ErrNoSource
	}
}

func (s *Service) plan(checkout *ports.Checkout, req Request) (*Plan, error) {
	cfg, err := config.Load(checkout.Dir, req.ConfigPath, s.env, req.Overrides)
	if err != nil {
		return nil, err
	}
	graph, err := targets.Discover(checkout.Dir, cfg.Namespace, cfg.Skip...)
	if err != nil {
		return nil, err
	}
	selected, err := req.Selection.Apply(graph)
	if err != nil {
		return nil, err
	}
	return &Plan{Checkout: checkout, Config: cfg, Graph: graph, Targets: selected}, nil
}

// Run builds the plan's targets in order and then applies the configured
// extra tags to every image that was built.
func (s *Service) Run(ctx context.Context, plan *Plan) iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		s.run(ctx, plan, s.builder(plan), success.NewTracker(), yield)
	}
}

// Push uploads every target of the plan as {name}:{rev} and under each extra
// tag. With build set the plan is run first and only the targets that
// produced an image are pushed; otherwise the images of rev must already
// exist and are tagged before the push.
func (s *Service) Push(ctx context.Context, plan *Plan, build bool) iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		b := s.builder(plan)
		rev := plan.Revision()

		pushable := plan.Targets
		if build {
			tracker := success.NewTracker()
			if !s.run(ctx, plan, b, tracker, yield) {
				return
			}
			pushable = nil
			for _, outcome := range tracker.Outcomes(plan.Targets) {
				if outcome.Built() {
					pushable = append(pushable, outcome.Target)
				}
			}
		} else {
			for _, target := range plan.Targets {
				if !s.tag(ctx, target, target.Ref(rev), plan.Config.Tags, yield) {
					return
				}
			}
		}

		for _, target := range pushable {
			refs := []string{target.Ref(rev)}
			for _, tag := range plan.Config.Tags {
				refs = append(refs, target.Name+":"+tag)
			}
			for evt, err := range b.Push(ctx, target, refs...) {
				if !yield(evt, err) {
					return
				}
			}
		}
	}
}

func (s *Service) builder(plan *Plan) *builder.Builder {
	return builder.NewBuilder(s.engine, s.contexts(plan.Graph.Names(), plan.Config.Ignore), 0)
}

// run builds plan and tags what was built. It reports whether the consumer
// asked for more events.
func (s *Service) run(ctx context.Context, plan *Plan, b *builder.Builder, tracker *success.Tracker, yield func(domain.Event, error) bool) bool {
	for evt, err := range b.BuildAll(ctx, plan.Revision(), plan.Targets) {
		if err == nil {
			tracker.Observe(evt)
		}
		if !yield(evt, err) {
			return false
		}
	}

	for _, outcome := range tracker.Outcomes(plan.Targets) {
		if !outcome.Built() {
			continue
		}
		if !s.tag(ctx, outcome.Target, outcome.ImageID, plan.Config.Tags, yield) {
			return false
		}
	}
	return true
}

// tag applies each of tags to image as {target.Name}:{tag}.
func (s *Service) tag(ctx context.Context, target domain.Target, image string, tags []string, yield func(domain.Event, error) bool) bool {
	for _, tag := range tags {
		ref := target.Name + ":" + tag
		if err := s.engine.TagImage(ctx, image, ref); err != nil {
			if !yield(nil, err) {
				return false
			}
			continue
		}
		if !yield(render.TagEvent(target, image, tag), nil) {
			return false
		}
	}
	return true
}

// BuildImage builds a single target and returns the ID of the built image.
func (s *Service) BuildImage(ctx context.Context, rev domain.Revision, target domain.Target) (string, error) {
	b := builder.NewBuilder(s.engine, s.contexts([]string{target.Name}, nil), 0)

	var buildErr error
	lines := func(yield func(string) bool) {
		for evt, err := range b.Build(ctx, rev, target) {
			if err != nil {
				buildErr = err
				return
			}
			if msg := evt.ErrorMessage(); msg != "" {
				buildErr = fmt.Errorf("%w: %s", ErrBuildError, msg)
				return
			}
			if line, ok := evt.Stream(); ok && !yield(line) {
				return
			}
		}
	}

	id, ok := success.FromStream(lines)
	if buildErr != nil {
		return "", buildErr
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", target.Name, ErrNoImage)
	}
	return id, nil
}
