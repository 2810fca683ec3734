package builder

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/melih/lighthouse-build/internal/core/domain"
	"github.com/melih/lighthouse-build/internal/core/ports"
	"github.com/melih/lighthouse-build/internal/stream"
)

var (
	ErrContext = errors.New("failed to create build context")
	ErrEngine  = errors.New("failed to start build")
	ErrPush    = errors.New("failed to start push")
)

// Builder drives image builds through an engine and exposes their progress
// as lazy event sequences.
type Builder struct {
	engine    ports.Engine
	contexts  ports.ContextProvider
	chunkSize int
}

// NewBuilder creates a Builder that reads engine output in chunks of chunkSize
// bytes (stream.DefaultChunkSize if chunkSize <= 0).
func NewBuilder(engine ports.Engine, contexts ports.ContextProvider, chunkSize int) *Builder {
	return &Builder{engine: engine, contexts: contexts, chunkSize: chunkSize}
}

// Build returns the enriched events of a single target's build.
//
// Nothing happens until the sequence is consumed. A failure to create the
// build context or to start the build is yielded as the first element.
func (b *Builder) Build(ctx context.Context, rev domain.Revision, target domain.Target) iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		buildCtx, err := b.contexts.BuildContext(rev, target.Path)
		if err != nil {
			yield(nil, fmt.Errorf("%w for %s: %w", ErrContext, target.Name, err))
			return
		}
		defer buildCtx.Close()

		slog.Debug("building image", "target", target.Name, "rev", rev)
		body, err := b.engine.BuildImage(ctx, buildCtx, ports.BuildOptions{
			Tag:           target.Ref(rev),
			Dockerfile:    target.Dockerfile(),
			Remove:        true,
			CustomContext: true,
			Stream:        true,
		})
		if err != nil {
			yield(nil, fmt.Errorf("%w for %s: %w", ErrEngine, target.Name, err))
			return
		}

		meta := domain.BuildMetadata(target, rev)
		for evt, err := range enrichAll(meta, stream.Reassemble(stream.Chunks(body, b.chunkSize))) {
			if err != nil {
				err = fmt.Errorf("reading build output for %s: %w", target.Name, err)
			}
			if !yield(evt, err) {
				return
			}
		}
	}
}

// BuildAll builds targets one after another and concatenates their events.
//
// A target's build starts only after the previous target's events have been
// exhausted. Failures are local to a target: the next target is built if the
// consumer keeps pulling. Stopping early skips the remaining targets.
func (b *Builder) BuildAll(ctx context.Context, rev domain.Revision, targets []domain.Target) iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		for _, target := range targets {
			for evt, err := range b.Build(ctx, rev, target) {
				if !yield(evt, err) {
					return
				}
			}
		}
	}
}

// Push returns the enriched events of pushing refs of target, one reference
// after another. Like Build, nothing happens until the sequence is consumed,
// and a reference that cannot be pushed yields its error without stopping
// the others.
func (b *Builder) Push(ctx context.Context, target domain.Target, refs ...string) iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		for _, ref := range refs {
			slog.Debug("pushing image", "target", target.Name, "ref", ref)
			body, err := b.engine.PushImage(ctx, ref)
			if err != nil {
				if !yield(nil, fmt.Errorf("%w for %s: %w", ErrPush, ref, err)) {
					return
				}
				continue
			}

			meta := domain.PushMetadata(target, ref)
			for evt, err := range enrichAll(meta, stream.Reassemble(stream.Chunks(body, b.chunkSize))) {
				if err != nil {
					err = fmt.Errorf("reading push output for %s: %w", ref, err)
				}
				if !yield(evt, err) {
					return
				}
			}
		}
	}
}

// enrichAll attaches meta to every event of events.
func enrichAll(meta domain.Event, events iter.Seq2[domain.Event, error]) iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		for evt, err := range events {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(domain.Enrich(meta, evt), nil) {
				return
			}
		}
	}
}
