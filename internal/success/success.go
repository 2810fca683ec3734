// Package success extracts the image id from a build's log output.
//
// The legacy Docker builder ends every successful build with the line
// "Successfully built <id>". Matching is purely textual: a line that does not
// match, a build that is still running and a build that failed all look the
// same here, so callers combine the result with the engine's error records.
package success

import (
	"iter"
	"regexp"

	"github.com/melih/lighthouse-build/internal/core/domain"
)

var builtRe = regexp.MustCompile(`^Successfully built ([a-f0-9]+)\s*$`)

// Success returns the image id if line is a success marker.
func Success(line string) (string, bool) {
	m := builtRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FromStream returns the id from the first success marker in lines.
// It stops pulling from lines as soon as a marker is found.
func FromStream(lines iter.Seq[string]) (string, bool) {
	for line := range lines {
		if id, ok := Success(line); ok {
			return id, true
		}
	}
	return "", false
}

// Lines returns the log text carried by events, skipping events without any.
func Lines(events iter.Seq[domain.Event]) iter.Seq[string] {
	return func(yield func(string) bool) {
		for evt := range events {
			line, ok := evt.Stream()
			if !ok {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// Tracker records the image id of each target seen in an orchestrated stream.
type Tracker struct {
	ids map[string]string
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{ids: make(map[string]string)}
}

// Observe inspects one enriched event. The first marker seen for a target wins.
func (t *Tracker) Observe(evt domain.Event) {
	target, ok := evt.Container()
	if !ok {
		return
	}
	if _, seen := t.ids[target.Name]; seen {
		return
	}
	line, ok := evt.Stream()
	if !ok {
		return
	}
	if id, ok := Success(line); ok {
		t.ids[target.Name] = id
	}
}

// Outcomes returns one outcome per target, in the given order.
func (t *Tracker) Outcomes(targets []domain.Target) []domain.Outcome {
	out := make([]domain.Outcome, 0, len(targets))
	for _, target := range targets {
		out = append(out, domain.Outcome{Target: target, ImageID: t.ids[target.Name]})
	}
	return out
}
