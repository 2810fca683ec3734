package domain

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestEnrichMetadataWins(t *testing.T) {
	target := Target{Name: "acme/base", Path: "base/Dockerfile"}
	meta := BuildMetadata(target, "abc123")
	evt := Event{"stream": "Step 1/2\n", "event": "bogus", "rev": "other"}

	got := Enrich(meta, evt)

	assert.DeepEqual(t, got, Event{
		"stream":    "Step 1/2\n",
		"event":     EventBuildMsg,
		"container": target,
		"rev":       Revision("abc123"),
	})
}

func TestEnrichPushMetadata(t *testing.T) {
	target := Target{Name: "acme/base", Path: "base/Dockerfile"}
	got := Enrich(PushMetadata(target, "acme/base:r1"), Event{"status": "Pushed", "id": "layer"})

	assert.DeepEqual(t, got, Event{
		"status":    "Pushed",
		"id":        "layer",
		"event":     EventPush,
		"container": target,
		"image":     "acme/base:r1",
	})
	assert.Equal(t, got.Kind(), EventPush)
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	evt := Event{"stream": "hello"}
	_ = Enrich(BuildMetadata(Target{Name: "a"}, "r"), evt)
	assert.DeepEqual(t, evt, Event{"stream": "hello"})
}

func TestEnrichIdempotent(t *testing.T) {
	meta := BuildMetadata(Target{Name: "acme/app", Path: "app/Dockerfile"}, "r1")
	once := Enrich(meta, Event{"status": "Downloading", "id": "layer"})
	twice := Enrich(meta, once)
	assert.DeepEqual(t, once, twice)
}

func TestEventAccessors(t *testing.T) {
	target := Target{Name: "acme/app", Path: "app/Dockerfile"}
	evt := Enrich(BuildMetadata(target, "r"), Event{
		"error":       "short",
		"errorDetail": map[string]any{"message": "The command returned a non-zero code: 1"},
	})

	got, ok := evt.Container()
	assert.Assert(t, ok)
	assert.Equal(t, got, target)
	assert.Equal(t, evt.Kind(), EventBuildMsg)
	assert.Equal(t, evt.ErrorMessage(), "The command returned a non-zero code: 1")

	_, ok = evt.Stream()
	assert.Assert(t, !ok)
	assert.Equal(t, Event{"error": "plain"}.ErrorMessage(), "plain")
}

func TestTargetPaths(t *testing.T) {
	target := Target{Name: "acme/app", Path: "services/app/Dockerfile"}
	assert.Equal(t, target.ContextDir(), "services/app")
	assert.Equal(t, target.Dockerfile(), "Dockerfile")
	assert.Equal(t, target.Ref("r2"), "acme/app:r2")
}
