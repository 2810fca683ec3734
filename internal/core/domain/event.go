package domain

import "maps"

// Keys set on every event produced by a build.
const (
	KeyEvent     = "event"
	KeyContainer = "container"
	KeyRev       = "rev"
	KeyImage     = "image"
)

const (
	// EventBuildMsg marks an event emitted by the build engine.
	EventBuildMsg = "build_msg"
	// EventPush marks an event emitted while pushing an image.
	EventPush = "push"
)

// Event is one structured progress record from the build engine.
// Events are never mutated in place; transformations return new maps.
type Event map[string]any

// Merge returns a new event holding the fields of e overlaid with overlay.
// Fields in overlay win on collision.
func (e Event) Merge(overlay Event) Event {
	out := make(Event, len(e)+len(overlay))
	maps.Copy(out, e)
	maps.Copy(out, overlay)
	return out
}

// BuildMetadata returns the fields attached to every event of a target's build.
func BuildMetadata(target Target, rev Revision) Event {
	return Event{
		KeyEvent:     EventBuildMsg,
		KeyContainer: target,
		KeyRev:       rev,
	}
}

// PushMetadata returns the fields attached to every event of pushing ref,
// one of target's references.
func PushMetadata(target Target, ref string) Event {
	return Event{
		KeyEvent:     EventPush,
		KeyContainer: target,
		KeyImage:     ref,
	}
}

// Enrich attaches meta to evt. Metadata wins over event fields of the same name.
func Enrich(meta, evt Event) Event {
	return evt.Merge(meta)
}

// Kind returns the value of the "event" field.
func (e Event) Kind() string {
	s, _ := e[KeyEvent].(string)
	return s
}

// Container returns the target the event belongs to, if any.
func (e Event) Container() (Target, bool) {
	t, ok := e[KeyContainer].(Target)
	return t, ok
}

// Stream returns the log text carried by the event.
func (e Event) Stream() (string, bool) {
	s, ok := e["stream"].(string)
	return s, ok
}

// ErrorMessage returns the engine-reported error, or "" if there is none.
func (e Event) ErrorMessage() string {
	if detail, ok := e["errorDetail"].(map[string]any); ok {
		if msg, ok := detail["message"].(string); ok && msg != "" {
			return msg
		}
	}
	msg, _ := e["error"].(string)
	return msg
}
