// Package render turns build events into human readable log lines.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/melih/lighthouse-build/internal/core/domain"
)

// EventTag is emitted after an extra tag has been applied to a built image.
const EventTag = "tag"

// TagEvent describes an extra tag applied to a built image.
func TagEvent(target domain.Target, imageID, tag string) domain.Event {
	return domain.Event{
		domain.KeyEvent:     EventTag,
		domain.KeyContainer: target,
		domain.KeyImage:     imageID,
		"tag":               tag,
	}
}

// Format returns the display line for evt, or false if it should not be shown.
// Status records carrying progress are only shown when progress is set.
func Format(evt domain.Event, progress bool) (string, bool) {
	msg, err := message(evt)
	if err != nil {
		return dump(evt), true
	}

	switch {
	case msg.Stream != "":
		return strings.TrimRight(msg.Stream, "\n"), true
	case msg.Status != "":
		status := "[STATUS] " + msg.Status
		if msg.ID != "" {
			status = fmt.Sprintf("[STATUS] %s: %s", msg.ID, msg.Status)
		}
		if msg.Progress != nil && (msg.Progress.Current > 0 || msg.Progress.Total > 0) {
			if !progress {
				return "", false
			}
			return status + " " + msg.Progress.String() + "\r", true
		}
		return status, true
	case msg.Error != nil:
		return "[ERROR] " + msg.Error.Message, true
	case msg.ErrorMessage != "":
		return "[ERROR] " + msg.ErrorMessage, true
	case evt.Kind() == EventTag:
		target, _ := evt.Container()
		return fmt.Sprintf("Tagging %v to %s:%v", evt["image"], target.Name, evt["tag"]), true
	case msg.Aux != nil:
		return "", false
	default:
		return dump(evt), true
	}
}

// message decodes the engine fields of evt.
func message(evt domain.Event) (jsonmessage.JSONMessage, error) {
	var msg jsonmessage.JSONMessage
	data, err := json.Marshal(evt)
	if err != nil {
		return msg, err
	}
	err = json.Unmarshal(data, &msg)
	return msg, err
}

func dump(evt domain.Event) string {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Sprint(map[string]any(evt))
	}
	return string(data)
}
