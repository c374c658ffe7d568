package session

import (
	"context"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// EventType names a lifecycle event.
type EventType string

// Lifecycle events handled by the coordinator.
const (
	EventSessionCreated EventType = "session.created"
	EventSessionDeleted EventType = "session.deleted"
)

// Event is a lifecycle notification from an agent host. Every field is
// optional on the wire.
type Event struct {
	Type       EventType        `mapstructure:"type"`
	Properties *EventProperties `mapstructure:"properties"`
}

// EventProperties carries the session described by an event.
type EventProperties struct {
	Info *SessionInfo `mapstructure:"info"`
}

// SessionInfo identifies a session and its parent.
type SessionInfo struct {
	ID       *string `mapstructure:"id"`
	ParentID *string `mapstructure:"parentID"`
}

// DecodeEvent converts an untyped event payload into an Event.
func DecodeEvent(payload map[string]any) (Event, error) {
	var ev Event
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &ev,
		TagName: "mapstructure",
	})
	if err != nil {
		return Event{}, err
	}
	if err := dec.Decode(payload); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (ev Event) info() (id string, parentID *string, ok bool) {
	if ev.Properties == nil || ev.Properties.Info == nil || ev.Properties.Info.ID == nil {
		return "", nil, false
	}
	return *ev.Properties.Info.ID, ev.Properties.Info.ParentID, true
}

// HandleEvent applies a lifecycle event. Malformed or unrelated events are
// ignored.
func (c *Coordinator) HandleEvent(payload map[string]any) {
	ev, err := DecodeEvent(payload)
	if err != nil {
		c.log.Debug("ignoring undecodable event", zap.Error(err))
		return
	}

	switch ev.Type {
	case EventSessionCreated:
		if id, parent, ok := ev.info(); ok {
			c.SessionCreated(id, parent)
		}
	case EventSessionDeleted:
		if id, _, ok := ev.info(); ok {
			c.SessionDeleted(id)
		}
	default:
	}
}

// Inject appends the session's context to system. A nil session id or
// destination, or an absent result, leaves system unchanged.
func (c *Coordinator) Inject(ctx context.Context, sessionID *string, system *[]string) {
	if sessionID == nil || *sessionID == "" || system == nil {
		return
	}
	if text, ok := c.Context(ctx, *sessionID); ok {
		*system = append(*system, text)
	}
}

// InjectRaw is Inject over an untyped payload of the form
// {"sessionID": "...", "system": [...]}. The system field is rewritten in
// place. Payloads of any other shape are left untouched.
func (c *Coordinator) InjectRaw(ctx context.Context, payload map[string]any) {
	if payload == nil {
		return
	}
	id, ok := payload["sessionID"].(string)
	if !ok || id == "" {
		return
	}

	switch system := payload["system"].(type) {
	case []string:
		c.Inject(ctx, &id, &system)
		payload["system"] = system
	case []any:
		for _, item := range system {
			if _, isString := item.(string); !isString {
				return
			}
		}
		if text, found := c.Context(ctx, id); found {
			payload["system"] = append(system, text)
		}
	default:
	}
}
