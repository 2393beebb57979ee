package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DecodeError reports malformed or schema-violating serialized input. Corrupt
// events are surfaced to the caller of the codec boundary, never silently
// coerced into a partially populated event.
type DecodeError struct {
	Type Type
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("event: decode %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("event: decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// envelope is the wire shape of an event. Optional fields are omitted, not
// nulled; the payload is inlined as the kind-specific object.
type envelope struct {
	ID        string          `json:"id,omitempty"`
	GameID    string          `json:"game_id"`
	Seq       uint64          `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Type      Type            `json:"type"`
	Turn      int             `json:"turn"`
	Phase     Phase           `json:"phase"`
	ActorID   string          `json:"actor_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Marshal serializes an event to its stable textual form. The encoding is
// deterministic: struct fields keep declaration order and map keys are sorted
// by encoding/json, so equal events always serialize to equal bytes.
func Marshal(evt Event) ([]byte, error) {
	if evt.Payload == nil {
		return nil, fmt.Errorf("event: marshal %s: payload is required", evt.Type)
	}
	payloadJSON, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("event: marshal %s payload: %w", evt.Type, err)
	}
	env := envelope{
		ID:        evt.ID,
		GameID:    evt.GameID,
		Seq:       evt.Seq,
		Timestamp: evt.Timestamp,
		Type:      evt.Type,
		Turn:      evt.Turn,
		Phase:     evt.Phase,
		ActorID:   evt.ActorID,
		Payload:   payloadJSON,
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("event: marshal %s: %w", evt.Type, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal parses a single serialized event. Unknown event types, unknown
// payload fields, and malformed JSON all fail with a *DecodeError.
func Unmarshal(data []byte) (Event, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return Event{}, &DecodeError{Err: err}
	}
	if !env.Type.IsValid() {
		return Event{}, &DecodeError{Err: fmt.Errorf("missing event type")}
	}
	prototype, ok := payloadPrototypes[env.Type]
	if !ok {
		return Event{}, &DecodeError{Type: env.Type, Err: fmt.Errorf("unknown event type")}
	}
	if len(env.Payload) == 0 {
		return Event{}, &DecodeError{Type: env.Type, Err: fmt.Errorf("missing payload")}
	}
	payload := prototype()
	pdec := json.NewDecoder(bytes.NewReader(env.Payload))
	pdec.DisallowUnknownFields()
	if err := pdec.Decode(payload); err != nil {
		return Event{}, &DecodeError{Type: env.Type, Err: err}
	}
	return Event{
		ID:        env.ID,
		GameID:    env.GameID,
		Seq:       env.Seq,
		Timestamp: env.Timestamp,
		Type:      env.Type,
		Turn:      env.Turn,
		Phase:     env.Phase,
		ActorID:   env.ActorID,
		Payload:   payload,
	}, nil
}

// MarshalAll serializes an ordered slice of events as a JSON array.
func MarshalAll(events []Event) ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(events))
	for i, evt := range events {
		data, err := Marshal(evt)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		raws = append(raws, data)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raws); err != nil {
		return nil, fmt.Errorf("event: marshal log: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalAll parses a JSON array of serialized events, preserving order.
func UnmarshalAll(data []byte) ([]Event, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &DecodeError{Err: err}
	}
	events := make([]Event, 0, len(raws))
	for i, raw := range raws {
		evt, err := Unmarshal(raw)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, evt)
	}
	return events, nil
}
