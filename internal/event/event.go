package event

import "encoding/json"

// WsEvent is the envelope for every frame on the socket, in both directions.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// New marshals payload into an envelope. A nil payload produces an envelope
// without a body.
func New(name string, payload any) (WsEvent, error) {
	if payload == nil {
		return WsEvent{Event: name}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{}, err
	}
	return WsEvent{Event: name, Payload: raw}, nil
}
