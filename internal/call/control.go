package call

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Once the peers are connected, a "control" data channel carries small
// peer-to-peer notices the relay never sees: track mute state and a
// hangup fallback for when the relay connection is already gone.

const controlChannelLabel = "control"

const (
	controlTypeTrackState = "track-state"
	controlTypeBye        = "bye"
)

// controlMessage is the msgpack envelope for control channel traffic.
type controlMessage struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload,omitempty"`
}

// trackStatePayload reports which local tracks are live.
type trackStatePayload struct {
	Audio bool `msgpack:"audio"`
	Video bool `msgpack:"video"`
}

func encodeControl(msgType string, payload any) ([]byte, error) {
	msg := controlMessage{Type: msgType}
	if payload != nil {
		b, err := msgpack.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = b
	}
	return msgpack.Marshal(msg)
}

func decodeControl(data []byte) (*controlMessage, error) {
	var msg controlMessage
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *controlMessage) decodePayload(v any) error {
	return msgpack.Unmarshal(m.Payload, v)
}
