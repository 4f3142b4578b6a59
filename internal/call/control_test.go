package call

import "testing"

func TestControlTrackStateRoundTrip(t *testing.T) {
	data, err := encodeControl(controlTypeTrackState, trackStatePayload{Audio: true, Video: false})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	msg, err := decodeControl(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != controlTypeTrackState {
		t.Fatalf("type = %q", msg.Type)
	}

	var state trackStatePayload
	if err := msg.decodePayload(&state); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !state.Audio || state.Video {
		t.Fatalf("state = %+v, want audio on, video off", state)
	}
}

func TestControlByeCarriesNoPayload(t *testing.T) {
	data, err := encodeControl(controlTypeBye, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	msg, err := decodeControl(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != controlTypeBye {
		t.Fatalf("type = %q", msg.Type)
	}
	if len(msg.Payload) != 0 {
		t.Fatalf("bye carried payload %v", msg.Payload)
	}
}

func TestControlRejectsGarbage(t *testing.T) {
	if _, err := decodeControl([]byte{0xc1}); err == nil {
		t.Fatalf("garbage accepted")
	}
}
