package media

import (
	"io"
	"sync"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
)

// Source delivers encoded media samples for one track. Device and codec
// internals stay behind this interface; the call layer only moves
// samples. Read blocks until the next sample; io.EOF ends the pump.
type Source interface {
	Read() (media.Sample, error)
	Close() error
}

// tickerSource emits a fixed payload at a fixed interval. It stands in
// for real device capture in loopback runs and tests.
type tickerSource struct {
	interval  time.Duration
	payload   []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (s *tickerSource) Read() (media.Sample, error) {
	select {
	case <-time.After(s.interval):
		return media.Sample{Data: s.payload, Duration: s.interval}, nil
	case <-s.done:
		return media.Sample{}, io.EOF
	}
}

func (s *tickerSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// NewSilenceSource returns an audio source producing 20ms Opus silence
// frames.
func NewSilenceSource() Source {
	return &tickerSource{
		interval: 20 * time.Millisecond,
		payload:  []byte{0xf8, 0xff, 0xfe}, // Opus silence
		done:     make(chan struct{}),
	}
}

// NewBlankVideoSource returns a video source ticking at ~30fps with an
// empty frame payload.
func NewBlankVideoSource() Source {
	return &tickerSource{
		interval: 33 * time.Millisecond,
		payload:  []byte{0x00},
		done:     make(chan struct{}),
	}
}
