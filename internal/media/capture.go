package media

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
)

// ErrNoSource means a capture was opened without both sources.
var ErrNoSource = errors.New("media source unavailable")

// Capture is the local audio/video source handle. It owns one Opus
// audio track and one VP8 video track, each fed by a Source, and is
// exclusively held by the call controller for the session's lifetime.
//
// Muting drops samples while leaving the track negotiated, so toggles
// never trigger renegotiation.
type Capture struct {
	audioTrack *webrtc.TrackLocalStaticSample
	videoTrack *webrtc.TrackLocalStaticSample

	audioSrc Source
	videoSrc Source

	audioOn atomic.Bool
	videoOn atomic.Bool

	// delivered sample counters, for diagnostics and tests
	audioSent atomic.Uint64
	videoSent atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open builds a capture over the given sources and starts feeding both
// tracks. Both tracks start enabled.
func Open(audio, video Source) (*Capture, error) {
	if audio == nil || video == nil {
		return nil, ErrNoSource
	}

	audioTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "bltcall")
	if err != nil {
		return nil, err
	}
	videoTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "bltcall")
	if err != nil {
		return nil, err
	}

	c := &Capture{
		audioTrack: audioTrack,
		videoTrack: videoTrack,
		audioSrc:   audio,
		videoSrc:   video,
		done:       make(chan struct{}),
	}
	c.audioOn.Store(true)
	c.videoOn.Store(true)

	c.wg.Add(2)
	go c.pump(audio, audioTrack, &c.audioOn, &c.audioSent)
	go c.pump(video, videoTrack, &c.videoOn, &c.videoSent)

	return c, nil
}

// pump moves samples from a source to its track until the source ends
// or the capture closes. Disabled tracks drop samples instead of
// pausing the source, so re-enabling resumes instantly.
func (c *Capture) pump(src Source, track *webrtc.TrackLocalStaticSample, on *atomic.Bool, sent *atomic.Uint64) {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		sample, err := src.Read()
		if err != nil {
			return
		}
		if !on.Load() {
			continue
		}
		if err := track.WriteSample(sample); err != nil {
			return
		}
		sent.Add(1)
	}
}

// AudioTrack returns the local audio track for AddTrack.
func (c *Capture) AudioTrack() *webrtc.TrackLocalStaticSample { return c.audioTrack }

// VideoTrack returns the local video track for AddTrack.
func (c *Capture) VideoTrack() *webrtc.TrackLocalStaticSample { return c.videoTrack }

func (c *Capture) SetAudioEnabled(on bool) { c.audioOn.Store(on) }
func (c *Capture) SetVideoEnabled(on bool) { c.videoOn.Store(on) }

func (c *Capture) AudioEnabled() bool { return c.audioOn.Load() }
func (c *Capture) VideoEnabled() bool { return c.videoOn.Load() }

// AudioSamplesSent reports delivered (non-dropped) audio samples.
func (c *Capture) AudioSamplesSent() uint64 { return c.audioSent.Load() }

// VideoSamplesSent reports delivered (non-dropped) video samples.
func (c *Capture) VideoSamplesSent() uint64 { return c.videoSent.Load() }

// Close releases the capture: both sources stop and both pumps drain.
// Idempotent.
func (c *Capture) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.audioSrc.Close()
		c.videoSrc.Close()
		c.wg.Wait()
	})
	return nil
}
