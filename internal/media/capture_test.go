package media

import (
	"errors"
	"io"
	"testing"
	"time"
)

// fastSource ticks every millisecond so counter assertions settle fast.
func fastSource() Source {
	return &tickerSource{
		interval: time.Millisecond,
		payload:  []byte{0x01},
		done:     make(chan struct{}),
	}
}

func waitFor(t *testing.T, name string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", name)
}

func TestOpenRequiresBothSources(t *testing.T) {
	if _, err := Open(nil, NewBlankVideoSource()); !errors.Is(err, ErrNoSource) {
		t.Fatalf("err = %v, want ErrNoSource", err)
	}
	if _, err := Open(NewSilenceSource(), nil); !errors.Is(err, ErrNoSource) {
		t.Fatalf("err = %v, want ErrNoSource", err)
	}
}

func TestCaptureDeliversSamples(t *testing.T) {
	c, err := Open(fastSource(), fastSource())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	if !c.AudioEnabled() || !c.VideoEnabled() {
		t.Fatalf("tracks must start enabled")
	}
	waitFor(t, "audio samples", func() bool { return c.AudioSamplesSent() > 0 })
	waitFor(t, "video samples", func() bool { return c.VideoSamplesSent() > 0 })
}

func TestMuteDropsSamplesWithoutStoppingSource(t *testing.T) {
	c, err := Open(fastSource(), fastSource())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	waitFor(t, "first audio sample", func() bool { return c.AudioSamplesSent() > 0 })

	c.SetAudioEnabled(false)
	if c.AudioEnabled() {
		t.Fatalf("audio still enabled")
	}
	// Let any in-flight sample land, then the counter must freeze.
	time.Sleep(20 * time.Millisecond)
	frozen := c.AudioSamplesSent()
	time.Sleep(50 * time.Millisecond)
	if got := c.AudioSamplesSent(); got != frozen {
		t.Fatalf("muted audio still delivered: %d -> %d", frozen, got)
	}

	// Video is independent of the audio toggle.
	before := c.VideoSamplesSent()
	waitFor(t, "video progress while audio muted", func() bool { return c.VideoSamplesSent() > before })

	// Unmute resumes delivery without reopening anything.
	c.SetAudioEnabled(true)
	waitFor(t, "audio resumes", func() bool { return c.AudioSamplesSent() > frozen })
}

func TestCloseIsIdempotentAndStopsSources(t *testing.T) {
	audio := fastSource()
	video := fastSource()
	c, err := Open(audio, video)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	// The sources are released: reads now report end of stream.
	if _, err := audio.Read(); err != io.EOF {
		t.Fatalf("audio read after close = %v, want EOF", err)
	}
	if _, err := video.Read(); err != io.EOF {
		t.Fatalf("video read after close = %v, want EOF", err)
	}
}

func TestTrackMetadata(t *testing.T) {
	c, err := Open(fastSource(), fastSource())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	if got := c.AudioTrack().ID(); got != "audio" {
		t.Errorf("audio track ID = %q", got)
	}
	if got := c.VideoTrack().ID(); got != "video" {
		t.Errorf("video track ID = %q", got)
	}
	if got := c.AudioTrack().StreamID(); got != c.VideoTrack().StreamID() {
		t.Errorf("tracks belong to different streams: %q vs %q", got, c.VideoTrack().StreamID())
	}
}
