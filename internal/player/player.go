// Package player plays track previews through the system audio device.
package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipe/internal/shared"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
)

// maxPreviewBytes caps a downloaded preview; 30s MP3 previews are far smaller.
const maxPreviewBytes = 10 << 20

// Fetcher downloads the preview at url.
type Fetcher func(ctx context.Context, url string) (io.ReadCloser, error)

// Decoder turns an encoded preview into a stream.
type Decoder func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// Output is the audio device.
type Output interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

type speakerOutput struct{}

func (speakerOutput) Init(sr beep.SampleRate, bufferSize int) error { return speaker.Init(sr, bufferSize) }
func (speakerOutput) Play(s ...beep.Streamer)                       { speaker.Play(s...) }
func (speakerOutput) Clear()                                        { speaker.Clear() }
func (speakerOutput) Lock()                                         { speaker.Lock() }
func (speakerOutput) Unlock()                                       { speaker.Unlock() }

// Options configures a [Player]. Zero values use HTTP, MP3 and the system speaker.
type Options struct {
	Fetch  Fetcher
	Decode Decoder
	Output Output
	Client *http.Client
	Logger *log.Logger
}

// Player plays one preview at a time. Starting a preview releases the previous one.
type Player struct {
	fetch  Fetcher
	decode Decoder
	out    Output
	logger *log.Logger

	mu         sync.Mutex
	sampleRate beep.SampleRate
	ctrl       *beep.Ctrl
	streamer   beep.StreamSeekCloser
	url        string
	finished   *atomic.Bool
	gen        uint64 // bumped by every Play and Stop
}

// New creates a [Player]. The audio device is opened on first playback.
func New(opts Options) *Player {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Fetch == nil {
		opts.Fetch = HTTPFetcher(opts.Client)
	}
	if opts.Decode == nil {
		opts.Decode = mp3.Decode
	}
	if opts.Output == nil {
		opts.Output = speakerOutput{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Player{
		fetch:  opts.Fetch,
		decode: opts.Decode,
		out:    opts.Output,
		logger: shared.WithLogger(opts.Logger, "component", "player"),
	}
}

// HTTPFetcher downloads previews into memory so playback never waits on the network.
func HTTPFetcher(client *http.Client) Fetcher {
	return func(ctx context.Context, url string) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("preview download returned status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxPreviewBytes))
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// Play stops the current preview and starts the one at url.
//
// The download and decode run without holding the player lock. If another
// Play or Stop arrives meanwhile, this preview is discarded.
func (p *Player) Play(ctx context.Context, url string) error {
	p.mu.Lock()
	p.releaseLocked()
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	rc, err := p.fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlayback, err)
	}

	streamer, format, err := p.decode(rc)
	if err != nil {
		rc.Close()
		return fmt.Errorf("%w: decode: %v", shared.ErrPlayback, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != gen {
		streamer.Close()
		return fmt.Errorf("%w: superseded by a newer request", shared.ErrPlayback)
	}

	if p.sampleRate == 0 {
		if err := p.out.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("%w: audio device: %v", shared.ErrPlayback, err)
		}
		p.sampleRate = format.SampleRate
	}

	var s beep.Streamer = streamer
	if format.SampleRate != p.sampleRate {
		s = beep.Resample(4, format.SampleRate, p.sampleRate, streamer)
	}

	finished := &atomic.Bool{}
	p.streamer = streamer
	p.url = url
	p.finished = finished
	p.ctrl = &beep.Ctrl{Streamer: beep.Seq(s, beep.Callback(func() { finished.Store(true) }))}
	p.out.Play(p.ctrl)

	p.logger.Debug("playing preview", "url", url, "rate", format.SampleRate)
	return nil
}

// Toggle pauses or resumes the current preview and reports whether it is now playing.
func (p *Player) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil || p.finished.Load() {
		return false
	}

	p.out.Lock()
	p.ctrl.Paused = !p.ctrl.Paused
	paused := p.ctrl.Paused
	p.out.Unlock()
	return !paused
}

// Playing reports whether a preview is loaded, unpaused and not yet finished.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil || p.finished.Load() {
		return false
	}
	p.out.Lock()
	defer p.out.Unlock()
	return !p.ctrl.Paused
}

// Current returns the URL of the loaded preview.
func (p *Player) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Stop halts playback and releases the current preview.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.releaseLocked()
}

// Close stops playback. The player can be used again afterwards.
func (p *Player) Close() error {
	p.Stop()
	return nil
}

func (p *Player) releaseLocked() {
	if p.streamer == nil {
		return
	}
	p.out.Clear()
	if err := p.streamer.Close(); err != nil {
		p.logger.Warn("failed to close preview stream", "url", p.url, "error", err)
	}
	p.streamer = nil
	p.ctrl = nil
	p.url = ""
	p.finished = nil
}
