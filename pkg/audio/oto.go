package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process. It is created by the first Open and
// kept for the lifetime of the program.
var (
	otoMutex   sync.Mutex
	otoContext *oto.Context
	otoRate    int
)

// StreamingOtoOutput uses Oto v3 for cross-platform audio
type StreamingOtoOutput struct {
	player  *oto.Player
	writer  *io.PipeWriter
	reader  *io.PipeReader
	scratch []byte
	mu      sync.Mutex
	closed  bool
}

// NewStreamingOtoOutput creates a new streaming Oto output
func NewStreamingOtoOutput() (*StreamingOtoOutput, error) {
	return &StreamingOtoOutput{}, nil
}

func sharedContext(sampleRate, channels, bufferSize int) (*oto.Context, error) {
	otoMutex.Lock()
	defer otoMutex.Unlock()

	if otoContext != nil {
		if otoRate != sampleRate {
			return nil, fmt.Errorf("audio context already running at %dHz", otoRate)
		}
		return otoContext, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(bufferSize) * time.Second / time.Duration(sampleRate),
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	otoContext = ctx
	otoRate = sampleRate
	return ctx, nil
}

// Open opens the streaming audio output
func (s *StreamingOtoOutput) Open(sampleRate, channels, bufferSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil {
		return fmt.Errorf("stream already open")
	}

	ctx, err := sharedContext(sampleRate, channels, bufferSize)
	if err != nil {
		return err
	}

	s.reader, s.writer = io.Pipe()
	s.player = ctx.NewPlayer(s.reader)
	s.closed = false
	s.player.Play()

	return nil
}

// Close lets queued audio drain, then closes the stream
func (s *StreamingOtoOutput) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.player == nil {
		return nil
	}
	s.closed = true

	s.writer.Close()

	deadline := time.Now().Add(500 * time.Millisecond)
	for s.player.IsPlaying() && s.player.BufferedSize() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	err := s.player.Close()
	s.reader.Close()
	s.player = nil
	s.writer = nil
	s.reader = nil
	return err
}

// Write writes samples to the stream
func (s *StreamingOtoOutput) Write(samples []int16) error {
	s.mu.Lock()
	if s.closed || s.writer == nil {
		s.mu.Unlock()
		return fmt.Errorf("stream not open")
	}
	writer := s.writer
	if cap(s.scratch) < len(samples)*2 {
		s.scratch = make([]byte, len(samples)*2)
	}
	buf := s.scratch[:len(samples)*2]
	s.mu.Unlock()

	for i, sample := range samples {
		buf[i*2] = byte(sample)
		buf[i*2+1] = byte(sample >> 8)
	}

	_, err := writer.Write(buf)
	return err
}

// IsPlaying returns true if playing
func (s *StreamingOtoOutput) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.player != nil
}

// FallbackOutput discards samples at the rate a sound card would consume
// them. It keeps the driver running in real time without audio hardware.
type FallbackOutput struct {
	sampleRate int
	closed     bool
	mu         sync.Mutex
}

// NewFallbackOutput creates a new fallback output
func NewFallbackOutput() (*FallbackOutput, error) {
	return &FallbackOutput{}, nil
}

// Open opens the fallback output
func (f *FallbackOutput) Open(sampleRate, channels, bufferSize int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	f.sampleRate = sampleRate * channels
	f.closed = false
	return nil
}

// Close closes the fallback output
func (f *FallbackOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

// Write sleeps for as long as the samples would take to play
func (f *FallbackOutput) Write(samples []int16) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return fmt.Errorf("output closed")
	}
	sampleRate := f.sampleRate
	f.mu.Unlock()

	time.Sleep(time.Duration(len(samples)) * time.Second / time.Duration(sampleRate))
	return nil
}

// IsPlaying returns true until closed
func (f *FallbackOutput) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}
