package audio

import (
	"errors"
	"sync"
	"time"
)

// Output interface for audio output implementations
type Output interface {
	Open(sampleRate, channels, bufferSize int) error
	Close() error
	Write(samples []int16) error
	IsPlaying() bool
}

// Source produces mono 16 bit samples. A short count ends playback.
type Source interface {
	ReadSamples(buf []int16) int
}

// Player pumps a Source into an Output from its own goroutine
type Player struct {
	source     Source
	output     Output
	sampleRate int
	bufferSize int
	volume     float64
	limit      int64
	written    int64
	playing    bool
	paused     bool
	mu         sync.Mutex
	done       chan struct{}
}

// NewPlayer creates a new audio player
func NewPlayer(source Source, output Output) *Player {
	return &Player{
		source: source,
		output: output,
		volume: 1,
	}
}

// SetVolume scales every sample. 1 leaves them unchanged.
func (p *Player) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
}

// SetLimit stops playback after n samples. Zero plays until stopped.
func (p *Player) SetLimit(n int64) {
	p.mu.Lock()
	p.limit = n
	p.mu.Unlock()
}

// Start starts audio playback
func (p *Player) Start(sampleRate, bufferSize int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		return errors.New("already playing")
	}
	if bufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}

	p.sampleRate = sampleRate
	p.bufferSize = bufferSize
	p.written = 0

	if err := p.output.Open(sampleRate, 1, bufferSize); err != nil {
		return err
	}

	p.playing = true
	p.done = make(chan struct{})
	go p.audioLoop(p.done)

	return nil
}

// Stop stops audio playback and closes the output
func (p *Player) Stop() error {
	p.mu.Lock()
	done := p.done
	p.playing = false
	p.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	p.mu.Lock()
	p.done = nil
	p.mu.Unlock()
	return p.output.Close()
}

// Done is closed when the audio loop exits, either because of Stop, the
// sample limit or the source running dry.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Pause pauses playback
func (p *Player) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

// Resume resumes playback
func (p *Player) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
}

// IsPaused returns true if paused
func (p *Player) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// IsPlaying returns true until the audio loop exits
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Written returns the number of samples handed to the output
func (p *Player) Written() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}

// audioLoop is the main audio processing loop
func (p *Player) audioLoop(done chan struct{}) {
	defer close(done)

	buffer := make([]int16, p.bufferSize)

	for {
		p.mu.Lock()
		if !p.playing {
			p.mu.Unlock()
			return
		}
		paused := p.paused
		volume := p.volume
		n := len(buffer)
		if p.limit > 0 && p.written+int64(n) > p.limit {
			n = int(p.limit - p.written)
		}
		p.mu.Unlock()

		if n <= 0 {
			p.finish()
			return
		}

		out := buffer[:n]
		short := false
		if paused {
			for i := range out {
				out[i] = 0
			}
		} else {
			got := p.source.ReadSamples(out)
			if got < n {
				out = out[:got]
				short = true
			}
			if volume != 1 {
				scale(out, volume)
			}
		}

		if len(out) > 0 {
			if err := p.output.Write(out); err != nil {
				time.Sleep(10 * time.Millisecond)
			}
			p.mu.Lock()
			p.written += int64(len(out))
			p.mu.Unlock()
		}
		if short {
			p.finish()
			return
		}
	}
}

func (p *Player) finish() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

// Render pumps n samples from source into output as fast as they can be
// produced, opening and closing output around them.
func Render(source Source, output Output, sampleRate, bufferSize int, n int64) error {
	if bufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	if err := output.Open(sampleRate, 1, bufferSize); err != nil {
		return err
	}

	buffer := make([]int16, bufferSize)
	for n > 0 {
		chunk := buffer
		if int64(len(chunk)) > n {
			chunk = chunk[:n]
		}
		got := source.ReadSamples(chunk)
		if got > 0 {
			if err := output.Write(chunk[:got]); err != nil {
				output.Close()
				return err
			}
		}
		if got < len(chunk) {
			break
		}
		n -= int64(got)
	}
	return output.Close()
}

func scale(samples []int16, volume float64) {
	for i, s := range samples {
		v := float64(s) * volume
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		samples[i] = int16(v)
	}
}

// BufferOutput keeps everything written to it in memory. Tests use it to
// capture what a Player or Render produced.
type BufferOutput struct {
	buffer     []int16
	sampleRate int
	channels   int
	mu         sync.Mutex
}

// NewBufferOutput creates a new buffer output
func NewBufferOutput() *BufferOutput {
	return &BufferOutput{}
}

// Open opens the buffer output
func (b *BufferOutput) Open(sampleRate, channels, bufferSize int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sampleRate = sampleRate
	b.channels = channels
	b.buffer = make([]int16, 0, sampleRate*channels)
	return nil
}

// Close keeps the accumulated samples readable
func (b *BufferOutput) Close() error {
	return nil
}

// Write writes samples to the buffer
func (b *BufferOutput) Write(samples []int16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buffer == nil {
		return errors.New("buffer not initialized")
	}

	b.buffer = append(b.buffer, samples...)
	return nil
}

// IsPlaying always returns true for buffer output
func (b *BufferOutput) IsPlaying() bool {
	return true
}

// GetBuffer returns the accumulated audio buffer
func (b *BufferOutput) GetBuffer() []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]int16, len(b.buffer))
	copy(result, b.buffer)
	return result
}

// Clear clears the buffer
func (b *BufferOutput) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buffer = b.buffer[:0]
}
