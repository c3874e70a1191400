package audio

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVOutput writes 16 bit PCM to a WAV file
type WAVOutput struct {
	filename string
	file     *os.File
	enc      *wav.Encoder
	buf      *audio.IntBuffer
	written  int64
	mu       sync.Mutex
}

// NewWAVOutput creates an output writing to filename when opened
func NewWAVOutput(filename string) *WAVOutput {
	return &WAVOutput{filename: filename}
}

// Open creates the file
func (w *WAVOutput) Open(sampleRate, channels, bufferSize int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return fmt.Errorf("%s already open", w.filename)
	}

	f, err := os.Create(w.filename)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}

	w.file = f
	w.enc = wav.NewEncoder(f, sampleRate, 16, channels, 1)
	w.buf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, 0, bufferSize),
		SourceBitDepth: 16,
	}
	w.written = 0
	return nil
}

// Write appends samples to the file
func (w *WAVOutput) Write(samples []int16) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.enc == nil {
		return fmt.Errorf("file not open")
	}

	w.buf.Data = w.buf.Data[:0]
	for _, s := range samples {
		w.buf.Data = append(w.buf.Data, int(s))
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	w.written += int64(len(samples))
	return nil
}

// Close finishes the WAV header and closes the file
func (w *WAVOutput) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}

	err := w.enc.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	w.enc = nil
	return err
}

// IsPlaying returns true while the file is open
func (w *WAVOutput) IsPlaying() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file != nil
}

// Written returns the number of samples written
func (w *WAVOutput) Written() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}
