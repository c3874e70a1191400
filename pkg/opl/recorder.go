package opl

import (
	"fmt"
	"io"
	"sync"
)

// Write is a single recorded register write.
type Write struct {
	Tick  uint64
	Reg   uint8
	Value uint8
}

func (w Write) String() string {
	return fmt.Sprintf("%6d  %02X <- %02X", w.Tick, w.Reg, w.Value)
}

// Recorder is a Chip that remembers every register write and the current
// value of every register. It produces silence.
type Recorder struct {
	mu     sync.Mutex
	writes []Write
	regs   [256]uint8
	tick   uint64

	// Limit caps the number of writes kept. Zero means no limit. The
	// register file is always updated.
	Limit int
}

// NewRecorder creates a new register recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// WriteRegister implements the Chip interface.
func (r *Recorder) WriteRegister(reg, value uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.regs[reg] = value
	if r.Limit > 0 && len(r.writes) >= r.Limit {
		return
	}
	r.writes = append(r.writes, Write{Tick: r.tick, Reg: reg, Value: value})
}

// Generate implements the Chip interface.
func (r *Recorder) Generate(buf []int16) {
	clear(buf)
}

// BeginTick implements the TickObserver interface.
func (r *Recorder) BeginTick(tick uint64) {
	r.mu.Lock()
	r.tick = tick
	r.mu.Unlock()
}

// Register returns the last value written to reg.
func (r *Recorder) Register(reg uint8) uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.regs[reg]
}

// Writes returns a copy of the recorded writes.
func (r *Recorder) Writes() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := make([]Write, len(r.writes))
	copy(w, r.writes)
	return w
}

// WritesTo returns the recorded writes to a single register.
func (r *Recorder) WritesTo(reg uint8) []Write {
	r.mu.Lock()
	defer r.mu.Unlock()

	var w []Write
	for _, e := range r.writes {
		if e.Reg == reg {
			w = append(w, e)
		}
	}
	return w
}

// Drain returns the recorded writes and forgets them. Register values are
// kept.
func (r *Recorder) Drain() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.writes
	r.writes = nil
	return w
}

// Reset forgets all writes and zeroes the register file.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writes = nil
	r.regs = [256]uint8{}
	r.tick = 0
}

// Dump writes one line per recorded write to w.
func (r *Recorder) Dump(w io.Writer) error {
	for _, e := range r.Writes() {
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return err
		}
	}
	return nil
}
