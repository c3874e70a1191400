// Package adlib is a bytecode music sequencer for the Adlib (OPL2) sound card.
// Songs are programs for ten virtual channels. A 72Hz timer steps every
// channel program, and the programs turn notes, instruments and effects into
// chip register writes.
package adlib

import (
	"errors"
	"fmt"
	"sync"

	"github.com/olivierh59500/adl-player/pkg/logger"
	"github.com/olivierh59500/adl-player/pkg/opl"
)

const (
	// NumChannels is the number of program channels.
	NumChannels = 10

	// PercussionChannel is the control channel. It has no voice of its own.
	PercussionChannel = 9

	// DefaultCallbacksPerSecond is the rate of the driver's timer.
	DefaultCallbacksPerSecond = 72

	// DefaultMaxDispatch caps the opcodes a single channel may run in one
	// tick. Exceeding it stops the channel.
	DefaultMaxDispatch = 1024

	// SongTableSize is the number of 16 bit song offsets in front of the
	// instrument table. Song ids up to 255 are accepted. Ids past the table
	// read their offsets from the instrument data.
	SongTableSize = instrumentTableOffset / 2

	stackDepth            = 4
	soundIDSlots          = 16
	instrumentTableOffset = 0x1F4
)

// Flag bits returned by SetFlag and ClearFlag.
const (
	// FlagBlockEffects stops songs that don't start on the control channel
	// from being started, except song 0.
	FlagBlockEffects = 0x01

	// FlagBlockMusic stops songs that start on the control channel from
	// being started, except song 0.
	FlagBlockMusic = 0x02

	// FlagInitialised is set by the sound layer once the driver is ready.
	FlagInitialised = 0x04

	// FlagTrigger is set when a song is started and cleared on the second
	// tick after that.
	FlagTrigger = 0x08
)

// Config holds the driver settings.
type Config struct {
	SampleRate         int
	CallbacksPerSecond int
	MaxDispatch        int
}

// DefaultConfig returns the standard 72Hz timer settings at the given output
// rate.
func DefaultConfig(sampleRate int) Config {
	return Config{
		SampleRate:         sampleRate,
		CallbacksPerSecond: DefaultCallbacksPerSecond,
		MaxDispatch:        DefaultMaxDispatch,
	}
}

// beatCounter counts beats for the waitForNextBeat opcode. Its position
// accumulates the global tempo every tick and each wrap counts down towards
// the next beat.
type beatCounter struct {
	divisor   uint8
	countdown uint8
	position  int8
	count     uint8
	waiting   uint8
}

func (b *beatCounter) advance(tempo int8) {
	old := b.position
	b.position += tempo
	if b.position < old {
		b.countdown--
		if b.countdown == 0 {
			b.countdown = b.divisor
			b.count++
		}
	}
}

// Driver is the sequencer. All exported methods are safe to call from any
// goroutine.
type Driver struct {
	mu   sync.Mutex
	chip opl.Chip
	obs  opl.TickObserver

	callbacksPerSecond           int32
	samplesPerCallback           int32
	samplesPerCallbackRemainder  int32
	samplesTillCallback          int32
	samplesTillCallbackRemainder int32
	maxDispatch                  int
	ticks                        uint64

	soundData []byte

	soundIDTable  [soundIDSlots]uint8
	lastProcessed int
	soundsPlaying int

	flags       int
	flagTrigger int8

	channels     [NumChannels]Channel
	curChannel   int
	curRegOffset uint8

	tempo  int8
	rnd    uint16
	beat   beatCounter
	rhythm rhythmSection

	// amVibrato holds the AM and vibrato depth bits of the rhythm register.
	amVibrato uint8

	freqTable1, freqTable2 []uint8

	// soundTrigger is stored by opcode 71. Nothing reads it.
	soundTrigger uint8

	opcode    string
	pending   *FaultError
	lastFault *FaultError
	faults    int
}

// New creates a driver writing to chip. The chip is not touched until Init
// is called.
func New(chip opl.Chip, cfg Config) (*Driver, error) {
	if chip == nil {
		return nil, errors.New("adlib: no chip")
	}
	if cfg.CallbacksPerSecond <= 0 {
		cfg.CallbacksPerSecond = DefaultCallbacksPerSecond
	}
	if cfg.SampleRate < cfg.CallbacksPerSecond {
		return nil, fmt.Errorf("adlib: sample rate %d below callback rate %d", cfg.SampleRate, cfg.CallbacksPerSecond)
	}
	if cfg.MaxDispatch <= 0 {
		cfg.MaxDispatch = DefaultMaxDispatch
	}

	d := &Driver{
		chip:                        chip,
		callbacksPerSecond:          int32(cfg.CallbacksPerSecond),
		samplesPerCallback:          int32(cfg.SampleRate / cfg.CallbacksPerSecond),
		samplesPerCallbackRemainder: int32(cfg.SampleRate % cfg.CallbacksPerSecond),
		maxDispatch:                 cfg.MaxDispatch,
		rnd:                         0x1234,
		beat:                        beatCounter{position: -1},
	}
	d.obs, _ = chip.(opl.TickObserver)
	for i := range d.channels {
		d.channels[i].reset()
	}
	return d, nil
}

// ReadSamples fills buf with chip output, running the timer tick every
// SampleRate/CallbacksPerSecond samples. The remainder of that division is
// carried so that the tick rate stays exact over time.
func (d *Driver) ReadSamples(buf []int16) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	left := buf
	for len(left) > 0 {
		if d.samplesTillCallback == 0 {
			d.tick()
			d.samplesTillCallback = d.samplesPerCallback
			d.samplesTillCallbackRemainder += d.samplesPerCallbackRemainder
			if d.samplesTillCallbackRemainder >= d.callbacksPerSecond {
				d.samplesTillCallback++
				d.samplesTillCallbackRemainder -= d.callbacksPerSecond
			}
		}

		render := len(left)
		if render > int(d.samplesTillCallback) {
			render = int(d.samplesTillCallback)
		}
		d.samplesTillCallback -= int32(render)
		if render > 0 {
			d.chip.Generate(left[:render])
			left = left[render:]
		}
	}
	return len(buf)
}

// Tick runs one timer tick without producing samples.
func (d *Driver) Tick() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tick()
}

// Ticks returns the number of ticks run so far.
func (d *Driver) Ticks() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}

// Channel returns a snapshot of channel i.
func (d *Driver) Channel(i int) ChannelState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= NumChannels {
		return ChannelState{}
	}
	return d.channels[i].state()
}

// Tempo returns the global tempo.
func (d *Driver) Tempo() int8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tempo
}

// LastFault returns the most recent song data fault, or nil.
func (d *Driver) LastFault() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastFault == nil {
		return nil
	}
	return d.lastFault
}

// Faults returns the number of channels stopped by malformed song data.
func (d *Driver) Faults() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.faults
}

func (d *Driver) tick() {
	d.ticks++
	if d.obs != nil {
		d.obs.BeginTick(d.ticks)
	}

	if d.flagTrigger >= 0 {
		d.flagTrigger--
	}
	if d.flagTrigger < 0 {
		d.flags &^= FlagTrigger
	}

	d.startQueued()
	d.processChannels()
	d.beat.advance(d.tempo)
}

// startQueued starts every song queued by StartSong since the last tick.
func (d *Driver) startQueued() {
	for d.lastProcessed != d.soundsPlaying {
		id := d.soundIDTable[d.lastProcessed]
		d.lastProcessed = (d.lastProcessed + 1) % soundIDSlots
		d.startSongChannel(int(id), false)
	}
}

// songOffset returns the offset of song id's program in the sound data.
func (d *Driver) songOffset(id int) (int, bool) {
	if id < 0 || id > 0xFF || 2*id+1 >= len(d.soundData) {
		return 0, false
	}
	off := int(d.soundData[2*id]) | int(d.soundData[2*id+1])<<8
	if off+1 >= len(d.soundData) {
		return 0, false
	}
	return off, true
}

// startSongChannel installs song id on the channel named by its first byte
// unless that channel is busy with a higher priority program. Missing songs
// are logged and ignored; a song naming a channel that does not exist
// returns ErrBadChannel.
func (d *Driver) startSongChannel(id int, fromProgram bool) error {
	off, ok := d.songOffset(id)
	if !ok {
		logger.Logf("adlib", "song %d: no such song", id)
		return nil
	}
	chanNum := int(d.soundData[off])
	priority := d.soundData[off+1]
	if chanNum >= NumChannels {
		logger.Logf("adlib", "song %d: channel %d out of range", id, chanNum)
		return ErrBadChannel
	}

	ch := &d.channels[chanNum]
	if priority < ch.priority {
		return nil
	}

	ch.reset()
	ch.priority = priority
	ch.dataptr = off + 2
	ch.tempo = -1
	ch.position = -1
	ch.duration = 1

	if fromProgram {
		d.flagTrigger = 1
		d.flags |= FlagTrigger
	}
	d.clearVoice(chanNum)
	return nil
}

// clearVoice silences the voice behind channel c: envelopes are set to their
// fastest release and the key is cycled so the chip restarts the envelope.
func (d *Driver) clearVoice(c int) {
	if c == PercussionChannel {
		return
	}
	if d.rhythm.mode != 0 && c >= 6 {
		return
	}
	off := regOffset[c]
	d.writeOPL(opl.RegAttackDecay+off, 0xFF)
	d.writeOPL(opl.RegAttackDecay+3+off, 0xFF)
	d.writeOPL(opl.RegSustain+off, 0xFF)
	d.writeOPL(opl.RegSustain+3+off, 0xFF)
	d.writeOPL(opl.RegKeyOn+uint8(c), 0x00)
	d.writeOPL(opl.RegKeyOn+uint8(c), 0x20)
}

func (d *Driver) processChannels() {
	for d.curChannel = NumChannels - 1; d.curChannel >= 0; d.curChannel-- {
		ch := &d.channels[d.curChannel]
		if !ch.active() {
			continue
		}
		d.curRegOffset = regOffset[d.curChannel]

		if ch.tempoReset != 0 {
			ch.tempo = d.tempo
		}

		result := stopDispatch
		old := ch.position
		ch.position += ch.tempo
		if ch.position < old {
			ch.duration--
			if ch.duration != 0 {
				if ch.duration == ch.spacing2 {
					d.noteOff(ch)
				}
				if ch.duration == ch.spacing1 && d.curChannel != PercussionChannel {
					d.noteOff(ch)
				}
			} else {
				result = d.dispatch(ch)
			}
		}

		if result == stopDispatch && ch.active() {
			d.runEffects(ch)
		}
	}
}

// dispatch runs opcodes until one of them ends the channel's turn.
func (d *Driver) dispatch(ch *Channel) opResult {
	result := stopDispatch
	for n := 0; ch.active(); n++ {
		if n >= d.maxDispatch {
			d.fault(ch, ErrDispatchLimit)
			d.stopOnFault(ch)
			return suppressEffects
		}

		at := ch.dataptr
		opcode := d.fetch(ch)
		param := d.fetch(ch)
		if d.pending != nil {
			d.stopOnFault(ch)
			return suppressEffects
		}

		if opcode&0x80 != 0 {
			op := int(opcode & 0x7F)
			if op >= len(parserOpcodes) {
				op = len(parserOpcodes) - 1
			}
			d.opcode = parserOpcodes[op].name
			result = parserOpcodes[op].fn(d, ch, param)
			d.opcode = ""
			if d.pending != nil {
				d.pending.Offset = at
				d.stopOnFault(ch)
				return suppressEffects
			}
			if result != continueDispatch {
				break
			}
			continue
		}

		d.setupNote(opcode, ch, false)
		d.noteOn(ch)
		d.setupDuration(param, ch)
		if param != 0 {
			result = stopDispatch
			break
		}
	}
	return result
}

func (d *Driver) runEffects(ch *Channel) {
	switch ch.primary {
	case pitchCreepEffect:
		d.pitchCreep(ch)
	case vibratoEffect:
		d.vibrato(ch)
	}
	if ch.secondary == registerScribbleEffect {
		d.registerScribble(ch)
	}
	if d.pending != nil {
		d.stopOnFault(ch)
	}
}

func (d *Driver) writeOPL(reg, value uint8) {
	d.chip.WriteRegister(reg, value)
}

// fetch reads the next program byte of ch. Reading outside the sound data
// records a fault and returns 0.
func (d *Driver) fetch(ch *Channel) uint8 {
	b, ok := d.byteAt(ch.dataptr)
	if !ok {
		d.fault(ch, ErrDataFault)
	}
	ch.dataptr++
	return b
}

// fetchWord reads a little endian word from the program of ch.
func (d *Driver) fetchWord(ch *Channel) uint16 {
	lo := d.fetch(ch)
	hi := d.fetch(ch)
	return uint16(lo) | uint16(hi)<<8
}

func (d *Driver) byteAt(off int) (uint8, bool) {
	if off < 0 || off >= len(d.soundData) {
		return 0, false
	}
	return d.soundData[off], true
}

func (d *Driver) wordAt(off int) (uint16, bool) {
	if off < 0 || off+1 >= len(d.soundData) {
		return 0, false
	}
	return uint16(d.soundData[off]) | uint16(d.soundData[off+1])<<8, true
}

// fault records the first error of the current opcode. The channel is
// stopped once the opcode returns.
func (d *Driver) fault(ch *Channel, err error) {
	if d.pending != nil {
		return
	}
	d.pending = &FaultError{
		Channel: d.curChannel,
		Offset:  ch.dataptr,
		Opcode:  d.opcode,
		Err:     err,
	}
}

func (d *Driver) stopOnFault(ch *Channel) {
	f := d.pending
	d.pending = nil
	d.lastFault = f
	d.faults++
	logger.Log("adlib", f.Error())

	ch.priority = 0
	if d.curChannel != PercussionChannel {
		d.noteOff(ch)
	}
	ch.dataptr = noData
}
