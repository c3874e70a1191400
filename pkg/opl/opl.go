// Package opl describes the register interface of a YM3812 (OPL2) sound chip
// as seen by a music driver, plus two implementations of it: a Recorder that
// captures register traffic and a Preview renderer that turns the frequency
// and key-on registers into audible square waves.
package opl

// Chip is a sound chip driven by register writes. Generate fills buf with
// mono signed 16-bit samples at the rate the chip was created with.
type Chip interface {
	WriteRegister(reg, value uint8)
	Generate(buf []int16)
}

// TickObserver is implemented by chips that want to know when the driver
// starts a new timer tick.
type TickObserver interface {
	BeginTick(tick uint64)
}

// Register bases of the OPL2 register map.
const (
	RegTest        = 0x01
	RegCSM         = 0x08
	RegModulation  = 0x20
	RegLevel       = 0x40
	RegAttackDecay = 0x60
	RegSustain     = 0x80
	RegFreqLow     = 0xA0
	RegKeyOn       = 0xB0
	RegRhythm      = 0xBD
	RegFeedback    = 0xC0
	RegWaveform    = 0xE0
)

// KeyOnBit is the key-on flag in the 0xB0 register group.
const KeyOnBit = 0x20

// OperatorOffset holds the register offset of operator 1 for each of the
// nine melodic channels. Operator 2 is at the same offset plus 3.
var OperatorOffset = [9]uint8{
	0x00, 0x01, 0x02, 0x08, 0x09, 0x0A, 0x10, 0x11, 0x12,
}

// NativeRate is the internal sample rate of an OPL2 clocked at 3.579545 MHz.
const NativeRate = 49716

// Multi fans register writes out to several chips. Samples come from the
// first chip only.
type Multi []Chip

// WriteRegister implements the Chip interface.
func (m Multi) WriteRegister(reg, value uint8) {
	for _, c := range m {
		c.WriteRegister(reg, value)
	}
}

// Generate implements the Chip interface.
func (m Multi) Generate(buf []int16) {
	if len(m) == 0 {
		clear(buf)
		return
	}
	m[0].Generate(buf)
}

// BeginTick implements the TickObserver interface.
func (m Multi) BeginTick(tick uint64) {
	for _, c := range m {
		if o, ok := c.(TickObserver); ok {
			o.BeginTick(tick)
		}
	}
}
