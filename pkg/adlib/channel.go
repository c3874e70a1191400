package adlib

import "fmt"

// noData marks a channel without a program.
const noData = -1

type primaryEffect uint8

const (
	noPrimaryEffect primaryEffect = iota
	pitchCreepEffect
	vibratoEffect
)

func (e primaryEffect) String() string {
	switch e {
	case pitchCreepEffect:
		return "pitch creep"
	case vibratoEffect:
		return "vibrato"
	}
	return "none"
}

type secondaryEffect uint8

const (
	noSecondaryEffect secondaryEffect = iota
	registerScribbleEffect
)

func (e secondaryEffect) String() string {
	if e == registerScribbleEffect {
		return "register scribble"
	}
	return "none"
}

// pitchCreep slides the frequency by delta every time timer wraps, moving to
// the neighbouring octave when the frequency leaves the 388-733 band.
type pitchCreep struct {
	speed uint8
	timer int8
	delta int16
}

// vibrato alternately adds and subtracts step from the frequency. The step is
// derived from the note frequency on every key on.
type vibrato struct {
	speed     int8
	timer     int8
	shift     uint8
	countdown uint8
	period    uint8
	delayInit uint8
	delay     uint8
	step      uint16
}

// registerScribble walks backwards through a table in the song data, writing
// one entry to an operator register every time timer wraps.
type registerScribble struct {
	speed  uint8
	timer  int8
	start  int8
	index  int8
	reg    uint8
	offset uint16
}

// Channel is the state of one of the ten program channels. Channels 0-8 map
// to the chip's melodic voices, channel 9 drives the other channels and is
// never keyed on or off itself.
type Channel struct {
	// opExtraLevel2 is set from other channels' programs and outlives
	// channel initialisation.
	opExtraLevel2 uint8

	dataptr       int
	duration      uint8
	repeatCounter uint8
	baseOctave    int8
	priority      uint8
	stackPos      int
	stack         [stackDepth]int
	baseNote      int8
	baseFreq      uint8
	tempo         int8
	position      int8
	regAx         uint8
	regBx         uint8
	rawNote       uint8
	pitchBend     int8
	tempoReset    uint8

	spacing1          uint8
	spacing2          uint8
	fractionalSpacing uint8
	durationRandom    uint8

	opLevel1      uint8
	opLevel2      uint8
	opExtraLevel1 uint8
	opExtraLevel3 uint8
	twoChan       uint8

	primary   primaryEffect
	secondary secondaryEffect
	creep     pitchCreep
	vibrato   vibrato
	scribble  registerScribble

	// stored by opcodes 73 and nothing reads them back.
	pairA, pairB uint8
}

// reset returns the channel to its idle state.
func (c *Channel) reset() {
	*c = Channel{
		opExtraLevel2: c.opExtraLevel2,
		dataptr:       noData,
		tempo:         -1,
		spacing1:      1,
	}
}

func (c *Channel) active() bool {
	return c.dataptr != noData
}

func (c *Channel) frequency() uint16 {
	return uint16(c.regBx&0x03)<<8 | uint16(c.regAx)
}

// ChannelState is a snapshot of a channel for display and tests.
type ChannelState struct {
	Active          bool
	DataPtr         int
	Priority        uint8
	Duration        uint8
	Tempo           int8
	Position        int8
	RawNote         uint8
	Frequency       uint16
	Octave          uint8
	KeyOn           bool
	StackDepth      int
	PrimaryEffect   string
	SecondaryEffect string
}

func (s ChannelState) String() string {
	if !s.Active {
		return "idle"
	}
	key := " "
	if s.KeyOn {
		key = "*"
	}
	return fmt.Sprintf("%s %04x prio:%02x dur:%3d freq:%03x oct:%d", key, s.DataPtr, s.Priority, s.Duration, s.Frequency, s.Octave)
}

func (c *Channel) state() ChannelState {
	return ChannelState{
		Active:          c.active(),
		DataPtr:         c.dataptr,
		Priority:        c.priority,
		Duration:        c.duration,
		Tempo:           c.tempo,
		Position:        c.position,
		RawNote:         c.rawNote,
		Frequency:       c.frequency(),
		Octave:          (c.regBx >> 2) & 0x07,
		KeyOn:           c.regBx&0x20 != 0,
		StackDepth:      c.stackPos,
		PrimaryEffect:   c.primary.String(),
		SecondaryEffect: c.secondary.String(),
	}
}
