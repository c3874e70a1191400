package adlib

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/adl-player/pkg/opl"
)

func TestOpcodeTable(t *testing.T) {
	for i, op := range parserOpcodes {
		assert.NotEmpty(t, op.name, "opcode %d", i)
		assert.NotNil(t, op.fn, "opcode %d", i)
	}
	assert.Equal(t, "setChannelTempo", OpcodeName(opcode(41)))
	assert.Equal(t, "setupRhythmSection", OpcodeName(65))
	assert.Equal(t, "stopChannel", OpcodeName(0xFF))
}

func TestOpcodeClamp(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, 0xFF, 0x00, 0x00, 0x40)
	d, _ := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()
	assert.False(t, d.Channel(0).Active)
	assert.Equal(t, uint8(0), d.Channel(0).Priority)
	assert.Equal(t, 0, d.Faults())
}

func TestSubroutine(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5,
		opcode(5), 0x02, 0x00, // call +2
		opcode(8), 0x00, // stop
		0x00, 0x00, // grace note
		opcode(6), 0x00, // return
	)
	d, rec := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()
	assert.False(t, d.Channel(0).Active)
	assert.Equal(t, 0, d.Faults())
	require.Len(t, rec.WritesTo(opl.RegFreqLow), 1)
	assert.Equal(t, uint8(0x34), rec.WritesTo(opl.RegFreqLow)[0].Value)
}

func TestCheckRepeat(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5,
		opcode(0), 3,
		0x01, 0x00,
		opcode(1), 0xFB, 0xFF,
		opcode(8), 0x00,
	)
	d, rec := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()
	assert.Len(t, rec.WritesTo(opl.RegFreqLow), 3)
	assert.Equal(t, 0, d.Faults())
}

func TestJumpLoops(t *testing.T) {
	sd := newSoundData()
	id := sd.song(0, 5,
		0x00, 0x02,
		opcode(4), 0xFB, 0xFF,
	)
	d, rec := newTestDriver(t, sd.data)

	d.StartSong(id)
	ticks(d, 20)
	assert.True(t, d.Channel(0).Active)
	assert.Len(t, rec.WritesTo(opl.RegFreqLow), 10)
}

func TestFaults(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		err     error
	}{
		{"stack overflow", []byte{0, 5, opcode(5), 0xFD, 0xFF}, ErrStackOverflow},
		{"stack underflow", []byte{0, 5, opcode(6), 0x00}, ErrStackUnderflow},
		{"endless loop", []byte{0, 5, opcode(4), 0xFD, 0xFF}, ErrDispatchLimit},
		{"bad channel", []byte{0, 5, opcode(14), 12}, ErrBadChannel},
		{"bad jump", []byte{0, 5, opcode(4), 0x00, 0x80}, ErrDataFault},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sd := newSoundData()
			sd.song(tc.program...)
			d, _ := newTestDriver(t, sd.data)

			d.StartSong(0)
			d.Tick()

			assert.False(t, d.Channel(0).Active)
			assert.Equal(t, 1, d.Faults())
			err := d.LastFault()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.err), err.Error())

			var fe *FaultError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, 0, fe.Channel)
		})
	}
}

func TestRunOffEnd(t *testing.T) {
	data := []byte{0x02, 0x00, 0x00, 0x05, opcode(7)}
	d, _ := newTestDriver(t, data)

	d.StartSong(0)
	d.Tick()
	assert.False(t, d.Channel(0).Active)
	assert.ErrorIs(t, d.LastFault(), ErrDataFault)
}

func TestFaultLeavesOtherChannels(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, opcode(6), 0x00)
	sd.song(1, 5, 0x00, 0x40)
	d, _ := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.StartSong(1)
	d.Tick()
	assert.False(t, d.Channel(0).Active)
	assert.True(t, d.Channel(1).Active)
}

func TestStartSongFromProgram(t *testing.T) {
	sd := newSoundData()
	sd.song(9, 1, opcode(2), 1, opcode(2), 0xFF, opcode(8), 0x00)
	sd.song(0, 5, 0x00, 0x40)
	d, _ := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()
	assert.False(t, d.Channel(9).Active)
	assert.True(t, d.Channel(0).Active)
	assert.Equal(t, uint8(0x40), d.Channel(0).Duration)
	assert.True(t, d.TriggerPending())

	d.Tick()
	d.Tick()
	assert.False(t, d.TriggerPending())
}

func TestStartSongFromProgramBadChannel(t *testing.T) {
	sd := newSoundData()
	sd.song(1, 5, opcode(2), 1, 0x00, 0x40)
	sd.song(12, 5, 0x00, 0x40)
	d, _ := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()

	assert.False(t, d.Channel(1).Active)
	assert.ErrorIs(t, d.LastFault(), ErrBadChannel)
	var fe *FaultError
	require.True(t, errors.As(d.LastFault(), &fe))
	assert.Equal(t, 1, fe.Channel)

	d.StartSong(1)
	d.Tick()
	assert.Equal(t, 1, d.Faults(), "queued start of a bad song is only logged")
}

func TestWaitForEndOfProgram(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, 0x00, 0x04, opcode(8), 0x00)
	sd.song(1, 5, opcode(15), 0, 0x05, 0x10)
	d, _ := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.StartSong(1)
	d.Tick()
	ptr := d.Channel(1).DataPtr
	assert.True(t, d.Channel(1).Active)
	assert.Equal(t, uint8(0), d.Channel(1).RawNote)

	ticks(d, 4)
	assert.False(t, d.Channel(0).Active)
	assert.Equal(t, ptr, d.Channel(1).DataPtr)
}

func TestWaitForNextBeat(t *testing.T) {
	sd := newSoundData()
	sd.song(9, 5,
		opcode(38), 0x40, // tempo
		opcode(28), 0x02, // beat every wrap
		opcode(29), 0x01,
		opcode(8), 0x00,
	)
	d, _ := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()
	assert.True(t, d.Channel(9).Active)
	assert.Equal(t, int8(0x40), d.Tempo())

	ticks(d, 8)
	assert.False(t, d.Channel(9).Active)
}

func TestRandomDuration(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, opcode(60), 0x0F, 0x00, 0x10)
	d, _ := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()
	assert.Equal(t, uint8(0x1F), d.Channel(0).Duration)
}

func TestFractionalSpacing(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, opcode(36), 0x02, 0x00, 0x40)
	d, _ := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()
	assert.Equal(t, uint8(16), d.channels[0].spacing2)

	ticks(d, 47)
	assert.True(t, d.Channel(0).KeyOn)
	d.Tick()
	assert.False(t, d.Channel(0).KeyOn)
}

func TestSetupInstrument(t *testing.T) {
	sd := newSoundData()
	sd.instrument(3, [11]byte{0x21, 0x22, 0x0B, 0x01, 0x02, 0x85, 0x10, 0xF1, 0xF2, 0x13, 0x14})
	sd.song(4, 5, opcode(16), 3, opcode(30), 0x08, opcode(8), 0x00)
	d, rec := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()

	off := opl.OperatorOffset[4]
	assert.Equal(t, uint8(0x21), rec.Register(opl.RegModulation+off))
	assert.Equal(t, uint8(0x22), rec.Register(opl.RegModulation+3+off))
	assert.Equal(t, uint8(0x0B), rec.Register(opl.RegFeedback+4))
	assert.Equal(t, uint8(0x01), rec.Register(opl.RegWaveform+off))
	assert.Equal(t, uint8(0x02), rec.Register(opl.RegWaveform+3+off))
	assert.Equal(t, uint8(0xF1), rec.Register(opl.RegAttackDecay+off))
	assert.Equal(t, uint8(0x14), rec.Register(opl.RegSustain+3+off))

	// additive mode, so the extra level reaches both operators
	assert.Equal(t, uint8(0x8D), rec.Register(opl.RegLevel+off))
	assert.Equal(t, uint8(0x18), rec.Register(opl.RegLevel+3+off))
}

func TestClearChannel(t *testing.T) {
	sd := newSoundData()
	sd.song(2, 5, 0x00, 0x40)
	sd.song(9, 5, opcode(51), 2, opcode(8), 0x00)
	d, rec := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()
	require.True(t, d.Channel(2).Active)

	d.StartSong(1)
	d.Tick()
	assert.False(t, d.Channel(2).Active)
	assert.Equal(t, uint8(0x3F), rec.Register(opl.RegLevel+3+opl.OperatorOffset[2]))
	assert.Equal(t, uint8(0x00), rec.Register(opl.RegKeyOn+2))
}

func TestChangeChannelTempo(t *testing.T) {
	var d Driver
	ch := &Channel{tempo: -16}
	d.opChangeChannelTempo(ch, 0x20)
	assert.Equal(t, int8(-1), ch.tempo, "speeding up past 0xFF clamps")

	ch.tempo = 0x10
	d.opChangeChannelTempo(ch, 0x20)
	assert.Equal(t, int8(0x30), ch.tempo)

	ch.tempo = 0x10
	d.opChangeChannelTempo(ch, 0xF0)
	assert.Equal(t, int8(0x00), ch.tempo)

	ch.tempo = -120
	d.opChangeChannelTempo(ch, 0xF0)
	assert.Equal(t, int8(1), ch.tempo, "slowing down past -128 clamps")
}

func TestRhythmSection(t *testing.T) {
	sd := newSoundData()
	sd.instrument(0, [11]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x00, 0x10, 0x08, 0x09, 0x0A, 0x0B})
	sd.instrument(1, [11]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x11, 0x12, 0x08, 0x09, 0x0A, 0x0B})
	sd.instrument(2, [11]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x13, 0x14, 0x08, 0x09, 0x0A, 0x0B})
	sd.song(9, 1,
		opcode(65), 0, 1, 2, 0x0A, 0x50, 0x0B, 0x60, 0x0C, 0x70,
		opcode(66), 0x10,
		opcode(68), 0x10, 0x02,
		opcode(8), 0x00,
	)
	d, rec := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()
	require.Equal(t, 0, d.Faults())

	assert.Equal(t, uint8(0x10), d.rhythm.drums[bassDrum].base)
	assert.Equal(t, uint8(0x11), d.rhythm.drums[hiHat].base)
	assert.Equal(t, uint8(0x12), d.rhythm.drums[snareDrum].base)
	assert.Equal(t, uint8(0x13), d.rhythm.drums[tomTom].base)
	assert.Equal(t, uint8(0x14), d.rhythm.drums[cymbal].base)

	assert.Equal(t, uint8(0x0A), rec.Register(opl.RegKeyOn+6))
	assert.Equal(t, uint8(0x60), rec.Register(opl.RegFreqLow+7))
	assert.Equal(t, uint8(0x03), rec.Register(opl.RegFeedback+8))
	assert.Equal(t, uint8(0x30), rec.Register(opl.RegRhythm))
	assert.Equal(t, uint8(0x30), d.rhythm.mode)
	assert.Equal(t, uint8(0x14), rec.Register(0x53))

	// channels 6-8 are not keyed off while the drums own them
	d.curChannel = 6
	d.channels[6].regBx = 0x2A
	d.noteOff(&d.channels[6])
	assert.Equal(t, uint8(0x2A), d.channels[6].regBx)
}
