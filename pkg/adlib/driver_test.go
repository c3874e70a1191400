package adlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/adl-player/pkg/opl"
)

func TestNewConfig(t *testing.T) {
	_, err := New(nil, DefaultConfig(44100))
	assert.Error(t, err)

	_, err = New(opl.NewRecorder(), Config{SampleRate: 10})
	assert.Error(t, err)

	d, err := New(opl.NewRecorder(), Config{SampleRate: 8000})
	require.NoError(t, err)
	assert.Equal(t, int32(DefaultCallbacksPerSecond), d.callbacksPerSecond)
	assert.Equal(t, DefaultMaxDispatch, d.maxDispatch)
	for i := 0; i < NumChannels; i++ {
		assert.False(t, d.Channel(i).Active)
	}
}

func TestInitWrites(t *testing.T) {
	rec := opl.NewRecorder()
	d, err := New(rec, DefaultConfig(44100))
	require.NoError(t, err)
	assert.Empty(t, rec.Writes(), "New must not touch the chip")

	d.Init()
	assert.Equal(t, uint8(0x20), rec.Register(opl.RegTest))
	for _, off := range opl.OperatorOffset {
		assert.Equal(t, uint8(0x3F), rec.Register(opl.RegLevel+off))
		assert.Equal(t, uint8(0x3F), rec.Register(opl.RegLevel+3+off))
	}
}

func TestReadSamplesTickRate(t *testing.T) {
	d, err := New(opl.NewRecorder(), DefaultConfig(44100))
	require.NoError(t, err)

	buf := make([]int16, 44100)
	assert.Equal(t, len(buf), d.ReadSamples(buf))
	assert.Equal(t, uint64(72), d.Ticks())

	d, err = New(opl.NewRecorder(), DefaultConfig(7200))
	require.NoError(t, err)
	small := make([]int16, 50)
	for i := 0; i < 20; i++ {
		d.ReadSamples(small)
	}
	assert.Equal(t, uint64(10), d.Ticks())
}

func TestTickObserver(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, 0x00, 0x40)
	d, rec := newTestDriver(t, sd.data)

	d.StartSong(0)
	ticks(d, 3)
	for _, w := range rec.Writes() {
		assert.Equal(t, uint64(1), w.Tick)
	}
}

func TestNoteScenario(t *testing.T) {
	data := []byte{0x02, 0x00, 0x00, 0x05, 0x00, 0x20}
	d, rec := newTestDriver(t, data)

	d.StartSong(0)
	d.Tick()

	st := d.Channel(0)
	require.True(t, st.Active)
	assert.Equal(t, 6, st.DataPtr)
	assert.Equal(t, uint8(0x20), st.Duration)
	assert.Equal(t, uint8(5), st.Priority)
	assert.Equal(t, uint8(scaleTable[0]&0xFF), d.channels[0].regAx)
	assert.True(t, st.KeyOn)

	assert.Equal(t, uint8(0x34), rec.Register(opl.RegFreqLow))
	assert.Equal(t, uint8(0x21), rec.Register(opl.RegKeyOn))
}

func TestStartClearsVoice(t *testing.T) {
	sd := newSoundData()
	sd.song(2, 5, 0x00, 0x40)
	d, rec := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()

	w := rec.Drain()
	require.GreaterOrEqual(t, len(w), 6)
	expect := []opl.Write{
		{Tick: 1, Reg: 0x62, Value: 0xFF},
		{Tick: 1, Reg: 0x65, Value: 0xFF},
		{Tick: 1, Reg: 0x82, Value: 0xFF},
		{Tick: 1, Reg: 0x85, Value: 0xFF},
		{Tick: 1, Reg: 0xB2, Value: 0x00},
		{Tick: 1, Reg: 0xB2, Value: 0x20},
	}
	assert.Equal(t, expect, w[:6])
}

func TestPriority(t *testing.T) {
	sd := newSoundData()
	first := sd.song(0, 3, 0x00, 0x40)
	lower := sd.song(0, 2, 0x01, 0x40)
	equal := sd.song(0, 3, 0x02, 0x40)
	d, _ := newTestDriver(t, sd.data)

	d.StartSong(first)
	d.StartSong(lower)
	d.Tick()
	st := d.Channel(0)
	ptr := st.DataPtr
	assert.Equal(t, uint8(3), st.Priority)
	assert.Equal(t, uint8(0x00), st.RawNote)

	d.StartSong(lower)
	d.Tick()
	assert.Equal(t, ptr, d.Channel(0).DataPtr)
	assert.Equal(t, uint8(3), d.Channel(0).Priority)

	d.StartSong(equal)
	d.Tick()
	assert.Equal(t, uint8(0x02), d.Channel(0).RawNote)
}

func TestTempoWrapCount(t *testing.T) {
	for tempo := 1; tempo <= 127; tempo++ {
		sd := newSoundData()
		sd.song(0, 1, opcode(41), byte(tempo), 0x00, 0xFF)
		d, _ := newTestDriver(t, sd.data)

		d.StartSong(0)
		d.Tick()
		require.Equal(t, uint8(0xFF), d.Channel(0).Duration)

		ticks(d, 256)
		assert.Equal(t, uint8(0xFF-tempo), d.Channel(0).Duration, "tempo %d", tempo)
	}
}

func TestBeatCounter(t *testing.T) {
	for tempo := int8(1); tempo > 0; tempo++ {
		b := beatCounter{divisor: 1, countdown: 1, position: -1}
		for i := 0; i < 256; i++ {
			b.advance(tempo)
		}
		assert.Equal(t, uint8(tempo), b.count)
		assert.Equal(t, int8(-1), b.position)
	}
}

func TestPitchRange(t *testing.T) {
	d, rec := newTestDriver(t, nil)
	rec.Limit = 1
	ch := &d.channels[0]
	d.curChannel = 0

	for raw := 0; raw < 256; raw++ {
		for baseNote := -15; baseNote <= 15; baseNote++ {
			for _, baseOctave := range []int8{-32, -16, 0, 16, 32, 112} {
				for _, bend := range []int8{0, 5, 31, -5, -31, 100, -100} {
					ch.baseNote = int8(baseNote)
					ch.baseOctave = baseOctave
					ch.pitchBend = bend
					ch.baseFreq = uint8(raw)
					d.setupNote(uint8(raw), ch, bend != 0)

					st := ch.state()
					require.LessOrEqual(t, st.Frequency, uint16(0x3FF))
					require.LessOrEqual(t, st.Octave, uint8(7))
				}
			}
		}
	}
}

func TestOctaveCorrection(t *testing.T) {
	d, _ := newTestDriver(t, nil)
	ch := &d.channels[3]
	d.curChannel = 3

	ch.baseNote = 2
	d.setupNote(0x1B, ch, false)
	assert.Equal(t, scaleTable[1], ch.state().Frequency)
	assert.Equal(t, uint8(2), ch.state().Octave)

	ch.baseNote = -3
	d.setupNote(0x21, ch, false)
	assert.Equal(t, scaleTable[10], ch.state().Frequency)
	assert.Equal(t, uint8(1), ch.state().Octave)
}

func TestRandom(t *testing.T) {
	d, _ := newTestDriver(t, nil)
	assert.Equal(t, []uint16{0x948F, 0xE4DA, 0x4EE4, 0x9C25},
		[]uint16{d.random(), d.random(), d.random(), d.random()})

	d.Init()
	assert.Equal(t, uint16(0x948F), d.random())
}

func TestOpLevels(t *testing.T) {
	ch := &Channel{opLevel1: 0x45, opLevel2: 0xF0, opExtraLevel1: 0x20}
	assert.Equal(t, uint8(0x45), calculateOpLevel1(ch))
	assert.Equal(t, uint8(0xFF), calculateOpLevel2(ch))

	ch.twoChan = 1
	assert.Equal(t, uint8(0x65), calculateOpLevel1(ch))

	ch.opExtraLevel1 = 0xF0
	assert.Equal(t, uint8(0x40), calculateOpLevel1(ch))
}

func TestChannelState(t *testing.T) {
	var c Channel
	c.reset()
	assert.Equal(t, "idle", c.state().String())
	assert.Equal(t, int8(-1), c.tempo)
	assert.Equal(t, uint8(1), c.spacing1)

	c.opExtraLevel2 = 9
	c.reset()
	assert.Equal(t, uint8(9), c.opExtraLevel2)
}
