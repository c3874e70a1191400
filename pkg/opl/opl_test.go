package opl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.WriteRegister(RegTest, 0x20)
	r.BeginTick(7)
	r.WriteRegister(RegFreqLow, 0x34)
	r.WriteRegister(RegKeyOn, 0x21)
	r.WriteRegister(RegFreqLow, 0x47)

	assert.Equal(t, uint8(0x47), r.Register(RegFreqLow))
	assert.Equal(t, []Write{
		{Tick: 0, Reg: RegTest, Value: 0x20},
		{Tick: 7, Reg: RegFreqLow, Value: 0x34},
		{Tick: 7, Reg: RegKeyOn, Value: 0x21},
		{Tick: 7, Reg: RegFreqLow, Value: 0x47},
	}, r.Writes())
	assert.Len(t, r.WritesTo(RegFreqLow), 2)

	var buf bytes.Buffer
	require.NoError(t, r.Dump(&buf))
	assert.Contains(t, buf.String(), "     7  B0 <- 21\n")

	assert.Len(t, r.Drain(), 4)
	assert.Empty(t, r.Writes())
	assert.Equal(t, uint8(0x21), r.Register(RegKeyOn), "drain keeps registers")

	r.Reset()
	assert.Equal(t, uint8(0), r.Register(RegKeyOn))
}

func TestRecorderLimit(t *testing.T) {
	r := NewRecorder()
	r.Limit = 2
	for i := 0; i < 5; i++ {
		r.WriteRegister(RegLevel, uint8(i))
	}
	assert.Len(t, r.Writes(), 2)
	assert.Equal(t, uint8(4), r.Register(RegLevel))

	samples := []int16{1, 2, 3}
	r.Generate(samples)
	assert.Equal(t, []int16{0, 0, 0}, samples)
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	m := Multi{a, b}

	m.BeginTick(3)
	m.WriteRegister(RegRhythm, 0x20)
	assert.Equal(t, a.Writes(), b.Writes())
	assert.Equal(t, uint64(3), b.Writes()[0].Tick)

	samples := []int16{5, 5}
	Multi{}.Generate(samples)
	assert.Equal(t, []int16{0, 0}, samples)

	p := NewPreview(8000)
	Multi{p, a}.WriteRegister(RegKeyOn, 0x21)
	assert.Equal(t, uint8(0x21), p.ReadRegister(RegKeyOn))
}

func TestPreviewSilentUntilKeyOn(t *testing.T) {
	p := NewPreview(NativeRate)
	buf := make([]int16, 1024)
	p.Generate(buf)
	for _, s := range buf {
		require.Equal(t, int16(0), s)
	}

	p.WriteRegister(RegFreqLow, 0x34)
	p.WriteRegister(RegKeyOn, 0x21)
	assert.Equal(t, uint32(0x134<<12), p.voices[0].step)

	p.Generate(buf)
	nonZero := 0
	for _, s := range buf {
		if s != 0 {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 100)
}

func TestPreviewBlockDoublesStep(t *testing.T) {
	p := NewPreview(44100)
	p.WriteRegister(RegFreqLow+2, 0x34)
	p.WriteRegister(RegKeyOn+2, 0x01)
	low := p.voices[2].step
	p.WriteRegister(RegKeyOn+2, 0x05)
	assert.InDelta(t, float64(low*2), float64(p.voices[2].step), 1)
}

func TestPreviewRelease(t *testing.T) {
	p := NewPreview(8000)
	p.WriteRegister(RegSustain+OperatorOffset[0]+3, 0x0F)
	p.WriteRegister(RegFreqLow, 0x34)
	p.WriteRegister(RegKeyOn, 0x21)

	buf := make([]int16, 800)
	p.Generate(buf)
	require.Equal(t, int32(envMax), p.voices[0].env)

	p.WriteRegister(RegKeyOn, 0x01)
	p.Generate(buf)
	assert.Equal(t, int32(0), p.voices[0].env)
}
