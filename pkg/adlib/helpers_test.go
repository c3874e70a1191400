package adlib

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/adl-player/pkg/opl"
)

// opcode returns the function opcode byte for table index n.
func opcode(n int) byte {
	return byte(0x80 | n)
}

// soundData builds song data with a full song table and instrument table.
type soundData struct {
	data  []byte
	songs int
}

func newSoundData() *soundData {
	return &soundData{data: make([]byte, instrumentTableOffset+2*16)}
}

// song appends a program and returns its song id.
func (s *soundData) song(program ...byte) int {
	id := s.songs
	binary.LittleEndian.PutUint16(s.data[2*id:], uint16(len(s.data)))
	s.data = append(s.data, program...)
	s.songs++
	return id
}

// instrument appends an instrument and points entry n at it.
func (s *soundData) instrument(n int, inst [11]byte) {
	binary.LittleEndian.PutUint16(s.data[instrumentTableOffset+2*n:], uint16(len(s.data)))
	s.data = append(s.data, inst[:]...)
}

func newTestDriver(t *testing.T, data []byte) (*Driver, *opl.Recorder) {
	t.Helper()
	rec := opl.NewRecorder()
	d, err := New(rec, DefaultConfig(44100))
	require.NoError(t, err)
	d.Init()
	d.SetSoundData(data)
	rec.Drain()
	return d, rec
}

func ticks(d *Driver, n int) {
	for i := 0; i < n; i++ {
		d.Tick()
	}
}
