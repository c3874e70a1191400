package adlib

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/adl-player/pkg/opl"
)

func TestFlags(t *testing.T) {
	d, _ := newTestDriver(t, nil)

	for _, mask := range []int{FlagBlockEffects, FlagBlockMusic, FlagInitialised, FlagBlockEffects | FlagBlockMusic} {
		before := d.Flags()
		assert.Equal(t, before, d.SetFlag(mask))
		assert.Equal(t, before|mask, d.Flags())
		assert.Equal(t, before|mask, d.ClearFlag(mask))
		assert.Equal(t, before&^mask, d.Flags())
	}
}

func TestStopAllChannels(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, 0x00, 0x40)
	sd.song(1, 5, 0x01, 0x40)
	sd.song(9, 5, 0x02, 0x40)
	d, rec := newTestDriver(t, sd.data)

	for id := 0; id < 3; id++ {
		d.StartSong(id)
	}
	d.Tick()
	require.True(t, d.Channel(0).Active)
	require.True(t, d.Channel(1).Active)
	require.True(t, d.Channel(9).Active)

	d.StopChannelsFrom(-1)
	for i := 0; i < NumChannels; i++ {
		st := d.Channel(i)
		assert.False(t, st.Active, "channel %d", i)
		assert.Equal(t, uint8(0), st.Priority, "channel %d", i)
	}
	assert.Zero(t, rec.Register(opl.RegKeyOn)&opl.KeyOnBit)
	assert.Zero(t, rec.Register(opl.RegKeyOn+1)&opl.KeyOnBit)
}

func TestStopChannelsFrom(t *testing.T) {
	sd := newSoundData()
	sd.song(2, 5, 0x00, 0x40)
	sd.song(6, 5, 0x00, 0x40)
	d, _ := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.StartSong(1)
	d.Tick()

	d.StopChannelsFrom(5)
	assert.True(t, d.Channel(2).Active)
	assert.True(t, d.Channel(2).KeyOn)
	assert.False(t, d.Channel(6).Active)
	assert.False(t, d.Channel(6).KeyOn)
}

func TestStopChannelsPastLastChannel(t *testing.T) {
	sd := newSoundData()
	sd.song(9, 5, 0x00, 0x40)
	d, rec := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Tick()
	d.StartSong(0)
	flags := d.Flags()
	rec.Drain()

	d.StopChannelsFrom(NumChannels)
	d.Callback(CmdStopChannels, 200)
	assert.Equal(t, flags, d.Flags())
	assert.True(t, d.TriggerPending())
	assert.True(t, d.Channel(9).Active)
	assert.Empty(t, rec.Writes())
}

func TestTriggerWindow(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, 0x00, 0x40)
	d, _ := newTestDriver(t, sd.data)

	assert.False(t, d.TriggerPending())
	d.StartSong(0)
	assert.True(t, d.TriggerPending())
	assert.NotZero(t, d.Flags()&FlagTrigger)

	d.Tick()
	assert.True(t, d.TriggerPending())
	d.Tick()
	assert.False(t, d.TriggerPending())
}

func TestStopClearsTrigger(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, 0x00, 0x40)
	d, _ := newTestDriver(t, sd.data)

	d.SetFlag(FlagInitialised | FlagBlockMusic)
	before := d.Flags()

	d.StartSong(0)
	d.StopChannelsFrom(-1)
	assert.False(t, d.TriggerPending())
	assert.Equal(t, before, d.Flags(), "only the trigger bit changes")

	d.Tick()
	assert.True(t, d.Channel(0).Active, "queued songs survive a stop")
}

func TestBlockFlags(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, 0x00, 0x40)
	sd.song(1, 6, 0x01, 0x40)
	sd.song(9, 5, 0x02, 0x40)
	d, _ := newTestDriver(t, sd.data)

	d.SetFlag(FlagBlockEffects | FlagBlockMusic)
	d.StartSong(1)
	d.StartSong(2)
	d.Tick()
	assert.False(t, d.Channel(0).Active)
	assert.False(t, d.Channel(9).Active)

	d.StartSong(0)
	d.Tick()
	assert.True(t, d.Channel(0).Active, "song 0 is never blocked")

	d.ClearFlag(FlagBlockMusic)
	d.StartSong(2)
	d.Tick()
	assert.True(t, d.Channel(9).Active)
}

func TestStartSongIgnoresBadInput(t *testing.T) {
	d, rec := newTestDriver(t, nil)
	d.StartSong(0)
	d.Tick()
	assert.False(t, d.TriggerPending())
	assert.Empty(t, rec.Writes())

	sd := newSoundData()
	sd.song(0, 5, 0x00, 0x40)
	d.SetSoundData(sd.data)
	for _, id := range []int{-1, 256, 1000} {
		d.StartSong(id)
	}
	d.Tick()
	assert.False(t, d.TriggerPending())
	for i := 0; i < NumChannels; i++ {
		assert.False(t, d.Channel(i).Active)
	}
}

func TestInitEmptiesQueue(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, 0x00, 0x40)
	d, _ := newTestDriver(t, sd.data)

	d.StartSong(0)
	d.Deinit()
	d.Tick()
	assert.True(t, d.Channel(0).Active, "deinit keeps the queue")

	d.StartSong(0)
	d.Init()
	d.Tick()
	assert.False(t, d.Channel(0).Active)
}

func TestReadWriteByte(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, 0x00, 0x40)
	d, _ := newTestDriver(t, sd.data)

	v, ok := d.ReadByte(0, 3)
	require.True(t, ok)
	assert.Equal(t, uint8(0x40), v)

	old, ok := d.WriteByte(0, 3, 0x20)
	require.True(t, ok)
	assert.Equal(t, uint8(0x40), old)

	v, _ = d.ReadByte(0, 3)
	assert.Equal(t, uint8(0x20), v)

	_, ok = d.ReadByte(0, 1000)
	assert.False(t, ok)
	_, ok = d.WriteByte(-1, 0, 0)
	assert.False(t, ok)

	d.StartSong(0)
	d.Tick()
	assert.Equal(t, uint8(0x20), d.Channel(0).Duration)
}

func TestCallback(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, 0x00, 0x40)
	d, _ := newTestDriver(t, nil)

	assert.Equal(t, 0x100, d.Callback(CmdVersion))
	assert.Equal(t, 0x1983, d.Callback(CmdMagic))
	assert.Equal(t, 0, d.Callback(Command(99)))
	assert.Equal(t, 0, d.Callback(CmdUnknown5))
	assert.Equal(t, "command(99)", Command(99).String())
	assert.Equal(t, "stopChannels", CmdStopChannels.String())

	assert.Equal(t, 0, d.Callback(CmdSetFlag, FlagInitialised))
	assert.Equal(t, FlagInitialised, d.Callback(CmdSetFlag, 0))
	assert.Equal(t, FlagInitialised, d.Callback(CmdClearFlag, FlagInitialised))
	assert.Equal(t, 0, d.Flags())

	d.Callback(CmdSetSoundData, sd.data)
	assert.Equal(t, 0x40, d.Callback(CmdReadByte, 0, 3))
	assert.Equal(t, 0x40, d.Callback(CmdWriteByte, 0, 3, 0x30))
	assert.Equal(t, 0x30, d.Callback(CmdReadByte, 0, 3))

	d.Callback(CmdStartSong, 0)
	d.Tick()
	assert.True(t, d.Channel(0).Active)

	d.Callback(CmdStopChannels, -1)
	assert.False(t, d.Channel(0).Active)
}

func TestControlWhileRendering(t *testing.T) {
	sd := newSoundData()
	sd.song(0, 5, 0x00, 0xFF, opcode(8), 0x00)
	sd.song(9, 5, 0x02, 0xFF, opcode(8), 0x00)
	d, _ := newTestDriver(t, sd.data)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		buf := make([]int16, 512)
		for i := 0; i < 200; i++ {
			assert.Equal(t, len(buf), d.ReadSamples(buf))
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			d.StartSong(i % 2)
			d.WriteByte(0, 3, uint8(i))
			d.ReadByte(1, 3)
			_ = d.Channel(i % NumChannels)
			_ = d.TriggerPending()
			if i%7 == 0 {
				d.StopChannelsFrom(-1)
			}
		}
	}()

	wg.Wait()

	assert.NotZero(t, d.Ticks())
	assert.Zero(t, d.Faults())
	v, ok := d.ReadByte(0, 3)
	require.True(t, ok)
	assert.Equal(t, uint8(199), v)
}
