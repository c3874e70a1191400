package adlib

import (
	"fmt"

	"github.com/olivierh59500/adl-player/pkg/logger"
	"github.com/olivierh59500/adl-player/pkg/opl"
)

// Command is a numbered control command accepted by Callback.
type Command int

// Control commands. The numbering is the one game code uses.
const (
	CmdVersion Command = iota
	CmdMagic
	CmdInit
	CmdDeinit
	CmdSetSoundData
	CmdUnknown5
	CmdStartSong
	CmdUnknown7
	CmdStopChannels
	CmdReadByte
	CmdWriteByte
	CmdUnknown11
	CmdUnknown12
	CmdDummy
	CmdUnknown14
	CmdUnknown15
	CmdSetFlag
	CmdClearFlag
	numCommands
)

var commandNames = [numCommands]string{
	"version", "magic", "init", "deinit", "setSoundData", "unknown5",
	"startSong", "unknown7", "stopChannels", "readByte", "writeByte",
	"unknown11", "unknown12", "dummy", "unknown14", "unknown15",
	"setFlag", "clearFlag",
}

func (c Command) String() string {
	if c < 0 || c >= numCommands {
		return fmt.Sprintf("command(%d)", int(c))
	}
	return commandNames[c]
}

// Callback runs a numbered control command. Integer arguments are passed as
// int, sound data as []byte. Missing integer arguments are taken as 0.
// Unknown and unimplemented commands are logged and return 0.
func (d *Driver) Callback(cmd Command, args ...interface{}) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cmd < 0 || cmd >= numCommands {
		logger.Logf("adlib", "unknown command %d", int(cmd))
		return 0
	}

	switch cmd {
	case CmdVersion:
		return 0x100
	case CmdMagic:
		return 0x1983
	case CmdInit:
		d.init()
	case CmdDeinit:
		d.resetState()
	case CmdSetSoundData:
		data, _ := argAt(args, 0).([]byte)
		d.setSoundData(data)
	case CmdStartSong:
		d.startSong(intArg(args, 0))
	case CmdStopChannels:
		d.stopChannelsFrom(intArg(args, 0))
	case CmdReadByte:
		v, _ := d.readByte(intArg(args, 0), intArg(args, 1))
		return int(v)
	case CmdWriteByte:
		v, _ := d.writeByte(intArg(args, 0), intArg(args, 1), uint8(intArg(args, 2)))
		return int(v)
	case CmdDummy:
	case CmdSetFlag:
		return d.setFlag(intArg(args, 0))
	case CmdClearFlag:
		return d.clearFlag(intArg(args, 0))
	default:
		logger.Logf("adlib", "unimplemented command %v", cmd)
	}
	return 0
}

func argAt(args []interface{}, i int) interface{} {
	if i >= len(args) {
		return nil
	}
	return args[i]
}

func intArg(args []interface{}, i int) int {
	switch v := argAt(args, i).(type) {
	case int:
		return v
	case uint8:
		return int(v)
	case int8:
		return int(v)
	}
	return 0
}

// Init resets the chip and every channel and empties the song queue.
func (d *Driver) Init() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
}

// Deinit resets the chip and every channel. Queued songs are kept.
func (d *Driver) Deinit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetState()
}

func (d *Driver) init() {
	d.lastProcessed = 0
	d.soundsPlaying = 0
	d.resetState()
}

// resetState puts the chip in OPL2 mode with rhythm off, attenuates every
// voice fully and returns all channels to idle.
func (d *Driver) resetState() {
	d.rnd = 0x1234
	d.rhythm.mode = 0
	d.amVibrato = 0

	d.writeOPL(opl.RegTest, 0x20)
	d.writeOPL(opl.RegCSM, 0x00)
	d.writeOPL(opl.RegRhythm, 0x00)

	for c := NumChannels - 1; c >= 0; c-- {
		if c != PercussionChannel {
			off := regOffset[c]
			d.writeOPL(opl.RegLevel+off, 0x3F)
			d.writeOPL(opl.RegLevel+3+off, 0x3F)
		}
		d.channels[c].reset()
	}
}

// SetSoundData replaces the song data. The driver keeps data and may modify
// it through WriteByte. Playing channels are not stopped.
func (d *Driver) SetSoundData(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setSoundData(data)
}

func (d *Driver) setSoundData(data []byte) {
	d.soundData = data
}

// StartSong queues song id. It starts on the next tick on the channel named
// by the first byte of its program, provided its priority is at least that
// of the program playing there. Apart from song 0, songs are dropped while
// the FlagBlockMusic or FlagBlockEffects flag matching their channel is set.
// Unknown songs are ignored.
func (d *Driver) StartSong(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.startSong(id)
}

func (d *Driver) startSong(id int) {
	off, ok := d.songOffset(id)
	if !ok {
		logger.Logf("adlib", "start song %d: no such song", id)
		return
	}

	d.flags |= FlagTrigger
	d.flagTrigger = 1

	first := d.soundData[off]
	if id != 0 {
		if first == PercussionChannel {
			if d.flags&FlagBlockMusic != 0 {
				return
			}
		} else if d.flags&FlagBlockEffects != 0 {
			return
		}
	}

	d.soundIDTable[d.soundsPlaying] = uint8(id)
	d.soundsPlaying = (d.soundsPlaying + 1) % soundIDSlots
}

// StopChannelsFrom stops channel index and every channel above it. A
// negative index stops them all. Songs already queued still start on the
// next tick, but the trigger flag is cleared. An index past the last channel
// does nothing.
func (d *Driver) StopChannelsFrom(index int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopChannelsFrom(index)
}

func (d *Driver) stopChannelsFrom(index int) {
	if index >= NumChannels {
		return
	}
	if index < 0 {
		index = 0
	}
	for c := index; c < NumChannels; c++ {
		d.curChannel = c
		ch := &d.channels[c]
		ch.priority = 0
		ch.dataptr = noData
		if c != PercussionChannel {
			d.noteOff(ch)
		}
	}
	d.flags &^= FlagTrigger
	d.flagTrigger = 0
}

// ReadByte returns byte offset of song id's program.
func (d *Driver) ReadByte(id, offset int) (uint8, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readByte(id, offset)
}

func (d *Driver) readByte(id, offset int) (uint8, bool) {
	off, ok := d.songOffset(id)
	if !ok {
		return 0, false
	}
	return d.byteAt(off + offset)
}

// WriteByte replaces byte offset of song id's program and returns the old
// value.
func (d *Driver) WriteByte(id, offset int, value uint8) (uint8, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeByte(id, offset, value)
}

func (d *Driver) writeByte(id, offset int, value uint8) (uint8, bool) {
	off, ok := d.songOffset(id)
	if !ok {
		return 0, false
	}
	old, ok := d.byteAt(off + offset)
	if !ok {
		return 0, false
	}
	d.soundData[off+offset] = value
	return old, true
}

// SetFlag sets the bits of mask in the flags and returns the flags as they
// were before.
func (d *Driver) SetFlag(mask int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setFlag(mask)
}

func (d *Driver) setFlag(mask int) int {
	old := d.flags
	d.flags |= mask
	return old
}

// ClearFlag clears the bits of mask in the flags and returns the flags as
// they were before.
func (d *Driver) ClearFlag(mask int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clearFlag(mask)
}

func (d *Driver) clearFlag(mask int) int {
	old := d.flags
	d.flags &^= mask
	return old
}

// Flags returns the current flags.
func (d *Driver) Flags() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flags
}

// TriggerPending reports whether the last started song is still inside its
// trigger window, which closes on the second tick after the start.
func (d *Driver) TriggerPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flags&FlagTrigger != 0
}
