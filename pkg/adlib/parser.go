package adlib

import "github.com/olivierh59500/adl-player/pkg/opl"

// opResult tells the dispatch loop what to do after an opcode.
type opResult int

const (
	// continueDispatch fetches the next opcode in the same tick.
	continueDispatch opResult = iota

	// stopDispatch ends the channel's turn and runs its effects.
	stopDispatch

	// suppressEffects ends the channel's turn without running effects.
	suppressEffects
)

func resultOf(nonZero uint8) opResult {
	if nonZero != 0 {
		return stopDispatch
	}
	return continueDispatch
}

type parserOpcode struct {
	name string
	fn   func(d *Driver, ch *Channel, value uint8) opResult
}

// parserOpcodes is indexed by the low 7 bits of a function opcode. Indices
// past the end run the last entry.
var parserOpcodes [75]parserOpcode

func init() {
	parserOpcodes = [75]parserOpcode{
		// 0
		{"setRepeat", (*Driver).opSetRepeat},
		{"checkRepeat", (*Driver).opCheckRepeat},
		{"startSong", (*Driver).opStartSong},
		{"setNoteSpacing", (*Driver).opSetNoteSpacing},

		// 4
		{"jump", (*Driver).opJump},
		{"jumpToSubroutine", (*Driver).opJumpToSubroutine},
		{"returnFromSubroutine", (*Driver).opReturnFromSubroutine},
		{"setBaseOctave", (*Driver).opSetBaseOctave},

		// 8
		{"stopChannel", (*Driver).opStopChannel},
		{"playRest", (*Driver).opPlayRest},
		{"writeAdlib", (*Driver).opWriteAdlib},
		{"setupNoteAndDuration", (*Driver).opSetupNoteAndDuration},

		// 12
		{"setBaseNote", (*Driver).opSetBaseNote},
		{"setupSecondaryEffect1", (*Driver).opSetupSecondaryEffect1},
		{"stopOtherChannel", (*Driver).opStopOtherChannel},
		{"waitForEndOfProgram", (*Driver).opWaitForEndOfProgram},

		// 16
		{"setupInstrument", (*Driver).opSetupInstrument},
		{"setupPrimaryEffect1", (*Driver).opSetupPrimaryEffect1},
		{"removePrimaryEffect1", (*Driver).opRemovePrimaryEffect1},
		{"setBaseFreq", (*Driver).opSetBaseFreq},

		// 20
		{"stopChannel", (*Driver).opStopChannel},
		{"setupPrimaryEffect2", (*Driver).opSetupPrimaryEffect2},
		{"stopChannel", (*Driver).opStopChannel},
		{"stopChannel", (*Driver).opStopChannel},

		// 24
		{"stopChannel", (*Driver).opStopChannel},
		{"stopChannel", (*Driver).opStopChannel},
		{"setPriority", (*Driver).opSetPriority},
		{"stopChannel", (*Driver).opStopChannel},

		// 28
		{"setBeatDivisor", (*Driver).opSetBeatDivisor},
		{"waitForNextBeat", (*Driver).opWaitForNextBeat},
		{"setExtraLevel1", (*Driver).opSetExtraLevel1},
		{"stopChannel", (*Driver).opStopChannel},

		// 32
		{"setupDuration", (*Driver).opSetupDuration},
		{"playNote", (*Driver).opPlayNote},
		{"stopChannel", (*Driver).opStopChannel},
		{"stopChannel", (*Driver).opStopChannel},

		// 36
		{"setFractionalNoteSpacing", (*Driver).opSetFractionalNoteSpacing},
		{"stopChannel", (*Driver).opStopChannel},
		{"setTempo", (*Driver).opSetTempo},
		{"removeSecondaryEffect1", (*Driver).opRemoveSecondaryEffect1},

		// 40
		{"stopChannel", (*Driver).opStopChannel},
		{"setChannelTempo", (*Driver).opSetChannelTempo},
		{"stopChannel", (*Driver).opStopChannel},
		{"setExtraLevel3", (*Driver).opSetExtraLevel3},

		// 44
		{"setExtraLevel2", (*Driver).opSetExtraLevel2},
		{"changeExtraLevel2", (*Driver).opChangeExtraLevel2},
		{"setAMDepth", (*Driver).opSetAMDepth},
		{"setVibratoDepth", (*Driver).opSetVibratoDepth},

		// 48
		{"changeExtraLevel1", (*Driver).opChangeExtraLevel1},
		{"stopChannel", (*Driver).opStopChannel},
		{"stopChannel", (*Driver).opStopChannel},
		{"clearChannel", (*Driver).opClearChannel},

		// 52
		{"stopChannel", (*Driver).opStopChannel},
		{"changeNoteRandomly", (*Driver).opChangeNoteRandomly},
		{"removePrimaryEffect2", (*Driver).opRemovePrimaryEffect2},
		{"stopChannel", (*Driver).opStopChannel},

		// 56
		{"stopChannel", (*Driver).opStopChannel},
		{"pitchBend", (*Driver).opPitchBend},
		{"resetToGlobalTempo", (*Driver).opResetToGlobalTempo},
		{"nop", (*Driver).opNop},

		// 60
		{"setDurationRandomness", (*Driver).opSetDurationRandomness},
		{"changeChannelTempo", (*Driver).opChangeChannelTempo},
		{"stopChannel", (*Driver).opStopChannel},
		{"selectFreqTable", (*Driver).opSelectFreqTable},

		// 64
		{"nop", (*Driver).opNop},
		{"setupRhythmSection", (*Driver).opSetupRhythmSection},
		{"playRhythmSection", (*Driver).opPlayRhythmSection},
		{"removeRhythmSection", (*Driver).opRemoveRhythmSection},

		// 68
		{"setRhythmLevel2", (*Driver).opSetRhythmLevel2},
		{"changeRhythmLevel1", (*Driver).opChangeRhythmLevel1},
		{"setRhythmLevel1", (*Driver).opSetRhythmLevel1},
		{"setSoundTrigger", (*Driver).opSetSoundTrigger},

		// 72
		{"setTempoReset", (*Driver).opSetTempoReset},
		{"setChannelPair", (*Driver).opSetChannelPair},
		{"stopChannel", (*Driver).opStopChannel},
	}
}

// OpcodeName returns the name of the function opcode op, which may have its
// top bit set.
func OpcodeName(op uint8) string {
	i := int(op & 0x7F)
	if i >= len(parserOpcodes) {
		i = len(parserOpcodes) - 1
	}
	return parserOpcodes[i].name
}

// otherChannel validates a channel number taken from song data.
func (d *Driver) otherChannel(ch *Channel, n uint8) (*Channel, bool) {
	if int(n) >= NumChannels {
		d.fault(ch, ErrBadChannel)
		return nil, false
	}
	return &d.channels[n], true
}

func (d *Driver) opSetRepeat(ch *Channel, value uint8) opResult {
	ch.repeatCounter = value
	return continueDispatch
}

// opCheckRepeat jumps back by the word formed from value and the next byte
// until the repeat counter runs out.
func (d *Driver) opCheckRepeat(ch *Channel, value uint8) opResult {
	ch.dataptr++
	ch.repeatCounter--
	if ch.repeatCounter != 0 {
		add, ok := d.wordAt(ch.dataptr - 2)
		if !ok {
			d.fault(ch, ErrDataFault)
			return continueDispatch
		}
		ch.dataptr += int(int16(add))
	}
	return continueDispatch
}

// opStartSong starts song value on the channel named in its header, as if it
// had been queued by StartSong. 0xFF does nothing. A song naming a bad
// channel stops the calling channel.
func (d *Driver) opStartSong(ch *Channel, value uint8) opResult {
	if value == 0xFF {
		return continueDispatch
	}
	if err := d.startSongChannel(int(value), true); err != nil {
		d.fault(ch, err)
	}
	return continueDispatch
}

func (d *Driver) opSetNoteSpacing(ch *Channel, value uint8) opResult {
	ch.spacing1 = value
	return continueDispatch
}

// opJump moves the program by the signed word starting at the parameter
// byte, counted from the end of the word.
func (d *Driver) opJump(ch *Channel, value uint8) opResult {
	ch.dataptr--
	add := int16(d.fetchWord(ch))
	ch.dataptr += int(add)
	return continueDispatch
}

func (d *Driver) opJumpToSubroutine(ch *Channel, value uint8) opResult {
	ch.dataptr--
	add := int16(d.fetchWord(ch))
	if ch.stackPos >= stackDepth {
		d.fault(ch, ErrStackOverflow)
		return continueDispatch
	}
	ch.stack[ch.stackPos] = ch.dataptr
	ch.stackPos++
	ch.dataptr += int(add)
	return continueDispatch
}

func (d *Driver) opReturnFromSubroutine(ch *Channel, value uint8) opResult {
	if ch.stackPos <= 0 {
		d.fault(ch, ErrStackUnderflow)
		return continueDispatch
	}
	ch.stackPos--
	ch.dataptr = ch.stack[ch.stackPos]
	return continueDispatch
}

func (d *Driver) opSetBaseOctave(ch *Channel, value uint8) opResult {
	ch.baseOctave = int8(value)
	return continueDispatch
}

// opStopChannel ends the channel's program.
func (d *Driver) opStopChannel(ch *Channel, value uint8) opResult {
	ch.priority = 0
	if d.curChannel != PercussionChannel {
		d.noteOff(ch)
	}
	ch.dataptr = noData
	return suppressEffects
}

func (d *Driver) opPlayRest(ch *Channel, value uint8) opResult {
	d.setupDuration(value, ch)
	d.noteOff(ch)
	return resultOf(value)
}

func (d *Driver) opWriteAdlib(ch *Channel, value uint8) opResult {
	d.writeOPL(value, d.fetch(ch))
	return continueDispatch
}

// opSetupNoteAndDuration sets the frequency of note value without keying it
// on, and the duration from the next byte.
func (d *Driver) opSetupNoteAndDuration(ch *Channel, value uint8) opResult {
	d.setupNote(value, ch, false)
	duration := d.fetch(ch)
	d.setupDuration(duration, ch)
	return resultOf(duration)
}

func (d *Driver) opSetBaseNote(ch *Channel, value uint8) opResult {
	ch.baseNote = int8(value)
	return continueDispatch
}

func (d *Driver) opSetupSecondaryEffect1(ch *Channel, value uint8) opResult {
	s := &ch.scribble
	s.timer = int8(value)
	s.speed = value
	s.start = int8(d.fetch(ch))
	s.index = s.start
	s.reg = d.fetch(ch)
	s.offset = d.fetchWord(ch)
	ch.secondary = registerScribbleEffect
	return continueDispatch
}

func (d *Driver) opStopOtherChannel(ch *Channel, value uint8) opResult {
	other, ok := d.otherChannel(ch, value)
	if !ok {
		return continueDispatch
	}
	other.duration = 0
	other.priority = 0
	other.dataptr = noData
	return continueDispatch
}

// opWaitForEndOfProgram holds the channel on this opcode while the channel
// used by song value is still playing.
func (d *Driver) opWaitForEndOfProgram(ch *Channel, value uint8) opResult {
	off, ok := d.songOffset(int(value))
	if !ok {
		d.fault(ch, ErrDataFault)
		return continueDispatch
	}
	other, ok := d.otherChannel(ch, d.soundData[off])
	if !ok || !other.active() {
		return continueDispatch
	}
	ch.dataptr -= 2
	return suppressEffects
}

func (d *Driver) opSetupInstrument(ch *Channel, value uint8) opResult {
	off := d.instrumentOffset(int(value), ch)
	if d.pending != nil {
		return continueDispatch
	}
	d.setupInstrument(d.curRegOffset, off, ch)
	return continueDispatch
}

// opSetupPrimaryEffect1 starts a pitch creep. value is the timer speed and
// the next two bytes the big endian frequency delta.
func (d *Driver) opSetupPrimaryEffect1(ch *Channel, value uint8) opResult {
	hi := d.fetch(ch)
	lo := d.fetch(ch)
	ch.creep = pitchCreep{
		speed: value,
		delta: int16(uint16(hi)<<8 | uint16(lo)),
		timer: -1,
	}
	ch.primary = pitchCreepEffect
	return continueDispatch
}

func (d *Driver) opRemovePrimaryEffect1(ch *Channel, value uint8) opResult {
	ch.dataptr--
	ch.primary = noPrimaryEffect
	ch.creep.delta = 0
	return continueDispatch
}

func (d *Driver) opSetBaseFreq(ch *Channel, value uint8) opResult {
	ch.baseFreq = value
	return continueDispatch
}

// opSetupPrimaryEffect2 starts a vibrato. value is the timer speed, followed
// by the step shift, the half period and the key on delay.
func (d *Driver) opSetupPrimaryEffect2(ch *Channel, value uint8) opResult {
	v := &ch.vibrato
	v.speed = int8(value)
	v.shift = d.fetch(ch)
	period := d.fetch(ch)
	v.countdown = period + 1
	v.period = period << 1
	v.delayInit = d.fetch(ch)
	ch.primary = vibratoEffect
	return continueDispatch
}

func (d *Driver) opSetPriority(ch *Channel, value uint8) opResult {
	ch.priority = value
	return continueDispatch
}

func (d *Driver) opSetBeatDivisor(ch *Channel, value uint8) opResult {
	value >>= 1
	d.beat = beatCounter{
		divisor:   value,
		countdown: value,
		position:  -1,
	}
	return continueDispatch
}

// opWaitForNextBeat holds the channel until a beat whose count shares a bit
// with value.
func (d *Driver) opWaitForNextBeat(ch *Channel, value uint8) opResult {
	if d.beat.waiting != 0 && d.beat.count&value != 0 {
		d.beat.waiting = 0
		return continueDispatch
	}
	if value&d.beat.count == 0 {
		d.beat.waiting++
	}
	ch.dataptr -= 2
	ch.duration = 1
	return suppressEffects
}

func (d *Driver) opSetExtraLevel1(ch *Channel, value uint8) opResult {
	ch.opExtraLevel1 = value
	d.adjustVolume(ch)
	return continueDispatch
}

func (d *Driver) opSetupDuration(ch *Channel, value uint8) opResult {
	d.setupDuration(value, ch)
	return resultOf(value)
}

func (d *Driver) opPlayNote(ch *Channel, value uint8) opResult {
	d.setupDuration(value, ch)
	d.noteOn(ch)
	return resultOf(value)
}

func (d *Driver) opSetFractionalNoteSpacing(ch *Channel, value uint8) opResult {
	ch.fractionalSpacing = value & 7
	return continueDispatch
}

func (d *Driver) opSetTempo(ch *Channel, value uint8) opResult {
	d.tempo = int8(value)
	return continueDispatch
}

func (d *Driver) opRemoveSecondaryEffect1(ch *Channel, value uint8) opResult {
	ch.dataptr--
	ch.secondary = noSecondaryEffect
	return continueDispatch
}

func (d *Driver) opSetChannelTempo(ch *Channel, value uint8) opResult {
	ch.tempo = int8(value)
	return continueDispatch
}

func (d *Driver) opSetExtraLevel3(ch *Channel, value uint8) opResult {
	ch.opExtraLevel3 = value
	return continueDispatch
}

// withChannel runs fn with channel n as the current channel.
func (d *Driver) withChannel(n int, fn func(other *Channel)) {
	saved := d.curChannel
	d.curChannel = n
	fn(&d.channels[n])
	d.curChannel = saved
}

func (d *Driver) opSetExtraLevel2(ch *Channel, value uint8) opResult {
	level := d.fetch(ch)
	if _, ok := d.otherChannel(ch, value); !ok {
		return continueDispatch
	}
	d.withChannel(int(value), func(other *Channel) {
		other.opExtraLevel2 = level
		d.adjustVolume(other)
	})
	return continueDispatch
}

func (d *Driver) opChangeExtraLevel2(ch *Channel, value uint8) opResult {
	delta := d.fetch(ch)
	if _, ok := d.otherChannel(ch, value); !ok {
		return continueDispatch
	}
	d.withChannel(int(value), func(other *Channel) {
		other.opExtraLevel2 += delta
		d.adjustVolume(other)
	})
	return continueDispatch
}

func (d *Driver) opSetAMDepth(ch *Channel, value uint8) opResult {
	if value&1 != 0 {
		d.amVibrato |= 0x80
	} else {
		d.amVibrato &= 0x7F
	}
	d.writeOPL(opl.RegRhythm, d.amVibrato)
	return continueDispatch
}

func (d *Driver) opSetVibratoDepth(ch *Channel, value uint8) opResult {
	if value&1 != 0 {
		d.amVibrato |= 0x40
	} else {
		d.amVibrato &= 0xBF
	}
	d.writeOPL(opl.RegRhythm, d.amVibrato)
	return continueDispatch
}

func (d *Driver) opChangeExtraLevel1(ch *Channel, value uint8) opResult {
	ch.opExtraLevel1 += value
	d.adjustVolume(ch)
	return continueDispatch
}

// opClearChannel stops channel value and silences its voice.
func (d *Driver) opClearChannel(ch *Channel, value uint8) opResult {
	if _, ok := d.otherChannel(ch, value); !ok {
		return continueDispatch
	}
	d.withChannel(int(value), func(other *Channel) {
		other.duration = 0
		other.priority = 0
		other.dataptr = noData
		other.opExtraLevel2 = 0

		if d.curChannel == PercussionChannel {
			return
		}
		off := regOffset[d.curChannel]
		d.writeOPL(opl.RegFeedback+uint8(d.curChannel), 0x00)
		d.writeOPL(opl.RegLevel+3+off, 0x3F)
		d.writeOPL(opl.RegSustain+3+off, 0xFF)
		d.writeOPL(opl.RegKeyOn+uint8(d.curChannel), 0x00)
	})
	return continueDispatch
}

// opChangeNoteRandomly adds a random amount, masked by the word formed from
// value and the next byte, to the frequency on the chip. The channel's own
// copy of the frequency is left alone.
func (d *Driver) opChangeNoteRandomly(ch *Channel, value uint8) opResult {
	mask := uint16(d.fetch(ch)) | uint16(value)<<8
	mask &= d.random()

	freq := uint16(ch.regBx&0x1F)<<8 | uint16(ch.regAx)
	freq += mask
	freq |= uint16(ch.regBx&opl.KeyOnBit) << 8

	d.writeOPL(opl.RegFreqLow+uint8(d.curChannel), uint8(freq))
	d.writeOPL(opl.RegKeyOn+uint8(d.curChannel), uint8(freq>>8))
	return continueDispatch
}

func (d *Driver) opRemovePrimaryEffect2(ch *Channel, value uint8) opResult {
	ch.dataptr--
	ch.primary = noPrimaryEffect
	return continueDispatch
}

// opPitchBend sets the bend depth and recomputes the current note with it.
func (d *Driver) opPitchBend(ch *Channel, value uint8) opResult {
	ch.pitchBend = int8(value)
	d.setupNote(ch.rawNote, ch, true)
	return continueDispatch
}

func (d *Driver) opResetToGlobalTempo(ch *Channel, value uint8) opResult {
	ch.dataptr--
	ch.tempo = d.tempo
	return continueDispatch
}

func (d *Driver) opNop(ch *Channel, value uint8) opResult {
	ch.dataptr--
	return continueDispatch
}

func (d *Driver) opSetDurationRandomness(ch *Channel, value uint8) opResult {
	ch.durationRandom = value
	return continueDispatch
}

// opChangeChannelTempo adds value to the channel tempo. Values with the top
// bit set slow the channel down and become 1 on signed underflow. Others
// speed it up and become 0xFF on unsigned overflow.
func (d *Driver) opChangeChannelTempo(ch *Channel, value uint8) opResult {
	if value&0x80 != 0 {
		value += uint8(ch.tempo)
		if int8(value) >= ch.tempo {
			value = 1
		}
	} else {
		temp := int8(value)
		value += uint8(ch.tempo)
		if int(value) < int(temp) {
			value = 0xFF
		}
	}
	ch.tempo = int8(value)
	return continueDispatch
}

// opSelectFreqTable selects a pair of frequency tables by the next byte.
// With value 2 the first entry of the second table is written to channel 0's
// frequency register.
func (d *Driver) opSelectFreqTable(ch *Channel, value uint8) opResult {
	entry := int(d.fetch(ch))
	if entry+1 >= len(freqTables) {
		d.fault(ch, ErrDataFault)
		return continueDispatch
	}
	d.freqTable1 = freqTables[entry]
	d.freqTable2 = freqTables[entry+1]
	if value == 2 {
		d.writeOPL(opl.RegFreqLow, d.freqTable2[0])
	}
	return continueDispatch
}

func (d *Driver) opSetSoundTrigger(ch *Channel, value uint8) opResult {
	d.soundTrigger = value
	return continueDispatch
}

func (d *Driver) opSetTempoReset(ch *Channel, value uint8) opResult {
	ch.tempoReset = value
	return continueDispatch
}

func (d *Driver) opSetChannelPair(ch *Channel, value uint8) opResult {
	ch.pairA = value
	ch.pairB = d.fetch(ch)
	return continueDispatch
}
