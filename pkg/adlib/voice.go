package adlib

import "github.com/olivierh59500/adl-player/pkg/opl"

// random advances the driver's 16 bit pseudo random generator.
func (d *Driver) random() uint16 {
	d.rnd += 0x9248
	low := d.rnd & 7
	d.rnd >>= 3
	d.rnd |= low << 13
	return d.rnd
}

// setupNote computes the frequency and block of rawNote for the current
// channel and writes them to the chip. The key on bit is left as it was.
func (d *Driver) setupNote(rawNote uint8, ch *Channel, bend bool) {
	ch.rawNote = rawNote

	note := int(rawNote&0x0F) + int(ch.baseNote)
	octave := ((int(rawNote) + int(ch.baseOctave)) >> 4) & 0x0F

	if note >= 12 {
		note -= 12
		octave++
	} else if note < 0 {
		note += 12
		octave--
	}
	note = ((note % 12) + 12) % 12

	freq := scaleTable[note] + uint16(ch.baseFreq)

	if ch.pitchBend != 0 || bend {
		if ch.pitchBend >= 0 {
			freq += pitchBend(int(rawNote&0x0F)+2, int(ch.pitchBend))
		} else {
			freq -= pitchBend(int(rawNote&0x0F), -int(ch.pitchBend))
		}
	}
	freq &= 0x3FF

	ch.regAx = uint8(freq)
	ch.regBx = ch.regBx&opl.KeyOnBit | uint8(octave&0x07)<<2 | uint8(freq>>8)&0x03

	d.writeOPL(opl.RegFreqLow+uint8(d.curChannel), ch.regAx)
	d.writeOPL(opl.RegKeyOn+uint8(d.curChannel), ch.regBx)
}

// noteOn keys the current channel on and primes its vibrato from the new
// frequency.
func (d *Driver) noteOn(ch *Channel) {
	ch.regBx |= opl.KeyOnBit
	d.writeOPL(opl.RegKeyOn+uint8(d.curChannel), ch.regBx)

	shift := int8(9 - ch.vibrato.shift)
	if shift < 0 {
		shift = 0
	}
	ch.vibrato.step = uint16(uint8(ch.frequency() >> uint(shift)))
	ch.vibrato.delay = ch.vibrato.delayInit
}

// noteOff keys the current channel off. The control channel and, while the
// rhythm section is on, channels 6-8 are left alone.
func (d *Driver) noteOff(ch *Channel) {
	if d.curChannel == PercussionChannel {
		return
	}
	if d.rhythm.mode != 0 && d.curChannel >= 6 {
		return
	}
	ch.regBx &^= opl.KeyOnBit
	d.writeOPL(opl.RegKeyOn+uint8(d.curChannel), ch.regBx)
}

// setupDuration sets how many tempo wraps the next note or rest lasts.
func (d *Driver) setupDuration(duration uint8, ch *Channel) {
	if ch.durationRandom != 0 {
		ch.duration = duration + uint8(d.random()&uint16(ch.durationRandom))
		return
	}
	if ch.fractionalSpacing != 0 {
		ch.spacing2 = (duration >> 3) * ch.fractionalSpacing
	}
	ch.duration = duration
}

// setupInstrument loads the 11 byte instrument at off into the operators at
// regOff and the current channel's feedback register.
func (d *Driver) setupInstrument(regOff uint8, off int, ch *Channel) {
	if off < 0 || off+11 > len(d.soundData) {
		d.fault(ch, ErrDataFault)
		return
	}
	data := d.soundData[off : off+11]

	d.writeOPL(opl.RegModulation+regOff, data[0])
	d.writeOPL(opl.RegModulation+3+regOff, data[1])

	d.writeOPL(opl.RegFeedback+uint8(d.curChannel), data[2])
	ch.twoChan = data[2] & 0x01

	d.writeOPL(opl.RegWaveform+regOff, data[3])
	d.writeOPL(opl.RegWaveform+3+regOff, data[4])

	ch.opLevel1 = data[5]
	ch.opLevel2 = data[6]
	d.writeOPL(opl.RegLevel+regOff, calculateOpLevel1(ch))
	d.writeOPL(opl.RegLevel+3+regOff, calculateOpLevel2(ch))

	d.writeOPL(opl.RegAttackDecay+regOff, data[7])
	d.writeOPL(opl.RegAttackDecay+3+regOff, data[8])

	d.writeOPL(opl.RegSustain+regOff, data[9])
	d.writeOPL(opl.RegSustain+3+regOff, data[10])
}

// instrumentOffset looks up instrument n in the instrument table.
func (d *Driver) instrumentOffset(n int, ch *Channel) int {
	off, ok := d.wordAt(instrumentTableOffset + 2*n)
	if !ok {
		d.fault(ch, ErrDataFault)
		return -1
	}
	return int(off)
}

// adjustVolume rewrites the current channel's operator levels after one of
// the extra levels changed. Operator 1 only carries the level when the
// channel is in additive mode.
func (d *Driver) adjustVolume(ch *Channel) {
	off := regOffset[d.curChannel]
	d.writeOPL(opl.RegLevel+3+off, calculateOpLevel2(ch))
	if ch.twoChan != 0 {
		d.writeOPL(opl.RegLevel+off, calculateOpLevel1(ch))
	}
}

func calculateOpLevel1(ch *Channel) uint8 {
	value := int8(ch.opLevel1 & 0x3F)
	if ch.twoChan != 0 {
		value += int8(ch.opExtraLevel1)
		value += int8(ch.opExtraLevel2)
		value += int8(ch.opExtraLevel3)
	}
	return clampLevel(int(value)) | ch.opLevel1&0xC0
}

func calculateOpLevel2(ch *Channel) uint8 {
	value := int8(ch.opLevel2 & 0x3F)
	value += int8(ch.opExtraLevel1)
	value += int8(ch.opExtraLevel2)
	value += int8(ch.opExtraLevel3)
	return clampLevel(int(value)) | ch.opLevel2&0xC0
}

// clampLevel limits an attenuation to the chip's 6 bit range.
func clampLevel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 0x3F {
		return 0x3F
	}
	return uint8(v)
}
