package adlib

import "github.com/olivierh59500/adl-player/pkg/opl"

// Rhythm section instruments, in the order of their key bits in the rhythm
// register.
const (
	hiHat = iota
	cymbal
	tomTom
	snareDrum
	bassDrum
	numDrums
)

// drumLevelReg is the level register of the operator that sounds each drum.
var drumLevelReg = [numDrums]uint8{
	hiHat:     opl.RegLevel + 0x11,
	cymbal:    opl.RegLevel + 0x15,
	tomTom:    opl.RegLevel + 0x12,
	snareDrum: opl.RegLevel + 0x14,
	bassDrum:  opl.RegLevel + 0x13,
}

// drumLevel is the attenuation of one rhythm instrument, the sum of the
// instrument's own level and two adjustments set by song programs.
type drumLevel struct {
	base   uint8
	level1 uint8
	level2 uint8
}

// rhythmSection is the state of the chip's percussion mode, which borrows
// channels 6-8 for five drum sounds.
type rhythmSection struct {
	// mode is the key bit state of the rhythm register including the
	// rhythm enable bit. Zero while the section is off.
	mode  uint8
	drums [numDrums]drumLevel
}

func (d *Driver) writeDrumLevel(n int, value uint8) {
	d.writeOPL(drumLevelReg[n], clampLevel(int(value)))
}

// opSetupRhythmSection loads the instruments of channels 6, 7 and 8 and their
// frequencies and switches the chip to percussion mode.
func (d *Driver) opSetupRhythmSection(ch *Channel, value uint8) opResult {
	savedChannel := d.curChannel
	savedRegOffset := d.curRegOffset

	entry := uint8(value << 1)
	for c := 6; c <= 8; c++ {
		if c > 6 {
			entry = d.fetch(ch) << 1
		}
		off := d.instrumentOffset(int(entry)/2, ch)
		if d.pending != nil {
			break
		}

		d.curChannel = c
		d.curRegOffset = regOffset[c]

		if off < 0 || off+7 > len(d.soundData) {
			d.fault(ch, ErrDataFault)
			break
		}
		switch c {
		case 6:
			d.rhythm.drums[bassDrum].base = d.soundData[off+6]
		case 7:
			d.rhythm.drums[hiHat].base = d.soundData[off+5]
			d.rhythm.drums[snareDrum].base = d.soundData[off+6]
		case 8:
			d.rhythm.drums[tomTom].base = d.soundData[off+5]
			d.rhythm.drums[cymbal].base = d.soundData[off+6]
		}
		d.setupInstrument(d.curRegOffset, off, ch)
	}

	if d.pending == nil {
		for c := 6; c <= 8; c++ {
			bx := d.fetch(ch) & 0x2F
			ax := d.fetch(ch)
			d.channels[c].regBx = bx
			d.writeOPL(opl.RegKeyOn+uint8(c), bx)
			d.channels[c].regAx = ax
			d.writeOPL(opl.RegFreqLow+uint8(c), ax)
		}
		d.rhythm.mode = 0x20
	}

	d.curChannel = savedChannel
	d.curRegOffset = savedRegOffset
	return continueDispatch
}

// opPlayRhythmSection keys off the drums whose bit is clear and keys on those
// whose bit is set.
func (d *Driver) opPlayRhythmSection(ch *Channel, value uint8) opResult {
	d.writeOPL(opl.RegRhythm, ((value&0x1F)^0xFF)&d.rhythm.mode|0x20)

	value |= d.rhythm.mode
	d.rhythm.mode = value

	value |= d.amVibrato
	value |= 0x20
	d.writeOPL(opl.RegRhythm, value)
	return continueDispatch
}

func (d *Driver) opRemoveRhythmSection(ch *Channel, value uint8) opResult {
	ch.dataptr--
	d.rhythm.mode = 0
	d.writeOPL(opl.RegRhythm, d.amVibrato&0xC0)
	return continueDispatch
}

// setRhythmLevel2 sets the second adjustment of every drum whose bit is in
// value to the next program byte and rewrites its level. The new adjustment
// is counted twice.
func (d *Driver) opSetRhythmLevel2(ch *Channel, value uint8) opResult {
	b := d.fetch(ch)
	for n := 0; n < numDrums; n++ {
		if value&(1<<n) == 0 {
			continue
		}
		dl := &d.rhythm.drums[n]
		dl.level2 = b
		d.writeDrumLevel(n, b+dl.base+dl.level1+dl.level2)
	}
	return continueDispatch
}

// changeRhythmLevel1 writes the level of every drum whose bit is in value
// with the next program byte as a temporary extra adjustment.
func (d *Driver) opChangeRhythmLevel1(ch *Channel, value uint8) opResult {
	b := d.fetch(ch)
	for n := 0; n < numDrums; n++ {
		if value&(1<<n) == 0 {
			continue
		}
		dl := &d.rhythm.drums[n]
		d.writeDrumLevel(n, b+dl.base+dl.level1+dl.level2)
	}
	return continueDispatch
}

// setRhythmLevel1 sets the first adjustment of every drum whose bit is in
// value to the next program byte and rewrites its level.
func (d *Driver) opSetRhythmLevel1(ch *Channel, value uint8) opResult {
	b := d.fetch(ch)
	for n := 0; n < numDrums; n++ {
		if value&(1<<n) == 0 {
			continue
		}
		dl := &d.rhythm.drums[n]
		dl.level1 = b
		d.writeDrumLevel(n, dl.base+dl.level1+dl.level2)
	}
	return continueDispatch
}
