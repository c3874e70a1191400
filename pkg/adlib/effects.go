package adlib

import "github.com/olivierh59500/adl-player/pkg/opl"

// Effect frequencies leave the 388-733 band only by changing octave.
const (
	creepLow  = 388
	creepHigh = 734
)

// pitchCreep slides the current channel's frequency. Each wrap of the
// effect's timer adds delta, and when the result leaves the band the
// frequency is halved or doubled and the block moved to compensate.
func (d *Driver) pitchCreep(ch *Channel) {
	c := &ch.creep
	old := c.timer
	c.timer += int8(c.speed)
	if c.timer >= old {
		return
	}

	freq := ch.frequency()
	block := uint16(ch.regBx&opl.KeyOnBit)<<8 | uint16(ch.regBx&0x1C)

	switch {
	case c.delta > 0:
		freq += uint16(c.delta)
		if freq >= creepHigh {
			freq >>= 1
			if freq&0x3FF == 0 {
				freq++
			}
			block += 4
			block &= 0xFF1C
		}
	case c.delta < 0:
		freq += uint16(c.delta)
		if freq < creepLow {
			freq <<= 1
			if freq&0x3FF == 0 {
				freq--
			}
			block -= 4
			block &= 0xFF1C
		}
	}
	freq &= 0x3FF

	ch.regAx = uint8(freq)
	d.writeOPL(opl.RegFreqLow+uint8(d.curChannel), ch.regAx)

	ch.regBx = uint8(freq>>8) | uint8(block>>8) | uint8(block)
	d.writeOPL(opl.RegKeyOn+uint8(d.curChannel), ch.regBx)
}

// vibrato wobbles the current channel's frequency around the note. After
// the key on delay runs out, every wrap of the effect's timer adds the step,
// and the step changes sign every period wraps.
func (d *Driver) vibrato(ch *Channel) {
	v := &ch.vibrato
	if v.delay != 0 {
		v.delay--
		return
	}

	old := v.timer
	v.timer += v.speed
	if v.timer >= old {
		return
	}

	v.countdown--
	if v.countdown == 0 {
		v.step = -v.step
		v.countdown = v.period
	}

	freq := (ch.frequency() + v.step) & 0x3FF
	ch.regAx = uint8(freq)
	ch.regBx = ch.regBx&0xFC | uint8(freq>>8)

	d.writeOPL(opl.RegFreqLow+uint8(d.curChannel), ch.regAx)
	d.writeOPL(opl.RegKeyOn+uint8(d.curChannel), ch.regBx)
}

// registerScribble writes successive entries of a table in the song data to
// one of the current channel's operator registers, walking backwards and
// starting over from the configured index.
func (d *Driver) registerScribble(ch *Channel) {
	s := &ch.scribble
	old := s.timer
	s.timer += int8(s.speed)
	if s.timer >= old {
		return
	}

	s.index--
	if s.index < 0 {
		s.index = s.start
	}
	value, ok := d.byteAt(int(s.offset) + int(s.index))
	if !ok {
		d.fault(ch, ErrDataFault)
		return
	}
	d.writeOPL(s.reg+d.curRegOffset, value)
}
