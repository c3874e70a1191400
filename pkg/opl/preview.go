package opl

import (
	"math"
	"sync"
)

const (
	envPrec      = 16
	envMax       = 1 << envPrec
	dcBufferLen  = 512
	previewVoice = 9
	rhythmVoices = 5
)

// attenuation per total-level step is 0.75dB. each voice gets an equal share
// of the output range so that nine voices at full level do not clip.
var levelTable [64]int32

func init() {
	full := 32767.0 / (previewVoice + 2)
	for i := range levelTable {
		levelTable[i] = int32(full * math.Pow(10, -0.75*float64(i)/20))
	}
}

// dcAdjuster removes the DC offset of the square waves.
type dcAdjuster struct {
	buffer [dcBufferLen]int32
	pos    int
	sum    int32
}

func (d *dcAdjuster) reset() {
	*d = dcAdjuster{}
}

func (d *dcAdjuster) addSample(sample int32) {
	d.sum -= d.buffer[d.pos]
	d.sum += sample
	d.buffer[d.pos] = sample
	d.pos = (d.pos + 1) & (dcBufferLen - 1)
}

func (d *dcAdjuster) level() int32 {
	return d.sum / dcBufferLen
}

type previewVoiceState struct {
	pos     uint32
	step    uint32
	env     int32
	keyOn   bool
	attack  int32
	release int32
}

func (v *previewVoiceState) advanceEnvelope() {
	if v.keyOn {
		if v.env < envMax {
			v.env += v.attack
			if v.env > envMax {
				v.env = envMax
			}
		}
		return
	}
	if v.env > 0 {
		v.env -= v.release
		if v.env < 0 {
			v.env = 0
		}
	}
}

// Preview is a Chip that renders each channel's frequency as a square wave
// shaped by a simple attack/release envelope, and the rhythm section as noise
// bursts. It reads the same registers an OPL2 would but does no FM synthesis.
type Preview struct {
	mu         sync.Mutex
	sampleRate uint32
	regs       [256]uint8

	voices [previewVoice]previewVoiceState
	drums  [rhythmVoices]previewVoiceState

	rndRack      uint32
	currentNoise uint32

	filter   bool
	lowPass  [2]int32
	dcAdjust dcAdjuster
}

// NewPreview creates a preview chip producing samples at sampleRate.
func NewPreview(sampleRate int) *Preview {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	p := &Preview{
		sampleRate: uint32(sampleRate),
		filter:     true,
	}
	p.Reset()
	return p
}

// Reset silences every voice and clears the register file.
func (p *Preview) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.regs = [256]uint8{}
	for i := range p.voices {
		p.voices[i] = previewVoiceState{}
		p.updateRates(&p.voices[i], i)
	}
	for i := range p.drums {
		p.drums[i] = previewVoiceState{attack: envMax, release: p.releaseStep(6)}
	}
	p.rndRack = 1
	p.currentNoise = 0xffff
	p.lowPass = [2]int32{}
	p.dcAdjust.reset()
}

// SetFilter enables or disables the output low pass filter.
func (p *Preview) SetFilter(on bool) {
	p.mu.Lock()
	p.filter = on
	p.mu.Unlock()
}

// ReadRegister returns the last value written to reg.
func (p *Preview) ReadRegister(reg uint8) uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regs[reg]
}

// WriteRegister implements the Chip interface.
func (p *Preview) WriteRegister(reg, value uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.regs[reg]
	p.regs[reg] = value

	switch {
	case reg >= RegFreqLow && reg <= RegFreqLow+8:
		ch := int(reg - RegFreqLow)
		p.voices[ch].step = p.toneStep(ch)

	case reg >= RegKeyOn && reg <= RegKeyOn+8:
		ch := int(reg - RegKeyOn)
		v := &p.voices[ch]
		v.step = p.toneStep(ch)
		keyOn := value&KeyOnBit != 0
		if keyOn && !v.keyOn {
			v.pos = 0
		}
		v.keyOn = keyOn

	case reg == RegRhythm:
		for i := range p.drums {
			bit := uint8(1) << i
			d := &p.drums[i]
			on := value&0x20 != 0 && value&bit != 0
			if on && old&bit == 0 {
				d.env = envMax
			}
			d.keyOn = false
		}

	case reg >= RegAttackDecay && reg < RegAttackDecay+0x16,
		reg >= RegSustain && reg < RegSustain+0x16:
		for ch, off := range OperatorOffset {
			if reg&0x1f == off+3 {
				p.updateRates(&p.voices[ch], ch)
			}
		}
	}
}

// toneStep returns the 32 bit phase increment per output sample for the
// frequency number and block held in the channel's A0/B0 registers.
func (p *Preview) toneStep(ch int) uint32 {
	fnum := uint64(p.regs[RegFreqLow+uint8(ch)]) | uint64(p.regs[RegKeyOn+uint8(ch)]&0x03)<<8
	block := uint64(p.regs[RegKeyOn+uint8(ch)]>>2) & 0x07
	if fnum == 0 {
		return 0
	}
	step := fnum * NativeRate << (12 + block)
	return uint32(step / uint64(p.sampleRate))
}

func (p *Preview) releaseStep(rate uint8) int32 {
	// rate 15 releases in about 10ms, rate 1 in about 2.5s
	ms := uint32(10) << ((15 - uint32(rate)) / 2)
	samples := int32(p.sampleRate * ms / 1000)
	if samples <= 0 {
		return envMax
	}
	return envMax/samples + 1
}

func (p *Preview) updateRates(v *previewVoiceState, ch int) {
	off := OperatorOffset[ch] + 3
	attack := p.regs[RegAttackDecay+off] >> 4
	release := p.regs[RegSustain+off] & 0x0f
	if attack == 0 {
		attack = 15
	}
	v.attack = p.releaseStep(attack) * 4
	if release == 0 {
		release = 1
	}
	v.release = p.releaseStep(release)
}

func (p *Preview) rndCompute() uint32 {
	rBit := (p.rndRack & 1) ^ ((p.rndRack >> 2) & 1)
	p.rndRack = (p.rndRack >> 1) | (rBit << 16)
	if rBit != 0 {
		return 0
	}
	return 0xffff
}

func (p *Preview) lowPassFilter(in int32) int32 {
	out := (p.lowPass[0] >> 2) + (p.lowPass[1] >> 1) + (in >> 2)
	p.lowPass[0] = p.lowPass[1]
	p.lowPass[1] = in
	return out
}

func (p *Preview) level(ch int) int32 {
	return levelTable[p.regs[RegLevel+OperatorOffset[ch]+3]&0x3f]
}

func (p *Preview) nextSample() int16 {
	rhythm := p.regs[RegRhythm]&0x20 != 0

	var vol int32
	for ch := range p.voices {
		v := &p.voices[ch]
		v.advanceEnvelope()
		if rhythm && ch >= 6 {
			v.pos += v.step
			continue
		}
		if v.env > 0 && v.step != 0 {
			amp := p.level(ch) * v.env >> envPrec
			if int32(v.pos) < 0 {
				amp = -amp
			}
			vol += amp
		}
		v.pos += v.step
	}

	if rhythm {
		p.currentNoise ^= p.rndCompute()
		for i := range p.drums {
			d := &p.drums[i]
			d.advanceEnvelope()
			if d.env == 0 {
				continue
			}
			amp := levelTable[0] * d.env >> envPrec
			if i == 4 {
				// bass drum follows channel 6's pitch
				if int32(p.voices[6].pos) < 0 {
					amp = -amp
				}
			} else if p.currentNoise&1 == 0 {
				amp = -amp
			}
			vol += amp
		}
	}

	p.dcAdjust.addSample(vol)
	in := vol - p.dcAdjust.level()
	if p.filter {
		in = p.lowPassFilter(in)
	}
	if in > math.MaxInt16 {
		in = math.MaxInt16
	} else if in < math.MinInt16 {
		in = math.MinInt16
	}
	return int16(in)
}

// Generate implements the Chip interface.
func (p *Preview) Generate(buf []int16) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range buf {
		buf[i] = p.nextSample()
	}
}
