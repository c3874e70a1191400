package adlib

// regOffset holds the operator 1 register offset for each channel. Operator 2
// is 3 further on. The percussion channel has no operators of its own; its
// entry points at an unused operator slot so writes on its behalf land on
// registers the chip ignores.
var regOffset = [NumChannels]uint8{
	0x00, 0x01, 0x02, 0x08, 0x09, 0x0A, 0x10, 0x11, 0x12, 0x16,
}

// scaleTable holds the F-numbers of the twelve notes of the scale.
var scaleTable = [12]uint16{
	0x0134, 0x0147, 0x015A, 0x016F, 0x0184, 0x019C, 0x01B4, 0x01CE, 0x01E9,
	0x0207, 0x0225, 0x0246,
}

// freqTables are selected by opcode 63. Only the first entry of the second
// table is ever written to the chip.
var freqTables = [6][]uint8{
	freqTableA, freqTableB, freqTableA, freqTableB, freqTableC, freqTableB,
}

var freqTableA = []uint8{
	0x50, 0x50, 0x4F, 0x4F, 0x4E, 0x4E, 0x4D, 0x4D,
	0x4C, 0x4C, 0x4B, 0x4B, 0x4A, 0x4A, 0x49, 0x49,
	0x48, 0x48, 0x47, 0x47, 0x46, 0x46, 0x45, 0x45,
	0x44, 0x44, 0x43, 0x43, 0x42, 0x42, 0x41, 0x41,
	0x40, 0x40, 0x3F, 0x3F, 0x3E, 0x3E, 0x3D, 0x3D,
	0x3C, 0x3C, 0x3B, 0x3B, 0x3A, 0x3A, 0x39, 0x39,
	0x38, 0x38, 0x37, 0x37, 0x36, 0x36, 0x35, 0x35,
	0x34, 0x34, 0x33, 0x33, 0x32, 0x32, 0x31, 0x31,
	0x30, 0x30, 0x2F, 0x2F, 0x2E, 0x2E, 0x2D, 0x2D,
	0x2C, 0x2C, 0x2B, 0x2B, 0x2A, 0x2A, 0x29, 0x29,
	0x28, 0x28, 0x27, 0x27, 0x26, 0x26, 0x25, 0x25,
	0x24, 0x24, 0x23, 0x23, 0x22, 0x22, 0x21, 0x21,
	0x20, 0x20, 0x1F, 0x1F, 0x1E, 0x1E, 0x1D, 0x1D,
	0x1C, 0x1C, 0x1B, 0x1B, 0x1A, 0x1A, 0x19, 0x19,
	0x18, 0x18, 0x17, 0x17, 0x16, 0x16, 0x15, 0x15,
	0x14, 0x14, 0x13, 0x13, 0x12, 0x12, 0x11, 0x11,
	0x10, 0x10,
}

// Entry 0x5F holds 0x6F. Song data was authored against it, so it stays.
var freqTableB = []uint8{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
	0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
	0x18, 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F,
	0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27,
	0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x2F,
	0x30, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37,
	0x38, 0x39, 0x3A, 0x3B, 0x3C, 0x3D, 0x3E, 0x3F,
	0x40, 0x41, 0x42, 0x43, 0x44, 0x45, 0x46, 0x47,
	0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F,
	0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57,
	0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x6F,
	0x60, 0x61, 0x62, 0x63, 0x64, 0x65, 0x66, 0x67,
	0x68, 0x69, 0x6A, 0x6B, 0x6C, 0x6D, 0x6E, 0x6F,
	0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x76, 0x77,
	0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F,
}

var freqTableC = []uint8{
	0x40, 0x40, 0x40, 0x3F, 0x3F, 0x3F, 0x3E, 0x3E,
	0x3E, 0x3D, 0x3D, 0x3D, 0x3C, 0x3C, 0x3C, 0x3B,
	0x3B, 0x3B, 0x3A, 0x3A, 0x3A, 0x39, 0x39, 0x39,
	0x38, 0x38, 0x38, 0x37, 0x37, 0x37, 0x36, 0x36,
	0x36, 0x35, 0x35, 0x35, 0x34, 0x34, 0x34, 0x33,
	0x33, 0x33, 0x32, 0x32, 0x32, 0x31, 0x31, 0x31,
	0x30, 0x30, 0x30, 0x2F, 0x2F, 0x2F, 0x2E, 0x2E,
	0x2E, 0x2D, 0x2D, 0x2D, 0x2C, 0x2C, 0x2C, 0x2B,
	0x2B, 0x2B, 0x2A, 0x2A, 0x2A, 0x29, 0x29, 0x29,
	0x28, 0x28, 0x28, 0x27, 0x27, 0x27, 0x26, 0x26,
	0x26, 0x25, 0x25, 0x25, 0x24, 0x24, 0x24, 0x23,
	0x23, 0x23, 0x22, 0x22, 0x22, 0x21, 0x21, 0x21,
	0x20, 0x20, 0x20, 0x1F, 0x1F, 0x1F, 0x1E, 0x1E,
	0x1E, 0x1D, 0x1D, 0x1D, 0x1C, 0x1C, 0x1C, 0x1B,
	0x1B, 0x1B, 0x1A, 0x1A, 0x1A, 0x19, 0x19, 0x19,
	0x18, 0x18, 0x18, 0x17, 0x17, 0x17, 0x16, 0x16,
	0x16, 0x15,
}

// pitchBendTables adjust a note's F-number by the channel's bend depth. Row
// (note & 0x0F)+2 is added for upward bends, row (note & 0x0F) subtracted for
// downward ones.
var pitchBendTables = [15][32]uint8{
	{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x08,
		0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10,
		0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x19,
		0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F, 0x20, 0x21},
	{0x00, 0x01, 0x02, 0x03, 0x04, 0x06, 0x07, 0x09,
		0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11,
		0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x1A,
		0x1B, 0x1C, 0x1D, 0x1E, 0x1F, 0x20, 0x22, 0x24},
	{0x00, 0x01, 0x02, 0x03, 0x04, 0x06, 0x08, 0x09,
		0x0A, 0x0C, 0x0D, 0x0E, 0x0F, 0x11, 0x12, 0x13,
		0x14, 0x15, 0x16, 0x17, 0x19, 0x1A, 0x1C, 0x1D,
		0x1E, 0x1F, 0x20, 0x21, 0x22, 0x24, 0x25, 0x26},
	{0x00, 0x01, 0x02, 0x03, 0x04, 0x06, 0x08, 0x0A,
		0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x11, 0x12, 0x13,
		0x14, 0x15, 0x16, 0x17, 0x18, 0x1A, 0x1C, 0x1D,
		0x1E, 0x1F, 0x20, 0x21, 0x23, 0x25, 0x27, 0x28},
	{0x00, 0x01, 0x02, 0x03, 0x04, 0x06, 0x08, 0x0A,
		0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x11, 0x13, 0x15,
		0x16, 0x17, 0x18, 0x19, 0x1B, 0x1D, 0x1F, 0x20,
		0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x28, 0x2A},
	{0x00, 0x01, 0x02, 0x03, 0x05, 0x07, 0x09, 0x0B,
		0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x13, 0x15,
		0x16, 0x17, 0x18, 0x19, 0x1B, 0x1D, 0x1F, 0x20,
		0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x28, 0x2A},
	{0x00, 0x01, 0x02, 0x03, 0x05, 0x07, 0x09, 0x0B,
		0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x13, 0x15,
		0x16, 0x17, 0x18, 0x19, 0x1B, 0x1D, 0x1F, 0x20,
		0x21, 0x22, 0x23, 0x25, 0x27, 0x29, 0x2B, 0x2D},
	{0x00, 0x01, 0x02, 0x03, 0x05, 0x07, 0x09, 0x0B,
		0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x13, 0x15,
		0x16, 0x17, 0x18, 0x1A, 0x1C, 0x1E, 0x21, 0x24,
		0x25, 0x26, 0x27, 0x29, 0x2B, 0x2D, 0x2F, 0x30},
	{0x00, 0x01, 0x02, 0x04, 0x06, 0x08, 0x0A, 0x0C,
		0x0D, 0x0E, 0x0F, 0x10, 0x11, 0x13, 0x15, 0x18,
		0x19, 0x1A, 0x1C, 0x1D, 0x1F, 0x21, 0x23, 0x25,
		0x26, 0x27, 0x29, 0x2B, 0x2D, 0x2F, 0x30, 0x32},
	{0x00, 0x01, 0x02, 0x04, 0x06, 0x08, 0x0A, 0x0D,
		0x0E, 0x0F, 0x10, 0x11, 0x12, 0x14, 0x17, 0x1A,
		0x19, 0x1A, 0x1C, 0x1E, 0x20, 0x22, 0x25, 0x28,
		0x29, 0x2A, 0x2B, 0x2D, 0x2F, 0x31, 0x33, 0x35},
	{0x00, 0x01, 0x03, 0x05, 0x07, 0x09, 0x0B, 0x0E,
		0x0F, 0x10, 0x12, 0x14, 0x16, 0x18, 0x1A, 0x1B,
		0x1C, 0x1D, 0x1E, 0x20, 0x22, 0x24, 0x26, 0x29,
		0x2A, 0x2C, 0x2E, 0x30, 0x32, 0x34, 0x36, 0x39},
	{0x00, 0x01, 0x03, 0x05, 0x07, 0x09, 0x0B, 0x0E,
		0x0F, 0x10, 0x12, 0x14, 0x16, 0x19, 0x1B, 0x1E,
		0x1F, 0x21, 0x23, 0x25, 0x27, 0x29, 0x2B, 0x2D,
		0x2E, 0x2F, 0x31, 0x32, 0x34, 0x36, 0x39, 0x3C},
	{0x00, 0x01, 0x03, 0x05, 0x07, 0x0A, 0x0C, 0x0F,
		0x10, 0x11, 0x13, 0x15, 0x17, 0x19, 0x1B, 0x1E,
		0x1F, 0x20, 0x22, 0x24, 0x26, 0x28, 0x2B, 0x2E,
		0x2F, 0x30, 0x32, 0x34, 0x36, 0x39, 0x3C, 0x3F},
	{0x00, 0x02, 0x04, 0x06, 0x08, 0x0B, 0x0D, 0x10,
		0x11, 0x12, 0x14, 0x16, 0x18, 0x1B, 0x1E, 0x21,
		0x22, 0x23, 0x25, 0x27, 0x29, 0x2C, 0x2F, 0x32,
		0x33, 0x34, 0x36, 0x38, 0x3B, 0x34, 0x41, 0x44},
	{0x00, 0x02, 0x04, 0x06, 0x08, 0x0B, 0x0D, 0x11,
		0x12, 0x13, 0x15, 0x17, 0x1A, 0x1D, 0x20, 0x23,
		0x24, 0x25, 0x27, 0x29, 0x2C, 0x2F, 0x32, 0x35,
		0x36, 0x37, 0x39, 0x3B, 0x3E, 0x41, 0x44, 0x47},
}

// pitchBend looks up an F-number adjustment. Rows and depths outside the
// table are clamped to its edge.
func pitchBend(row, depth int) uint16 {
	if row >= len(pitchBendTables) {
		row = len(pitchBendTables) - 1
	}
	if depth >= len(pitchBendTables[row]) {
		depth = len(pitchBendTables[row]) - 1
	}
	return uint16(pitchBendTables[row][depth])
}
