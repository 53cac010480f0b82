// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package z80snap

import (
	"encoding/binary"

	"github.com/zxula/spectrumcore/errors"
)

// v1HeaderSize is the size of the header every Z80 snapshot begins with. A
// stored PC of zero signals that an extended header of one of the sizes
// below follows immediately after.
const v1HeaderSize = 30

// Extended header lengths: 23 identifies version 2, 54 version 3, and 55
// version 3 with the xzx extension's additional byte for the last value
// written to port 0x1ffd.
const (
	extHeaderV2        = 23
	extHeaderV3        = 54
	extHeaderV3WithXzx = 55
)

// JoystickKind is the joystick type a Z80 snapshot's header byte 29
// records.
type JoystickKind uint8

const (
	JoystickCursor JoystickKind = iota
	JoystickKempston
	JoystickSinclairRight
	JoystickSinclairLeft
)

// joystickKind decodes header byte 29's top two bits, aliasing the format's
// "Custom" joystick value (which some tools also store here) to Sinclair
// Left rather than failing: the identifier the source format uses for it
// is itself lossy, so there's no way to recover which physical joystick it
// actually meant.
func joystickKind(raw uint8) JoystickKind {
	switch raw >> 6 {
	case 0:
		return JoystickCursor
	case 1:
		return JoystickKempston
	case 2:
		return JoystickSinclairRight
	default:
		return JoystickSinclairLeft
	}
}

// v1Header is the fixed 30-byte prefix of every Z80 snapshot.
type v1Header struct {
	a, f          uint8
	bc            uint16
	hl            uint16
	pc            uint16
	sp            uint16
	i             uint8
	r             uint8
	border        uint8
	samRomPaged   bool
	compressed    bool
	de            uint16
	bcAlt, deAlt  uint16
	hlAlt         uint16
	aAlt, fAlt    uint8
	iy, ix        uint16
	iff1, iff2    bool
	im            uint8
	issue2        bool
	joystick      JoystickKind
}

func decodeV1Header(b []byte) v1Header {
	flags1 := b[12]
	if flags1 == 0xFF {
		flags1 = 1
	}
	var h v1Header
	h.a = b[0]
	h.f = b[1]
	h.bc = uint16(b[2]) | uint16(b[3])<<8
	h.hl = uint16(b[4]) | uint16(b[5])<<8
	h.pc = binary.LittleEndian.Uint16(b[6:8])
	h.sp = binary.LittleEndian.Uint16(b[8:10])
	h.i = b[10]
	h.r = (b[11] & 0x7F) | (flags1&1)<<7
	h.border = (flags1 >> 1) & 0x07
	h.samRomPaged = flags1&(1<<4) != 0
	h.compressed = flags1&(1<<5) != 0
	h.de = uint16(b[13]) | uint16(b[14])<<8
	h.bcAlt = uint16(b[15]) | uint16(b[16])<<8
	h.deAlt = uint16(b[17]) | uint16(b[18])<<8
	h.hlAlt = uint16(b[19]) | uint16(b[20])<<8
	h.aAlt = b[21]
	h.fAlt = b[22]
	h.iy = binary.LittleEndian.Uint16(b[23:25])
	h.ix = binary.LittleEndian.Uint16(b[25:27])
	h.iff1 = b[27] != 0
	h.iff2 = b[28] != 0
	h.im = b[29] & 0x03
	h.issue2 = b[29]&(1<<2) != 0
	h.joystick = joystickKind(b[29])
	return h
}

func encodeV1Header(h v1Header) [v1HeaderSize]byte {
	var b [v1HeaderSize]byte
	b[0] = h.a
	b[1] = h.f
	b[2] = uint8(h.bc)
	b[3] = uint8(h.bc >> 8)
	b[4] = uint8(h.hl)
	b[5] = uint8(h.hl >> 8)
	binary.LittleEndian.PutUint16(b[6:8], h.pc)
	binary.LittleEndian.PutUint16(b[8:10], h.sp)
	b[10] = h.i
	b[11] = h.r & 0x7F

	var flags1 uint8
	flags1 |= (h.r >> 7) & 1
	flags1 |= (h.border & 0x07) << 1
	if h.samRomPaged {
		flags1 |= 1 << 4
	}
	if h.compressed {
		flags1 |= 1 << 5
	}
	b[12] = flags1

	b[13] = uint8(h.de)
	b[14] = uint8(h.de >> 8)
	b[15] = uint8(h.bcAlt)
	b[16] = uint8(h.bcAlt >> 8)
	b[17] = uint8(h.deAlt)
	b[18] = uint8(h.deAlt >> 8)
	b[19] = uint8(h.hlAlt)
	b[20] = uint8(h.hlAlt >> 8)
	b[21] = h.aAlt
	b[22] = h.fAlt
	binary.LittleEndian.PutUint16(b[23:25], h.iy)
	binary.LittleEndian.PutUint16(b[25:27], h.ix)
	if h.iff1 {
		b[27] = 1
	}
	if h.iff2 {
		b[28] = 1
	}
	b[29] = h.im & 0x03
	if h.issue2 {
		b[29] |= 1 << 2
	}
	b[29] |= uint8(h.joystick) << 6
	return b
}

// extHeader is the version 2/3 extension that follows a v1 header whose PC
// field is zero. Fields the format defines but this package has no use for
// (T-state counters, the MGT/Multiface/SamRam paging flags — none of which
// this module emulates) are kept verbatim in raw as read; encodeExtHeader
// does not write raw back, so Save emits those fields as zero.
type extHeader struct {
	pc                 uint16
	hardwareMode       uint8
	port7FFD           uint8
	interface1RomPaged bool
	ayRegisterSelect   uint8
	ayRegisters        [16]uint8
	port1FFD           uint8
	hasPort1FFD        bool
	raw                []byte
}

func decodeExtHeader(b []byte) (extHeader, error) {
	if len(b) != extHeaderV2 && len(b) != extHeaderV3 && len(b) != extHeaderV3WithXzx {
		return extHeader{}, errors.Errorf(errors.UnsupportedFormat, "unrecognised extended header length")
	}
	var e extHeader
	e.raw = append([]byte(nil), b...)
	e.pc = binary.LittleEndian.Uint16(b[0:2])
	e.hardwareMode = b[2]
	e.port7FFD = b[3]
	e.interface1RomPaged = b[4]&1 != 0
	if len(b) >= extHeaderV2 {
		e.ayRegisterSelect = b[6]
		copy(e.ayRegisters[:], b[7:23])
	}
	if len(b) == extHeaderV3WithXzx {
		e.port1FFD = b[54]
		e.hasPort1FFD = true
	}
	return e, nil
}

func encodeExtHeader(e extHeader) []byte {
	length := extHeaderV3
	if e.hasPort1FFD {
		length = extHeaderV3WithXzx
	}
	out := make([]byte, length)
	binary.LittleEndian.PutUint16(out[0:2], e.pc)
	out[2] = e.hardwareMode
	out[3] = e.port7FFD
	if e.interface1RomPaged {
		out[4] = 1
	}
	out[6] = e.ayRegisterSelect
	copy(out[7:23], e.ayRegisters[:])
	if e.hasPort1FFD {
		out[54] = e.port1FFD
	}
	return out
}
