// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package z80snap reads and writes the Z80 snapshot format: versions 1
// through 3, the xzx extension's extra paging byte, and the RLE scheme
// both the classic single-block v1 body and the v2/v3 per-page blocks
// compress with. Like formats/sna, it never touches hardware/ula: border
// colour and 128K paging state come back from Load and go into Save as
// plain values for the caller to apply to their own Ula.
package z80snap

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/remogatto/z80"

	"github.com/zxula/spectrumcore/errors"
	"github.com/zxula/spectrumcore/hardware/memory"
)

const pageSize = 0x4000

// v1 body page addresses, in the order a plain 48K memory dump is always
// stored.
var v1PageAddrs = [3]uint16{0x4000, 0x8000, 0xc000}

// v1EndMarker terminates a compressed v1 body: the one place the RLE
// scheme's own length-implicit framing needs an explicit sentinel, since
// a v1 snapshot has no block-length prefix to bound the stream by.
var v1EndMarker = []byte{0x00, 0xED, 0xED, 0x00}

// page48kAddr maps a v2/v3 page number onto the 48K address range it
// represents, and back. Per the published Z80 format these three values
// are the only page numbers a 48K-mode snapshot uses.
var page48kAddr = map[uint8]uint16{8: 0x4000, 4: 0x8000, 5: 0xc000}

func addrToPage48k(addr uint16) (uint8, bool) {
	for p, a := range page48kAddr {
		if a == addr {
			return p, true
		}
	}
	return 0, false
}

// Snapshot carries the pieces of machine state a Z80 file stores outside
// the CPU registers and RAM contents.
type Snapshot struct {
	Border     uint8
	Is128k     bool
	Port7FFD   uint8
	Joystick   JoystickKind
	AYSelect   uint8
	AYRegisters [16]uint8
}

// Load reads a Z80 snapshot of any of the three published versions from r
// into cpu and mem.
func Load(r io.Reader, cpu *z80.Z80, mem *memory.ZxMemory) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, errors.Errorf(errors.HostIo, err)
	}
	if len(data) < v1HeaderSize {
		return Snapshot{}, errors.Errorf(errors.FormatMalformed, "short Z80 stream")
	}

	h := decodeV1Header(data[:v1HeaderSize])
	rest := data[v1HeaderSize:]

	applyV1Registers(h, cpu)

	if h.pc != 0 {
		return loadV1Body(rest, h, cpu, mem)
	}

	if len(rest) < 2 {
		return Snapshot{}, errors.Errorf(errors.FormatMalformed, "missing extended header length")
	}
	extLen := binary.LittleEndian.Uint16(rest[0:2])
	rest = rest[2:]
	if int(extLen) > len(rest) {
		return Snapshot{}, errors.Errorf(errors.FormatMalformed, "truncated extended header")
	}
	ext, err := decodeExtHeader(rest[:extLen])
	if err != nil {
		return Snapshot{}, err
	}
	rest = rest[extLen:]

	cpu.SetPC(ext.pc)
	is128k := ext.hardwareMode >= 3

	if err := loadPages(rest, is128k, mem); err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Border:      h.border,
		Is128k:      is128k,
		Port7FFD:    ext.port7FFD,
		Joystick:    h.joystick,
		AYSelect:    ext.ayRegisterSelect,
		AYRegisters: ext.ayRegisters,
	}, nil
}

func applyV1Registers(h v1Header, cpu *z80.Z80) {
	cpu.Reset()
	cpu.A = h.a
	cpu.F = h.f
	cpu.B = uint8(h.bc >> 8)
	cpu.C = uint8(h.bc)
	cpu.H = uint8(h.hl >> 8)
	cpu.L = uint8(h.hl)
	cpu.SetSP(h.sp)
	cpu.I = h.i
	cpu.R = uint16(h.r)
	cpu.D = uint8(h.de >> 8)
	cpu.E = uint8(h.de)
	cpu.B_ = uint8(h.bcAlt >> 8)
	cpu.C_ = uint8(h.bcAlt)
	cpu.D_ = uint8(h.deAlt >> 8)
	cpu.E_ = uint8(h.deAlt)
	cpu.H_ = uint8(h.hlAlt >> 8)
	cpu.L_ = uint8(h.hlAlt)
	cpu.A_ = h.aAlt
	cpu.F_ = h.fAlt
	cpu.SetIY(h.iy)
	cpu.SetIX(h.ix)
	if h.iff1 {
		cpu.IFF1 = 1
	}
	if h.iff2 {
		cpu.IFF2 = 1
	}
	cpu.IM = h.im
	if h.pc != 0 {
		cpu.SetPC(h.pc)
	}
}

func loadV1Body(rest []byte, h v1Header, cpu *z80.Z80, mem *memory.ZxMemory) (Snapshot, error) {
	var plain []byte
	if h.compressed {
		trimmed := rest
		if bytes.HasSuffix(trimmed, v1EndMarker) {
			trimmed = trimmed[:len(trimmed)-len(v1EndMarker)]
		}
		plain = Decompress(trimmed)
	} else {
		plain = rest
	}
	if len(plain) < 3*pageSize {
		return Snapshot{}, errors.Errorf(errors.FormatMalformed, "short v1 memory dump")
	}

	for i, addr := range v1PageAddrs {
		bankNum, _, err := mem.PageRef(int(addr >> 14))
		if err != nil {
			return Snapshot{}, err
		}
		if err := loadBank(mem, bankNum, plain[i*pageSize:(i+1)*pageSize]); err != nil {
			return Snapshot{}, err
		}
	}

	return Snapshot{Border: h.border, Joystick: h.joystick}, nil
}

func loadBank(mem *memory.ZxMemory, bankNum int, data []byte) error {
	ref, err := mem.BankRef(bankNum)
	if err != nil {
		return err
	}
	copy(ref, data)
	return nil
}

func loadPages(data []byte, is128k bool, mem *memory.ZxMemory) error {
	for len(data) > 0 {
		if len(data) < 3 {
			return errors.Errorf(errors.FormatMalformed, "truncated page block")
		}
		length := binary.LittleEndian.Uint16(data[0:2])
		pageNum := data[2]
		data = data[3:]

		var raw []byte
		if length == 0xFFFF {
			if len(data) < pageSize {
				return errors.Errorf(errors.FormatMalformed, "truncated uncompressed page")
			}
			raw = data[:pageSize]
			data = data[pageSize:]
		} else {
			if int(length) > len(data) {
				return errors.Errorf(errors.FormatMalformed, "truncated page block")
			}
			raw = Decompress(data[:length])
			data = data[length:]
		}

		var bankNum int
		var ok bool
		switch {
		case is128k:
			bankNum, ok = int(pageNum)-3, pageNum >= 3 && pageNum <= 10
		default:
			if addr, found := page48kAddr[pageNum]; found {
				if bn, _, err := mem.PageRef(int(addr >> 14)); err == nil {
					bankNum, ok = bn, true
				}
			}
		}
		if !ok {
			continue // ROM page or a hardware variant this package doesn't model
		}
		if len(raw) != pageSize {
			return errors.Errorf(errors.FormatMalformed, "decompressed page has wrong size")
		}
		if err := loadBank(mem, bankNum, raw); err != nil {
			return err
		}
	}
	return nil
}

// Save writes a Z80 version 3 snapshot of cpu and mem to w. is128k selects
// between the plain 48K page numbering and the 128K bank-indexed one;
// port7FFD is always written to the extended header but is only
// meaningful when is128k is true.
func Save(w io.Writer, cpu *z80.Z80, mem *memory.ZxMemory, border uint8, is128k bool, port7FFD uint8, joystick JoystickKind) error {
	h := v1Header{
		a: cpu.A, f: cpu.F,
		bc:     uint16(cpu.B)<<8 | uint16(cpu.C),
		hl:     uint16(cpu.H)<<8 | uint16(cpu.L),
		pc:     0, // zero signals the extended header follows
		sp:     cpu.SP(),
		i:      cpu.I,
		r:      uint8(cpu.R),
		border: border & 0x07,
		de:     uint16(cpu.D)<<8 | uint16(cpu.E),
		bcAlt:  uint16(cpu.B_)<<8 | uint16(cpu.C_),
		deAlt:  uint16(cpu.D_)<<8 | uint16(cpu.E_),
		hlAlt:  uint16(cpu.H_)<<8 | uint16(cpu.L_),
		aAlt:   cpu.A_,
		fAlt:   cpu.F_,
		iy:     cpu.IY(),
		ix:     cpu.IX(),
		iff1:   cpu.IFF1 != 0,
		iff2:   cpu.IFF2 != 0,
		im:     cpu.IM & 0x03,
		joystick: joystick,
	}
	headerBytes := encodeV1Header(h)

	hardwareMode := uint8(0)
	if is128k {
		hardwareMode = 4
	}
	ext := extHeader{
		pc:           cpu.PC(),
		hardwareMode: hardwareMode,
		port7FFD:     port7FFD,
	}
	extBytes := encodeExtHeader(ext)

	var buf bytes.Buffer
	buf.Write(headerBytes[:])
	var extLen [2]byte
	binary.LittleEndian.PutUint16(extLen[:], uint16(len(extBytes)))
	buf.Write(extLen[:])
	buf.Write(extBytes)

	if is128k {
		if err := savePages128(&buf, mem); err != nil {
			return err
		}
	} else {
		if err := savePages48(&buf, mem); err != nil {
			return err
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Errorf(errors.HostIo, err)
	}
	return nil
}

func writePageBlock(buf *bytes.Buffer, pageNum uint8, data []byte) {
	compressed := Compress(data)
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(compressed)))
	buf.Write(lenBuf[:])
	buf.WriteByte(pageNum)
	buf.Write(compressed)
}

func savePages48(buf *bytes.Buffer, mem *memory.ZxMemory) error {
	for _, addr := range v1PageAddrs {
		pageNum, ok := addrToPage48k(addr)
		if !ok {
			continue
		}
		bankNum, _, err := mem.PageRef(int(addr >> 14))
		if err != nil {
			return err
		}
		ref, err := mem.BankRef(bankNum)
		if err != nil {
			return err
		}
		writePageBlock(buf, pageNum, ref)
	}
	return nil
}

func savePages128(buf *bytes.Buffer, mem *memory.ZxMemory) error {
	for bankNum := 0; bankNum < mem.NumBanks(); bankNum++ {
		kind, err := mem.BankKind(bankNum)
		if err != nil {
			return err
		}
		if kind != memory.RAM {
			continue
		}
		ref, err := mem.BankRef(bankNum)
		if err != nil {
			return err
		}
		writePageBlock(buf, uint8(bankNum+3), ref)
	}
	return nil
}
