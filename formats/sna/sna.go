// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package sna reads and writes the SNA snapshot format: a fixed 27-byte
// register header followed by a flat RAM dump, in the plain 48K layout or
// the extended 128K layout that appends the paging state and the banks a
// 48K dump can't represent. It depends only on hardware/memory's bank
// layout for the RAM dump shape, never on hardware/ula — border colour and
// 128K paging are reported as plain values for the caller to apply to
// whatever ULA instance they're restoring into.
package sna

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/remogatto/z80"

	"github.com/zxula/spectrumcore/errors"
	"github.com/zxula/spectrumcore/hardware/memory"
)

// HeaderSize is the size in bytes of the fixed register header common to
// every SNA variant.
const HeaderSize = 27

// Length48k is the total size of a plain 48K SNA file: header plus one flat
// 48 KiB RAM dump.
const Length48k = HeaderSize + 48*1024

// pageSize is the size of one 128K RAM bank as laid out in the SNA 128K
// extension.
const pageSize = 0x4000

// ext128Size is the size of the 128K extension fields that follow the
// bank-5/bank-2/current-page dump: 2 bytes PC, 1 byte port 0x7ffd, 1 byte
// TR-DOS paged flag.
const ext128Size = 4

// Snapshot carries the pieces of machine state an SNA file stores outside
// the CPU registers and RAM contents.
type Snapshot struct {
	// Border is the border colour (0..7) in effect when the snapshot was
	// taken.
	Border uint8

	// Is128k reports whether this snapshot used the 128K extension.
	Is128k bool

	// Port7FFD is the last value written to the memory paging port. Only
	// meaningful when Is128k is true.
	Port7FFD uint8

	// TRDosPaged reports whether the TR-DOS ROM was paged in in place of
	// the 128K editor ROM. Only meaningful when Is128k is true.
	TRDosPaged bool
}

// Load reads an SNA snapshot from r into cpu and mem, dispatching between
// the 48K and 128K layouts by the stream's total length the way the
// original format's readers do: a plain 48K dump is exactly Length48k
// bytes, anything longer carries the 128K extension and however many
// additional 16 KiB banks mem has beyond the three the 48K layout already
// covers.
func Load(r io.Reader, cpu *z80.Z80, mem *memory.ZxMemory) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, errors.Errorf(errors.HostIo, err)
	}
	if len(data) < Length48k {
		return Snapshot{}, errors.Errorf(errors.FormatMalformed, "short SNA stream")
	}
	if len(data) == Length48k {
		snap, err := load48(data, cpu, mem)
		return snap, err
	}
	return load128(data, cpu, mem)
}

func load48(data []byte, cpu *z80.Z80, mem *memory.ZxMemory) (Snapshot, error) {
	var header [HeaderSize]byte
	copy(header[:], data[:HeaderSize])
	border, err := readHeader(header, cpu)
	if err != nil {
		return Snapshot{}, err
	}

	ram := data[HeaderSize:Length48k]
	for i, p := range [3]int{1, 2, 3} {
		bankNum, _, err := mem.PageRef(p)
		if err != nil {
			return Snapshot{}, err
		}
		if err := loadBank(mem, bankNum, ram[i*pageSize:(i+1)*pageSize]); err != nil {
			return Snapshot{}, err
		}
	}

	sp := cpu.SP()
	pc := mem.Read16(sp)
	cpu.SetSP(sp + 2)
	cpu.R++
	cpu.R++
	cpu.SetPC(pc)

	return Snapshot{Border: border}, nil
}

func loadBank(mem *memory.ZxMemory, bankNum int, data []byte) error {
	ref, err := mem.BankRef(bankNum)
	if err != nil {
		return err
	}
	copy(ref, data)
	return nil
}

func load128(data []byte, cpu *z80.Z80, mem *memory.ZxMemory) (Snapshot, error) {
	var header [HeaderSize]byte
	copy(header[:], data[:HeaderSize])
	border, err := readHeader(header, cpu)
	if err != nil {
		return Snapshot{}, err
	}
	rest := data[HeaderSize:]

	order := []int{5, 2}
	offset := 0
	for _, bankNum := range order {
		if offset+pageSize > len(rest) {
			return Snapshot{}, errors.Errorf(errors.FormatMalformed, "truncated 128K bank dump")
		}
		if err := loadBank(mem, bankNum, rest[offset:offset+pageSize]); err != nil {
			return Snapshot{}, err
		}
		offset += pageSize
	}

	pageNum, _, err := mem.PageRef(3)
	if err != nil {
		return Snapshot{}, err
	}
	lastPage := pageNum
	if lastPage != 5 && lastPage != 2 {
		if offset+pageSize > len(rest) {
			return Snapshot{}, errors.Errorf(errors.FormatMalformed, "truncated 128K bank dump")
		}
		if err := loadBank(mem, lastPage, rest[offset:offset+pageSize]); err != nil {
			return Snapshot{}, err
		}
		offset += pageSize
	}

	if offset+ext128Size > len(rest) {
		return Snapshot{}, errors.Errorf(errors.FormatMalformed, "missing 128K extension fields")
	}
	ext := rest[offset : offset+ext128Size]
	pc := binary.LittleEndian.Uint16(ext[0:2])
	port7FFD := ext[2]
	trdos := ext[3] == 1
	offset += ext128Size

	excluded := map[int]bool{5: true, 2: true, lastPage: true}
	for bankNum := 0; bankNum < mem.NumBanks() && offset < len(rest); bankNum++ {
		if excluded[bankNum] {
			continue
		}
		kind, err := mem.BankKind(bankNum)
		if err != nil {
			return Snapshot{}, err
		}
		if kind != memory.RAM {
			continue
		}
		if offset+pageSize > len(rest) {
			return Snapshot{}, errors.Errorf(errors.FormatMalformed, "truncated 128K bank dump")
		}
		if err := loadBank(mem, bankNum, rest[offset:offset+pageSize]); err != nil {
			return Snapshot{}, err
		}
		offset += pageSize
	}

	cpu.SetPC(pc)

	return Snapshot{
		Border:     border,
		Is128k:     true,
		Port7FFD:   port7FFD,
		TRDosPaged: trdos,
	}, nil
}

// readHeader decodes the 27-byte register header into cpu, resetting it
// first the way the real RETN-based resume sequence implicitly starts from
// a clean slate, and returns the border colour the header carries.
func readHeader(header [HeaderSize]byte, cpu *z80.Z80) (uint8, error) {
	im := header[25]
	if im > 2 {
		return 0, errors.Errorf(errors.FormatMalformed, "invalid interrupt mode")
	}
	border := header[26]
	if border > 7 {
		return 0, errors.Errorf(errors.FormatMalformed, "invalid border colour")
	}

	cpu.Reset()

	cpu.I = header[0]
	cpu.L_ = header[1]
	cpu.H_ = header[2]
	cpu.E_ = header[3]
	cpu.D_ = header[4]
	cpu.C_ = header[5]
	cpu.B_ = header[6]
	cpu.F_ = header[7]
	cpu.A_ = header[8]
	cpu.L = header[9]
	cpu.H = header[10]
	cpu.E = header[11]
	cpu.D = header[12]
	cpu.C = header[13]
	cpu.B = header[14]
	cpu.SetIY(binary.LittleEndian.Uint16(header[15:17]))
	cpu.SetIX(binary.LittleEndian.Uint16(header[17:19]))

	if header[19]&(1<<2) != 0 {
		cpu.IFF1, cpu.IFF2 = 1, 1
	} else {
		cpu.IFF1, cpu.IFF2 = 0, 0
	}
	cpu.R = uint16(header[20])
	cpu.F = header[21]
	cpu.A = header[22]
	cpu.SetSP(binary.LittleEndian.Uint16(header[23:25]))
	cpu.IM = im

	return border, nil
}

func writeHeader(cpu *z80.Z80, border uint8) [HeaderSize]byte {
	var header [HeaderSize]byte
	header[0] = cpu.I
	header[1] = cpu.L_
	header[2] = cpu.H_
	header[3] = cpu.E_
	header[4] = cpu.D_
	header[5] = cpu.C_
	header[6] = cpu.B_
	header[7] = cpu.F_
	header[8] = cpu.A_
	header[9] = cpu.L
	header[10] = cpu.H
	header[11] = cpu.E
	header[12] = cpu.D
	header[13] = cpu.C
	header[14] = cpu.B
	binary.LittleEndian.PutUint16(header[15:17], cpu.IY())
	binary.LittleEndian.PutUint16(header[17:19], cpu.IX())

	var iffs uint8
	if cpu.IFF2 != 0 {
		iffs = 1 << 2
	}
	header[19] = iffs
	header[20] = uint8(cpu.R)
	header[21] = cpu.F
	header[22] = cpu.A
	binary.LittleEndian.PutUint16(header[23:25], cpu.SP())
	header[25] = cpu.IM
	header[26] = border
	return header
}

// Save48 writes a plain 48K SNA snapshot: the register header followed by
// whatever banks are currently mapped into pages 1, 2 and 3, dumped in
// that order so the result always covers 0x4000-0xffff regardless of
// which bank numbers a particular machine variant happens to use there.
// Encoding a 48K SNA pushes cpu's PC onto the stack at sp-2 the way RETN
// will pop it back off, so the live SP is consumed by two bytes in the
// emitted dump.
func Save48(w io.Writer, cpu *z80.Z80, mem *memory.ZxMemory, border uint8) error {
	sp := cpu.SP() - 2
	pc := cpu.PC()

	header := writeHeader(cpu, border)
	binary.LittleEndian.PutUint16(header[23:25], sp)

	var buf bytes.Buffer
	buf.Write(header[:])

	for _, p := range [3]int{1, 2, 3} {
		bankNum, _, err := mem.PageRef(p)
		if err != nil {
			return err
		}
		ref, err := mem.BankRef(bankNum)
		if err != nil {
			return err
		}
		buf.Write(ref)
	}

	out := buf.Bytes()
	pcSlot := HeaderSize + int(sp-0x4000)
	out[pcSlot] = uint8(pc)
	out[pcSlot+1] = uint8(pc >> 8)

	if _, err := w.Write(out); err != nil {
		return errors.Errorf(errors.HostIo, err)
	}
	return nil
}

// Save128 writes a 128K SNA snapshot of cpu and mem to w: the 27-byte
// header, banks 5, 2 and whichever bank is currently paged into logical
// page 3, the 4-byte extension (PC, port 0x7ffd value, TR-DOS flag), then
// every remaining RAM bank in ascending bank-number order.
func Save128(w io.Writer, cpu *z80.Z80, mem *memory.ZxMemory, border, port7FFD uint8, trdosPaged bool) error {
	header := writeHeader(cpu, border)

	var buf bytes.Buffer
	buf.Write(header[:])

	lastPage, _, err := mem.PageRef(3)
	if err != nil {
		return err
	}

	order := []int{5, 2}
	if lastPage != 5 && lastPage != 2 {
		order = append(order, lastPage)
	}
	for _, bankNum := range order {
		ref, err := mem.BankRef(bankNum)
		if err != nil {
			return err
		}
		buf.Write(ref)
	}

	var ext [ext128Size]byte
	binary.LittleEndian.PutUint16(ext[0:2], cpu.PC())
	ext[2] = port7FFD
	if trdosPaged {
		ext[3] = 1
	}
	buf.Write(ext[:])

	excluded := map[int]bool{5: true, 2: true, lastPage: true}
	for bankNum := 0; bankNum < mem.NumBanks(); bankNum++ {
		if excluded[bankNum] {
			continue
		}
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
		buf.Write(ref)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Errorf(errors.HostIo, err)
	}
	return nil
}
