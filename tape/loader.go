// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package tape implements instant tape loading: recognising the moment the
// 48K ROM's tape loading routine is about to read a byte, and satisfying
// that read directly from an in-memory or streamed tape image instead of
// stepping the CPU through the real, acoustic-speed bit-banging loop.
package tape

import (
	"io"

	"github.com/remogatto/z80"

	"github.com/zxula/spectrumcore/errors"
	"github.com/zxula/spectrumcore/hardware/memory"
)

// flag register bits this package inspects or sets.
const (
	flagCF = 1 << 0
	flagHF = 1 << 4
	flagZF = 1 << 6
)

// ROM loader entry ranges (inclusive) and the return addresses expected on
// the stack at each: the "flag load/verify" entry point calls through one
// intermediate routine before reaching here, so it leaves two return
// addresses rather than one.
const (
	lowEntryStart  = 0x056B
	lowEntryEnd    = 0x0570
	highEntryStart = 0x05E7
	highEntryEnd   = 0x05F9
)

var lowEntryStack = []uint16{0x053F}
var highEntryStack = []uint16{0x056F, 0x053F}

// exit points the ROM routine resumes at once the instant loader is done.
const (
	exitFinished = 0x05DB
	exitTimeout  = 0x05CD
)

// Result reports what InstantLoad did. When Attempted is false the CPU
// wasn't in a recognised ROM-loading state and nothing was touched.
type Result struct {
	Attempted bool
	BytesRead uint32
}

// InstantLoad inspects cpu's register state; if it matches one of the ROM
// tape loader's entry points, it acquires a reader via acquire and feeds
// its bytes directly into mem, leaving cpu in exactly the state the real
// routine would have on loading, verify-mismatch, header-mismatch or
// running out of tape, and reports how many bytes were consumed so the
// caller can advance its own tape position by the same amount.
//
// acquire is only called once a loading attempt is actually detected, so a
// host backed by a real file or socket doesn't pay for it on every frame.
func InstantLoad(cpu *z80.Z80, mem *memory.ZxMemory, acquire func() (io.Reader, error)) (Result, error) {
	sp, de, headMatch, flags, detected := detectRomLoading(cpu, mem)
	if !detected {
		return Result{}, nil
	}

	r, err := acquire()
	if err != nil {
		return Result{}, errors.Errorf(errors.HostIo, err)
	}

	head, ok, err := readByte(r)
	if err != nil {
		return Result{}, errors.Errorf(errors.HostIo, err)
	}
	if !ok {
		return Result{Attempted: true}, nil
	}

	cpu.SetSP(sp)
	c := (cpu.C & 0x7F) ^ 3
	cpu.C = c

	if headMatch != head {
		headMismatchExit(cpu, head)
		return Result{Attempted: true, BytesRead: 1}, nil
	}

	// the real routine swaps into the alternate set, loads A'/F' and
	// swaps back; with direct field access there's no need to disturb
	// the live AF to get the same end state.
	cpu.A_ = c
	cpu.F_ = flags | flagZF

	isLoad := flags&flagCF != 0
	checksum := head
	limit := de
	tgtAddr := cpu.IX()

	for {
		octet, ok, rerr := readByte(r)
		if !ok {
			tapeTimeoutExit(cpu, checksum, tgtAddr, limit)
			consumed := Result{Attempted: true, BytesRead: uint32(de-limit) + 2}
			if rerr != nil {
				return consumed, errors.Errorf(errors.HostIo, rerr)
			}
			return consumed, nil
		}
		checksum ^= octet

		if limit == 0 || (!isLoad && mem.Read(tgtAddr) != octet) {
			finishedExit(cpu, checksum, octet, tgtAddr, limit)
			return Result{Attempted: true, BytesRead: uint32(de-limit) + 2}, nil
		}

		if isLoad {
			mem.Write(tgtAddr, octet)
		}
		tgtAddr++
		limit--
	}
}

// detectRomLoading reports whether cpu is parked at a ROM loader entry
// point with interrupts disabled and the stack holding the expected return
// addresses for that entry point, returning the register values the caller
// needs to carry into the load itself.
func detectRomLoading(cpu *z80.Z80, mem *memory.ZxMemory) (sp, de uint16, headMatch, flags uint8, ok bool) {
	if cpu.IFF1 != 0 || cpu.IFF2 != 0 {
		return 0, 0, 0, 0, false
	}

	pc := cpu.PC()
	var wanted []uint16
	switch {
	case pc >= lowEntryStart && pc <= lowEntryEnd:
		wanted = lowEntryStack
	case pc >= highEntryStart && pc <= highEntryEnd:
		wanted = highEntryStack
	default:
		return 0, 0, 0, 0, false
	}

	sp = cpu.SP()
	for i, want := range wanted {
		if mem.Read16(sp) != want {
			return 0, 0, 0, 0, false
		}
		if i < len(wanted)-1 {
			sp += 2
		}
	}

	de = cpu.DE()
	if de < 1 || de > 0xFEFF {
		return 0, 0, 0, 0, false
	}

	headMatch = cpu.A_
	flags = cpu.F_
	if flags&flagZF != 0 {
		return 0, 0, 0, 0, false
	}

	return sp, de, headMatch, flags, true
}

func readByte(r io.Reader) (b byte, ok bool, err error) {
	var buf [1]byte
	for {
		n, rerr := r.Read(buf[:])
		if n > 0 {
			return buf[0], true, nil
		}
		if rerr == io.EOF {
			return 0, false, nil
		}
		if rerr != nil {
			return 0, false, rerr
		}
	}
}

func setDE(cpu *z80.Z80, v uint16) {
	cpu.D = uint8(v >> 8)
	cpu.E = uint8(v)
}

func headMismatchExit(cpu *z80.Z80, head uint8) {
	cpu.SetPC(exitFinished)
	cpu.L = head
	cpu.H = head
	cpu.B = 0xB0
}

func finishedExit(cpu *z80.Z80, checksum, octet uint8, tgtAddr, bytesLeft uint16) {
	cpu.SetPC(exitFinished)
	cpu.SetIX(tgtAddr)
	setDE(cpu, bytesLeft)
	cpu.L = octet
	cpu.H = checksum
	cpu.B = 0xB0
}

func tapeTimeoutExit(cpu *z80.Z80, checksum uint8, tgtAddr, bytesLeft uint16) {
	cpu.SetPC(exitTimeout)
	cpu.SetIX(tgtAddr)
	setDE(cpu, bytesLeft)
	cpu.L = 1
	cpu.H = checksum
	cpu.B = 0
	cpu.A = 0
	cpu.F = flagZF | flagHF
}
