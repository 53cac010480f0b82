// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package sna_test

import (
	"bytes"
	"testing"

	"github.com/remogatto/z80"

	"github.com/zxula/spectrumcore/formats/sna"
	"github.com/zxula/spectrumcore/hardware/bus"
	"github.com/zxula/spectrumcore/hardware/contention"
	"github.com/zxula/spectrumcore/hardware/memory"
	"github.com/zxula/spectrumcore/hardware/ula"
	"github.com/zxula/spectrumcore/hardware/videots"
	"github.com/zxula/spectrumcore/test"
)

func new48kMachine() (*z80.Z80, *memory.ZxMemory) {
	mem := memory.NewZxMemory(4)
	_ = mem.SetBankKind(0, memory.ROM)
	_ = mem.MapRomBank(0, 0)
	_ = mem.MapRamBank(1, 1, true)
	_ = mem.MapRamBank(2, 2, true)
	_ = mem.MapRamBank(3, 3, true)

	var chain bus.Chain
	u := ula.New(videots.Variant48k, mem, &chain, contention.New48k())
	cpu := z80.NewZ80(u, u)
	u.SetCPU(cpu)
	return cpu, mem
}

func build48Header(border uint8, sp uint16) [sna.HeaderSize]byte {
	var h [sna.HeaderSize]byte
	h[0] = 0x3F               // I
	h[19] = 1 << 2            // IFF2 set
	h[20] = 0x12              // R
	h[23] = uint8(sp)
	h[24] = uint8(sp >> 8)
	h[25] = 1 // IM 1
	h[26] = border
	return h
}

func TestLoad48RestoresRegistersAndPopsPC(t *testing.T) {
	cpu, mem := new48kMachine()

	sp := uint16(0xFF00)
	header := build48Header(4, sp)

	var buf bytes.Buffer
	buf.Write(header[:])
	ram := make([]byte, 48*1024)
	// place the resume PC at the stack slot sp will point into once loaded
	ram[int(sp)-0x4000] = 0x34
	ram[int(sp)-0x4000+1] = 0x12
	buf.Write(ram)

	snap, err := sna.Load(&buf, cpu, mem)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, snap.Border, uint8(4))
	test.ExpectEquality(t, snap.Is128k, false)
	test.ExpectEquality(t, cpu.PC(), uint16(0x1234))
	test.ExpectEquality(t, cpu.SP(), sp+2)
	test.ExpectEquality(t, cpu.I, uint8(0x3F))
	test.ExpectEquality(t, cpu.IFF2, uint8(1))
	test.ExpectEquality(t, cpu.IM, uint8(1))
}

func TestLoadRejectsShortStream(t *testing.T) {
	cpu, mem := new48kMachine()
	_, err := sna.Load(bytes.NewReader(make([]byte, 10)), cpu, mem)
	test.ExpectFailure(t, err)
}

func TestLoadRejectsInvalidInterruptMode(t *testing.T) {
	cpu, mem := new48kMachine()
	header := build48Header(0, 0xFF00)
	header[25] = 3 // no such interrupt mode

	var buf bytes.Buffer
	buf.Write(header[:])
	buf.Write(make([]byte, 48*1024))

	_, err := sna.Load(&buf, cpu, mem)
	test.ExpectFailure(t, err)
}

func TestSave48ThenLoad48RoundTripsRegisters(t *testing.T) {
	cpu, mem := new48kMachine()
	cpu.SetSP(0xFF10)
	cpu.SetPC(0x8000)
	cpu.A = 0x42
	cpu.B = 0x11
	cpu.I = 0x7A
	cpu.IM = 2
	cpu.IFF1, cpu.IFF2 = 1, 1

	ref, _ := mem.BankRef(2)
	ref[0x10] = 0x99 // bank 2 backs 0x8000..0xbfff

	var buf bytes.Buffer
	test.ExpectSuccess(t, sna.Save48(&buf, cpu, mem, 6))

	cpu2, mem2 := new48kMachine()
	snap, err := sna.Load(bytes.NewReader(buf.Bytes()), cpu2, mem2)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, snap.Border, uint8(6))
	test.ExpectEquality(t, cpu2.PC(), uint16(0x8000))
	test.ExpectEquality(t, cpu2.SP(), uint16(0xFF10))
	test.ExpectEquality(t, cpu2.A, uint8(0x42))
	test.ExpectEquality(t, cpu2.B, uint8(0x11))
	test.ExpectEquality(t, cpu2.I, uint8(0x7A))
	test.ExpectEquality(t, cpu2.IM, uint8(2))

	ref2, _ := mem2.BankRef(2)
	test.ExpectEquality(t, ref2[0x10], uint8(0x99))
}

func new128kMemory() *memory.ZxMemory {
	mem := memory.NewZxMemory(9)
	_ = mem.SetBankKind(8, memory.ROM)
	_ = mem.MapRomBank(8, 0)
	_ = mem.MapRamBank(5, 1, true)
	_ = mem.MapRamBank(2, 2, true)
	_ = mem.MapRamBank(4, 3, true)
	return mem
}

func TestSave128ThenLoadRestoresPagingMetadataAndBanks(t *testing.T) {
	cpu, _ := new48kMachine()
	cpu.SetPC(0xC000)
	mem128 := new128kMemory()

	ref, _ := mem128.BankRef(4)
	ref[0] = 0x55
	ref3, _ := mem128.BankRef(3)
	ref3[0] = 0xAA

	var buf bytes.Buffer
	test.ExpectSuccess(t, sna.Save128(&buf, cpu, mem128, 2, 0x14, false))

	cpu2, _ := new48kMachine()
	freshMem := new128kMemory()

	snap, err := sna.Load(bytes.NewReader(buf.Bytes()), cpu2, freshMem)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, snap.Is128k, true)
	test.ExpectEquality(t, snap.Port7FFD, uint8(0x14))
	test.ExpectEquality(t, snap.TRDosPaged, false)
	test.ExpectEquality(t, cpu2.PC(), uint16(0xC000))

	ref2, _ := freshMem.BankRef(4)
	test.ExpectEquality(t, ref2[0], uint8(0x55))
	ref3b, _ := freshMem.BankRef(3)
	test.ExpectEquality(t, ref3b[0], uint8(0xAA))
}
