// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package memory_test

import (
	"bytes"
	"testing"

	"github.com/zxula/spectrumcore/hardware/memory"
	"github.com/zxula/spectrumcore/test"
)

func TestReadWriteWithinPage(t *testing.T) {
	m := memory.NewZxMemory(4)

	m.Write(0x0000, 0xAB)
	test.ExpectEquality(t, m.Read(0x0000), uint8(0xAB))

	m.Write16(0x4000, 0x1234)
	test.ExpectEquality(t, m.Read16(0x4000), uint16(0x1234))
}

func TestRomBankRejectsWrites(t *testing.T) {
	m := memory.NewZxMemory(4)

	err := m.SetBankKind(0, memory.ROM)
	test.ExpectSuccess(t, err)
	err = m.MapRomBank(0, 0)
	test.ExpectSuccess(t, err)

	before := m.Read(0x0000)
	m.Write(0x0000, before+1)
	test.ExpectEquality(t, m.Read(0x0000), before)
}

func TestMapRamBankReadOnly(t *testing.T) {
	m := memory.NewZxMemory(4)

	err := m.MapRamBank(1, 0, false)
	test.ExpectSuccess(t, err)

	before := m.Read(0x0000)
	m.Write(0x0000, before+1)
	test.ExpectEquality(t, m.Read(0x0000), before)

	err = m.MapRamBank(1, 0, true)
	test.ExpectSuccess(t, err)
	m.Write(0x0000, before+1)
	test.ExpectEquality(t, m.Read(0x0000), before+1)
}

func TestMapRomBankRejectsRamBank(t *testing.T) {
	m := memory.NewZxMemory(4)
	err := m.MapRomBank(1, 0)
	test.ExpectFailure(t, err)
}

func TestExrom(t *testing.T) {
	m := memory.NewZxMemory(4)

	rom := bytes.Repeat([]byte{0xFF}, memory.PageSize)
	err := m.MapExrom(rom, 0)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m.Read(0x0000), uint8(0xFF))

	// overlay is read-only
	m.Write(0x0000, 0x00)
	test.ExpectEquality(t, m.Read(0x0000), uint8(0xFF))

	// can't double-map
	err = m.MapExrom(rom, 0)
	test.ExpectFailure(t, err)

	err = m.UnmapExrom(0)
	test.ExpectSuccess(t, err)

	// second unmap fails
	err = m.UnmapExrom(0)
	test.ExpectFailure(t, err)
}

func TestScreenRefsSurviveRemapping(t *testing.T) {
	m := memory.NewZxMemory(8)

	err := m.SetScreenBanks(5, 7)
	test.ExpectSuccess(t, err)

	screen := m.ScreenPrimaryRef()
	screen[0] = 0x42

	// page 1 (0x4000-0x7fff) is remapped away from bank 5, but the screen
	// reference must still see bank 5's contents.
	err = m.MapRamBank(2, 1, true)
	test.ExpectSuccess(t, err)

	test.ExpectEquality(t, m.ScreenPrimaryRef()[0], uint8(0x42))
}

func TestLoadIntoRom(t *testing.T) {
	m := memory.NewZxMemory(2)

	data := bytes.Repeat([]byte{0x11}, memory.BankSize)
	err := m.LoadIntoRom(0, bytes.NewReader(data))
	test.ExpectSuccess(t, err)

	err = m.SetBankKind(0, memory.ROM)
	test.ExpectSuccess(t, err)
	err = m.MapRomBank(0, 0)
	test.ExpectSuccess(t, err)

	test.ExpectEquality(t, m.Read(0x0000), uint8(0x11))
}

func TestFillMem(t *testing.T) {
	m := memory.NewZxMemory(2)

	err := m.FillMem(1, func(n int) uint8 { return uint8(n) })
	test.ExpectSuccess(t, err)

	err = m.MapRamBank(1, 0, true)
	test.ExpectSuccess(t, err)

	test.ExpectEquality(t, m.Read(0x0001), uint8(1))
}

func TestInvalidBankAndPage(t *testing.T) {
	m := memory.NewZxMemory(2)

	err := m.SetBankKind(99, memory.ROM)
	test.ExpectFailure(t, err)

	_, _, err = m.PageRef(99)
	test.ExpectFailure(t, err)
}
