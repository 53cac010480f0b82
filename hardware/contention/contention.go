// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package contention computes, for a given machine variant and a given
// video timestamp, how many extra T-states the CPU stalls for when it
// touches a contended address or port. The tables are pure functions of
// the variant and are computed once at construction; nothing here depends
// on the running state of a particular machine.
package contention

import (
	"github.com/zxula/spectrumcore/hardware/videots"
)

// Pattern is the classic 8-T-state contention delay pattern applied across
// the 128 T-states during which the ULA fetches display data for one
// scanline.
var Pattern = [8]uint8{6, 5, 4, 3, 2, 1, 0, 0}

// Table holds the precomputed per-scanline contention delay and the set of
// memory banks that are contended on this variant regardless of which
// logical page they happen to be mapped to (the 128K/+3 "contended RAM
// bank" rule).
type Table struct {
	variant videots.Variant

	fetchStart int16
	fetchWidth int16

	scanline []uint8

	contendedBanks map[int]bool
}

// New builds a Table for variant. fetchStart/fetchWidth bound the hc range
// (fetchStart is an hc value itself, not an offset from the variant's
// HTSRangeStart) during which the ULA is fetching display data each
// scanline. contendedBanks lists the bank
// numbers that are contended wherever they are mapped (128K/+3 only; pass
// nil on 48K).
func New(variant videots.Variant, fetchStart, fetchWidth int16, contendedBanks []int) *Table {
	t := &Table{
		variant:        variant,
		fetchStart:     fetchStart,
		fetchWidth:     fetchWidth,
		scanline:       make([]uint8, variant.Width()),
		contendedBanks: make(map[int]bool, len(contendedBanks)),
	}

	for _, b := range contendedBanks {
		t.contendedBanks[b] = true
	}

	for i := range t.scanline {
		hc := int16(i) + variant.HTSRangeStart
		off := hc - fetchStart
		if off < 0 || off >= fetchWidth {
			continue
		}
		t.scanline[i] = Pattern[off%8]
	}

	return t
}

// New48k returns the canonical 48K contention table: the ULA fetches
// display data across hc 0..127 inclusive of every pixel scanline.
func New48k() *Table {
	return New(videots.Variant48k, 0, 128, nil)
}

// New128k returns the 128K/+2 contention table. Odd-numbered RAM banks
// (1, 3, 5, 7) sit in contended memory on these machines, regardless of
// which logical page they're currently mapped to.
func New128k() *Table {
	return New(videots.Variant128k, 0, 128, []int{1, 3, 5, 7})
}

// MemoryDelay returns the number of extra T-states a memory access at ts
// costs, based purely on the timestamp: it does not know which bank is
// mapped where. Callers combine this with BankContended (or with a plain
// address-range check on 48K, where every bank in 0x4000-0x7fff is
// contended) to decide whether to apply it to a given access.
func (t *Table) MemoryDelay(ts videots.VideoTs) uint8 {
	if !videots.InPixelArea(t.variant, ts) {
		return 0
	}
	i := ts.Hc - t.variant.HTSRangeStart
	if i < 0 || int(i) >= len(t.scanline) {
		return 0
	}
	return t.scanline[i]
}

// BankContended reports whether bankNum is contended wherever it is
// mapped, independent of address range. Always false on 48K.
func (t *Table) BankContended(bankNum int) bool {
	return t.contendedBanks[bankNum]
}

// IODelay returns the number of extra T-states an I/O access at ts costs.
// port's bit 0 (A0) decides whether the ULA itself is addressed on this
// cycle: when A0 is clear the whole cycle is contended; when A0 is set but
// the address still falls in the ULA port range (0x4000-0x7fff on the
// upper byte, i.e. the familiar "contended I/O" case) only the second half
// of the cycle is contended, costing at most one wait state up front.
func (t *Table) IODelay(ts videots.VideoTs, port uint16) uint8 {
	delay := t.MemoryDelay(ts)
	if delay == 0 {
		return 0
	}

	if port&0x01 == 0 {
		return delay
	}

	if port&0xC000 == 0x4000 {
		return 1
	}

	return 0
}

// Variant returns the machine variant this table was built for.
func (t *Table) Variant() videots.Variant {
	return t.variant
}
