// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package memory models the ZX Spectrum's addressable memory: a flat array
// of 16 KiB banks, and four logical pages through which the CPU's 64 KiB
// address space is mapped onto them. A 48K machine never remaps its pages;
// a 128K or +3 machine's ULA rewrites the mapping on every OUT to its
// paging port, which is exactly the operation this package exposes and the
// ULA package drives.
package memory

import (
	"io"

	"github.com/zxula/spectrumcore/errors"
)

// BankSize is the size in bytes of one memory bank.
const BankSize = 0x4000

// PageSize is the size in bytes of one logical page. It equals BankSize:
// every page maps exactly one whole bank.
const PageSize = BankSize

// NumPages is the number of logical pages the CPU's 64 KiB address space
// is divided into.
const NumPages = 4

// BankKind distinguishes ROM banks (writes silently dropped) from RAM
// banks.
type BankKind int

const (
	RAM BankKind = iota
	ROM
)

type bank struct {
	data []byte
	kind BankKind
}

// page is one of the four logical address-space slots. It points at a
// bank, with an independent read-only flag: RAM can be mapped read-only
// (a ROM cartridge-style overlay) and ROM is always effectively read-only
// regardless of this flag, since the underlying bank kind also gates
// writes.
type page struct {
	bank     int
	readOnly bool

	// exrom, when non-nil, overlays bank entirely: reads come from this
	// slice instead (MapExrom also marks the page read-only, so writes are
	// dropped), until UnmapExrom brings the bank back.
	exrom []byte
}

// ZxMemory owns the concatenated bank storage and the four logical page
// slots the CPU address space is divided into.
type ZxMemory struct {
	banks []bank
	pages [NumPages]page

	screenPrimary   int
	screenSecondary int
}

// NewZxMemory allocates numBanks banks of BankSize bytes each, all
// initially RAM, with page p mapped writable to bank p % numBanks (page 0
// maps bank 0, page 1 bank 1, and so on, by default — callers reconfigure
// with MapRomBank/MapRamBank as needed).
func NewZxMemory(numBanks int) *ZxMemory {
	m := &ZxMemory{
		banks: make([]bank, numBanks),
	}
	for i := range m.banks {
		m.banks[i] = bank{data: make([]byte, BankSize), kind: RAM}
	}
	for p := range m.pages {
		m.pages[p] = page{bank: p % numBanks}
	}
	return m
}

// SetBankKind marks bank as ROM or RAM. Used once during machine assembly
// to declare which banks hold the operating system ROM(s).
func (m *ZxMemory) SetBankKind(bankNum int, kind BankKind) error {
	if bankNum < 0 || bankNum >= len(m.banks) {
		return errors.Errorf(errors.InvalidBank, bankNum)
	}
	m.banks[bankNum].kind = kind
	return nil
}

// SetScreenBanks records which banks the video renderer should treat as
// the primary and secondary screen banks. On machines without a secondary
// screen (everything except 128K-class variants with shadow screen
// support) the two may be the same bank.
func (m *ZxMemory) SetScreenBanks(primary, secondary int) error {
	if primary < 0 || primary >= len(m.banks) {
		return errors.Errorf(errors.InvalidBank, primary)
	}
	if secondary < 0 || secondary >= len(m.banks) {
		return errors.Errorf(errors.InvalidBank, secondary)
	}
	m.screenPrimary = primary
	m.screenSecondary = secondary
	return nil
}

func (m *ZxMemory) pageFor(addr uint16) *page {
	return &m.pages[addr>>14]
}

func (m *ZxMemory) offsetFor(addr uint16) uint16 {
	return addr & (PageSize - 1)
}

// Read returns the byte currently mapped at addr.
func (m *ZxMemory) Read(addr uint16) uint8 {
	p := m.pageFor(addr)
	off := m.offsetFor(addr)
	if p.exrom != nil {
		return p.exrom[off]
	}
	return m.banks[p.bank].data[off]
}

// Write stores data at addr, unless the mapped page is read-only or backed
// by a ROM bank, in which case the write is silently dropped.
func (m *ZxMemory) Write(addr uint16, data uint8) {
	p := m.pageFor(addr)
	if p.readOnly {
		return
	}
	off := m.offsetFor(addr)
	if p.exrom != nil {
		p.exrom[off] = data
		return
	}
	if m.banks[p.bank].kind == ROM {
		return
	}
	m.banks[p.bank].data[off] = data
}

// Read16 reads a little-endian word straddling addr and addr+1.
func (m *ZxMemory) Read16(addr uint16) uint16 {
	lo := m.Read(addr)
	hi := m.Read(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

// Write16 stores a little-endian word straddling addr and addr+1.
func (m *ZxMemory) Write16(addr uint16, data uint16) {
	m.Write(addr, uint8(data))
	m.Write(addr+1, uint8(data>>8))
}

// PageRef returns the bank number and read-only flag currently mapped at
// logical page p (0..3).
func (m *ZxMemory) PageRef(p int) (bankNum int, readOnly bool, err error) {
	if p < 0 || p >= NumPages {
		return 0, false, errors.Errorf(errors.InvalidPage, p)
	}
	return m.pages[p].bank, m.pages[p].readOnly, nil
}

// MapRomBank maps bank as a read-only ROM page at logical page p. bank
// must already have been declared ROM with SetBankKind.
func (m *ZxMemory) MapRomBank(bankNum, p int) error {
	if p < 0 || p >= NumPages {
		return errors.Errorf(errors.InvalidPage, p)
	}
	if bankNum < 0 || bankNum >= len(m.banks) {
		return errors.Errorf(errors.InvalidBank, bankNum)
	}
	if m.banks[bankNum].kind != ROM {
		return errors.Errorf(errors.UnsupportedMapping, bankNum)
	}
	m.pages[p] = page{bank: bankNum, readOnly: true}
	return nil
}

// MapRamBank maps bank as a RAM page at logical page p, writable unless
// writable is false (used by the +3's "all RAM, page 0 read-only" special
// mode).
func (m *ZxMemory) MapRamBank(bankNum, p int, writable bool) error {
	if p < 0 || p >= NumPages {
		return errors.Errorf(errors.InvalidPage, p)
	}
	if bankNum < 0 || bankNum >= len(m.banks) {
		return errors.Errorf(errors.InvalidBank, bankNum)
	}
	if m.banks[bankNum].kind != RAM {
		return errors.Errorf(errors.UnsupportedMapping, bankNum)
	}
	m.pages[p] = page{bank: bankNum, readOnly: !writable}
	return nil
}

// MapExrom overlays page p with an external ROM image (e.g. an Interface-1
// 8 KiB cartridge ROM), replacing whatever bank was mapped there until
// UnmapExrom is called for the same page.
func (m *ZxMemory) MapExrom(rom []byte, p int) error {
	if p < 0 || p >= NumPages {
		return errors.Errorf(errors.InvalidPage, p)
	}
	if m.pages[p].exrom != nil {
		return errors.Errorf(errors.ExROMAlreadyMapped, p)
	}
	m.pages[p].exrom = rom
	m.pages[p].readOnly = true
	return nil
}

// UnmapExrom removes an overlay previously installed with MapExrom,
// restoring the bank mapping that was in place underneath it.
func (m *ZxMemory) UnmapExrom(p int) error {
	if p < 0 || p >= NumPages {
		return errors.Errorf(errors.InvalidPage, p)
	}
	if m.pages[p].exrom == nil {
		return errors.Errorf(errors.ExROMNotMapped, p)
	}
	m.pages[p].exrom = nil
	m.pages[p].readOnly = m.banks[m.pages[p].bank].kind == ROM
	return nil
}

// ScreenBankNumbers returns the bank numbers designated as the primary and
// secondary screen banks, for callers (the ULA's frame-cache hook) that
// need to recognise a screen write by bank identity rather than by current
// page mapping.
func (m *ZxMemory) ScreenBankNumbers() (primary, secondary int) {
	return m.screenPrimary, m.screenSecondary
}

// ScreenPrimaryRef returns the raw bytes of the bank designated as the
// primary screen bank, regardless of whether it is currently mapped into
// the CPU's address space.
func (m *ZxMemory) ScreenPrimaryRef() []byte {
	return m.banks[m.screenPrimary].data
}

// ScreenSecondaryRef returns the raw bytes of the bank designated as the
// secondary (shadow) screen bank.
func (m *ZxMemory) ScreenSecondaryRef() []byte {
	return m.banks[m.screenSecondary].data
}

// LoadIntoRom copies r's contents into bank, regardless of the bank's
// read-only status — this is how ROM images are installed at machine
// assembly time, not during emulation.
func (m *ZxMemory) LoadIntoRom(bankNum int, r io.Reader) error {
	if bankNum < 0 || bankNum >= len(m.banks) {
		return errors.Errorf(errors.InvalidBank, bankNum)
	}
	n, err := io.ReadFull(r, m.banks[bankNum].data)
	if err != nil && err != io.ErrUnexpectedEOF {
		return errors.Errorf(errors.HostIo, err)
	}
	_ = n
	return nil
}

// FillMem fills bank with bytes drawn from fill, one call per byte. Used to
// randomize RAM at cold boot the way real hardware's RAM powers up with
// unpredictable contents.
func (m *ZxMemory) FillMem(bankNum int, fill func(n int) uint8) error {
	if bankNum < 0 || bankNum >= len(m.banks) {
		return errors.Errorf(errors.InvalidBank, bankNum)
	}
	for i := range m.banks[bankNum].data {
		m.banks[bankNum].data[i] = fill(i)
	}
	return nil
}

// NumBanks returns the number of banks this memory was constructed with.
func (m *ZxMemory) NumBanks() int {
	return len(m.banks)
}

// BankRef returns the raw bytes of bank, regardless of whether or where it
// is currently mapped. Snapshot formats use this to dump and restore whole
// banks by number rather than by walking the CPU's paged address space.
func (m *ZxMemory) BankRef(bankNum int) ([]byte, error) {
	if bankNum < 0 || bankNum >= len(m.banks) {
		return nil, errors.Errorf(errors.InvalidBank, bankNum)
	}
	return m.banks[bankNum].data, nil
}

// BankKind reports whether bank is a ROM or RAM bank.
func (m *ZxMemory) BankKind(bankNum int) (BankKind, error) {
	if bankNum < 0 || bankNum >= len(m.banks) {
		return 0, errors.Errorf(errors.InvalidBank, bankNum)
	}
	return m.banks[bankNum].kind, nil
}
