// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package ula implements the Uncommitted Logic Array: the chip that turns a
// plain Z80 into a ZX Spectrum. It is the CPU's memory and I/O accessor
// (github.com/remogatto/z80's MemoryAccessor and PortAccessor), the keeper
// of the video clock, the source of memory/IO contention delays, the
// decoder of the border/keyboard/tape port and, on 128K-class machines, the
// paging ports. Everything else in this module — the memory bank array, the
// contention table, the bus-device chain, the frame cache — is a
// collaborator the ULA drives through its own exported methods, the way
// spec component E sits in the middle of components A-D.
package ula

import (
	"github.com/remogatto/z80"

	"github.com/zxula/spectrumcore/hardware/bus"
	"github.com/zxula/spectrumcore/hardware/contention"
	"github.com/zxula/spectrumcore/hardware/memory"
	"github.com/zxula/spectrumcore/hardware/video"
	"github.com/zxula/spectrumcore/hardware/videots"
)

// Metrics counts the events a host might want to sample for a status
// display or a regression test, without forcing it to instrument the hot
// path itself.
type Metrics struct {
	MemoryAccesses    uint64
	IOAccesses        uint64
	ContentionTStates uint64
	Interrupts        uint64
	HaltSkips         uint64
}

// KeyboardRow is one row of the 8x5 keyboard matrix, one bit per key, 1
// meaning "released" and 0 meaning "pressed" — the polarity the real
// hardware's pull-up resistors present to the ULA.
type KeyboardRow = uint8

// Ula is the assembled chip: a memory bank array, a contention table tuned
// for one machine variant, a bus-device chain for peripherals, and the
// paging/port state the ULA itself owns. Construct one with New, attach it
// to a *z80.Z80 with SetCPU, then drive frames with RunFrame.
type Ula struct {
	variant videots.Variant
	mem     *memory.ZxMemory
	devices *bus.Chain
	contend *contention.Table
	cpu     *z80.Z80

	ts    videots.VideoTs
	frame uint64

	is128k bool

	border uint8
	mic    uint8
	ear    uint8
	issue2 bool

	keyboard [8]KeyboardRow

	borderLog []videots.TimestampedByte

	// frameCommitPending marks that the frame most recently completed by
	// RunFrame has its border log and frame cache still holding that frame's
	// data, unconsumed by the host. The next RunFrame call commits (resets)
	// them before running, rather than RunFrame wiping its own output on the
	// way out.
	frameCommitPending bool

	pagingLatched bool
	ramPage3      int
	romPage0      int
	screenShadow  bool

	// plus3Paging holds the raw +3-special-paging byte (port 0x1FFD); it is
	// stored as written and none of its bits are decoded here, the special
	// RAM configurations are left to the host's memory wiring (spec names the
	// +3 as in scope but its four extra RAM layouts are not exercised by
	// any of this module's own tests).
	plus3Paging uint8

	cache *video.Cache

	Metrics Metrics
}

// New assembles a Ula for variant, wired to mem, devices and contend. The
// keyboard starts fully released, the border black, and EAR/MIC both low.
func New(variant videots.Variant, mem *memory.ZxMemory, devices *bus.Chain, contend *contention.Table) *Ula {
	u := &Ula{
		variant: variant,
		mem:     mem,
		devices: devices,
		contend: contend,
		is128k:  variant.Name != videots.Variant48k.Name,
	}
	for i := range u.keyboard {
		u.keyboard[i] = 0xFF
	}
	return u
}

// SetFrameCache attaches the frame cache that observes screen-bank writes.
// Optional: a Ula with no cache attached still runs, it just can't feed a
// video.Renderer with anything but live memory.
func (u *Ula) SetFrameCache(cache *video.Cache) {
	u.cache = cache
}

// SetCPU attaches the CPU this Ula serves as MemoryAccessor/PortAccessor.
// Construction is necessarily two-step: z80.NewZ80 needs a fully formed
// accessor pair before it can hand back a *z80.Z80 for the accessor to hold
// a reference to in turn.
func (u *Ula) SetCPU(cpu *z80.Z80) {
	u.cpu = cpu
}

// SetIssue2 selects Issue-2 (pre-1984) keyboard EAR/MIC mixing on port 0xFE
// reads, versus the later Issue-3 behaviour.
func (u *Ula) SetIssue2(issue2 bool) {
	u.issue2 = issue2
}

// Now returns the ULA's current position within the video frame.
func (u *Ula) Now() videots.VideoTs {
	return u.ts
}

// GetCoords satisfies random.CoordSource, letting a Ula act directly as the
// entropy source for RAM-randomizing noise.
func (u *Ula) GetCoords() videots.VideoTs {
	return u.ts
}

// SetClock forces the video clock to ts, bypassing Reset's default
// start-of-frame placement. Host tooling that needs to reproduce a
// documented starting horizontal count rather than hc==HTSRangeStart — a
// cold-boot regression scenario, say — uses this before running frames.
func (u *Ula) SetClock(ts videots.VideoTs) {
	u.ts = ts
}

// Step executes a single CPU opcode without waiting for a frame boundary.
// It exists for host tooling that needs to land on an exact PC within a
// frame rather than stop at RunFrame's whole-frame granularity.
func (u *Ula) Step() {
	if u.cpu == nil {
		return
	}
	if u.cpu.Halted {
		u.advanceMemory(0, 4)
		return
	}
	u.cpu.DoOpcode()
}

// Frame returns the number of frames completed so far.
func (u *Ula) Frame() uint64 {
	return u.frame
}

// Border returns the current border colour (0-7).
func (u *Ula) Border() uint8 {
	return u.border
}

// BorderLog returns the border-colour changes recorded since the log was
// last cleared (by Reset, or by the next RunFrame call committing the
// previous frame), oldest first. The returned slice is reused on the next
// frame and must not be retained.
func (u *Ula) BorderLog() []videots.TimestampedByte {
	return u.borderLog
}

// SetKeyboardRow sets the raw released/pressed bitmask (1=released) for one
// of the eight keyboard half-rows addressed by the high byte of port 0xFE.
func (u *Ula) SetKeyboardRow(row int, bits KeyboardRow) {
	if row < 0 || row >= len(u.keyboard) {
		return
	}
	u.keyboard[row] = bits
}

// SetEarIn drives the tape EAR input level directly, bypassing the bus —
// used by the instant tape loader's fallback real-time playback path and by
// tests.
func (u *Ula) SetEarIn(level uint8) {
	if level != 0 {
		u.ear = 1
	} else {
		u.ear = 0
	}
}

// Reset puts the ULA's own state back to cold-boot defaults and forwards
// the reset to the bus-device chain. It does not touch the CPU or memory;
// the host resets those separately.
func (u *Ula) Reset() {
	u.ts = videots.VideoTs{}
	u.frame = 0
	u.border = 0
	u.mic = 0
	u.ear = 0
	u.borderLog = u.borderLog[:0]
	u.frameCommitPending = false
	u.pagingLatched = false
	u.ramPage3 = 0
	u.romPage0 = 0
	u.screenShadow = false
	u.plus3Paging = 0
	u.devices.Reset(u.ts)
}

// ---- z80.MemoryAccessor ----

func (u *Ula) ReadByte(address uint16) byte {
	u.Metrics.MemoryAccesses++
	return u.mem.Read(address)
}

func (u *Ula) WriteByte(address uint16, value byte) {
	u.Metrics.MemoryAccesses++
	u.mem.Write(address, value)
	u.observeScreenWrite(address, value)
}

// observeScreenWrite feeds a CPU write into the frame cache when address
// currently maps to whichever bank is designated the primary or secondary
// screen bank, regardless of which logical page that happens to be (spec
// §3's screen invariant). No-op if no cache is attached.
func (u *Ula) observeScreenWrite(address uint16, value byte) {
	if u.cache == nil {
		return
	}
	page := int(address >> 14)
	bankNum, _, err := u.mem.PageRef(page)
	if err != nil {
		return
	}
	primary, secondary := u.mem.ScreenBankNumbers()
	if bankNum != primary && bankNum != secondary {
		return
	}

	offset := address & (memory.BankSize - 1)
	switch {
	case offset < video.BitmapBytes:
		row, col := bitmapRowCol(offset)
		u.cache.ObservePixel(row, col, value, u.ts)
	case offset < video.BitmapBytes+video.AttrBytes:
		attrOffset := int(offset) - video.BitmapBytes
		u.cache.ObserveAttr(attrOffset/32, attrOffset%32, value, u.ts)
	}
}

// bitmapRowCol decodes a bitmap-area offset (0..6143) into the
// (display-line, byte-column) it represents, using the Spectrum's
// non-linear Y addressing: bits 12-11 select a third of the screen, bits
// 10-8 the character row within that third, bits 7-5 the pixel row within
// the character, bits 4-0 the byte column.
func bitmapRowCol(offset uint16) (row, col int) {
	third := int(offset>>11) & 0x03
	charRow := int(offset>>8) & 0x07
	pixelRow := int(offset>>5) & 0x07
	col = int(offset) & 0x1F
	row = third*64 + charRow*8 + pixelRow
	return row, col
}

func (u *Ula) ReadByteInternal(address uint16) byte {
	return u.mem.Read(address)
}

func (u *Ula) WriteByteInternal(address uint16, value byte) {
	u.mem.Write(address, value)
	u.observeScreenWrite(address, value)
}

func (u *Ula) Read(address uint16) byte {
	return u.mem.Read(address)
}

func (u *Ula) Write(address uint16, value byte, protectROM bool) {
	// memory.ZxMemory already refuses writes to a page backed by a ROM
	// bank or flagged read-only regardless of protectROM; there is no
	// second, looser write path to fall back to here.
	u.mem.Write(address, value)
	u.observeScreenWrite(address, value)
}

// Data returns a flattened 64 KiB snapshot of whatever is currently paged
// into the CPU's address space, in page order. It exists only to satisfy
// z80.MemoryAccessor's debug-facing contract; nothing in this module reads
// it back.
func (u *Ula) Data() []byte {
	flat := make([]byte, memory.PageSize*memory.NumPages)
	for p := 0; p < memory.NumPages; p++ {
		base := p * memory.PageSize
		for i := 0; i < memory.PageSize; i++ {
			flat[base+i] = u.mem.Read(uint16(p*memory.PageSize + i))
		}
	}
	return flat
}

func (u *Ula) ContendRead(address uint16, time int) {
	u.advanceMemory(address, int32(time))
}

func (u *Ula) ContendReadNoMreq(address uint16, time int) {
	u.advanceMemory(address, int32(time))
}

func (u *Ula) ContendReadNoMreq_loop(address uint16, time int, count uint) {
	for i := uint(0); i < count; i++ {
		u.advanceMemory(address, int32(time))
	}
}

func (u *Ula) ContendWriteNoMreq(address uint16, time int) {
	u.advanceMemory(address, int32(time))
}

func (u *Ula) ContendWriteNoMreq_loop(address uint16, time int, count uint) {
	for i := uint(0); i < count; i++ {
		u.advanceMemory(address, int32(time))
	}
}

// advanceMemory moves the video clock forward by base (the access's own
// M1/MREQ cost, already counted towards the CPU's own Tstates by the
// library) plus any contention delay addressContended finds at the current
// position, which is charged to the CPU's Tstates here since nothing else
// feeds it back.
func (u *Ula) advanceMemory(address uint16, base int32) {
	var extra int32
	if u.addressContended(address) {
		extra = int32(u.contend.MemoryDelay(u.ts))
	}
	if extra > 0 {
		u.Metrics.ContentionTStates += uint64(extra)
		if u.cpu != nil {
			u.cpu.Tstates += int(extra)
		}
	}
	u.ts = videots.Add(u.variant, u.ts, base+extra)
}

// addressContended reports whether the bank currently mapped at address is
// contended: always true for the fixed 0x4000-0x7fff page on every variant,
// and additionally true on 128K-class machines for any of the designated
// contended RAM banks mapped into any page (spec §4.C).
func (u *Ula) addressContended(address uint16) bool {
	page := int(address >> 14)
	if page == 1 {
		return true
	}
	if !u.is128k {
		return false
	}
	bankNum, _, err := u.mem.PageRef(page)
	if err != nil {
		return false
	}
	return u.contend.BankContended(bankNum)
}

// ---- z80.PortAccessor ----

func (u *Ula) ReadPort(address uint16) byte {
	return u.readPort(address)
}

func (u *Ula) ReadPortInternal(address uint16, contend bool) byte {
	return u.readPort(address)
}

func (u *Ula) WritePort(address uint16, b byte) {
	u.writePort(address, b)
}

func (u *Ula) WritePortInternal(address uint16, b byte, contend bool) {
	u.writePort(address, b)
}

func (u *Ula) ContendPortPreio(address uint16) {
	delay := int32(u.contend.IODelay(u.ts, address))
	if delay > 0 {
		u.Metrics.ContentionTStates += uint64(delay)
		if u.cpu != nil {
			u.cpu.Tstates += int(delay)
		}
	}
	u.ts = videots.Add(u.variant, u.ts, delay)
}

// ContendPortPostio accounts for the trailing contended half-cycle the real
// ULA inserts after an I/O access that shares the bus with display fetch.
// IODelay already folds that into the single value charged in
// ContendPortPreio, so there is nothing further to add here; the method
// exists to satisfy z80.PortAccessor.
func (u *Ula) ContendPortPostio(address uint16) {}

func (u *Ula) readPort(address uint16) byte {
	u.Metrics.IOAccesses++

	if address&0x0001 == 0 {
		return u.readUlaPort(address)
	}

	if data, _, claimed := u.devices.ReadIO(address, u.ts); claimed {
		return data
	}

	return u.floatingBus()
}

func (u *Ula) writePort(address uint16, data byte) {
	u.Metrics.IOAccesses++

	if address&0x0001 == 0 {
		u.writeUlaPort(data)
		return
	}

	if u.is128k && address&0x8002 == 0 {
		u.write7FFD(data)
		return
	}

	if u.is128k && address&0xF002 == 0x1000 {
		u.plus3Paging = data
		return
	}

	u.devices.WriteIO(address, data, u.ts)
}

// readUlaPort decodes port 0xFE (any even address): the high byte selects
// which keyboard half-rows to AND together, bit 6 of the result carries the
// EAR input (mixed with MIC on Issue-2 hardware), and the unused bits float
// high the way real hardware's pull-ups leave them.
func (u *Ula) readUlaPort(address uint16) byte {
	result := uint8(0xFF)
	rowSelect := uint8(address >> 8)
	for row := 0; row < 8; row++ {
		if rowSelect&(1<<uint(row)) == 0 {
			result &= u.keyboard[row]
		}
	}

	earLevel := u.ear
	if u.issue2 {
		earLevel |= u.mic
	}
	if earLevel != 0 {
		result |= 0x40
	} else {
		result &^= 0x40
	}

	result |= 0x20
	return result
}

// writeUlaPort decodes an OUT to port 0xFE: bits 0-2 the border colour,
// bit 3 the MIC output, bit 4 the EAR (speaker) output. A border change is
// appended to the log only when the colour actually changes, the way the
// frame renderer wants to see it as a sparse list of edges.
func (u *Ula) writeUlaPort(data byte) {
	newBorder := data & 0x07
	if newBorder != u.border {
		u.border = newBorder
		u.borderLog = append(u.borderLog, videots.TimestampedByte{Ts: u.ts, Data: newBorder})
	}
	u.mic = (data >> 3) & 1
	u.ear = (data >> 4) & 1
}

// write7FFD decodes the 128K/+2/+3 memory-paging port (A15=0, A1=0).
// Once bit 5 has latched the port disabled, further writes are ignored
// until the next reset — the spec's documented 128K "paging lock".
func (u *Ula) write7FFD(data byte) {
	if u.pagingLatched {
		return
	}

	ramBank := int(data & 0x07)
	u.ramPage3 = ramBank
	_ = u.mem.MapRamBank(ramBank, 3, true)

	u.screenShadow = data&0x08 != 0

	romBank := int((data >> 4) & 1)
	u.romPage0 = romBank
	_ = u.mem.MapRomBank(romBank, 0)

	if data&0x20 != 0 {
		u.pagingLatched = true
	}
}

// floatingBus returns the value an unclaimed, odd-address port read sees:
// whatever byte the ULA itself is fetching from screen memory at the
// current timestamp during the visible display area, or 0xFF outside it.
// Per the decided open question (DESIGN.md §Open Questions item 3) the same
// 48K rule is applied uniformly across variants rather than the fuller,
// hardware-measured per-variant table.
func (u *Ula) floatingBus() byte {
	if !videots.InPixelArea(u.variant, u.ts) {
		return 0xFF
	}
	hc := u.ts.Hc
	if hc < 0 || hc >= 128 {
		return 0xFF
	}

	line := int(u.ts.Vc - u.variant.VSLPixelsStart)
	col := int(hc) / 4

	screen := u.mem.ScreenPrimaryRef()
	if u.screenShadow {
		screen = u.mem.ScreenSecondaryRef()
	}

	addr := screenPixelAddress(line, col)
	if addr < 0 || addr >= len(screen) {
		return 0xFF
	}
	return screen[addr]
}

// screenPixelAddress converts a (display-line, byte-column) position into
// the Spectrum's interleaved screen-memory offset: the three high bits of
// the line select a third of the screen, the next three the character row
// within that third, and the low three the pixel row within the character.
func screenPixelAddress(line, col int) int {
	if line < 0 || line >= 192 || col < 0 || col >= 32 {
		return -1
	}
	third := line / 64
	within := line % 64
	charRow := within / 8
	pixelRow := within % 8
	return third*2048 + charRow*256 + pixelRow*32 + col
}

// ---- frame stepping ----

// RunFrame executes CPU instructions until the video clock has advanced a
// full frame, asserting the maskable interrupt once at the top of the
// frame and skipping straight to the next meaningful event — the pending
// interrupt window, or frame end if the interrupt already fired this frame
// — whenever the CPU is halted.
//
// Elapsed time is measured off u.cpu.Tstates rather than off u.ts itself:
// u.ts is a (Vc,Hc) position that RunFrame wraps every frame, so comparing
// two samples of it can't tell "just started" from "just wrapped". Tstates
// is the plain running count github.com/remogatto/z80 advances on every
// opcode, the same field oisee-minz's z80_remogatto.go diffs across a call
// to measure an instruction's cost, so a before/after delta of it is a
// straightforward, non-wrapping clock.
func (u *Ula) RunFrame() {
	u.commitFrame()

	target := u.variant.FrameTStates
	windowFts := -int32(u.variant.HTSRangeStart)
	asserted := false

	var startTstates int
	if u.cpu != nil {
		startTstates = u.cpu.Tstates
	}

	for u.cpu == nil || int32(u.cpu.Tstates-startTstates) < target {
		if !asserted && u.ts.Vc == 0 && u.ts.Hc >= 0 {
			u.assertInterrupt()
			asserted = true
		}

		if u.cpu == nil {
			break
		}

		if u.cpu.Halted {
			if u.skipHalt(windowFts, target, asserted) {
				u.assertInterrupt()
				asserted = true
			}
			continue
		}

		u.cpu.DoOpcode()
	}

	u.frame++
	u.frameCommitPending = true
}

// commitFrame resets the border log and frame cache for a new frame, once
// the host has had the chance to read the previous frame's data. It is a
// no-op the first time RunFrame is called after construction or Reset,
// since there is nothing pending to commit yet.
func (u *Ula) commitFrame() {
	if !u.frameCommitPending {
		return
	}

	u.ts = videots.VideoTs{Vc: 0, Hc: u.variant.HTSRangeStart}
	u.borderLog = u.borderLog[:0]
	u.devices.NextFrame(u.ts)

	if u.cache != nil {
		screen := u.mem.ScreenPrimaryRef()
		if u.screenShadow {
			screen = u.mem.ScreenSecondaryRef()
		}
		u.cache.NextFrame(screen[:video.BitmapBytes], screen[video.BitmapBytes:video.BitmapBytes+video.AttrBytes])
	}

	u.frameCommitPending = false
}

// assertInterrupt raises the ULA's once-per-frame maskable interrupt line.
// The CPU only reacts when interrupts are enabled (IFF1 set); a halted CPU
// wakes up in place rather than advancing PC first. This models interrupt
// mode 1 only — the sequence every ZX Spectrum ROM actually runs under,
// pushing the return address and jumping to the fixed vector 0x0038 — since
// games that switch to IM2 supply their own vector table the host would
// need to wire in separately, out of scope for this core.
func (u *Ula) assertInterrupt() {
	if u.cpu == nil || u.cpu.IFF1 == 0 {
		return
	}

	u.cpu.Halted = false

	sp := u.cpu.SP() - 2
	pc := u.cpu.PC()
	u.mem.Write(sp, uint8(pc))
	u.mem.Write(sp+1, uint8(pc>>8))
	u.cpu.SetSP(sp)
	u.cpu.SetPC(0x0038)
	u.cpu.IFF1 = 0
	u.cpu.Tstates += 13

	u.Metrics.Interrupts++
}

// skipHalt fast-forwards the video clock to whichever comes first: the
// still-pending interrupt window this frame (windowFts, the fts of Vc==0,
// Hc==0) if asserted is false, or frame end (target fts) if the interrupt
// has already fired this frame. It reports whether it landed on the
// window, so the caller can assert the interrupt the halted CPU was
// fast-forwarded straight into rather than silently skipping past it.
//
// Per spec §4.E point 5, the skip inserts an equivalent number of M1
// cycles to keep R bit-exact with step-by-step execution: one increment
// per 4 T-states skipped, same as a real HALT's repeated NOP fetches.
// Exact contended-HALT timing at undocumented boundary hc values remains
// the open question spec §9 leaves unresolved (see DESIGN.md); this only
// picks the skip's destination and R delta, not its fine-grained cost.
func (u *Ula) skipHalt(windowFts, target int32, asserted bool) bool {
	cur := videots.ToFTs(u.variant, u.ts)

	remaining := target - cur
	landsOnWindow := false

	if !asserted {
		toWindow := windowFts - cur
		if toWindow < 0 {
			toWindow += target
		}
		if toWindow < remaining {
			remaining = toWindow
			landsOnWindow = true
		}
	}

	if remaining <= 0 {
		remaining = 4
	}

	u.ts = videots.Add(u.variant, u.ts, remaining)
	if u.cpu != nil {
		u.cpu.Tstates += int(remaining)
		u.cpu.R += uint16(remaining / 4)
	}
	u.Metrics.HaltSkips++

	return landsOnWindow
}
