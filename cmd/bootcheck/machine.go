// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package main

import (
	"bytes"
	"fmt"

	"github.com/remogatto/z80"

	"github.com/zxula/spectrumcore/hardware/bus"
	"github.com/zxula/spectrumcore/hardware/contention"
	"github.com/zxula/spectrumcore/hardware/memory"
	"github.com/zxula/spectrumcore/hardware/ula"
	"github.com/zxula/spectrumcore/hardware/videots"
	"github.com/zxula/spectrumcore/random"
)

// variant names this tool knows how to assemble a machine for.
const (
	variant48k  = "48k"
	variant16k  = "16k"
	variant128k = "128k"
	variantPlus3 = "plus3"
)

// romSize is the size in bytes of one 16 KiB ROM image.
const romSize = 0x4000

// machine bundles the pieces a scenario drives together: the memory banks,
// the assembled Ula and the CPU it serves.
type machine struct {
	mem *memory.ZxMemory
	u   *ula.Ula
	cpu *z80.Z80
}

// buildMachine lays out ROM and RAM banks for variant, loads rom (a flat
// image holding one or more concatenated 16 KiB ROMs in page order, the way
// 128K and +3 ROM dumps are normally distributed) into the ROM banks, and
// wires a fresh Ula/CPU pair over it.
func buildMachine(variantName string, rom []byte) (*machine, error) {
	switch variantName {
	case variant48k:
		return build48kLike(variantPlain48k, rom)
	case variant16k:
		return build48kLike(variantPlain16k, rom)
	case variant128k:
		return build128kLike(2, rom)
	case variantPlus3:
		return build128kLike(4, rom)
	default:
		return nil, fmt.Errorf("unrecognised variant %q (want 48k, 16k, 128k or plus3)", variantName)
	}
}

type plain48kShape int

const (
	variantPlain48k plain48kShape = iota
	variantPlain16k
)

// build48kLike assembles the original 48K machine or the earlier 16K
// machine that's electrically identical except for how much of its address
// space is backed by real RAM. The 16K machine's pages 2 and 3 have no RAM
// behind them on real hardware; this tool maps the single RAM bank into all
// three RAM pages instead of modelling the floating/open-bus read a real
// 16K machine would show there, a deliberate simplification documented
// alongside the rest of this tool's scope.
func build48kLike(shape plain48kShape, rom []byte) (*machine, error) {
	if len(rom) < romSize {
		return nil, fmt.Errorf("ROM image too short: need at least %d bytes, got %d", romSize, len(rom))
	}

	mem := memory.NewZxMemory(4)
	if err := mem.SetBankKind(0, memory.ROM); err != nil {
		return nil, err
	}
	if err := mem.LoadIntoRom(0, bytes.NewReader(rom[:romSize])); err != nil {
		return nil, err
	}
	if err := mem.MapRomBank(0, 0); err != nil {
		return nil, err
	}

	if shape == variantPlain16k {
		if err := mem.MapRamBank(1, 1, true); err != nil {
			return nil, err
		}
		if err := mem.MapRamBank(1, 2, true); err != nil {
			return nil, err
		}
		if err := mem.MapRamBank(1, 3, true); err != nil {
			return nil, err
		}
	} else {
		for p := 1; p <= 3; p++ {
			if err := mem.MapRamBank(p, p, true); err != nil {
				return nil, err
			}
		}
	}
	if err := mem.SetScreenBanks(1, 1); err != nil {
		return nil, err
	}

	var chain bus.Chain
	u := ula.New(videots.Variant48k, mem, &chain, contention.New48k())
	cpu := z80.NewZ80(u, u)
	u.SetCPU(cpu)

	return &machine{mem: mem, u: u, cpu: cpu}, nil
}

// build128kLike assembles a 128K-class machine (romCount 2) or a +3-class
// machine (romCount 4): 8 RAM banks numbered 0-7 in their usual paging
// order, followed by romCount ROM banks numbered from 8, with bank 5 and bank
// 2 given their conventional roles as the two banks the ULA always keeps
// visible. The +3's extra RAM-configuration modes behind port 0x1FFD are
// out of scope here the same way hardware/ula documents them as out of
// scope for the core itself.
func build128kLike(romCount int, rom []byte) (*machine, error) {
	if len(rom) < romCount*romSize {
		return nil, fmt.Errorf("ROM image too short: need at least %d bytes for %d ROM bank(s), got %d", romCount*romSize, romCount, len(rom))
	}

	// RAM banks occupy indices 0-7, matching contention.New128k()'s own
	// {1,3,5,7} contended-bank numbering; ROM banks are appended after
	// them rather than before, the same layout formats/sna's 128K test
	// fixtures already use.
	romBank := func(r int) int { return 8 + r }

	numBanks := 8 + romCount
	mem := memory.NewZxMemory(numBanks)
	for r := 0; r < romCount; r++ {
		if err := mem.SetBankKind(romBank(r), memory.ROM); err != nil {
			return nil, err
		}
		if err := mem.LoadIntoRom(romBank(r), bytes.NewReader(rom[r*romSize:(r+1)*romSize])); err != nil {
			return nil, err
		}
	}
	if err := mem.MapRomBank(romBank(0), 0); err != nil {
		return nil, err
	}

	if err := mem.MapRamBank(5, 1, true); err != nil {
		return nil, err
	}
	if err := mem.MapRamBank(2, 2, true); err != nil {
		return nil, err
	}
	if err := mem.MapRamBank(0, 3, true); err != nil {
		return nil, err
	}
	if err := mem.SetScreenBanks(5, 7); err != nil {
		return nil, err
	}

	var chain bus.Chain
	u := ula.New(videots.Variant128k, mem, &chain, contention.New128k())
	cpu := z80.NewZ80(u, u)
	u.SetCPU(cpu)

	return &machine{mem: mem, u: u, cpu: cpu}, nil
}

// randomizeRAM fills every RAM bank with noise the way real RAM powers up
// unpredictable, using zeroSeed to make the fill reproducible between runs
// when a golden comparison needs that determinism.
func randomizeRAM(m *machine, zeroSeed bool) error {
	r := random.NewRandom(m.u)
	r.ZeroSeed = zeroSeed

	for b := 0; b < m.mem.NumBanks(); b++ {
		kind, err := m.mem.BankKind(b)
		if err != nil {
			return err
		}
		if kind != memory.RAM {
			continue
		}
		if err := m.mem.FillMem(b, r.Rewindable); err != nil {
			return err
		}
	}
	return nil
}
