// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package main

import (
	"fmt"

	"github.com/zxula/spectrumcore/hardware/videots"
)

// scenario describes one of the published cold-boot regression points: load
// a ROM, randomize RAM, reset, run a fixed number of whole frames starting
// from a documented horizontal count, then single-step the rest of the way
// to a documented landing PC and compare the result against golden values.
type scenario struct {
	name    string
	variant string

	frames    int
	startClock *videots.VideoTs // nil means leave the post-reset default
	targetPC  uint16

	golden cpuState
	// checkFull is false for scenarios this tool only has a partial
	// golden record for (S3/S4 only publish PC and T-state, not the full
	// register set S1/S2 do).
	checkFull bool
}

// cpuState is the subset of machine state the published golden records
// compare against, expressed the way spec.md's own CPU_BOOT_* constants do.
type cpuState struct {
	AF, BC, DE, HL     uint16
	AFAlt, BCAlt, DEAlt, HLAlt uint16
	IX, IY, SP         uint16
	R                  uint8
	IM                 uint8
	IFF1, IFF2         bool
	TState             int32
}

var scenarios = map[string]scenario{
	"s1": {
		name:      "48k cold boot",
		variant:   variant48k,
		frames:    86,
		startClock: &videots.VideoTs{Vc: 0, Hc: 9},
		targetPC:  0x10A8,
		checkFull: true,
		golden: cpuState{
			AF: 0x0018, DE: 0x5CB9, HL: 0x10A8, IY: 0x5C3A, SP: 0xFF48,
			IX: 0, BC: 0,
			BCAlt: 0x174B, DEAlt: 0x0006, HLAlt: 0x107F,
			R: 130, IM: 1, IFF1: true, IFF2: true,
			TState: 40249,
		},
	},
	"s2": {
		name:      "16k cold boot",
		variant:   variant16k,
		frames:    47,
		startClock: &videots.VideoTs{Vc: 0, Hc: 16},
		targetPC:  0x10A8,
		checkFull: true,
		golden: cpuState{
			AF: 0x0018, DE: 0x5CB9, HL: 0x10A8, IY: 0x5C3A, SP: 0x7F48,
			IX: 0, BC: 0,
			BCAlt: 0x174B, DEAlt: 0x0006, HLAlt: 0x107F,
			R: 130, IM: 1, IFF1: true, IFF2: true,
			TState: 16104,
		},
	},
	"s3": {
		name:      "128k cold boot",
		variant:   variant128k,
		frames:    66,
		targetPC:  0x2653,
		checkFull: false,
		golden:    cpuState{TState: 37904},
	},
	"s4": {
		name:      "+3 cold boot",
		variant:   variantPlus3,
		frames:    88,
		targetPC:  0x0703,
		checkFull: false,
		golden:    cpuState{TState: 15563},
	},
}

// maxSteps bounds the single-stepping phase so a ROM that never reaches
// targetPC (wrong image, wrong scenario) fails fast instead of spinning.
const maxSteps = 200000

// runScenario drives m through sc's documented boot sequence and returns
// the CPU state observed once targetPC is reached.
func runScenario(m *machine, sc scenario, zeroSeedRAM bool) (cpuState, error) {
	if err := randomizeRAM(m, zeroSeedRAM); err != nil {
		return cpuState{}, err
	}

	m.cpu.Reset()
	m.u.Reset()
	if sc.startClock != nil {
		m.u.SetClock(*sc.startClock)
	}

	for i := 0; i < sc.frames; i++ {
		m.u.RunFrame()
	}

	steps := 0
	for m.cpu.PC() != sc.targetPC {
		m.u.Step()
		steps++
		if steps > maxSteps {
			return cpuState{}, fmt.Errorf("never reached target PC 0x%04X after %d frames + %d single steps", sc.targetPC, sc.frames, maxSteps)
		}
	}

	return snapshotState(m, sc.variant), nil
}

// videoVariant maps a variant name onto the timing table that drives it:
// 48K and 16K share the original machine's timing, 128K and +3 share the
// later, wider one.
func videoVariant(variantName string) videots.Variant {
	switch variantName {
	case variant128k, variantPlus3:
		return videots.Variant128k
	default:
		return videots.Variant48k
	}
}

// snapshotState reads back the CPU state current_tstate() and the golden
// CPU_BOOT_* records describe: the T-state position is relative to the
// start of the frame the target PC was reached within, matching the way
// the published scenarios state a T-state count far smaller than a whole
// frame's length.
func snapshotState(m *machine, variantName string) cpuState {
	cpu := m.cpu

	return cpuState{
		AF:    uint16(cpu.A)<<8 | uint16(cpu.F),
		BC:    cpu.BC(),
		DE:    cpu.DE(),
		HL:    cpu.HL(),
		AFAlt: uint16(cpu.A_)<<8 | uint16(cpu.F_),
		BCAlt: uint16(cpu.B_)<<8 | uint16(cpu.C_),
		DEAlt: uint16(cpu.D_)<<8 | uint16(cpu.E_),
		HLAlt: uint16(cpu.H_)<<8 | uint16(cpu.L_),
		IX:    cpu.IX(),
		IY:    cpu.IY(),
		SP:    cpu.SP(),
		R:     uint8(cpu.R),
		IM:    cpu.IM,
		IFF1:  cpu.IFF1 != 0,
		IFF2:  cpu.IFF2 != 0,
		TState: videots.ToFTs(videoVariant(variantName), m.u.Now()),
	}
}
