// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package main

import (
	"testing"

	"github.com/zxula/spectrumcore/hardware/videots"
	"github.com/zxula/spectrumcore/test"
)

func TestVideoVariantMapsEachScenario(t *testing.T) {
	test.ExpectEquality(t, videoVariant(variant48k), videots.Variant48k)
	test.ExpectEquality(t, videoVariant(variant16k), videots.Variant48k)
	test.ExpectEquality(t, videoVariant(variant128k), videots.Variant128k)
	test.ExpectEquality(t, videoVariant(variantPlus3), videots.Variant128k)
}

// TestRunScenarioReachesTargetPCOnAnAllNOPImage uses an all-zero ROM, which
// decodes as an unbroken run of NOPs, so PC simply counts up by one per
// single-stepped instruction once the frame-running phase ends. This
// doesn't exercise real boot behaviour, but it does exercise the control
// flow runScenario drives: frame stepping, the switch to single-stepping,
// and landing exactly on s1's target PC.
func TestRunScenarioReachesTargetPCOnAnAllNOPImage(t *testing.T) {
	rom := make([]byte, romSize)
	m, err := buildMachine(scenarios["s1"].variant, rom)
	test.ExpectSuccess(t, err)

	state, err := runScenario(m, scenarios["s1"], true)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m.cpu.PC(), scenarios["s1"].targetPC)

	mismatches := compareState(scenarios["s1"], state)
	if len(mismatches) == 0 {
		t.Fatalf("expected an all-NOP image to disagree with the golden register set")
	}
}

func TestCompareStatePartialScenarioOnlyChecksTState(t *testing.T) {
	sc := scenarios["s3"]
	got := cpuState{TState: sc.golden.TState, AF: 0xFFFF}
	mismatches := compareState(sc, got)
	if len(mismatches) != 0 {
		t.Fatalf("expected partial scenario to ignore AF, got %v", mismatches)
	}
}

func TestCompareStateReportsTStateMismatch(t *testing.T) {
	sc := scenarios["s4"]
	got := cpuState{TState: sc.golden.TState + 1}
	mismatches := compareState(sc, got)
	if len(mismatches) != 1 {
		t.Fatalf("expected exactly one mismatch, got %v", mismatches)
	}
}
