// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package blep implements band-limited step synthesis: a stream of
// timestamped amplitude deltas at CPU T-state resolution is convolved
// through a windowed-sinc kernel and resampled to a host audio rate without
// introducing aliasing.
package blep

import "math"

// Kernel is a precomputed windowed-sinc table, Phases rows of Taps
// coefficients each. Row p holds the kernel sampled at sub-sample phase
// p/Phases, so a step landing between two host samples is spread across
// Taps output samples centred on its fractional position.
type Kernel struct {
	Taps   int
	Phases int
	rows   [][]float64
}

// NewKernel builds a Blackman-windowed sinc kernel with the given tap count
// and sub-sample phase resolution. Spec-typical values are 32-64 taps by 32
// phases; smaller tables trade off aliasing suppression for less work per
// step.
func NewKernel(taps, phases int) Kernel {
	k := Kernel{Taps: taps, Phases: phases, rows: make([][]float64, phases)}
	half := float64(taps) / 2
	for p := 0; p < phases; p++ {
		frac := float64(p) / float64(phases)
		row := make([]float64, taps)
		var sum float64
		for t := 0; t < taps; t++ {
			x := float64(t) - half + frac
			row[t] = sinc(x) * blackman(float64(t)+frac, float64(taps))
			sum += row[t]
		}
		if sum != 0 {
			for t := range row {
				row[t] /= sum
			}
		}
		k.rows[p] = row
	}
	return k
}

// Row returns the Taps-long coefficient row for sub-sample phase p.
func (k Kernel) Row(p int) []float64 {
	return k.rows[p]
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// blackman evaluates the Blackman window at position n of a window
// spanning length samples (both may carry a fractional part).
func blackman(n, length float64) float64 {
	a0, a1, a2 := 0.42, 0.5, 0.08
	phase := 2 * math.Pi * n / length
	return a0 - a1*math.Cos(phase) + a2*math.Cos(2*phase)
}
