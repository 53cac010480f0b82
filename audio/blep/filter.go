// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package blep

// BlepAmpFilter applies a one-pole low-pass to a BandLimited's output
// samples, smoothing the residual high-frequency energy a short kernel
// leaves behind without resorting to a longer, more expensive table.
type BlepAmpFilter struct {
	coeff float64 // smoothing factor in (0, 1]; 1 disables filtering
	state []float64
}

// NewBlepAmpFilter builds a filter for the given channel count. coeff is
// the one-pole smoothing factor: lower values filter more aggressively.
func NewBlepAmpFilter(channels int, coeff float64) *BlepAmpFilter {
	return &BlepAmpFilter{coeff: coeff, state: make([]float64, channels)}
}

// Apply filters samples in place for channel, carrying the filter's state
// across calls (and so across frame boundaries, as long as the caller
// keeps calling it once per produced frame in order).
func (f *BlepAmpFilter) Apply(channel int, samples []float64) {
	y := f.state[channel]
	for i, x := range samples {
		y += f.coeff * (x - y)
		samples[i] = y
	}
	f.state[channel] = y
}
