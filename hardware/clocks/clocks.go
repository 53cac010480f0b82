// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package clocks defines the constant values that describe the speed of the
// main clock for each supported machine variant, in MHz.
//
// These figures are the well-documented hardware timing values for the
// 48K, 128K and +2A/+3 ranges; they are not derived, only recorded here for
// use by the rest of the hardware packages.
package clocks

const (
	// MHz48 is the master clock speed of the 48K ZX Spectrum.
	MHz48 = 3.5000

	// MHz128 is the master clock speed of the 128K/+2 (grey) and
	// +2A/+3 machines once their slightly longer scanline is accounted
	// for.
	MHz128 = 3.5469
)

const (
	// HTSCount48 is the number of T-states in one scanline on 48K
	// timing.
	HTSCount48 = 224

	// HTSCount128 is the number of T-states in one scanline on 128K
	// and +2A/+3 timing.
	HTSCount128 = 228
)

const (
	// VSLCount48 is the number of scanlines in one frame on 48K
	// timing.
	VSLCount48 = 312

	// VSLCount128 is the number of scanlines in one frame on 128K and
	// +2A/+3 timing.
	VSLCount128 = 311
)

const (
	// FrameTStates48 is the number of T-states in one frame on 48K
	// timing.
	FrameTStates48 = HTSCount48 * VSLCount48

	// FrameTStates128 is the number of T-states in one frame on 128K
	// and +2A/+3 timing.
	FrameTStates128 = HTSCount128 * VSLCount128
)
