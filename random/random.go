// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package random fills freshly allocated RAM and other "don't care" state
// with plausible noise rather than all-zeroes, the way a real machine's
// power-on state depends on whatever was last on the data bus. It is also
// used to reproduce that noise identically when replaying a recorded
// session: setting ZeroSeed drops the timestamp-derived entropy and leaves
// the sequence a pure function of the index requested.
package random

import (
	"time"

	"github.com/zxula/spectrumcore/hardware/videots"
)

// CoordSource supplies the current video timestamp, used as an entropy
// source so that cold-boot RAM noise differs between runs that reach
// power-on at different points in the frame.
type CoordSource interface {
	GetCoords() videots.VideoTs
}

// Random produces pseudo-random bytes seeded from a CoordSource's current
// position plus wall-clock time. Setting ZeroSeed disables both, so that
// Rewindable(n) depends only on n; this is used by tests and by rewind
// playback, where the same index must always produce the same byte.
type Random struct {
	tv       CoordSource
	ZeroSeed bool
}

// NewRandom returns a Random that draws entropy from tv's current
// coordinates.
func NewRandom(tv CoordSource) *Random {
	return &Random{tv: tv}
}

func (r *Random) seed() uint64 {
	if r.ZeroSeed {
		return 0
	}

	ts := r.tv.GetCoords()
	s := uint64(uint16(ts.Vc))<<16 | uint64(uint16(ts.Hc))
	return s ^ uint64(time.Now().UnixNano())
}

// Rewindable returns a pseudo-random byte for index n. With ZeroSeed set,
// calling Rewindable(n) at any time, on any Random instance, returns the
// same value for the same n.
func (r *Random) Rewindable(n int) uint8 {
	s := r.seed() + uint64(n)

	// splitmix64 finalizer: cheap, well distributed, no need to carry
	// generator state between calls.
	s ^= s >> 33
	s *= 0xff51afd7ed558ccd
	s ^= s >> 33
	s *= 0xc4ceb9fe1a85ec53
	s ^= s >> 33

	return uint8(s)
}
