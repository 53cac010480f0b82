// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package blep

// BlepStereo wraps a 2-channel BandLimited (0 = left, 1 = right) and adds a
// third, "mono" source that mixes into both at a configurable balance.
type BlepStereo struct {
	bl      *BandLimited
	balance float64 // 0 = all mono energy on the left, 1 = all on the right
}

// NewBlepStereo wraps bl (which must have exactly 2 channels) with a mono
// mixdown at the given balance; 0.5 splits a mono source evenly.
func NewBlepStereo(bl *BandLimited, balance float64) *BlepStereo {
	return &BlepStereo{bl: bl, balance: balance}
}

// AddStep records a step directly on the left (0) or right (1) channel.
func (s *BlepStereo) AddStep(channel int, tau float64, delta float64) {
	s.bl.AddStep(channel, tau, delta)
}

// AddMonoStep records a step on the shared centre source, splitting its
// amplitude across both channels per the configured balance.
func (s *BlepStereo) AddMonoStep(tau float64, delta float64) {
	s.bl.AddStep(0, tau, delta*(1-s.balance))
	s.bl.AddStep(1, tau, delta*s.balance)
}

func (s *BlepStereo) EndFrame(frameTime float64) int { return s.bl.EndFrame(frameTime) }
func (s *BlepStereo) NextFrame()                     { s.bl.NextFrame() }
func (s *BlepStereo) SumIter(channel int) []float64  { return s.bl.SumIter(channel) }
