// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package ay

import "math"

// Table maps a 4-bit channel/envelope level to a linear 16-bit amplitude.
// The chip is silent at level 0 and full-scale at level 15; everything in
// between follows a logarithmic taper, since the real chip's DAC steps are
// decibel-spaced rather than linear.
type Table [16]uint16

func buildTable(dbPerStep float64) Table {
	var t Table
	for i := 1; i < 16; i++ {
		db := float64(i-15) * dbPerStep
		t[i] = uint16(math.Round(0xFFFF * math.Pow(10, db/20)))
	}
	return t
}

// StandardTable is the commonly measured AY-3-8910 taper, roughly 3dB per
// step.
var StandardTable = buildTable(3.0)

// FuseTable is the shallower taper Fuse's AY core uses, audibly louder at
// the middle volume levels than StandardTable.
var FuseTable = buildTable(1.5)
