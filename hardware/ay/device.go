// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package ay

import "github.com/zxula/spectrumcore/hardware/videots"

// Device decodes the two AY I/O ports onto a Chip: OUT to 0xFFFD selects a
// register, OUT to 0xBFFD writes it, IN from 0xFFFD reads the selected
// register back. Only bit 15 and bit 14 of the port are checked (both set
// for 0xFFFD, A15 set/A14 clear for 0xBFFD), matching the partial decode
// every real 128K/+2/+3 board uses.
type Device struct {
	chip     *Chip
	selected uint8
}

// NewDevice wraps chip behind the standard 128K port decode.
func NewDevice(chip *Chip) *Device {
	return &Device{chip: chip}
}

const (
	ayPortSelectMask = 0xC000
	ayPortSelect     = 0xC000 // A15=1, A14=1 -> 0xFFFD (select/read)
	ayPortData       = 0x8000 // A15=1, A14=0 -> 0xBFFD (data write)
)

func (d *Device) ReadIO(port uint16, ts videots.VideoTs) (uint8, uint8, bool) {
	if port&ayPortSelectMask != ayPortSelect {
		return 0, 0, false
	}
	return d.chip.ReadRegister(d.selected), 0, true
}

func (d *Device) WriteIO(port uint16, data uint8, ts videots.VideoTs) (uint8, bool) {
	switch port & ayPortSelectMask {
	case ayPortSelect:
		d.selected = data & 0x0F
		return 0, true
	case ayPortData:
		d.chip.WriteRegister(d.selected, data)
		return 0, true
	default:
		return 0, false
	}
}

func (d *Device) Reset(ts videots.VideoTs) {
	d.selected = 0
	d.chip.Reset()
}

func (d *Device) NextFrame(ts videots.VideoTs) {}
