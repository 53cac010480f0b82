// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package bus

import "github.com/zxula/spectrumcore/hardware/videots"

// KempstonJoystick decodes the Kempston joystick interface: any port with
// address bit A5 clear returns the direction/fire byte, active-high,
// 000FUDLR (bit4 fire, bit3 up, bit2 down, bit1 left, bit0 right).
type KempstonJoystick struct {
	data uint8
}

const (
	kempstonRight = 1 << 0
	kempstonLeft  = 1 << 1
	kempstonDown  = 1 << 2
	kempstonUp    = 1 << 3
	kempstonFire  = 1 << 4
)

func (k *KempstonJoystick) SetDirections(up, down, left, right bool) {
	k.data &^= kempstonUp | kempstonDown | kempstonLeft | kempstonRight
	if up {
		k.data |= kempstonUp
	}
	if down {
		k.data |= kempstonDown
	}
	if left {
		k.data |= kempstonLeft
	}
	if right {
		k.data |= kempstonRight
	}
}

func (k *KempstonJoystick) SetFire(pressed bool) {
	if pressed {
		k.data |= kempstonFire
	} else {
		k.data &^= kempstonFire
	}
}

func (k *KempstonJoystick) ReadIO(port uint16, ts videots.VideoTs) (uint8, uint8, bool) {
	if port&0x0020 != 0 {
		return 0, 0, false
	}
	return k.data, 0, true
}

func (k *KempstonJoystick) WriteIO(port uint16, data uint8, ts videots.VideoTs) (uint8, bool) {
	return 0, false
}

func (k *KempstonJoystick) Reset(ts videots.VideoTs) {
	k.data = 0
}

func (k *KempstonJoystick) NextFrame(ts videots.VideoTs) {}

// KempstonMouse decodes the Kempston mouse interface: A8 clear reads the
// button byte (bit0 left, bit1 right, active-low); A8 set and A10 clear
// reads the X position; A8 and A10 both set reads the Y position.
type KempstonMouse struct {
	x, y    uint8
	buttons uint8
}

const (
	mouseLeftMask  = 1 << 0
	mouseRightMask = 1 << 1
)

// NewKempstonMouse returns a mouse device with both buttons released.
func NewKempstonMouse() *KempstonMouse {
	return &KempstonMouse{buttons: 0xFF, x: 0xFF, y: 0xFF}
}

func (m *KempstonMouse) SetButtons(left, right bool) {
	m.buttons = 0xFF
	if left {
		m.buttons &^= mouseLeftMask
	}
	if right {
		m.buttons &^= mouseRightMask
	}
}

// Move applies a relative movement, wrapping around at the byte boundary.
func (m *KempstonMouse) Move(dx, dy int8) {
	m.x = uint8(int8(m.x) + dx)
	m.y = uint8(int8(m.y) + dy)
}

func (m *KempstonMouse) ReadIO(port uint16, ts videots.VideoTs) (uint8, uint8, bool) {
	const a8 = 0x0100
	const a10 = 0x0400

	if port&a8 == 0 {
		return m.buttons, 0, true
	}
	if port&a10 == 0 {
		return m.x, 0, true
	}
	return m.y, 0, true
}

func (m *KempstonMouse) WriteIO(port uint16, data uint8, ts videots.VideoTs) (uint8, bool) {
	return 0, false
}

func (m *KempstonMouse) Reset(ts videots.VideoTs) {
	m.x, m.y, m.buttons = 0xFF, 0xFF, 0xFF
}

func (m *KempstonMouse) NextFrame(ts videots.VideoTs) {}
