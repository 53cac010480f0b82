// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package bus implements the ordered chain of I/O-port-decoding devices
// that sits between the CPU and the ULA: joysticks, the Kempston mouse,
// the AY sound chip's register ports. Each device gets a turn to claim a
// port before the ULA falls back to its own decoder and, failing that, the
// floating bus.
package bus

import "github.com/zxula/spectrumcore/hardware/videots"

// Device is one bus-attached peripheral. A device that doesn't recognise a
// port returns claimed=false and the chain tries the next device.
type Device interface {
	// ReadIO returns the byte the device drives onto the bus for port, if
	// it claims that port at ts.
	ReadIO(port uint16, ts videots.VideoTs) (data uint8, waitStates uint8, claimed bool)

	// WriteIO delivers an OUT to the device, if it claims port at ts.
	WriteIO(port uint16, data uint8, ts videots.VideoTs) (waitStates uint8, claimed bool)

	// Reset notifies the device of a machine reset.
	Reset(ts videots.VideoTs)

	// NextFrame notifies the device that the frame has rolled over.
	NextFrame(ts videots.VideoTs)
}

// Chain is a linear, ordered sequence of Devices. The first attached device
// is consulted first; a device that claims a port short-circuits the rest
// of the chain.
type Chain struct {
	devices []Device
}

// Attach appends d to the end of the chain.
func (c *Chain) Attach(d Device) {
	c.devices = append(c.devices, d)
}

// ReadIO consults each device in attachment order, returning the first
// claimed result. claimed is false if no device recognises port.
func (c *Chain) ReadIO(port uint16, ts videots.VideoTs) (data uint8, waitStates uint8, claimed bool) {
	for _, d := range c.devices {
		if data, waitStates, claimed = d.ReadIO(port, ts); claimed {
			return data, waitStates, true
		}
	}
	return 0, 0, false
}

// WriteIO consults each device in attachment order, returning the first
// claimed result.
func (c *Chain) WriteIO(port uint16, data uint8, ts videots.VideoTs) (waitStates uint8, claimed bool) {
	for _, d := range c.devices {
		if waitStates, claimed = d.WriteIO(port, data, ts); claimed {
			return waitStates, true
		}
	}
	return 0, false
}

// Reset forwards a machine reset to every device in the chain.
func (c *Chain) Reset(ts videots.VideoTs) {
	for _, d := range c.devices {
		d.Reset(ts)
	}
}

// NextFrame forwards a frame rollover to every device in the chain.
func (c *Chain) NextFrame(ts videots.VideoTs) {
	for _, d := range c.devices {
		d.NextFrame(ts)
	}
}
