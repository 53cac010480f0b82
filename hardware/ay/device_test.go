// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package ay_test

import (
	"testing"

	"github.com/zxula/spectrumcore/hardware/ay"
	"github.com/zxula/spectrumcore/hardware/videots"
	"github.com/zxula/spectrumcore/test"
)

func TestDeviceSelectThenWriteThenReadBack(t *testing.T) {
	d := ay.NewDevice(ay.New(ay.StandardTable))
	ts := videots.VideoTs{}

	waits, claimed := d.WriteIO(0xFFFD, 8, ts) // select register 8 (channel A volume)
	test.ExpectEquality(t, claimed, true)
	test.ExpectEquality(t, waits, uint8(0))

	_, claimed = d.WriteIO(0xBFFD, 0x0A, ts)
	test.ExpectEquality(t, claimed, true)

	got, _, claimed := d.ReadIO(0xFFFD, ts)
	test.ExpectEquality(t, claimed, true)
	test.ExpectEquality(t, got, uint8(0x0A))
}

func TestDeviceIgnoresUnrelatedPort(t *testing.T) {
	d := ay.NewDevice(ay.New(ay.StandardTable))
	ts := videots.VideoTs{}

	_, _, claimed := d.ReadIO(0x001F, ts)
	test.ExpectEquality(t, claimed, false)

	_, claimed = d.WriteIO(0x001F, 0, ts)
	test.ExpectEquality(t, claimed, false)
}

func TestDeviceResetClearsSelectedRegisterAndChip(t *testing.T) {
	d := ay.NewDevice(ay.New(ay.StandardTable))
	ts := videots.VideoTs{}

	d.WriteIO(0xFFFD, 0, ts)
	d.WriteIO(0xBFFD, 0x42, ts)
	d.Reset(ts)

	got, _, _ := d.ReadIO(0xFFFD, ts)
	test.ExpectEquality(t, got, uint8(0))
}
