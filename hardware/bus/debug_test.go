// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

//go:build debug

package bus_test

import (
	"bytes"
	"testing"

	"github.com/zxula/spectrumcore/hardware/bus"
)

func TestDebugGraphWritesADotFile(t *testing.T) {
	var c bus.Chain
	c.Attach(&stubDevice{port: 0x1f})

	var buf bytes.Buffer
	c.DebugGraph(&buf)

	if buf.Len() == 0 {
		t.Fatalf("expected DebugGraph to write graph output")
	}
}
