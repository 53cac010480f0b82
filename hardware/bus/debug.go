// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

//go:build debug

package bus

import (
	"io"

	"github.com/bradleyjkemp/memviz"
)

// DebugGraph renders the attached device chain as a graphviz dot file,
// written to w. It exists for developers inspecting which devices a chain
// ended up with and in what order, not for anything the emulator core
// touches at runtime, which is why it's only compiled in under the debug
// build tag.
func (c *Chain) DebugGraph(w io.Writer) {
	memviz.Map(w, c)
}
