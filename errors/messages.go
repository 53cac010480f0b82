// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package errors

// error messages, grouped by the component that raises them (spec §7)
const (
	// memory model
	InvalidBank          = "memory error: no such bank (%v)"
	InvalidPage          = "memory error: no such logical page (%v)"
	UnsupportedMapping   = "memory error: unsupported mapping (%v)"
	ResourceUnavailable  = "memory error: resource unavailable on this variant (%v)"
	ExROMAlreadyMapped   = "memory error: ex-rom already mapped onto page %d"
	ExROMNotMapped       = "memory error: no ex-rom mapped onto page %d"

	// contention
	ContentionError = "contention error: %v"

	// bus / ULA
	UnrecognisedPort = "bus error: unrecognised port (%#04x)"
	PagingLatched    = "ula error: paging is latched disabled"
	FloatingBus      = "ula error: floating bus read outside of screen fetch window (%v)"

	// snapshot / tape formats
	FormatMalformed   = "format error: malformed data (%v)"
	UnsupportedFormat = "format error: unsupported for this machine variant (%v)"
	ChecksumMismatch  = "format error: checksum mismatch (want %#02x, got %#02x)"

	// host collaborators
	HostIo = "host io error: %v"

	// CPU execution
	CancelledLimit = "cpu error: execution cancelled at t-state limit (%v)"

	// AY-3-891x
	InvalidAYRegister = "ay error: no such register (%v)"

	// BLEP
	InvalidSampleRate = "blep error: unsupported sample rate (%v)"

	// instant tape loader
	TapeLoaderNotArmed = "tape loader: rom state does not match a loader trap"
	TapeExhausted      = "tape loader: reader exhausted before block complete"

	// prefs
	Prefs         = "prefs: %v"
	PrefsNoFile   = "prefs: no file (%s)"
	PrefsNotValid = "prefs: not a valid prefs file (%s)"
)
