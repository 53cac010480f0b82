// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package z80snap

// Compress run-length encodes data using the Z80 snapshot format's scheme:
// a run of more than four identical bytes, or of more than one 0xED byte,
// is replaced by the four-byte marker 0xED 0xED count byte. Everything
// else is copied through unchanged, with a literal 0xED that isn't part of
// a qualifying run left alone; the byte that follows such a lone 0xED is
// always copied through as well, never counted into a run.
func Compress(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}

	out := make([]byte, 0, len(data))
	index := 0
	prev := data[0]
	count := 1

	flush := func(pos int) {
		repStart := pos - count
		run := count
		// the byte right after a lone literal 0xED is always copied
		// through, so the pair can't be read back as a marker
		if repStart > index && data[repStart-1] == 0xED {
			repStart++
			run--
		}
		if run > 4 || (prev == 0xED && run > 1) {
			if repStart > index {
				out = append(out, data[index:repStart]...)
			}
			out = append(out, 0xED, 0xED, byte(run), prev)
			index = pos
		}
	}

	for pos := 1; pos < len(data); pos++ {
		ch := data[pos]
		if ch == prev && count < 0xFF {
			count++
			continue
		}
		flush(pos)
		prev = ch
		count = 1
	}
	flush(len(data))

	if index < len(data) {
		out = append(out, data[index:]...)
	}
	return out
}

// Decompress reverses Compress, expanding every 0xED 0xED count byte
// marker back into count repetitions of byte. A marker truncated by the
// end of the stream — fewer than two, three or four bytes remaining after
// the first 0xED — is discarded rather than treated as an error, matching
// the tolerance real Z80 snapshot readers extend to a block whose trailing
// END marker overlaps what would otherwise be a repeat marker.
func Decompress(data []byte) []byte {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		if data[i] != 0xED || i+1 >= len(data) || data[i+1] != 0xED {
			out = append(out, data[i])
			i++
			continue
		}
		if i+3 >= len(data) {
			break
		}
		count := int(data[i+2])
		fill := data[i+3]
		for n := 0; n < count; n++ {
			out = append(out, fill)
		}
		i += 4
	}
	return out
}
