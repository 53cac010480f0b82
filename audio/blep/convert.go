// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package blep

// Sample is any host output representation BandLimited can emit samples
// as. Each conversion assumes the internal float64 level is normalized to
// [-1, 1].
type Sample interface {
	~float32 | ~int16 | ~uint16
}

// SumAs copies channel's absolute samples for this frame into out,
// converting each through conv. T is the caller's chosen host sample
// type — float32 for a raw mix buffer, int16/uint16 for a PCM device or
// WAV writer.
func SumAs[T Sample](b *BandLimited, channel int, out []T, conv func(float64) T) {
	n := len(out)
	if n > b.frameLen {
		n = b.frameLen
	}
	level := b.level[channel]
	buf := b.buf[channel]
	for i := 0; i < n; i++ {
		level += buf[i]
		out[i] = conv(level)
	}
}

// ToFloat32 is the identity conversion, clamped to [-1, 1].
func ToFloat32(v float64) float32 {
	return float32(clamp(v, -1, 1))
}

// ToInt16 maps a normalized [-1, 1] level to the full int16 range.
func ToInt16(v float64) int16 {
	return int16(clamp(v, -1, 1) * 32767)
}

// ToUint16 maps a normalized [-1, 1] level to an unsigned PCM range
// centred on 32768, the representation github.com/go-audio/audio's
// IntBuffer expects for 16-bit unsigned sources.
func ToUint16(v float64) uint16 {
	return uint16(clamp(v, -1, 1)*32767 + 32768)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
