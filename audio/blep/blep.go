// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package blep

import "math"

// Rate converts a CPU T-state timestamp into a fractional host-sample
// position.
type Rate struct {
	SampleRate float64
	ClockHz    float64
}

// NewRate builds a Rate for the given host sample rate and machine clock.
func NewRate(sampleRate, clockHz uint32) Rate {
	return Rate{SampleRate: float64(sampleRate), ClockHz: float64(clockHz)}
}

// AtTimestamp returns the fractional sample position ts T-states after the
// start of the current frame.
func (r Rate) AtTimestamp(ts int) float64 {
	return float64(ts) * r.SampleRate / r.ClockHz
}

// margin is how many extra samples of buffer sit past the nominal
// frame length, wide enough to absorb a step landing right at the frame's
// end spilling its kernel tail into the next frame.
func (k Kernel) margin() int {
	return k.Taps/2 + 1
}

// BandLimited accumulates per-channel amplitude steps for one frame and
// resamples them to absolute output samples. Deltas are held internally as
// float64 regardless of the eventual output sample type; SumAs converts
// at read time.
type BandLimited struct {
	kernel   Kernel
	rate     Rate
	channels int

	buf      [][]float64 // delta buffer, len = frameCap per channel
	level    []float64   // running absolute level carried across frames
	frameLen int         // whole samples produced by the most recent EndFrame
	frameCap int         // allocated buffer length (frameLen + margin, at least)
}

// New returns a BandLimited synth for the given number of channels, using
// kernel for step interpolation.
func New(channels int, kernel Kernel) *BandLimited {
	b := &BandLimited{kernel: kernel, channels: channels}
	b.buf = make([][]float64, channels)
	b.level = make([]float64, channels)
	return b
}

// EnsureFrameTime grows the internal buffers so a frame of frameTime
// samples (plus one step's worth of kernel spillover, sampleStep) fits
// without reallocating mid-frame.
func (b *BandLimited) EnsureFrameTime(frameTime, sampleStep float64) {
	need := int(math.Ceil(frameTime)) + b.kernel.margin() + int(math.Ceil(sampleStep)) + 1
	if need <= b.frameCap {
		return
	}
	for ch := range b.buf {
		grown := make([]float64, need)
		copy(grown, b.buf[ch])
		b.buf[ch] = grown
	}
	b.frameCap = need
}

// AddStep records an amplitude step of delta at fractional sample position
// tau on channel, spreading it across the kernel's taps.
func (b *BandLimited) AddStep(channel int, tau float64, delta float64) {
	if channel < 0 || channel >= b.channels || delta == 0 {
		return
	}
	idx := int(math.Floor(tau))
	frac := tau - float64(idx)
	phase := int(frac * float64(b.kernel.Phases))
	if phase >= b.kernel.Phases {
		phase = b.kernel.Phases - 1
	}
	row := b.kernel.Row(phase)
	half := b.kernel.Taps / 2
	buf := b.buf[channel]
	for t := 0; t < b.kernel.Taps; t++ {
		pos := idx + t - half
		if pos < 0 || pos >= len(buf) {
			continue
		}
		buf[pos] += delta * row[t]
	}
}

// EndFrame closes out the frame at frameTime (a fractional sample count;
// the whole part is the number of samples produced) and returns that
// sample count.
func (b *BandLimited) EndFrame(frameTime float64) int {
	b.frameLen = int(math.Floor(frameTime))
	return b.frameLen
}

// SumIter returns the absolute sample values produced for channel this
// frame: the running level carried from prior frames, plus the cumulative
// sum of this frame's delta buffer.
func (b *BandLimited) SumIter(channel int) []float64 {
	out := make([]float64, b.frameLen)
	SumInto(b, channel, out)
	return out
}

// SumInto writes channel's absolute samples for this frame into out
// (len(out) samples are produced; out must be at least b.frameLen long to
// receive the whole frame).
func SumInto(b *BandLimited, channel int, out []float64) {
	level := b.level[channel]
	buf := b.buf[channel]
	n := len(out)
	if n > b.frameLen {
		n = b.frameLen
	}
	for i := 0; i < n; i++ {
		level += buf[i]
		out[i] = level
	}
}

// NextFrame advances the running level past this frame's samples, shifts
// the unconsumed kernel tail (samples beyond frameLen that still hold
// spillover from late steps) down to the start of the buffer, and clears
// the rest ready for the next frame's steps.
func (b *BandLimited) NextFrame() {
	for ch := 0; ch < b.channels; ch++ {
		buf := b.buf[ch]
		level := b.level[ch]
		for i := 0; i < b.frameLen && i < len(buf); i++ {
			level += buf[i]
		}
		b.level[ch] = level

		tail := len(buf) - b.frameLen
		if tail > 0 && b.frameLen <= len(buf) {
			copy(buf, buf[b.frameLen:])
			for i := tail; i < len(buf); i++ {
				buf[i] = 0
			}
		} else {
			for i := range buf {
				buf[i] = 0
			}
		}
	}
}

// Reset clears all accumulated state, including the carried running level
// (used when the host seeks or the machine resets, where carrying forward
// the previous level would produce an audible discontinuity anyway).
func (b *BandLimited) Reset() {
	for ch := range b.buf {
		for i := range b.buf[ch] {
			b.buf[ch][i] = 0
		}
		b.level[ch] = 0
	}
	b.frameLen = 0
}
