// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package videots encodes T-state positions within a video frame as
// (scanline, horizontal-count) pairs, and converts between that
// representation and a linear T-state count. Every other hardware package
// advances time exclusively through a VideoTs value; nothing here reaches
// for a wall-clock or a free-running counter.
package videots

// VideoTs is a position within a video frame: vc is the scanline index, hc
// the horizontal T-state within that scanline. hc can run slightly negative
// so that the interrupt pulse lands on the canonical (0, 0).
type VideoTs struct {
	Vc int16
	Hc int16
}

// TimestampedByte pairs a VideoTs with a small attached datum: a border
// colour change, an EAR/MIC level, an AY register write. Several of the
// bus-facing logs (border changes, ear-in samples) are ordered slices of
// this type.
type TimestampedByte struct {
	Ts   VideoTs
	Data uint8
}

// Variant carries the constants that define one machine's video timing.
// HTSRangeStart/HTSRangeEnd bound hc (end exclusive); VSLPixelsStart/End
// bound the scanlines the renderer treats as the visible 192-line display
// area (end exclusive); FrameTStates is HTSCount*VSLCount, cached for
// convenience.
type Variant struct {
	Name string

	HTSCount int16
	VSLCount int16

	HTSRangeStart int16
	HTSRangeEnd   int16

	VSLPixelsStart int16
	VSLPixelsEnd   int16

	FrameTStates int32
}

// Width returns the number of T-states in one scanline, i.e. the width of
// HTSRange.
func (v Variant) Width() int16 {
	return v.HTSRangeEnd - v.HTSRangeStart
}

// Variant48k is the timing of the original 48K ZX Spectrum.
var Variant48k = Variant{
	Name:           "48k",
	HTSCount:       224,
	VSLCount:       312,
	HTSRangeStart:  -69,
	HTSRangeEnd:    155,
	VSLPixelsStart: 64,
	VSLPixelsEnd:   256,
	FrameTStates:   224 * 312,
}

// Variant128k is the timing shared by the 128K/+2 (grey case) and the
// +2A/+3 range; the extra T-states per scanline come from the additional
// contended memory-refresh cycle those machines insert.
var Variant128k = Variant{
	Name:           "128k",
	HTSCount:       228,
	VSLCount:       311,
	HTSRangeStart:  -69,
	HTSRangeEnd:    159,
	VSLPixelsStart: 63,
	VSLPixelsEnd:   255,
	FrameTStates:   228 * 311,
}

// Normalize carries any excess out of hc into vc, then wraps vc into
// [0, VSLCount). It is the canonical form every ULA step must leave its
// VideoTs in.
func Normalize(v Variant, ts VideoTs) VideoTs {
	hc := int32(ts.Hc)
	vc := int32(ts.Vc)
	width := int32(v.Width())

	for hc < int32(v.HTSRangeStart) {
		hc += width
		vc--
	}
	for hc >= int32(v.HTSRangeEnd) {
		hc -= width
		vc++
	}

	vsl := int32(v.VSLCount)
	vc %= vsl
	if vc < 0 {
		vc += vsl
	}

	return VideoTs{Vc: int16(vc), Hc: int16(hc)}
}

// ToFTs converts a (vc, hc) pair to a linear T-state count relative to the
// start of the frame. It does not normalize ts first.
func ToFTs(v Variant, ts VideoTs) int32 {
	return int32(ts.Vc)*int32(v.HTSCount) + int32(ts.Hc) - int32(v.HTSRangeStart)
}

// FromFTs is the inverse of ToFTs. fts is wrapped into a single frame
// before conversion, so the result is always normalized.
func FromFTs(v Variant, fts int32) VideoTs {
	frameLen := v.FrameTStates
	fts %= frameLen
	if fts < 0 {
		fts += frameLen
	}

	vc := fts / int32(v.HTSCount)
	hc := fts%int32(v.HTSCount) + int32(v.HTSRangeStart)

	return VideoTs{Vc: int16(vc), Hc: int16(hc)}
}

// Add advances ts by tstates T-states, wrapping on frame end.
func Add(v Variant, ts VideoTs, tstates int32) VideoTs {
	return FromFTs(v, ToFTs(v, ts)+tstates)
}

// Diff returns a-b as a T-state count, within a single frame's modulus.
func Diff(v Variant, a, b VideoTs) int32 {
	return ToFTs(v, a) - ToFTs(v, b)
}

// Compare orders two VideoTs values by (Vc, Hc), returning -1, 0 or 1. It
// does not account for frame wrap-around; callers comparing timestamps
// across a frame boundary should convert to linear T-states first.
func Compare(a, b VideoTs) int {
	switch {
	case a.Vc < b.Vc:
		return -1
	case a.Vc > b.Vc:
		return 1
	case a.Hc < b.Hc:
		return -1
	case a.Hc > b.Hc:
		return 1
	default:
		return 0
	}
}

// InPixelArea reports whether ts falls within the variant's visible
// 192-line display area, the precondition for contention and for the
// frame cache to treat a write as "ahead of the beam".
func InPixelArea(v Variant, ts VideoTs) bool {
	return ts.Vc >= v.VSLPixelsStart && ts.Vc < v.VSLPixelsEnd
}
