// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package video

import "github.com/zxula/spectrumcore/hardware/videots"

// Palette maps a 4-bit index (bit 3 = bright, bits 0-2 = the 8-colour
// Spectrum index) to a packed 0xAARRGGBB pixel. Index layout matches
// ParseAttribute's ink/paper fields directly: callers look up
// palette[ink] / palette[ink+8] for the bright variant.
type Palette [16]uint32

// DefaultPalette is the standard ZX Spectrum 15-colour set (black has no
// distinct bright variant on real hardware, but the table still carries
// one slot for it so every 4-bit index is valid).
var DefaultPalette = Palette{
	0xFF000000, 0xFF0000CD, 0xFFCD0000, 0xFFCD00CD,
	0xFF00CD00, 0xFF00CDCD, 0xFFCDCD00, 0xFFCDCDCD,
	0xFF000000, 0xFF0000FF, 0xFFFF0000, 0xFFFF00FF,
	0xFF00FF00, 0xFF00FFFF, 0xFFFFFF00, 0xFFFFFFFF,
}

// PixelFormat selects how many bytes Renderer.Render writes per pixel.
type PixelFormat int

const (
	Format8 PixelFormat = iota
	Format16
	Format24
	Format32
)

// BytesPerPixel returns the number of output bytes one pixel occupies.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case Format8:
		return 1
	case Format16:
		return 2
	case Format24:
		return 3
	default:
		return 4
	}
}

// FlashFrames is the number of frames between flash-phase toggles (spec
// §4.F: every 16 frames, the conventional ~1.6 Hz Spectrum flash rate at
// 50 fps), grounded on IntuitionEngine's ULA_FLASH_FRAMES constant.
const FlashFrames = 16

// Config parameterizes one call to Render.
type Config struct {
	Format      PixelFormat
	Palette     Palette
	BorderCells int  // border width in 8-pixel cells on each side
	FlashPhase  bool // current flash-invert state

	// InitialBorder is the border colour in effect at the start of the
	// frame being rendered; BorderLog holds the changes observed since.
	InitialBorder uint8
	BorderLog     []videots.TimestampedByte
}

// Renderer composites one frame's border, pixel/attribute layer and flash
// state into a caller-supplied buffer.
type Renderer struct {
	variant videots.Variant
	cache   *Cache
}

// NewRenderer builds a Renderer reading from cache.
func NewRenderer(variant videots.Variant, cache *Cache) *Renderer {
	return &Renderer{variant: variant, cache: cache}
}

// Width returns the total output width in pixels for cfg's border size.
func (r *Renderer) Width(cfg Config) int {
	return 256 + 2*cfg.BorderCells*8
}

// Height returns the total output height in pixels for cfg's border size.
func (r *Renderer) Height(cfg Config) int {
	return 192 + 2*cfg.BorderCells*8
}

// borderAt returns the border colour in effect at the start of display
// line, reconstructed from cfg.BorderLog. Colour is tracked at scanline
// granularity rather than per horizontal T-state: a mid-line border change
// takes effect from the start of the next rendered line, a simplification
// documented in DESIGN.md rather than the true per-pixel edge.
func borderAt(cfg Config, variant videots.Variant, line int) uint8 {
	border := cfg.InitialBorder
	target := videots.VideoTs{Vc: variant.VSLPixelsStart + int16(line), Hc: 0}
	targetFts := videots.ToFTs(variant, target)
	for _, e := range cfg.BorderLog {
		if videots.ToFTs(variant, e.Ts) <= targetFts {
			border = e.Data
		} else {
			break
		}
	}
	return border
}

// Render paints one full frame (border + 256x192 display area) into buf,
// row-major, pitch bytes per row. buf must be at least
// Height(cfg)*pitch bytes.
func (r *Renderer) Render(buf []byte, pitch int, cfg Config) {
	bpp := cfg.Format.BytesPerPixel()
	borderPx := cfg.BorderCells * 8
	width := r.Width(cfg)
	height := r.Height(cfg)

	writePixel := func(row, col int, colour uint32) {
		off := row*pitch + col*bpp
		if off < 0 || off+bpp > len(buf) {
			return
		}
		switch cfg.Format {
		case Format8:
			buf[off] = uint8(colour)
		case Format16:
			buf[off] = uint8(colour)
			buf[off+1] = uint8(colour >> 8)
		case Format24:
			buf[off] = uint8(colour)
			buf[off+1] = uint8(colour >> 8)
			buf[off+2] = uint8(colour >> 16)
		default:
			buf[off] = uint8(colour)
			buf[off+1] = uint8(colour >> 8)
			buf[off+2] = uint8(colour >> 16)
			buf[off+3] = uint8(colour >> 24)
		}
	}

	for outRow := 0; outRow < height; outRow++ {
		displayLine := outRow - borderPx
		if displayLine < 0 || displayLine >= 192 {
			border := cfg.Palette[borderAtClamped(cfg, r.variant, displayLine)]
			for col := 0; col < width; col++ {
				writePixel(outRow, col, border)
			}
			continue
		}

		border := cfg.Palette[borderAt(cfg, r.variant, displayLine)]
		for col := 0; col < borderPx; col++ {
			writePixel(outRow, col, border)
			writePixel(outRow, borderPx+256+col, border)
		}

		charRow := displayLine / 8
		for cell := 0; cell < 32; cell++ {
			pixelByte := r.cache.Pixel(displayLine, cell)
			attr := r.cache.Attr(charRow, cell)

			ink := attr & 0x07
			paper := (attr >> 3) & 0x07
			bright := attr&0x40 != 0
			flash := attr&0x80 != 0

			fg, bg := ink, paper
			if flash && cfg.FlashPhase {
				fg, bg = bg, fg
			}
			var brightOff uint8
			if bright {
				brightOff = 8
			}
			fgColour := cfg.Palette[brightOff+fg]
			bgColour := cfg.Palette[brightOff+bg]

			baseCol := borderPx + cell*8
			for bit := 0; bit < 8; bit++ {
				colour := bgColour
				if pixelByte&(0x80>>uint(bit)) != 0 {
					colour = fgColour
				}
				writePixel(outRow, baseCol+bit, colour)
			}
		}
	}
}

// borderAtClamped extends borderAt to lines outside the 192-line display
// area (the top/bottom border bands), clamping to the nearest displayed
// line's reconstructed colour.
func borderAtClamped(cfg Config, variant videots.Variant, displayLine int) uint8 {
	clamped := displayLine
	if clamped < 0 {
		clamped = 0
	}
	if clamped >= 192 {
		clamped = 191
	}
	return borderAt(cfg, variant, clamped)
}
