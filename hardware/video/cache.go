// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package video turns screen-memory writes observed during a frame, plus a
// border-change log, into a composited pixel buffer. It never touches the
// CPU or the bus: the ULA calls Cache.ObservePixel/ObserveAttr as it
// services writes to the screen banks, and Renderer.Render reads the result
// back out at frame end.
package video

import "github.com/zxula/spectrumcore/hardware/videots"

// BitmapBytes is the size of the 256x192 pixel bitmap area of one screen.
const BitmapBytes = 192 * 32

// AttrBytes is the size of the 32x24 attribute area of one screen.
const AttrBytes = 24 * 32

// cellEntry is a value the beam saw this frame, because it was written
// before the beam's own fetch of that cell.
type cellEntry struct {
	value uint8
	valid bool
}

// Cache is the frame-cache described in spec §3: a lazy record of screen
// writes that land "ahead of the beam", backed by a snapshot of whatever
// was in screen memory when the frame began. A cell with no ahead-of-beam
// write this frame renders from the snapshot, not from live memory, since
// live memory may since have been overwritten by a write that happened
// *after* the beam passed — which belongs to a future frame, not this one.
type Cache struct {
	variant videots.Variant

	pixelCache [192][32]cellEntry
	attrCache  [24][32]cellEntry

	pixelSnapshot [BitmapBytes]uint8
	attrSnapshot  [AttrBytes]uint8
}

// NewCache constructs an empty cache for variant.
func NewCache(variant videots.Variant) *Cache {
	return &Cache{variant: variant}
}

// pixelDrawTs is the VideoTs at which the beam fetches the bitmap byte for
// (row, col) this frame.
func (c *Cache) pixelDrawTs(row, col int) videots.VideoTs {
	return videots.VideoTs{Vc: c.variant.VSLPixelsStart + int16(row), Hc: int16(col * 4)}
}

// attrDrawTs is the VideoTs at which the beam fetches the attribute byte
// for (charRow, col) this frame; attributes are cached at 8-row
// granularity, so this is the draw time of that character row's first
// pixel line.
func (c *Cache) attrDrawTs(charRow, col int) videots.VideoTs {
	return videots.VideoTs{Vc: c.variant.VSLPixelsStart + int16(charRow*8), Hc: int16(col * 4)}
}

// ObservePixel records a write of value to the bitmap byte at (row, col),
// happening at ts. The write only affects this frame's image if it occurs
// strictly before the beam would otherwise fetch that byte.
func (c *Cache) ObservePixel(row, col int, value uint8, ts videots.VideoTs) {
	if row < 0 || row >= 192 || col < 0 || col >= 32 {
		return
	}
	if videots.ToFTs(c.variant, ts) < videots.ToFTs(c.variant, c.pixelDrawTs(row, col)) {
		c.pixelCache[row][col] = cellEntry{value: value, valid: true}
	}
}

// ObserveAttr records a write of value to the attribute byte at
// (charRow, col), happening at ts.
func (c *Cache) ObserveAttr(charRow, col int, value uint8, ts videots.VideoTs) {
	if charRow < 0 || charRow >= 24 || col < 0 || col >= 32 {
		return
	}
	if videots.ToFTs(c.variant, ts) < videots.ToFTs(c.variant, c.attrDrawTs(charRow, col)) {
		c.attrCache[charRow][col] = cellEntry{value: value, valid: true}
	}
}

// NextFrame snapshots pixelMem/attrMem (the screen bank's current bitmap
// and attribute areas) as the baseline for the upcoming frame, and clears
// every ahead-of-beam entry recorded for the frame just finished.
func (c *Cache) NextFrame(pixelMem, attrMem []byte) {
	n := copy(c.pixelSnapshot[:], pixelMem)
	for i := n; i < len(c.pixelSnapshot); i++ {
		c.pixelSnapshot[i] = 0
	}
	n = copy(c.attrSnapshot[:], attrMem)
	for i := n; i < len(c.attrSnapshot); i++ {
		c.attrSnapshot[i] = 0
	}

	for r := range c.pixelCache {
		for col := range c.pixelCache[r] {
			c.pixelCache[r][col] = cellEntry{}
		}
	}
	for r := range c.attrCache {
		for col := range c.attrCache[r] {
			c.attrCache[r][col] = cellEntry{}
		}
	}
}

// Pixel returns the bitmap byte the beam sees this frame at (row, col).
func (c *Cache) Pixel(row, col int) uint8 {
	if e := c.pixelCache[row][col]; e.valid {
		return e.value
	}
	return c.pixelSnapshot[row*32+col]
}

// Attr returns the attribute byte the beam sees this frame at
// (charRow, col).
func (c *Cache) Attr(charRow, col int) uint8 {
	if e := c.attrCache[charRow][col]; e.valid {
		return e.value
	}
	return c.attrSnapshot[charRow*32+col]
}
