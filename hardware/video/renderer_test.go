// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package video_test

import (
	"testing"

	"github.com/zxula/spectrumcore/hardware/video"
	"github.com/zxula/spectrumcore/hardware/videots"
	"github.com/zxula/spectrumcore/test"
)

func TestRenderFillsBorder(t *testing.T) {
	c := video.NewCache(videots.Variant48k)
	c.NextFrame(make([]byte, video.BitmapBytes), make([]byte, video.AttrBytes))
	r := video.NewRenderer(videots.Variant48k, c)

	cfg := video.Config{
		Format:        video.Format32,
		Palette:       video.DefaultPalette,
		BorderCells:   4,
		InitialBorder: 2,
	}
	width := r.Width(cfg)
	height := r.Height(cfg)
	pitch := width * cfg.Format.BytesPerPixel()
	buf := make([]byte, pitch*height)

	r.Render(buf, pitch, cfg)

	// top-left corner is border
	got := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	test.ExpectEquality(t, got, video.DefaultPalette[2])
}

func TestRenderPixelCell(t *testing.T) {
	c := video.NewCache(videots.Variant48k)
	mem := make([]byte, video.BitmapBytes)
	mem[0] = 0x80 // top-left pixel set
	attr := make([]byte, video.AttrBytes)
	attr[0] = 0x07 // ink=7 (white), paper=0 (black), no bright, no flash
	c.NextFrame(mem, attr)

	r := video.NewRenderer(videots.Variant48k, c)
	cfg := video.Config{
		Format:      video.Format32,
		Palette:     video.DefaultPalette,
		BorderCells: 0,
	}
	width := r.Width(cfg)
	height := r.Height(cfg)
	pitch := width * cfg.Format.BytesPerPixel()
	buf := make([]byte, pitch*height)

	r.Render(buf, pitch, cfg)

	got := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	test.ExpectEquality(t, got, video.DefaultPalette[7])
}

func TestFlashInvertsInkAndPaper(t *testing.T) {
	c := video.NewCache(videots.Variant48k)
	mem := make([]byte, video.BitmapBytes)
	mem[0] = 0x80
	attr := make([]byte, video.AttrBytes)
	attr[0] = 0x87 // ink=7, paper=0, flash set
	c.NextFrame(mem, attr)

	r := video.NewRenderer(videots.Variant48k, c)
	cfg := video.Config{
		Format:      video.Format32,
		Palette:     video.DefaultPalette,
		BorderCells: 0,
		FlashPhase:  true,
	}
	pitch := r.Width(cfg) * cfg.Format.BytesPerPixel()
	buf := make([]byte, pitch*r.Height(cfg))
	r.Render(buf, pitch, cfg)

	got := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	test.ExpectEquality(t, got, video.DefaultPalette[0])
}
