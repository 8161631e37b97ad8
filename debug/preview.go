package debug

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/anari-go/anari/handle"
)

const previewSize = 64

// dumpPreview writes a downsampled PNG of a ready frame's "color"
// channel next to trace.c, so a trace can be skimmed visually without
// replaying it (spec.md §6.4's trace directory holds "trace.c and any
// spilled array payloads"; the preview is this runtime's supplement to
// that, grounded on the pack's use of golang.org/x/image for pixel
// buffer work). Best-effort: any failure is silently skipped, since a
// missing preview must never affect rendering correctness.
func (d *Device) dumpPreview(fr handle.Handle) {
	if d.traceDir == "" {
		return
	}
	data, elemType, width, height, err := d.inner.MapFrame(fr, "color")
	if err != nil {
		return
	}
	defer d.inner.UnmapFrame(fr, "color")

	img := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	stride := elemStride(elemType)
	if stride == 0 || len(data) < int(width)*int(height)*stride {
		return
	}
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			off := (y*int(width) + x) * stride
			r := clamp8(math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4])))
			g := clamp8(math.Float32frombits(binary.LittleEndian.Uint32(data[off+4 : off+8])))
			b := clamp8(math.Float32frombits(binary.LittleEndian.Uint32(data[off+8 : off+12])))
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}

	thumb := image.NewNRGBA(image.Rect(0, 0, previewSize, previewSize))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), img, img.Bounds(), draw.Over, nil)

	f, err := os.Create(filepath.Join(d.traceDir, fmt.Sprintf("frame_%s.png", fr)))
	if err != nil {
		return
	}
	defer f.Close()
	png.Encode(f, thumb)
}

func clamp8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}

// elemStride returns the per-pixel byte stride of a FLOAT32_VEC4-like
// channel type; 0 for anything the previewer does not understand.
func elemStride(t fmt.Stringer) int {
	if t.String() == "FLOAT32_VEC4" {
		return 16
	}
	return 0
}
