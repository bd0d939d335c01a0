package overlay

import (
	"fmt"
	"image"

	"github.com/bmharper/cimg/v2"
	"github.com/fogleman/gg"
	"github.com/mirrorcam/mirror/server/tracker"
)

// Compositor burns an overlay asset into a camera frame at its tracked
// placement, producing the downloadable snapshot. JPEG codec work goes
// through cimg; the transform and blend go through gg.

const snapshotJPEGQuality = 95

// Composite draws the asset onto baseJPEG at the given flat placement and
// returns a new JPEG.
func Composite(baseJPEG []byte, asset *LoadedAsset, fp tracker.FlatPlacement) ([]byte, error) {
	base, err := cimg.Decompress(baseJPEG)
	if err != nil {
		return nil, fmt.Errorf("Failed to decode capture frame: %w", err)
	}
	rgba := rgbToRGBA(base.ToRGB())

	dc := gg.NewContextForRGBA(rgba)
	drawAsset(dc, asset, fp)

	out := rgbaToCimg(rgba)
	return cimg.Compress(out, cimg.MakeCompressParams(cimg.Sampling420, snapshotJPEGQuality, cimg.Flags(0)))
}

func drawAsset(dc *gg.Context, asset *LoadedAsset, fp tracker.FlatPlacement) {
	if fp.Width <= 0 || fp.Height <= 0 {
		return
	}
	bounds := asset.Image.Bounds()
	sx := float64(fp.Width) / float64(bounds.Dx())
	sy := float64(fp.Height) / float64(bounds.Dy())

	dc.Push()
	dc.Translate(float64(fp.CenterX), float64(fp.CenterY))
	if fp.Rotation != 0 {
		dc.Rotate(float64(fp.Rotation))
	}
	dc.Scale(sx, sy)
	dc.DrawImageAnchored(asset.Image, 0, 0, 0.5, 0.5)
	dc.Pop()
}

func rgbToRGBA(src *cimg.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		srcLine := src.Pixels[y*src.Stride : y*src.Stride+src.Width*3]
		dstLine := dst.Pix[y*dst.Stride : y*dst.Stride+src.Width*4]
		for x := 0; x < src.Width; x++ {
			dstLine[x*4] = srcLine[x*3]
			dstLine[x*4+1] = srcLine[x*3+1]
			dstLine[x*4+2] = srcLine[x*3+2]
			dstLine[x*4+3] = 255
		}
	}
	return dst
}

func rgbaToCimg(src *image.RGBA) *cimg.Image {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	pixels := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		srcLine := src.Pix[y*src.Stride : y*src.Stride+w*4]
		dstLine := pixels[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			dstLine[x*3] = srcLine[x*4]
			dstLine[x*3+1] = srcLine[x*4+1]
			dstLine[x*3+2] = srcLine[x*4+2]
		}
	}
	return cimg.WrapImage(w, h, cimg.PixelFormatRGB, pixels)
}
