package overlay

import (
	"bytes"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/mirrorcam/mirror/server/configdb"
	"github.com/mirrorcam/mirror/server/storage"
	"github.com/mirrorcam/mirror/server/tracker"
	"github.com/stretchr/testify/require"
)

func grayJPEG(t *testing.T, width, height int) []byte {
	pixels := make([]byte, width*height*3)
	for i := range pixels {
		pixels[i] = 128
	}
	img := cimg.WrapImage(width, height, cimg.PixelFormatRGB, pixels)
	jpg, err := cimg.Compress(img, cimg.MakeCompressParams(cimg.Sampling420, 95, cimg.Flags(0)))
	require.NoError(t, err)
	return jpg
}

func TestComposite(t *testing.T) {
	lib := NewLibrary(logs.NewTestingLog(t), nil)
	asset := lib.Builtin()
	require.Greater(t, asset.Aspect, float32(1))

	base := grayJPEG(t, 320, 240)
	fp := tracker.FlatPlacement{CenterX: 160, CenterY: 120, Width: 120, Height: 48}
	out, err := Composite(base, asset, fp)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	// The dark frames must have changed pixels near the placement center
	img, err := cimg.Decompress(out)
	require.NoError(t, err)
	rgb := img.ToRGB()
	require.Equal(t, 320, rgb.Width)
	require.Equal(t, 240, rgb.Height)
	changed := false
	for y := 100; y < 140 && !changed; y++ {
		line := rgb.Pixels[y*rgb.Stride : y*rgb.Stride+rgb.Width*3]
		for x := 110; x < 210; x++ {
			if line[x*3] < 100 {
				changed = true
				break
			}
		}
	}
	require.True(t, changed)

	// Degenerate placement leaves the frame untouched but still encodes
	out, err = Composite(base, asset, tracker.FlatPlacement{})
	require.NoError(t, err)
	require.NotEmpty(t, out)
}

func TestLibraryFallback(t *testing.T) {
	st, err := storage.NewStorageFS(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)
	lib := NewLibrary(logs.NewTestingLog(t), st)

	// Missing file: fall back to the builtin asset, no error
	asset := lib.Load(&configdb.Asset{
		BaseModel: configdb.BaseModel{ID: 1},
		Name:      "ghost",
		Kind:      configdb.AssetKindFlat,
		FileName:  "assets/ghost.png",
	})
	require.NotNil(t, asset)
	require.Equal(t, lib.Builtin(), asset)
}

func TestLibraryLoad(t *testing.T) {
	st, err := storage.NewStorageFS(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)
	lib := NewLibrary(logs.NewTestingLog(t), st)

	png, err := BuiltinPNG()
	require.NoError(t, err)
	require.NoError(t, storage.WriteFile(st, "assets/real.png", bytes.NewReader(png)))

	rec := &configdb.Asset{
		BaseModel: configdb.BaseModel{ID: 2},
		Name:      "real",
		Kind:      configdb.AssetKindFlat,
		FileName:  "assets/real.png",
	}
	asset := lib.Load(rec)
	require.NotNil(t, asset)
	require.InDelta(t, 512.0/205.0, asset.Aspect, 1e-3)

	// Second load hits the cache and returns the same decoded image
	require.Equal(t, asset, lib.Load(rec))

	lib.Invalidate(rec.ID)
	require.NotNil(t, lib.Load(rec))
}
