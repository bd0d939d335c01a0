package overlay

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/cyclopcam/logs"
	"github.com/fogleman/gg"
	"github.com/mirrorcam/mirror/server/configdb"
	"github.com/mirrorcam/mirror/server/storage"
)

// BuiltinAssetFileName is the storage key we seed the fallback asset under
const BuiltinAssetFileName = "assets/builtin-glasses.png"

// LoadedAsset is an overlay image decoded and ready for the compositor
type LoadedAsset struct {
	Image  image.Image
	Aspect float32 // width/height
}

// Library loads overlay asset images from blob storage, caching decoded
// images. A load failure is not fatal to a capture: the caller gets the
// builtin fallback asset instead, and we log the failure.
type Library struct {
	log     logs.Log
	storage storage.Storage

	cacheLock sync.Mutex
	cache     map[int64]*LoadedAsset

	builtinOnce sync.Once
	builtin     *LoadedAsset
}

func NewLibrary(log logs.Log, st storage.Storage) *Library {
	return &Library{
		log:     log,
		storage: st,
		cache:   map[int64]*LoadedAsset{},
	}
}

// Load returns the decoded image for an asset record. On any failure it
// returns the builtin fallback, never nil and never an error, because a
// missing asset must degrade the overlay, not kill the request.
func (lib *Library) Load(asset *configdb.Asset) *LoadedAsset {
	lib.cacheLock.Lock()
	cached := lib.cache[asset.ID]
	lib.cacheLock.Unlock()
	if cached != nil {
		return cached
	}

	loaded, err := lib.loadFromStorage(asset.FileName)
	if err != nil {
		lib.log.Warnf("Failed to load asset %v (%v): %v. Falling back to builtin asset.", asset.ID, asset.FileName, err)
		return lib.Builtin()
	}
	lib.cacheLock.Lock()
	lib.cache[asset.ID] = loaded
	lib.cacheLock.Unlock()
	return loaded
}

// Invalidate drops an asset from the cache, eg after its file was replaced
func (lib *Library) Invalidate(assetID int64) {
	lib.cacheLock.Lock()
	delete(lib.cache, assetID)
	lib.cacheLock.Unlock()
}

func (lib *Library) loadFromStorage(fileName string) (*LoadedAsset, error) {
	raw, err := storage.ReadFile(lib.storage, fileName)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("Failed to decode image '%v': %w", fileName, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("Image '%v' is empty", fileName)
	}
	return &LoadedAsset{
		Image:  img,
		Aspect: float32(bounds.Dx()) / float32(bounds.Dy()),
	}, nil
}

// Builtin returns the fallback glasses, drawn in code so the server always
// has something to render even with an empty asset catalog.
func (lib *Library) Builtin() *LoadedAsset {
	lib.builtinOnce.Do(func() {
		img := drawBuiltinGlasses()
		lib.builtin = &LoadedAsset{
			Image:  img,
			Aspect: float32(img.Bounds().Dx()) / float32(img.Bounds().Dy()),
		}
	})
	return lib.builtin
}

// BuiltinPNG renders the fallback glasses to a PNG, for seeding storage
func BuiltinPNG() ([]byte, error) {
	dc := gg.NewContextForImage(drawBuiltinGlasses())
	buf := bytes.Buffer{}
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Simple dark round frames: two circles and a bridge, on a transparent
// background. 512x205 gives roughly the aspect of real glasses.
func drawBuiltinGlasses() image.Image {
	const w, h = 512, 205
	dc := gg.NewContext(w, h)
	dc.SetRGBA(0.1, 0.1, 0.12, 1)
	dc.SetLineWidth(14)

	lensR := float64(h)/2 - 10
	leftX := lensR + 8.0
	rightX := float64(w) - lensR - 8
	cy := float64(h) / 2

	dc.DrawCircle(leftX, cy, lensR)
	dc.Stroke()
	dc.DrawCircle(rightX, cy, lensR)
	dc.Stroke()

	// Bridge
	dc.MoveTo(leftX+lensR, cy-lensR*0.4)
	dc.QuadraticTo(float64(w)/2, cy-lensR*0.9, rightX-lensR, cy-lensR*0.4)
	dc.Stroke()

	// Tinted lenses
	dc.SetRGBA(0.2, 0.3, 0.4, 0.35)
	dc.DrawCircle(leftX, cy, lensR-7)
	dc.Fill()
	dc.DrawCircle(rightX, cy, lensR-7)
	dc.Fill()

	return dc.Image()
}
