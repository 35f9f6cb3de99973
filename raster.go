package coloring

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Size is the fixed side length, in pixels, of both the color and the line-art raster.
const Size = 1024

var (
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	// snapshotEncoder trades a little compression for speed, since a snapshot
	// is captured on every stroke end.
	snapshotEncoder = png.Encoder{CompressionLevel: png.BestSpeed}
)

// NewRaster returns a fully transparent Size x Size raster.
func NewRaster() *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, Size, Size))
}

// FillWhite fills the raster with fully opaque white.
func FillWhite(r *image.NRGBA) {
	draw.Draw(r, r.Bounds(), &image.Uniform{white}, image.Point{}, draw.Src)
}

// ClearRaster makes every pixel of the raster fully transparent.
func ClearRaster(r *image.NRGBA) {
	for i := range r.Pix {
		r.Pix[i] = 0
	}
}

// cloneRaster returns an independent copy of the raster.
func cloneRaster(r *image.NRGBA) *image.NRGBA {
	return imaging.Clone(r)
}

// EncodeSnapshot serializes the raster into the PNG encoding used for
// both the undo history and the persisted progress.
func EncodeSnapshot(r *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := snapshotEncoder.Encode(&buf, r); err != nil {
		return nil, fmt.Errorf("could not encode the snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot decodes a serialized raster. Encodings of a different
// size are stretched to the fixed raster size.
func DecodeSnapshot(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, errors.New("empty snapshot")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode the snapshot: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != Size || b.Dy() != Size {
		return imaging.Resize(img, Size, Size, imaging.Lanczos), nil
	}
	return imaging.Clone(img), nil
}

// restoreRaster clears dst and redraws the snapshot at full opacity.
func restoreRaster(dst *image.NRGBA, snapshot []byte) error {
	img, err := DecodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if img.Bounds() == dst.Bounds() && img.Stride == dst.Stride {
		copy(dst.Pix, img.Pix)
		return nil
	}
	ClearRaster(dst)
	draw.Draw(dst, dst.Bounds(), img, image.Point{}, draw.Src)
	return nil
}
