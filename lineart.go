package coloring

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/jeana-hines/coloring-app-aws/imop"
)

// knockoutThreshold is the luminance at or above which a line-art pixel is
// treated as paper and dropped entirely.
const knockoutThreshold = 250

// LineArtOptions controls how a line drawing is prepared and flattened.
type LineArtOptions struct {
	// KnockoutWhite makes the paper of the drawing transparent.
	KnockoutWhite bool
	// Blend is the imop blend mode used to flatten the line art over the
	// color layer. Empty means normal source-over.
	Blend string
	// Composite is the imop Porter-Duff operator placing the line art over
	// the color layer. Empty means source-over.
	Composite string
}

func (o LineArtOptions) composite() (*imop.Composite, error) {
	op := imop.InitOp()
	if o.Composite == "" {
		return op, nil
	}
	if err := op.Set(o.Composite); err != nil {
		return nil, err
	}
	return op, nil
}

func (o LineArtOptions) blend() (*imop.Blend, error) {
	b := imop.NewBlend()
	if o.Blend == "" {
		return b, nil
	}
	if err := b.Set(o.Blend); err != nil {
		return nil, err
	}
	return b, nil
}

// fitLineArt stretches the decoded source over the whole raster.
func fitLineArt(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == Size && b.Dy() == Size {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, Size, Size, imaging.Lanczos)
}

// prepareLineArt returns the raster drawn into the line-art layer for a source image.
func prepareLineArt(img image.Image, opts LineArtOptions) *image.NRGBA {
	art := fitLineArt(img)
	if opts.KnockoutWhite {
		art = knockoutWhite(art)
	}
	return art
}

// knockoutWhite converts a line drawing on white paper into ink over
// transparency: the darker a pixel, the more opaque it stays.
func knockoutWhite(src *image.NRGBA) *image.NRGBA {
	var (
		bounds = src.Bounds()
		dst    = image.NewNRGBA(bounds)
		dx     = bounds.Dx()
		dy     = bounds.Dy()
	)

	for y := 0; y < dy; y++ {
		for x := 0; x < dx; x++ {
			i := src.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b, a := src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3]
			lum := float32(r)*0.299 + float32(g)*0.587 + float32(b)*0.114
			if lum >= knockoutThreshold || a == 0 {
				continue
			}
			alpha := (1 - lum/255) * float32(a)
			j := dst.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			dst.Pix[j+0] = r
			dst.Pix[j+1] = g
			dst.Pix[j+2] = b
			dst.Pix[j+3] = uint8(alpha + 0.5)
		}
	}
	return dst
}

// flatten returns the color layer with the line art composited on top
// through op, source-over when op is nil.
func flatten(colorLayer, lineArt *image.NRGBA, op *imop.Composite, blend *imop.Blend) *image.NRGBA {
	if op == nil {
		op = imop.InitOp()
	}
	dst := cloneRaster(colorLayer)
	op.Draw(dst, lineArt, blend)
	return dst
}
