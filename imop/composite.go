// Package imop implements the Porter-Duff composition operations
// used for mixing a graphic element with its backdrop.
// The image/draw core package implements only the source-over-destination
// and source operators; the painting engine also needs the others,
// together with separable blend modes, when the color layer is flattened
// beneath the line art.
package imop

import (
	"fmt"
	"image"
	"image/color"

	"github.com/jeana-hines/coloring-app-aws/utils"
)

const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

var compOps = []string{Clear, Copy, Dst, SrcOver, DstOver, SrcIn, DstIn, SrcOut, DstOut, SrcAtop, DstAtop, Xor}

// Composite holds the currently active composition operation.
type Composite struct {
	current string
}

// InitOp initializes a new Composite with source-over as the active operation.
func InitOp() *Composite {
	return &Composite{current: SrcOver}
}

// Set activates one of the supported composition operations.
func (op *Composite) Set(cop string) error {
	if !utils.Contains(compOps, cop) {
		return fmt.Errorf("unsupported composite operation: %q", cop)
	}
	op.current = cop
	return nil
}

// Get returns the currently active composition operation.
func (op *Composite) Get() string {
	return op.current
}

// factors returns the Porter-Duff coefficients applied to the source and backdrop.
func (op *Composite) factors(as, ab float64) (fa, fb float64) {
	switch op.current {
	case Clear:
		return 0, 0
	case Copy:
		return 1, 0
	case Dst:
		return 0, 1
	case DstOver:
		return 1 - ab, 1
	case SrcIn:
		return ab, 0
	case DstIn:
		return 0, as
	case SrcOut:
		return 1 - ab, 0
	case DstOut:
		return 0, 1 - as
	case SrcAtop:
		return ab, 1 - as
	case DstAtop:
		return 1 - ab, as
	case Xor:
		return 1 - ab, 1 - as
	}
	return 1, 1 - as
}

// Draw composes src onto dst in place, pixel by pixel, using the active operation.
// If blend is not nil the source color is first mixed with the backdrop
// through the blend mode. Both images must share the same bounds.
func (op *Composite) Draw(dst, src *image.NRGBA, blend *Blend) {
	b := dst.Bounds().Intersect(src.Bounds())

	for y := b.Min.Y; y < b.Max.Y; y++ {
		di := dst.PixOffset(b.Min.X, y)
		si := src.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			s := color.NRGBA{R: src.Pix[si], G: src.Pix[si+1], B: src.Pix[si+2], A: src.Pix[si+3]}
			d := color.NRGBA{R: dst.Pix[di], G: dst.Pix[di+1], B: dst.Pix[di+2], A: dst.Pix[di+3]}
			c := op.Mix(d, s, blend)
			dst.Pix[di+0] = c.R
			dst.Pix[di+1] = c.G
			dst.Pix[di+2] = c.B
			dst.Pix[di+3] = c.A
			di += 4
			si += 4
		}
	}
}

// Mix returns the composition of a single source pixel over its backdrop.
func (op *Composite) Mix(backdrop, source color.NRGBA, blend *Blend) color.NRGBA {
	as, ab := float64(source.A)/255, float64(backdrop.A)/255
	cs := [3]float64{float64(source.R) / 255, float64(source.G) / 255, float64(source.B) / 255}
	cb := [3]float64{float64(backdrop.R) / 255, float64(backdrop.G) / 255, float64(backdrop.B) / 255}

	if blend != nil && blend.Get() != "" {
		for i := range cs {
			cs[i] = (1-ab)*cs[i] + ab*blend.Apply(cb[i], cs[i])
		}
	}

	fa, fb := op.factors(as, ab)
	ao := as*fa + ab*fb
	if ao <= 0 {
		return color.NRGBA{}
	}

	var co [3]float64
	for i := range co {
		co[i] = (as*fa*cs[i] + ab*fb*cb[i]) / ao
	}
	return color.NRGBA{
		R: toByte(co[0]),
		G: toByte(co[1]),
		B: toByte(co[2]),
		A: toByte(ao),
	}
}

// Over paints col with the given opacity over the backdrop using the source-over operator.
// It is the hot path of the brush engine, hence it avoids the generic Mix machinery.
func Over(backdrop, col color.NRGBA, opacity float64) color.NRGBA {
	as := opacity * float64(col.A) / 255
	if as <= 0 {
		return backdrop
	}
	ab := float64(backdrop.A) / 255
	ao := as + ab*(1-as)

	mix := func(s, b uint8) uint8 {
		return toByte((as*float64(s)/255 + ab*(1-as)*float64(b)/255) / ao)
	}
	return color.NRGBA{
		R: mix(col.R, backdrop.R),
		G: mix(col.G, backdrop.G),
		B: mix(col.B, backdrop.B),
		A: toByte(ao),
	}
}

func toByte(v float64) uint8 {
	return uint8(utils.Clamp(v, 0, 1)*255 + 0.5)
}
