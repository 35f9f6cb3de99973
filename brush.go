package coloring

import (
	"image"
	"image/color"
	"math"

	"github.com/jeana-hines/coloring-app-aws/imop"
	"github.com/jeana-hines/coloring-app-aws/utils"
)

// Brush limits as exposed to the user.
const (
	MinBrushSize     = 1
	MaxBrushSize     = 50
	HardnessStep     = 25
	MaxHardness      = 100
	strokeSpacingMul = 0.25
)

// Point is a position in raster pixel coordinates.
type Point struct {
	X, Y float64
}

// Brush holds the parameters read by the brush engine on every stamp.
type Brush struct {
	Color    color.NRGBA
	Size     float64 // diameter in raster pixels
	Hardness int     // 0 (softest) to 100 (hard edged), in steps of 25
}

// DefaultBrush returns the brush a new session starts with.
func DefaultBrush() Brush {
	return Brush{
		Color:    color.NRGBA{A: 0xff},
		Size:     3,
		Hardness: MaxHardness,
	}
}

// SetColor sets the paint color. The alpha channel is always forced to opaque.
func (b *Brush) SetColor(c color.NRGBA) {
	c.A = 0xff
	b.Color = c
}

// SetColorHex sets the paint color from its "#rrggbb" representation.
func (b *Brush) SetColorHex(hex string) error {
	c, err := utils.HexToRGBA(hex)
	if err != nil {
		return err
	}
	b.SetColor(c)
	return nil
}

// SetSize sets the brush diameter, clamped to the user range.
func (b *Brush) SetSize(size float64) {
	if math.IsNaN(size) {
		size = MinBrushSize
	}
	b.Size = utils.Clamp(size, MinBrushSize, MaxBrushSize)
}

// SetHardness sets the hardness snapped to the nearest multiple of HardnessStep.
func (b *Brush) SetHardness(h int) {
	h = utils.Clamp(h, 0, MaxHardness)
	b.Hardness = int(math.Round(float64(h)/HardnessStep)) * HardnessStep
}

// StampOpacity returns the overall opacity of a single stamp for the given hardness.
func StampOpacity(hardness int) float64 {
	return 0.1 + 0.9*float64(hardness)/100
}

// Falloff returns the radial coverage at the relative distance t from the stamp center
// (t = 1 on the outer radius), given the relative radius of the fully opaque core.
func Falloff(t, core float64) float64 {
	switch {
	case t >= 1:
		return 0
	case t <= core:
		return 1
	}
	return (1 - t) / (1 - core)
}

// Stamp paints one soft circular dab centered at (x, y) onto dst.
// Pixels are sampled at their centers; nothing outside the outer radius is touched.
func Stamp(dst *image.NRGBA, x, y float64, b Brush) {
	radius := b.Size / 2
	if radius <= 0 {
		return
	}
	core := float64(b.Hardness) / 100
	opacity := StampOpacity(b.Hardness)

	area := image.Rect(
		int(math.Floor(x-radius)), int(math.Floor(y-radius)),
		int(math.Ceil(x+radius))+1, int(math.Ceil(y+radius))+1,
	).Intersect(dst.Bounds())

	for py := area.Min.Y; py < area.Max.Y; py++ {
		dy := float64(py) + 0.5 - y
		for px := area.Min.X; px < area.Max.X; px++ {
			dx := float64(px) + 0.5 - x
			cov := Falloff(math.Hypot(dx, dy)/radius, core)
			if cov <= 0 {
				continue
			}
			i := dst.PixOffset(px, py)
			backdrop := color.NRGBA{R: dst.Pix[i], G: dst.Pix[i+1], B: dst.Pix[i+2], A: dst.Pix[i+3]}
			c := imop.Over(backdrop, b.Color, cov*opacity)
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = c.A
		}
	}
}

// StrokePoints returns the stamp centers needed to continue a stroke from one
// pointer sample to the next: one every quarter diameter, starting one spacing
// past from and stopping before to, followed by to itself.
func StrokePoints(from, to Point, size float64) []Point {
	dx, dy := to.X-from.X, to.Y-from.Y
	dist := math.Hypot(dx, dy)
	spacing := size * strokeSpacingMul

	var points []Point
	if spacing > 0 && dist > 0 {
		ux, uy := dx/dist, dy/dist
		for k := 1; float64(k)*spacing < dist; k++ {
			d := float64(k) * spacing
			points = append(points, Point{X: from.X + ux*d, Y: from.Y + uy*d})
		}
	}
	return append(points, to)
}

// StrokeTo stamps the segment between two consecutive pointer samples.
func StrokeTo(dst *image.NRGBA, from, to Point, b Brush) {
	for _, p := range StrokePoints(from, to, b.Size) {
		Stamp(dst, p.X, p.Y, b)
	}
}
