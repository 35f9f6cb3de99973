package coloring

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderScale = 2
	placeholderGap   = 20
)

var (
	placeholderFill = color.NRGBA{R: 0xff, G: 0xdd, B: 0xdd, A: 0xff}
	placeholderInk  = color.NRGBA{R: 0xcc, A: 0xff}
)

// PlaceholderLines returns the message shown in place of a line drawing that could not be loaded.
func PlaceholderLines(artworkID, base string) []string {
	return []string{
		fmt.Sprintf("Error: Image %q not found.", artworkID),
		"Check folder: " + base,
	}
}

// drawPlaceholder paints the load-failure notice over the whole raster.
func drawPlaceholder(dst *image.NRGBA, artworkID, base string) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(placeholderFill), image.Point{}, draw.Src)

	b := dst.Bounds()
	cx, cy := b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2
	drawCenteredText(dst, PlaceholderLines(artworkID, base)[0], cx, cy-placeholderGap)
	drawCenteredText(dst, PlaceholderLines(artworkID, base)[1], cx, cy+placeholderGap)
}

// drawCenteredText renders text horizontally centered on cx with its baseline at y.
// The bitmap face is rendered into a strip and enlarged to stay legible on the canvas.
func drawCenteredText(dst *image.NRGBA, text string, cx, y int) {
	face := basicfont.Face7x13
	m := face.Metrics()
	w := font.MeasureString(face, text).Ceil()
	h := (m.Ascent + m.Descent).Ceil()
	if w <= 0 || h <= 0 {
		return
	}

	strip := image.NewNRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  strip,
		Src:  image.NewUniform(placeholderInk),
		Face: face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(text)

	scaled := imaging.Resize(strip, w*placeholderScale, h*placeholderScale, imaging.NearestNeighbor)
	sw, sh := scaled.Bounds().Dx(), scaled.Bounds().Dy()
	top := y - m.Ascent.Ceil()*placeholderScale
	r := image.Rect(cx-sw/2, top, cx-sw/2+sw, top+sh)
	draw.Draw(dst, r, scaled, image.Point{}, draw.Over)
}
