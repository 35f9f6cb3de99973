package coloring

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_RenderFinalArtwork(t *testing.T) {
	s := readySession(t)
	s.SetBrush(Brush{Color: color.NRGBA{R: 0xff, A: 0xff}, Size: 10, Hardness: 100})
	drawStroke(t, s, Point{100, 100}, Point{100, 100})

	data, err := s.RenderFinalArtwork()
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, Size, Size), img.Bounds())

	flat := imaging.Clone(img)
	// the line art frame lies over the color layer.
	assert.Equal(t, color.NRGBA{A: 0xff}, flat.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, flat.NRGBAAt(100, 100))
	assert.Equal(t, white, flat.NRGBAAt(500, 500))
}

func TestExport_Formats(t *testing.T) {
	s := readySession(t)

	testCases := []struct {
		format Format
		magic  []byte
	}{
		{FormatPNG, []byte("\x89PNG")},
		{FormatJPEG, []byte{0xff, 0xd8}},
		{FormatBMP, []byte("BM")},
		{FormatPDF, []byte("%PDF")},
	}
	for _, tc := range testCases {
		t.Run(string(tc.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, s.Export(&buf, tc.format))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), tc.magic))
		})
	}

	assert.ErrorIs(t, s.Export(&bytes.Buffer{}, Format("tiff")), ErrUnsupportedFormat)
}

func TestExport_FormatFromExt(t *testing.T) {
	for path, want := range map[string]Format{
		"out.png":     FormatPNG,
		"OUT.JPG":     FormatJPEG,
		"a/b/c.jpeg":  FormatJPEG,
		"picture.bmp": FormatBMP,
		"artwork.pdf": FormatPDF,
	} {
		got, err := FormatFromExt(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatFromExt("artwork.gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExport_Name(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	assert.Equal(t, "Coloring_Artwork_1700000000123.png", ExportName(ts))
}

func TestExport_MultiplyBlend(t *testing.T) {
	art := NewRaster()
	art.SetNRGBA(10, 10, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff})
	s, err := NewSession(Options{
		Loader:  staticLoader(map[string]image.Image{"cat.png": art}),
		LineArt: LineArtOptions{Blend: "multiply"},
		Logger:  discardLogger(),
	})
	require.NoError(t, err)
	selectAndWait(t, s, "cat.png")
	s.SetBrush(Brush{Color: color.NRGBA{R: 0xff, G: 0xff, A: 0xff}, Size: 6, Hardness: 100})
	drawStroke(t, s, Point{10, 10}, Point{10, 10})

	got := s.Composite().NRGBAAt(10, 10)
	// yellow multiplied by mid gray.
	assert.Equal(t, color.NRGBA{R: 0x80, G: 0x80, B: 0, A: 0xff}, got)
}
