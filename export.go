package coloring

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/bmp"
)

// ErrUnsupportedFormat is returned for an export format with no encoder.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an export encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
	FormatPDF  Format = "pdf"
)

// FormatFromExt returns the export format matching the file extension of path.
func FormatFromExt(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// ExportName returns the file name offered for a download made at t.
func ExportName(t time.Time) string {
	return fmt.Sprintf("Coloring_Artwork_%d.png", t.UnixMilli())
}

// RenderFinalArtwork flattens the color layer beneath the line art and
// returns the PNG encoding of the result.
func (s *Session) RenderFinalArtwork() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Export(&buf, FormatPNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Export writes the flattened artwork to w in the given format.
func (s *Session) Export(w io.Writer, format Format) error {
	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return ErrNotReady
	}
	img := flatten(s.color, s.lineArt, s.comp, s.blend)
	s.mu.Unlock()

	return encodeImage(w, img, format)
}

func encodeImage(w io.Writer, img *image.NRGBA, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatPDF:
		return encodePDF(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// encodePDF writes a single page document holding the artwork at one point per pixel.
func encodePDF(w io.Writer, img *image.NRGBA) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	b := img.Bounds()
	width, height := float64(b.Dx()), float64(b.Dy())

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetTitle("Coloring artwork", true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("artwork", opts, &buf)
	pdf.ImageOptions("artwork", 0, 0, width, height, false, opts, 0, "")
	return pdf.Output(w)
}
