package arxiv

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Renderer turns a PDF into a cover image written to dst.
type Renderer interface {
	Render(ctx context.Context, pdf []byte, dst string) error
}

// DefaultCropFraction is the share of the first page kept as cover: the
// title block and abstract.
const DefaultCropFraction = 0.45

// PDFToPPM renders page 1 with the poppler pdftoppm binary and crops the
// top of the page.
type PDFToPPM struct {
	// Binary is the pdftoppm executable. Empty means "pdftoppm" on PATH.
	Binary string
	// DPI is the render resolution. Zero means 110.
	DPI int
	// Width is the output width in pixels. Zero keeps the rendered width.
	Width int
	// CropFraction is the kept share of the page height. Zero means
	// [DefaultCropFraction].
	CropFraction float64
}

// Available reports whether the pdftoppm binary can be found.
func (p PDFToPPM) Available() bool {
	_, err := exec.LookPath(p.binary())
	return err == nil
}

func (p PDFToPPM) binary() string {
	if p.Binary != "" {
		return p.Binary
	}
	return "pdftoppm"
}

// Render writes pdf into a private temp dir, renders page 1 there and
// saves the cropped PNG to dst. The temp dir is removed on every path.
func (p PDFToPPM) Render(ctx context.Context, pdf []byte, dst string) error {
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return fmt.Errorf("not a PDF document")
	}

	tmp, err := os.MkdirTemp("", "curator-cover-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	in := filepath.Join(tmp, "paper.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return err
	}

	dpi := p.DPI
	if dpi == 0 {
		dpi = 110
	}
	prefix := filepath.Join(tmp, "page")
	cmd := exec.CommandContext(ctx, p.binary(),
		"-png", "-singlefile", "-f", "1", "-l", "1", "-r", fmt.Sprint(dpi), in, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pdftoppm: %w: %s", err, bytes.TrimSpace(out))
	}

	return CropTop(prefix+".png", dst, p.CropFraction, p.Width)
}

// CropTop keeps the top fraction of the image at src and writes it to dst,
// optionally resized to width. The format follows dst's extension.
func CropTop(src, dst string, fraction float64, width int) error {
	if fraction <= 0 || fraction > 1 {
		fraction = DefaultCropFraction
	}
	img, err := imaging.Open(src)
	if err != nil {
		return err
	}
	b := img.Bounds()
	h := int(float64(b.Dy()) * fraction)
	if h < 1 {
		h = 1
	}
	var out image.Image = imaging.CropAnchor(img, b.Dx(), h, imaging.Top)
	if width > 0 && width < b.Dx() {
		out = imaging.Resize(out, width, 0, imaging.Lanczos)
	}

	tmp := dst + ".tmp" + filepath.Ext(dst)
	if err := imaging.Save(out, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
