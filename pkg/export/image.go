package export

import (
	"bytes"
	"image"
	"io"
	"slices"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/sheetpack/pkg/errors"
)

// ImageExporter encodes a sheet image.
type ImageExporter interface {
	// Extension is the canonical file extension, without a dot.
	Extension() string
	Export(w io.Writer, img image.Image) error
}

type imageExporter struct {
	ext    string
	format imaging.Format
	opts   []imaging.EncodeOption
}

func (e imageExporter) Extension() string { return e.ext }

func (e imageExporter) Export(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, e.format, e.opts...)
}

var imageExporters = map[string]imageExporter{
	"png":  {ext: "png", format: imaging.PNG},
	"jpg":  {ext: "jpg", format: imaging.JPEG, opts: []imaging.EncodeOption{imaging.JPEGQuality(95)}},
	"jpeg": {ext: "jpg", format: imaging.JPEG, opts: []imaging.EncodeOption{imaging.JPEGQuality(95)}},
	"bmp":  {ext: "bmp", format: imaging.BMP},
	"gif":  {ext: "gif", format: imaging.GIF},
	"tif":  {ext: "tif", format: imaging.TIFF},
	"tiff": {ext: "tif", format: imaging.TIFF},
}

// ImageExporterFor returns the exporter for ext ("png", ".PNG", ...).
func ImageExporterFor(ext string) (ImageExporter, error) {
	e, ok := imageExporters[normalizeExt(ext)]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported image format %q (supported: %s)",
			ext, strings.Join(ImageExtensions(), ", "))
	}
	return e, nil
}

// ImageExtensions lists the accepted image extensions, sorted.
func ImageExtensions() []string {
	exts := make([]string, 0, len(imageExporters))
	for ext := range imageExporters {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// EncodeImage encodes img in the format named by ext.
func EncodeImage(img image.Image, ext string) ([]byte, error) {
	e, err := ImageExporterFor(ext)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := e.Export(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", e.Extension())
	}
	return buf.Bytes(), nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
