package export

import (
	"bufio"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/packing"
)

// MapExporter writes an atlas's coordinate map.
type MapExporter interface {
	// Extension is the file extension, without a dot.
	Extension() string
	Export(w io.Writer, a *Atlas) error
}

// MapImporter reads a coordinate map written by the matching MapExporter.
type MapImporter interface {
	Import(r io.Reader) (*Atlas, error)
}

// MapFormat is a map format that can be both written and read.
type MapFormat interface {
	MapExporter
	MapImporter
}

var mapFormats = map[string]MapFormat{
	"txt":  TextMap{},
	"xml":  XNAMap{},
	"json": JSONMap{},
}

// MapExporterFor returns the map exporter for ext.
func MapExporterFor(ext string) (MapExporter, error) {
	return mapFormatFor(ext)
}

// MapImporterFor returns the map importer for ext.
func MapImporterFor(ext string) (MapImporter, error) {
	return mapFormatFor(ext)
}

func mapFormatFor(ext string) (MapFormat, error) {
	f, ok := mapFormats[normalizeExt(ext)]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported map format %q (supported: %s)",
			ext, strings.Join(MapExtensions(), ", "))
	}
	return f, nil
}

// MapExtensions lists the accepted map extensions, sorted.
func MapExtensions() []string {
	exts := make([]string, 0, len(mapFormats))
	for ext := range mapFormats {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// =============================================================================
// txt
// =============================================================================

// TextMap is the plain "name = x y width height" format.
type TextMap struct{}

func (TextMap) Extension() string { return "txt" }

// Export writes one line per sprite, sorted by name.
func (TextMap) Export(w io.Writer, a *Atlas) error {
	bw := bufio.NewWriter(w)
	for _, s := range sortedSprites(a) {
		fmt.Fprintln(bw, s)
	}
	return bw.Flush()
}

// Import parses lines written by Export. Blank lines are ignored.
func (TextMap) Import(r io.Reader) (*Atlas, error) {
	a := &Atlas{}
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "line %d: missing '='", n)
		}
		rect, err := parseRect(value)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "line %d", n)
		}
		a.Sprites = append(a.Sprites, Sprite{Name: strings.TrimSpace(name), Rect: rect})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	a.fitBounds()
	a.sort()
	return a, nil
}

// =============================================================================
// xml
// =============================================================================

const xnaAssetType = "System.Collections.Generic.Dictionary[System.String, Microsoft.Xna.Framework.Rectangle]"

// XNAMap is an XNA content pipeline dictionary of rectangles.
type XNAMap struct{}

func (XNAMap) Extension() string { return "xml" }

// Export writes the dictionary, one item per line.
func (XNAMap) Export(w io.Writer, a *Atlas) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\" ?>\n")
	bw.WriteString("<XnaContent>\n")
	fmt.Fprintf(bw, "<Asset Type=%q>\n", xnaAssetType)
	for _, s := range sortedSprites(a) {
		bw.WriteString("<Item><Key>")
		if err := xml.EscapeText(bw, []byte(s.Name)); err != nil {
			return err
		}
		fmt.Fprintf(bw, "</Key><Value>%s</Value></Item>\n", s.Rect)
	}
	bw.WriteString("</Asset>\n")
	bw.WriteString("</XnaContent>\n")
	return bw.Flush()
}

type xnaContent struct {
	Asset struct {
		Type  string `xml:"Type,attr"`
		Items []struct {
			Key   string `xml:"Key"`
			Value string `xml:"Value"`
		} `xml:"Item"`
	} `xml:"Asset"`
}

// Import parses a dictionary written by Export.
func (XNAMap) Import(r io.Reader) (*Atlas, error) {
	var doc xnaContent
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode xml map")
	}
	if doc.Asset.Type != xnaAssetType {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unexpected asset type %q", doc.Asset.Type)
	}

	a := &Atlas{}
	for _, item := range doc.Asset.Items {
		rect, err := parseRect(item.Value)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "item %q", item.Key)
		}
		a.Sprites = append(a.Sprites, Sprite{Name: strings.TrimSpace(item.Key), Rect: rect})
	}
	a.fitBounds()
	a.sort()
	return a, nil
}

// =============================================================================
// json
// =============================================================================

// JSONMap is the [Atlas] document encoded as indented JSON.
type JSONMap struct{}

func (JSONMap) Extension() string { return "json" }

// Export writes the atlas with sprites sorted by name.
func (JSONMap) Export(w io.Writer, a *Atlas) error {
	out := *a
	out.Sprites = sortedSprites(a)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Import decodes an atlas document.
func (JSONMap) Import(r io.Reader) (*Atlas, error) {
	var a Atlas
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json map")
	}
	a.sort()
	return &a, nil
}

// =============================================================================
// helpers
// =============================================================================

func sortedSprites(a *Atlas) []Sprite {
	sprites := slices.Clone(a.Sprites)
	slices.SortFunc(sprites, func(x, y Sprite) int { return strings.Compare(x.Name, y.Name) })
	return sprites
}

// parseRect parses "x y width height".
func parseRect(s string) (packing.Rect, error) {
	var r packing.Rect
	n, err := fmt.Sscanf(strings.TrimSpace(s), "%d %d %d %d", &r.X, &r.Y, &r.Width, &r.Height)
	if err != nil || n != 4 {
		return packing.Rect{}, fmt.Errorf("want \"x y width height\", got %q", strings.TrimSpace(s))
	}
	return r, nil
}
