package cache

import "time"

// Keyer builds cache keys for each kind of cached build result.
type Keyer interface {
	// MeasureKey identifies the decoded size of one sprite file.
	MeasureKey(path string, opts MeasureKeyOpts) string

	// LayoutKey identifies a packing result for a set of items.
	LayoutKey(itemsHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies an encoded sheet image or map file.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// MeasureKeyOpts ties a measurement to one version of a file.
type MeasureKeyOpts struct {
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// LayoutKeyOpts are the constraints that influence a layout.
type LayoutKeyOpts struct {
	MaxWidth   int  `json:"max_width"`
	MaxHeight  int  `json:"max_height"`
	Padding    int  `json:"padding"`
	PowerOfTwo bool `json:"power_of_two"`
	Square     bool `json:"square"`
}

// ArtifactKeyOpts select the output encoding.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// MeasureKey returns "measure:<hash>".
func (DefaultKeyer) MeasureKey(path string, opts MeasureKeyOpts) string {
	return hashKey("measure", path, opts)
}

// LayoutKey returns "layout:<hash>".
func (DefaultKeyer) LayoutKey(itemsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", itemsHash, opts)
}

// ArtifactKey returns "artifact:<hash>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
