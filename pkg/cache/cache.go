// Package cache provides pluggable byte caches and cache-key derivation
// for the processing pipeline. The pipeline caches two stages: built
// layouts (keyed by trace hash plus layout options) and rendered
// artifacts (keyed by layout hash plus render options).
package cache

import (
	"context"
	"time"
)

// TTLs per cached stage. Layouts are cheap to keep and expensive to
// rebuild for large traces; artifacts are cheaper to regenerate.
const (
	TTLTrace    = 7 * 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 12 * time.Hour
)

// Cache is a byte-oriented cache with TTL support.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// LayoutKeyOpts are the preprocessing options that affect layout
// output. Two runs with equal trace hash and equal opts produce
// identical layouts, so they share a cache entry.
type LayoutKeyOpts struct {
	WidthPx      float64  `json:"width_px"`
	LeftMargin   float64  `json:"left_margin"`
	RightGutter  float64  `json:"right_gutter"`
	RowHeight    float64  `json:"row_height"`
	RowPadding   float64  `json:"row_padding"`
	TrackSpacing float64  `json:"track_spacing"`
	HeaderHeight float64  `json:"header_height"`
	BinCount     int      `json:"bin_count"`
	GlobalStart  *float64 `json:"global_start,omitempty"`
	GlobalEnd    *float64 `json:"global_end,omitempty"`
}

// ArtifactKeyOpts are the render options that affect artifact output.
type ArtifactKeyOpts struct {
	Format    string   `json:"format"`
	WidthPx   float64  `json:"width_px"`
	HeightPx  float64  `json:"height_px"`
	Collapsed []string `json:"collapsed,omitempty"`
}

// Keyer derives cache keys for the pipeline stages.
type Keyer interface {
	// TraceKey keys a parsed trace document by the raw input's hash.
	TraceKey(inputHash string) string

	// LayoutKey keys a built layout.
	LayoutKey(traceHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the option structs into stable keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TraceKey implements Keyer.
func (k *DefaultKeyer) TraceKey(inputHash string) string {
	return hashKey("trace", inputHash)
}

// LayoutKey implements Keyer.
func (k *DefaultKeyer) LayoutKey(traceHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", traceHash, opts)
}

// ArtifactKey implements Keyer.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
