// Package timeline implements the trace preprocessor: interval-to-row
// packing, density binning, coordinate mapping, and layout building.
//
// # Architecture
//
// Preprocessing is a pure function from a trace document plus a Config to
// a Layout:
//
//  1. Pack: assign each task the smallest row index such that no two
//     tasks in the same row overlap in time (interval-graph coloring).
//  2. Bin: summarize each lane's activity into a fixed-size histogram
//     used when the lane is collapsed.
//  3. Build: convert row assignments into absolute content-space
//     geometry, synthesize overhead fragments, and index each row's
//     tasks by horizontal position for range search.
//
// The resulting Layout is immutable: the renderer and viewer only read
// it, and it is rebuilt wholesale whenever the document or the Config
// changes, never patched in place.
//
// # Usage
//
//	cfg := timeline.Config{}
//	cfg.SetDefaults()
//	layout, err := timeline.Build(doc, cfg)
//	if err != nil {
//	    return err
//	}
//	first := layout.Threads[0].Rows[0].FirstVisible(windowLeft)
package timeline

import (
	"github.com/matzehuels/tracetower/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

const (
	// DefaultWidthPx is the fixed logical content width in pixels.
	// Content coordinates are independent of zoom/pan; the viewer maps
	// them to screen space through the viewport transform.
	DefaultWidthPx = 1400.0

	// DefaultLeftMargin reserves space at the left edge for lane labels.
	DefaultLeftMargin = 200.0

	// DefaultRightGutter reserves space at the right edge so the last
	// tick label is never clipped.
	DefaultRightGutter = 40.0

	// DefaultRowHeight is the height of a single task row.
	DefaultRowHeight = 20.0

	// DefaultRowPadding is the vertical gap between rows.
	DefaultRowPadding = 6.0

	// DefaultTrackSpacing is the extra gap between lanes.
	DefaultTrackSpacing = 12.0

	// DefaultHeaderHeight is the lane header band height. Collapsed
	// lanes draw their density sparkline inside this band.
	DefaultHeaderHeight = 40.0

	// DefaultBinCount is the density histogram resolution.
	DefaultBinCount = 512

	// MinTaskWidth is the minimum drawable task width in content pixels.
	// Zero-duration and sub-pixel tasks are clamped up so they remain
	// visible and clickable.
	MinTaskWidth = 2.0
)

// Config holds the layout constants for preprocessing.
//
// Every recognized option is an explicit field with a documented default;
// zero values are replaced by SetDefaults. GlobalStart/GlobalEnd override
// the document-derived range when set.
type Config struct {
	WidthPx      float64 `json:"width_px" bson:"width_px"`
	LeftMargin   float64 `json:"left_margin" bson:"left_margin"`
	RightGutter  float64 `json:"right_gutter" bson:"right_gutter"`
	RowHeight    float64 `json:"row_height" bson:"row_height"`
	RowPadding   float64 `json:"row_padding" bson:"row_padding"`
	TrackSpacing float64 `json:"track_spacing" bson:"track_spacing"`
	HeaderHeight float64 `json:"header_height" bson:"header_height"`
	BinCount     int     `json:"bin_count" bson:"bin_count"`

	// Optional range override. When nil the range derives from the
	// document (min task start / max task end).
	GlobalStart *float64 `json:"global_start,omitempty" bson:"global_start,omitempty"`
	GlobalEnd   *float64 `json:"global_end,omitempty" bson:"global_end,omitempty"`
}

// SetDefaults replaces zero values with the documented defaults.
// It is idempotent.
func (c *Config) SetDefaults() {
	if c.WidthPx == 0 {
		c.WidthPx = DefaultWidthPx
	}
	if c.LeftMargin == 0 {
		c.LeftMargin = DefaultLeftMargin
	}
	if c.RightGutter == 0 {
		c.RightGutter = DefaultRightGutter
	}
	if c.RowHeight == 0 {
		c.RowHeight = DefaultRowHeight
	}
	if c.RowPadding == 0 {
		c.RowPadding = DefaultRowPadding
	}
	if c.TrackSpacing == 0 {
		c.TrackSpacing = DefaultTrackSpacing
	}
	if c.HeaderHeight == 0 {
		c.HeaderHeight = DefaultHeaderHeight
	}
	if c.BinCount == 0 {
		c.BinCount = DefaultBinCount
	}
}

// Validate checks the config for values that would break layout math.
func (c *Config) Validate() error {
	c.SetDefaults()
	if c.WidthPx <= c.LeftMargin+c.RightGutter {
		return errors.New(errors.ErrCodeInvalidConfig,
			"width %v leaves no usable space after margin %v and gutter %v",
			c.WidthPx, c.LeftMargin, c.RightGutter)
	}
	if c.RowHeight <= 0 || c.HeaderHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "row and header heights must be positive")
	}
	if c.BinCount < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "bin count must be at least 1")
	}
	return nil
}

// RowPitch returns the vertical distance between consecutive row tops.
func (c *Config) RowPitch() float64 {
	return c.RowHeight + c.RowPadding
}
