// Package pipeline provides the core processing pipeline for Tracetower.
//
// This package implements the complete ingest → layout → render pipeline
// shared by the CLI, the HTTP API, and the viewer's preprocessing worker.
// Centralizing it keeps behavior consistent across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Ingest: Parse and validate a raw trace document
//  2. Layout: Pack tasks into rows, bin densities, build geometry
//  3. Render: Generate static artifacts (SVG, JSON)
//
// Each stage can be run independently or as part of the complete
// pipeline. Layout and render results are cached; the cache key of a
// stage covers its input hash plus every option that affects output.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    TracePath: "trace.json",
//	    Formats:   []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/timeline"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the processing pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Ingest options. Exactly one of TracePath and TraceData is set;
	// TraceData wins when both are.
	TracePath string `json:"trace_path,omitempty"`
	TraceData []byte `json:"trace_data,omitempty"`
	Name      string `json:"name,omitempty"`
	Refresh   bool   `json:"refresh,omitempty"` // bypass cache reads

	// Layout options. Zero values fall back to the timeline defaults.
	WidthPx      float64  `json:"width_px,omitempty"`
	LeftMargin   float64  `json:"left_margin,omitempty"`
	RightGutter  float64  `json:"right_gutter,omitempty"`
	RowHeight    float64  `json:"row_height,omitempty"`
	RowPadding   float64  `json:"row_padding,omitempty"`
	TrackSpacing float64  `json:"track_spacing,omitempty"`
	HeaderHeight float64  `json:"header_height,omitempty"`
	BinCount     int      `json:"bin_count,omitempty"`
	GlobalStart  *float64 `json:"global_start,omitempty"`
	GlobalEnd    *float64 `json:"global_end,omitempty"`

	// Render options.
	Formats   []string `json:"formats,omitempty"`
	Collapsed []string `json:"collapsed,omitempty"` // lanes rendered as sparklines

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the ingested trace.
	Document *trace.Document

	// TraceHash is the content hash of the canonical document bytes.
	TraceHash string

	// Layout is the preprocessing output.
	Layout *timeline.Layout

	// LayoutHash is the content hash of the serialized layout.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LaneCount  int
	TaskCount  int
	TotalRows  int
	IngestTime time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits per pipeline stage. Ingest is never
// cached: decoding the document costs less than a cache round trip.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForIngest(); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForIngest checks required fields for ingestion.
func (o *Options) ValidateForIngest() error {
	if o.TracePath == "" && len(o.TraceData) == 0 {
		return fmt.Errorf("trace_path or trace_data is required")
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	cfg := o.TimelineConfig()
	o.WidthPx = cfg.WidthPx
	o.LeftMargin = cfg.LeftMargin
	o.RightGutter = cfg.RightGutter
	o.RowHeight = cfg.RowHeight
	o.RowPadding = cfg.RowPadding
	o.TrackSpacing = cfg.TrackSpacing
	o.HeaderHeight = cfg.HeaderHeight
	o.BinCount = cfg.BinCount
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
}

// TimelineConfig converts the layout options to a timeline Config with
// defaults applied.
func (o *Options) TimelineConfig() timeline.Config {
	cfg := timeline.Config{
		WidthPx:      o.WidthPx,
		LeftMargin:   o.LeftMargin,
		RightGutter:  o.RightGutter,
		RowHeight:    o.RowHeight,
		RowPadding:   o.RowPadding,
		TrackSpacing: o.TrackSpacing,
		HeaderHeight: o.HeaderHeight,
		BinCount:     o.BinCount,
		GlobalStart:  o.GlobalStart,
		GlobalEnd:    o.GlobalEnd,
	}
	cfg.SetDefaults()
	return cfg
}

// LayoutKeyOpts maps the layout-affecting options to cache key options.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	cfg := o.TimelineConfig()
	return cache.LayoutKeyOpts{
		WidthPx:      cfg.WidthPx,
		LeftMargin:   cfg.LeftMargin,
		RightGutter:  cfg.RightGutter,
		RowHeight:    cfg.RowHeight,
		RowPadding:   cfg.RowPadding,
		TrackSpacing: cfg.TrackSpacing,
		HeaderHeight: cfg.HeaderHeight,
		BinCount:     cfg.BinCount,
		GlobalStart:  cfg.GlobalStart,
		GlobalEnd:    cfg.GlobalEnd,
	}
}

// ArtifactKeyOpts maps the render-affecting options to cache key
// options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		WidthPx:   o.WidthPx,
		Collapsed: o.Collapsed,
	}
}
