package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/observability"
	"github.com/matzehuels/tracetower/pkg/render"
	"github.com/matzehuels/tracetower/pkg/timeline"
	"github.com/matzehuels/tracetower/pkg/trace"
	"github.com/matzehuels/tracetower/pkg/viewport"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete ingest → layout → render pipeline with
// caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Ingest
	ingestStart := time.Now()
	doc, traceHash, err := r.Ingest(ctx, opts)
	result.Stats.IngestTime = time.Since(ingestStart)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	result.Document = doc
	result.TraceHash = traceHash
	result.Stats.LaneCount = len(doc.Threads)
	for _, th := range doc.Threads {
		result.Stats.TaskCount += len(th.Tasks)
	}

	r.Logger.Info("ingested trace",
		"lanes", result.Stats.LaneCount,
		"tasks", result.Stats.TaskCount,
		"duration", result.Stats.IngestTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.BuildLayoutWithCacheInfo(ctx, doc, traceHash, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.TotalRows = l.TotalRows
	result.CacheInfo.LayoutHit = layoutHit

	if data, err := timeline.MarshalLayout(l); err == nil {
		result.LayoutHash = cache.Hash(data)
	}

	r.Logger.Info("built layout",
		"rows", l.TotalRows,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, result.LayoutHash, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered artifacts",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Ingest parses and validates the trace document, returning its content
// hash for downstream cache keys.
func (r *Runner) Ingest(ctx context.Context, opts Options) (*trace.Document, string, error) {
	if err := opts.ValidateForIngest(); err != nil {
		return nil, "", err
	}

	source := opts.TracePath
	if source == "" {
		source = "inline"
	}
	observability.Pipeline().OnIngestStart(ctx, source)
	start := time.Now()

	data := opts.TraceData
	if len(data) == 0 {
		var err error
		data, err = os.ReadFile(opts.TracePath)
		if err != nil {
			observability.Pipeline().OnIngestComplete(ctx, source, 0, time.Since(start), err)
			return nil, "", err
		}
	}

	doc, err := trace.Unmarshal(data)
	if err != nil {
		observability.Pipeline().OnIngestComplete(ctx, source, 0, time.Since(start), err)
		return nil, "", err
	}
	if err := doc.Validate(); err != nil {
		observability.Pipeline().OnIngestComplete(ctx, source, 0, time.Since(start), err)
		return nil, "", err
	}

	taskCount := 0
	for _, th := range doc.Threads {
		taskCount += len(th.Tasks)
	}
	observability.Pipeline().OnIngestComplete(ctx, source, taskCount, time.Since(start), nil)

	return doc, cache.Hash(data), nil
}

// BuildLayoutWithCacheInfo builds (or loads) the layout and reports
// whether it came from cache.
func (r *Runner) BuildLayoutWithCacheInfo(ctx context.Context, doc *trace.Document, traceHash string, opts Options) (*timeline.Layout, bool, error) {
	cfg := opts.TimelineConfig()
	cacheKey := r.Keyer.LayoutKey(traceHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.cacheGet(ctx, cacheKey); err == nil && hit {
			if l, err := timeline.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return l, true, nil
			}
			// Corrupt entry: fall through to a rebuild.
			_ = r.Cache.Delete(ctx, cacheKey)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	taskCount := 0
	for _, th := range doc.Threads {
		taskCount += len(th.Tasks)
	}
	observability.Pipeline().OnLayoutStart(ctx, len(doc.Threads), taskCount)
	start := time.Now()

	l, err := timeline.Build(doc, cfg)
	observability.Pipeline().OnLayoutComplete(ctx, layoutRows(l), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if data, err := timeline.MarshalLayout(l); err == nil {
		if err := r.cacheSet(ctx, cacheKey, data, cache.TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return l, false, nil
}

// RenderWithCacheInfo renders all requested formats, reporting whether
// every artifact came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *timeline.Layout, layoutHash string, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.Formats))
	allHit := true

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))

		if !opts.Refresh && layoutHash != "" {
			if data, hit, err := r.cacheGet(ctx, cacheKey); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		allHit = false

		data, err := r.renderFormat(l, format, opts)
		if err != nil {
			observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, err
		}
		artifacts[format] = data

		if layoutHash != "" {
			if err := r.cacheSet(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
				observability.Cache().OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}

	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return artifacts, allHit, nil
}

// cacheGet reads through the cache with retries, so a transient backend
// error (a Redis blip in serve mode) does not force a rebuild.
func (r *Runner) cacheGet(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data []byte
		hit  bool
	)
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, hit, err = r.Cache.Get(ctx, key)
		return err
	})
	return data, hit, err
}

// cacheSet writes through the cache with retries.
func (r *Runner) cacheSet(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, data, ttl)
	})
}

// renderFormat produces one artifact.
func (r *Runner) renderFormat(l *timeline.Layout, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return timeline.MarshalLayout(l)
	case FormatSVG:
		vis := viewport.NewVisibilityMap()
		vis.CollapseAll(opts.Collapsed)
		return render.RenderSVG(l, render.WithVisibility(vis)), nil
	default:
		return nil, ValidateFormat(format)
	}
}

func layoutRows(l *timeline.Layout) int {
	if l == nil {
		return 0
	}
	return l.TotalRows
}
