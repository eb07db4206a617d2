package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/timeline"
)

// renderCommand creates the render command for producing static artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
		refresh    bool
		collapsed  []string
	)
	opts := pipeline.Options{}
	c.setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "render [trace.json|layout.json]",
		Short: "Render a trace or layout to static artifacts",
		Long: `Render a trace or layout to static artifacts.

The input may be a raw trace document or a layout produced by
'process'; the command detects which one it was given. A raw trace runs
the full ingest and preprocessing pipeline first; a layout goes
straight to rendering.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			opts.Refresh = refresh
			opts.Collapsed = collapsed
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cache reads")
	cmd.Flags().StringSliceVar(&collapsed, "collapse", nil, "lane ids rendered as density sparklines")
	applyLayoutFlags(cmd, &opts)

	return cmd
}

// runRender renders the input, running preprocessing first when the
// input is a raw trace rather than a layout.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	opts.Logger = loggerFromContext(ctx)

	var (
		artifacts map[string][]byte
		cached    bool
	)

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	if l, err := timeline.ReadLayoutFile(input); err == nil {
		// Precomputed layout: skip straight to rendering.
		var layoutHash string
		if data, err := timeline.MarshalLayout(l); err == nil {
			layoutHash = cache.Hash(data)
		}
		artifacts, cached, err = runner.RenderWithCacheInfo(ctx, l, layoutHash, opts)
		if err != nil {
			spinner.StopWithError("Rendering failed")
			return fmt.Errorf("render: %w", err)
		}
	} else {
		opts.TracePath = input
		result, err := runner.Execute(ctx, opts)
		if err != nil {
			spinner.StopWithError("Rendering failed")
			return fmt.Errorf("render: %w", err)
		}
		artifacts = result.Artifacts
		cached = result.CacheInfo.RenderHit
	}
	spinner.Stop()

	paths, err := writeArtifacts(artifacts, opts.Formats, input, output)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", input)
	printStats(0, 0, 0, cached)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeArtifacts writes each rendered format to disk and returns the
// written paths in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if output != "" {
		if len(formats) == 1 {
			if err := os.WriteFile(output, artifacts[formats[0]], 0o644); err != nil {
				return nil, fmt.Errorf("write %s: %w", output, err)
			}
			return []string{output}, nil
		}
		base = strings.TrimSuffix(output, filepath.Ext(output))
	}

	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base + "." + format
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
