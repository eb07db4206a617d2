package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/timeline"
)

// processCommand creates the process command for running preprocessing.
func (c *CLI) processCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)
	opts := pipeline.Options{}
	c.setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "process [trace.json]",
		Short: "Preprocess a trace into a layout",
		Long: `Preprocess a trace into a layout.

The process command ingests a trace document, packs overlapping tasks
into rows, bins per-lane densities, and computes absolute geometry. The
resulting layout.json contains everything a renderer needs; no further
access to the trace is required.

Results are cached locally for faster subsequent runs.

Use 'render' to go directly from a trace to visual output, or 'view' to
explore the trace interactively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.TracePath = args[0]
			opts.Refresh = refresh
			return c.runProcess(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output layout file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cache reads")
	applyLayoutFlags(cmd, &opts)

	return cmd
}

// runProcess ingests the trace, builds the layout, and writes it out.
func (c *CLI) runProcess(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}

	logger := loggerFromContext(ctx)
	opts.Logger = logger
	track := newProgress(logger)

	spinner := newSpinnerWithContext(ctx, "Ingesting trace...")
	spinner.Start()

	doc, traceHash, err := runner.Ingest(ctx, opts)
	if err != nil {
		spinner.StopWithError("Ingestion failed")
		return fmt.Errorf("ingest %s: %w", opts.TracePath, err)
	}

	spinner.SetMessage("Packing rows...")
	l, cached, err := runner.BuildLayoutWithCacheInfo(ctx, doc, traceHash, opts)
	if err != nil {
		spinner.StopWithError("Preprocessing failed")
		return fmt.Errorf("process: %w", err)
	}
	spinner.Stop()

	if output == "" {
		output = layoutPathFor(opts.TracePath)
	}
	if err := timeline.WriteLayoutFile(l, output); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}

	taskCount := 0
	for _, th := range doc.Threads {
		taskCount += len(th.Tasks)
	}
	track.done(fmt.Sprintf("Packed %d tasks into %d rows", taskCount, l.TotalRows))

	printSuccess("Processed %s", opts.TracePath)
	printStats(len(doc.Threads), taskCount, l.TotalRows, cached)
	printFile(output)
	printNextStep("Render it", fmt.Sprintf("tracetower render %s", output))
	return nil
}

// layoutPathFor derives the default layout output path from a trace path.
func layoutPathFor(tracePath string) string {
	base := strings.TrimSuffix(tracePath, ".json")
	return base + ".layout.json"
}
