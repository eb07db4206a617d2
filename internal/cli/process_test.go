package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/tracetower/pkg/timeline"
)

const testTraceJSON = `{
  "threads": [
    {"id": "worker-0", "tasks": [
      {"start": 0, "end": 10, "args": "load"},
      {"start": 5, "end": 15, "args": "decode"},
      {"start": 20, "end": 30, "args": "store"}
    ]},
    {"id": "worker-1", "tasks": [
      {"start": 2, "end": 8, "args": "fetch"}
    ]}
  ]
}`

func writeTestTrace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.json")
	if err := os.WriteFile(path, []byte(testTraceJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCommand(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.Execute()
}

func TestProcessCommandWritesLayout(t *testing.T) {
	c := testCLI(t)
	tracePath := writeTestTrace(t)
	out := filepath.Join(filepath.Dir(tracePath), "out.layout.json")

	if err := runCommand(t, c, "process", tracePath, "-o", out, "--no-cache"); err != nil {
		t.Fatalf("process command error: %v", err)
	}

	l, err := timeline.ReadLayoutFile(out)
	if err != nil {
		t.Fatalf("output is not a loadable layout: %v", err)
	}
	if l.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want 3", l.TotalRows)
	}
	if len(l.Threads) != 2 {
		t.Errorf("lanes = %d, want 2", len(l.Threads))
	}
}

func TestProcessCommandDefaultOutputPath(t *testing.T) {
	c := testCLI(t)
	tracePath := writeTestTrace(t)

	if err := runCommand(t, c, "process", tracePath, "--no-cache"); err != nil {
		t.Fatalf("process command error: %v", err)
	}

	want := strings.TrimSuffix(tracePath, ".json") + ".layout.json"
	if _, err := os.Stat(want); err != nil {
		t.Errorf("default output %s not written: %v", want, err)
	}
}

func TestProcessCommandMissingFile(t *testing.T) {
	c := testCLI(t)
	if err := runCommand(t, c, "process", "/nonexistent/trace.json", "--no-cache"); err == nil {
		t.Error("missing input should fail")
	}
}

func TestRenderCommandFromTrace(t *testing.T) {
	c := testCLI(t)
	tracePath := writeTestTrace(t)

	if err := runCommand(t, c, "render", tracePath, "-f", "svg,json", "--no-cache"); err != nil {
		t.Fatalf("render command error: %v", err)
	}

	base := strings.TrimSuffix(tracePath, ".json")
	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatalf("svg artifact not written: %v", err)
	}
	if !strings.HasPrefix(string(svg), "<svg") {
		t.Errorf("svg artifact malformed: %.40s", svg)
	}
	if _, err := os.Stat(base + ".json"); err != nil {
		t.Errorf("json artifact not written: %v", err)
	}
}

func TestRenderCommandFromLayout(t *testing.T) {
	c := testCLI(t)
	tracePath := writeTestTrace(t)
	layoutPath := filepath.Join(filepath.Dir(tracePath), "t.layout.json")
	if err := runCommand(t, c, "process", tracePath, "-o", layoutPath, "--no-cache"); err != nil {
		t.Fatalf("process command error: %v", err)
	}

	out := filepath.Join(filepath.Dir(tracePath), "from-layout.svg")
	if err := runCommand(t, c, "render", layoutPath, "-o", out, "--no-cache"); err != nil {
		t.Fatalf("render command error: %v", err)
	}

	svg, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("svg not written: %v", err)
	}
	if !strings.HasPrefix(string(svg), "<svg") {
		t.Errorf("svg malformed: %.40s", svg)
	}
}

func TestRenderCommandInvalidFormat(t *testing.T) {
	c := testCLI(t)
	tracePath := writeTestTrace(t)

	if err := runCommand(t, c, "render", tracePath, "-f", "png"); err == nil {
		t.Error("invalid format should fail before rendering")
	}
}
