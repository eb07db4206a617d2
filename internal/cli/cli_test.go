package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testCLI(t *testing.T) *CLI {
	t.Helper()
	// Point the config and cache at scratch space so user files never
	// leak into tests.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	return New(io.Discard, LogInfo)
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", appName) {
		t.Errorf("cacheDir() = %q, want XDG path", dir)
	}
}

func TestCacheDirDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	os.Unsetenv("XDG_CACHE_HOME")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	if dir != filepath.Join(home, ".cache", appName) {
		t.Errorf("cacheDir() = %q, want ~/.cache/%s", dir, appName)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"json", []string{"json"}},
		{"svg,json", []string{"svg", "json"}},
	}

	for _, tt := range tests {
		got := parseFormats(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	c := testCLI(t)
	root := c.RootCommand()

	want := []string{"process", "render", "view", "serve", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestLayoutPathFor(t *testing.T) {
	if got := layoutPathFor("trace.json"); got != "trace.layout.json" {
		t.Errorf("layoutPathFor = %q", got)
	}
	if got := layoutPathFor("raw.trace"); got != "raw.trace.layout.json" {
		t.Errorf("layoutPathFor for non-json input = %q", got)
	}
}

func TestWriteArtifactsSingleOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "custom.svg")

	paths, err := writeArtifacts(map[string][]byte{"svg": []byte("<svg/>")}, []string{"svg"}, "trace.json", out)
	if err != nil {
		t.Fatalf("writeArtifacts error: %v", err)
	}
	if len(paths) != 1 || paths[0] != out {
		t.Fatalf("paths = %v, want [%s]", paths, out)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "<svg/>" {
		t.Errorf("written file = %q, %v", data, err)
	}
}

func TestWriteArtifactsMultipleFormats(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "trace.json")

	artifacts := map[string][]byte{
		"svg":  []byte("<svg/>"),
		"json": []byte("{}"),
	}
	paths, err := writeArtifacts(artifacts, []string{"svg", "json"}, input, "")
	if err != nil {
		t.Fatalf("writeArtifacts error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2 entries", paths)
	}
	for _, p := range paths {
		if !strings.HasPrefix(p, filepath.Join(dir, "trace.")) {
			t.Errorf("path %q not derived from input base", p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("artifact %s not written: %v", p, err)
		}
	}
}
