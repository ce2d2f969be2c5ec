package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/bandorder/pkg/graph"
	gio "github.com/matzehuels/bandorder/pkg/io"
	"github.com/matzehuels/bandorder/pkg/observability"
)

// runCLI executes the command line with isolated cache and config
// directories and returns the status output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out bytes.Buffer
	prev := uiOut
	uiOut = &out
	t.Cleanup(func() {
		uiOut = prev
		observability.Reset()
	})

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeGraph(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const pathGraph = "0 3\n3 1\n1 2\n"

func TestRootCommandTree(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"reorder", "stats", "render", "serve", "cache", "version"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}
}

func TestReorderCommand(t *testing.T) {
	input := writeGraph(t, "path.edges", pathGraph)
	output := filepath.Join(t.TempDir(), "perm.json")

	status, err := runCLI(t, "reorder", input, "-o", output, "--reverse", "-w", "2")
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if !strings.Contains(status, "bandwidth 3 → 1") {
		t.Errorf("status output missing bandwidth line:\n%s", status)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	var perm gio.Permutation
	if err := json.Unmarshal(data, &perm); err != nil {
		t.Fatal(err)
	}
	if want := []graph.NodeID{2, 1, 3, 0}; !slices.Equal(perm.Permutation, want) {
		t.Errorf("permutation = %v, want %v", perm.Permutation, want)
	}
	if !perm.Reverse {
		t.Error("reverse flag not recorded")
	}
}

func TestReorderCommandText(t *testing.T) {
	input := writeGraph(t, "path.txt", pathGraph)
	output := filepath.Join(t.TempDir(), "perm.txt")

	if _, err := runCLI(t, "reorder", input, "-o", output, "-f", "text", "--source", "auto"); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "0\n3\n1\n2\n" {
		t.Errorf("text permutation = %q", got)
	}
}

func TestReorderCommandErrors(t *testing.T) {
	input := writeGraph(t, "path.edges", pathGraph)

	tests := []struct {
		name string
		args []string
	}{
		{"bad source", []string{"reorder", input, "--source", "first"}},
		{"source out of range", []string{"reorder", input, "--source", "12"}},
		{"bad format", []string{"reorder", input, "-f", "xml"}},
		{"bad input format", []string{"reorder", input, "--input-format", "graphml"}},
		{"missing file", []string{"reorder", filepath.Join(t.TempDir(), "none.edges")}},
		{"no args", []string{"reorder"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStatsCommand(t *testing.T) {
	input := writeGraph(t, "path.edges", pathGraph)

	status, err := runCLI(t, "stats", input, "--levels")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"bandwidth", "profile", "reachable", "level"} {
		if !strings.Contains(status, want) {
			t.Errorf("stats output missing %q:\n%s", want, status)
		}
	}
}

func TestRenderCommand(t *testing.T) {
	input := writeGraph(t, "path.edges", pathGraph)

	tests := []struct {
		format string
		ext    string
		prefix string
	}{
		{"dot", ".dot", "graph"},
		{"spy", ".spy.svg", "<svg"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			output := filepath.Join(t.TempDir(), "out"+tt.ext)
			if _, err := runCLI(t, "render", input, "-f", tt.format, "-o", output, "--band"); err != nil {
				t.Fatalf("render: %v", err)
			}
			data, err := os.ReadFile(output)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(string(data), tt.prefix) {
				t.Errorf("output starts with %.20q, want %q", data, tt.prefix)
			}
		})
	}
}

func TestRenderCommandRejectsLayout(t *testing.T) {
	input := writeGraph(t, "path.edges", pathGraph)
	if _, err := runCLI(t, "render", input, "--layout", "spring"); err == nil {
		t.Error("expected error for unknown layout")
	}
}

func TestMetricsFile(t *testing.T) {
	input := writeGraph(t, "path.edges", pathGraph)
	metrics := filepath.Join(t.TempDir(), "bandorder.prom")
	config := writeConfig(t, "cache = \"none\"\nmetrics_file = \""+filepath.ToSlash(metrics)+"\"\n")
	output := filepath.Join(t.TempDir(), "perm.json")

	if _, err := runCLI(t, "--config", config, "reorder", input, "-o", output); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	data, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), `bandorder_reorders_total{result="ok"} 1`) {
		t.Errorf("metrics missing reorder counter:\n%s", data)
	}
}

func TestCacheCommands(t *testing.T) {
	input := writeGraph(t, "path.edges", pathGraph)
	cacheHome := t.TempDir()
	output := filepath.Join(t.TempDir(), "perm.json")

	c := New(io.Discard, LogInfo)
	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		prev := uiOut
		uiOut = &out
		defer func() { uiOut = prev }()
		root := c.RootCommand()
		root.SetArgs(args)
		root.SetOut(io.Discard)
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	t.Setenv("XDG_CACHE_HOME", cacheHome)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	run("reorder", input, "-o", output)
	if status := run("reorder", input, "-o", output); !strings.Contains(status, iconCached) {
		t.Errorf("second run should be cached:\n%s", status)
	}
	if status := run("cache", "clear"); !strings.Contains(status, "Cleared 1 cached entries") {
		t.Errorf("cache clear output:\n%s", status)
	}
	if status := run("reorder", input, "-o", output); !strings.Contains(status, iconFresh) {
		t.Errorf("run after clear should be fresh:\n%s", status)
	}
}
