package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/bandorder/pkg/cache"
	"github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/graph"
	gio "github.com/matzehuels/bandorder/pkg/io"
)

// pathEdges is the path 0-3-1-2, labelled so the identity has bandwidth 3.
const pathEdges = "# path\n0 3\n3 1\n1 2\n"

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateRenderFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"dot", false},
		{"spy", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateRenderFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRenderFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"defaults", Options{}, ""},
		{"negative source", Options{Source: -1}, errors.ErrCodeInvalidSource},
		{"negative spin limit", Options{SpinLimit: -5}, errors.ErrCodeInvalidInput},
		{"negative workers", Options{Workers: -2}, errors.ErrCodeInvalidInput},
		{"negative max nodes", Options{MaxNodes: -1}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.code == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Fatalf("Validate() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsSetDefaultsDetectsFormat(t *testing.T) {
	opts := Options{Input: "bcsstk01.mtx"}
	if err := opts.SetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Format != gio.FormatMatrixMarket {
		t.Errorf("Format = %q, want %q", opts.Format, gio.FormatMatrixMarket)
	}

	opts = Options{Input: "graph.bin"}
	if err := opts.SetDefaults(); err == nil {
		t.Error("expected error for unknown extension")
	}

	// Explicit format wins over the extension.
	opts = Options{Input: "graph.bin", Format: gio.FormatEdgeList}
	if err := opts.SetDefaults(); err != nil {
		t.Errorf("SetDefaults() with explicit format = %v", err)
	}
}

func TestRenderOptionsDefaults(t *testing.T) {
	var ro RenderOptions
	if err := ro.Validate(); err != nil {
		t.Fatal(err)
	}
	if ro.Format != FormatSVG || ro.Layout != DefaultLayout {
		t.Errorf("defaults = %+v", ro)
	}

	bad := RenderOptions{Format: FormatSVG, Layout: "twopi-ish"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown layout")
	}

	// Layout is irrelevant to spy plots.
	spy := RenderOptions{Format: FormatSpy, Layout: "twopi-ish"}
	if err := spy.Validate(); err != nil {
		t.Errorf("spy Validate() = %v", err)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		opts Options
		want string
	}{
		{Options{}, "cm source=0 complete=false"},
		{Options{Source: 4, Reverse: true}, "rcm source=4 complete=false"},
		{Options{AutoSource: true, Complete: true}, "cm source=auto complete=true"},
	}
	for _, tt := range tests {
		if got := tt.opts.Describe(); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}

func TestExecute(t *testing.T) {
	input := writeInput(t, "path.txt", pathEdges)
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	res, err := runner.Execute(context.Background(), Options{Input: input})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	want := []graph.NodeID{0, 3, 1, 2}
	if !slices.Equal(res.Permutation, want) {
		t.Errorf("Permutation = %v, want %v", res.Permutation, want)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if res.CacheHit {
		t.Error("CacheHit = true with a null cache")
	}

	s := res.Stats
	if s.Nodes != 4 || s.Edges != 6 || s.Reachable != 4 || s.Levels != 4 {
		t.Errorf("Stats = %+v", s)
	}
	if s.BandwidthBefore != 3 || s.BandwidthAfter != 1 {
		t.Errorf("bandwidth %d -> %d, want 3 -> 1", s.BandwidthBefore, s.BandwidthAfter)
	}
	if s.ProfileAfter > s.ProfileBefore {
		t.Errorf("profile grew: %d -> %d", s.ProfileBefore, s.ProfileAfter)
	}
}

func TestExecuteVariants(t *testing.T) {
	// 0-1, 1-2 plus an isolated node 3 (declared by the self-loop).
	input := writeInput(t, "g.edges", "0 1\n1 2\n3 3\n")

	tests := []struct {
		name string
		opts Options
		want []graph.NodeID
	}{
		{"cm", Options{}, []graph.NodeID{0, 1, 2}},
		{"rcm", Options{Reverse: true}, []graph.NodeID{2, 1, 0}},
		{"complete", Options{Complete: true}, []graph.NodeID{0, 1, 2, 3}},
		{"rcm complete", Options{Reverse: true, Complete: true}, []graph.NodeID{3, 2, 1, 0}},
		{"source", Options{Source: 1}, []graph.NodeID{1, 0, 2}},
		{"auto source", Options{AutoSource: true}, []graph.NodeID{0, 1, 2}},
	}

	runner := NewRunner(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Input = input
			opts.Workers = 2
			res, err := runner.Execute(context.Background(), opts)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(res.Permutation, tt.want) {
				t.Errorf("Permutation = %v, want %v", res.Permutation, tt.want)
			}
		})
	}
}

func TestExecuteErrors(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	ctx := context.Background()

	_, err := runner.Execute(ctx, Options{Input: filepath.Join(t.TempDir(), "missing.txt")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: got %v, want FILE_NOT_FOUND", err)
	}

	input := writeInput(t, "path.txt", pathEdges)
	_, err = runner.Execute(ctx, Options{Input: input, Source: 9})
	if !errors.Is(err, errors.ErrCodeInvalidSource) {
		t.Errorf("bad source: got %v, want INVALID_SOURCE", err)
	}

	bad := writeInput(t, "bad.txt", "0 1\nzero one\n")
	_, err = runner.Execute(ctx, Options{Input: bad})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad input: got %v, want INVALID_FORMAT", err)
	}

	_, err = runner.Execute(ctx, Options{Input: input, MaxNodes: 3})
	if !errors.Is(err, errors.ErrCodeInvalidGraph) {
		t.Errorf("over node limit: got %v, want INVALID_GRAPH", err)
	}
}

func TestReorderUsesCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	input := writeInput(t, "path.txt", pathEdges)
	opts := Options{Input: input, Reverse: true}
	ctx := context.Background()

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit {
		t.Fatal("first run should miss")
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit {
		t.Fatal("second run should hit")
	}
	if !slices.Equal(first.Permutation, second.Permutation) {
		t.Errorf("cached permutation %v != computed %v", second.Permutation, first.Permutation)
	}
	if !slices.Equal(first.LevelCounts, second.LevelCounts) {
		t.Errorf("cached levels %v != computed %v", second.LevelCounts, first.LevelCounts)
	}
	if second.Stats.BandwidthAfter != first.Stats.BandwidthAfter {
		t.Errorf("bandwidth differs: %d vs %d", second.Stats.BandwidthAfter, first.Stats.BandwidthAfter)
	}
	if first.RunID == second.RunID {
		t.Error("run IDs should differ")
	}

	opts.Refresh = true
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheHit {
		t.Error("Refresh should skip the cache")
	}

	// A different source is a different key.
	opts.Refresh = false
	opts.Source = 2
	other, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheHit {
		t.Error("different source should miss")
	}
}

// staticCache answers every Get with the same payload.
type staticCache struct{ data []byte }

func (c staticCache) Get(context.Context, string) ([]byte, bool, error) { return c.data, true, nil }
func (staticCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (staticCache) Delete(context.Context, string) error { return nil }
func (staticCache) Close() error { return nil }

func TestReorderIgnoresBadCacheEntries(t *testing.T) {
	input := writeInput(t, "path.txt", pathEdges)
	want, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{Input: input})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		payload string
	}{
		{"id out of range", `{"source":0,"permutation":[0,3,1,9],"level_counts":[1,1,1,1]}`},
		{"repeated id", `{"source":0,"permutation":[0,3,3,2],"level_counts":[1,1,1,1]}`},
		{"source out of range", `{"source":7,"permutation":[0,3,1,2],"level_counts":[1,1,1,1]}`},
		{"too long", `{"source":0,"permutation":[0,3,1,2,0],"level_counts":[1]}`},
		{"not json", `permutation`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(staticCache{data: []byte(tt.payload)}, nil, nil)
			res, err := runner.Execute(context.Background(), Options{Input: input})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if res.CacheHit {
				t.Error("bad entry should be a miss")
			}
			if !slices.Equal(res.Permutation, want.Permutation) {
				t.Errorf("Permutation = %v, want %v", res.Permutation, want.Permutation)
			}
		})
	}
}

func TestRender(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	ctx := context.Background()

	res, err := runner.Execute(ctx, Options{Input: writeInput(t, "path.txt", pathEdges)})
	if err != nil {
		t.Fatal(err)
	}

	dot, hit, err := runner.Render(ctx, res, RenderOptions{Format: FormatDOT})
	if err != nil {
		t.Fatalf("Render(dot) error: %v", err)
	}
	if hit {
		t.Error("first dot render should miss")
	}
	if !strings.Contains(string(dot), "graph") {
		t.Errorf("dot output missing graph header:\n%s", dot)
	}

	again, hit, err := runner.Render(ctx, res, RenderOptions{Format: FormatDOT})
	if err != nil {
		t.Fatal(err)
	}
	if !hit || !bytes.Equal(dot, again) {
		t.Error("second dot render should come from the cache")
	}

	spy, _, err := runner.Render(ctx, res, RenderOptions{Format: FormatSpy, Band: true})
	if err != nil {
		t.Fatalf("Render(spy) error: %v", err)
	}
	if !bytes.HasPrefix(spy, []byte("<svg")) {
		t.Errorf("spy output is not SVG: %.40s", spy)
	}
}

func TestRenderRejects(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	ctx := context.Background()

	if _, _, err := runner.Render(ctx, nil, RenderOptions{}); err == nil {
		t.Error("expected error for nil result")
	}

	b := graph.NewBuilder(MaxRenderNodes + 1)
	b.Undirected = true
	for v := 1; v <= MaxRenderNodes; v++ {
		if err := b.AddEdge(v-1, v); err != nil {
			t.Fatal(err)
		}
	}
	res, err := runner.Reorder(ctx, b.Build(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = runner.Render(ctx, res, RenderOptions{Format: FormatSVG})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("large svg render: got %v, want UNSUPPORTED", err)
	}
	if _, _, err := runner.Render(ctx, res, RenderOptions{Format: FormatSpy}); err != nil {
		t.Errorf("large spy render: %v", err)
	}
}
