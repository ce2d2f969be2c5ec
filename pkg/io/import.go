package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/graph"
)

// maxLine bounds the length of a single text line.
const maxLine = 1 << 20

// DefaultMaxNodes is the node count readers accept when
// [ReadOptions.MaxNodes] is zero. Every node costs memory before a single
// edge is read, so declared sizes are checked up front.
const DefaultMaxNodes = 10_000_000

// ReadOptions controls how a graph is read.
type ReadOptions struct {
	// Format selects the parser. Empty means detect from the path in Import;
	// Read requires it.
	Format Format

	// Directed keeps edges one-way instead of mirroring them.
	Directed bool

	// MaxNodes rejects graphs with more nodes with INVALID_GRAPH. Zero means
	// [DefaultMaxNodes].
	MaxNodes int
}

func (o ReadOptions) maxNodes() int {
	if o.MaxNodes <= 0 {
		return DefaultMaxNodes
	}
	return o.MaxNodes
}

func (o ReadOptions) builder(n int) *graph.Builder {
	b := graph.NewBuilder(n)
	b.Limit = o.maxNodes()
	b.Undirected = !o.Directed
	return b
}

func tooManyNodes(n, limit int) error {
	return errors.New(errors.ErrCodeInvalidGraph, "graph declares %d nodes, limit is %d", n, limit)
}

// Import reads the graph stored at path.
func Import(path string, opts ReadOptions) (*graph.CSR, error) {
	if opts.Format == "" {
		f, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		opts.Format = f
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s not found", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return g, nil
}

// Read decodes a graph in opts.Format from r. Read does not close r.
func Read(r io.Reader, opts ReadOptions) (*graph.CSR, error) {
	switch opts.Format {
	case FormatJSON:
		return readJSON(r, opts)
	case FormatEdgeList:
		return readEdgeList(r, opts)
	case FormatMatrixMarket:
		return readMatrixMarket(r, opts)
	case "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "graph format not specified")
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown graph format %q", opts.Format)
}

// Document is the JSON form of a graph.
type Document struct {
	Nodes    int      `json:"nodes"`
	Edges    [][2]int `json:"edges"`
	Directed bool     `json:"directed,omitempty"`
}

// Build converts the document into a graph with the default node limit.
// Edges are mirrored unless the document or directed says otherwise.
func (d Document) Build(directed bool) (*graph.CSR, error) {
	return d.BuildWith(ReadOptions{Directed: directed})
}

// BuildWith is Build with explicit read options. The node count is checked
// against opts.MaxNodes before anything is allocated.
func (d Document) BuildWith(opts ReadOptions) (*graph.CSR, error) {
	if d.Nodes < 0 {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "negative node count %d", d.Nodes)
	}
	if lim := opts.maxNodes(); d.Nodes > lim {
		return nil, tooManyNodes(d.Nodes, lim)
	}
	opts.Directed = opts.Directed || d.Directed
	b := opts.builder(d.Nodes)
	for i, e := range d.Edges {
		if e[0] >= d.Nodes || e[1] >= d.Nodes {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "edge %d (%d, %d) references a node outside [0, %d)", i, e[0], e[1], d.Nodes)
		}
		if err := b.AddEdge(e[0], e[1]); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return b.Build(), nil
}

// ReadJSON decodes a JSON graph document from r.
func ReadJSON(r io.Reader, directed bool) (*graph.CSR, error) {
	return readJSON(r, ReadOptions{Directed: directed})
}

func readJSON(r io.Reader, opts ReadOptions) (*graph.CSR, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json graph")
	}
	return doc.BuildWith(opts)
}

// ReadEdgeList parses a whitespace separated edge list with 0-based ids. The
// node count is one more than the largest id seen.
func ReadEdgeList(r io.Reader, directed bool) (*graph.CSR, error) {
	return readEdgeList(r, ReadOptions{Directed: directed})
}

func readEdgeList(r io.Reader, opts ReadOptions) (*graph.CSR, error) {
	b := opts.builder(0)

	err := scanLines(r, func(ln int, line string) error {
		if line == "" || line[0] == '#' || line[0] == '%' {
			return nil
		}
		from, to, err := parsePair(line)
		if err != nil {
			return lineError(ln, err)
		}
		if err := b.AddEdge(from, to); err != nil {
			return lineError(ln, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b.Build(), nil
}

// ReadMatrixMarket parses a Matrix Market coordinate file.
func ReadMatrixMarket(r io.Reader, directed bool) (*graph.CSR, error) {
	return readMatrixMarket(r, ReadOptions{Directed: directed})
}

func readMatrixMarket(r io.Reader, opts ReadOptions) (*graph.CSR, error) {
	var (
		b         *graph.Builder
		header    bool
		symmetric bool
		n, nnz    int
		entries   int
	)

	err := scanLines(r, func(ln int, line string) error {
		if !header {
			sym, err := parseBanner(line)
			if err != nil {
				return lineError(ln, err)
			}
			header, symmetric = true, sym
			return nil
		}
		if line == "" || line[0] == '%' {
			return nil
		}

		fields := strings.Fields(line)
		if b == nil {
			if len(fields) != 3 {
				return lineError(ln, fmt.Errorf("size line needs rows, columns and entries, got %q", line))
			}
			dims, err := atois(fields)
			if err != nil {
				return lineError(ln, err)
			}
			if dims[0] != dims[1] {
				return lineError(ln, fmt.Errorf("matrix is %dx%d, want square", dims[0], dims[1]))
			}
			if dims[0] < 0 || dims[2] < 0 {
				return lineError(ln, fmt.Errorf("negative size in %q", line))
			}
			if lim := opts.maxNodes(); dims[0] > lim {
				return lineError(ln, tooManyNodes(dims[0], lim))
			}
			n, nnz = dims[0], dims[2]
			b = opts.builder(n)
			b.Undirected = symmetric || !opts.Directed
			return nil
		}

		if len(fields) < 2 {
			return lineError(ln, fmt.Errorf("entry needs row and column, got %q", line))
		}
		ij, err := atois(fields[:2])
		if err != nil {
			return lineError(ln, err)
		}
		i, j := ij[0], ij[1]
		if i < 1 || i > n || j < 1 || j > n {
			return lineError(ln, fmt.Errorf("entry (%d, %d) outside %dx%d matrix", i, j, n, n))
		}
		entries++
		if err := b.AddEdge(i-1, j-1); err != nil {
			return lineError(ln, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !header {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "missing %%%%MatrixMarket header")
	}
	if b == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "missing size line")
	}
	if entries != nnz {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "header declares %d entries, found %d", nnz, entries)
	}
	return b.Build(), nil
}

// parseBanner checks the %%MatrixMarket line and reports whether the matrix
// is stored as one triangle of a symmetric matrix.
func parseBanner(line string) (bool, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) != 5 || fields[0] != "%%matrixmarket" {
		return false, fmt.Errorf("expected %%%%MatrixMarket header, got %q", line)
	}
	if fields[1] != "matrix" || fields[2] != "coordinate" {
		return false, errors.New(errors.ErrCodeUnsupported, "only coordinate matrices are supported, got %s %s", fields[1], fields[2])
	}
	switch fields[4] {
	case "general":
		return false, nil
	case "symmetric", "skew-symmetric", "hermitian":
		return true, nil
	}
	return false, fmt.Errorf("unknown symmetry %q", fields[4])
}

func parsePair(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("expected \"from to\", got %q", line)
	}
	v, err := atois(fields[:2])
	if err != nil {
		return 0, 0, err
	}
	return v[0], v[1], nil
}

func atois(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func scanLines(r io.Reader, fn func(ln int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	ln := 0
	for sc.Scan() {
		ln++
		if err := fn(ln, strings.TrimSpace(sc.Text())); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "line %d", ln+1)
	}
	return nil
}

// lineError attaches a line number. Coded errors keep their code.
func lineError(ln int, err error) error {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInvalidFormat
	}
	return errors.Wrap(code, err, "line %d", ln)
}
