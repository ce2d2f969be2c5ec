package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/graph"
)

// PermFormat names an output format for permutations.
type PermFormat string

const (
	PermJSON PermFormat = "json"
	PermText PermFormat = "text"
)

// ParsePermFormat validates a permutation format name.
func ParsePermFormat(s string) (PermFormat, error) {
	switch f := PermFormat(s); f {
	case PermJSON, PermText:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unknown permutation format %q (want json or text)", s)
}

// Permutation is the JSON form of a computed ordering.
type Permutation struct {
	Source      graph.NodeID   `json:"source"`
	Reverse     bool           `json:"reverse,omitempty"`
	Permutation []graph.NodeID `json:"permutation"`
}

// WritePermutation writes p to w. The text format has one node id per line,
// in placement order.
func WritePermutation(w io.Writer, p Permutation, format PermFormat) error {
	switch format {
	case PermJSON, "":
		if p.Permutation == nil {
			p.Permutation = []graph.NodeID{}
		}
		enc := json.NewEncoder(w)
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case PermText:
		bw := bufio.NewWriter(w)
		buf := make([]byte, 0, 16)
		for _, v := range p.Permutation {
			buf = strconv.AppendUint(buf[:0], uint64(v), 10)
			buf = append(buf, '\n')
			if _, err := bw.Write(buf); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
		return bw.Flush()
	}
	return errors.New(errors.ErrCodeUnsupported, "unknown permutation format %q", format)
}

// ExportPermutation writes p to a file at path.
func ExportPermutation(path string, p Permutation, format PermFormat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePermutation(f, p, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteJSON encodes g as a directed JSON document, which [ReadJSON] reads
// back into the same adjacency.
func WriteJSON(g *graph.CSR, w io.Writer) error {
	doc := Document{
		Nodes:    g.NodeCount(),
		Edges:    make([][2]int, 0, g.EdgeCount()),
		Directed: true,
	}
	for u, v := range g.Edges() {
		doc.Edges = append(doc.Edges, [2]int{int(u), int(v)})
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes g to a JSON file at path.
func ExportJSON(g *graph.CSR, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
