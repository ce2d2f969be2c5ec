package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/graph"
)

// Layout engines accepted by [RenderSVG].
const (
	LayoutDot   = "dot"
	LayoutNeato = "neato"
	LayoutFDP   = "fdp"
	LayoutSFDP  = "sfdp"
	LayoutCirco = "circo"
)

var layouts = map[string]graphviz.Layout{
	LayoutDot:   graphviz.DOT,
	LayoutNeato: graphviz.NEATO,
	LayoutFDP:   graphviz.FDP,
	LayoutSFDP:  graphviz.SFDP,
	LayoutCirco: graphviz.CIRCO,
}

// ValidateLayout checks that name is a supported layout engine.
func ValidateLayout(name string) error {
	if _, ok := layouts[name]; !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid layout %q (must be one of: dot, neato, fdp, sfdp, circo)", name)
	}
	return nil
}

// DOTOptions configures DOT output.
type DOTOptions struct {
	// Directed draws every stored edge as an arrow. Otherwise a symmetric
	// pair u->v, v->u is drawn once as u -- v.
	Directed bool

	// RankOnly labels nodes with their rank alone instead of "id\n#rank".
	RankOnly bool
}

// ToDOT converts g to Graphviz DOT. Nodes are emitted in permutation order;
// a nil perm means the identity.
func ToDOT(g graph.Graph, perm []graph.NodeID, opts DOTOptions) string {
	n := g.NodeCount()
	if perm == nil {
		perm = graph.Identity(n)
	}
	rank := graph.Rank(perm, n)

	var buf bytes.Buffer
	kind, arrow := "graph", "--"
	if opts.Directed {
		kind, arrow = "digraph", "->"
	}
	fmt.Fprintf(&buf, "%s G {\n", kind)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for _, v := range perm {
		fmt.Fprintf(&buf, "  %d [label=%q];\n", v, label(v, rank[v], opts.RankOnly))
	}
	for v := range n {
		if rank[v] < 0 {
			fmt.Fprintf(&buf, "  %d [label=%q, style=\"filled,dashed\", fillcolor=lightgrey];\n", v, strconv.Itoa(v))
		}
	}

	buf.WriteString("\n")
	for u := range n {
		for _, v := range g.Neighbors(graph.NodeID(u)) {
			if !opts.Directed && int(v) < u && hasEdge(g, v, graph.NodeID(u)) {
				continue
			}
			fmt.Fprintf(&buf, "  %d %s %d;\n", u, arrow, v)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(v graph.NodeID, rank int, rankOnly bool) string {
	if rankOnly {
		return strconv.Itoa(rank)
	}
	return fmt.Sprintf("%d\n#%d", v, rank)
}

// hasEdge reports whether u->v is stored. Adjacency lists from a Builder are
// sorted, but arbitrary Graph implementations need not be, so scan.
func hasEdge(g graph.Graph, u, v graph.NodeID) bool {
	for _, w := range g.Neighbors(u) {
		if w == v {
			return true
		}
	}
	return false
}

// RenderSVG lays out a DOT graph with the named engine and returns SVG.
func RenderSVG(ctx context.Context, dot string, layout string) ([]byte, error) {
	engine, ok := layouts[layout]
	if !ok {
		return nil, ValidateLayout(layout)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(engine)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based <svg> header with one
// that scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
