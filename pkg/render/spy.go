package render

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/bandorder/pkg/graph"
)

// maxSpyCells caps the side of the drawn matrix. Larger graphs are binned so
// that each drawn cell covers several rows and columns.
const maxSpyCells = 512

type spyRenderer struct {
	cell     float64
	showBand bool
	color    string
}

// SpyOption configures [SpySVG].
type SpyOption func(*spyRenderer)

// WithCellSize sets the side of one matrix cell in pixels.
func WithCellSize(px float64) SpyOption { return func(r *spyRenderer) { r.cell = px } }

// WithBand shades the band |i-j| <= bandwidth around the diagonal.
func WithBand() SpyOption { return func(r *spyRenderer) { r.showBand = true } }

// WithColor sets the fill color of nonzero cells.
func WithColor(c string) SpyOption { return func(r *spyRenderer) { r.color = c } }

// SpySVG draws the sparsity pattern of g's adjacency matrix with rows and
// columns ordered by perm. A nil perm means the identity. Nodes missing from
// perm are left out.
func SpySVG(g graph.Graph, perm []graph.NodeID, opts ...SpyOption) []byte {
	r := spyRenderer{cell: 4, color: "#1f4e79"}
	for _, opt := range opts {
		opt(&r)
	}

	if perm == nil {
		perm = graph.Identity(g.NodeCount())
	}
	rank := graph.Rank(perm, g.NodeCount())
	n := len(perm)

	bin := 1
	if n > maxSpyCells {
		bin = (n + maxSpyCells - 1) / maxSpyCells
	}
	cells := (n + bin - 1) / bin
	size := float64(cells) * r.cell

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		size, size, size, size)
	fmt.Fprintf(&buf, `  <rect width="%.1f" height="%.1f" fill="white" stroke="#999"/>`+"\n", size, size)

	if r.showBand && n > 0 {
		bw := float64(graph.Bandwidth(g, perm)) / float64(bin)
		renderBand(&buf, size, (bw+1)*r.cell)
	}

	seen := make(map[[2]int]struct{})
	for i, u := range perm {
		for _, v := range g.Neighbors(u) {
			j := rank[v]
			if j < 0 {
				continue
			}
			key := [2]int{i / bin, j / bin}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
				float64(key[1])*r.cell, float64(key[0])*r.cell, r.cell, r.cell, r.color)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// renderBand shades the diagonal strip of half-width w.
func renderBand(buf *bytes.Buffer, size, w float64) {
	w = min(w, size)
	fmt.Fprintf(buf, `  <polygon points="0,0 %.1f,0 %.1f,%.1f %.1f,%.1f %.1f,%.1f 0,%.1f" fill="#f2d7a6" opacity="0.6"/>`+"\n",
		w, size, size-w, size, size, size-w, size, w)
}
