package graph

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a stable 16-character hex digest of the graph topology.
// Two graphs with the same node count and identical adjacency lists (in the
// same order) share a fingerprint.
func Fingerprint(g Graph) string {
	d := xxhash.New()
	buf := make([]byte, 0, 4096)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(g.NodeCount()))
	for n := range g.NodeCount() {
		nbrs := g.Neighbors(NodeID(n))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(nbrs)))
		for _, m := range nbrs {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(m))
		}
		if len(buf) >= 4096 {
			_, _ = d.Write(buf)
			buf = buf[:0]
		}
	}
	_, _ = d.Write(buf)

	s := strconv.FormatUint(d.Sum64(), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}
