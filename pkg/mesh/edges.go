package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// pairKey is an unordered vertex-id pair used to deduplicate edges.
type pairKey struct {
	lo, hi VertexID
}

func makePairKey(a, b VertexID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// posKey quantizes a position to integer micro-units so seam lookups
// tolerate floating-point noise.
func posKey(p r3.Vec) string {
	return fmt.Sprintf("%d,%d,%d",
		int64(math.Round(p.X*1e6)),
		int64(math.Round(p.Y*1e6)),
		int64(math.Round(p.Z*1e6)))
}

// edgePosKey builds an order-independent key from the positions of the
// edge's two endpoints. Seam flags are carried across rebuilds by this
// key because edge ids are regenerated every rebuild.
func (m *Mesh) edgePosKey(a, b VertexID) (string, bool) {
	va := m.VertexByID(a)
	vb := m.VertexByID(b)
	if va == nil || vb == nil {
		return "", false
	}
	ka := posKey(va.Position)
	kb := posKey(vb.Position)
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "|" + kb, true
}

// RebuildEdges derives the edge list from the current faces: walk every
// face's consecutive vertex pairs, deduplicate by unordered id pair, and
// record the incident faces per edge. Must be re-run after every
// topology-changing operation; the store does this once per update so
// operators can batch.
//
// Edge ids are freshly allocated, so they do not survive a rebuild. Seam
// flags do: they are re-associated by quantized endpoint position.
func (m *Mesh) RebuildEdges() {
	seams := make(map[string]bool)
	for i := range m.Edges {
		e := &m.Edges[i]
		if !e.Seam {
			continue
		}
		if key, ok := m.edgePosKey(e.Verts[0], e.Verts[1]); ok {
			seams[key] = true
		}
	}

	type edgeRec struct {
		a, b  VertexID
		faces []FaceID
	}
	index := make(map[pairKey]int)
	recs := make([]edgeRec, 0, len(m.Faces)*2)

	for fi := range m.Faces {
		f := &m.Faces[fi]
		n := len(f.Verts)
		for i := 0; i < n; i++ {
			a := f.Verts[i]
			b := f.Verts[(i+1)%n]
			if a == b {
				continue
			}
			key := makePairKey(a, b)
			ri, ok := index[key]
			if !ok {
				ri = len(recs)
				index[key] = ri
				recs = append(recs, edgeRec{a: key.lo, b: key.hi})
			}
			recs[ri].faces = append(recs[ri].faces, f.ID)
		}
	}

	m.Edges = make([]Edge, len(recs))
	for i, rec := range recs {
		id := m.NextEdgeID
		m.NextEdgeID++
		seam := false
		if len(seams) > 0 {
			if key, ok := m.edgePosKey(rec.a, rec.b); ok {
				seam = seams[key]
			}
		}
		m.Edges[i] = Edge{
			ID:    id,
			Verts: [2]VertexID{rec.a, rec.b},
			Faces: rec.faces,
			Seam:  seam,
		}
	}
	m.edgeIndex = nil
	m.pairIndex = nil
}

// MarkSeam flags (or clears) the seam bit on the edge between a and b.
// It reports whether such an edge exists in the current edge list.
func (m *Mesh) MarkSeam(a, b VertexID, seam bool) bool {
	e := m.EdgeBetween(a, b)
	if e == nil {
		return false
	}
	e.Seam = seam
	return true
}
