package ops

import (
	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// ExtrudeFaces pulls the selected faces out along offset. Every vertex the
// selection references is duplicated once at its offset position, the
// selected faces are rebuilt as caps over the duplicates, and each boundary
// edge of the selection (an edge used by exactly one selected face) gains
// a side quad stitching the cap back to the original rim. Interior edges
// between two selected faces get no side walls, so adjacent faces extrude
// as one block.
func ExtrudeFaces(m *mesh.Mesh, sel []mesh.FaceID, offset r3.Vec) *mesh.Mesh {
	live := liveFaces(m, sel)
	if len(live) == 0 {
		return m
	}
	out := m.Clone()
	selected := make(map[mesh.FaceID]bool, len(live))
	for _, id := range live {
		selected[id] = true
	}

	// Count edge use within the selection, remembering the ring direction
	// the edge was first traversed in. Boundary edges keep that direction
	// for the side-quad winding.
	type orderedEdge struct {
		a, b  mesh.VertexID
		count int
	}
	edges := make(map[[2]mesh.VertexID]*orderedEdge)
	keyOf := func(a, b mesh.VertexID) [2]mesh.VertexID {
		if a < b {
			return [2]mesh.VertexID{a, b}
		}
		return [2]mesh.VertexID{b, a}
	}
	for _, id := range live {
		ring := out.FaceByID(id).Verts
		for i, a := range ring {
			b := ring[(i+1)%len(ring)]
			k := keyOf(a, b)
			if e, ok := edges[k]; ok {
				e.count++
			} else {
				edges[k] = &orderedEdge{a: a, b: b, count: 1}
			}
		}
	}

	dup := make(map[mesh.VertexID]mesh.VertexID)
	for _, id := range live {
		for _, v := range out.FaceByID(id).Verts {
			if _, ok := dup[v]; ok {
				continue
			}
			dup[v] = out.AddVertex(r3.Add(out.VertexByID(v).Position, offset))
		}
	}

	for _, id := range live {
		ring := out.FaceByID(id).Verts
		lid := make([]mesh.VertexID, len(ring))
		for i, v := range ring {
			lid[i] = dup[v]
		}
		out.AddFace(lid...)
	}
	for _, e := range edges {
		if e.count == 1 {
			out.AddFace(e.a, e.b, dup[e.b], dup[e.a])
		}
	}
	out.RemoveFaces(selected)
	return out
}
