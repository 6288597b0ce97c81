// Package ops implements the topological edit operators: delete, merge,
// extrude, inset, chamfer, fillet, knife, loop cut, triangulate, and
// subdivide.
//
// Every operator is a pure function from a mesh and an explicit selection
// to a new mesh. Inputs are never mutated; the result is a deep clone with
// the edit applied. A selection that is empty, stale (ids no longer in the
// mesh), or below the operator's minimum size returns the input mesh
// unchanged; operators never error on bad selections.
//
// Operators do not rebuild edges or recalculate normals. Callers batch
// those once after a run of edits (see store.Update).
package ops

import (
	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Selection helpers
// ---------------------------------------------------------------------------

// liveVertices filters sel down to ids present in m, deduplicated,
// preserving selection order.
func liveVertices(m *mesh.Mesh, sel []mesh.VertexID) []mesh.VertexID {
	seen := make(map[mesh.VertexID]bool, len(sel))
	out := make([]mesh.VertexID, 0, len(sel))
	for _, id := range sel {
		if seen[id] || m.VertexByID(id) == nil {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// liveFaces filters sel down to ids present in m, deduplicated, preserving
// selection order.
func liveFaces(m *mesh.Mesh, sel []mesh.FaceID) []mesh.FaceID {
	seen := make(map[mesh.FaceID]bool, len(sel))
	out := make([]mesh.FaceID, 0, len(sel))
	for _, id := range sel {
		if seen[id] || m.FaceByID(id) == nil {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// liveEdges filters sel down to ids present in m, deduplicated, preserving
// selection order.
func liveEdges(m *mesh.Mesh, sel []mesh.EdgeID) []mesh.EdgeID {
	seen := make(map[mesh.EdgeID]bool, len(sel))
	out := make([]mesh.EdgeID, 0, len(sel))
	for _, id := range sel {
		if seen[id] || m.EdgeByID(id) == nil {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// SelectionCentroid returns the mean position of the given vertices,
// ignoring ids not present in the mesh. The zero vector is returned for an
// empty selection.
func SelectionCentroid(m *mesh.Mesh, sel []mesh.VertexID) r3.Vec {
	var sum r3.Vec
	n := 0
	for _, id := range liveVertices(m, sel) {
		sum = r3.Add(sum, m.VertexByID(id).Position)
		n++
	}
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/float64(n), sum)
}

// SelectionNormal returns the average unit normal of the given faces, or
// +Z when the selection is empty or the average cancels out. Useful for
// extruding along the selection's facing direction.
func SelectionNormal(m *mesh.Mesh, sel []mesh.FaceID) r3.Vec {
	var sum r3.Vec
	for _, id := range liveFaces(m, sel) {
		sum = r3.Add(sum, m.FaceNormal(m.FaceByID(id)))
	}
	if r3.Norm(sum) < 1e-12 {
		return r3.Vec{Z: 1}
	}
	return r3.Scale(1/r3.Norm(sum), sum)
}

func lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}
