package ops

import "github.com/chazu/meshwright/pkg/mesh"

// DeleteVertices removes the selected vertices and cascades: every face
// referencing a deleted vertex is removed too. Edges touching deleted
// elements disappear on the caller's edge rebuild.
func DeleteVertices(m *mesh.Mesh, sel []mesh.VertexID) *mesh.Mesh {
	live := liveVertices(m, sel)
	if len(live) == 0 {
		return m
	}
	out := m.Clone()
	gone := make(map[mesh.VertexID]bool, len(live))
	for _, id := range live {
		gone[id] = true
	}
	deadFaces := make(map[mesh.FaceID]bool)
	for i := range out.Faces {
		for _, v := range out.Faces[i].Verts {
			if gone[v] {
				deadFaces[out.Faces[i].ID] = true
				break
			}
		}
	}
	out.RemoveFaces(deadFaces)
	out.RemoveVertices(gone)
	return out
}

// DeleteEdges removes the faces that use the selected edges. Edges have no
// independent existence, so deleting an edge means deleting its faces; the
// endpoint vertices stay.
func DeleteEdges(m *mesh.Mesh, sel []mesh.EdgeID) *mesh.Mesh {
	live := liveEdges(m, sel)
	if len(live) == 0 {
		return m
	}
	deadFaces := make(map[mesh.FaceID]bool)
	for _, id := range live {
		for _, f := range m.EdgeByID(id).Faces {
			deadFaces[f] = true
		}
	}
	if len(deadFaces) == 0 {
		return m
	}
	out := m.Clone()
	out.RemoveFaces(deadFaces)
	return out
}

// DeleteFaces removes the selected faces and nothing else. Vertices are
// kept even when no remaining face references them.
func DeleteFaces(m *mesh.Mesh, sel []mesh.FaceID) *mesh.Mesh {
	live := liveFaces(m, sel)
	if len(live) == 0 {
		return m
	}
	out := m.Clone()
	dead := make(map[mesh.FaceID]bool, len(live))
	for _, id := range live {
		dead[id] = true
	}
	out.RemoveFaces(dead)
	return out
}
