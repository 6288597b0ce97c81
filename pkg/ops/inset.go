package ops

import "github.com/chazu/meshwright/pkg/mesh"

// InsetFaces shrinks each selected face toward its own centroid by amount
// (0..1, the interpolation fraction) and bridges old and new rings with
// quads. Faces are inset independently: shared vertices between two
// selected faces are duplicated per face, never merged. The original face
// is replaced by the inner face plus one ring quad per original edge.
func InsetFaces(m *mesh.Mesh, sel []mesh.FaceID, amount float64) *mesh.Mesh {
	live := liveFaces(m, sel)
	if len(live) == 0 || amount <= 0 {
		return m
	}
	out := m.Clone()
	dead := make(map[mesh.FaceID]bool, len(live))
	for _, id := range live {
		f := out.FaceByID(id)
		center := out.FaceCentroid(f)
		ring := f.Verts
		inner := make([]mesh.VertexID, len(ring))
		for i, v := range ring {
			inner[i] = out.AddVertex(lerp(out.VertexByID(v).Position, center, amount))
		}
		out.AddFace(inner...)
		for i := range ring {
			j := (i + 1) % len(ring)
			out.AddFace(ring[i], ring[j], inner[j], inner[i])
		}
		dead[id] = true
	}
	out.RemoveFaces(dead)
	return out
}
