package ops

import (
	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// ApplyPositions moves the given vertices to new positions. This is the
// commit path for the pure-transform tools (move, rotate, scale): the tool
// session computes final positions from its snapshot and this operator
// writes them into a fresh mesh. Ids not present in the mesh are ignored;
// an empty or fully stale map is a no-op.
func ApplyPositions(m *mesh.Mesh, positions map[mesh.VertexID]r3.Vec) *mesh.Mesh {
	applicable := 0
	for id := range positions {
		if m.VertexByID(id) != nil {
			applicable++
		}
	}
	if applicable == 0 {
		return m
	}
	out := m.Clone()
	for id, pos := range positions {
		if v := out.VertexByID(id); v != nil {
			v.Position = pos
		}
	}
	return out
}
