// Package uv generates texture coordinates for polygon meshes: island
// segmentation along seams and creases, planar and per-face unwrapping,
// shelf packing into the unit square, and fixed planar/sphere/cube
// projections.
//
// Unwrap and Pack write per-loop coordinates into Face.UVs so islands can
// split at shared vertices. The fixed projections write shared per-vertex
// coordinates into Vertex.UV and clear any per-loop data.
package uv

import (
	"math"

	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const epsUV = 1e-9

// Options controls island segmentation and unwrapping.
type Options struct {
	// AngleLimit is the largest dihedral angle (radians) that still joins
	// two neighboring faces into one island when UseAngle is set. Half of
	// it doubles as the curvature threshold that switches an island from
	// planar to per-face unwrapping.
	AngleLimit float64 `json:"angle_limit"`
	// UseSeams splits islands at edges flagged as seams.
	UseSeams bool `json:"use_seams"`
	// UseAngle splits islands at edges creased past AngleLimit.
	UseAngle bool `json:"use_angle"`
}

// DefaultOptions returns the editor defaults: both split rules on, 66°.
func DefaultOptions() Options {
	return Options{AngleLimit: 66 * math.Pi / 180, UseSeams: true, UseAngle: true}
}

// Island is a connected group of faces that unwraps as one chart.
type Island struct {
	Faces []mesh.FaceID
	Verts map[mesh.VertexID]bool
}

// Islands segments the mesh into connected face groups by breadth-first
// search over face adjacency, refusing to cross seam edges and/or edges
// whose faces crease past the angle limit. Faces are visited in mesh order
// so island numbering is deterministic.
func Islands(m *mesh.Mesh, opts Options) []Island {
	if m.FaceCount() == 0 {
		return nil
	}
	type pairT [2]mesh.VertexID
	pairOf := func(a, b mesh.VertexID) pairT {
		if a < b {
			return pairT{a, b}
		}
		return pairT{b, a}
	}

	normals := make([]r3.Vec, len(m.Faces))
	edgeFaces := make(map[pairT][]int)
	for i := range m.Faces {
		f := &m.Faces[i]
		normals[i] = m.FaceNormal(f)
		n := len(f.Verts)
		for j, v := range f.Verts {
			k := pairOf(v, f.Verts[(j+1)%n])
			edgeFaces[k] = append(edgeFaces[k], i)
		}
	}

	linked := func(a, b int, va, vb mesh.VertexID) bool {
		if opts.UseSeams {
			if e := m.EdgeBetween(va, vb); e != nil && e.Seam {
				return false
			}
		}
		if opts.UseAngle {
			cos := clamp1(r3.Dot(normals[a], normals[b]))
			if math.Acos(cos) > opts.AngleLimit {
				return false
			}
		}
		return true
	}

	assigned := make([]bool, len(m.Faces))
	var islands []Island
	for start := range m.Faces {
		if assigned[start] {
			continue
		}
		assigned[start] = true
		queue := []int{start}
		isl := Island{Verts: make(map[mesh.VertexID]bool)}
		for len(queue) > 0 {
			fi := queue[0]
			queue = queue[1:]
			f := &m.Faces[fi]
			isl.Faces = append(isl.Faces, f.ID)
			n := len(f.Verts)
			for j, v := range f.Verts {
				isl.Verts[v] = true
				w := f.Verts[(j+1)%n]
				for _, other := range edgeFaces[pairOf(v, w)] {
					if other == fi || assigned[other] || !linked(fi, other, v, w) {
						continue
					}
					assigned[other] = true
					queue = append(queue, other)
				}
			}
		}
		islands = append(islands, isl)
	}
	return islands
}

func clamp1(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// tangentBasis returns two unit vectors spanning the plane perpendicular
// to n, forming a right-handed frame with it.
func tangentBasis(n r3.Vec) (r3.Vec, r3.Vec) {
	ref := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	t1 := r3.Cross(n, ref)
	t1 = r3.Scale(1/r3.Norm(t1), t1)
	t2 := r3.Cross(n, t1)
	return t1, t2
}
