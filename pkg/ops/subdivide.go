package ops

import (
	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Triangulate replaces every non-triangle face with its fan
// triangulation. Triangles pass through untouched; a mesh that is already
// all triangles is returned as-is.
func Triangulate(m *mesh.Mesh) *mesh.Mesh {
	needed := false
	for i := range m.Faces {
		if len(m.Faces[i].Verts) > 3 {
			needed = true
			break
		}
	}
	if !needed {
		return m
	}
	out := m.Clone()
	ids := make([]mesh.FaceID, 0, len(out.Faces))
	for i := range out.Faces {
		ids = append(ids, out.Faces[i].ID)
	}
	dead := make(map[mesh.FaceID]bool)
	for _, id := range ids {
		f := out.FaceByID(id)
		if len(f.Verts) <= 3 {
			continue
		}
		selected := f.Selected
		for _, tri := range out.TriangulateFace(f) {
			if nf := out.AddFace(tri[0], tri[1], tri[2]); nf != 0 {
				out.FaceByID(nf).Selected = selected
			}
		}
		dead[id] = true
	}
	out.RemoveFaces(dead)
	return out
}

// Subdivide triangulates the mesh and splits every triangle into four by
// inserting a vertex at each edge midpoint. Midpoints are shared between
// the two triangles of an edge through an unordered-pair cache, so the
// result stays watertight wherever the input was.
func Subdivide(m *mesh.Mesh) *mesh.Mesh {
	if m.FaceCount() == 0 {
		return m
	}
	out := Triangulate(m)
	if out == m {
		out = m.Clone()
	}

	mids := make(map[[2]mesh.VertexID]mesh.VertexID)
	midpoint := func(u, v mesh.VertexID) mesh.VertexID {
		k := [2]mesh.VertexID{u, v}
		if v < u {
			k = [2]mesh.VertexID{v, u}
		}
		if id, ok := mids[k]; ok {
			return id
		}
		id := out.AddVertex(lerp(out.VertexByID(u).Position, out.VertexByID(v).Position, 0.5))
		mids[k] = id
		return id
	}

	ids := make([]mesh.FaceID, 0, len(out.Faces))
	for i := range out.Faces {
		ids = append(ids, out.Faces[i].ID)
	}
	dead := make(map[mesh.FaceID]bool, len(ids))
	for _, id := range ids {
		f := out.FaceByID(id)
		v0, v1, v2 := f.Verts[0], f.Verts[1], f.Verts[2]
		selected := f.Selected
		m01 := midpoint(v0, v1)
		m12 := midpoint(v1, v2)
		m20 := midpoint(v2, v0)
		children := [4][3]mesh.VertexID{
			{v0, m01, m20},
			{v1, m12, m01},
			{v2, m20, m12},
			{m01, m12, m20},
		}
		for _, tri := range children {
			if nf := out.AddFace(tri[0], tri[1], tri[2]); nf != 0 {
				out.FaceByID(nf).Selected = selected
			}
		}
		dead[id] = true
	}
	out.RemoveFaces(dead)
	return out
}

// SubdivideOptions bundle repeated subdivision with the optional
// Laplacian smoothing pass that follows it.
type SubdivideOptions struct {
	Iterations       int     `json:"iterations"`        // subdivision passes, min 1
	Smooth           float64 `json:"smooth"`            // Laplacian blend factor, 0 disables
	SmoothIterations int     `json:"smooth_iterations"` // smoothing passes
}

// DefaultSubdivideOptions returns one unsmoothed subdivision pass.
func DefaultSubdivideOptions() SubdivideOptions {
	return SubdivideOptions{Iterations: 1, SmoothIterations: 1}
}

// SubdivideSmooth runs opts.Iterations subdivision passes and then, when
// opts.Smooth is positive, relaxes the result with Laplacian smoothing.
func SubdivideSmooth(m *mesh.Mesh, opts SubdivideOptions) *mesh.Mesh {
	if opts.Iterations < 1 {
		opts.Iterations = 1
	}
	out := m
	for i := 0; i < opts.Iterations; i++ {
		out = Subdivide(out)
	}
	if opts.Smooth > 0 && opts.SmoothIterations > 0 {
		out = SmoothLaplacian(out, opts.Smooth, opts.SmoothIterations)
	}
	return out
}

// SmoothLaplacian relaxes every vertex toward the centroid of its
// topological neighbors (all vertices sharing a face with it) by blend
// factor lambda, for the given number of iterations. Each iteration works
// from a position snapshot so all vertices move simultaneously. Vertices
// on no face keep their position.
func SmoothLaplacian(m *mesh.Mesh, lambda float64, iterations int) *mesh.Mesh {
	if lambda <= 0 || iterations <= 0 || m.FaceCount() == 0 {
		return m
	}
	if lambda > 1 {
		lambda = 1
	}
	out := m.Clone()

	neighbors := make(map[mesh.VertexID][]mesh.VertexID, len(out.Vertices))
	seen := make(map[[2]mesh.VertexID]bool)
	for i := range out.Faces {
		ring := out.Faces[i].Verts
		for _, v := range ring {
			for _, w := range ring {
				if v == w {
					continue
				}
				k := [2]mesh.VertexID{v, w}
				if seen[k] {
					continue
				}
				seen[k] = true
				neighbors[v] = append(neighbors[v], w)
			}
		}
	}

	for it := 0; it < iterations; it++ {
		prev := make(map[mesh.VertexID]r3.Vec, len(out.Vertices))
		for i := range out.Vertices {
			prev[out.Vertices[i].ID] = out.Vertices[i].Position
		}
		for i := range out.Vertices {
			v := &out.Vertices[i]
			ns := neighbors[v.ID]
			if len(ns) == 0 {
				continue
			}
			var sum r3.Vec
			for _, w := range ns {
				sum = r3.Add(sum, prev[w])
			}
			target := r3.Scale(1/float64(len(ns)), sum)
			v.Position = lerp(prev[v.ID], target, lambda)
		}
	}
	return out
}
