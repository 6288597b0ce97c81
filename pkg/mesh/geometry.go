package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// epsLen guards divisions by near-zero lengths so degenerate geometry
// produces a best-effort result instead of NaN.
const epsLen = 1e-9

// fallbackNormal stands in for the normal of a zero-area face.
var fallbackNormal = r3.Vec{Z: 1}

// faceNormalRaw computes the unnormalized Newell normal of a face. Its
// magnitude is twice the polygon area, which makes it directly usable as
// an area weight when accumulating vertex normals.
func (m *Mesh) faceNormalRaw(f *Face) r3.Vec {
	var n r3.Vec
	count := len(f.Verts)
	for i := 0; i < count; i++ {
		va := m.VertexByID(f.Verts[i])
		vb := m.VertexByID(f.Verts[(i+1)%count])
		if va == nil || vb == nil {
			continue
		}
		a, b := va.Position, vb.Position
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// FaceNormal returns the unit normal of a face using Newell's method,
// which stays stable for non-planar n-gons. Zero-area faces return a
// fixed fallback normal rather than NaN.
func (m *Mesh) FaceNormal(f *Face) r3.Vec {
	n := m.faceNormalRaw(f)
	if r3.Norm(n) < epsLen {
		return fallbackNormal
	}
	return r3.Unit(n)
}

// FaceCentroid returns the arithmetic mean of a face's vertex positions.
func (m *Mesh) FaceCentroid(f *Face) r3.Vec {
	var sum r3.Vec
	n := 0
	for _, id := range f.Verts {
		if v := m.VertexByID(id); v != nil {
			sum = r3.Add(sum, v.Position)
			n++
		}
	}
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/float64(n), sum)
}

// FaceArea returns the polygon area of a face (half the Newell magnitude).
func (m *Mesh) FaceArea(f *Face) float64 {
	return 0.5 * r3.Norm(m.faceNormalRaw(f))
}

// TriangulateFace returns the fan triangulation of a face's ring as
// vertex-id triples: identity for triangles, a two-triangle split for
// quads, and a fan from the first vertex for larger n-gons. The result is
// a view for consumers that need triangles; it is never stored on the
// mesh.
func (m *Mesh) TriangulateFace(f *Face) [][3]VertexID {
	ring := f.Verts
	switch len(ring) {
	case 0, 1, 2:
		return nil
	case 3:
		return [][3]VertexID{{ring[0], ring[1], ring[2]}}
	case 4:
		return [][3]VertexID{
			{ring[0], ring[1], ring[2]},
			{ring[0], ring[2], ring[3]},
		}
	default:
		tris := make([][3]VertexID, 0, len(ring)-2)
		for i := 1; i < len(ring)-1; i++ {
			tris = append(tris, [3]VertexID{ring[0], ring[i], ring[i+1]})
		}
		return tris
	}
}

// RecalculateNormals refreshes every face normal and recomputes vertex
// normals as the area-weighted average of incident face normals. Vertex
// normals only drive rendering when shading is smooth, but they are kept
// fresh regardless so consumers never read stale values.
func (m *Mesh) RecalculateNormals() {
	acc := make(map[VertexID]r3.Vec, len(m.Vertices))
	for i := range m.Faces {
		f := &m.Faces[i]
		raw := m.faceNormalRaw(f)
		if r3.Norm(raw) < epsLen {
			f.Normal = fallbackNormal
			continue
		}
		f.Normal = r3.Unit(raw)
		for _, id := range f.Verts {
			acc[id] = r3.Add(acc[id], raw)
		}
	}
	for i := range m.Vertices {
		v := &m.Vertices[i]
		sum, ok := acc[v.ID]
		if !ok || r3.Norm(sum) < epsLen {
			v.Normal = fallbackNormal
			continue
		}
		v.Normal = r3.Unit(sum)
	}
}
