package modifier

import (
	"math"

	"github.com/chazu/meshwright/pkg/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ sdf.SDF3 = (*triangleField)(nil)

// triangleField samples a triangle soup as a signed distance field: the
// distance to the nearest triangle, negated inside the surface. The sign
// comes from the nearest triangle's normal, with near-ties resolved toward
// the triangle seen most face-on, which keeps points near shared edges from
// flipping sign. Evaluation is linear in the triangle count; the cost of a
// volume rebuild is cells³ times that.
type triangleField struct {
	tris    [][3]r3.Vec
	normals []r3.Vec
	bb      sdf.Box3
	iso     float64
}

// newTriangleField triangulates the mesh into a field, or returns nil when
// no usable (non-degenerate) triangles exist.
func newTriangleField(m *mesh.Mesh, iso float64) *triangleField {
	f := &triangleField{iso: iso}
	min := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i := range m.Faces {
		face := &m.Faces[i]
		for _, tri := range m.TriangulateFace(face) {
			va, vb, vc := m.VertexByID(tri[0]), m.VertexByID(tri[1]), m.VertexByID(tri[2])
			if va == nil || vb == nil || vc == nil {
				continue
			}
			a, b, c := va.Position, vb.Position, vc.Position
			n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
			if r3.Norm(n) < areaEps {
				continue
			}
			f.tris = append(f.tris, [3]r3.Vec{a, b, c})
			f.normals = append(f.normals, r3.Unit(n))
			for _, p := range []r3.Vec{a, b, c} {
				min.X, min.Y, min.Z = math.Min(min.X, p.X), math.Min(min.Y, p.Y), math.Min(min.Z, p.Z)
				max.X, max.Y, max.Z = math.Max(max.X, p.X), math.Max(max.Y, p.Y), math.Max(max.Z, p.Z)
			}
		}
	}
	if len(f.tris) == 0 {
		return nil
	}
	// Marching cubes needs outside samples on every side of the surface:
	// pad the box by a slice of its diagonal plus any outward iso offset.
	diag := r3.Norm(r3.Sub(max, min))
	pad := diag*0.1 + math.Max(iso, 0) + 1e-3
	f.bb = sdf.Box3{
		Min: v3.Vec{X: min.X - pad, Y: min.Y - pad, Z: min.Z - pad},
		Max: v3.Vec{X: max.X + pad, Y: max.Y + pad, Z: max.Z + pad},
	}
	return f
}

// Evaluate returns the signed distance from p to the field's surface.
func (f *triangleField) Evaluate(p v3.Vec) float64 {
	q := r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
	best := math.Inf(1)
	bestDot := 1.0
	const tie = 1e-12
	for i, tri := range f.tris {
		c := closestPointOnTriangle(q, tri[0], tri[1], tri[2])
		d := r3.Sub(q, c)
		d2 := r3.Dot(d, d)
		dot := r3.Dot(d, f.normals[i])
		switch {
		case d2 < best-tie:
			best, bestDot = d2, dot
		case d2 <= best+tie && math.Abs(dot) > math.Abs(bestDot):
			bestDot = dot
		}
	}
	dist := math.Sqrt(best)
	if bestDot < 0 {
		dist = -dist
	}
	return dist - f.iso
}

// BoundingBox returns the padded bounds of the source triangles.
func (f *triangleField) BoundingBox() sdf.Box3 {
	return f.bb
}

// applyVolumeToMesh rebuilds the surface through a marching cubes pass over
// the mesh's signed distance field. The result is uniform, watertight
// triangle topology regardless of how messy the input was; resolution (and
// cost) scale with CellCount.
func applyVolumeToMesh(m *mesh.Mesh, s VolumeToMeshSettings) *mesh.Mesh {
	if len(m.Faces) == 0 {
		return m
	}
	cells := s.CellCount
	if cells < 8 {
		cells = 8
	}
	field := newTriangleField(m, s.Iso)
	if field == nil {
		return m
	}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(field, renderer)
	if len(triangles) == 0 {
		return m
	}

	// Marching cubes emits disconnected triangles; weld shared corners back
	// into an indexed mesh by quantized position.
	out := mesh.New(m.Name)
	out.MaterialID = m.MaterialID
	out.Shading = m.Shading
	type gridKey struct{ x, y, z int64 }
	const quant = 1e6
	lookup := make(map[gridKey]mesh.VertexID)
	vertexFor := func(p v3.Vec) mesh.VertexID {
		k := gridKey{
			x: int64(math.Round(p.X * quant)),
			y: int64(math.Round(p.Y * quant)),
			z: int64(math.Round(p.Z * quant)),
		}
		if id, ok := lookup[k]; ok {
			return id
		}
		id := out.AddVertex(r3.Vec{X: p.X, Y: p.Y, Z: p.Z})
		lookup[k] = id
		return id
	}
	for _, tri := range triangles {
		a := vertexFor(tri.V[0])
		b := vertexFor(tri.V[1])
		c := vertexFor(tri.V[2])
		out.AddFace(a, b, c)
	}
	if out.IsEmpty() {
		return m
	}
	return out
}

// closestPointOnTriangle returns the point of triangle abc nearest to p
// (Ericson, Real-Time Collision Detection, §5.1.5).
func closestPointOnTriangle(p, a, b, c r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)
	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return r3.Add(a, r3.Scale(v, ab))
	}
	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return r3.Add(a, r3.Scale(w, ac))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b)))
	}
	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}
