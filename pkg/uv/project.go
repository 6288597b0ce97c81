package uv

import (
	"math"

	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ProjectPlanar writes per-vertex UVs by flattening positions along the
// given axis (AxisNone projects along Z) and normalizing by the mesh's
// bounding box, so coordinates land in [0,1]. Per-loop UVs are cleared:
// projections define one shared map.
func ProjectPlanar(m *mesh.Mesh, axis mesh.Axis) {
	if m.VertexCount() == 0 {
		return
	}
	min, size := bounds(m)
	for i := range m.Vertices {
		p := m.Vertices[i].Position
		var u, v float64
		switch axis {
		case mesh.AxisX:
			u = (p.Y - min.Y) / span(size.Y)
			v = (p.Z - min.Z) / span(size.Z)
		case mesh.AxisY:
			u = (p.X - min.X) / span(size.X)
			v = (p.Z - min.Z) / span(size.Z)
		default:
			u = (p.X - min.X) / span(size.X)
			v = (p.Y - min.Y) / span(size.Y)
		}
		m.Vertices[i].UV = r2.Vec{X: u, Y: v}
	}
	clearLoopUVs(m)
}

// ProjectSphere writes per-vertex UVs by latitude/longitude around the
// bounding-box center: u wraps around Z with the seam at -X, v runs 0 at
// the south pole to 1 at the north pole.
func ProjectSphere(m *mesh.Mesh) {
	if m.VertexCount() == 0 {
		return
	}
	min, size := bounds(m)
	center := r3.Add(min, r3.Scale(0.5, size))
	for i := range m.Vertices {
		d := r3.Sub(m.Vertices[i].Position, center)
		r := r3.Norm(d)
		if r < epsUV {
			m.Vertices[i].UV = r2.Vec{X: 0.5, Y: 0.5}
			continue
		}
		u := (math.Atan2(d.Y, d.X) + math.Pi) / (2 * math.Pi)
		v := 1 - math.Acos(clamp1(d.Z/r))/math.Pi
		m.Vertices[i].UV = r2.Vec{X: u, Y: v}
	}
	clearLoopUVs(m)
}

// ProjectCube writes per-vertex UVs by the dominant axis of each vertex's
// offset from the bounding-box center, projecting the two remaining
// coordinates normalized by the bounding box.
func ProjectCube(m *mesh.Mesh) {
	if m.VertexCount() == 0 {
		return
	}
	min, size := bounds(m)
	center := r3.Add(min, r3.Scale(0.5, size))
	for i := range m.Vertices {
		p := m.Vertices[i].Position
		d := r3.Sub(p, center)
		ax, ay, az := math.Abs(d.X), math.Abs(d.Y), math.Abs(d.Z)
		var u, v float64
		switch {
		case ax >= ay && ax >= az:
			u = (p.Y - min.Y) / span(size.Y)
			v = (p.Z - min.Z) / span(size.Z)
		case ay >= ax && ay >= az:
			u = (p.X - min.X) / span(size.X)
			v = (p.Z - min.Z) / span(size.Z)
		default:
			u = (p.X - min.X) / span(size.X)
			v = (p.Y - min.Y) / span(size.Y)
		}
		m.Vertices[i].UV = r2.Vec{X: u, Y: v}
	}
	clearLoopUVs(m)
}

// bounds returns the mesh's axis-aligned bounding-box minimum and size.
func bounds(m *mesh.Mesh) (r3.Vec, r3.Vec) {
	min := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i := range m.Vertices {
		p := m.Vertices[i].Position
		min.X, min.Y, min.Z = math.Min(min.X, p.X), math.Min(min.Y, p.Y), math.Min(min.Z, p.Z)
		max.X, max.Y, max.Z = math.Max(max.X, p.X), math.Max(max.Y, p.Y), math.Max(max.Z, p.Z)
	}
	return min, r3.Sub(max, min)
}

// span guards bounding-box divisions against flat axes.
func span(v float64) float64 {
	if v < epsUV {
		return 1
	}
	return v
}

func clearLoopUVs(m *mesh.Mesh) {
	for i := range m.Faces {
		m.Faces[i].UVs = nil
	}
}
