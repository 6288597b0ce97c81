// Package shape builds primitive polygon meshes: planes, grids, cubes,
// cylinders, and UV spheres. Returned meshes are centered at the origin
// with outward CCW winding, edges derived, and normals computed.
package shape

import (
	"math"

	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// finish derives edges and normals; every constructor ends here.
func finish(m *mesh.Mesh) *mesh.Mesh {
	m.RebuildEdges()
	m.RecalculateNormals()
	return m
}

// Plane returns a single quad of the given side length in the XY plane,
// facing +Z.
func Plane(size float64) *mesh.Mesh {
	h := size / 2
	m := mesh.New("plane")
	a := m.AddVertex(r3.Vec{X: -h, Y: -h})
	b := m.AddVertex(r3.Vec{X: h, Y: -h})
	c := m.AddVertex(r3.Vec{X: h, Y: h})
	d := m.AddVertex(r3.Vec{X: -h, Y: h})
	m.AddFace(a, b, c, d)
	return finish(m)
}

// Grid returns an nx×ny grid of quads spanning size×size in the XY plane,
// facing +Z. nx and ny are clamped to at least 1.
func Grid(nx, ny int, size float64) *mesh.Mesh {
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	m := mesh.New("grid")
	dx := size / float64(nx)
	dy := size / float64(ny)
	ids := make([][]mesh.VertexID, ny+1)
	for y := 0; y <= ny; y++ {
		ids[y] = make([]mesh.VertexID, nx+1)
		for x := 0; x <= nx; x++ {
			ids[y][x] = m.AddVertex(r3.Vec{
				X: -size/2 + float64(x)*dx,
				Y: -size/2 + float64(y)*dy,
			})
		}
	}
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			m.AddFace(ids[y][x], ids[y][x+1], ids[y+1][x+1], ids[y+1][x])
		}
	}
	return finish(m)
}

// Cube returns an axis-aligned cube with the given edge length: 8
// vertices, 6 quad faces.
func Cube(size float64) *mesh.Mesh {
	h := size / 2
	m := mesh.New("cube")
	v := [8]mesh.VertexID{
		m.AddVertex(r3.Vec{X: -h, Y: -h, Z: -h}),
		m.AddVertex(r3.Vec{X: h, Y: -h, Z: -h}),
		m.AddVertex(r3.Vec{X: h, Y: h, Z: -h}),
		m.AddVertex(r3.Vec{X: -h, Y: h, Z: -h}),
		m.AddVertex(r3.Vec{X: -h, Y: -h, Z: h}),
		m.AddVertex(r3.Vec{X: h, Y: -h, Z: h}),
		m.AddVertex(r3.Vec{X: h, Y: h, Z: h}),
		m.AddVertex(r3.Vec{X: -h, Y: h, Z: h}),
	}
	m.AddFace(v[0], v[3], v[2], v[1]) // bottom -z
	m.AddFace(v[4], v[5], v[6], v[7]) // top +z
	m.AddFace(v[0], v[1], v[5], v[4]) // front -y
	m.AddFace(v[2], v[3], v[7], v[6]) // back +y
	m.AddFace(v[3], v[0], v[4], v[7]) // left -x
	m.AddFace(v[1], v[2], v[6], v[5]) // right +x
	return finish(m)
}

// Cylinder returns a closed cylinder along Z, centered at the origin:
// side quads plus two n-gon caps. segments is clamped to at least 3.
func Cylinder(radius, height float64, segments int) *mesh.Mesh {
	if segments < 3 {
		segments = 3
	}
	m := mesh.New("cylinder")
	h := height / 2
	bottom := make([]mesh.VertexID, segments)
	top := make([]mesh.VertexID, segments)
	for i := 0; i < segments; i++ {
		ang := 2 * math.Pi * float64(i) / float64(segments)
		x := radius * math.Cos(ang)
		y := radius * math.Sin(ang)
		bottom[i] = m.AddVertex(r3.Vec{X: x, Y: y, Z: -h})
		top[i] = m.AddVertex(r3.Vec{X: x, Y: y, Z: h})
	}
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		m.AddFace(bottom[i], bottom[j], top[j], top[i])
	}
	m.AddFace(top...)
	capDown := make([]mesh.VertexID, segments)
	for i := 0; i < segments; i++ {
		capDown[i] = bottom[(segments-i)%segments]
	}
	m.AddFace(capDown...)
	return finish(m)
}

// UVSphere returns a latitude/longitude sphere: triangle fans at the
// poles, quads in between. rings is clamped to at least 2 and segments
// to at least 3.
func UVSphere(radius float64, rings, segments int) *mesh.Mesh {
	if rings < 2 {
		rings = 2
	}
	if segments < 3 {
		segments = 3
	}
	m := mesh.New("sphere")

	north := m.AddVertex(r3.Vec{Z: radius})
	band := make([][]mesh.VertexID, rings-1)
	for j := 1; j < rings; j++ {
		phi := math.Pi * float64(j) / float64(rings)
		z := radius * math.Cos(phi)
		rr := radius * math.Sin(phi)
		row := make([]mesh.VertexID, segments)
		for i := 0; i < segments; i++ {
			theta := 2 * math.Pi * float64(i) / float64(segments)
			row[i] = m.AddVertex(r3.Vec{
				X: rr * math.Cos(theta),
				Y: rr * math.Sin(theta),
				Z: z,
			})
		}
		band[j-1] = row
	}
	south := m.AddVertex(r3.Vec{Z: -radius})

	first := band[0]
	for i := 0; i < segments; i++ {
		m.AddFace(north, first[i], first[(i+1)%segments])
	}
	for j := 0; j < len(band)-1; j++ {
		upper, lower := band[j], band[j+1]
		for i := 0; i < segments; i++ {
			k := (i + 1) % segments
			m.AddFace(upper[i], lower[i], lower[k], upper[k])
		}
	}
	last := band[len(band)-1]
	for i := 0; i < segments; i++ {
		m.AddFace(south, last[(i+1)%segments], last[i])
	}
	return finish(m)
}
