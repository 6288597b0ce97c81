package tessellate_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/meshwright/pkg/mesh"
	"github.com/chazu/meshwright/pkg/modifier"
	"github.com/chazu/meshwright/pkg/shape"
	"github.com/chazu/meshwright/pkg/store"
	"github.com/chazu/meshwright/pkg/tessellate"
)

// cornerNormal returns the i-th emitted normal.
func cornerNormal(b *tessellate.TriangleBuffer, i int) r3.Vec {
	return r3.Vec{
		X: float64(b.Normals[i*3]),
		Y: float64(b.Normals[i*3+1]),
		Z: float64(b.Normals[i*3+2]),
	}
}

func cornerUV(b *tessellate.TriangleBuffer, i int) r2.Vec {
	return r2.Vec{X: float64(b.UVs[i*2]), Y: float64(b.UVs[i*2+1])}
}

func TestTessellateCubeFlat(t *testing.T) {
	m := shape.Cube(1)
	buf := tessellate.Tessellate(m, "box")

	if buf.Name != "box" {
		t.Errorf("name = %q, want box", buf.Name)
	}
	if buf.IsEmpty() {
		t.Fatal("cube buffer should not be empty")
	}
	if buf.VertexCount() != 24 {
		t.Errorf("corner count = %d, want 6 faces x 4", buf.VertexCount())
	}
	if buf.TriangleCount() != 12 {
		t.Errorf("triangle count = %d, want 12", buf.TriangleCount())
	}
	if len(buf.UVs) != 48 {
		t.Errorf("uv floats = %d, want 2 per corner", len(buf.UVs))
	}

	// Flat shading: every corner carries its face's axis-aligned normal, and
	// exactly four corners (one face) point up.
	up := 0
	for i := 0; i < buf.VertexCount(); i++ {
		n := cornerNormal(buf, i)
		if math.Abs(r3.Norm(n)-1) > 1e-6 {
			t.Fatalf("corner %d normal %v is not unit", i, n)
		}
		if n.Z > 0.999 {
			up++
		}
	}
	if up != 4 {
		t.Errorf("+Z corners = %d, want the 4 of the top face", up)
	}

	// Indices stay inside each face's own corner block.
	for tri := 0; tri < buf.TriangleCount(); tri++ {
		block := buf.Indices[tri*3] / 4
		for k := 0; k < 3; k++ {
			idx := buf.Indices[tri*3+k]
			if idx >= uint32(buf.VertexCount()) {
				t.Fatalf("index %d out of range", idx)
			}
			if idx/4 != block {
				t.Errorf("triangle %d spans corner blocks %d and %d", tri, block, idx/4)
			}
		}
	}
}

func TestTessellateSmoothNormals(t *testing.T) {
	m := shape.Cube(1)
	m.Shading = mesh.ShadingSmooth
	buf := tessellate.Tessellate(m, "box")

	// Cube vertex normals average three orthogonal faces: every component
	// has magnitude 1/sqrt(3).
	want := 1 / math.Sqrt(3)
	for i := 0; i < buf.VertexCount(); i++ {
		n := cornerNormal(buf, i)
		for _, c := range []float64{n.X, n.Y, n.Z} {
			if math.Abs(math.Abs(c)-want) > 1e-6 {
				t.Fatalf("corner %d normal %v is not an averaged corner normal", i, n)
			}
		}
	}
}

func TestTessellateUVSources(t *testing.T) {
	m := shape.Cube(1)
	for i := range m.Vertices {
		m.Vertices[i].UV = r2.Vec{X: 0.25, Y: 0.75}
	}
	// Give the second face per-loop UVs; the rest fall back to vertex UVs.
	f := &m.Faces[1]
	f.UVs = []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	buf := tessellate.Tessellate(m, "box")

	// Corners 0..3 belong to the first face: vertex UVs.
	for i := 0; i < 4; i++ {
		uv := cornerUV(buf, i)
		if uv.X != 0.25 || uv.Y != 0.75 {
			t.Errorf("corner %d uv = %v, want the vertex fallback", i, uv)
		}
	}
	// Corners 4..7 belong to the second face: loop UVs in ring order.
	wantLoop := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	for j, want := range wantLoop {
		uv := cornerUV(buf, 4+j)
		if uv != want {
			t.Errorf("corner %d uv = %v, want loop uv %v", 4+j, uv, want)
		}
	}
}

func TestTessellateFansNGons(t *testing.T) {
	m := shape.Cylinder(1, 2, 6)
	buf := tessellate.Tessellate(m, "drum")

	// 6 side quads of 4 corners plus two hexagon caps of 6.
	if buf.VertexCount() != 6*4+2*6 {
		t.Errorf("corner count = %d, want 36", buf.VertexCount())
	}
	// Quads split in two, hexagons fan into four.
	if buf.TriangleCount() != 6*2+2*4 {
		t.Errorf("triangle count = %d, want 20", buf.TriangleCount())
	}
}

func TestTessellateWindingMatchesNormal(t *testing.T) {
	m := shape.Plane(2)
	buf := tessellate.Tessellate(m, "sheet")

	if buf.TriangleCount() != 2 {
		t.Fatalf("triangle count = %d, want 2", buf.TriangleCount())
	}
	pos := func(i uint32) r3.Vec {
		return r3.Vec{
			X: float64(buf.Vertices[i*3]),
			Y: float64(buf.Vertices[i*3+1]),
			Z: float64(buf.Vertices[i*3+2]),
		}
	}
	for tri := 0; tri < buf.TriangleCount(); tri++ {
		a := pos(buf.Indices[tri*3])
		b := pos(buf.Indices[tri*3+1])
		c := pos(buf.Indices[tri*3+2])
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if n.Z <= 0 {
			t.Errorf("triangle %d winds clockwise against the +Z face normal", tri)
		}
	}
}

func TestTessellateEmptyInputs(t *testing.T) {
	buf := tessellate.Tessellate(nil, "void")
	if !buf.IsEmpty() || buf.Name != "void" {
		t.Errorf("nil mesh buffer = %d corners, name %q", buf.VertexCount(), buf.Name)
	}
	buf = tessellate.Tessellate(mesh.New("bare"), "bare")
	if !buf.IsEmpty() || buf.TriangleCount() != 0 {
		t.Error("empty mesh should produce an empty buffer")
	}
}

func TestTessellateStoreUsesDisplayMeshes(t *testing.T) {
	s := store.New()
	if err := s.Add("box", shape.Cube(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add("sheet", shape.Plane(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.SetStack("box", []modifier.Modifier{modifier.New(modifier.KindMirror)}); err != nil {
		t.Fatalf("SetStack: %v", err)
	}

	bufs := tessellate.TessellateStore(s)
	if len(bufs) != 2 {
		t.Fatalf("buffer count = %d, want 2", len(bufs))
	}
	if bufs[0].Name != "box" || bufs[1].Name != "sheet" {
		t.Errorf("names = %q,%q, want document order box,sheet", bufs[0].Name, bufs[1].Name)
	}
	// The box buffer reflects the mirrored display mesh, not the base.
	if bufs[0].TriangleCount() != 24 {
		t.Errorf("box triangles = %d, want the mirrored 24", bufs[0].TriangleCount())
	}
	if bufs[1].TriangleCount() != 2 {
		t.Errorf("sheet triangles = %d, want 2", bufs[1].TriangleCount())
	}

	if tessellate.TessellateStore(nil) != nil {
		t.Error("nil store should yield nil")
	}
}
