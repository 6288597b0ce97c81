package uv

import (
	"math"
	"testing"

	"github.com/chazu/meshwright/pkg/mesh"
	"github.com/chazu/meshwright/pkg/shape"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// islandBBox measures an island's packed UV bounding box.
func islandBBox(m *mesh.Mesh, isl *Island) (min, max r2.Vec) {
	min = r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	max = r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, fid := range isl.Faces {
		f := m.FaceByID(fid)
		for j := range f.UVs {
			p := f.UVs[j]
			min.X, min.Y = math.Min(min.X, p.X), math.Min(min.Y, p.Y)
			max.X, max.Y = math.Max(max.X, p.X), math.Max(max.Y, p.Y)
		}
	}
	return min, max
}

func TestPackCubeStaysInUnitSquare(t *testing.T) {
	m := shape.Cube(1)
	islands := Unwrap(m, DefaultOptions())
	opts := DefaultPackOptions()
	Pack(m, islands, opts)

	for i := range m.Faces {
		f := &m.Faces[i]
		if len(f.UVs) != len(f.Verts) {
			t.Fatalf("face %d missing loop UVs", i)
		}
		for _, p := range f.UVs {
			if p.X < opts.Margin-1e-9 || p.X > 1-opts.Margin+1e-9 ||
				p.Y < opts.Margin-1e-9 || p.Y > 1-opts.Margin+1e-9 {
				t.Fatalf("uv %v outside packed area", p)
			}
		}
	}
}

func TestPackIslandsDoNotOverlap(t *testing.T) {
	m := shape.Cube(1)
	islands := Unwrap(m, DefaultOptions())
	Pack(m, islands, DefaultPackOptions())

	type box struct{ min, max r2.Vec }
	boxes := make([]box, len(islands))
	for i := range islands {
		lo, hi := islandBBox(m, &islands[i])
		boxes[i] = box{lo, hi}
	}
	const slack = 1e-9
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			a, b := boxes[i], boxes[j]
			overlapX := a.min.X < b.max.X-slack && b.min.X < a.max.X-slack
			overlapY := a.min.Y < b.max.Y-slack && b.min.Y < a.max.Y-slack
			if overlapX && overlapY {
				t.Fatalf("islands %d and %d overlap: %+v vs %+v", i, j, a, b)
			}
		}
	}
}

func TestPackRotatesTallIslands(t *testing.T) {
	build := func() (*mesh.Mesh, []Island) {
		m := mesh.New("strip")
		a := m.AddVertex(r3.Vec{})
		b := m.AddVertex(r3.Vec{X: 1})
		c := m.AddVertex(r3.Vec{X: 1, Y: 4})
		d := m.AddVertex(r3.Vec{Y: 4})
		fid := m.AddFace(a, b, c, d)
		f := m.FaceByID(fid)
		f.UVs = []r2.Vec{{X: 0, Y: 0}, {X: 0.25, Y: 0}, {X: 0.25, Y: 1}, {X: 0, Y: 1}}
		return m, []Island{{Faces: []mesh.FaceID{fid}}}
	}

	m, islands := build()
	Pack(m, islands, PackOptions{Margin: 0.01, Rotate: true})
	lo, hi := islandBBox(m, &islands[0])
	if hi.X-lo.X <= hi.Y-lo.Y {
		t.Errorf("tall island not rotated: %v wide, %v high", hi.X-lo.X, hi.Y-lo.Y)
	}

	m2, islands2 := build()
	Pack(m2, islands2, PackOptions{Margin: 0.01, Rotate: false})
	lo2, hi2 := islandBBox(m2, &islands2[0])
	if hi2.Y-lo2.Y <= hi2.X-lo2.X {
		t.Errorf("island rotated despite Rotate=false: %v wide, %v high", hi2.X-lo2.X, hi2.Y-lo2.Y)
	}
}

func TestPackAreaWeightScalesIslands(t *testing.T) {
	build := func() (*mesh.Mesh, []Island) {
		m := mesh.New("pair")
		a := m.AddVertex(r3.Vec{})
		b := m.AddVertex(r3.Vec{X: 1})
		c := m.AddVertex(r3.Vec{X: 1, Y: 1})
		d := m.AddVertex(r3.Vec{Y: 1})
		m.AddFace(a, b, c, d)
		e := m.AddVertex(r3.Vec{X: 3})
		f := m.AddVertex(r3.Vec{X: 7})
		g := m.AddVertex(r3.Vec{X: 7, Y: 4})
		h := m.AddVertex(r3.Vec{X: 3, Y: 4})
		m.AddFace(e, f, g, h)
		m.RebuildEdges()
		m.RecalculateNormals()
		islands := Unwrap(m, DefaultOptions())
		return m, islands
	}

	m, islands := build()
	if len(islands) != 2 {
		t.Fatalf("got %d islands, want 2", len(islands))
	}
	Pack(m, islands, PackOptions{Margin: 0.01, AreaWeight: 1, Rotate: true})
	loSmall, hiSmall := islandBBox(m, &islands[0])
	loBig, hiBig := islandBBox(m, &islands[1])
	small := hiSmall.X - loSmall.X
	big := hiBig.X - loBig.X
	ratio := big / small
	if ratio < 2 || ratio > 6 {
		t.Errorf("area weighting off: big/small = %v, want about 4", ratio)
	}

	m2, islands2 := build()
	Pack(m2, islands2, PackOptions{Margin: 0.01, AreaWeight: 0, Rotate: true})
	loS, hiS := islandBBox(m2, &islands2[0])
	loB, hiB := islandBBox(m2, &islands2[1])
	assert.InDelta(t, hiB.X-loB.X, hiS.X-loS.X, 1e-6, "weightless islands should match in size")
}

func TestPackNoIslandsIsNoop(t *testing.T) {
	Pack(mesh.New("empty"), nil, DefaultPackOptions())
	m := shape.Cube(1)
	before := len(m.Faces[0].UVs)
	Pack(m, []Island{}, DefaultPackOptions())
	if len(m.Faces[0].UVs) != before {
		t.Error("empty island list must not touch UVs")
	}
}
