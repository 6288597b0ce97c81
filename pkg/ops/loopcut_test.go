package ops

import (
	"math"
	"testing"

	"github.com/chazu/meshwright/pkg/mesh"
	"github.com/chazu/meshwright/pkg/shape"
	"github.com/stretchr/testify/assert"
)

// middleEdge returns the interior edge of a 2x1 grid.
func middleEdge(t *testing.T, m *mesh.Mesh) mesh.EdgeID {
	t.Helper()
	for i := range m.Edges {
		if !m.Edges[i].Boundary() {
			return m.Edges[i].ID
		}
	}
	t.Fatal("no interior edge")
	return 0
}

func TestLoopCutSplitsStrip(t *testing.T) {
	m := shape.Grid(2, 1, 2)
	seed := middleEdge(t, m)

	got := rebuild(LoopCut(m, seed, 0.5))

	// Two quads become four.
	if got.FaceCount() != 4 {
		t.Errorf("face count = %d, want 4", got.FaceCount())
	}
	// Three crossed edges (both walls and the seed) gain one vertex each.
	if got.VertexCount() != 9 {
		t.Errorf("vertex count = %d, want 9", got.VertexCount())
	}
	for i := range got.Faces {
		if n := len(got.Faces[i].Verts); n != 4 {
			t.Errorf("face %d ring length = %d, want 4", got.Faces[i].ID, n)
		}
	}
	// At t=0.5 the cut runs along y=0.
	cuts := 0
	for i := range got.Vertices {
		if got.Vertices[i].ID <= 6 {
			continue
		}
		cuts++
		assert.InDelta(t, 0, got.Vertices[i].Position.Y, 1e-12)
	}
	if cuts != 3 {
		t.Errorf("cut vertex count = %d, want 3", cuts)
	}
	// All faces keep facing +Z.
	for i := range got.Faces {
		if got.Faces[i].Normal.Z < 0.999 {
			t.Errorf("face %d flipped: normal %v", got.Faces[i].ID, got.Faces[i].Normal)
		}
	}
	requireValid(t, got)
}

func TestLoopCutSlideParameter(t *testing.T) {
	m := shape.Grid(2, 1, 2)
	seed := middleEdge(t, m)

	got := rebuild(LoopCut(m, seed, 0.25))

	for i := range got.Vertices {
		if got.Vertices[i].ID <= 6 {
			continue
		}
		// Crossed edges span y in [-1,1]; t=0.25 lands at |y| = 0.5.
		assert.InDelta(t, 0.5, math.Abs(got.Vertices[i].Position.Y), 1e-12)
	}
}

func TestLoopCutClosesAroundCylinder(t *testing.T) {
	m := shape.Cylinder(1, 2, 8)

	// Seed on a vertical side edge: endpoints share x,y and differ in z.
	var seed mesh.EdgeID
	for i := range m.Edges {
		e := &m.Edges[i]
		pa := m.VertexByID(e.Verts[0]).Position
		pb := m.VertexByID(e.Verts[1]).Position
		if math.Abs(pa.X-pb.X) < 1e-12 && math.Abs(pa.Y-pb.Y) < 1e-12 {
			seed = e.ID
			break
		}
	}
	if seed.IsZero() {
		t.Fatal("no vertical edge found")
	}

	got := rebuild(LoopCut(m, seed, 0.5))

	// Every side quad splits; the cut ring adds one vertex per segment.
	if got.FaceCount() != 18 {
		t.Errorf("face count = %d, want 2 caps + 16 quads", got.FaceCount())
	}
	if got.VertexCount() != 24 {
		t.Errorf("vertex count = %d, want 16+8", got.VertexCount())
	}
	ringVerts := 0
	for i := range got.Vertices {
		p := got.Vertices[i].Position
		if math.Abs(p.Z) < 1e-12 {
			ringVerts++
			assert.InDelta(t, 1, math.Hypot(p.X, p.Y), 1e-12,
				"cut ring vertex should stay on the cylinder")
		}
	}
	if ringVerts != 8 {
		t.Errorf("cut ring vertex count = %d, want 8", ringVerts)
	}
	// The loop closed: still a closed surface.
	chi := got.VertexCount() - got.EdgeCount() + got.FaceCount()
	if chi != 2 {
		t.Errorf("V-E+F = %d, want 2", chi)
	}
	for i := range got.Edges {
		if got.Edges[i].Boundary() {
			t.Fatalf("boundary edge %v after a closed loop cut", got.Edges[i].Verts)
		}
	}
	requireValid(t, got)
}

func TestLoopCutStopsAtTriangles(t *testing.T) {
	m := rebuild(Triangulate(shape.Plane(2)))
	before := fingerprint(t, m)

	got := LoopCut(m, m.Edges[0].ID, 0.5)

	if got != m {
		t.Error("loop cut through triangles should be a no-op")
	}
	if fingerprint(t, m) != before {
		t.Error("no-op mutated the mesh")
	}
}
