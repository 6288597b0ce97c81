package tool

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/meshwright/pkg/mesh"
	"github.com/chazu/meshwright/pkg/shape"
)

// Fixture: shape.Cube(1) has vertices 1..8 at (±0.5, ±0.5, ±0.5) with ids in
// construction order, and face 2 is the +Z cap over vertices 5,6,7,8.
const cubeTopFace = mesh.FaceID(2)

func fingerprint(t *testing.T, m *mesh.Mesh) string {
	t.Helper()
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal mesh: %v", err)
	}
	return string(b)
}

func rebuild(m *mesh.Mesh) *mesh.Mesh {
	m.RebuildEdges()
	m.RecalculateNormals()
	return m
}

func requireValid(t *testing.T, m *mesh.Mesh) {
	t.Helper()
	for _, e := range mesh.Validate(m) {
		if e.Severity == mesh.SeverityError {
			t.Fatalf("mesh invalid: %v", e)
		}
	}
}

func allVertexIDs(m *mesh.Mesh) []mesh.VertexID {
	out := make([]mesh.VertexID, len(m.Vertices))
	for i := range m.Vertices {
		out[i] = m.Vertices[i].ID
	}
	return out
}

func placementOf(t *testing.T, pv []Placement, id mesh.VertexID) r3.Vec {
	t.Helper()
	for _, p := range pv {
		if p.ID == id {
			return p.Position
		}
	}
	t.Fatalf("no placement for vertex %d", id)
	return r3.Vec{}
}

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
	assert.InDelta(t, want.Z, got.Z, 1e-9)
}

func hasVertexNear(m *mesh.Mesh, p r3.Vec) bool {
	for i := range m.Vertices {
		if r3.Norm(r3.Sub(m.Vertices[i].Position, p)) < 1e-9 {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Kinds
// ---------------------------------------------------------------------------

func TestKindNamesRoundTrip(t *testing.T) {
	for k := KindMove; k <= KindFillet; k++ {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if _, err := ParseKind("lathe"); err == nil {
		t.Error("unknown tool name should not parse")
	}
}

// ---------------------------------------------------------------------------
// Session lifecycle
// ---------------------------------------------------------------------------

func TestBeginGuards(t *testing.T) {
	m := shape.Cube(1)

	tests := []struct {
		name string
		m    *mesh.Mesh
		kind Kind
		sel  Selection
	}{
		{"nil mesh", nil, KindMove, Selection{Verts: []mesh.VertexID{1}}},
		{"empty selection", m, KindMove, Selection{}},
		{"stale vertices", m, KindMove, Selection{Verts: []mesh.VertexID{9999}}},
		{"face tool without faces", m, KindExtrude, Selection{Verts: allVertexIDs(m)}},
		{"edge tool without edges", m, KindChamfer, Selection{Faces: []mesh.FaceID{cubeTopFace}}},
		{"stale faces", m, KindInset, Selection{Faces: []mesh.FaceID{9999}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession()
			if s.Begin(tc.m, tc.kind, tc.sel) {
				t.Fatal("Begin should have refused the selection")
			}
			if s.Active() {
				t.Error("session active after refused Begin")
			}
			if s.Preview() != nil {
				t.Error("idle preview should be nil")
			}
		})
	}
}

func TestBeginSerializesSessions(t *testing.T) {
	m := shape.Cube(1)
	s := NewSession()

	if !s.Begin(m, KindMove, Selection{Verts: []mesh.VertexID{7}}) {
		t.Fatal("first Begin failed")
	}
	if s.Begin(m, KindRotate, Selection{Verts: allVertexIDs(m)}) {
		t.Fatal("second Begin should be a no-op while active")
	}
	if s.Tool() != KindMove {
		t.Errorf("active tool = %v, want the first one", s.Tool())
	}

	s.Abort()
	if !s.Begin(m, KindRotate, Selection{Verts: allVertexIDs(m)}) {
		t.Error("Begin after abort should activate")
	}
}

func TestBeginDropsStaleAndDuplicateIds(t *testing.T) {
	m := shape.Cube(1)
	s := NewSession()

	sel := Selection{Verts: []mesh.VertexID{7, 7, 9999, 8}}
	if !s.Begin(m, KindMove, sel) {
		t.Fatal("Begin failed")
	}
	pv := s.Preview()
	if len(pv) != 2 {
		t.Fatalf("preview length = %d, want 2 live unique vertices", len(pv))
	}
	if pv[0].ID != 7 || pv[1].ID != 8 {
		t.Errorf("preview ids = %d,%d, want the selection order 7,8", pv[0].ID, pv[1].ID)
	}
}

func TestIdleSessionIsInert(t *testing.T) {
	s := NewSession()
	s.Pointer(r3.Vec{X: 1})
	s.SetAxis(mesh.AxisX)
	if s.Preview() != nil {
		t.Error("idle preview should be nil")
	}
	if s.Commit() != nil {
		t.Error("idle commit should return nil")
	}
	s.Abort()
	if s.Active() {
		t.Error("session became active without Begin")
	}
}

// ---------------------------------------------------------------------------
// Previews
// ---------------------------------------------------------------------------

func TestMovePreviewAccumulatesAndLocks(t *testing.T) {
	m := shape.Cube(1)
	before := fingerprint(t, m)
	s := NewSession()
	if !s.Begin(m, KindMove, Selection{Verts: []mesh.VertexID{7}}) {
		t.Fatal("Begin failed")
	}

	s.Pointer(r3.Vec{X: 1, Y: 2, Z: 3})
	s.Pointer(r3.Vec{X: 0.5, Y: -1})
	assertVec(t, r3.Vec{X: 2, Y: 1.5, Z: 3.5}, placementOf(t, s.Preview(), 7))

	// The lock re-interprets the whole accumulated delta, not just later
	// movement.
	s.SetAxis(mesh.AxisY)
	assertVec(t, r3.Vec{X: 0.5, Y: 1.5, Z: 0.5}, placementOf(t, s.Preview(), 7))
	s.SetAxis(mesh.AxisNone)
	assertVec(t, r3.Vec{X: 2, Y: 1.5, Z: 3.5}, placementOf(t, s.Preview(), 7))

	// Previews recompute from the snapshot; asking repeatedly must not
	// drift, and the mesh itself is never touched.
	for i := 0; i < 5; i++ {
		assertVec(t, r3.Vec{X: 2, Y: 1.5, Z: 3.5}, placementOf(t, s.Preview(), 7))
	}
	if after := fingerprint(t, m); after != before {
		t.Error("preview mutated the mesh")
	}
}

func TestRotatePreviewAroundPivot(t *testing.T) {
	m := shape.Cube(1)
	s := NewSession()
	if !s.Begin(m, KindRotate, Selection{Verts: allVertexIDs(m)}) {
		t.Fatal("Begin failed")
	}
	s.Pointer(r3.Vec{X: math.Pi / 2})

	// Pivot is the selection centroid (the origin). Default axis is Z:
	// vertex 3 at (0.5, 0.5, -0.5) swings to (-0.5, 0.5, -0.5).
	assertVec(t, r3.Vec{X: -0.5, Y: 0.5, Z: -0.5}, placementOf(t, s.Preview(), 3))

	// Locked to X the same quarter turn lands elsewhere.
	s.SetAxis(mesh.AxisX)
	assertVec(t, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, placementOf(t, s.Preview(), 3))
}

func TestScalePreview(t *testing.T) {
	m := shape.Cube(1)
	s := NewSession()
	if !s.Begin(m, KindScale, Selection{Verts: allVertexIDs(m)}) {
		t.Fatal("Begin failed")
	}

	s.Pointer(r3.Vec{X: 1}) // factor 2
	assertVec(t, r3.Vec{X: 1, Y: 1, Z: 1}, placementOf(t, s.Preview(), 7))

	s.SetAxis(mesh.AxisX)
	assertVec(t, r3.Vec{X: 1, Y: 0.5, Z: 0.5}, placementOf(t, s.Preview(), 7))

	s.SetAxis(mesh.AxisNone)
	s.Pointer(r3.Vec{X: -1.5}) // accumulated factor 0.5
	assertVec(t, r3.Vec{X: 0.25, Y: 0.25, Z: 0.25}, placementOf(t, s.Preview(), 7))
}

func TestExtrudePreviewAlongFaceNormal(t *testing.T) {
	m := shape.Cube(1)
	s := NewSession()
	if !s.Begin(m, KindExtrude, Selection{Faces: []mesh.FaceID{cubeTopFace}}) {
		t.Fatal("Begin failed")
	}
	s.Pointer(r3.Vec{X: 0.4})

	pv := s.Preview()
	if len(pv) != 4 {
		t.Fatalf("preview length = %d, want the 4 top-ring vertices", len(pv))
	}
	for _, p := range pv {
		assert.InDelta(t, 0.9, p.Position.Z, 1e-9, "vertex %d not lifted along +Z", p.ID)
	}
	assertVec(t, r3.Vec{X: 0.5, Y: 0.5, Z: 0.9}, placementOf(t, pv, 7))
}

func TestInsetPreviewSlidesTowardCentroid(t *testing.T) {
	m := shape.Cube(1)
	s := NewSession()
	if !s.Begin(m, KindInset, Selection{Faces: []mesh.FaceID{cubeTopFace}}) {
		t.Fatal("Begin failed")
	}

	s.Pointer(r3.Vec{X: 0.5})
	assertVec(t, r3.Vec{X: 0.25, Y: 0.25, Z: 0.5}, placementOf(t, s.Preview(), 7))

	// Overshooting clamps just short of the centroid instead of inverting.
	s.Pointer(r3.Vec{X: 10})
	assertVec(t, r3.Vec{X: 0.025, Y: 0.025, Z: 0.5}, placementOf(t, s.Preview(), 7))
}

func TestTopologyToolPreviewKeepsOriginals(t *testing.T) {
	m := shape.Cube(1)
	e := m.EdgeBetween(6, 7)
	if e == nil {
		t.Fatal("cube edge (6,7) not found")
	}
	s := NewSession()
	if !s.Begin(m, KindChamfer, Selection{Edges: []mesh.EdgeID{e.ID}}) {
		t.Fatal("Begin failed")
	}
	s.Pointer(r3.Vec{X: 0.25})

	pv := s.Preview()
	if len(pv) != 2 {
		t.Fatalf("preview length = %d, want the 2 edge endpoints", len(pv))
	}
	assertVec(t, m.VertexByID(6).Position, placementOf(t, pv, 6))
	assertVec(t, m.VertexByID(7).Position, placementOf(t, pv, 7))
}

// ---------------------------------------------------------------------------
// Commit and abort
// ---------------------------------------------------------------------------

func TestCommitMoveAppliesPositions(t *testing.T) {
	m := shape.Cube(1)
	before := fingerprint(t, m)
	s := NewSession()
	if !s.Begin(m, KindMove, Selection{Verts: []mesh.VertexID{5, 6, 7, 8}}) {
		t.Fatal("Begin failed")
	}
	s.Pointer(r3.Vec{Z: 1})

	out := s.Commit()
	if out == nil || out == m {
		t.Fatal("commit should return a new mesh")
	}
	if fingerprint(t, m) != before {
		t.Error("commit mutated the input mesh")
	}
	assertVec(t, r3.Vec{X: 0.5, Y: 0.5, Z: 1.5}, out.VertexByID(7).Position)
	assertVec(t, r3.Vec{X: -0.5, Y: -0.5, Z: -0.5}, out.VertexByID(1).Position)

	if s.Active() {
		t.Error("session still active after commit")
	}
	if s.Commit() != nil {
		t.Error("second commit should return nil")
	}
}

func TestCommitExtrudeBuildsSides(t *testing.T) {
	m := shape.Cube(1)
	s := NewSession()
	if !s.Begin(m, KindExtrude, Selection{Faces: []mesh.FaceID{cubeTopFace}}) {
		t.Fatal("Begin failed")
	}
	s.Pointer(r3.Vec{X: 0.4})

	out := rebuild(s.Commit())
	if out.VertexCount() != 12 {
		t.Errorf("vertex count = %d, want 8 originals + 4 cap duplicates", out.VertexCount())
	}
	if out.FaceCount() != 10 {
		t.Errorf("face count = %d, want 5 kept + cap + 4 sides", out.FaceCount())
	}
	if !hasVertexNear(out, r3.Vec{X: 0.5, Y: 0.5, Z: 0.9}) {
		t.Error("extruded cap corner missing")
	}
	requireValid(t, out)
}

func TestCommitInsetShrinksFace(t *testing.T) {
	m := shape.Cube(1)
	s := NewSession()
	if !s.Begin(m, KindInset, Selection{Faces: []mesh.FaceID{cubeTopFace}}) {
		t.Fatal("Begin failed")
	}
	s.Pointer(r3.Vec{X: 0.5})

	out := rebuild(s.Commit())
	if out.VertexCount() != 12 {
		t.Errorf("vertex count = %d, want 8 originals + 4 inner ring", out.VertexCount())
	}
	if out.FaceCount() != 10 {
		t.Errorf("face count = %d, want 5 kept + inner + 4 ring quads", out.FaceCount())
	}
	if !hasVertexNear(out, r3.Vec{X: 0.25, Y: 0.25, Z: 0.5}) {
		t.Error("inner ring corner missing; commit should match the preview")
	}
	requireValid(t, out)
}

func TestCommitChamferAndFillet(t *testing.T) {
	t.Run("chamfer", func(t *testing.T) {
		m := shape.Cube(1)
		e := m.EdgeBetween(6, 7)
		s := NewSession()
		if !s.Begin(m, KindChamfer, Selection{Edges: []mesh.EdgeID{e.ID}}) {
			t.Fatal("Begin failed")
		}
		s.Pointer(r3.Vec{X: 0.2})

		out := rebuild(s.Commit())
		if out.VertexCount() != 12 {
			t.Errorf("vertex count = %d, want 8+4", out.VertexCount())
		}
		if out.FaceCount() != 9 {
			t.Errorf("face count = %d, want 6 + band + 2 caps", out.FaceCount())
		}
		requireValid(t, out)
	})

	t.Run("fillet", func(t *testing.T) {
		m := shape.Cube(1)
		e := m.EdgeBetween(6, 7)
		s := NewSession()
		s.FilletSegments = 2
		if !s.Begin(m, KindFillet, Selection{Edges: []mesh.EdgeID{e.ID}}) {
			t.Fatal("Begin failed")
		}
		s.Pointer(r3.Vec{X: 0.1})

		out := rebuild(s.Commit())
		if out.VertexCount() != 8+2*3 {
			t.Errorf("vertex count = %d, want 8 + 2 arc rings of 3", out.VertexCount())
		}
		if out.FaceCount() != 6+2+2 {
			t.Errorf("face count = %d, want 6 + 2 bands + 2 caps", out.FaceCount())
		}
		requireValid(t, out)
	})

	t.Run("bevel routes like chamfer", func(t *testing.T) {
		m := shape.Cube(1)
		e := m.EdgeBetween(6, 7)
		s := NewSession()
		if !s.Begin(m, KindBevel, Selection{Edges: []mesh.EdgeID{e.ID}}) {
			t.Fatal("Begin failed")
		}
		s.Pointer(r3.Vec{X: 0.2})

		out := rebuild(s.Commit())
		if out.VertexCount() != 12 || out.FaceCount() != 9 {
			t.Errorf("counts = %d/%d, want the chamfer result 12/9",
				out.VertexCount(), out.FaceCount())
		}
	})
}

func TestCommitNegativeDistanceIsNoop(t *testing.T) {
	m := shape.Cube(1)
	before := fingerprint(t, m)
	e := m.EdgeBetween(6, 7)
	s := NewSession()
	if !s.Begin(m, KindChamfer, Selection{Edges: []mesh.EdgeID{e.ID}}) {
		t.Fatal("Begin failed")
	}
	s.Pointer(r3.Vec{X: -0.3})

	out := s.Commit()
	if out != m {
		t.Error("negative chamfer distance should return the input mesh")
	}
	if fingerprint(t, m) != before {
		t.Error("no-op commit mutated the mesh")
	}
	if s.Active() {
		t.Error("session still active after commit")
	}
}

func TestAbortDiscardsEverything(t *testing.T) {
	m := shape.Cube(1)
	before := fingerprint(t, m)
	s := NewSession()
	if !s.Begin(m, KindExtrude, Selection{Faces: []mesh.FaceID{cubeTopFace}}) {
		t.Fatal("Begin failed")
	}
	s.Pointer(r3.Vec{X: 2})
	s.SetAxis(mesh.AxisZ)

	s.Abort()
	if s.Active() {
		t.Error("session active after abort")
	}
	if s.Preview() != nil {
		t.Error("aborted session still previews")
	}
	if fingerprint(t, m) != before {
		t.Error("abort left a mutation behind")
	}

	// The accumulator is gone: a fresh session starts from zero.
	if !s.Begin(m, KindExtrude, Selection{Faces: []mesh.FaceID{cubeTopFace}}) {
		t.Fatal("Begin after abort failed")
	}
	assertVec(t, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, placementOf(t, s.Preview(), 7))
}
