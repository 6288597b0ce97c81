// Package tool implements the interactive transform-tool state machine that
// sits between pointer input and the pure operators in pkg/ops.
//
// A Session runs idle → active → {committed | aborted} → idle. Begin takes a
// snapshot of the affected vertex positions; that snapshot is the only source
// of truth while the session is active. Every pointer update only grows an
// accumulator (a translation vector or a scalar, depending on the tool), and
// Preview recomputes all positions from the snapshot plus the accumulator,
// never incrementally from the previous preview, so a long drag cannot drift.
// Preview never mutates the mesh; Commit routes the accumulated value through
// the matching operator and returns the resulting mesh, and Abort discards
// the session with nothing to restore.
package tool

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/meshwright/pkg/mesh"
	"github.com/chazu/meshwright/pkg/ops"
)

// ---------------------------------------------------------------------------
// Tool kinds
// ---------------------------------------------------------------------------

// Kind identifies an interactive transform tool.
type Kind int

const (
	KindMove Kind = iota
	KindRotate
	KindScale
	KindExtrude
	KindInset
	KindBevel
	KindChamfer
	KindFillet
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindRotate:
		return "rotate"
	case KindScale:
		return "scale"
	case KindExtrude:
		return "extrude"
	case KindInset:
		return "inset"
	case KindBevel:
		return "bevel"
	case KindChamfer:
		return "chamfer"
	case KindFillet:
		return "fillet"
	default:
		return "unknown"
	}
}

// ParseKind maps a tool name to its Kind.
func ParseKind(name string) (Kind, error) {
	for k := KindMove; k <= KindFillet; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("tool: unknown tool %q", name)
}

// ---------------------------------------------------------------------------
// Selection and preview types
// ---------------------------------------------------------------------------

// Selection names the mesh elements a tool acts on. Each tool reads only the
// slice it cares about: move, rotate, and scale take vertices; extrude and
// inset take faces; bevel, chamfer, and fillet take edges. Stale ids are
// dropped at Begin.
type Selection struct {
	Verts []mesh.VertexID
	Edges []mesh.EdgeID
	Faces []mesh.FaceID
}

// Placement is one previewed vertex position.
type Placement struct {
	ID       mesh.VertexID
	Position r3.Vec
}

// DefaultFilletSegments is the arc resolution a fresh Session commits fillets
// with.
const DefaultFilletSegments = 4

// maxInset caps the inset interpolation fraction so a long drag stops just
// short of collapsing rings onto their face centroids.
const maxInset = 0.95

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Session is the single-owner tool state machine. One transform runs at a
// time per Session value; Begin while a session is active is a no-op. A
// Session is not safe for concurrent use.
type Session struct {
	// FilletSegments is the arc resolution used when committing a fillet.
	// It survives commits and aborts.
	FilletSegments int

	active bool
	kind   Kind
	m      *mesh.Mesh
	faces  []mesh.FaceID
	edges  []mesh.EdgeID

	// Snapshot taken at Begin. order fixes the iteration so previews are
	// deterministic; original is the authoritative entry geometry.
	order    []mesh.VertexID
	original map[mesh.VertexID]r3.Vec
	insetTo  map[mesh.VertexID]r3.Vec

	pivot  r3.Vec
	normal r3.Vec

	// Accumulators. Move grows translation; every other tool grows scalar
	// (radians for rotate, a factor offset for scale, a distance otherwise).
	axis        mesh.Axis
	translation r3.Vec
	scalar      float64
}

// NewSession returns an idle session.
func NewSession() *Session {
	return &Session{FilletSegments: DefaultFilletSegments}
}

// Active reports whether a transform is in progress.
func (s *Session) Active() bool { return s.active }

// Tool returns the kind of the active transform. Meaningless when idle.
func (s *Session) Tool() Kind { return s.kind }

// Begin starts a transform of kind over sel on m. It reports whether the
// session activated: false when a session is already active, when m is nil,
// or when the selection resolves to no live vertices. Begin snapshots the
// affected vertex positions and clears the axis lock and accumulators.
func (s *Session) Begin(m *mesh.Mesh, kind Kind, sel Selection) bool {
	if s.active || m == nil {
		return false
	}

	faces := liveFaces(m, sel.Faces)
	edges := liveEdges(m, sel.Edges)
	var order []mesh.VertexID
	switch kind {
	case KindMove, KindRotate, KindScale:
		order = liveVerts(m, sel.Verts)
	case KindExtrude, KindInset:
		order = faceRingVerts(m, faces)
	case KindBevel, KindChamfer, KindFillet:
		order = edgeEndpoints(m, edges)
	default:
		return false
	}
	if len(order) == 0 {
		return false
	}

	s.active = true
	s.kind = kind
	s.m = m
	s.faces = faces
	s.edges = edges
	s.order = order
	s.original = make(map[mesh.VertexID]r3.Vec, len(order))
	for _, id := range order {
		s.original[id] = m.VertexByID(id).Position
	}
	s.pivot = ops.SelectionCentroid(m, order)
	s.normal = ops.SelectionNormal(m, faces)
	s.insetTo = nil
	if kind == KindInset {
		s.insetTo = insetTargets(m, faces)
	}
	s.axis = mesh.AxisNone
	s.translation = r3.Vec{}
	s.scalar = 0
	return true
}

// SetAxis locks the transform to one world axis; AxisNone clears the lock.
// The lock applies when the preview is computed, so toggling it mid-drag
// re-interprets the whole accumulated delta.
func (s *Session) SetAxis(axis mesh.Axis) {
	s.axis = axis
}

// Pointer feeds one pointer-movement delta into the accumulator. Move
// accumulates the full vector; every other tool accumulates delta.X as its
// scalar. No-op when idle.
func (s *Session) Pointer(delta r3.Vec) {
	if !s.active {
		return
	}
	if s.kind == KindMove {
		s.translation = r3.Add(s.translation, delta)
		return
	}
	s.scalar += delta.X
}

// Preview returns the current preview positions for every affected vertex,
// recomputed from the entry snapshot. The mesh is not touched. Returns nil
// when idle. Bevel, chamfer, and fillet change topology rather than moving
// existing vertices, so their preview is the unchanged snapshot.
func (s *Session) Preview() []Placement {
	if !s.active {
		return nil
	}
	out := make([]Placement, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, Placement{ID: id, Position: s.previewPos(id)})
	}
	return out
}

// Commit applies the accumulated transform through the matching operator and
// returns the resulting mesh, then resets to idle. The input mesh is never
// mutated; like the operators themselves, a commit that amounts to nothing
// returns the input mesh unchanged. Returns nil when idle.
func (s *Session) Commit() *mesh.Mesh {
	if !s.active {
		return nil
	}
	var out *mesh.Mesh
	switch s.kind {
	case KindMove, KindRotate, KindScale:
		positions := make(map[mesh.VertexID]r3.Vec, len(s.order))
		for _, id := range s.order {
			positions[id] = s.previewPos(id)
		}
		out = ops.ApplyPositions(s.m, positions)
	case KindExtrude:
		out = ops.ExtrudeFaces(s.m, s.faces, r3.Scale(s.scalar, s.normal))
	case KindInset:
		out = ops.InsetFaces(s.m, s.faces, clamp(s.scalar, 0, maxInset))
	case KindBevel, KindChamfer:
		out = ops.ChamferEdges(s.m, s.edges, math.Max(0, s.scalar))
	case KindFillet:
		out = ops.FilletEdges(s.m, s.edges, math.Max(0, s.scalar), s.FilletSegments)
	default:
		out = s.m
	}
	s.reset()
	return out
}

// Abort discards the session and returns to idle. Previews never mutate the
// mesh, so there is nothing to restore.
func (s *Session) Abort() {
	s.reset()
}

func (s *Session) reset() {
	s.active = false
	s.kind = KindMove
	s.m = nil
	s.faces = nil
	s.edges = nil
	s.order = nil
	s.original = nil
	s.insetTo = nil
	s.pivot = r3.Vec{}
	s.normal = r3.Vec{}
	s.axis = mesh.AxisNone
	s.translation = r3.Vec{}
	s.scalar = 0
}

// ---------------------------------------------------------------------------
// Preview math
// ---------------------------------------------------------------------------

func (s *Session) previewPos(id mesh.VertexID) r3.Vec {
	p := s.original[id]
	switch s.kind {
	case KindMove:
		return r3.Add(p, s.lockedTranslation())
	case KindRotate:
		axis := s.axis.Vec()
		if s.axis == mesh.AxisNone {
			axis = r3.Vec{Z: 1}
		}
		rot := r3.NewRotation(s.scalar, axis)
		return r3.Add(s.pivot, rot.Rotate(r3.Sub(p, s.pivot)))
	case KindScale:
		d := r3.Sub(p, s.pivot)
		f := 1 + s.scalar
		switch s.axis {
		case mesh.AxisX:
			d.X *= f
		case mesh.AxisY:
			d.Y *= f
		case mesh.AxisZ:
			d.Z *= f
		default:
			d = r3.Scale(f, d)
		}
		return r3.Add(s.pivot, d)
	case KindExtrude:
		return r3.Add(p, r3.Scale(s.scalar, s.normal))
	case KindInset:
		t := clamp(s.scalar, 0, maxInset)
		return r3.Add(r3.Scale(1-t, p), r3.Scale(t, s.insetTo[id]))
	default:
		return p
	}
}

// lockedTranslation zeroes the non-locked components of the accumulated
// translation.
func (s *Session) lockedTranslation() r3.Vec {
	d := s.translation
	switch s.axis {
	case mesh.AxisX:
		d.Y, d.Z = 0, 0
	case mesh.AxisY:
		d.X, d.Z = 0, 0
	case mesh.AxisZ:
		d.X, d.Y = 0, 0
	}
	return d
}

// ---------------------------------------------------------------------------
// Selection resolution
// ---------------------------------------------------------------------------

func liveVerts(m *mesh.Mesh, ids []mesh.VertexID) []mesh.VertexID {
	out := make([]mesh.VertexID, 0, len(ids))
	seen := make(map[mesh.VertexID]bool, len(ids))
	for _, id := range ids {
		if seen[id] || m.VertexByID(id) == nil {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func liveFaces(m *mesh.Mesh, ids []mesh.FaceID) []mesh.FaceID {
	out := make([]mesh.FaceID, 0, len(ids))
	seen := make(map[mesh.FaceID]bool, len(ids))
	for _, id := range ids {
		if seen[id] || m.FaceByID(id) == nil {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func liveEdges(m *mesh.Mesh, ids []mesh.EdgeID) []mesh.EdgeID {
	out := make([]mesh.EdgeID, 0, len(ids))
	seen := make(map[mesh.EdgeID]bool, len(ids))
	for _, id := range ids {
		if seen[id] || m.EdgeByID(id) == nil {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// faceRingVerts collects the vertices of the given faces in ring order,
// deduplicated, so shared corners appear once.
func faceRingVerts(m *mesh.Mesh, faces []mesh.FaceID) []mesh.VertexID {
	var out []mesh.VertexID
	seen := make(map[mesh.VertexID]bool)
	for _, fid := range faces {
		for _, vid := range m.FaceByID(fid).Verts {
			if seen[vid] {
				continue
			}
			seen[vid] = true
			out = append(out, vid)
		}
	}
	return out
}

func edgeEndpoints(m *mesh.Mesh, edges []mesh.EdgeID) []mesh.VertexID {
	var out []mesh.VertexID
	seen := make(map[mesh.VertexID]bool)
	for _, eid := range edges {
		e := m.EdgeByID(eid)
		for _, vid := range e.Verts {
			if seen[vid] {
				continue
			}
			seen[vid] = true
			out = append(out, vid)
		}
	}
	return out
}

// insetTargets computes, per affected vertex, the mean centroid of the
// selected faces containing it. The inset preview slides each vertex toward
// that point; the committed InsetFaces duplicates shared corners per face,
// so for vertices on a single selected face the preview is exact and for
// shared corners it is the average of the per-face results.
func insetTargets(m *mesh.Mesh, faces []mesh.FaceID) map[mesh.VertexID]r3.Vec {
	sum := make(map[mesh.VertexID]r3.Vec)
	count := make(map[mesh.VertexID]int)
	for _, fid := range faces {
		f := m.FaceByID(fid)
		c := m.FaceCentroid(f)
		for _, vid := range f.Verts {
			sum[vid] = r3.Add(sum[vid], c)
			count[vid]++
		}
	}
	out := make(map[mesh.VertexID]r3.Vec, len(sum))
	for vid, total := range sum {
		out[vid] = r3.Scale(1/float64(count[vid]), total)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
