package mesh

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Ids
// ---------------------------------------------------------------------------

// VertexID identifies a vertex within its owning mesh. Zero is never
// allocated and means "no vertex".
type VertexID uint32

// EdgeID identifies an edge within its owning mesh. Edge ids are NOT
// stable across RebuildEdges; only the seam flag survives a rebuild.
type EdgeID uint32

// FaceID identifies a face within its owning mesh. Zero is never
// allocated and means "no face".
type FaceID uint32

// IsZero reports whether the id is the reserved "no vertex" value.
func (id VertexID) IsZero() bool { return id == 0 }

// IsZero reports whether the id is the reserved "no edge" value.
func (id EdgeID) IsZero() bool { return id == 0 }

// IsZero reports whether the id is the reserved "no face" value.
func (id FaceID) IsZero() bool { return id == 0 }

// ---------------------------------------------------------------------------
// Axes
// ---------------------------------------------------------------------------

// Axis selects a world axis for mirroring, screw sweeps, and tool locks.
type Axis int

const (
	AxisNone Axis = iota // no axis constraint
	AxisX
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisNone:
		return "none"
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// Vec returns the unit vector along the axis, or the zero vector for AxisNone.
func (a Axis) Vec() r3.Vec {
	switch a {
	case AxisX:
		return r3.Vec{X: 1}
	case AxisY:
		return r3.Vec{Y: 1}
	case AxisZ:
		return r3.Vec{Z: 1}
	default:
		return r3.Vec{}
	}
}

// ---------------------------------------------------------------------------
// Shading
// ---------------------------------------------------------------------------

// ShadingMode selects how consumers derive normals from the mesh.
type ShadingMode int

const (
	ShadingFlat   ShadingMode = iota // per-face normals
	ShadingSmooth                    // averaged per-vertex normals
)

func (s ShadingMode) String() string {
	switch s {
	case ShadingFlat:
		return "flat"
	case ShadingSmooth:
		return "smooth"
	default:
		return "unknown"
	}
}

// ---------------------------------------------------------------------------
// Elements
// ---------------------------------------------------------------------------

// Vertex is a point of the mesh. Position is the authoritative geometry;
// Normal is derived by RecalculateNormals and never authoritative input.
type Vertex struct {
	ID       VertexID `json:"id"`
	Position r3.Vec   `json:"position"`
	Normal   r3.Vec   `json:"normal"`
	UV       r2.Vec   `json:"uv"`
	Selected bool     `json:"selected,omitempty"`
}

// Edge connects two vertices and records the 1 or 2 faces that share it.
// Edges are derived from the face list by RebuildEdges; the only authored
// state is Seam, which is re-associated across rebuilds by endpoint
// position rather than by id.
type Edge struct {
	ID    EdgeID      `json:"id"`
	Verts [2]VertexID `json:"verts"`
	Faces []FaceID    `json:"faces,omitempty"`
	Seam  bool        `json:"seam,omitempty"`
}

// Other returns the edge endpoint that is not v, or zero if v is not an
// endpoint of the edge.
func (e *Edge) Other(v VertexID) VertexID {
	switch v {
	case e.Verts[0]:
		return e.Verts[1]
	case e.Verts[1]:
		return e.Verts[0]
	}
	return 0
}

// Boundary reports whether the edge has fewer than two incident faces.
func (e *Edge) Boundary() bool { return len(e.Faces) < 2 }

// Face is a polygon over ≥3 distinct vertex ids in CCW winding order.
// UVs, when non-nil, holds one per-loop texture coordinate per ring entry
// and overrides the per-vertex UV for this face.
type Face struct {
	ID       FaceID     `json:"id"`
	Verts    []VertexID `json:"verts"`
	Normal   r3.Vec     `json:"normal"`
	UVs      []r2.Vec   `json:"uvs,omitempty"`
	Selected bool       `json:"selected,omitempty"`
}

// ---------------------------------------------------------------------------
// Mesh
// ---------------------------------------------------------------------------

// Mesh is an editable polygon mesh: dense element slices plus id→index
// lookup maps rebuilt on demand after structural changes. Every vertex id
// referenced by a face or edge must resolve to a live vertex; edges are
// exactly the set derivable from the current faces (modulo seam flags).
//
// A Mesh is a plain serializable value: persisting and restoring the
// exported fields reproduces the mesh exactly.
type Mesh struct {
	Name       string      `json:"name,omitempty"`
	Vertices   []Vertex    `json:"vertices"`
	Edges      []Edge      `json:"edges"`
	Faces      []Face      `json:"faces"`
	MaterialID string      `json:"material_id,omitempty"`
	Shading    ShadingMode `json:"shading"`

	// Id counters. Zero is reserved; counters only grow, so ids are
	// never reused within one mesh lineage (clones carry the counters).
	NextVertexID VertexID `json:"next_vertex_id"`
	NextEdgeID   EdgeID   `json:"next_edge_id"`
	NextFaceID   FaceID   `json:"next_face_id"`

	vertIndex map[VertexID]int
	edgeIndex map[EdgeID]int
	faceIndex map[FaceID]int
	pairIndex map[pairKey]int // unordered endpoint pair → edge slice index
}

// New creates an empty mesh.
func New(name string) *Mesh {
	return &Mesh{
		Name:         name,
		NextVertexID: 1,
		NextEdgeID:   1,
		NextFaceID:   1,
	}
}

// VertexCount returns the number of live vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// EdgeCount returns the number of derived edges.
func (m *Mesh) EdgeCount() int { return len(m.Edges) }

// FaceCount returns the number of live faces.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// IsEmpty reports whether the mesh has no faces.
func (m *Mesh) IsEmpty() bool { return len(m.Faces) == 0 }

// ---------------------------------------------------------------------------
// Lookup (arena + index map)
// ---------------------------------------------------------------------------

func (m *Mesh) ensureVertIndex() {
	if m.vertIndex != nil {
		return
	}
	m.vertIndex = make(map[VertexID]int, len(m.Vertices))
	for i := range m.Vertices {
		m.vertIndex[m.Vertices[i].ID] = i
	}
}

func (m *Mesh) ensureEdgeIndex() {
	if m.edgeIndex != nil {
		return
	}
	m.edgeIndex = make(map[EdgeID]int, len(m.Edges))
	m.pairIndex = make(map[pairKey]int, len(m.Edges))
	for i := range m.Edges {
		e := &m.Edges[i]
		m.edgeIndex[e.ID] = i
		m.pairIndex[makePairKey(e.Verts[0], e.Verts[1])] = i
	}
}

func (m *Mesh) ensureFaceIndex() {
	if m.faceIndex != nil {
		return
	}
	m.faceIndex = make(map[FaceID]int, len(m.Faces))
	for i := range m.Faces {
		m.faceIndex[m.Faces[i].ID] = i
	}
}

// invalidateIndexes drops all lookup maps; they are rebuilt lazily.
func (m *Mesh) invalidateIndexes() {
	m.vertIndex = nil
	m.edgeIndex = nil
	m.faceIndex = nil
	m.pairIndex = nil
}

// VertexByID returns the vertex with the given id, or nil. The pointer is
// valid until the next structural change to the mesh.
func (m *Mesh) VertexByID(id VertexID) *Vertex {
	m.ensureVertIndex()
	i, ok := m.vertIndex[id]
	if !ok {
		return nil
	}
	return &m.Vertices[i]
}

// EdgeByID returns the edge with the given id, or nil.
func (m *Mesh) EdgeByID(id EdgeID) *Edge {
	m.ensureEdgeIndex()
	i, ok := m.edgeIndex[id]
	if !ok {
		return nil
	}
	return &m.Edges[i]
}

// FaceByID returns the face with the given id, or nil.
func (m *Mesh) FaceByID(id FaceID) *Face {
	m.ensureFaceIndex()
	i, ok := m.faceIndex[id]
	if !ok {
		return nil
	}
	return &m.Faces[i]
}

// EdgeBetween returns the edge joining a and b regardless of direction,
// or nil if the current edge list has no such edge.
func (m *Mesh) EdgeBetween(a, b VertexID) *Edge {
	m.ensureEdgeIndex()
	i, ok := m.pairIndex[makePairKey(a, b)]
	if !ok {
		return nil
	}
	return &m.Edges[i]
}

// ---------------------------------------------------------------------------
// Structural mutation
// ---------------------------------------------------------------------------

// AddVertex appends a vertex at the given position and returns its id.
func (m *Mesh) AddVertex(pos r3.Vec) VertexID {
	id := m.NextVertexID
	m.NextVertexID++
	m.Vertices = append(m.Vertices, Vertex{ID: id, Position: pos})
	if m.vertIndex != nil {
		m.vertIndex[id] = len(m.Vertices) - 1
	}
	return id
}

// AddFace appends a polygon over the given vertex ids and returns its id.
// Rings shorter than 3, rings with duplicate ids, and rings referencing
// unknown vertices are rejected and return zero: operators may emit
// candidate faces freely and rely on this filter for degenerate cleanup.
func (m *Mesh) AddFace(verts ...VertexID) FaceID {
	if len(verts) < 3 {
		return 0
	}
	seen := make(map[VertexID]bool, len(verts))
	for _, v := range verts {
		if seen[v] || m.VertexByID(v) == nil {
			return 0
		}
		seen[v] = true
	}
	id := m.NextFaceID
	m.NextFaceID++
	ring := make([]VertexID, len(verts))
	copy(ring, verts)
	m.Faces = append(m.Faces, Face{ID: id, Verts: ring})
	if m.faceIndex != nil {
		m.faceIndex[id] = len(m.Faces) - 1
	}
	return id
}

// RemoveVertices deletes the given vertices. It does not cascade; callers
// that need referencing faces removed must remove those faces first.
func (m *Mesh) RemoveVertices(ids map[VertexID]bool) {
	if len(ids) == 0 {
		return
	}
	kept := m.Vertices[:0]
	for _, v := range m.Vertices {
		if !ids[v.ID] {
			kept = append(kept, v)
		}
	}
	m.Vertices = kept
	m.invalidateIndexes()
}

// RemoveFaces deletes the given faces. Vertices are untouched.
func (m *Mesh) RemoveFaces(ids map[FaceID]bool) {
	if len(ids) == 0 {
		return
	}
	kept := m.Faces[:0]
	for _, f := range m.Faces {
		if !ids[f.ID] {
			kept = append(kept, f)
		}
	}
	m.Faces = kept
	m.invalidateIndexes()
}

// PruneDegenerateFaces drops faces that have become degenerate, typically
// after a merge retargeted their references: rings shorter than 3, rings
// holding the same vertex id twice, and rings referencing vertices that no
// longer exist. Returns the number of faces removed.
func (m *Mesh) PruneDegenerateFaces() int {
	kept := m.Faces[:0]
	dropped := 0
	for _, f := range m.Faces {
		if len(f.Verts) < 3 || ringHasDuplicate(f.Verts) || !m.ringResolves(f.Verts) {
			dropped++
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept
	if dropped > 0 {
		m.invalidateIndexes()
	}
	return dropped
}

func ringHasDuplicate(ring []VertexID) bool {
	seen := make(map[VertexID]bool, len(ring))
	for _, v := range ring {
		if seen[v] {
			return true
		}
		seen[v] = true
	}
	return false
}

func (m *Mesh) ringResolves(ring []VertexID) bool {
	for _, v := range ring {
		if m.VertexByID(v) == nil {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Copying
// ---------------------------------------------------------------------------

// Clone returns a deep copy sharing no storage with the receiver. Element
// ids and id counters are preserved, so ids remain stable across the
// pure-operator pipeline.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Name:         m.Name,
		MaterialID:   m.MaterialID,
		Shading:      m.Shading,
		NextVertexID: m.NextVertexID,
		NextEdgeID:   m.NextEdgeID,
		NextFaceID:   m.NextFaceID,
	}
	out.Vertices = make([]Vertex, len(m.Vertices))
	copy(out.Vertices, m.Vertices)
	out.Edges = make([]Edge, len(m.Edges))
	for i, e := range m.Edges {
		e.Faces = append([]FaceID(nil), e.Faces...)
		out.Edges[i] = e
	}
	out.Faces = make([]Face, len(m.Faces))
	for i, f := range m.Faces {
		f.Verts = append([]VertexID(nil), f.Verts...)
		if f.UVs != nil {
			f.UVs = append([]r2.Vec(nil), f.UVs...)
		}
		out.Faces[i] = f
	}
	return out
}

// Snapshot captures the structural state of a mesh for persistence or
// undo. It is a plain value: marshal it, store it, restore it.
type Snapshot struct {
	Vertices []Vertex `json:"vertices"`
	Edges    []Edge   `json:"edges"`
	Faces    []Face   `json:"faces"`
}

// TakeSnapshot returns a deep structural snapshot of the mesh.
func (m *Mesh) TakeSnapshot() Snapshot {
	c := m.Clone()
	return Snapshot{Vertices: c.Vertices, Edges: c.Edges, Faces: c.Faces}
}

// RestoreSnapshot replaces the mesh's structure with the snapshot's. The
// snapshot is deep-copied, so the caller may keep reusing it.
func (m *Mesh) RestoreSnapshot(s Snapshot) {
	tmp := Mesh{Vertices: s.Vertices, Edges: s.Edges, Faces: s.Faces}
	c := tmp.Clone()
	m.Vertices = c.Vertices
	m.Edges = c.Edges
	m.Faces = c.Faces
	m.invalidateIndexes()
	// Counters must stay ahead of every restored id.
	for i := range m.Vertices {
		if m.Vertices[i].ID >= m.NextVertexID {
			m.NextVertexID = m.Vertices[i].ID + 1
		}
	}
	for i := range m.Edges {
		if m.Edges[i].ID >= m.NextEdgeID {
			m.NextEdgeID = m.Edges[i].ID + 1
		}
	}
	for i := range m.Faces {
		if m.Faces[i].ID >= m.NextFaceID {
			m.NextFaceID = m.Faces[i].ID + 1
		}
	}
}
