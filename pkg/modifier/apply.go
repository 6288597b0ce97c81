package modifier

import (
	"math"

	"github.com/chazu/meshwright/pkg/mesh"
	"github.com/chazu/meshwright/pkg/ops"
	"gonum.org/v1/gonum/spatial/r3"
)

// Apply folds the stack over base and returns the derived mesh. The base is
// cloned up front and never mutated; disabled modifiers are skipped; edges
// and normals are rebuilt once after the whole fold rather than per step.
func Apply(base *mesh.Mesh, stack []Modifier) *mesh.Mesh {
	out := base.Clone()
	for _, mod := range stack {
		if !mod.Enabled {
			continue
		}
		out = applyOne(out, mod)
	}
	out.RebuildEdges()
	out.RecalculateNormals()
	return out
}

// applyOne dispatches a single stack item. Steps receive and return meshes
// owned by the fold, so they may mutate their input freely. A nil settings
// value falls back to the kind's defaults; an unknown variant passes the
// mesh through unchanged.
func applyOne(m *mesh.Mesh, mod Modifier) *mesh.Mesh {
	settings := mod.Settings
	if settings == nil {
		settings = DefaultSettings(mod.Kind)
	}
	switch s := settings.(type) {
	case MirrorSettings:
		return applyMirror(m, s)
	case SubdivideSettings:
		return ops.SubdivideSmooth(m, ops.SubdivideOptions{
			Iterations:       s.Iterations,
			Smooth:           s.Smooth,
			SmoothIterations: s.SmoothIterations,
		})
	case ArraySettings:
		return applyArray(m, s)
	case WeldSettings:
		return applyWeld(m, s)
	case TriangulateSettings:
		return ops.Triangulate(m)
	case EdgeSplitSettings:
		// Identity for now. Splitting creased edges into disconnected fans
		// needs per-corner vertex duplication that nothing downstream
		// consumes yet.
		return m
	case DecimateSettings:
		return applyDecimate(m, s)
	case SolidifySettings:
		return applySolidify(m, s)
	case ScrewSettings:
		return applyScrew(m, s)
	case BevelSettings:
		return applyBevel(m, s)
	case RemeshSettings:
		return applyRemesh(m, s)
	case VolumeToMeshSettings:
		return applyVolumeToMesh(m, s)
	default:
		return m
	}
}

// ---------------------------------------------------------------------------
// Mirror
// ---------------------------------------------------------------------------

func applyMirror(m *mesh.Mesh, s MirrorSettings) *mesh.Mesh {
	if s.Axis != mesh.AxisX && s.Axis != mesh.AxisY && s.Axis != mesh.AxisZ {
		return m
	}
	if s.Merge && s.MergeThreshold > 0 {
		for i := range m.Vertices {
			p := &m.Vertices[i].Position
			switch s.Axis {
			case mesh.AxisX:
				if math.Abs(p.X) < s.MergeThreshold {
					p.X = 0
				}
			case mesh.AxisY:
				if math.Abs(p.Y) < s.MergeThreshold {
					p.Y = 0
				}
			case mesh.AxisZ:
				if math.Abs(p.Z) < s.MergeThreshold {
					p.Z = 0
				}
			}
		}
	}

	srcVerts := make([]mesh.Vertex, len(m.Vertices))
	copy(srcVerts, m.Vertices)
	srcFaces := make([]mesh.Face, len(m.Faces))
	copy(srcFaces, m.Faces)

	mapping := make(map[mesh.VertexID]mesh.VertexID, len(srcVerts))
	for _, v := range srcVerts {
		p := v.Position
		switch s.Axis {
		case mesh.AxisX:
			p.X = -p.X
		case mesh.AxisY:
			p.Y = -p.Y
		case mesh.AxisZ:
			p.Z = -p.Z
		}
		mapping[v.ID] = m.AddVertex(p)
	}
	// Reflection flips orientation, so the copied faces reverse their
	// winding to keep normals pointing outward.
	for _, f := range srcFaces {
		ring := make([]mesh.VertexID, len(f.Verts))
		for i, vid := range f.Verts {
			ring[len(f.Verts)-1-i] = mapping[vid]
		}
		m.AddFace(ring...)
	}
	return m
}

// ---------------------------------------------------------------------------
// Array
// ---------------------------------------------------------------------------

func applyArray(m *mesh.Mesh, s ArraySettings) *mesh.Mesh {
	if s.Count < 2 {
		return m
	}
	srcVerts := make([]mesh.Vertex, len(m.Vertices))
	copy(srcVerts, m.Vertices)
	srcFaces := make([]mesh.Face, len(m.Faces))
	copy(srcFaces, m.Faces)

	for i := 1; i < s.Count; i++ {
		shift := r3.Scale(float64(i), s.Offset)
		mapping := make(map[mesh.VertexID]mesh.VertexID, len(srcVerts))
		for _, v := range srcVerts {
			mapping[v.ID] = m.AddVertex(r3.Add(v.Position, shift))
		}
		for _, f := range srcFaces {
			ring := make([]mesh.VertexID, len(f.Verts))
			for j, vid := range f.Verts {
				ring[j] = mapping[vid]
			}
			m.AddFace(ring...)
		}
	}
	return m
}

// ---------------------------------------------------------------------------
// Weld
// ---------------------------------------------------------------------------

// applyWeld clusters vertices greedily: each unclaimed vertex seeds a
// cluster of everything within Distance, and the whole cluster collapses to
// the seed's position. Unlike the merge operator this considers every
// vertex, not a selection, and keeps the seed where it is.
func applyWeld(m *mesh.Mesh, s WeldSettings) *mesh.Mesh {
	if s.Distance <= 0 || len(m.Vertices) < 2 {
		return m
	}
	remap := make(map[mesh.VertexID]mesh.VertexID)
	claimed := make(map[mesh.VertexID]bool)
	for i := range m.Vertices {
		seed := &m.Vertices[i]
		if claimed[seed.ID] {
			continue
		}
		claimed[seed.ID] = true
		for j := i + 1; j < len(m.Vertices); j++ {
			other := &m.Vertices[j]
			if claimed[other.ID] {
				continue
			}
			if r3.Norm(r3.Sub(other.Position, seed.Position)) <= s.Distance {
				claimed[other.ID] = true
				remap[other.ID] = seed.ID
			}
		}
	}
	if len(remap) == 0 {
		return m
	}
	for i := range m.Faces {
		f := &m.Faces[i]
		for j, vid := range f.Verts {
			if to, ok := remap[vid]; ok {
				f.Verts[j] = to
			}
		}
	}
	m.PruneDegenerateFaces()
	dead := make(map[mesh.VertexID]bool, len(remap))
	for vid := range remap {
		dead[vid] = true
	}
	m.RemoveVertices(dead)
	return m
}

// ---------------------------------------------------------------------------
// Decimate
// ---------------------------------------------------------------------------

// applyDecimate keeps roughly Ratio of the faces, spread evenly over the
// face list. A face survives when its index advances the floor accumulator,
// which keeps exactly ceil(n·ratio) faces without any error metric.
func applyDecimate(m *mesh.Mesh, s DecimateSettings) *mesh.Mesh {
	if s.Ratio >= 1 {
		return m
	}
	drop := make(map[mesh.FaceID]bool)
	ratio := s.Ratio
	if ratio < 0 {
		ratio = 0
	}
	for i := range m.Faces {
		keep := int(float64(i+1)*ratio) > int(float64(i)*ratio)
		if !keep {
			drop[m.Faces[i].ID] = true
		}
	}
	if len(drop) == 0 {
		return m
	}
	m.RemoveFaces(drop)
	return m
}

// ---------------------------------------------------------------------------
// Solidify
// ---------------------------------------------------------------------------

func applySolidify(m *mesh.Mesh, s SolidifySettings) *mesh.Mesh {
	if s.Thickness == 0 || len(m.Faces) == 0 {
		return m
	}
	// Offsets follow smooth vertex normals, which may be stale mid-fold.
	m.RecalculateNormals()

	srcVerts := make([]mesh.Vertex, len(m.Vertices))
	copy(srcVerts, m.Vertices)
	srcFaces := make([]mesh.Face, len(m.Faces))
	copy(srcFaces, m.Faces)

	mapping := make(map[mesh.VertexID]mesh.VertexID, len(srcVerts))
	for _, v := range srcVerts {
		inner := r3.Add(v.Position, r3.Scale(-s.Thickness, v.Normal))
		mapping[v.ID] = m.AddVertex(inner)
	}
	for _, f := range srcFaces {
		ring := make([]mesh.VertexID, len(f.Verts))
		for i, vid := range f.Verts {
			ring[len(f.Verts)-1-i] = mapping[vid]
		}
		m.AddFace(ring...)
	}
	return m
}

// ---------------------------------------------------------------------------
// Screw
// ---------------------------------------------------------------------------

func applyScrew(m *mesh.Mesh, s ScrewSettings) *mesh.Mesh {
	if s.Steps < 1 || (s.Angle == 0 && s.Height == 0) {
		return m
	}
	srcVerts := make([]mesh.Vertex, len(m.Vertices))
	copy(srcVerts, m.Vertices)
	srcFaces := make([]mesh.Face, len(m.Faces))
	copy(srcFaces, m.Faces)

	for i := 1; i <= s.Steps; i++ {
		t := float64(i) / float64(s.Steps)
		angle := s.Angle * t
		lift := s.Height * t
		sin, cos := math.Sin(angle), math.Cos(angle)
		mapping := make(map[mesh.VertexID]mesh.VertexID, len(srcVerts))
		for _, v := range srcVerts {
			p := v.Position
			q := r3.Vec{
				X: p.X*cos - p.Y*sin,
				Y: p.X*sin + p.Y*cos,
				Z: p.Z + lift,
			}
			mapping[v.ID] = m.AddVertex(q)
		}
		// Rotation plus translation preserves orientation, so windings
		// carry over as-is.
		for _, f := range srcFaces {
			ring := make([]mesh.VertexID, len(f.Verts))
			for j, vid := range f.Verts {
				ring[j] = mapping[vid]
			}
			m.AddFace(ring...)
		}
	}
	return m
}

// ---------------------------------------------------------------------------
// Remesh
// ---------------------------------------------------------------------------

func applyRemesh(m *mesh.Mesh, s RemeshSettings) *mesh.Mesh {
	if s.VoxelSize <= 0 || len(m.Vertices) == 0 {
		return m
	}
	type cell struct{ x, y, z int64 }
	snap := func(v float64) (float64, int64) {
		n := math.Round(v / s.VoxelSize)
		return n * s.VoxelSize, int64(n)
	}
	remap := make(map[mesh.VertexID]mesh.VertexID)
	owner := make(map[cell]mesh.VertexID)
	for i := range m.Vertices {
		v := &m.Vertices[i]
		var c cell
		v.Position.X, c.x = snap(v.Position.X)
		v.Position.Y, c.y = snap(v.Position.Y)
		v.Position.Z, c.z = snap(v.Position.Z)
		if first, ok := owner[c]; ok {
			remap[v.ID] = first
		} else {
			owner[c] = v.ID
		}
	}
	if len(remap) > 0 {
		for i := range m.Faces {
			f := &m.Faces[i]
			for j, vid := range f.Verts {
				if to, ok := remap[vid]; ok {
					f.Verts[j] = to
				}
			}
		}
		m.PruneDegenerateFaces()
		dead := make(map[mesh.VertexID]bool, len(remap))
		for vid := range remap {
			dead[vid] = true
		}
		m.RemoveVertices(dead)
	}
	switch s.Mode {
	case RemeshQuads:
		return ops.SmoothLaplacian(m, 0.3, 1)
	case RemeshSmooth:
		return ops.SmoothLaplacian(m, 0.5, 3)
	default:
		return m
	}
}
