// Package tessellate converts editable polygon meshes into flat triangle
// buffers for rendering. The tessellator is the read-only boundary between
// the kernel and a renderer: it walks faces, fan-triangulates them, and
// emits per-corner attributes; the consumer owns all GPU and scene state.
package tessellate

import (
	"github.com/chazu/meshwright/pkg/mesh"
	"github.com/chazu/meshwright/pkg/store"
)

// TriangleBuffer is a triangle mesh suitable for rendering.
// All arrays are flat: Vertices has 3 floats per corner (x,y,z), Normals has
// 3 floats per corner, UVs has 2, and Indices has 3 uint32s per triangle.
// Corners are emitted per face, so a vertex shared by several faces appears
// once per face and can carry a different normal and UV in each.
type TriangleBuffer struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	UVs      []float32 `json:"uvs"`      // [u0,v0, u1,v1, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // which document mesh this came from
}

// VertexCount returns the number of emitted corners.
func (b *TriangleBuffer) VertexCount() int {
	return len(b.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (b *TriangleBuffer) TriangleCount() int {
	return len(b.Indices) / 3
}

// IsEmpty returns true if the buffer has no geometry.
func (b *TriangleBuffer) IsEmpty() bool {
	return len(b.Vertices) == 0
}

// Tessellate flattens m into a renderable triangle buffer tagged with name.
// Every face contributes one corner per ring entry and one index triple per
// fan triangle. Normals follow m.Shading: flat shading emits the face normal
// at every corner, smooth shading the averaged vertex normal. A face with
// per-loop UVs uses them; otherwise corners fall back to the per-vertex UV.
// The mesh is never mutated; a nil or empty mesh yields an empty buffer.
func Tessellate(m *mesh.Mesh, name string) *TriangleBuffer {
	buf := &TriangleBuffer{Name: name}
	if m == nil {
		return buf
	}
	for i := range m.Faces {
		f := &m.Faces[i]
		ring := f.Verts
		base := uint32(len(buf.Vertices) / 3)

		// Ring entries are distinct ids, so the corner index per id is
		// unambiguous when mapping the fan triangles below.
		corner := make(map[mesh.VertexID]uint32, len(ring))
		for j, vid := range ring {
			v := m.VertexByID(vid)
			if v == nil {
				corner = nil
				break
			}
			corner[vid] = base + uint32(j)

			buf.Vertices = append(buf.Vertices,
				float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z))

			n := f.Normal
			if m.Shading == mesh.ShadingSmooth {
				n = v.Normal
			}
			buf.Normals = append(buf.Normals,
				float32(n.X), float32(n.Y), float32(n.Z))

			uv := v.UV
			if len(f.UVs) == len(ring) {
				uv = f.UVs[j]
			}
			buf.UVs = append(buf.UVs, float32(uv.X), float32(uv.Y))
		}
		if corner == nil {
			// Dangling vertex reference; drop the already-emitted corners
			// and skip the face.
			buf.Vertices = buf.Vertices[:base*3]
			buf.Normals = buf.Normals[:base*3]
			buf.UVs = buf.UVs[:base*2]
			continue
		}

		for _, tri := range m.TriangulateFace(f) {
			buf.Indices = append(buf.Indices,
				corner[tri[0]], corner[tri[1]], corner[tri[2]])
		}
	}
	return buf
}

// TessellateStore tessellates the display mesh of every store entry, in
// document order. Each buffer carries its entry name.
func TessellateStore(s *store.Store) []*TriangleBuffer {
	if s == nil {
		return nil
	}
	names := s.Names()
	out := make([]*TriangleBuffer, 0, len(names))
	for _, name := range names {
		disp, err := s.Display(name)
		if err != nil {
			continue
		}
		out = append(out, Tessellate(disp, name))
	}
	return out
}
