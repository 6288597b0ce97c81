package ops

import "github.com/chazu/meshwright/pkg/mesh"

// LoopCut inserts a cut running perpendicular to the seed edge through the
// ring of quads around it. Starting from the seed's faces the walk crosses
// each quad to its opposite edge, in both directions, until the loop
// closes on itself or runs into a boundary or a non-quad face. Every
// traversed quad is split in two at interpolation parameter t along its
// entry and exit edges; t is measured consistently along the walk, so the
// cut slides as one line. One vertex is inserted per crossed edge.
//
// The seed must lie on at least one quad and t must be strictly inside
// (0,1), otherwise the mesh is returned unchanged.
func LoopCut(m *mesh.Mesh, seed mesh.EdgeID, t float64) *mesh.Mesh {
	if !(t > 0 && t < 1) {
		return m
	}
	e := m.EdgeByID(seed)
	if e == nil {
		return m
	}
	out := m.Clone()

	// Each traversal records one quad with its ring rotated so the entry
	// edge reads (a,b) and the exit edge (d,c); a and d sit on the same
	// side of the cut. forward is whether (a,b) follows the ring's own
	// direction: the two faces of the seed edge store it in opposite
	// directions, so one of the two walks runs against its rings and its
	// replacement quads must be emitted reversed to keep the winding.
	type traversal struct {
		face       mesh.FaceID
		a, b, c, d mesh.VertexID
		forward    bool
	}
	var walkOrder []traversal
	visited := make(map[mesh.FaceID]bool)

	walk := func(start mesh.FaceID, a, b mesh.VertexID) {
		fid := start
		for !fid.IsZero() && !visited[fid] {
			f := out.FaceByID(fid)
			if f == nil || len(f.Verts) != 4 {
				return
			}
			c, d, fwd, ok := oppositeEdge(f.Verts, a, b)
			if !ok {
				return
			}
			visited[fid] = true
			walkOrder = append(walkOrder, traversal{face: fid, a: a, b: b, c: c, d: d, forward: fwd})

			exit := out.EdgeBetween(c, d)
			if exit == nil || exit.Boundary() {
				return
			}
			next := mesh.FaceID(0)
			for _, nf := range exit.Faces {
				if nf != fid {
					next = nf
				}
			}
			fid = next
			a, b = d, c
		}
	}

	seedEdge := out.EdgeByID(seed)
	for _, fid := range seedEdge.Faces {
		walk(fid, seedEdge.Verts[0], seedEdge.Verts[1])
	}
	if len(walkOrder) == 0 {
		return m
	}

	// One new vertex per crossed edge, shared where the loop closes.
	cut := make(map[[2]mesh.VertexID]mesh.VertexID)
	midpoint := func(u, v mesh.VertexID) mesh.VertexID {
		k := [2]mesh.VertexID{u, v}
		if v < u {
			k = [2]mesh.VertexID{v, u}
		}
		if id, ok := cut[k]; ok {
			return id
		}
		id := out.AddVertex(lerp(out.VertexByID(u).Position, out.VertexByID(v).Position, t))
		cut[k] = id
		return id
	}

	dead := make(map[mesh.FaceID]bool, len(walkOrder))
	for _, tr := range walkOrder {
		in := midpoint(tr.a, tr.b)
		outv := midpoint(tr.d, tr.c)
		selected := out.FaceByID(tr.face).Selected
		dead[tr.face] = true
		var fa, fb mesh.FaceID
		if tr.forward {
			fa = out.AddFace(tr.a, in, outv, tr.d)
			fb = out.AddFace(in, tr.b, tr.c, outv)
		} else {
			fa = out.AddFace(tr.d, outv, in, tr.a)
			fb = out.AddFace(outv, tr.c, tr.b, in)
		}
		if fa != 0 {
			out.FaceByID(fa).Selected = selected
		}
		if fb != 0 {
			out.FaceByID(fb).Selected = selected
		}
	}
	out.RemoveFaces(dead)
	return out
}

// oppositeEdge rotates a quad ring entered through adjacent pair (a,b)
// and returns the far edge as (c,d), with d adjacent to a. forward is
// whether (a,b) matches the ring's storage direction; ok is false when a
// and b are not adjacent in the ring.
func oppositeEdge(ring []mesh.VertexID, a, b mesh.VertexID) (c, d mesh.VertexID, forward, ok bool) {
	n := len(ring)
	ia := ringIndex(ring, a)
	if ia < 0 {
		return 0, 0, false, false
	}
	switch {
	case ring[(ia+1)%n] == b:
		return ring[(ia+2)%n], ring[(ia+3)%n], true, true
	case ring[(ia-1+n)%n] == b:
		return ring[(ia-2+2*n)%n], ring[(ia-3+2*n)%n], false, true
	}
	return 0, 0, false, false
}
