package modifier

import (
	"math"
	"sort"

	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	bevelEps = 1e-9
	areaEps  = 1e-12
	minMiter = 1e-3 // lower bound on cos(half angle) so sharp miters stay finite
)

// applyBevel rounds off creased edges across the whole mesh. Every face is
// replaced by an inset copy: corners touching an edge whose dihedral angle
// meets AngleThreshold (or a boundary edge) slide inward by a miter-derived
// distance, other corners stay put. Neighboring faces are then stitched
// with a quad per shared edge and each vertex with three or more faces gets
// a polygon cap sorted by angle around it.
func applyBevel(m *mesh.Mesh, s BevelSettings) *mesh.Mesh {
	if s.Width <= 0 || len(m.Faces) == 0 {
		return m
	}

	type pair [2]mesh.VertexID
	key := func(a, b mesh.VertexID) pair {
		if a < b {
			return pair{a, b}
		}
		return pair{b, a}
	}

	// Pre-pass over the incoming topology. Everything below reads these
	// snapshots so the mesh can grow freely while we build the result.
	srcFaces := make([]mesh.Face, len(m.Faces))
	copy(srcFaces, m.Faces)
	srcPos := make(map[mesh.VertexID]r3.Vec, len(m.Vertices))
	srcIDs := make([]mesh.VertexID, 0, len(m.Vertices))
	for i := range m.Vertices {
		v := &m.Vertices[i]
		srcPos[v.ID] = v.Position
		srcIDs = append(srcIDs, v.ID)
	}

	normals := make(map[mesh.FaceID]r3.Vec, len(srcFaces))
	centroids := make(map[mesh.FaceID]r3.Vec, len(srcFaces))
	for i := range srcFaces {
		f := &srcFaces[i]
		normals[f.ID] = m.FaceNormal(f)
		centroids[f.ID] = m.FaceCentroid(f)
	}

	edgeFaces := make(map[pair][]mesh.FaceID)
	vertFaces := make(map[mesh.VertexID][]mesh.FaceID)
	for _, f := range srcFaces {
		n := len(f.Verts)
		for j, vid := range f.Verts {
			edgeFaces[key(vid, f.Verts[(j+1)%n])] = append(edgeFaces[key(vid, f.Verts[(j+1)%n])], f.ID)
			vertFaces[vid] = append(vertFaces[vid], f.ID)
		}
	}

	sharp := make(map[pair]bool, len(edgeFaces))
	anySharp := false
	for k, fs := range edgeFaces {
		if len(fs) != 2 {
			sharp[k] = true // boundary and non-manifold edges always crease
			anySharp = true
			continue
		}
		cos := clamp(r3.Dot(normals[fs[0]], normals[fs[1]]), -1, 1)
		if math.Acos(cos) >= s.AngleThreshold {
			sharp[k] = true
			anySharp = true
		}
	}
	if !anySharp {
		return m
	}

	// inFacePerp of edge (a,b) within face fid: unit, in plane, pointing at
	// the face interior.
	perp := func(fid mesh.FaceID, a, b mesh.VertexID) (r3.Vec, bool) {
		pa, pb := srcPos[a], srcPos[b]
		dir := r3.Sub(pb, pa)
		if r3.Norm(dir) < bevelEps {
			return r3.Vec{}, false
		}
		p := r3.Cross(normals[fid], r3.Scale(1/r3.Norm(dir), dir))
		if r3.Norm(p) < bevelEps {
			return r3.Vec{}, false
		}
		p = r3.Unit(p)
		mid := r3.Scale(0.5, r3.Add(pa, pb))
		if r3.Dot(r3.Sub(centroids[fid], mid), p) < 0 {
			p = r3.Scale(-1, p)
		}
		return p, true
	}

	type corner struct {
		face mesh.FaceID
		vert mesh.VertexID
	}
	inset := make(map[corner]mesh.VertexID, len(srcFaces)*4)
	newRings := make([][]mesh.VertexID, len(srcFaces))

	for fi, f := range srcFaces {
		ring := f.Verts
		n := len(ring)
		newRing := make([]mesh.VertexID, n)
		for i, vid := range ring {
			prev, next := ring[(i-1+n)%n], ring[(i+1)%n]
			pos := srcPos[vid]
			if sharp[key(prev, vid)] || sharp[key(vid, next)] {
				pos = insetCorner(pos, f.ID, prev, vid, next, s, perp, centroids)
			}
			nv := m.AddVertex(pos)
			newRing[i] = nv
			inset[corner{f.ID, vid}] = nv
		}
		newRings[fi] = newRing
	}

	// Swap every original face for its inset ring, keeping the winding.
	drop := make(map[mesh.FaceID]bool, len(srcFaces))
	for _, f := range srcFaces {
		drop[f.ID] = true
	}
	m.RemoveFaces(drop)
	for _, ring := range newRings {
		m.AddFace(ring...)
	}

	// Stitch neighboring faces across each interior edge. Walking the face
	// rings (rather than ranging over the edge map) keeps output face ids
	// deterministic.
	seen := make(map[pair]bool, len(edgeFaces))
	for _, f := range srcFaces {
		n := len(f.Verts)
		for j, a := range f.Verts {
			b := f.Verts[(j+1)%n]
			k := key(a, b)
			if seen[k] {
				continue
			}
			seen[k] = true
			fs := edgeFaces[k]
			if len(fs) != 2 {
				continue
			}
			quad := []mesh.VertexID{
				inset[corner{fs[0], a}],
				inset[corner{fs[0], b}],
				inset[corner{fs[1], b}],
				inset[corner{fs[1], a}],
			}
			addRingOriented(m, quad, r3.Add(normals[fs[0]], normals[fs[1]]))
		}
	}

	// Cap each vertex where three or more faces meet: the inset corners are
	// sorted by angle around the vertex normal so the cap ring is convex.
	for _, vid := range srcIDs {
		fs := vertFaces[vid]
		if len(fs) < 3 {
			continue
		}
		var nv r3.Vec
		for _, fid := range fs {
			nv = r3.Add(nv, normals[fid])
		}
		if r3.Norm(nv) < bevelEps {
			nv = r3.Vec{Z: 1}
		} else {
			nv = r3.Unit(nv)
		}
		t1, t2 := planeBasis(nv)
		center := srcPos[vid]
		type capPt struct {
			id  mesh.VertexID
			ang float64
		}
		pts := make([]capPt, 0, len(fs))
		for _, fid := range fs {
			id := inset[corner{fid, vid}]
			d := r3.Sub(m.VertexByID(id).Position, center)
			pts = append(pts, capPt{id, math.Atan2(r3.Dot(d, t2), r3.Dot(d, t1))})
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].ang < pts[j].ang })
		ring := make([]mesh.VertexID, len(pts))
		for i, p := range pts {
			ring[i] = p.id
		}
		addRingOriented(m, ring, nv)
	}

	if s.CullDegenerate {
		cullZeroAreaFaces(m)
	}

	// All original vertices are orphaned now that every face was replaced.
	dead := make(map[mesh.VertexID]bool, len(srcIDs))
	for _, vid := range srcIDs {
		dead[vid] = true
	}
	m.RemoveVertices(dead)
	return m
}

// insetCorner slides a corner inward along the bisector of the two in-face
// edge perpendiculars. The miter mode sets the distance: sharp keeps the
// inset edges at exactly width from the originals (corner stays pointed),
// chamfer moves exactly width along the bisector (corner gets cut), arc
// takes the midpoint of the two.
func insetCorner(
	pos r3.Vec,
	fid mesh.FaceID,
	prev, vid, next mesh.VertexID,
	s BevelSettings,
	perp func(mesh.FaceID, mesh.VertexID, mesh.VertexID) (r3.Vec, bool),
	centroids map[mesh.FaceID]r3.Vec,
) r3.Vec {
	toCentroid := func() (r3.Vec, bool) {
		d := r3.Sub(centroids[fid], pos)
		if r3.Norm(d) < bevelEps {
			return r3.Vec{}, false
		}
		return r3.Unit(d), true
	}

	pa, okA := perp(fid, prev, vid)
	pb, okB := perp(fid, vid, next)
	if !okA || !okB {
		dir, ok := toCentroid()
		if !ok {
			return pos
		}
		return r3.Add(pos, r3.Scale(s.Width, dir))
	}
	dir := r3.Add(pa, pb)
	if r3.Norm(dir) < bevelEps {
		d, ok := toCentroid()
		if !ok {
			return pos
		}
		dir = d
	} else {
		dir = r3.Unit(dir)
	}
	cosHalf := math.Max(minMiter, clamp(r3.Dot(dir, pa), -1, 1))
	sharpDist := s.Width / cosHalf
	var dist float64
	switch s.Miter {
	case MiterSharp:
		dist = sharpDist
	case MiterArc:
		dist = (sharpDist + s.Width) / 2
	default:
		dist = s.Width
	}
	return r3.Add(pos, r3.Scale(dist, dir))
}

// addRingOriented adds the ring as a face, reversed first when its Newell
// normal points against ref.
func addRingOriented(m *mesh.Mesh, ring []mesh.VertexID, ref r3.Vec) mesh.FaceID {
	var n r3.Vec
	for i, id := range ring {
		p := m.VertexByID(id).Position
		q := m.VertexByID(ring[(i+1)%len(ring)]).Position
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	if r3.Dot(n, ref) < 0 {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}
	return m.AddFace(ring...)
}

// cullZeroAreaFaces drops faces whose polygon area vanished, typically
// stitching quads over corners that never moved.
func cullZeroAreaFaces(m *mesh.Mesh) {
	drop := make(map[mesh.FaceID]bool)
	for i := range m.Faces {
		f := &m.Faces[i]
		if m.FaceArea(f) < areaEps {
			drop[f.ID] = true
		}
	}
	if len(drop) > 0 {
		m.RemoveFaces(drop)
	}
}

// planeBasis returns two unit vectors spanning the plane perpendicular to n.
func planeBasis(n r3.Vec) (r3.Vec, r3.Vec) {
	ref := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	t1 := r3.Cross(n, ref)
	t1 = r3.Scale(1/r3.Norm(t1), t1)
	t2 := r3.Cross(n, t1)
	return t1, t2
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
