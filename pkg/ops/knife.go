package ops

import (
	"math"
	"sort"

	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// KnifePoint is one stop of a knife stroke: a position on (or near) the
// surface and the face it was picked on.
type KnifePoint struct {
	Position r3.Vec      `json:"position"`
	Face     mesh.FaceID `json:"faceId"`
}

const knifeSnap = 1e-6

// KnifeCut cuts the mesh along an ordered polyline. Each consecutive pair
// of points picked on the same face is treated as a straight cut across
// that face: the segment is projected into the face plane, intersected
// with the face's boundary, a vertex is inserted on each crossed edge
// (snapping to existing ring vertices when the crossing lands on one), and
// the face ring is split between the entry and exit vertices. Pairs whose
// segment does not span the face (fewer than two boundary crossings, or
// entry and exit through the same edge) are skipped, as are pairs picked
// on two different faces.
func KnifeCut(m *mesh.Mesh, points []KnifePoint) *mesh.Mesh {
	if len(points) < 2 {
		return m
	}
	out := m.Clone()
	changed := false
	for i := 0; i+1 < len(points); i++ {
		p, q := points[i], points[i+1]
		if p.Face.IsZero() || p.Face != q.Face {
			continue
		}
		if cutFaceSegment(out, p.Face, p.Position, q.Position) {
			changed = true
		}
	}
	if !changed {
		return m
	}
	return out
}

// cutFaceSegment performs one straight cut across a single face.
func cutFaceSegment(out *mesh.Mesh, fid mesh.FaceID, p, q r3.Vec) bool {
	f := out.FaceByID(fid)
	if f == nil || len(f.Verts) < 3 {
		return false
	}
	n := out.FaceNormal(f)
	origin := out.FaceCentroid(f)
	t1, t2 := tangentBasis(n)
	project := func(v r3.Vec) r2.Vec {
		d := r3.Sub(v, origin)
		return r2.Vec{X: r3.Dot(d, t1), Y: r3.Dot(d, t2)}
	}

	ring := append([]mesh.VertexID(nil), f.Verts...)
	flat := make([]r2.Vec, len(ring))
	for i, id := range ring {
		flat[i] = project(out.VertexByID(id).Position)
	}
	p2, q2 := project(p), project(q)

	type crossing struct {
		t, u float64
		edge int
	}
	var hits []crossing
	for i := range ring {
		j := (i + 1) % len(ring)
		t, u, ok := segmentIntersect(p2, q2, flat[i], flat[j])
		if ok {
			hits = append(hits, crossing{t: t, u: u, edge: i})
		}
	}
	if len(hits) < 2 {
		return false
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].t < hits[b].t })
	entry, exit := hits[0], hits[len(hits)-1]
	if entry.edge == exit.edge {
		return false
	}

	v1 := resolveCrossing(out, ring, entry.edge, entry.u)
	v2 := resolveCrossing(out, ring, exit.edge, exit.u)
	if v1.IsZero() || v2.IsZero() || v1 == v2 {
		return false
	}
	return splitFaceBetween(out, fid, v1, v2)
}

// resolveCrossing turns a boundary crossing into a vertex id: the existing
// ring vertex when the crossing lands on an endpoint, otherwise a fresh
// vertex inserted on the crossed edge.
func resolveCrossing(out *mesh.Mesh, ring []mesh.VertexID, edge int, u float64) mesh.VertexID {
	a := ring[edge]
	b := ring[(edge+1)%len(ring)]
	switch {
	case u <= knifeSnap:
		return a
	case u >= 1-knifeSnap:
		return b
	}
	pos := lerp(out.VertexByID(a).Position, out.VertexByID(b).Position, u)
	id, _ := insertVertexOnEdge(out, a, b, pos)
	return id
}

// insertVertexOnEdge adds a vertex at pos and splices it between a and b
// in the ring of every face where the two are adjacent, keeping both sides
// of the edge topologically consistent. Returns false when no face has the
// pair adjacent.
func insertVertexOnEdge(out *mesh.Mesh, a, b mesh.VertexID, pos r3.Vec) (mesh.VertexID, bool) {
	var targets []int
	for i := range out.Faces {
		if ringAdjacent(out.Faces[i].Verts, a, b) {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return 0, false
	}
	id := out.AddVertex(pos)
	for _, fi := range targets {
		ring := out.Faces[fi].Verts
		for k, v := range ring {
			j := (k + 1) % len(ring)
			if (v == a && ring[j] == b) || (v == b && ring[j] == a) {
				grown := make([]mesh.VertexID, 0, len(ring)+1)
				grown = append(grown, ring[:k+1]...)
				grown = append(grown, id)
				grown = append(grown, ring[k+1:]...)
				out.Faces[fi].Verts = grown
				break
			}
		}
	}
	return id, true
}

// splitFaceBetween replaces the face with two faces sharing the chord
// (v1,v2). Both halves keep the original winding; the original face's
// selection flag carries over. Fails when the chord endpoints are missing
// from the ring or already adjacent in it.
func splitFaceBetween(out *mesh.Mesh, fid mesh.FaceID, v1, v2 mesh.VertexID) bool {
	f := out.FaceByID(fid)
	if f == nil {
		return false
	}
	ring := f.Verts
	i1, i2 := ringIndex(ring, v1), ringIndex(ring, v2)
	if i1 < 0 || i2 < 0 || i1 == i2 || ringAdjacent(ring, v1, v2) {
		return false
	}
	half := func(from, to int) []mesh.VertexID {
		var part []mesh.VertexID
		for k := from; ; k = (k + 1) % len(ring) {
			part = append(part, ring[k])
			if k == to {
				return part
			}
		}
	}
	ringA := half(i1, i2)
	ringB := half(i2, i1)
	selected := f.Selected
	out.RemoveFaces(map[mesh.FaceID]bool{fid: true})
	fa := out.AddFace(ringA...)
	fb := out.AddFace(ringB...)
	if fa != 0 {
		out.FaceByID(fa).Selected = selected
	}
	if fb != 0 {
		out.FaceByID(fb).Selected = selected
	}
	return fa != 0 || fb != 0
}

func ringIndex(ring []mesh.VertexID, v mesh.VertexID) int {
	for i, id := range ring {
		if id == v {
			return i
		}
	}
	return -1
}

// segmentIntersect solves p + t(q-p) = a + u(b-a) in 2D. ok requires both
// parameters inside [0,1] (with a little slack on t for strokes that start
// exactly on the boundary) and the segments not parallel.
func segmentIntersect(p, q, a, b r2.Vec) (t, u float64, ok bool) {
	d1 := r2.Sub(q, p)
	d2 := r2.Sub(b, a)
	det := d1.X*d2.Y - d1.Y*d2.X
	if math.Abs(det) < 1e-12 {
		return 0, 0, false
	}
	w := r2.Sub(a, p)
	t = (w.X*d2.Y - w.Y*d2.X) / det
	u = (w.X*d1.Y - w.Y*d1.X) / det
	const slack = 1e-9
	if t < -slack || t > 1+slack || u < -slack || u > 1+slack {
		return 0, 0, false
	}
	return t, u, true
}

// tangentBasis builds an orthonormal (tangent, bitangent) pair spanning
// the plane perpendicular to unit normal n.
func tangentBasis(n r3.Vec) (r3.Vec, r3.Vec) {
	up := r3.Vec{Z: 1}
	if math.Abs(n.Z) > 0.9 {
		up = r3.Vec{Y: 1}
	}
	t1 := r3.Cross(up, n)
	t1 = r3.Scale(1/r3.Norm(t1), t1)
	t2 := r3.Cross(n, t1)
	return t1, t2
}
