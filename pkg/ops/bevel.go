package ops

import (
	"math"

	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const bevelEps = 1e-9

// ChamferEdges flattens each selected edge into a planar band of width
// distance. For an edge with two adjacent faces, both faces are rewired
// onto new vertices offset half the distance into each face, a bridge quad
// spans the cut, and triangular caps close the gaps at the endpoints. An
// edge with a single face gets a flat in-plane band instead. Edges whose
// endpoints are no longer adjacent in an incident face's ring are skipped.
func ChamferEdges(m *mesh.Mesh, sel []mesh.EdgeID, distance float64) *mesh.Mesh {
	live := liveEdges(m, sel)
	if len(live) == 0 || distance <= 0 {
		return m
	}
	out := m.Clone()
	changed := false
	for _, id := range live {
		e := out.EdgeByID(id)
		if e == nil {
			continue
		}
		a, b := e.Verts[0], e.Verts[1]
		faces := liveFaces(out, e.Faces)
		h := distance / 2
		switch len(faces) {
		case 2:
			f1, f2 := out.FaceByID(faces[0]), out.FaceByID(faces[1])
			if !ringAdjacent(f1.Verts, a, b) || !ringAdjacent(f2.Verts, a, b) {
				continue
			}
			perp1, ok1 := inFacePerp(out, f1, a, b)
			perp2, ok2 := inFacePerp(out, f2, a, b)
			if !ok1 || !ok2 {
				continue
			}
			outward := r3.Add(out.FaceNormal(f1), out.FaceNormal(f2))
			pa, pb := out.VertexByID(a).Position, out.VertexByID(b).Position
			a1 := out.AddVertex(r3.Add(pa, r3.Scale(h, perp1)))
			b1 := out.AddVertex(r3.Add(pb, r3.Scale(h, perp1)))
			a2 := out.AddVertex(r3.Add(pa, r3.Scale(h, perp2)))
			b2 := out.AddVertex(r3.Add(pb, r3.Scale(h, perp2)))
			replaceEdgeInFace(out.FaceByID(faces[0]), a, b, a1, b1)
			replaceEdgeInFace(out.FaceByID(faces[1]), a, b, a2, b2)
			addFaceOriented(out, []mesh.VertexID{a1, b1, b2, a2}, outward)
			axis := r3.Sub(pb, pa)
			addFaceOriented(out, []mesh.VertexID{a, a1, a2}, r3.Scale(-1, axis))
			addFaceOriented(out, []mesh.VertexID{b, b1, b2}, axis)
			changed = true
		case 1:
			f1 := out.FaceByID(faces[0])
			if !ringAdjacent(f1.Verts, a, b) {
				continue
			}
			perp, ok := inFacePerp(out, f1, a, b)
			if !ok {
				continue
			}
			n1 := out.FaceNormal(f1)
			pa, pb := out.VertexByID(a).Position, out.VertexByID(b).Position
			a1 := out.AddVertex(r3.Add(pa, r3.Scale(h, perp)))
			b1 := out.AddVertex(r3.Add(pb, r3.Scale(h, perp)))
			replaceEdgeInFace(out.FaceByID(faces[0]), a, b, a1, b1)
			addFaceOriented(out, []mesh.VertexID{a, b, b1, a1}, n1)
			changed = true
		}
	}
	if !changed {
		return m
	}
	return out
}

// FilletEdges rounds each selected edge with an N-segment circular arc of
// the given radius. The arc center sits along the inward bisector of the
// two face normals at radius/sin(halfAngle) from the edge; ring points are
// swept from one face's tangent to the other by rotating around the edge
// direction. Adjacent faces are rewired onto the first and last ring, band
// quads fill the segments between, and polygon caps close the endpoints.
// Boundary edges (a single adjacent face) and near-coplanar edges are
// skipped.
func FilletEdges(m *mesh.Mesh, sel []mesh.EdgeID, radius float64, segments int) *mesh.Mesh {
	live := liveEdges(m, sel)
	if len(live) == 0 || radius <= 0 {
		return m
	}
	if segments < 1 {
		segments = 1
	}
	out := m.Clone()
	changed := false
	for _, id := range live {
		e := out.EdgeByID(id)
		if e == nil {
			continue
		}
		a, b := e.Verts[0], e.Verts[1]
		faces := liveFaces(out, e.Faces)
		if len(faces) != 2 {
			continue
		}
		f1, f2 := out.FaceByID(faces[0]), out.FaceByID(faces[1])
		if !ringAdjacent(f1.Verts, a, b) || !ringAdjacent(f2.Verts, a, b) {
			continue
		}
		n1, n2 := out.FaceNormal(f1), out.FaceNormal(f2)
		cos := math.Max(-1, math.Min(1, r3.Dot(n1, n2)))
		theta := math.Acos(cos)
		if theta < bevelEps || math.Pi-theta < bevelEps {
			continue
		}
		bisector := r3.Add(n1, n2)
		if r3.Norm(bisector) < bevelEps {
			continue
		}
		inward := r3.Scale(-1/r3.Norm(bisector), bisector)
		pa, pb := out.VertexByID(a).Position, out.VertexByID(b).Position
		axisVec := r3.Sub(pb, pa)
		if r3.Norm(axisVec) < bevelEps {
			continue
		}
		axis := r3.Scale(1/r3.Norm(axisVec), axisVec)

		centerDist := radius / math.Sin(theta/2)
		centerA := r3.Add(pa, r3.Scale(centerDist, inward))
		centerB := r3.Add(pb, r3.Scale(centerDist, inward))

		// Sweep direction: rotating the first tangent by +theta around the
		// edge must land on the second tangent; otherwise sweep negative.
		v0 := r3.Scale(radius, n1)
		vN := r3.Scale(radius, n2)
		sweep := theta
		if r3.Norm(r3.Sub(r3.NewRotation(theta, axis).Rotate(v0), vN)) > radius*1e-6 {
			sweep = -theta
		}

		ringA := make([]mesh.VertexID, segments+1)
		ringB := make([]mesh.VertexID, segments+1)
		for k := 0; k <= segments; k++ {
			v := r3.NewRotation(sweep*float64(k)/float64(segments), axis).Rotate(v0)
			ringA[k] = out.AddVertex(r3.Add(centerA, v))
			ringB[k] = out.AddVertex(r3.Add(centerB, v))
		}
		replaceEdgeInFace(out.FaceByID(faces[0]), a, b, ringA[0], ringB[0])
		replaceEdgeInFace(out.FaceByID(faces[1]), a, b, ringA[segments], ringB[segments])

		outward := r3.Add(n1, n2)
		for k := 0; k < segments; k++ {
			addFaceOriented(out, []mesh.VertexID{ringA[k], ringA[k+1], ringB[k+1], ringB[k]}, outward)
		}
		capA := append([]mesh.VertexID{a}, ringA...)
		capB := append([]mesh.VertexID{b}, ringB...)
		addFaceOriented(out, capA, r3.Scale(-1, axis))
		addFaceOriented(out, capB, axis)
		changed = true
	}
	if !changed {
		return m
	}
	return out
}

// ---------------------------------------------------------------------------
// Ring surgery
// ---------------------------------------------------------------------------

// ringAdjacent reports whether a and b appear next to each other (in
// either order) in the cyclic ring.
func ringAdjacent(ring []mesh.VertexID, a, b mesh.VertexID) bool {
	for i, v := range ring {
		w := ring[(i+1)%len(ring)]
		if (v == a && w == b) || (v == b && w == a) {
			return true
		}
	}
	return false
}

// replaceEdgeInFace swaps the adjacent ring pair (a,b) for (na,nb),
// respecting the order the pair appears in. Returns false and leaves the
// ring alone when a and b are not adjacent.
func replaceEdgeInFace(f *mesh.Face, a, b, na, nb mesh.VertexID) bool {
	ring := f.Verts
	for i, v := range ring {
		j := (i + 1) % len(ring)
		switch {
		case v == a && ring[j] == b:
			ring[i], ring[j] = na, nb
			return true
		case v == b && ring[j] == a:
			ring[i], ring[j] = nb, na
			return true
		}
	}
	return false
}

// inFacePerp returns the unit vector perpendicular to edge (a,b) lying in
// f's plane and pointing toward f's centroid. ok is false when the edge or
// face is degenerate.
func inFacePerp(m *mesh.Mesh, f *mesh.Face, a, b mesh.VertexID) (r3.Vec, bool) {
	pa, pb := m.VertexByID(a).Position, m.VertexByID(b).Position
	dir := r3.Sub(pb, pa)
	if r3.Norm(dir) < bevelEps {
		return r3.Vec{}, false
	}
	perp := r3.Cross(m.FaceNormal(f), r3.Scale(1/r3.Norm(dir), dir))
	if r3.Norm(perp) < bevelEps {
		return r3.Vec{}, false
	}
	perp = r3.Scale(1/r3.Norm(perp), perp)
	mid := r3.Scale(0.5, r3.Add(pa, pb))
	if r3.Dot(r3.Sub(m.FaceCentroid(f), mid), perp) < 0 {
		perp = r3.Scale(-1, perp)
	}
	return perp, true
}

// addFaceOriented adds the ring as a face, reversed first if its Newell
// normal points against ref. Degenerate rings are rejected by AddFace and
// return zero as usual.
func addFaceOriented(m *mesh.Mesh, ring []mesh.VertexID, ref r3.Vec) mesh.FaceID {
	if r3.Dot(ringNormal(m, ring), ref) < 0 {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}
	return m.AddFace(ring...)
}

// ringNormal computes the (unnormalized) Newell normal of an arbitrary
// vertex id ring.
func ringNormal(m *mesh.Mesh, ring []mesh.VertexID) r3.Vec {
	var n r3.Vec
	for i, id := range ring {
		p := m.VertexByID(id).Position
		q := m.VertexByID(ring[(i+1)%len(ring)]).Position
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	return n
}
