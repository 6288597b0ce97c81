package uv

import (
	"math"

	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Unwrap segments the mesh into islands and flattens each one into
// per-loop UVs on its faces. Near-planar islands share one planar
// projection onto the island's mean plane; islands whose faces fan out
// further than half the angle limit fall back to projecting every face
// into its own tangent frame. Coordinates are written in island-local
// units; Pack normalizes and arranges them afterwards.
func Unwrap(m *mesh.Mesh, opts Options) []Island {
	islands := Islands(m, opts)
	for i := range islands {
		unwrapIsland(m, &islands[i], opts)
	}
	return islands
}

func unwrapIsland(m *mesh.Mesh, isl *Island, opts Options) {
	var meanN r3.Vec
	for _, fid := range isl.Faces {
		if f := m.FaceByID(fid); f != nil {
			meanN = r3.Add(meanN, m.FaceNormal(f))
		}
	}
	if r3.Norm(meanN) < epsUV {
		meanN = r3.Vec{Z: 1}
	} else {
		meanN = r3.Unit(meanN)
	}

	// Mean angular deviation from the island plane stands in for
	// curvature: past half the angle limit, a single projection would
	// fold the chart over itself.
	spread := 0.0
	for _, fid := range isl.Faces {
		if f := m.FaceByID(fid); f != nil {
			spread += math.Acos(clamp1(r3.Dot(m.FaceNormal(f), meanN)))
		}
	}
	spread /= float64(len(isl.Faces))

	if spread > opts.AngleLimit/2 {
		for _, fid := range isl.Faces {
			f := m.FaceByID(fid)
			if f == nil {
				continue
			}
			projectFaceLocal(m, f)
		}
		return
	}

	// Island centroid from face centroids, which keeps the accumulation
	// order deterministic.
	var center r3.Vec
	count := 0
	for _, fid := range isl.Faces {
		if f := m.FaceByID(fid); f != nil {
			center = r3.Add(center, m.FaceCentroid(f))
			count++
		}
	}
	if count == 0 {
		return
	}
	center = r3.Scale(1/float64(count), center)

	t1, t2 := tangentBasis(meanN)
	for _, fid := range isl.Faces {
		f := m.FaceByID(fid)
		if f == nil {
			continue
		}
		f.UVs = make([]r2.Vec, len(f.Verts))
		for j, vid := range f.Verts {
			v := m.VertexByID(vid)
			if v == nil {
				continue
			}
			d := r3.Sub(v.Position, center)
			f.UVs[j] = r2.Vec{X: r3.Dot(d, t1), Y: r3.Dot(d, t2)}
		}
	}
}

// projectFaceLocal flattens one face into its own tangent frame around its
// centroid. Edge lengths inside the face are preserved exactly for planar
// faces.
func projectFaceLocal(m *mesh.Mesh, f *mesh.Face) {
	t1, t2 := tangentBasis(m.FaceNormal(f))
	c := m.FaceCentroid(f)
	f.UVs = make([]r2.Vec, len(f.Verts))
	for j, vid := range f.Verts {
		v := m.VertexByID(vid)
		if v == nil {
			continue
		}
		d := r3.Sub(v.Position, c)
		f.UVs[j] = r2.Vec{X: r3.Dot(d, t1), Y: r3.Dot(d, t2)}
	}
}
