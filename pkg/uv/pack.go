package uv

import (
	"math"
	"sort"

	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r2"
)

// PackOptions controls Pack.
type PackOptions struct {
	// Margin is the gap kept between islands and around the unit-square
	// border, in UV units.
	Margin float64 `json:"margin"`
	// AreaWeight biases island size by 3D surface area: 0 sizes every
	// island alike, 1 sizes them proportionally to sqrt-area.
	AreaWeight float64 `json:"area_weight"`
	// Rotate lets tall islands turn 90° to lie on their side.
	Rotate bool `json:"rotate"`
}

// DefaultPackOptions returns the editor defaults.
func DefaultPackOptions() PackOptions {
	return PackOptions{Margin: 0.01, AreaWeight: 0, Rotate: true}
}

// packBox is one island prepared for shelf packing: its source bbox, the
// normalization into a ≤1×1 box, the optional 90° turn, and the packed
// extent (normalized extent times area weight).
type packBox struct {
	island  int
	w, h    float64
	rotated bool
	min     r2.Vec
	norm    float64
	wNorm   float64 // pre-rotation normalized width, needed to re-map points
	weight  float64
	area    float64
}

// Pack arranges the islands' UVs into the unit square: each island is
// normalized to unit size, rotated upright when allowed, weighted by
// surface area, sorted tallest-first onto shelves, and scaled by the
// largest global factor that still fits (found by binary search). Every
// written coordinate lands inside [0,1]².
func Pack(m *mesh.Mesh, islands []Island, opts PackOptions) {
	if m == nil || len(islands) == 0 {
		return
	}
	margin := clampF(opts.Margin, 0, 0.45)

	boxes := measureIslands(m, islands, opts)
	if len(boxes) == 0 {
		return
	}

	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return boxes[order[i]].h > boxes[order[j]].h
	})

	type place struct{ x, y float64 }
	tryPack := func(s float64) ([]place, bool) {
		pl := make([]place, len(boxes))
		x, y, shelf := margin, margin, 0.0
		for _, bi := range order {
			b := &boxes[bi]
			w, h := b.w*s, b.h*s
			if x+w > 1-margin {
				y += shelf + margin
				x = margin
				shelf = 0
			}
			if x+w > 1-margin || y+h > 1-margin {
				return nil, false
			}
			pl[bi] = place{x, y}
			x += w + margin
			shelf = math.Max(shelf, h)
		}
		return pl, true
	}

	lo, hi := 0.0, 2.0
	for i := 0; i < 48; i++ {
		mid := (lo + hi) / 2
		if _, ok := tryPack(mid); ok {
			lo = mid
		} else {
			hi = mid
		}
	}
	placements, ok := tryPack(lo)
	if !ok {
		return
	}

	for bi := range boxes {
		b := &boxes[bi]
		p := placements[bi]
		for _, fid := range islands[b.island].Faces {
			f := m.FaceByID(fid)
			if f == nil {
				continue
			}
			uvs := make([]r2.Vec, len(f.Verts))
			for j := range f.Verts {
				lp := loopUV(m, f, j)
				lx := (lp.X - b.min.X) * b.norm
				ly := (lp.Y - b.min.Y) * b.norm
				if b.rotated {
					// Proper 90° turn: x spans become y spans.
					lx, ly = ly, b.wNorm-lx
				}
				uvs[j] = r2.Vec{
					X: p.x + lx*b.weight*lo,
					Y: p.y + ly*b.weight*lo,
				}
			}
			f.UVs = uvs
		}
	}
}

// measureIslands computes each island's UV bounding box, 3D area, rotation
// choice, and packing extent. Islands with no resolvable loops are dropped.
func measureIslands(m *mesh.Mesh, islands []Island, opts PackOptions) []packBox {
	boxes := make([]packBox, 0, len(islands))
	for i := range islands {
		isl := &islands[i]
		minV := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
		maxV := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
		area := 0.0
		any := false
		for _, fid := range isl.Faces {
			f := m.FaceByID(fid)
			if f == nil {
				continue
			}
			area += m.FaceArea(f)
			for j := range f.Verts {
				p := loopUV(m, f, j)
				minV.X = math.Min(minV.X, p.X)
				minV.Y = math.Min(minV.Y, p.Y)
				maxV.X = math.Max(maxV.X, p.X)
				maxV.Y = math.Max(maxV.Y, p.Y)
				any = true
			}
		}
		if !any {
			continue
		}
		w0 := math.Max(maxV.X-minV.X, epsUV)
		h0 := math.Max(maxV.Y-minV.Y, epsUV)
		rotated := opts.Rotate && h0 > w0
		ew, eh := w0, h0
		if rotated {
			ew, eh = h0, w0
		}
		norm := 1 / math.Max(w0, h0)
		boxes = append(boxes, packBox{
			island:  i,
			w:       ew * norm,
			h:       eh * norm,
			rotated: rotated,
			min:     minV,
			norm:    norm,
			wNorm:   w0 * norm,
			weight:  1,
			area:    area,
		})
	}
	if len(boxes) == 0 {
		return nil
	}

	if opts.AreaWeight > 0 {
		maxArea := 0.0
		for i := range boxes {
			maxArea = math.Max(maxArea, boxes[i].area)
		}
		if maxArea > epsUV {
			for i := range boxes {
				// sqrt keeps the weight linear in island edge length.
				wgt := math.Pow(math.Sqrt(boxes[i].area/maxArea), opts.AreaWeight)
				boxes[i].weight = math.Max(wgt, 1e-3)
				boxes[i].w *= boxes[i].weight
				boxes[i].h *= boxes[i].weight
			}
		}
	}
	return boxes
}

// loopUV reads the effective UV of one face loop: the per-loop value when
// the face carries a full set, the vertex fallback otherwise.
func loopUV(m *mesh.Mesh, f *mesh.Face, j int) r2.Vec {
	if len(f.UVs) == len(f.Verts) {
		return f.UVs[j]
	}
	if v := m.VertexByID(f.Verts[j]); v != nil {
		return v.UV
	}
	return r2.Vec{}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
