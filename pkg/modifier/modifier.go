// Package modifier implements the non-destructive modifier stack: an
// ordered list of reusable mesh transforms (mirror, array, weld, solidify,
// screw, bevel, decimate, remesh, ...) folded over a base mesh to produce a
// derived display mesh. The base mesh is never mutated; Apply clones it,
// runs every enabled modifier in order, and rebuilds edges and normals once
// at the end.
package modifier

import (
	"fmt"

	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kind enumerates the modifier types in the stack.
type Kind int

const (
	KindMirror Kind = iota
	KindSubdivide
	KindArray
	KindWeld
	KindTriangulate
	KindEdgeSplit
	KindDecimate
	KindSolidify
	KindScrew
	KindBevel
	KindRemesh
	KindVolumeToMesh
)

func (k Kind) String() string {
	switch k {
	case KindMirror:
		return "mirror"
	case KindSubdivide:
		return "subdivide"
	case KindArray:
		return "array"
	case KindWeld:
		return "weld"
	case KindTriangulate:
		return "triangulate"
	case KindEdgeSplit:
		return "edge-split"
	case KindDecimate:
		return "decimate"
	case KindSolidify:
		return "solidify"
	case KindScrew:
		return "screw"
	case KindBevel:
		return "bevel"
	case KindRemesh:
		return "remesh"
	case KindVolumeToMesh:
		return "volume-to-mesh"
	default:
		return "unknown"
	}
}

// ParseKind resolves a modifier kind by its canonical name. Underscores are
// accepted in place of hyphens so scripting front ends need no special
// casing.
func ParseKind(name string) (Kind, error) {
	for k := KindMirror; k <= KindVolumeToMesh; k++ {
		if name == k.String() || name == underscored(k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("modifier: unknown kind %q", name)
}

func underscored(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] == '-' {
			b[i] = '_'
		}
	}
	return string(b)
}

// Miter selects how the bevel modifier biases per-corner offsets.
type Miter int

const (
	MiterSharp   Miter = iota // extend along the bisector, corners stay pointed
	MiterChamfer              // fixed width, corners get cut flat
	MiterArc                  // midpoint between sharp and chamfer
)

func (m Miter) String() string {
	switch m {
	case MiterSharp:
		return "sharp"
	case MiterChamfer:
		return "chamfer"
	case MiterArc:
		return "arc"
	default:
		return "unknown"
	}
}

// ParseMiter resolves a miter variant by name.
func ParseMiter(name string) (Miter, error) {
	switch name {
	case "sharp":
		return MiterSharp, nil
	case "chamfer":
		return MiterChamfer, nil
	case "arc":
		return MiterArc, nil
	}
	return 0, fmt.Errorf("modifier: unknown miter %q", name)
}

// RemeshMode selects the smoothing applied after voxel snapping.
type RemeshMode int

const (
	RemeshBlocks RemeshMode = iota // no smoothing, blocky voxel look
	RemeshQuads                    // light smoothing
	RemeshSmooth                   // heavy smoothing
)

func (m RemeshMode) String() string {
	switch m {
	case RemeshBlocks:
		return "blocks"
	case RemeshQuads:
		return "quads"
	case RemeshSmooth:
		return "smooth"
	default:
		return "unknown"
	}
}

// ParseRemeshMode resolves a remesh mode by name.
func ParseRemeshMode(name string) (RemeshMode, error) {
	switch name {
	case "blocks":
		return RemeshBlocks, nil
	case "quads":
		return RemeshQuads, nil
	case "smooth":
		return RemeshSmooth, nil
	}
	return 0, fmt.Errorf("modifier: unknown remesh mode %q", name)
}

// ---------------------------------------------------------------------------
// Settings union
// ---------------------------------------------------------------------------

// Settings is the closed union of per-kind modifier settings. Each kind has
// exactly one variant struct; apply-time dispatch switches exhaustively
// over the variants.
type Settings interface {
	modifierSettings() // marker method restricting implementations to this package
}

// MirrorSettings reflect the mesh across a world axis, doubling vertex and
// face counts. When Merge is set, vertices within MergeThreshold of the
// mirror plane are snapped onto it first so the two halves line up.
type MirrorSettings struct {
	Axis           mesh.Axis `json:"axis"`
	Merge          bool      `json:"merge"`
	MergeThreshold float64   `json:"merge_threshold"`
}

// SubdivideSettings run 1-to-4 subdivision passes with optional Laplacian
// smoothing (blend factor Smooth, 0 disables).
type SubdivideSettings struct {
	Iterations       int     `json:"iterations"`
	Smooth           float64 `json:"smooth"`
	SmoothIterations int     `json:"smooth_iterations"`
}

// ArraySettings emit Count total instances of the mesh, instance i
// translated by Offset·i. Ids are regenerated per instance.
type ArraySettings struct {
	Count  int    `json:"count"`
	Offset r3.Vec `json:"offset"`
}

// WeldSettings collapse vertices within Distance of each other onto the
// cluster's first member. Faces degenerated by the collapse are dropped.
type WeldSettings struct {
	Distance float64 `json:"distance"`
}

// TriangulateSettings replace every face by its fan triangulation.
type TriangulateSettings struct{}

// EdgeSplitSettings are the type surface for the edge-split modifier.
// The modifier is currently an identity transform.
type EdgeSplitSettings struct {
	Angle float64 `json:"angle"`
}

// DecimateSettings keep Ratio of the face count, dropped evenly across the
// face list by index. No geometric error metric is used.
type DecimateSettings struct {
	Ratio float64 `json:"ratio"`
}

// SolidifySettings duplicate the mesh offset along per-vertex normals by
// Thickness with reversed winding, forming an inner shell.
type SolidifySettings struct {
	Thickness float64 `json:"thickness"`
}

// ScrewSettings sweep the mesh around Z: Steps clones, rotated
// incrementally up to Angle radians total and raised up to Height total.
type ScrewSettings struct {
	Steps  int     `json:"steps"`
	Angle  float64 `json:"angle"` // radians, total sweep
	Height float64 `json:"height"`
}

// BevelSettings inset every face corner whose edges crease harder than
// AngleThreshold (radians), stitch neighboring faces with quads, and cap
// vertices where three or more faces meet.
type BevelSettings struct {
	Width          float64 `json:"width"`
	AngleThreshold float64 `json:"angle_threshold"` // radians
	Miter          Miter   `json:"miter"`
	CullDegenerate bool    `json:"cull_degenerate"`
}

// RemeshSettings snap vertices to a voxel grid of VoxelSize, weld the
// duplicates, and smooth per Mode.
type RemeshSettings struct {
	VoxelSize float64    `json:"voxel_size"`
	Mode      RemeshMode `json:"mode"`
}

// VolumeToMeshSettings rebuild the surface by sampling the mesh as a signed
// distance field and running marching cubes over a CellCount³ grid. Iso
// offsets the extracted surface outward (positive) or inward (negative).
type VolumeToMeshSettings struct {
	CellCount int     `json:"cell_count"`
	Iso       float64 `json:"iso"`
}

func (MirrorSettings) modifierSettings()       {}
func (SubdivideSettings) modifierSettings()    {}
func (ArraySettings) modifierSettings()        {}
func (WeldSettings) modifierSettings()         {}
func (TriangulateSettings) modifierSettings()  {}
func (EdgeSplitSettings) modifierSettings()    {}
func (DecimateSettings) modifierSettings()     {}
func (SolidifySettings) modifierSettings()     {}
func (ScrewSettings) modifierSettings()        {}
func (BevelSettings) modifierSettings()        {}
func (RemeshSettings) modifierSettings()       {}
func (VolumeToMeshSettings) modifierSettings() {}

// DefaultSettings returns the canonical settings variant for a kind, so
// stores and scripts can construct stack items without guessing field
// values.
func DefaultSettings(kind Kind) Settings {
	switch kind {
	case KindMirror:
		return MirrorSettings{Axis: mesh.AxisX, MergeThreshold: 1e-4}
	case KindSubdivide:
		return SubdivideSettings{Iterations: 1, SmoothIterations: 1}
	case KindArray:
		return ArraySettings{Count: 2, Offset: r3.Vec{X: 1}}
	case KindWeld:
		return WeldSettings{Distance: 1e-4}
	case KindTriangulate:
		return TriangulateSettings{}
	case KindEdgeSplit:
		return EdgeSplitSettings{Angle: 0.523599} // 30°
	case KindDecimate:
		return DecimateSettings{Ratio: 0.5}
	case KindSolidify:
		return SolidifySettings{Thickness: 0.1}
	case KindScrew:
		return ScrewSettings{Steps: 16, Angle: 6.283185307179586, Height: 0}
	case KindBevel:
		return BevelSettings{Width: 0.05, AngleThreshold: 0.523599, Miter: MiterChamfer, CullDegenerate: true}
	case KindRemesh:
		return RemeshSettings{VoxelSize: 0.1, Mode: RemeshBlocks}
	case KindVolumeToMesh:
		return VolumeToMeshSettings{CellCount: 64}
	default:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Stack items
// ---------------------------------------------------------------------------

// Modifier is one item of a mesh's modifier stack.
type Modifier struct {
	Kind     Kind     `json:"kind"`
	Enabled  bool     `json:"enabled"`
	Settings Settings `json:"settings"`
}

// New returns an enabled modifier of the given kind with default settings.
func New(kind Kind) Modifier {
	return Modifier{Kind: kind, Enabled: true, Settings: DefaultSettings(kind)}
}
