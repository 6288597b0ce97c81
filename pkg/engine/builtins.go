package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/meshwright/pkg/mesh"
	"github.com/chazu/meshwright/pkg/modifier"
	"github.com/chazu/meshwright/pkg/ops"
	"github.com/chazu/meshwright/pkg/shape"
	"github.com/chazu/meshwright/pkg/store"
	"github.com/chazu/meshwright/pkg/uv"
	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms Meshwright Lisp source code before passing it
// to zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: loop-cut -> loop_cut
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpMesh wraps an unregistered mesh built by a primitive constructor.
// defmesh consumes it and hands a copy to the store.
type sexpMesh struct {
	m *mesh.Mesh
}

func (s *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mesh %dv %df)", s.m.VertexCount(), s.m.FaceCount())
}
func (s *sexpMesh) Type() *zygo.RegisteredType { return nil }

// sexpMeshRef names a mesh registered in the store. Operators accept it
// anywhere a mesh name string is accepted.
type sexpMeshRef struct {
	name string
}

func (r *sexpMeshRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(meshref %q)", r.name)
}
func (r *sexpMeshRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps an r3.Vec.
type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpFaceSel, sexpEdgeSel and sexpVertSel carry id sets produced by the
// selection builtins. Ids are snapshots of the mesh at selection time;
// running a topology-changing operator invalidates them.
type sexpFaceSel struct {
	ids []mesh.FaceID
}

func (s *sexpFaceSel) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(faces %d)", len(s.ids))
}
func (s *sexpFaceSel) Type() *zygo.RegisteredType { return nil }

type sexpEdgeSel struct {
	ids []mesh.EdgeID
}

func (s *sexpEdgeSel) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(edges %d)", len(s.ids))
}
func (s *sexpEdgeSel) Type() *zygo.RegisteredType { return nil }

type sexpVertSel struct {
	ids []mesh.VertexID
}

func (s *sexpVertSel) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(verts %d)", len(s.ids))
}
func (s *sexpVertSel) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value; treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a bool from a Sexp. A bare trailing keyword is parsed as
// a flag with a nil value, which counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected bool, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toAxis converts a keyword or string to a mesh.Axis.
func toAxis(s zygo.Sexp) (mesh.Axis, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected axis keyword (:x, :y, :z): %w", err)
	}
	switch name {
	case "x":
		return mesh.AxisX, nil
	case "y":
		return mesh.AxisY, nil
	case "z":
		return mesh.AxisZ, nil
	}
	return 0, fmt.Errorf("invalid axis %q, expected x, y, or z", name)
}

// toAxisDir converts a keyword or string to a signed unit direction.
// Keywords cannot carry a sign, so negative directions are written as
// strings: (faces "box" :axis "-z").
func toAxisDir(s zygo.Sexp) (r3.Vec, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("expected axis keyword or string: %w", err)
	}
	sign := 1.0
	switch {
	case strings.HasPrefix(name, "-"):
		sign = -1
		name = name[1:]
	case strings.HasPrefix(name, "+"):
		name = name[1:]
	}
	switch name {
	case "x":
		return r3.Vec{X: sign}, nil
	case "y":
		return r3.Vec{Y: sign}, nil
	case "z":
		return r3.Vec{Z: sign}, nil
	}
	return r3.Vec{}, fmt.Errorf("invalid axis %q, expected x, y, or z with an optional sign", name)
}

// toVec3 extracts an r3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toMeshName extracts a store name from a mesh reference or a plain string.
func toMeshName(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpMeshRef:
		return v.name, nil
	case *zygo.SexpStr:
		if !strings.HasPrefix(v.S, kwPrefix) {
			return v.S, nil
		}
	}
	return "", fmt.Errorf("expected mesh name or reference, got %T (%s)", s, s.SexpString(nil))
}

// toFaceSel extracts the ids from a face selection.
func toFaceSel(s zygo.Sexp) ([]mesh.FaceID, error) {
	if sel, ok := s.(*sexpFaceSel); ok {
		return sel.ids, nil
	}
	return nil, fmt.Errorf("expected face selection, got %T (%s)", s, s.SexpString(nil))
}

// toEdgeSel extracts the ids from an edge selection.
func toEdgeSel(s zygo.Sexp) ([]mesh.EdgeID, error) {
	if sel, ok := s.(*sexpEdgeSel); ok {
		return sel.ids, nil
	}
	return nil, fmt.Errorf("expected edge selection, got %T (%s)", s, s.SexpString(nil))
}

// toVertSel extracts the ids from a vertex selection.
func toVertSel(s zygo.Sexp) ([]mesh.VertexID, error) {
	if sel, ok := s.(*sexpVertSel); ok {
		return sel.ids, nil
	}
	return nil, fmt.Errorf("expected vertex selection, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// idList converts a Lisp list or array of integers to raw element ids.
func idList(s zygo.Sexp) ([]uint32, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, 0, len(items))
	for _, item := range items {
		n, ok := item.(*zygo.SexpInt)
		if !ok {
			return nil, fmt.Errorf("expected integer id, got %T (%s)", item, item.SexpString(nil))
		}
		out = append(out, uint32(n.Val))
	}
	return out, nil
}

// targetOf extracts the mesh name argument that every operator and
// selection builtin takes first.
func targetOf(pa kwArgs, builtin string) (string, error) {
	if len(pa.positional) < 1 {
		return "", fmt.Errorf("%s requires a mesh name or reference as first argument", builtin)
	}
	name, err := toMeshName(pa.positional[0])
	if err != nil {
		return "", fmt.Errorf("%s: mesh: %w", builtin, err)
	}
	return name, nil
}

// settingsFromArgs overlays keyword arguments onto the default settings for
// a modifier kind. Angle arguments cross the DSL boundary in degrees.
func settingsFromArgs(kind modifier.Kind, pa kwArgs) (modifier.Settings, error) {
	base := modifier.DefaultSettings(kind)
	switch st := base.(type) {
	case modifier.MirrorSettings:
		if v, ok := pa.kw["axis"]; ok {
			a, err := toAxis(v)
			if err != nil {
				return nil, fmt.Errorf("axis: %w", err)
			}
			st.Axis = a
		}
		if v, ok := pa.kw["merge"]; ok {
			b, err := toBool(v)
			if err != nil {
				return nil, fmt.Errorf("merge: %w", err)
			}
			st.Merge = b
		}
		if v, ok := pa.kw["threshold"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("threshold: %w", err)
			}
			st.MergeThreshold = f
		}
		return st, nil
	case modifier.SubdivideSettings:
		if v, ok := pa.kw["iterations"]; ok {
			n, err := toInt(v)
			if err != nil {
				return nil, fmt.Errorf("iterations: %w", err)
			}
			st.Iterations = n
		}
		if v, ok := pa.kw["smooth"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("smooth: %w", err)
			}
			st.Smooth = f
		}
		if v, ok := pa.kw["smooth-iterations"]; ok {
			n, err := toInt(v)
			if err != nil {
				return nil, fmt.Errorf("smooth-iterations: %w", err)
			}
			st.SmoothIterations = n
		}
		return st, nil
	case modifier.ArraySettings:
		if v, ok := pa.kw["count"]; ok {
			n, err := toInt(v)
			if err != nil {
				return nil, fmt.Errorf("count: %w", err)
			}
			st.Count = n
		}
		if v, ok := pa.kw["offset"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return nil, fmt.Errorf("offset: %w", err)
			}
			st.Offset = vec
		}
		return st, nil
	case modifier.WeldSettings:
		if v, ok := pa.kw["distance"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("distance: %w", err)
			}
			st.Distance = f
		}
		return st, nil
	case modifier.TriangulateSettings:
		return st, nil
	case modifier.EdgeSplitSettings:
		if v, ok := pa.kw["angle"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("angle: %w", err)
			}
			st.Angle = f * math.Pi / 180
		}
		return st, nil
	case modifier.DecimateSettings:
		if v, ok := pa.kw["ratio"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("ratio: %w", err)
			}
			st.Ratio = f
		}
		return st, nil
	case modifier.SolidifySettings:
		if v, ok := pa.kw["thickness"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("thickness: %w", err)
			}
			st.Thickness = f
		}
		return st, nil
	case modifier.ScrewSettings:
		if v, ok := pa.kw["steps"]; ok {
			n, err := toInt(v)
			if err != nil {
				return nil, fmt.Errorf("steps: %w", err)
			}
			st.Steps = n
		}
		if v, ok := pa.kw["angle"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("angle: %w", err)
			}
			st.Angle = f * math.Pi / 180
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("height: %w", err)
			}
			st.Height = f
		}
		return st, nil
	case modifier.BevelSettings:
		if v, ok := pa.kw["width"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("width: %w", err)
			}
			st.Width = f
		}
		if v, ok := pa.kw["angle"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("angle: %w", err)
			}
			st.AngleThreshold = f * math.Pi / 180
		}
		if v, ok := pa.kw["miter"]; ok {
			name, err := toKeywordString(v)
			if err != nil {
				return nil, fmt.Errorf("miter: %w", err)
			}
			mi, err := modifier.ParseMiter(name)
			if err != nil {
				return nil, err
			}
			st.Miter = mi
		}
		if v, ok := pa.kw["cull"]; ok {
			b, err := toBool(v)
			if err != nil {
				return nil, fmt.Errorf("cull: %w", err)
			}
			st.CullDegenerate = b
		}
		return st, nil
	case modifier.RemeshSettings:
		if v, ok := pa.kw["voxel"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("voxel: %w", err)
			}
			st.VoxelSize = f
		}
		if v, ok := pa.kw["mode"]; ok {
			name, err := toKeywordString(v)
			if err != nil {
				return nil, fmt.Errorf("mode: %w", err)
			}
			mode, err := modifier.ParseRemeshMode(name)
			if err != nil {
				return nil, err
			}
			st.Mode = mode
		}
		return st, nil
	case modifier.VolumeToMeshSettings:
		if v, ok := pa.kw["cells"]; ok {
			n, err := toInt(v)
			if err != nil {
				return nil, fmt.Errorf("cells: %w", err)
			}
			st.CellCount = n
		}
		if v, ok := pa.kw["iso"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("iso: %w", err)
			}
			st.Iso = f
		}
		return st, nil
	}
	return base, nil
}

// axisSelectDot is the normal/direction dot cutoff for axis selections:
// anything within roughly 25 degrees of the requested direction matches.
const axisSelectDot = 0.9

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the Meshwright DSL builtins into a zygomys
// environment. Constructors return mesh values and defmesh hands them to
// the store; the operator builtins mutate store entries through the update
// cycle. Selection builtins snapshot ids from the current base mesh.
//
// Source code must be preprocessed with preprocessSource() before evaluation
// so that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *store.Store) {

	// -----------------------------------------------------------------------
	// (cube :size 1)  or  (cube 2)
	// -----------------------------------------------------------------------
	env.AddFunction("cube", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		size := 1.0

		if len(pa.positional) > 0 {
			f, err := toFloat64(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cube: size: %w", err)
			}
			size = f
		}
		if v, ok := pa.kw["size"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cube: size: %w", err)
			}
			size = f
		}

		return &sexpMesh{m: shape.Cube(size)}, nil
	})

	// -----------------------------------------------------------------------
	// (plane :size 1)  or  (plane 2)
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		size := 1.0

		if len(pa.positional) > 0 {
			f, err := toFloat64(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: size: %w", err)
			}
			size = f
		}
		if v, ok := pa.kw["size"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: size: %w", err)
			}
			size = f
		}

		return &sexpMesh{m: shape.Plane(size)}, nil
	})

	// -----------------------------------------------------------------------
	// (grid :nx 2 :ny 3 :size 1)
	// -----------------------------------------------------------------------
	env.AddFunction("grid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		nx, ny := 1, 1
		size := 1.0

		if v, ok := pa.kw["nx"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: nx: %w", err)
			}
			nx = n
		}
		if v, ok := pa.kw["ny"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: ny: %w", err)
			}
			ny = n
		}
		if v, ok := pa.kw["size"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: size: %w", err)
			}
			size = f
		}

		return &sexpMesh{m: shape.Grid(nx, ny, size)}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :radius 0.5 :height 1 :segments 16)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		radius, height := 0.5, 1.0
		segments := 16

		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
			}
			radius = f
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
			}
			height = f
		}
		if v, ok := pa.kw["segments"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
			}
			segments = n
		}

		return &sexpMesh{m: shape.Cylinder(radius, height, segments)}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere :radius 0.5 :rings 8 :segments 16)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		radius := 0.5
		rings, segments := 8, 16

		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
			}
			radius = f
		}
		if v, ok := pa.kw["rings"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: rings: %w", err)
			}
			rings = n
		}
		if v, ok := pa.kw["segments"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: segments: %w", err)
			}
			segments = n
		}

		return &sexpMesh{m: shape.UVSphere(radius, rings, segments)}, nil
	})

	// -----------------------------------------------------------------------
	// (defmesh "box" (cube 1))
	// -----------------------------------------------------------------------
	env.AddFunction("defmesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defmesh requires a name and a mesh expression")
		}

		meshName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defmesh: name: %w", err)
		}

		body, ok := args[1].(*sexpMesh)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("defmesh: expected mesh expression, got %T (%s)",
				args[1], args[1].SexpString(nil))
		}

		// The store owns its copy; the constructor value stays reusable.
		if err := s.Add(meshName, body.m.Clone()); err != nil {
			return zygo.SexpNull, fmt.Errorf("defmesh: %w", err)
		}

		return &sexpMeshRef{name: meshName}, nil
	})

	// -----------------------------------------------------------------------
	// (mesh "box")
	// -----------------------------------------------------------------------
	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("mesh requires a name argument")
		}

		meshName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: name: %w", err)
		}

		if _, err := s.Get(meshName); err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: no mesh named %q", meshName)
		}

		return &sexpMeshRef{name: meshName}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: r3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (all-faces "box")
	//
	// Note: registered as "all_faces" because zygomys does not support
	// hyphens in identifiers. The preprocessor converts all-faces to
	// all_faces in the source.
	// -----------------------------------------------------------------------
	env.AddFunction("all_faces", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "all-faces")
		if err != nil {
			return zygo.SexpNull, err
		}
		ent, err := s.Get(target)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("all-faces: no mesh named %q", target)
		}

		ids := make([]mesh.FaceID, 0, ent.Base.FaceCount())
		for i := range ent.Base.Faces {
			ids = append(ids, ent.Base.Faces[i].ID)
		}
		return &sexpFaceSel{ids: ids}, nil
	})

	// -----------------------------------------------------------------------
	// (faces "box" :axis :z)        ; faces whose normal points along +Z
	// (faces "box" :axis "-z")      ; negative directions are strings
	// (faces "box" :ids (list 1 4)) ; explicit ids
	// (faces "box")                 ; every face
	// -----------------------------------------------------------------------
	env.AddFunction("faces", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "faces")
		if err != nil {
			return zygo.SexpNull, err
		}
		ent, err := s.Get(target)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("faces: no mesh named %q", target)
		}

		if v, ok := pa.kw["ids"]; ok {
			raw, err := idList(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("faces: ids: %w", err)
			}
			ids := make([]mesh.FaceID, len(raw))
			for i, n := range raw {
				ids[i] = mesh.FaceID(n)
			}
			return &sexpFaceSel{ids: ids}, nil
		}

		var dir r3.Vec
		hasDir := false
		if v, ok := pa.kw["axis"]; ok {
			d, err := toAxisDir(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("faces: axis: %w", err)
			}
			dir = d
			hasDir = true
		}

		var ids []mesh.FaceID
		for i := range ent.Base.Faces {
			f := &ent.Base.Faces[i]
			if hasDir && r3.Dot(f.Normal, dir) < axisSelectDot {
				continue
			}
			ids = append(ids, f.ID)
		}
		return &sexpFaceSel{ids: ids}, nil
	})

	// -----------------------------------------------------------------------
	// (edges "box")                  ; every edge
	// (edges "box" :boundary true)   ; edges with fewer than two faces
	// (edges "box" :parallel :z)     ; edges running along an axis
	// (edges "box" :ids (list 7))    ; explicit ids
	// -----------------------------------------------------------------------
	env.AddFunction("edges", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "edges")
		if err != nil {
			return zygo.SexpNull, err
		}
		ent, err := s.Get(target)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edges: no mesh named %q", target)
		}

		if v, ok := pa.kw["ids"]; ok {
			raw, err := idList(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("edges: ids: %w", err)
			}
			ids := make([]mesh.EdgeID, len(raw))
			for i, n := range raw {
				ids[i] = mesh.EdgeID(n)
			}
			return &sexpEdgeSel{ids: ids}, nil
		}

		boundaryOnly := false
		if v, ok := pa.kw["boundary"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("edges: boundary: %w", err)
			}
			boundaryOnly = b
		}
		var dir r3.Vec
		hasDir := false
		if v, ok := pa.kw["parallel"]; ok {
			d, err := toAxisDir(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("edges: parallel: %w", err)
			}
			dir = d
			hasDir = true
		}

		var ids []mesh.EdgeID
		for i := range ent.Base.Edges {
			e := &ent.Base.Edges[i]
			if boundaryOnly && !e.Boundary() {
				continue
			}
			if hasDir {
				a := ent.Base.VertexByID(e.Verts[0])
				b := ent.Base.VertexByID(e.Verts[1])
				if a == nil || b == nil {
					continue
				}
				d := r3.Sub(b.Position, a.Position)
				n := r3.Norm(d)
				if n < 1e-9 || math.Abs(r3.Dot(d, dir))/n < axisSelectDot {
					continue
				}
			}
			ids = append(ids, e.ID)
		}
		return &sexpEdgeSel{ids: ids}, nil
	})

	// -----------------------------------------------------------------------
	// (verts "box")                  ; every vertex
	// (verts "box" :ids (list 1 2))  ; explicit ids
	// -----------------------------------------------------------------------
	env.AddFunction("verts", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "verts")
		if err != nil {
			return zygo.SexpNull, err
		}
		ent, err := s.Get(target)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("verts: no mesh named %q", target)
		}

		if v, ok := pa.kw["ids"]; ok {
			raw, err := idList(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("verts: ids: %w", err)
			}
			ids := make([]mesh.VertexID, len(raw))
			for i, n := range raw {
				ids[i] = mesh.VertexID(n)
			}
			return &sexpVertSel{ids: ids}, nil
		}

		ids := make([]mesh.VertexID, 0, ent.Base.VertexCount())
		for i := range ent.Base.Vertices {
			ids = append(ids, ent.Base.Vertices[i].ID)
		}
		return &sexpVertSel{ids: ids}, nil
	})

	// -----------------------------------------------------------------------
	// (extrude "box" :faces sel :dist 0.5)
	// (extrude "box" :faces sel :offset (vec3 0 0 0.5))
	//
	// Without :offset the faces travel :dist along the selection's mean
	// normal, computed against the mesh as it is when the operator runs.
	// -----------------------------------------------------------------------
	env.AddFunction("extrude", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "extrude")
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["faces"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("extrude requires a :faces selection")
		}
		sel, err := toFaceSel(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: faces: %w", err)
		}

		dist := 0.0
		if v, ok := pa.kw["dist"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("extrude: dist: %w", err)
			}
			dist = f
		}
		var offset r3.Vec
		hasOffset := false
		if v, ok := pa.kw["offset"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("extrude: offset: %w", err)
			}
			offset = vec
			hasOffset = true
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			off := offset
			if !hasOffset {
				off = r3.Scale(dist, ops.SelectionNormal(m, sel))
			}
			return ops.ExtrudeFaces(m, sel, off)
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (inset "box" :faces sel :amount 0.25)
	// -----------------------------------------------------------------------
	env.AddFunction("inset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "inset")
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["faces"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("inset requires a :faces selection")
		}
		sel, err := toFaceSel(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("inset: faces: %w", err)
		}

		amount := 0.0
		if v, ok := pa.kw["amount"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("inset: amount: %w", err)
			}
			amount = f
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			return ops.InsetFaces(m, sel, amount)
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("inset: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (chamfer "box" :edges sel :dist 0.1)
	// -----------------------------------------------------------------------
	env.AddFunction("chamfer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "chamfer")
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["edges"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("chamfer requires an :edges selection")
		}
		sel, err := toEdgeSel(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("chamfer: edges: %w", err)
		}

		dist := 0.0
		if v, ok := pa.kw["dist"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("chamfer: dist: %w", err)
			}
			dist = f
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			return ops.ChamferEdges(m, sel, dist)
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("chamfer: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (fillet "box" :edges sel :radius 0.1 :segments 4)
	// -----------------------------------------------------------------------
	env.AddFunction("fillet", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "fillet")
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["edges"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("fillet requires an :edges selection")
		}
		sel, err := toEdgeSel(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fillet: edges: %w", err)
		}

		radius := 0.0
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("fillet: radius: %w", err)
			}
			radius = f
		}
		segments := 4
		if v, ok := pa.kw["segments"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("fillet: segments: %w", err)
			}
			segments = n
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			return ops.FilletEdges(m, sel, radius, segments)
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fillet: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (loop-cut "box" :edges sel :t 0.5)
	//
	// The first edge of the selection seeds the cut. Registered as
	// "loop_cut"; the preprocessor rewrites the hyphen.
	// -----------------------------------------------------------------------
	env.AddFunction("loop_cut", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "loop-cut")
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["edges"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("loop-cut requires an :edges selection")
		}
		sel, err := toEdgeSel(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("loop-cut: edges: %w", err)
		}

		t := 0.5
		if v, ok := pa.kw["t"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("loop-cut: t: %w", err)
			}
			t = f
		}

		seed := mesh.EdgeID(0)
		if len(sel) > 0 {
			seed = sel[0]
		}
		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			return ops.LoopCut(m, seed, t)
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("loop-cut: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (weld "box" :verts sel :distance 0.0001)
	// -----------------------------------------------------------------------
	env.AddFunction("weld", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "weld")
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["verts"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("weld requires a :verts selection")
		}
		sel, err := toVertSel(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("weld: verts: %w", err)
		}

		distance := 1e-4
		if v, ok := pa.kw["distance"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("weld: distance: %w", err)
			}
			distance = f
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			return ops.MergeByDistance(m, sel, distance)
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("weld: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (merge "box" :verts sel)
	// -----------------------------------------------------------------------
	env.AddFunction("merge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "merge")
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["verts"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("merge requires a :verts selection")
		}
		sel, err := toVertSel(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("merge: verts: %w", err)
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			return ops.MergeAtCenter(m, sel)
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("merge: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (delete-faces "box" :faces sel)
	//
	// Registered as "delete_faces"; the preprocessor rewrites the hyphen.
	// -----------------------------------------------------------------------
	env.AddFunction("delete_faces", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "delete-faces")
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["faces"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("delete-faces requires a :faces selection")
		}
		sel, err := toFaceSel(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("delete-faces: faces: %w", err)
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			return ops.DeleteFaces(m, sel)
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("delete-faces: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (subdivide "box" :iterations 2 :smooth 0.5 :smooth-iterations 2)
	// -----------------------------------------------------------------------
	env.AddFunction("subdivide", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "subdivide")
		if err != nil {
			return zygo.SexpNull, err
		}

		opts := ops.DefaultSubdivideOptions()
		if v, ok := pa.kw["iterations"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("subdivide: iterations: %w", err)
			}
			opts.Iterations = n
		}
		if v, ok := pa.kw["smooth"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("subdivide: smooth: %w", err)
			}
			opts.Smooth = f
		}
		if v, ok := pa.kw["smooth-iterations"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("subdivide: smooth-iterations: %w", err)
			}
			opts.SmoothIterations = n
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			return ops.SubdivideSmooth(m, opts)
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("subdivide: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (triangulate "box")
	// -----------------------------------------------------------------------
	env.AddFunction("triangulate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "triangulate")
		if err != nil {
			return zygo.SexpNull, err
		}

		if err := s.Update(target, ops.Triangulate); err != nil {
			return zygo.SexpNull, fmt.Errorf("triangulate: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (mark-seam "box" :edges sel)            ; set seams
	// (mark-seam "box" :edges sel :seam false) ; clear them
	//
	// Registered as "mark_seam"; the preprocessor rewrites the hyphen.
	// Seams survive edge rebuilds by endpoint position.
	// -----------------------------------------------------------------------
	env.AddFunction("mark_seam", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "mark-seam")
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["edges"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("mark-seam requires an :edges selection")
		}
		sel, err := toEdgeSel(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mark-seam: edges: %w", err)
		}

		seam := true
		if v, ok := pa.kw["seam"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mark-seam: seam: %w", err)
			}
			seam = b
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			out := m.Clone()
			changed := false
			for _, id := range sel {
				if e := out.EdgeByID(id); e != nil && e.Seam != seam {
					e.Seam = seam
					changed = true
				}
			}
			if !changed {
				return m
			}
			return out
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mark-seam: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (modifier "box" :kind :mirror :axis :x :merge true)
	// (modifier "box" :kind :array :count 3 :offset (vec3 2 0 0))
	// (modifier "box" :kind :bevel :width 0.05 :angle 30 :miter :chamfer)
	//
	// Appends to the mesh's modifier stack; the base mesh is untouched.
	// Remaining keywords depend on the kind; angles are in degrees.
	// -----------------------------------------------------------------------
	env.AddFunction("modifier", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "modifier")
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["kind"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("modifier requires a :kind")
		}
		kindName, err := toKeywordString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("modifier: kind: %w", err)
		}
		kind, err := modifier.ParseKind(kindName)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("modifier: %w", err)
		}

		mod := modifier.New(kind)
		if v, ok := pa.kw["enabled"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("modifier: enabled: %w", err)
			}
			mod.Enabled = b
		}
		settings, err := settingsFromArgs(kind, pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("modifier: %w", err)
		}
		mod.Settings = settings

		if err := s.AppendModifier(target, mod); err != nil {
			return zygo.SexpNull, fmt.Errorf("modifier: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (unwrap "box" :angle-limit 66 :use-seams true :use-angle true)
	//
	// Splits the mesh into islands, flattens each one, and packs the result
	// into the unit square with default packing. Angle limit in degrees.
	// -----------------------------------------------------------------------
	env.AddFunction("unwrap", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "unwrap")
		if err != nil {
			return zygo.SexpNull, err
		}

		opts := uv.DefaultOptions()
		if v, ok := pa.kw["angle-limit"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("unwrap: angle-limit: %w", err)
			}
			opts.AngleLimit = f * math.Pi / 180
		}
		if v, ok := pa.kw["use-seams"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("unwrap: use-seams: %w", err)
			}
			opts.UseSeams = b
		}
		if v, ok := pa.kw["use-angle"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("unwrap: use-angle: %w", err)
			}
			opts.UseAngle = b
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			out := m.Clone()
			islands := uv.Unwrap(out, opts)
			uv.Pack(out, islands, uv.DefaultPackOptions())
			return out
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("unwrap: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (pack "box" :margin 0.02 :rotate false :area-weight 1)
	//
	// Re-splits islands with default unwrap options and repacks them.
	// -----------------------------------------------------------------------
	env.AddFunction("pack", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "pack")
		if err != nil {
			return zygo.SexpNull, err
		}

		popts := uv.DefaultPackOptions()
		if v, ok := pa.kw["margin"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("pack: margin: %w", err)
			}
			popts.Margin = f
		}
		if v, ok := pa.kw["rotate"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("pack: rotate: %w", err)
			}
			popts.Rotate = b
		}
		if v, ok := pa.kw["area-weight"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("pack: area-weight: %w", err)
			}
			popts.AreaWeight = f
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			out := m.Clone()
			islands := uv.Islands(out, uv.DefaultOptions())
			uv.Pack(out, islands, popts)
			return out
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pack: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})

	// -----------------------------------------------------------------------
	// (project "box" :kind :planar :axis :z)
	// (project "box" :kind :cube)
	// (project "box" :kind :sphere)
	// -----------------------------------------------------------------------
	env.AddFunction("project", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		target, err := targetOf(pa, "project")
		if err != nil {
			return zygo.SexpNull, err
		}

		kindName := "planar"
		if v, ok := pa.kw["kind"]; ok {
			k, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("project: kind: %w", err)
			}
			kindName = k
		}
		axis := mesh.AxisZ
		if v, ok := pa.kw["axis"]; ok {
			a, err := toAxis(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("project: axis: %w", err)
			}
			axis = a
		}
		switch kindName {
		case "planar", "cube", "sphere":
		default:
			return zygo.SexpNull, fmt.Errorf("project: unknown kind %q, expected planar, cube, or sphere", kindName)
		}

		err = s.Update(target, func(m *mesh.Mesh) *mesh.Mesh {
			out := m.Clone()
			switch kindName {
			case "planar":
				uv.ProjectPlanar(out, axis)
			case "cube":
				uv.ProjectCube(out)
			case "sphere":
				uv.ProjectSphere(out)
			}
			return out
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("project: %w", err)
		}
		return &sexpMeshRef{name: target}, nil
	})
}
