package mesh

import "fmt"

// ValidationSeverity indicates whether a validation finding is a broken
// structural invariant or merely advisory.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // broken invariant
	SeverityWarning                           // advisory
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
}

// Validate runs the structural checks on a mesh and returns the findings.
// An empty slice means the mesh is structurally valid. Validate is
// read-only and never mutates the mesh.
func Validate(m *Mesh) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateFaceRings(m)...)
	errs = append(errs, validateEdgeRefs(m)...)
	errs = append(errs, validateEdgeDerivation(m)...)
	return errs
}

// validateFaceRings checks that every face ring has at least 3 distinct
// vertex ids and that every reference resolves to a live vertex.
func validateFaceRings(m *Mesh) []ValidationError {
	var errs []ValidationError
	for i := range m.Faces {
		f := &m.Faces[i]
		if len(f.Verts) < 3 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("face %d has %d vertices, need at least 3", f.ID, len(f.Verts)),
				Severity: SeverityError,
			})
			continue
		}
		seen := make(map[VertexID]bool, len(f.Verts))
		for _, id := range f.Verts {
			if seen[id] {
				errs = append(errs, ValidationError{
					Message:  fmt.Sprintf("face %d repeats vertex %d in its ring", f.ID, id),
					Severity: SeverityError,
				})
			}
			seen[id] = true
			if m.VertexByID(id) == nil {
				errs = append(errs, ValidationError{
					Message:  fmt.Sprintf("face %d references missing vertex %d", f.ID, id),
					Severity: SeverityError,
				})
			}
		}
		if f.UVs != nil && len(f.UVs) != len(f.Verts) {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("face %d has %d loop UVs for %d vertices", f.ID, len(f.UVs), len(f.Verts)),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateEdgeRefs checks that edge endpoints and incident faces resolve.
func validateEdgeRefs(m *Mesh) []ValidationError {
	var errs []ValidationError
	for i := range m.Edges {
		e := &m.Edges[i]
		for _, id := range e.Verts {
			if m.VertexByID(id) == nil {
				errs = append(errs, ValidationError{
					Message:  fmt.Sprintf("edge %d references missing vertex %d", e.ID, id),
					Severity: SeverityError,
				})
			}
		}
		for _, fid := range e.Faces {
			if m.FaceByID(fid) == nil {
				errs = append(errs, ValidationError{
					Message:  fmt.Sprintf("edge %d references missing face %d", e.ID, fid),
					Severity: SeverityError,
				})
			}
		}
		if len(e.Faces) > 2 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("edge %d is shared by %d faces (non-manifold)", e.ID, len(e.Faces)),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateEdgeDerivation checks that the stored edge set matches the set
// derivable from the current faces. A stale edge list means a topology
// operator ran without the caller rebuilding edges afterwards.
func validateEdgeDerivation(m *Mesh) []ValidationError {
	derived := make(map[pairKey]bool)
	for i := range m.Faces {
		f := &m.Faces[i]
		n := len(f.Verts)
		for j := 0; j < n; j++ {
			a, b := f.Verts[j], f.Verts[(j+1)%n]
			if a != b {
				derived[makePairKey(a, b)] = true
			}
		}
	}

	var errs []ValidationError
	stored := make(map[pairKey]bool, len(m.Edges))
	for i := range m.Edges {
		e := &m.Edges[i]
		key := makePairKey(e.Verts[0], e.Verts[1])
		stored[key] = true
		if !derived[key] {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("edge %d (%d-%d) is not derivable from any face", e.ID, e.Verts[0], e.Verts[1]),
				Severity: SeverityError,
			})
		}
	}
	for key := range derived {
		if !stored[key] {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("faces imply edge %d-%d but the edge list lacks it", key.lo, key.hi),
				Severity: SeverityError,
			})
		}
	}
	return errs
}
