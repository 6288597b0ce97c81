package main

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 meshes, 0 errors.
//    (TestE2EEmptySource already exists; this verifies additional invariants.)
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Meshes == nil {
		t.Error("Meshes should be non-nil empty slice, got nil")
	}
	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax error mid-expression: unmatched parens -> eval error, 0 meshes.
//    Extends TestE2ESyntaxError to verify error has line > 0 or a message.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := NewApp()

	// Put valid code on line 1, broken code on line 2 so line info is meaningful.
	source := "(+ 1 2)\n(defmesh \"test\""
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
	}

	// Verify the error has a non-empty message.
	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}

	// The error should ideally have line info > 0 (line 2+).
	// We log regardless, but assert message is present.
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestE2ESyntaxErrorSingleLineMissingParen(t *testing.T) {
	app := NewApp()

	result := app.Evaluate("(+ 1 2")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for missing closing paren")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}

	e := result.Errors[0]
	if e.Message == "" {
		t.Error("error message should not be empty")
	}
}

// ---------------------------------------------------------------------------
// 3. Undefined mesh reference: operating on a name that was never defined
//    -> eval error naming the mesh.
// ---------------------------------------------------------------------------

func TestE2EUndefinedMeshReference(t *testing.T) {
	app := NewApp()

	source := `
(defmesh "box" (cube 1))
(extrude "ghost" :faces (faces "box" :axis :z) :dist 0.5)
`
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for undefined mesh reference")
	}

	// The error should mention the missing mesh name.
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "ghost") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected error mentioning 'ghost', got: %v", result.Errors)
	}

	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

func TestE2EUndefinedMeshReferenceStandalone(t *testing.T) {
	app := NewApp()

	// Standalone mesh lookup without any defmesh.
	source := `(mesh "ghost")`
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for referencing undefined mesh")
	}

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "ghost") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected error mentioning 'ghost', got: %v", result.Errors)
	}
}

// ---------------------------------------------------------------------------
// 4. Degenerate sizes: zero or negative constructor size -> error or
//    degenerate mesh, never a panic.
// ---------------------------------------------------------------------------

func TestE2EZeroSizeCube(t *testing.T) {
	app := NewApp()

	source := `(defmesh "bad" (cube 0))`
	result := app.Evaluate(source)

	// The system should either produce an error or produce a (possibly
	// degenerate) mesh without panicking. Either outcome is acceptable.
	if len(result.Errors) > 0 {
		t.Logf("zero-size cube produced error (acceptable): %s", result.Errors[0].Message)
		return
	}

	t.Logf("zero-size cube produced %d meshes, %d warnings (no error)",
		len(result.Meshes), len(result.Warnings))
}

func TestE2ENegativeSizeCube(t *testing.T) {
	app := NewApp()

	source := `(defmesh "inverted" (cube -1))`
	result := app.Evaluate(source)

	// Must not panic. Error or inverted mesh are both acceptable.
	if len(result.Errors) > 0 {
		t.Logf("negative size produced error (acceptable): %s", result.Errors[0].Message)
		return
	}

	t.Logf("negative size produced %d meshes (no error)", len(result.Meshes))
}

// ---------------------------------------------------------------------------
// 5. Rapid evaluation (debounce simulation): no panics, no data races.
//    Run with `go test -race` to detect data races.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	// Simulates debounce: rapid sequential calls to Evaluate on the same App.
	// The engine holds a mutex, so rapid sequential calls exercise the
	// generation-counter and timeout paths. We verify no panics occur.
	//
	// Note: we call Evaluate sequentially because zygomys has internal
	// global state that is not safe for concurrent sandbox creation.
	// In production, the engine mutex serializes calls anyway.
	app := NewApp()

	sources := []string{
		`(defmesh "a" (cube 1))`,
		`(defmesh "b" (cylinder :radius 0.5 :height 2))`,
		`(+ 1 2)`,
		``,
		`(defmesh "c" (sphere :radius 1 :rings 6 :segments 12))`,
		`(defmesh "d" (plane 2))`,
		`(+ 100 200)`,
		``,
		`(defmesh "e" (grid :nx 4 :ny 4))`,
		`(defmesh "f" (cube 3))`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked: %v", i, r)
				}
			}()
			result := app.Evaluate(source)
			// Just ensure no panic. Results vary by source.
			_ = result
		}()
	}
}

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// Alternates between valid and invalid sources rapidly.
	// Ensures the engine recovers cleanly between error and success states.
	app := NewApp()

	sources := []string{
		`(defmesh "ok" (cube 1))`,
		`(defmesh "broken"`,
		``,
		`(mesh "missing")`,
		`(defmesh "also-ok" (plane 1))`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(defmesh "fine" (cylinder :segments 8))`,
		`(undefined-func 1 2 3)`,
		`(defmesh "last" (cube 2))`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			result := app.Evaluate(source)
			_ = result
		}()
	}
}

// ---------------------------------------------------------------------------
// 6. Large geometry: very large sizes and dense primitives -> valid meshes
//    without crash.
// ---------------------------------------------------------------------------

func TestE2ELargeSize(t *testing.T) {
	app := NewApp()

	source := `(defmesh "huge" (cube 10000))`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors for large cube: %v", result.Errors)
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh for large cube, got %d", len(result.Meshes))
	}

	m := result.Meshes[0]
	if len(m.Vertices) == 0 {
		t.Error("large cube mesh should have vertices")
	}
	if len(m.Normals) == 0 {
		t.Error("large cube mesh should have normals")
	}
	if len(m.Indices) == 0 {
		t.Error("large cube mesh should have indices")
	}
	if m.PartName != "huge" {
		t.Errorf("expected mesh name 'huge', got %q", m.PartName)
	}
}

func TestE2EDenseSphere(t *testing.T) {
	app := NewApp()

	// 32 rings x 64 segments is dense for an editing mesh but should
	// evaluate well inside the engine timeout.
	source := `(defmesh "dense" (sphere :radius 1 :rings 32 :segments 64))`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors for dense sphere: %v", result.Errors)
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if len(result.Meshes[0].Indices) == 0 {
		t.Error("dense sphere should have indices")
	}
}

// ---------------------------------------------------------------------------
// 7. Multiple meshes with modifier stacks: all entries tessellated, in
//    document order, each with its own palette color.
// ---------------------------------------------------------------------------

func TestE2EMultipleMeshesWithModifiers(t *testing.T) {
	app := NewApp()

	source := `
(defmesh "body" (cube 2))
(modifier "body" :kind :mirror :axis :x)

(defmesh "mast" (cylinder :radius 0.1 :height 3 :segments 8))
(modifier "mast" :kind :array :count 3 :offset (vec3 1 0 0))
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}

	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}

	names := make(map[string]bool)
	for _, m := range result.Meshes {
		names[m.PartName] = true
		if len(m.Vertices) == 0 {
			t.Errorf("mesh %q should have vertices", m.PartName)
		}
		if m.Color == "" {
			t.Errorf("mesh %q should have a color assigned", m.PartName)
		}
	}

	if !names["body"] {
		t.Error("missing mesh for body")
	}
	if !names["mast"] {
		t.Error("missing mesh for mast")
	}

	// The two meshes get distinct palette colors.
	if result.Meshes[0].Color == result.Meshes[1].Color {
		t.Error("adjacent meshes should get distinct palette colors")
	}
}

// ---------------------------------------------------------------------------
// 8. Standalone defmesh: a bare definition with no operators still renders.
// ---------------------------------------------------------------------------

func TestE2EStandaloneDefmesh(t *testing.T) {
	app := NewApp()

	source := `(defmesh "slab" (plane 2))`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh from standalone defmesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].PartName != "slab" {
		t.Errorf("expected mesh name 'slab', got %q", result.Meshes[0].PartName)
	}
	if len(result.Meshes[0].Vertices) == 0 {
		t.Error("standalone defmesh mesh should have vertices")
	}
}

func TestE2EMultipleStandaloneDefmeshes(t *testing.T) {
	app := NewApp()

	source := `
(defmesh "top" (plane 1))
(defmesh "bottom" (plane 1))
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}

	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes from two standalone defmeshes, got %d", len(result.Meshes))
	}

	// Document order is insertion order.
	if result.Meshes[0].PartName != "top" {
		t.Errorf("expected first mesh 'top', got %q", result.Meshes[0].PartName)
	}
	if result.Meshes[1].PartName != "bottom" {
		t.Errorf("expected second mesh 'bottom', got %q", result.Meshes[1].PartName)
	}
}

// ---------------------------------------------------------------------------
// 9. Comments only: source that is only comments -> 0 meshes, 0 errors.
// ---------------------------------------------------------------------------

func TestE2ECommentsOnly(t *testing.T) {
	app := NewApp()

	source := `
;; This is a comment
;; Another comment
; And another
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for comments-only source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for comments-only source, got %d", len(result.Meshes))
	}
}

func TestE2ECommentsWithWhitespace(t *testing.T) {
	app := NewApp()

	source := `
  ;; leading whitespace
  ;; trailing whitespace
  ; tabs	everywhere
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for comments+whitespace source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 10. Nested expressions: def with arithmetic, then use in a constructor.
// ---------------------------------------------------------------------------

func TestE2ENestedArithmeticDef(t *testing.T) {
	app := NewApp()

	source := `
(def w (* 2 0.75))
(defmesh "wide" (cube w))
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].PartName != "wide" {
		t.Errorf("expected mesh name 'wide', got %q", result.Meshes[0].PartName)
	}
	if len(result.Meshes[0].Vertices) == 0 {
		t.Error("mesh should have vertices")
	}
}

func TestE2EComplexArithmeticExpressions(t *testing.T) {
	app := NewApp()

	source := `
(def base-size 4)
(def margin 0.5)
(def inner-size (- base-size (* 2 margin)))

(defmesh "inner" (cube inner-size))
(extrude "inner" :faces (faces "inner" :axis :z) :dist (/ inner-size 2))
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}

	// inner-size = 4 - 2*0.5 = 3. The mesh should have non-empty geometry.
	if len(result.Meshes[0].Vertices) == 0 {
		t.Error("mesh should have vertices for computed dimensions")
	}
}

// ---------------------------------------------------------------------------
// Additional edge cases
// ---------------------------------------------------------------------------

func TestE2EWhitespaceOnly(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("   \n\t\n   \n")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for whitespace-only source, got %d", len(result.Errors))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for whitespace-only source, got %d", len(result.Meshes))
	}
}

func TestE2EDefmeshMissingBody(t *testing.T) {
	app := NewApp()

	// defmesh with name but no constructor expression.
	source := `(defmesh "oops")`
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for defmesh with no body")
	}
}

func TestE2EFloatingPointSizes(t *testing.T) {
	app := NewApp()

	source := `(defmesh "precise" (cylinder :radius 0.75 :height 2.5 :segments 24))`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if len(result.Meshes[0].Vertices) == 0 {
		t.Error("floating-point size mesh should have vertices")
	}
}

func TestE2EColorPaletteWrapping(t *testing.T) {
	app := NewApp()

	// Create more meshes than the palette has colors to ensure wrapping works.
	source := `
(defmesh "p1" (cube 0.1))
(defmesh "p2" (cube 0.2))
(defmesh "p3" (cube 0.3))
(defmesh "p4" (cube 0.4))
(defmesh "p5" (cube 0.5))
(defmesh "p6" (cube 0.6))
(defmesh "p7" (cube 0.7))
(defmesh "p8" (cube 0.8))
(defmesh "p9" (cube 0.9))
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}

	if len(result.Meshes) != 9 {
		t.Fatalf("expected 9 meshes, got %d", len(result.Meshes))
	}

	// All meshes must have a non-empty color, and the ninth wraps back to
	// the first palette entry.
	for _, m := range result.Meshes {
		if m.Color == "" {
			t.Errorf("mesh %q should have a color assigned (palette wrapping)", m.PartName)
		}
	}
	if result.Meshes[8].Color != result.Meshes[0].Color {
		t.Errorf("expected 9th mesh to wrap to the first color, got %q vs %q",
			result.Meshes[8].Color, result.Meshes[0].Color)
	}
}
