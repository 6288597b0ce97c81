package main

import (
	"fmt"
	"log"

	"github.com/chazu/meshwright/pkg/engine"
	"github.com/chazu/meshwright/pkg/mesh"
	"github.com/chazu/meshwright/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the headless binding over the editing kernel. A frontend (or the
// CLI in main.go) hands it script source and receives renderable buffers.
type App struct {
	engine *engine.Engine
}

// MeshData is the JSON-serializable mesh format sent to a renderer.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	UVs      []float32 `json:"uvs"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating a script.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates a new App with a fresh engine.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(),
	}
}

// Evaluate takes Lisp source and returns mesh data + errors.
// This is the primary binding called by an editor frontend.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a mesh document.
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Line:    0,
			Col:     0,
			Message: err.Error(),
		})
		return result
	}

	// Step 2: Convert eval errors to the frontend format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Tessellate each display mesh, in document order. Structural
	// findings surface as warnings; they never block rendering.
	for i, name := range s.Names() {
		disp, err := s.Display(name)
		if err != nil {
			log.Printf("Display %q error: %v", name, err)
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    0,
				Col:     0,
				Message: "display failed: " + err.Error(),
			})
			continue
		}

		for _, v := range mesh.Validate(disp) {
			result.Warnings = append(result.Warnings, EvalErrorData{
				Line:    0,
				Col:     0,
				Message: fmt.Sprintf("%s: %s", name, v.Message),
			})
		}

		buf := tessellate.Tessellate(disp, name)
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: buf.Vertices,
			Normals:  buf.Normals,
			UVs:      buf.UVs,
			Indices:  buf.Indices,
			PartName: buf.Name,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}

	return result
}
