// Package mesh defines the polygon mesh data model for Meshwright.
// A Mesh is an indexed collection of vertices, derived edges, and n-gon
// faces; element identity is an opaque id that survives reordering and
// deletion of other elements. Edges are always recomputed from the face
// list, never authored, except for the per-edge seam flag.
package mesh
