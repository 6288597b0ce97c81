package ops

import (
	"github.com/chazu/meshwright/pkg/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// MergeAtCenter collapses the selected vertices (two or more) into the
// first one, moved to the selection centroid. Faces that referenced a
// merged vertex are retargeted at the survivor; faces left with duplicate
// ids or fewer than three distinct corners are dropped.
func MergeAtCenter(m *mesh.Mesh, sel []mesh.VertexID) *mesh.Mesh {
	live := liveVertices(m, sel)
	if len(live) < 2 {
		return m
	}
	out := m.Clone()
	collapseClusters(out, [][]mesh.VertexID{live})
	return out
}

// MergeByDistance welds selected vertices that lie within tolerance of
// each other. Clustering is greedy: each unclaimed vertex seeds a cluster
// of every remaining selected vertex within tolerance of the seed, and
// each cluster collapses to its seed at the cluster centroid. A negative
// tolerance, or a selection that produces no cluster of two, is a no-op.
func MergeByDistance(m *mesh.Mesh, sel []mesh.VertexID, tolerance float64) *mesh.Mesh {
	live := liveVertices(m, sel)
	if len(live) < 2 || tolerance < 0 {
		return m
	}
	claimed := make(map[mesh.VertexID]bool, len(live))
	var clusters [][]mesh.VertexID
	for i, seed := range live {
		if claimed[seed] {
			continue
		}
		claimed[seed] = true
		cluster := []mesh.VertexID{seed}
		sp := m.VertexByID(seed).Position
		for _, other := range live[i+1:] {
			if claimed[other] {
				continue
			}
			if r3.Norm(r3.Sub(m.VertexByID(other).Position, sp)) <= tolerance {
				claimed[other] = true
				cluster = append(cluster, other)
			}
		}
		if len(cluster) >= 2 {
			clusters = append(clusters, cluster)
		}
	}
	if len(clusters) == 0 {
		return m
	}
	out := m.Clone()
	collapseClusters(out, clusters)
	return out
}

// collapseClusters merges each cluster into its first member in place:
// the survivor moves to the cluster centroid, face rings are retargeted,
// degenerate faces pruned, and the merged-away vertices removed.
func collapseClusters(out *mesh.Mesh, clusters [][]mesh.VertexID) {
	remap := make(map[mesh.VertexID]mesh.VertexID)
	dead := make(map[mesh.VertexID]bool)
	for _, cluster := range clusters {
		survivor := cluster[0]
		var sum r3.Vec
		for _, id := range cluster {
			sum = r3.Add(sum, out.VertexByID(id).Position)
		}
		out.VertexByID(survivor).Position = r3.Scale(1/float64(len(cluster)), sum)
		for _, id := range cluster[1:] {
			remap[id] = survivor
			dead[id] = true
		}
	}
	for i := range out.Faces {
		ring := out.Faces[i].Verts
		for j, v := range ring {
			if s, ok := remap[v]; ok {
				ring[j] = s
			}
		}
	}
	out.PruneDegenerateFaces()
	out.RemoveVertices(dead)
}
