// Package graphfeat computes provider-network topology features. A claim
// contributes a single provider-procedure edge, so the fragment built per
// request is locally accurate but globally unrepresentative; the cache in
// front of the computation is what keeps recomputation cost bounded.
package graphfeat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/medicare-fraud-scoring-server/internal/domain"
)

// PageRank parameters, matching the defaults the model was trained with.
const (
	pageRankDamping   = 0.85
	pageRankTolerance = 1e-6
	pageRankMaxIter   = 100

	// minEdgeWeight keeps zero-charge claims from producing zero-length
	// shortest paths and infinite closeness.
	minEdgeWeight = 1e-9
)

// Fragment is a small weighted undirected provider/procedure graph with
// string-named nodes.
type Fragment struct {
	g    *simple.WeightedUndirectedGraph
	ids  map[string]int64
	next int64
}

// NewFragment creates an empty fragment.
func NewFragment() *Fragment {
	return &Fragment{
		g:   simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		ids: make(map[string]int64),
	}
}

// FragmentFromClaim builds the minimal graph for one claim: an edge
// between the rendering provider and the billed procedure code, weighted
// by the claim's submitted charge.
func FragmentFromClaim(claim *domain.ClaimRecord) *Fragment {
	f := NewFragment()
	f.AddEdge(claim.ProviderID, claim.ProcedureCode, claim.SubmittedCharge)
	return f
}

// AddEdge adds a weighted undirected edge, creating nodes as needed.
// Self-loops are ignored; non-positive weights are clamped to a minimum.
func (f *Fragment) AddEdge(u, v string, weight float64) {
	if u == v {
		return
	}
	if weight < minEdgeWeight {
		weight = minEdgeWeight
	}
	f.g.SetWeightedEdge(simple.WeightedEdge{
		F: simple.Node(f.nodeID(u)),
		T: simple.Node(f.nodeID(v)),
		W: weight,
	})
}

// NodeCount returns the number of nodes in the fragment.
func (f *Fragment) NodeCount() int {
	return f.g.Nodes().Len()
}

func (f *Fragment) nodeID(name string) int64 {
	if id, ok := f.ids[name]; ok {
		return id
	}
	id := f.next
	f.next++
	f.ids[name] = id
	return id
}

// Centrality computes the degree centrality, weighted closeness
// centrality, and weighted PageRank of one node.
func (f *Fragment) Centrality(node string) (degree, closeness, pagerank float64, err error) {
	id, ok := f.ids[node]
	if !ok {
		return 0, 0, 0, fmt.Errorf("node %q is not part of the graph fragment", node)
	}

	n := f.g.Nodes().Len()
	if n < 2 {
		return 0, 0, 0, nil
	}

	degree = float64(f.g.From(id).Len()) / float64(n-1)

	shortest := path.DijkstraAllPaths(f.g)
	closeness = network.Closeness(f.g, shortest)[id]
	if math.IsInf(closeness, 0) || math.IsNaN(closeness) {
		closeness = 0
	}

	pagerank = f.pageRank()[id]

	return degree, closeness, pagerank, nil
}

// pageRank runs a weighted power iteration over the fragment. gonum's
// PageRank operates on directed graphs without honoring edge weights, so
// the iteration is done here against the weighted adjacency directly.
func (f *Fragment) pageRank() map[int64]float64 {
	nodes := graph.NodesOf(f.g.Nodes())
	n := float64(len(nodes))

	rank := make(map[int64]float64, len(nodes))
	weightSum := make(map[int64]float64, len(nodes))
	for _, u := range nodes {
		rank[u.ID()] = 1 / n
		for _, v := range graph.NodesOf(f.g.From(u.ID())) {
			w, _ := f.g.Weight(u.ID(), v.ID())
			weightSum[u.ID()] += w
		}
	}

	for iter := 0; iter < pageRankMaxIter; iter++ {
		var dangling float64
		for _, u := range nodes {
			if weightSum[u.ID()] == 0 {
				dangling += rank[u.ID()]
			}
		}

		next := make(map[int64]float64, len(nodes))
		base := (1-pageRankDamping)/n + pageRankDamping*dangling/n
		for _, u := range nodes {
			next[u.ID()] = base
		}
		for _, u := range nodes {
			if weightSum[u.ID()] == 0 {
				continue
			}
			for _, v := range graph.NodesOf(f.g.From(u.ID())) {
				w, _ := f.g.Weight(u.ID(), v.ID())
				next[v.ID()] += pageRankDamping * rank[u.ID()] * w / weightSum[u.ID()]
			}
		}

		var delta float64
		for id, r := range next {
			delta += math.Abs(r - rank[id])
		}
		rank = next
		if delta < pageRankTolerance {
			break
		}
	}

	return rank
}
