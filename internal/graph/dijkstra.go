package graph

import (
	"container/heap"

	"github.com/metrovan/isochrone/internal/models"
)

// DijkstraResult is the single-source shortest-path output: the minute
// cost and predecessor edge for every node reached.
type DijkstraResult struct {
	Dist map[models.Node]float64
	Prev map[models.Node]dijkstraStep
}

type dijkstraStep struct {
	from models.Node
	edge models.Edge
}

// Dijkstra runs single-source shortest paths from source over g's edges.
// cutoff, if > 0, bounds exploration: nodes whose tentative distance
// exceeds cutoff are never expanded (§4.6 Isochrone step 2 "cutoff =
// budget minutes"). Pass cutoff <= 0 for an unbounded search (§4.6 Route).
//
// The routine runs to completion with no suspension points (§5); it does
// not observe ctx cancellation itself — callers needing a time budget on
// the search enforce it outside this call and still run RemoveNode for
// cleanup regardless of how the call returns (§5 Cancellation).
func (g *Graph) Dijkstra(source models.Node, cutoff float64) *DijkstraResult {
	dist := map[models.Node]float64{source: 0}
	prev := map[models.Node]dijkstraStep{}

	pq := &nodeHeap{{node: source, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*heapItem)
		if best, ok := dist[item.node]; ok && item.dist > best {
			continue // stale entry
		}

		for _, edge := range g.edges[item.node] {
			next := item.dist + edge.Weight
			if cutoff > 0 && next > cutoff {
				continue
			}
			if existing, ok := dist[edge.To]; ok && next >= existing {
				continue
			}
			dist[edge.To] = next
			prev[edge.To] = dijkstraStep{from: item.node, edge: edge}
			heap.Push(pq, &heapItem{node: edge.To, dist: next})
		}
	}

	return &DijkstraResult{Dist: dist, Prev: prev}
}

// PathTo reconstructs the node and edge sequence from source to target
// using the predecessor map produced by Dijkstra. ok is false if target
// was never reached.
func (r *DijkstraResult) PathTo(source, target models.Node) (nodes []models.Node, edges []models.Edge, ok bool) {
	if _, reached := r.Dist[target]; !reached && target != source {
		return nil, nil, false
	}

	nodes = []models.Node{target}
	cur := target
	for cur != source {
		step, has := r.Prev[cur]
		if !has {
			return nil, nil, false
		}
		edges = append(edges, step.edge)
		cur = step.from
		nodes = append(nodes, cur)
	}

	// reverse
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return nodes, edges, true
}

type heapItem struct {
	node  models.Node
	dist  float64
	index int
}

// nodeHeap implements container/heap.Interface, the same pattern the
// teacher's A* search uses for its open set (internal/routing/astar.go),
// with the A* fScore/heuristic dropped since §4.6 specifies plain Dijkstra.
type nodeHeap []*heapItem

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x interface{}) {
	item := x.(*heapItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}
