package utils

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/traverse"
)

// ErrNoPath 起点无法到达终点
var ErrNoPath = errors.New("no path between nodes")

// ShortestPath 返回加权图上从起点到终点的最短路径及其长度
func ShortestPath(g traverse.Graph, origin, destination graph.Node) ([]graph.Node, float64, error) {
	if origin.ID() == destination.ID() {
		return nil, -1, fmt.Errorf("origin %d and destination are the same", origin.ID())
	}

	shortest := path.DijkstraFrom(origin, g)
	nodes, weight := shortest.To(destination.ID())
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return nil, -1, fmt.Errorf("%d -> %d: %w", origin.ID(), destination.ID(), ErrNoPath)
	}
	return nodes, weight, nil
}

// PathEdges 按顺序返回路径上每一对相邻节点之间的边
func PathEdges(g graph.Weighted, nodes []graph.Node) ([]graph.WeightedEdge, error) {
	if len(nodes) < 2 {
		return nil, fmt.Errorf("path of %d nodes has no edges", len(nodes))
	}

	edges := make([]graph.WeightedEdge, 0, len(nodes)-1)
	for i := 0; i < len(nodes)-1; i++ {
		e := g.WeightedEdge(nodes[i].ID(), nodes[i+1].ID())
		if e == nil {
			return nil, fmt.Errorf("no edge %d -> %d", nodes[i].ID(), nodes[i+1].ID())
		}
		edges = append(edges, e)
	}
	return edges, nil
}
