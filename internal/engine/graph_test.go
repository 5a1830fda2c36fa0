package engine

import (
	"testing"
	"time"
)

func edge(from, to int64) GraphEdge {
	return GraphEdge{From: from, To: to, Type: EdgeMatch, Weight: 0.5, CreatedAt: time.Now()}
}

func TestGraphDistances(t *testing.T) {
	g := &MatchGraph{Edges: []GraphEdge{
		edge(1, 2),
		edge(2, 3),
		edge(3, 4),
		edge(5, 1), // undirected: reachable from 1 in one hop
	}}

	dist := GraphDistances(g, 1, 2)

	if dist[2] != 1 || dist[5] != 1 {
		t.Errorf("Expected direct neighbors at 1 hop, got %v", dist)
	}
	if dist[3] != 2 {
		t.Errorf("Expected node 3 at 2 hops, got %v", dist)
	}
	if _, ok := dist[4]; ok {
		t.Errorf("Node 4 is 3 hops away and should be excluded, got %v", dist)
	}
	if _, ok := dist[1]; ok {
		t.Error("Origin must not appear in its own distance map")
	}
}

func TestGraphDistances_ZeroHops(t *testing.T) {
	g := &MatchGraph{Edges: []GraphEdge{edge(1, 2)}}
	if dist := GraphDistances(g, 1, 0); len(dist) != 0 {
		t.Errorf("Expected empty map for zero hops, got %v", dist)
	}
}

func TestGraphDistances_EmptyGraph(t *testing.T) {
	if dist := GraphDistances(&MatchGraph{}, 1, 3); len(dist) != 0 {
		t.Errorf("Expected empty map for empty graph, got %v", dist)
	}
}
