package engine

// GraphDistances runs a BFS over the undirected projection of the match graph,
// ignoring edge types, and returns hop counts from the origin for every node
// within maxHops. The origin itself is not included.
func GraphDistances(g *MatchGraph, from int64, maxHops int) map[int64]int {
	dist := make(map[int64]int)
	if maxHops <= 0 || len(g.Edges) == 0 {
		return dist
	}

	adj := make(map[int64][]int64)
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}

	frontier := []int64{from}
	visited := map[int64]bool{from: true}
	for hops := 1; hops <= maxHops && len(frontier) > 0; hops++ {
		var next []int64
		for _, node := range frontier {
			for _, peer := range adj[node] {
				if visited[peer] {
					continue
				}
				visited[peer] = true
				dist[peer] = hops
				next = append(next, peer)
			}
		}
		frontier = next
	}
	return dist
}
