// Static network topology: an undirected graph built once from configuration,
// from which each entity derives its outbound links and routing table.
package topology

import (
	"fmt"
	"sort"
)

// Graph is an undirected graph over integer addresses 0..n-1. Address 0 is
// the controller by convention. Neighbor lists are kept sorted, and an
// entity's outbound link i is its i-th sorted neighbor — on the controller of
// a star topology link i therefore reaches address i+1.
type Graph struct {
	n   int
	adj [][]int
}

// New returns an empty graph over n addresses.
func New(n int) *Graph {
	return &Graph{n: n, adj: make([][]int, n)}
}

// Size returns the number of addresses.
func (g *Graph) Size() int { return g.n }

// AddLink connects a and b bidirectionally. Duplicate links are rejected.
func (g *Graph) AddLink(a, b int) error {
	if a < 0 || a >= g.n || b < 0 || b >= g.n {
		return fmt.Errorf("link [%d,%d] references address outside 0..%d", a, b, g.n-1)
	}
	if a == b {
		return fmt.Errorf("link [%d,%d] connects an address to itself", a, b)
	}
	for _, nb := range g.adj[a] {
		if nb == b {
			return fmt.Errorf("duplicate link [%d,%d]", a, b)
		}
	}
	g.adj[a] = insertSorted(g.adj[a], b)
	g.adj[b] = insertSorted(g.adj[b], a)
	return nil
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// Neighbors returns the sorted neighbor addresses of addr.
func (g *Graph) Neighbors(addr int) []int { return g.adj[addr] }

// LinkCount returns the number of outbound links of addr.
func (g *Graph) LinkCount(addr int) int { return len(g.adj[addr]) }

// Neighbor resolves an outbound link index to the peer address.
func (g *Graph) Neighbor(addr, link int) (int, bool) {
	if link < 0 || link >= len(g.adj[addr]) {
		return 0, false
	}
	return g.adj[addr][link], true
}

// Table is a node's immutable destination→outbound-link map, built once at
// startup from the unweighted shortest paths of the graph.
type Table struct {
	next map[int]int
}

// Table computes the routing table of src by breadth-first search. Neighbors
// are explored in sorted order, so the first shortest path found is
// deterministic. Unreachable destinations simply have no entry.
func (g *Graph) Table(src int) *Table {
	parent := make([]int, g.n)
	for i := range parent {
		parent[i] = -1
	}
	parent[src] = src
	queue := []int{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range g.adj[cur] {
			if parent[nb] == -1 {
				parent[nb] = cur
				queue = append(queue, nb)
			}
		}
	}

	t := &Table{next: make(map[int]int)}
	for dest := 0; dest < g.n; dest++ {
		if dest == src || parent[dest] == -1 {
			continue
		}
		hop := dest
		for parent[hop] != src {
			hop = parent[hop]
		}
		if link := sort.SearchInts(g.adj[src], hop); link < len(g.adj[src]) && g.adj[src][link] == hop {
			t.next[dest] = link
		}
	}
	return t
}

// Lookup returns the outbound link toward dest, or false if there is no route.
func (t *Table) Lookup(dest int) (int, bool) {
	link, ok := t.next[dest]
	return link, ok
}

// Len returns the number of routable destinations.
func (t *Table) Len() int { return len(t.next) }

// Star returns a star graph: every address 1..n-1 linked to the controller.
func Star(n int) *Graph {
	g := New(n)
	for i := 1; i < n; i++ {
		_ = g.AddLink(0, i)
	}
	return g
}
