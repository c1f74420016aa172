package worldmap

import (
	"container/heap"

	"goldrush/internal/fixed"
)

// eightNeighbors lists the 8-connected step offsets used by the
// pathfinder, in a fixed iteration order so that node expansion order (and
// therefore insertion order into the open set) is identical across peers.
var eightNeighbors = []fixed.IVec2{
	{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1},
	{X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0}, {X: -1, Y: -1},
}

// pathNode is one entry in the A* open set.
type pathNode struct {
	pos      fixed.IVec2
	g        int32 // cost so far
	f        int32 // g + heuristic
	sequence int   // insertion order, used to break f-value ties
	index    int   // heap index, maintained by container/heap
}

type pathHeap []*pathNode

func (h pathHeap) Len() int { return len(h) }
func (h pathHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	// §4.2: ties between equal-f nodes break on insertion order. This is
	// part of the determinism contract and must match across peers.
	return h[i].sequence < h[j].sequence
}
func (h pathHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *pathHeap) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

func chebyshev(a, b fixed.IVec2) int32 {
	return a.ChebyshevDistance(b)
}

// BlockedFunc reports whether a given origin cell (of the path-finding
// entity's own footprint size) is blocked for pathfinding purposes. The
// caller supplies this so that the map doesn't need to know about mining
// semantics or which entity is asking.
type BlockedFunc func(cell fixed.IVec2) bool

// FindPath runs an A* search on the map's 8-connected grid from start to
// goal. cost is Chebyshev step distance (1 for every step, since all 8
// neighbors are equidistant under Chebyshev metric); heuristic is
// Chebyshev distance to the goal. blocked reports which cells cannot be
// entered (already excluding the searching entity's own rectangle, per
// §4.2). The returned path excludes the start cell; a nil/empty path
// means no route was found.
func FindPath(m *Map, start, goal fixed.IVec2, blocked BlockedFunc) []fixed.IVec2 {
	if start == goal {
		return nil
	}
	if !m.InBounds(goal.X, goal.Y) {
		return nil
	}

	open := &pathHeap{}
	heap.Init(open)
	seq := 0

	cameFrom := make(map[fixed.IVec2]fixed.IVec2)
	gScore := make(map[fixed.IVec2]int32)
	gScore[start] = 0
	closed := make(map[fixed.IVec2]bool)

	heap.Push(open, &pathNode{pos: start, g: 0, f: chebyshev(start, goal), sequence: seq})
	seq++

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if closed[current.pos] {
			continue
		}
		closed[current.pos] = true

		if current.pos == goal {
			return reconstructPath(cameFrom, start, goal)
		}

		for _, d := range eightNeighbors {
			next := fixed.IVec2Of(current.pos.X+d.X, current.pos.Y+d.Y)
			if !m.InBounds(next.X, next.Y) {
				continue
			}
			if closed[next] {
				continue
			}
			if next != goal && blocked != nil && blocked(next) {
				continue
			}
			tentativeG := current.g + 1

			existingG, seen := gScore[next]
			if seen && tentativeG >= existingG {
				continue
			}
			cameFrom[next] = current.pos
			gScore[next] = tentativeG
			f := tentativeG + chebyshev(next, goal)
			heap.Push(open, &pathNode{pos: next, g: tentativeG, f: f, sequence: seq})
			seq++
		}
	}

	return nil
}

func reconstructPath(cameFrom map[fixed.IVec2]fixed.IVec2, start, goal fixed.IVec2) []fixed.IVec2 {
	var reversed []fixed.IVec2
	cur := goal
	for cur != start {
		reversed = append(reversed, cur)
		prev, ok := cameFrom[cur]
		if !ok {
			// Unreachable: cameFrom chain broken, treat as no path.
			return nil
		}
		cur = prev
	}
	path := make([]fixed.IVec2, len(reversed))
	for i, c := range reversed {
		path[len(reversed)-1-i] = c
	}
	return path
}
