package pkg

// disjointSet is a union-find over element indices with path halving.
// The root of a set is always its smallest index, so set identity is stable
// whatever order unions happen in.
type disjointSet struct {
	parent []int
}

func newDisjointSet(n int) *disjointSet {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &disjointSet{parent: parent}
}

func (d *disjointSet) find(i int) int {
	for d.parent[i] != i {
		d.parent[i] = d.parent[d.parent[i]]
		i = d.parent[i]
	}
	return i
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
}

// sets returns member indices grouped by set, ordered by each set's smallest
// index, members ascending.
func (d *disjointSet) sets() [][]int {
	byRoot := make(map[int]int)
	var out [][]int
	for i := range d.parent {
		r := d.find(i)
		slot, ok := byRoot[r]
		if !ok {
			slot = len(out)
			byRoot[r] = slot
			out = append(out, nil)
		}
		out[slot] = append(out[slot], i)
	}
	return out
}
