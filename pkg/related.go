package pkg

import "sort"

// RelatedNames returns the names whose sequence number differs from the
// target's by at most one, in input order. The target itself is included
// when present in names. A target without a sequence number has no related
// names.
func RelatedNames(names []string, target string) []string {
	want, ok := SequenceNumber(target)
	if !ok {
		return nil
	}
	var related []string
	for _, name := range names {
		n, ok := SequenceNumber(name)
		if !ok {
			continue
		}
		if absDiff(n, want) <= 1 {
			related = append(related, name)
		}
	}
	return related
}

// ClusterRelated partitions one directory's files into related sets.
// Adjacency (sequence numbers within one) is joined transitively, so a
// 10/11/12 chain forms a single set. Files without a sequence number are
// singletons. Sets are ordered by their first member's name and members are
// sorted by name, independent of input order.
func ClusterRelated(files []MediaFile) [][]MediaFile {
	if len(files) == 0 {
		return nil
	}
	sorted := make([]MediaFile, len(files))
	copy(sorted, files)
	sortByName(sorted)

	type numbered struct {
		idx int
		seq int64
	}
	var withSeq []numbered
	for i, f := range sorted {
		if n, ok := SequenceNumber(f.Name); ok {
			withSeq = append(withSeq, numbered{idx: i, seq: n})
		}
	}
	sort.SliceStable(withSeq, func(i, j int) bool { return withSeq[i].seq < withSeq[j].seq })

	ds := newDisjointSet(len(sorted))
	for i := 1; i < len(withSeq); i++ {
		if withSeq[i].seq-withSeq[i-1].seq <= 1 {
			ds.union(withSeq[i-1].idx, withSeq[i].idx)
		}
	}

	sets := ds.sets()
	clusters := make([][]MediaFile, 0, len(sets))
	for _, members := range sets {
		cluster := make([]MediaFile, 0, len(members))
		for _, i := range members {
			cluster = append(cluster, sorted[i])
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
