package odometry

import "slices"

// VoteCount is the number of trials that produced a displacement.
type VoteCount struct {
	Vector Vector `json:"vector"`
	Count  int    `json:"count"`
}

// Tally groups displacement votes by exact equality.
// The result does not depend on the order votes are added in.
type Tally struct {
	counts map[Vector]int
	total  int
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[Vector]int)}
}

// TallyOf builds a tally from a slice of votes.
func TallyOf(votes []Vector) *Tally {
	t := NewTally()
	for _, v := range votes {
		t.Add(v)
	}
	return t
}

// Add records one vote.
func (t *Tally) Add(v Vector) {
	t.counts[v]++
	t.total++
}

// Total returns the number of votes.
func (t *Tally) Total() int {
	return t.total
}

// Mode returns the most common vector and its count. Equal counts are broken
// in favor of the lexicographically smallest vector.
func (t *Tally) Mode() (Vector, int) {
	var (
		best  Vector
		count int
	)
	for v, n := range t.counts {
		if n > count || (n == count && v.Less(best)) {
			best, count = v, n
		}
	}
	return best, count
}

// Confidence returns the share of votes agreeing with the mode.
func (t *Tally) Confidence() float64 {
	if t.total == 0 {
		return 0
	}
	_, n := t.Mode()
	return float64(n) / float64(t.total)
}

// Counts returns every distinct vector, most common first, ties in
// lexicographic order.
func (t *Tally) Counts() []VoteCount {
	out := make([]VoteCount, 0, len(t.counts))
	for v, n := range t.counts {
		out = append(out, VoteCount{Vector: v, Count: n})
	}
	slices.SortFunc(out, func(a, b VoteCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if a.Vector.Less(b.Vector) {
			return -1
		}
		if b.Vector.Less(a.Vector) {
			return 1
		}
		return 0
	})
	return out
}

// Round summarizes the tally. Votes keeps at most top entries (0 = none).
func (t *Tally) Round(top int) Round {
	mode, _ := t.Mode()
	r := Round{
		Vector:     mode,
		Confidence: t.Confidence(),
		Trials:     t.total,
	}
	if top > 0 {
		counts := t.Counts()
		if len(counts) > top {
			counts = counts[:top]
		}
		r.Votes = counts
	}
	return r
}
