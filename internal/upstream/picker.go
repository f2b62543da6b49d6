package upstream

import "sync/atomic"

// roundRobin rotates target indices. Safe for concurrent use.
type roundRobin struct {
	counter atomic.Int64
}

func (r *roundRobin) next(n int) int {
	if n <= 1 {
		return 0
	}
	v := r.counter.Add(1)
	idx := int(v % int64(n))
	if idx < 0 {
		idx = -idx
	}
	return idx
}
