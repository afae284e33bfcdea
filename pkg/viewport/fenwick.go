package viewport

// fenwick is a binary indexed tree over row heights. It keeps prefix sums
// queryable in O(log n) while allowing O(log n) point updates, so a single
// row height change never forces a full prefix-table rebuild.
type fenwick struct {
	tree []int // 1-based
	vals []int // raw per-index values, 0-based
}

func newFenwick(capacity int) *fenwick {
	return &fenwick{
		tree: make([]int, 1, capacity+1),
		vals: make([]int, 0, capacity),
	}
}

func (f *fenwick) len() int { return len(f.vals) }

// append extends the tree by one value without rebuilding: the new node
// covers [i-lowbit(i)+1, i] and its total is derivable from existing
// prefix sums.
func (f *fenwick) append(v int) {
	f.vals = append(f.vals, v)
	i := len(f.vals) // 1-based position of the new element
	lo := i - (i & -i)
	f.tree = append(f.tree, v+f.prefix(i-1)-f.prefix(lo))
}

// set replaces the value at 0-based index i.
func (f *fenwick) set(i, v int) {
	delta := v - f.vals[i]
	if delta == 0 {
		return
	}
	f.vals[i] = v
	for j := i + 1; j < len(f.tree); j += j & -j {
		f.tree[j] += delta
	}
}

// get returns the value at 0-based index i.
func (f *fenwick) get(i int) int { return f.vals[i] }

// prefix returns the sum of the first n values.
func (f *fenwick) prefix(n int) int {
	sum := 0
	for ; n > 0; n -= n & -n {
		sum += f.tree[n]
	}
	return sum
}

func (f *fenwick) total() int { return f.prefix(len(f.vals)) }

// truncate drops every value at 0-based index n and beyond.
func (f *fenwick) truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(f.vals) {
		return
	}
	// Node i only aggregates values at or below i, so surviving nodes
	// stay valid after the tail is dropped.
	f.vals = f.vals[:n]
	f.tree = f.tree[:n+1]
}

// lowerBound returns the smallest count of leading values whose sum
// strictly exceeds target, clamped to len: if no prefix exceeds target
// the result is len(f.vals). A negative target yields 0.
func (f *fenwick) lowerBound(target int) int {
	if target < 0 {
		return 0
	}
	pos := 0
	rem := target
	bit := 1
	for bit<<1 < len(f.tree) {
		bit <<= 1
	}
	for ; bit > 0; bit >>= 1 {
		next := pos + bit
		if next < len(f.tree) && f.tree[next] <= rem {
			pos = next
			rem -= f.tree[next]
		}
	}
	// pos is the largest count with prefix(pos) <= target.
	if pos >= len(f.vals) {
		return len(f.vals)
	}
	return pos + 1
}
