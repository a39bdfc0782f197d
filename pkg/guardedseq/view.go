package guardedseq

import "iter"

// View is a bounded, read-only window over a Sequence,
// filtered by the container's validity predicate.
//
// The begin/end slot range of a View is fixed at capture time. While the view is the
// container's stable view, the number of slots inside the range never changes; the
// content of a slot may turn into a tombstone, which every traversal silently skips.
// Views are cheap value types and safe to use from any number of readers.
type View[T any] struct {
	seq        *Sequence[T]
	begin, end int
}

// Bounds returns the begin/end slot range of the view.
// The difference of the two is the physical slot count the view protects,
// which can exceed Size while tombstoned slots exist.
func (v View[T]) Bounds() (begin, end int) {
	return v.begin, v.end
}

// Contains reports whether the given slot position falls inside the view's range.
func (v View[T]) Contains(index int) bool {
	return v.begin <= index && index < v.end
}

// Size returns the number of live elements within the view.
func (v View[T]) Size() int {
	var n int
	for range v.Values() {
		n++
	}
	return n
}

// IsEmpty reports whether the view has no live element.
func (v View[T]) IsEmpty() bool {
	return v.Size() == 0
}

// Iterator returns a cursor positioned before the first element of the view.
// Use Next to step onto the first live element.
func (v View[T]) Iterator() *Iterator[T] {
	return &Iterator[T]{seq: v.seq, index: v.begin - 1, begin: v.begin, end: v.end}
}

// Find looks up the first element of the view equal to the given item.
// On success it returns a cursor positioned at the element.
func (v View[T]) Find(item T) (*Iterator[T], bool) {
	if v.seq == nil {
		return nil, false
	}
	return v.FindFunc(func(got T) bool { return v.seq.equal(got, item) })
}

// FindFunc looks up the first element of the view for which the given function
// reports true. On success it returns a cursor positioned at the element.
func (v View[T]) FindFunc(fn func(T) bool) (*Iterator[T], bool) {
	for i, got := range v.All() {
		if fn(got) {
			return &Iterator[T]{seq: v.seq, index: i, begin: v.begin, end: v.end}, true
		}
	}
	return nil, false
}

// Values ranges forward over the live elements of the view.
// The container's mutex is not held across yields,
// so the body may mutate the Sequence through its own API.
func (v View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		if v.seq == nil {
			return
		}
		for i := v.begin; i < v.end; i++ {
			got, ok := v.seq.at(i)
			if !ok {
				continue
			}
			if !yield(got) {
				return
			}
		}
	}
}

// All ranges forward over the live elements of the view along with their slot index.
func (v View[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if v.seq == nil {
			return
		}
		for i := v.begin; i < v.end; i++ {
			got, ok := v.seq.at(i)
			if !ok {
				continue
			}
			if !yield(i, got) {
				return
			}
		}
	}
}

// Backward ranges in reverse over the live elements of the view
// along with their slot index.
func (v View[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if v.seq == nil {
			return
		}
		for i := v.end - 1; v.begin <= i; i-- {
			got, ok := v.seq.at(i)
			if !ok {
				continue
			}
			if !yield(i, got) {
				return
			}
		}
	}
}
