package guardedseq

// Iterator is a predicate filtering cursor over a Sequence.
//
// Next and Prev step over every slot whose content fails the validity predicate,
// stopping at the next live element or at the boundary the cursor was created with.
// Value is only well defined while Valid reports true: a cursor returned for a freshly
// tombstoned position keeps the position, but yields no value.
//
// An Iterator holds a slot index, so it survives reallocation of the backing storage.
type Iterator[T any] struct {
	seq        *Sequence[T]
	index      int
	begin, end int
}

// Index returns the slot position of the cursor.
func (it *Iterator[T]) Index() int {
	return it.index
}

// Valid reports whether the cursor stands on a live element.
func (it *Iterator[T]) Valid() bool {
	if it.index < it.begin || it.end <= it.index {
		return false
	}
	_, ok := it.seq.at(it.index)
	return ok
}

// Value returns the element under the cursor.
// For a cursor standing on a tombstoned slot or on a boundary, it returns the zero value.
func (it *Iterator[T]) Value() T {
	v, _ := it.seq.at(it.index)
	return v
}

// Next advances the cursor to the next live element,
// skipping tombstoned slots, and reports whether it found one.
// After Next returned false, the cursor stands past the last slot.
func (it *Iterator[T]) Next() bool {
	for i := it.index + 1; i < it.end; i++ {
		if _, ok := it.seq.at(i); ok {
			it.index = i
			return true
		}
	}
	it.index = it.end
	return false
}

// Prev steps the cursor back to the previous live element,
// skipping tombstoned slots, and reports whether it found one.
// After Prev returned false, the cursor stands before the first slot.
func (it *Iterator[T]) Prev() bool {
	for i := min(it.index-1, it.end-1); it.begin <= i; i-- {
		if _, ok := it.seq.at(i); ok {
			it.index = i
			return true
		}
	}
	it.index = it.begin - 1
	return false
}
