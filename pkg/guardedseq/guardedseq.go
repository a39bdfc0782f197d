// Package guardedseq provides a sequence container that tolerates mutation
// while concurrent readers keep positions into it.
//
// The container cooperates with a reference counted lock through the guard.Observer
// hooks. While the lock is held, the container maintains a stable view: a begin/end
// slot range captured at the first acquire, whose slot count never changes until the
// last release. Erasing inside the view resets the slot to the zero value instead of
// removing it, which keeps every position held by a reader valid. Slots whose content
// fails the validity predicate are invisible to iteration, and are physically removed
// in a single sweep once the last holder releases the lock.
package guardedseq

import (
	"iter"
	"reflect"
	"slices"
	"sync"

	"github.com/bitwelder/stew/internal/constant"
	"github.com/bitwelder/stew/port/ds"
	"github.com/bitwelder/stew/port/guard"
)

const (
	// ErrLockedRange is returned when an insert position falls inside the locked view.
	// The insert did not happen; retry after the lock is fully released.
	ErrLockedRange constant.Error = "guardedseq: position is inside the locked view"
	// ErrOutOfRange is returned when a position is outside the container's range.
	ErrOutOfRange constant.Error = "guardedseq: position is out of range"
)

// Sequence is an ordered, index accessible container of T that owns its elements.
//
// Positions in a Sequence are slot indices. Indices inside the locked view never
// shift while the view exists: in-view inserts are rejected, in-view erases
// tombstone the slot in place, and appends or out-of-view erases only move slots
// at or after the view end. A held index therefore stays valid for the whole
// locked window, regardless of how the backing storage grows.
//
// The zero Sequence is not usable, use New.
type Sequence[T any] struct {
	mu      sync.RWMutex
	slots   []T
	isValid func(T) bool
	equal   func(a, b T) bool
	view    *View[T]
}

var (
	_ guard.Observer     = (*Sequence[any])(nil)
	_ ds.Appendable[any] = (*Sequence[any])(nil)
	_ ds.Values[any]     = (*Sequence[any])(nil)
	_ ds.Len             = (*Sequence[any])(nil)
)

// Option configures a Sequence.
type Option[T any] func(*Sequence[T])

// WithEqual sets the equality function used by Find and Contains.
// The default is reflect.DeepEqual.
func WithEqual[T any](equal func(a, b T) bool) Option[T] {
	return func(s *Sequence[T]) { s.equal = equal }
}

// New creates a Sequence whose element liveness is decided by the isValid predicate.
//
// The predicate is fixed for the lifetime of the container. It must report false for
// the zero value of T, as erasing inside the locked view resets the slot to the zero
// value to mark the logical deletion.
func New[T any](isValid func(T) bool, opts ...Option[T]) *Sequence[T] {
	if isValid == nil {
		panic("guardedseq: the validity predicate is mandatory")
	}
	s := &Sequence[T]{
		isValid: isValid,
		equal:   func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NotZero is a ready to use validity predicate for comparable element types,
// reporting whether the element differs from the zero value of T.
func NotZero[T comparable](v T) bool {
	var zero T
	return v != zero
}

// OnFirstAcquire captures the stable view of the container.
//
// It is meant to be called by the reference counted lock guarding the Sequence,
// on the transition from zero to one lock holder. Capturing is idempotent and
// records only the current begin/end slot range, elements are not copied.
func (s *Sequence[T]) OnFirstAcquire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		s.view = &View[T]{seq: s, begin: 0, end: len(s.slots)}
	}
}

// OnLastRelease compacts the container and discards the stable view.
//
// It is meant to be called by the reference counted lock guarding the Sequence, on
// the transition back to zero lock holders. Every slot whose content fails the
// validity predicate is physically removed; this deletes the tombstones accumulated
// during the locked window and also drops any element that got invalidated by other
// means. Readers that lock afterwards see the compacted storage.
func (s *Sequence[T]) OnLastRelease() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = slices.DeleteFunc(s.slots, func(v T) bool { return !s.isValid(v) })
	s.view = nil
}

// IsLocked reports whether the container currently has a stable view.
func (s *Sequence[T]) IsLocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view != nil
}

// LockedView returns the current stable view of the container.
// The view is immutable once captured; any number of readers may use it concurrently.
func (s *Sequence[T]) LockedView() (View[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.view == nil {
		return View[T]{}, false
	}
	return *s.view, true
}

// Clear removes the content of the container.
//
// While the container is locked, the slots of the stable view are reset to the zero
// value instead, so the slot count the view guarantees stays intact. Iterating the
// view yields nothing from that point on, and the physical removal happens at the
// last lock release.
func (s *Sequence[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view != nil {
		var zero T
		for i := s.view.begin; i < s.view.end; i++ {
			s.slots[i] = zero
		}
		return
	}
	s.slots = s.slots[:0]
}

// Insert inserts v immediately before the given position.
//
// Insert fails with ErrLockedRange when the container is locked and the position
// falls inside the stable view, since growing the protected range would shift the
// positions concurrent readers hold. Positions at or after the view end are fine.
// On success it returns an iterator at the newly inserted element.
func (s *Sequence[T]) Insert(index int, v T) (*Iterator[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || len(s.slots) < index {
		return nil, ErrOutOfRange
	}
	if s.view != nil && s.view.Contains(index) {
		return nil, ErrLockedRange
	}
	s.slots = slices.Insert(s.slots, index, v)
	return s.iterAt(index), nil
}

// Delete erases or resets the element at the given position.
//
//   - Inside the locked view, the slot content is reset to the zero value and an
//     iterator at that same position is returned. The slot itself remains, iteration
//     skips it from now on, and the physical removal happens at the last lock release.
//   - Outside the locked view the element is physically removed, and a nil iterator is
//     returned with a nil error: the erase happened, but no continuation position is
//     promised, as trailing slots outside the view are allowed to shift.
//   - On an unlocked container the element is physically removed and an iterator to
//     the following element is returned.
func (s *Sequence[T]) Delete(index int) (*Iterator[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || len(s.slots) <= index {
		return nil, ErrOutOfRange
	}
	if s.view != nil {
		if s.view.Contains(index) {
			var zero T
			s.slots[index] = zero
			return s.iterAt(index), nil
		}
		s.slots = slices.Delete(s.slots, index, index+1)
		return nil, nil
	}
	s.slots = slices.Delete(s.slots, index, index+1)
	return s.iterAt(index), nil
}

// Append adds elements at the end of the container, regardless of the lock state.
// Appended elements fall outside any already captured view.
func (s *Sequence[T]) Append(vs ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = append(s.slots, vs...)
}

// Set overwrites the content of the slot at the given position.
// The slot count is unchanged, so it is allowed inside the locked view as well.
func (s *Sequence[T]) Set(index int, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || len(s.slots) <= index {
		return false
	}
	s.slots[index] = v
	return true
}

// Len returns the physical slot count of the container.
// While locked, it can exceed the number of elements iteration yields,
// as tombstoned slots are only removed at the last lock release.
func (s *Sequence[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Lookup returns the element at the given position.
// It reports false for positions out of range and for tombstoned slots.
func (s *Sequence[T]) Lookup(index int) (T, bool) {
	return s.at(index)
}

// Contains reports whether the container has a live element equal to v.
func (s *Sequence[T]) Contains(v T) bool {
	for got := range s.Values() {
		if s.equal(got, v) {
			return true
		}
	}
	return false
}

// Values ranges over the live elements of the container, skipping invalid slots.
// The mutex is not held across yields, so the body may mutate the Sequence.
func (s *Sequence[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < s.Len(); i++ {
			v, ok := s.at(i)
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// All ranges over the live elements of the container along with their slot index.
func (s *Sequence[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < s.Len(); i++ {
			v, ok := s.at(i)
			if !ok {
				continue
			}
			if !yield(i, v) {
				return
			}
		}
	}
}

// ToSlice returns the live elements of the container.
func (s *Sequence[T]) ToSlice() []T {
	var vs []T
	for v := range s.Values() {
		vs = append(vs, v)
	}
	return vs
}

// at reads the slot at index, reporting false when
// the index is out of range or the content fails the validity predicate.
func (s *Sequence[T]) at(index int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || len(s.slots) <= index {
		var zero T
		return zero, false
	}
	v := s.slots[index]
	return v, s.isValid(v)
}

// iterAt returns a container-bound cursor positioned at the given slot.
func (s *Sequence[T]) iterAt(index int) *Iterator[T] {
	return &Iterator[T]{seq: s, index: index, begin: 0, end: len(s.slots)}
}
