// Package ds contains common interfaces to express datastruct behaviours.
package ds

import "iter"

type Len interface {
	Len() int
}

type Appendable[T any] interface {
	Append(vs ...T)
}

type Containable[T any] interface {
	Contains(v T) bool
}

type Values[T any] interface {
	Values() iter.Seq[T]
}

type All[K, V any] interface {
	All() iter.Seq2[K, V]
}

type SliceConvertable[T any] interface {
	ToSlice() []T
}

type ReadOnlySequence[T any] interface {
	Values[T]
	Len
	Lookup(index int) (T, bool)
}
