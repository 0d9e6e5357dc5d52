package infra

import "cmp"

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Integer is a constraint that permits any integer type.
type Integer interface {
	Signed | Unsigned
}

// Float is a constraint that permits any floating-point type.
type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// Comparable is the natural ordering contract of user defined elements.
// CompareTo returns a negative number if the receiver orders before that,
// zero if both are equal and a positive number otherwise.
// The ordering must be total.
type Comparable[T any] interface {
	CompareTo(that T) int
}

// Comparator
// Assume i is the new element.
//  1. i == j, return 0
//  2. i > j, return positive, turn to right part.
//  3. i < j, return negative, turn to left part.
type Comparator[T any] func(i, j T) int

// OrderedKeyCompare is the natural ordering of builtin ordered keys.
// NaN is ordered before any other float, as cmp.Compare does.
func OrderedKeyCompare[K OrderedKey](i, j K) int {
	return cmp.Compare(i, j)
}

// ComparableCompare is the natural ordering of Comparable elements.
func ComparableCompare[T Comparable[T]](i, j T) int {
	return i.CompareTo(j)
}
