package list

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/benz9527/xcoll/lib/infra"
	"github.com/benz9527/xcoll/observability"
)

type coarseListNode[T any] struct {
	next *coarseListNode[T]
	val  T
}

// CoarseList is a sorted singly linked list guarded by a single mutex.
// Every operation runs in the critical section of the whole list.
type CoarseList[T any] struct {
	lock     sync.Mutex
	head     *coarseListNode[T]
	len      int64
	cmp      infra.Comparator[T]
	recorder observability.OpsRecorder
}

func NewCoarseList[T infra.OrderedKey](opts ...ListOption) *CoarseList[T] {
	return newCoarseList[T](infra.OrderedKeyCompare[T], opts...)
}

// NewCoarseListOf orders the values by their CompareTo.
func NewCoarseListOf[T infra.Comparable[T]](opts ...ListOption) *CoarseList[T] {
	return newCoarseList[T](infra.ComparableCompare[T], opts...)
}

func newCoarseList[T any](cmp infra.Comparator[T], opts ...ListOption) *CoarseList[T] {
	o := applyListOptions(CoarseListComponent, opts...)
	return &CoarseList[T]{
		cmp:      cmp,
		recorder: o.recorder,
	}
}

func (l *CoarseList[T]) Add(v T) {
	l.lock.Lock()
	n := &coarseListNode[T]{val: v}
	if l.head == nil || l.cmp(v, l.head.val) <= 0 {
		n.next = l.head
		l.head = n
	} else {
		prev := l.head
		for prev.next != nil && l.cmp(prev.next.val, v) < 0 {
			prev = prev.next
		}
		n.next = prev.next
		prev.next = n
	}
	l.len++
	l.lock.Unlock()

	l.recorder.RecordAdd()
}

// Remove unlinks one node equal to v. The list is left unchanged if
// there is no such node, a diagnostic notice is emitted and
// infra.ErrNotFound is returned.
func (l *CoarseList[T]) Remove(v T) error {
	if !l.remove(v) {
		l.recorder.RecordNotFound(v)
		return fmt.Errorf("[%s] remove %v: %w", CoarseListComponent, v, infra.ErrNotFound)
	}
	l.recorder.RecordRemove()
	return nil
}

func (l *CoarseList[T]) remove(v T) bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	var prev *coarseListNode[T]
	curr := l.head
	for curr != nil && l.cmp(curr.val, v) < 0 {
		prev, curr = curr, curr.next
	}
	if curr == nil || l.cmp(curr.val, v) != 0 {
		return false
	}

	if prev == nil {
		l.head = curr.next
	} else {
		prev.next = curr.next
	}
	curr.next = nil
	l.len--
	return true
}

func (l *CoarseList[T]) Len() int64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.len
}

// Snapshot copies the values in order within one critical section.
func (l *CoarseList[T]) Snapshot() []T {
	l.lock.Lock()
	defer l.lock.Unlock()

	values := make([]T, 0, l.len)
	for aux := l.head; aux != nil; aux = aux.next {
		values = append(values, aux.val)
	}
	return values
}

func (l *CoarseList[T]) String() string {
	return infra.Render(l.Snapshot())
}

// Validate checks the ordering and the length bookkeeping.
func (l *CoarseList[T]) Validate() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	var (
		merr  error
		count int64
	)
	for aux := l.head; aux != nil; aux = aux.next {
		count++
		if aux.next != nil && l.cmp(aux.val, aux.next.val) > 0 {
			merr = multierr.Append(merr, fmt.Errorf("[%s] order violation at %d: %v > %v",
				CoarseListComponent, count-1, aux.val, aux.next.val))
		}
	}
	if count != l.len {
		merr = multierr.Append(merr, fmt.Errorf("[%s] length violation: counted %d, recorded %d",
			CoarseListComponent, count, l.len))
	}
	return merr
}
