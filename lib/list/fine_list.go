package list

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/benz9527/xcoll/lib/infra"
	"github.com/benz9527/xcoll/observability"
)

// References:
// Herlihy, Shavit, "The Art of Multiprocessor Programming", 9.5 Fine-grained synchronization.

type boundKind uint8

const (
	negativeBound boundKind = iota
	valueKind
	positiveBound
)

type fineListNode[T any] struct {
	lock sync.Mutex
	next *fineListNode[T]
	val  T
	kind boundKind
}

// compareTo orders the node against a value. The sentinels sort strictly
// outside of every value.
func (node *fineListNode[T]) compareTo(v T, cmp infra.Comparator[T]) int {
	switch node.kind {
	case negativeBound:
		return -1
	case positiveBound:
		return 1
	default:
	}
	return cmp(node.val, v)
}

// lockPair is the predecessor and current node held by a traversal.
// The next lock is always acquired before the predecessor lock is released.
type lockPair[T any] struct {
	pred, curr *fineListNode[T]
}

func newLockPair[T any](head *fineListNode[T]) *lockPair[T] {
	head.lock.Lock()
	curr := head.next
	curr.lock.Lock()
	return &lockPair[T]{pred: head, curr: curr}
}

func (p *lockPair[T]) advance() {
	next := p.curr.next
	next.lock.Lock()
	p.pred.lock.Unlock()
	p.pred, p.curr = p.curr, next
}

func (p *lockPair[T]) release() {
	p.curr.lock.Unlock()
	p.pred.lock.Unlock()
}

// FineList is a sorted singly linked list with a lock per node, traversed
// by lock coupling. It holds at most two node locks at any time.
//
//	head(-inf) -> 1 -> 2 -> 2 -> 5 -> tail(+inf)
type FineList[T any] struct {
	head     *fineListNode[T]
	len      atomic.Int64
	cmp      infra.Comparator[T]
	recorder observability.OpsRecorder
}

func NewFineList[T infra.OrderedKey](opts ...ListOption) *FineList[T] {
	return newFineList[T](infra.OrderedKeyCompare[T], opts...)
}

// NewFineListOf orders the values by their CompareTo.
func NewFineListOf[T infra.Comparable[T]](opts ...ListOption) *FineList[T] {
	return newFineList[T](infra.ComparableCompare[T], opts...)
}

func newFineList[T any](cmp infra.Comparator[T], opts ...ListOption) *FineList[T] {
	o := applyListOptions(FineListComponent, opts...)
	tail := &fineListNode[T]{kind: positiveBound}
	return &FineList[T]{
		head:     &fineListNode[T]{kind: negativeBound, next: tail},
		cmp:      cmp,
		recorder: o.recorder,
	}
}

// Add splices the value before the first node not less than it.
func (l *FineList[T]) Add(v T) {
	l.add(v)
	l.len.Add(1)
	l.recorder.RecordAdd()
}

func (l *FineList[T]) add(v T) {
	p := newLockPair(l.head)
	defer p.release()

	for p.curr.compareTo(v, l.cmp) < 0 {
		p.advance()
	}
	p.pred.next = &fineListNode[T]{
		next: p.curr,
		val:  v,
		kind: valueKind,
	}
}

// Remove unlinks the first node equal to v. The list is left unchanged if
// there is no such node, a diagnostic notice is emitted and
// infra.ErrNotFound is returned.
func (l *FineList[T]) Remove(v T) error {
	if !l.remove(v) {
		l.recorder.RecordNotFound(v)
		return fmt.Errorf("[%s] remove %v: %w", FineListComponent, v, infra.ErrNotFound)
	}
	l.len.Add(-1)
	l.recorder.RecordRemove()
	return nil
}

func (l *FineList[T]) remove(v T) bool {
	p := newLockPair(l.head)
	defer p.release()

	for p.curr.compareTo(v, l.cmp) < 0 {
		p.advance()
	}
	if p.curr.compareTo(v, l.cmp) != 0 {
		return false
	}
	removed := p.curr
	p.pred.next = removed.next
	removed.next = nil
	return true
}

func (l *FineList[T]) Len() int64 {
	return l.len.Load()
}

// Snapshot copies the values by a lock coupled traversal. It never observes
// a torn link, but concurrent updates behind or ahead of the traversal may
// or may not be reflected. Rendering is lock coupled as well, instead of
// walking the links without holding any lock.
func (l *FineList[T]) Snapshot() []T {
	values := make([]T, 0, max(l.len.Load(), 0))
	p := newLockPair(l.head)
	defer p.release()

	for p.curr.kind == valueKind {
		values = append(values, p.curr.val)
		p.advance()
	}
	return values
}

func (l *FineList[T]) String() string {
	return infra.Render(l.Snapshot())
}

// Validate checks the sentinels, the ordering and the length bookkeeping.
// The result is exact only if there is no concurrent update.
func (l *FineList[T]) Validate() error {
	var merr error
	if l.head.kind != negativeBound {
		merr = multierr.Append(merr, fmt.Errorf("[%s] head is not the negative bound", FineListComponent))
	}

	p := newLockPair(l.head)
	var count int64
	for p.curr.kind == valueKind {
		count++
		if next := p.curr.next; next.kind == valueKind && l.cmp(p.curr.val, next.val) > 0 {
			merr = multierr.Append(merr, fmt.Errorf("[%s] order violation at %d: %v > %v",
				FineListComponent, count-1, p.curr.val, next.val))
		}
		p.advance()
	}
	if p.curr.kind != positiveBound || p.curr.next != nil {
		merr = multierr.Append(merr, fmt.Errorf("[%s] tail is not the positive bound", FineListComponent))
	}
	p.release()

	if recorded := l.len.Load(); count != recorded {
		merr = multierr.Append(merr, fmt.Errorf("[%s] length violation: counted %d, recorded %d",
			FineListComponent, count, recorded))
	}
	return merr
}
