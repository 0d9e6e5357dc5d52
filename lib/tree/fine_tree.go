package tree

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/benz9527/xcoll/lib/infra"
	"github.com/benz9527/xcoll/observability"
)

type fineTreeNode[T any] struct {
	lock        sync.Mutex
	left, right *fineTreeNode[T]
	val         T
	// The anchor holds no value, its left link is the root.
	isAnchor bool
}

func (node *fineTreeNode[T]) link(dir Direction) *fineTreeNode[T] {
	if dir == Left {
		return node.left
	}
	return node.right
}

func (node *fineTreeNode[T]) setLink(dir Direction, child *fineTreeNode[T]) {
	if dir == Left {
		node.left = child
		return
	}
	node.right = child
}

// lockWindow is the parent and child held by a traversal. The child lock
// is always acquired before the parent lock is released.
type lockWindow[T any] struct {
	parent, child *fineTreeNode[T]
}

func (w *lockWindow[T]) slide(next *fineTreeNode[T]) {
	next.lock.Lock()
	if w.parent != nil {
		w.parent.lock.Unlock()
	}
	w.parent, w.child = w.child, next
}

func (w *lockWindow[T]) releaseParent() {
	if w.parent != nil {
		w.parent.lock.Unlock()
		w.parent = nil
	}
}

func (w *lockWindow[T]) release() {
	if w.child != nil {
		w.child.lock.Unlock()
	}
	w.releaseParent()
	w.child = nil
}

// FineTree is a sorted binary search tree with a lock per node, traversed
// top-down by lock coupling from an anchor above the root.
//
//	anchor
//	  /
//	[5]
//	/  \
//	[3] [8]
type FineTree[T any] struct {
	anchor   *fineTreeNode[T]
	len      atomic.Int64
	cmp      infra.Comparator[T]
	recorder observability.OpsRecorder
}

func NewFineTree[T infra.OrderedKey](opts ...TreeOption) *FineTree[T] {
	return newFineTree[T](infra.OrderedKeyCompare[T], opts...)
}

// NewFineTreeOf orders the values by their CompareTo.
func NewFineTreeOf[T infra.Comparable[T]](opts ...TreeOption) *FineTree[T] {
	return newFineTree[T](infra.ComparableCompare[T], opts...)
}

func newFineTree[T any](cmp infra.Comparator[T], opts ...TreeOption) *FineTree[T] {
	o := applyTreeOptions(FineTreeComponent, opts...)
	return &FineTree[T]{
		anchor:   &fineTreeNode[T]{isAnchor: true},
		cmp:      cmp,
		recorder: o.recorder,
	}
}

func (t *FineTree[T]) branchOf(node *fineTreeNode[T], v T) Direction {
	if node.isAnchor || t.cmp(v, node.val) <= 0 {
		return Left
	}
	return Right
}

func (t *FineTree[T]) Add(v T) {
	t.add(v)
	t.len.Add(1)
	t.recorder.RecordAdd()
}

func (t *FineTree[T]) add(v T) {
	w := &lockWindow[T]{}
	defer w.release()

	w.slide(t.anchor)
	for {
		dir := t.branchOf(w.child, v)
		next := w.child.link(dir)
		if next == nil {
			w.child.setLink(dir, &fineTreeNode[T]{val: v})
			return
		}
		w.slide(next)
	}
}

// Remove deletes one node equal to v. A node with two children takes the
// value of its in-order successor, which is unlinked instead. The tree is
// left unchanged if there is no such node, a diagnostic notice is emitted
// and infra.ErrNotFound is returned.
func (t *FineTree[T]) Remove(v T) error {
	if !t.remove(v) {
		t.recorder.RecordNotFound(v)
		return fmt.Errorf("[%s] remove %v: %w", FineTreeComponent, v, infra.ErrNotFound)
	}
	t.len.Add(-1)
	t.recorder.RecordRemove()
	return nil
}

func (t *FineTree[T]) remove(v T) bool {
	w := &lockWindow[T]{}
	defer w.release()

	w.slide(t.anchor)
	dir := Left
	for {
		next := w.child.link(dir)
		if next == nil {
			return false
		}
		w.slide(next)
		res := t.cmp(v, next.val)
		if res == 0 {
			break
		}
		if res < 0 {
			dir = Left
		} else {
			dir = Right
		}
	}

	target := w.child
	if target.left == nil || target.right == nil {
		child := target.left
		if child == nil {
			child = target.right
		}
		w.parent.setLink(dir, child)
		target.left, target.right = nil, nil
		return true
	}

	// The target stays locked until its successor is relinked.
	w.releaseParent()
	s := &lockWindow[T]{}
	defer s.release()

	s.slide(target.right)
	for s.child.left != nil {
		s.slide(s.child.left)
	}
	succ := s.child
	if s.parent == nil {
		target.right = succ.right
	} else {
		s.parent.left = succ.right
	}
	target.val = succ.val
	succ.right = nil
	return true
}

func (t *FineTree[T]) Len() int64 {
	return t.len.Load()
}

// inorder holds the anchor so that no update starts during the traversal.
// The locks from the root down to the visited node are held, so the updates
// already past the anchor never tear the visited path. Rendering and
// validation go through here instead of reading the links unlocked.
func (t *FineTree[T]) inorder(visit func(T)) {
	t.anchor.lock.Lock()
	defer t.anchor.lock.Unlock()

	stack := make([]*fineTreeNode[T], 0, 16)
	defer func() {
		for i := len(stack) - 1; i >= 0; i-- {
			stack[i].lock.Unlock()
		}
	}()
	pushLeftSpine := func(aux *fineTreeNode[T]) {
		for ; aux != nil; aux = aux.left {
			aux.lock.Lock()
			stack = append(stack, aux)
		}
	}

	pushLeftSpine(t.anchor.left)
	for len(stack) > 0 {
		aux := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(aux.val)
		pushLeftSpine(aux.right)
		aux.lock.Unlock()
	}
}

func (t *FineTree[T]) Snapshot() []T {
	values := make([]T, 0, max(t.len.Load(), 0))
	t.inorder(func(v T) {
		values = append(values, v)
	})
	return values
}

func (t *FineTree[T]) String() string {
	return infra.Render(t.Snapshot())
}

// Validate checks the anchor, the ordering and the length bookkeeping.
// The result is exact only if there is no concurrent update.
func (t *FineTree[T]) Validate() error {
	var merr error
	t.anchor.lock.Lock()
	if !t.anchor.isAnchor || t.anchor.right != nil {
		merr = multierr.Append(merr, fmt.Errorf("[%s] anchor violation", FineTreeComponent))
	}
	t.anchor.lock.Unlock()

	return multierr.Append(merr, inorderValidate(FineTreeComponent, t.cmp, t.len.Load(), t.inorder))
}
