package tree

import (
	"fmt"
	"sync"

	"github.com/benz9527/xcoll/lib/infra"
	"github.com/benz9527/xcoll/observability"
)

type coarseTreeNode[T any] struct {
	left, right *coarseTreeNode[T]
	val         T
}

// CoarseTree is a sorted binary search tree guarded by a single mutex.
type CoarseTree[T any] struct {
	lock     sync.Mutex
	root     *coarseTreeNode[T]
	len      int64
	cmp      infra.Comparator[T]
	recorder observability.OpsRecorder
}

func NewCoarseTree[T infra.OrderedKey](opts ...TreeOption) *CoarseTree[T] {
	return newCoarseTree[T](infra.OrderedKeyCompare[T], opts...)
}

// NewCoarseTreeOf orders the values by their CompareTo.
func NewCoarseTreeOf[T infra.Comparable[T]](opts ...TreeOption) *CoarseTree[T] {
	return newCoarseTree[T](infra.ComparableCompare[T], opts...)
}

func newCoarseTree[T any](cmp infra.Comparator[T], opts ...TreeOption) *CoarseTree[T] {
	o := applyTreeOptions(CoarseTreeComponent, opts...)
	return &CoarseTree[T]{
		cmp:      cmp,
		recorder: o.recorder,
	}
}

func (t *CoarseTree[T]) Add(v T) {
	t.lock.Lock()
	n := &coarseTreeNode[T]{val: v}
	if t.root == nil {
		t.root = n
	} else {
		for aux := t.root; ; {
			if t.cmp(v, aux.val) <= 0 {
				if aux.left == nil {
					aux.left = n
					break
				}
				aux = aux.left
			} else {
				if aux.right == nil {
					aux.right = n
					break
				}
				aux = aux.right
			}
		}
	}
	t.len++
	t.lock.Unlock()

	t.recorder.RecordAdd()
}

// Remove deletes one node equal to v. A node with two children takes the
// value of its in-order successor, which is unlinked instead. The tree is
// left unchanged if there is no such node, a diagnostic notice is emitted
// and infra.ErrNotFound is returned.
func (t *CoarseTree[T]) Remove(v T) error {
	if !t.remove(v) {
		t.recorder.RecordNotFound(v)
		return fmt.Errorf("[%s] remove %v: %w", CoarseTreeComponent, v, infra.ErrNotFound)
	}
	t.recorder.RecordRemove()
	return nil
}

func (t *CoarseTree[T]) remove(v T) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	var (
		parent *coarseTreeNode[T]
		dir    = Root
		aux    = t.root
	)
	for aux != nil {
		res := t.cmp(v, aux.val)
		if res == 0 {
			break
		}
		parent = aux
		if res < 0 {
			dir, aux = Left, aux.left
		} else {
			dir, aux = Right, aux.right
		}
	}
	if aux == nil {
		return false
	}

	if aux.left != nil && aux.right != nil {
		succParent, succDir, succ := aux, Right, aux.right
		for succ.left != nil {
			succParent, succDir, succ = succ, Left, succ.left
		}
		aux.val = succ.val
		t.relink(succParent, succDir, succ.right)
		succ.right = nil
	} else {
		child := aux.left
		if child == nil {
			child = aux.right
		}
		t.relink(parent, dir, child)
		aux.left, aux.right = nil, nil
	}
	t.len--
	return true
}

func (t *CoarseTree[T]) relink(parent *coarseTreeNode[T], dir Direction, child *coarseTreeNode[T]) {
	switch dir {
	case Root:
		t.root = child
	case Left:
		parent.left = child
	case Right:
		parent.right = child
	default:
		panic( /* debug assertion */ "[coarse-tree] unknown direction")
	}
}

func (t *CoarseTree[T]) Len() int64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.len
}

// Snapshot copies the values by an in-order traversal within one critical
// section.
func (t *CoarseTree[T]) Snapshot() []T {
	t.lock.Lock()
	defer t.lock.Unlock()

	values := make([]T, 0, t.len)
	stack := make([]*coarseTreeNode[T], 0, 16)
	defer func() {
		clear(stack)
	}()

	for aux := t.root; aux != nil || len(stack) > 0; aux = aux.right {
		for ; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
		aux = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		values = append(values, aux.val)
	}
	return values
}

func (t *CoarseTree[T]) String() string {
	return infra.Render(t.Snapshot())
}

// Validate checks the ordering and the length bookkeeping.
func (t *CoarseTree[T]) Validate() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	return inorderValidate(CoarseTreeComponent, t.cmp, t.len, func(visit func(T)) {
		stack := make([]*coarseTreeNode[T], 0, 16)
		for aux := t.root; aux != nil || len(stack) > 0; aux = aux.right {
			for ; aux != nil; aux = aux.left {
				stack = append(stack, aux)
			}
			aux = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			visit(aux.val)
		}
	})
}
