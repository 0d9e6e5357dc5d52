package tree

import (
	"github.com/benz9527/xcoll/lib/infra"
	"github.com/benz9527/xcoll/observability"
)

// Note that both sorted trees are unbalanced binary search trees holding a
// multiset. A value equal to a node is inserted into its left subtree.

const (
	CoarseTreeComponent = "coarse-tree"
	FineTreeComponent   = "fine-tree"
)

var (
	_ infra.Sorted[int] = (*CoarseTree[int])(nil)
	_ infra.Sorted[int] = (*FineTree[int])(nil)
)

// Direction is the branch taken from a parent to reach a node.
type Direction int8

const (
	Left Direction = -1 + iota
	Root
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "Left"
	case Root:
		return "Root"
	case Right:
		return "Right"
	default:
	}
	return "Unknown"
}

type treeOptions struct {
	recorder observability.OpsRecorder
}

type TreeOption func(opts *treeOptions)

// WithTreeOpsRecorder replaces the default recorder, which only writes
// the not found diagnostics to stderr.
func WithTreeOpsRecorder(recorder observability.OpsRecorder) TreeOption {
	return func(opts *treeOptions) {
		opts.recorder = recorder
	}
}

func applyTreeOptions(component string, opts ...TreeOption) *treeOptions {
	o := &treeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.recorder == nil {
		o.recorder = observability.NewOpsRecorder(component)
	}
	return o
}
