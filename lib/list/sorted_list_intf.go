package list

import (
	"github.com/benz9527/xcoll/lib/infra"
	"github.com/benz9527/xcoll/observability"
)

// Note that both sorted lists are multisets in non-descending order.
// Equal values are kept newest first.

const (
	CoarseListComponent = "coarse-list"
	FineListComponent   = "fine-list"
)

var (
	_ infra.Sorted[int] = (*CoarseList[int])(nil)
	_ infra.Sorted[int] = (*FineList[int])(nil)
)

type listOptions struct {
	recorder observability.OpsRecorder
}

type ListOption func(opts *listOptions)

// WithListOpsRecorder replaces the default recorder, which only writes
// the not found diagnostics to stderr.
func WithListOpsRecorder(recorder observability.OpsRecorder) ListOption {
	return func(opts *listOptions) {
		opts.recorder = recorder
	}
}

func applyListOptions(component string, opts ...ListOption) *listOptions {
	o := &listOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.recorder == nil {
		o.recorder = observability.NewOpsRecorder(component)
	}
	return o
}
