package tree

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xcoll/lib/infra"
)

// inorderValidate checks the binary search tree property and the length
// bookkeeping. The in-order values must be non-descending, which holds iff
// every left subtree is not greater and every right subtree is not less than
// its node. A right subtree may hold a value equal to its node after the
// successor of a node with two children is promoted.
func inorderValidate[T any](
	component string,
	cmp infra.Comparator[T],
	recorded int64,
	inorder func(visit func(T)),
) error {
	var (
		merr  error
		count int64
		prev  T
	)
	inorder(func(v T) {
		if count > 0 && cmp(prev, v) > 0 {
			merr = multierr.Append(merr, fmt.Errorf("[%s] order violation at %d: %v > %v",
				component, count, prev, v))
		}
		prev = v
		count++
	})
	if count != recorded {
		merr = multierr.Append(merr, fmt.Errorf("[%s] length violation: counted %d, recorded %d",
			component, count, recorded))
	}
	return merr
}
