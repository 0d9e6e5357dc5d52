package stress

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/benz9527/xcoll/lib/infra"
	"github.com/benz9527/xcoll/lib/list"
	"github.com/benz9527/xcoll/lib/tree"
	"github.com/benz9527/xcoll/observability"
)

// Kind selects the sorted container under stress.
type Kind uint8

const (
	CoarseList Kind = iota
	CoarseTree
	FineList
	FineTree
	_kindMax
)

var kindNames = [_kindMax]string{
	CoarseList: list.CoarseListComponent,
	CoarseTree: tree.CoarseTreeComponent,
	FineList:   list.FineListComponent,
	FineTree:   tree.FineTreeComponent,
}

func (k Kind) String() string {
	if k >= _kindMax {
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
	return kindNames[k]
}

func ParseKind(name string) (Kind, error) {
	idx := lo.IndexOf(kindNames[:], strings.ToLower(strings.TrimSpace(name)))
	if idx < 0 {
		return _kindMax, infra.NewErrorStack(fmt.Sprintf("[stress] unknown container kind %q, expected one of %s",
			name, strings.Join(kindNames[:], "|")))
	}
	return Kind(idx), nil
}

func KindNames() []string {
	return append([]string(nil), kindNames[:]...)
}

type container interface {
	infra.Sorted[int]
	Validate() error
}

func newContainer(kind Kind, recorder observability.OpsRecorder) container {
	switch kind {
	case CoarseList:
		return list.NewCoarseList[int](list.WithListOpsRecorder(recorder))
	case CoarseTree:
		return tree.NewCoarseTree[int](tree.WithTreeOpsRecorder(recorder))
	case FineList:
		return list.NewFineList[int](list.WithListOpsRecorder(recorder))
	case FineTree:
		return tree.NewFineTree[int](tree.WithTreeOpsRecorder(recorder))
	default:
	}
	panic( /* debug assertion */ "[stress] unknown container kind")
}
