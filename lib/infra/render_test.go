package infra

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	require.Equal(t, "[]", Render[int](nil))
	require.Equal(t, "[5]", Render([]int{5}))
	require.Equal(t, "[1, 2, 2, 5]", Render([]int{1, 2, 2, 5}))
	require.Equal(t, "[a, b]", Render([]string{"a", "b"}))
}
