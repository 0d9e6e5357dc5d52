package infra

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type version struct {
	major, minor int
}

func (v version) CompareTo(that version) int {
	if v.major != that.major {
		return v.major - that.major
	}
	return v.minor - that.minor
}

func TestOrderedKeyCompare(t *testing.T) {
	require.Negative(t, OrderedKeyCompare(1, 2))
	require.Zero(t, OrderedKeyCompare("abc", "abc"))
	require.Positive(t, OrderedKeyCompare(uint8(9), uint8(3)))
	require.Negative(t, OrderedKeyCompare(math.NaN(), math.Inf(-1)))
}

func TestComparableCompare(t *testing.T) {
	testcases := []struct {
		name string
		i, j version
		sign int
	}{
		{"major less", version{1, 9}, version{2, 0}, -1},
		{"minor greater", version{2, 3}, version{2, 1}, 1},
		{"equal", version{3, 3}, version{3, 3}, 0},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			res := ComparableCompare(tc.i, tc.j)
			switch tc.sign {
			case -1:
				require.Negative(tt, res)
			case 1:
				require.Positive(tt, res)
			default:
				require.Zero(tt, res)
			}
		})
	}
}
