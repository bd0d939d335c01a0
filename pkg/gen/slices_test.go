package gen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeleteFromSliceUnordered(t *testing.T) {
	s := []int{1, 2, 3, 4}
	s = DeleteFromSliceUnordered(s, 1)
	require.ElementsMatch(t, []int{1, 4, 3}, s)
	s = DeleteFromSliceUnordered(s, 2)
	require.ElementsMatch(t, []int{1, 4}, s)
	s = DeleteFromSliceUnordered(s, 0)
	s = DeleteFromSliceUnordered(s, 0)
	require.Empty(t, s)
}
