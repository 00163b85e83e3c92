package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPagesByIndex(t *testing.T) {
	d := Document{Pages: []Page{{Index: 1, Key: "a"}, {Index: 2, Key: "b"}, {Index: 3, Key: "c"}}}
	pages, missing := d.PagesByIndex([]int{3, 1, 9})
	require.Len(t, pages, 2)
	require.Equal(t, "c", pages[0].Key)
	require.Equal(t, "a", pages[1].Key)
	require.Equal(t, []int{9}, missing)
}

func TestPageIndexes(t *testing.T) {
	a := Analysis{Pages: JoinPageIndexes([]int{2, 5, 7})}
	require.Equal(t, "2,5,7", a.Pages)
	require.Equal(t, []int{2, 5, 7}, a.PageIndexes())
	require.Nil(t, (&Analysis{}).PageIndexes())
}

func TestFinished(t *testing.T) {
	require.True(t, (&Analysis{Status: AnalysisStatusFailed.String()}).Finished())
	require.False(t, (&Analysis{Status: AnalysisStatusQueued.String()}).Finished())
}
