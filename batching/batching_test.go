package batching

import (
	"context"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/dataflow/errors"
)

func TestPadMask(t *testing.T) {
	batch := [][]string{{"d", "hello", "how"}, {"hi", "yo", "PAD"}}
	assert.Equal(t, [][]bool{{false, false, false}, {false, false, true}}, PadMask(batch, "PAD"))
}

func TestPadBatch(t *testing.T) {
	seqs := [][]int{{1, 2, 3, 1}, {1, 4, 6, 2, 3, 5, 67}}
	got := PadBatch(seqs, 0)
	assert.Equal(t, [][]int{{1, 2, 3, 1, 0, 0, 0}, {1, 4, 6, 2, 3, 5, 67}}, got)
	assert.Empty(t, PadBatch([][]int{}, 0))
}

func TestFilterByLength(t *testing.T) {
	seqs := [][][]int{
		{{1, 2, 3, 1}, {1, 4, 6, 2, 3, 5, 67}, {1, 2, 3}},
		{{1, 1}, {1, 67}, {1, 2, 3}},
	}
	got, err := FilterByLength(seqs, nil, Bound(6))
	require.NoError(t, err)
	assert.Equal(t, [][][]int{
		{{1, 2, 3, 1}, {1, 2, 3}},
		{{1, 1}, {1, 2, 3}},
	}, got)
}

func TestFilterByLength_AnyListRemovesRow(t *testing.T) {
	seqs := [][][]int{
		{{1}, {1, 2}, {1, 2, 3}},
		{{1, 2, 3, 4}, {1}, {1, 2}},
	}
	got, err := FilterByLength(seqs, Bound(2), Bound(3))
	require.NoError(t, err)
	assert.Equal(t, [][][]int{{{1, 2, 3}}, {{1, 2}}}, got)
}

func TestFilterBy_Unbounded(t *testing.T) {
	lists := [][]string{{"a", "bb"}, {"ccc", ""}}
	got, err := FilterBy(lists, func(s string) int { return len(s) }, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, lists, got)
}

func TestSortListsBy(t *testing.T) {
	strlen := func(s string) int { return len(s) }

	seqs := [][]string{{"hello", "how are you", "yo"}, {"hey", "wow", "who"}}
	require.NoError(t, SortListsBy(seqs, strlen, false))
	assert.Equal(t, [][]string{{"yo", "hello", "how are you"}, {"who", "hey", "wow"}}, seqs)

	seqs = [][]string{{"hello", "how are you", "yo"}, {"hey", "wow", "who"}}
	require.NoError(t, SortListsBy(seqs, strlen, true))
	assert.Equal(t, [][]string{{"how are you", "hello", "yo"}, {"wow", "hey", "who"}}, seqs)
}

func TestSortListsByLength_TiesStable(t *testing.T) {
	seqs := [][][]int{
		{{1, 1}, {2}, {3, 3}, {4}},
		{{10}, {20}, {30}, {40}},
	}
	require.NoError(t, SortListsByLength(seqs, false))
	assert.Equal(t, [][]int{{2}, {4}, {1, 1}, {3, 3}}, seqs[0])
	assert.Equal(t, [][]int{{20}, {40}, {10}, {30}}, seqs[1])

	require.NoError(t, SortListsByLength(seqs, true))
	assert.Equal(t, [][]int{{1, 1}, {3, 3}, {2}, {4}}, seqs[0])
}

func TestShuffleLists_KeepsCorrespondence(t *testing.T) {
	ids := make([]int, 50)
	labels := make([]int, 50)
	for i := range ids {
		ids[i] = i
		labels[i] = i * 100
	}
	lists := [][]int{ids, labels}
	require.NoError(t, ShuffleLists(lists, rand.New(rand.NewPCG(1, 2))))

	assert.False(t, slices.IsSorted(lists[0]), "expected a new order")
	for i := range lists[0] {
		assert.Equal(t, lists[0][i]*100, lists[1][i])
	}
	sorted := slices.Sorted(slices.Values(lists[0]))
	for i, v := range sorted {
		require.Equal(t, i, v)
	}
}

func TestShuffleLists_NilRng(t *testing.T) {
	lists := [][]int{{1, 2, 3}, {4, 5, 6}}
	require.NoError(t, ShuffleLists(lists, nil))
	assert.ElementsMatch(t, []int{1, 2, 3}, lists[0])
}

func TestUnequalLists(t *testing.T) {
	lists := [][]int{{1, 2}, {1}}

	err := ShuffleLists(lists, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput), "got %v", err)

	err = SortListsBy(lists, func(int) int { return 0 }, false)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput), "got %v", err)

	_, err = FilterBy(lists, func(int) int { return 0 }, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestEmptyLists(t *testing.T) {
	assert.NoError(t, ShuffleLists[int](nil, nil))
	assert.NoError(t, SortListsByLength[[]int](nil, false))
	got, err := FilterByLength[[]int](nil, nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestStages(t *testing.T) {
	ctx := context.Background()

	padded, err := Pad(0).Process(ctx, [][]int{{1}, {1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 0, 0}, {1, 2, 3}}, padded)

	masked, err := Mask(0).Process(ctx, padded)
	require.NoError(t, err)
	assert.Equal(t, [][]bool{{false, true, true}, {false, false, false}}, masked.Second)

	kept, err := DropLongerThan[[]int](2).Process(ctx, [][]int{{1}, {1, 2, 3}, {1, 2}})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}, {1, 2}}, kept)
}
