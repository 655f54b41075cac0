package tokenization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/dataflow/pipeline"
)

func TestWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "hello world", []string{"hello", "world"}},
		{"runs of space", "  a \t b\nc  ", []string{"a", "b", "c"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Whitespace{}.Tokenize(tt.in)
			assert.ElementsMatch(t, tt.want, got)
			assert.Len(t, got, len(tt.want))
		})
	}
	assert.Equal(t, "a b c", Whitespace{}.Untokenize([]string{"a", "b", "c"}))
}

func TestAlphabet(t *testing.T) {
	assert.Equal(t, []string{"h", "é", "y"}, Alphabet{}.Tokenize("héy"))
	assert.Empty(t, Alphabet{}.Tokenize(""))
	assert.Equal(t, "héy", Alphabet{}.Untokenize(Alphabet{}.Tokenize("héy")))
}

func TestBatch(t *testing.T) {
	tokens := BatchTokenize(Whitespace{}, []string{"a b", "c"})
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, tokens)
	assert.Equal(t, []string{"a b", "c"}, BatchUntokenize(Whitespace{}, tokens))
}

func TestStage(t *testing.T) {
	ctx := context.Background()
	p := pipeline.Chain(
		pipeline.FromSlice([]string{"the cat", "sat"}),
		Stage(Whitespace{}),
	)
	got, err := pipeline.Pull(ctx, p, 10)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"the", "cat"}, {"sat"}}, got)
	assert.Zero(t, p.DataRemaining(0))

	back, err := UntokenizeStage(Alphabet{}).Process(ctx, [][]string{{"o", "k"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, back)
}
