package tokenization

import (
	"strings"

	"github.com/kbukum/dataflow/pipeline"
)

// Tokenizer converts between a string and its tokens.
type Tokenizer interface {
	Tokenize(s string) []string
	Untokenize(tokens []string) string
}

// Whitespace splits on runs of Unicode white space. Untokenize joins with a
// single space, so it is the inverse of Tokenize only for normalized text.
type Whitespace struct{}

func (Whitespace) Tokenize(s string) []string { return strings.Fields(s) }

func (Whitespace) Untokenize(tokens []string) string { return strings.Join(tokens, " ") }

// Alphabet splits a string into its characters. Invalid UTF-8 bytes become
// the replacement character.
type Alphabet struct{}

func (Alphabet) Tokenize(s string) []string {
	tokens := make([]string, 0, len(s))
	for _, r := range s {
		tokens = append(tokens, string(r))
	}
	return tokens
}

func (Alphabet) Untokenize(tokens []string) string { return strings.Join(tokens, "") }

// BatchTokenize tokenizes every string in order.
func BatchTokenize(t Tokenizer, strs []string) [][]string {
	out := make([][]string, len(strs))
	for i, s := range strs {
		out[i] = t.Tokenize(s)
	}
	return out
}

// BatchUntokenize joins every token list in order.
func BatchUntokenize(t Tokenizer, tokens [][]string) []string {
	out := make([]string, len(tokens))
	for i, toks := range tokens {
		out[i] = t.Untokenize(toks)
	}
	return out
}

// Stage tokenizes a slice of sentences.
func Stage(t Tokenizer) pipeline.Stage[[]string, [][]string] {
	return pipeline.MapFunc(t.Tokenize)
}

// UntokenizeStage joins a slice of token lists back into sentences.
func UntokenizeStage(t Tokenizer) pipeline.Stage[[][]string, []string] {
	return pipeline.MapFunc(t.Untokenize)
}
