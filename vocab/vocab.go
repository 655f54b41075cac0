package vocab

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/pipeline"
)

// Special tokens and their fixed indexes.
const (
	PadToken = "[PAD]"
	SosToken = "[SOS]"
	EosToken = "[EOS]"
	SepToken = "[SEP]"

	PadIndex = 0
	SosIndex = 1
	EosIndex = 2
	SepIndex = 3
)

// Vocab is an append-only token table. It is not safe for concurrent
// mutation; lookups on a vocab that is no longer modified are safe.
type Vocab struct {
	index  map[string]int
	tokens []string
}

// New returns a vocab holding only the special tokens.
func New() *Vocab {
	v := &Vocab{index: make(map[string]int)}
	v.Add(PadToken, SosToken, EosToken, SepToken)
	return v
}

// FromCorpus builds a vocab from tokenized sentences, assigning indexes in
// order of first appearance.
func FromCorpus(sentences [][]string) *Vocab {
	v := New()
	for _, s := range sentences {
		v.Add(s...)
	}
	return v
}

// Len returns the number of tokens, specials included.
func (v *Vocab) Len() int { return len(v.tokens) }

// Add appends tokens that are not yet present. Known tokens keep their index.
func (v *Vocab) Add(tokens ...string) {
	for _, tok := range tokens {
		if _, ok := v.index[tok]; ok {
			continue
		}
		v.index[tok] = len(v.tokens)
		v.tokens = append(v.tokens, tok)
	}
}

// Contains reports whether tok is in the vocab.
func (v *Vocab) Contains(tok string) bool {
	_, ok := v.index[tok]
	return ok
}

// Indexes maps tokens to their indexes.
func (v *Vocab) Indexes(tokens []string) ([]int, error) {
	out := make([]int, len(tokens))
	for i, tok := range tokens {
		idx, ok := v.index[tok]
		if !ok {
			return nil, errors.TokenNotFound(tok)
		}
		out[i] = idx
	}
	return out, nil
}

// Tokens maps indexes back to tokens.
func (v *Vocab) Tokens(indexes []int) ([]string, error) {
	out := make([]string, len(indexes))
	for i, idx := range indexes {
		if idx < 0 || idx >= len(v.tokens) {
			return nil, errors.IndexNotFound(idx, len(v.tokens))
		}
		out[i] = v.tokens[idx]
	}
	return out, nil
}

// BatchIndexes is Indexes over every sentence. It stops at the first failure.
func (v *Vocab) BatchIndexes(sentences [][]string) ([][]int, error) {
	out := make([][]int, len(sentences))
	for i, s := range sentences {
		idx, err := v.Indexes(s)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// BatchTokens is Tokens over every sentence. It stops at the first failure.
func (v *Vocab) BatchTokens(indexes [][]int) ([][]string, error) {
	out := make([][]string, len(indexes))
	for i, s := range indexes {
		toks, err := v.Tokens(s)
		if err != nil {
			return nil, err
		}
		out[i] = toks
	}
	return out, nil
}

// IndexStage looks up every tokenized sentence of a slice.
func (v *Vocab) IndexStage() pipeline.Stage[[][]string, [][]int] {
	return pipeline.Stateless(func(_ context.Context, in [][]string) ([][]int, error) {
		return v.BatchIndexes(in)
	})
}

// TokenStage maps every index sentence of a slice back to tokens.
func (v *Vocab) TokenStage() pipeline.Stage[[][]int, [][]string] {
	return pipeline.Stateless(func(_ context.Context, in [][]int) ([][]string, error) {
		return v.BatchTokens(in)
	})
}

// WriteFile stores the vocab as one token per line in index order.
func (v *Vocab) WriteFile(fs afero.Fs, path string) error {
	f, err := fs.Create(path)
	if err != nil {
		return errors.IO("create", path, err)
	}
	w := bufio.NewWriter(f)
	for _, tok := range v.tokens {
		if _, err := fmt.Fprintln(w, tok); err != nil {
			f.Close()
			return errors.IO("write", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.IO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.IO("write", path, err)
	}
	return nil
}

// ReadFile loads a vocab written by WriteFile. The file must start with the
// special tokens in their fixed order.
func ReadFile(fs afero.Fs, path string) (*Vocab, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.IO("open", path, err)
	}
	defer f.Close()

	v := &Vocab{index: make(map[string]int)}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		tok := strings.TrimRight(sc.Text(), "\r")
		if tok == "" {
			continue
		}
		v.Add(tok)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.IO("read", path, err)
	}

	for i, want := range []string{PadToken, SosToken, EosToken, SepToken} {
		if i >= len(v.tokens) || v.tokens[i] != want {
			return nil, errors.New(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("vocab %s: expected %s at index %d", path, want, i))
		}
	}
	return v, nil
}
