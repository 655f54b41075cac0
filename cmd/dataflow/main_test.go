package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/dataflow/dataloader"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/pipeline"
	"github.com/kbukum/dataflow/util"
	"github.com/kbukum/dataflow/vocab"
)

const corpus = "the cat sat\non the mat\na dog\nthe dog sat on the cat\n"

func memCorpus(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/corpus.txt", []byte(corpus), 0o644))
	return fs
}

func testConfig() *Config {
	cfg := &Config{
		Loader: dataloader.Config{ShuffleBlocks: util.Ptr(false), LoadBlockSize: 2, BufferSize: 2},
		Pipeline: PipelineConfig{
			Corpus:    []string{"/data/corpus.txt"},
			BatchSize: 2,
			Pad:       true,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestConfig_Defaults(t *testing.T) {
	cfg := &Config{Pipeline: PipelineConfig{Corpus: []string{"x"}}}
	cfg.ApplyDefaults()
	assert.Equal(t, serviceName, cfg.Name)
	assert.Equal(t, "whitespace", cfg.Pipeline.Tokenizer)
	assert.Equal(t, 32, cfg.Pipeline.BatchSize)
	assert.Equal(t, 1, cfg.Pipeline.Epochs)
	assert.Equal(t, dataloader.DefaultBufferSize, cfg.Loader.BufferSize)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.pipeline")

	cfg.Pipeline.Corpus = []string{"x"}
	cfg.Pipeline.Tokenizer = "bpe"
	assert.Error(t, cfg.Validate())
}

func TestLoadVocab(t *testing.T) {
	ctx := context.Background()
	fs := memCorpus(t)
	cfg := testConfig()
	cfg.Pipeline.Vocab = "/data/vocab.txt"

	v, err := loadVocab(ctx, fs, &cfg.Pipeline, newTokenizer("whitespace"))
	require.NoError(t, err)
	assert.Equal(t, 4+7, v.Len())

	exists, err := afero.Exists(fs, "/data/vocab.txt")
	require.NoError(t, err)
	assert.True(t, exists, "vocab should have been written")

	again, err := loadVocab(ctx, fs, &cfg.Pipeline, newTokenizer("whitespace"))
	require.NoError(t, err)
	assert.Equal(t, v.Len(), again.Len())
}

func TestBuildPipeline(t *testing.T) {
	ctx := context.Background()
	fs := memCorpus(t)
	cfg := testConfig()

	v, err := loadVocab(ctx, fs, &cfg.Pipeline, newTokenizer("whitespace"))
	require.NoError(t, err)
	p, err := buildPipeline(fs, cfg, v, logger.Nop(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.DataRemaining(0))

	batches, err := pipeline.Pull(ctx, p, 4)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	// Sorted by length, so the short sentences share the first batch.
	short := append(indexesOf(t, v, "a dog"), vocab.PadIndex)
	assert.Equal(t, [][]int{short, indexesOf(t, v, "the cat sat")}, batches[0])
	assert.Len(t, batches[1][0], 6, "short sentence should be padded")
	assert.Equal(t, vocab.PadIndex, batches[1][0][5])
	assert.Equal(t, indexesOf(t, v, "the dog sat on the cat"), batches[1][1])
}

func indexesOf(t *testing.T, v *vocab.Vocab, s string) []int {
	t.Helper()
	idx, err := v.Indexes(strings.Fields(s))
	require.NoError(t, err)
	return idx
}

func TestRun(t *testing.T) {
	fs := memCorpus(t)
	args := []string{
		"--corpus", "/data/corpus.txt",
		"--batch-size", "3",
		"--block-size", "2",
		"--epochs", "2",
		"--max-len", "5",
		"--pad",
		"--log-level", "disabled",
	}
	require.NoError(t, run(context.Background(), args, fs, &bytes.Buffer{}))
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--version"}, afero.NewMemMapFs(), &out))
	assert.NotEmpty(t, strings.TrimSpace(out.String()))
}

func TestRun_MissingCorpus(t *testing.T) {
	err := run(context.Background(), []string{"--log-level", "disabled"}, afero.NewMemMapFs(), &bytes.Buffer{})
	require.Error(t, err)
}
