package main

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"github.com/kbukum/dataflow/batching"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/observability"
	"github.com/kbukum/dataflow/pipeline"
	"github.com/kbukum/dataflow/tokenization"
	"github.com/kbukum/dataflow/util"
	"github.com/kbukum/dataflow/vocab"
)

// Batch is one padded batch of index sentences.
type Batch = [][]int

func newTokenizer(name string) tokenization.Tokenizer {
	if name == "alphabet" {
		return tokenization.Alphabet{}
	}
	return tokenization.Whitespace{}
}

func sourceOptions(cfg *PipelineConfig, seed uint64, shuffle bool) []pipeline.SourceOption {
	opts := []pipeline.SourceOption{pipeline.WithSourceName("corpus")}
	if cfg.Delimiter != "" {
		opts = append(opts, pipeline.WithDelimiter(cfg.Delimiter))
	}
	if shuffle {
		opts = append(opts, pipeline.WithShuffle())
		if seed != 0 {
			opts = append(opts, pipeline.WithShuffleSeed(seed))
		}
	}
	return opts
}

// loadVocab reads the configured vocab file, or builds one from a single
// ordered pass over the corpus.
func loadVocab(ctx context.Context, fs afero.Fs, cfg *PipelineConfig, tok tokenization.Tokenizer) (*vocab.Vocab, error) {
	if cfg.Vocab != "" {
		if ok, _ := afero.Exists(fs, cfg.Vocab); ok {
			return vocab.ReadFile(fs, cfg.Vocab)
		}
	}

	src, err := pipeline.Lines(fs, cfg.Corpus, sourceOptions(cfg, 0, false)...)
	if err != nil {
		return nil, err
	}
	p := pipeline.Chain(pipeline.WithRetry[[]pipeline.Unit, []string](src, cfg.Retry), tokenization.Stage(tok))
	sentences, err := pipeline.Pull(ctx, p, p.DataRemaining(0))
	if err != nil {
		return nil, err
	}
	v := vocab.FromCorpus(sentences)

	if cfg.Vocab != "" {
		if err := v.WriteFile(fs, cfg.Vocab); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// buildPipeline assembles
//
//	Lines (retried) -> tokenize -> drop long -> vocab lookup -> sort by length -> Batch -> pad
//
// and wraps it in tracing, logging and, when metrics is non-nil, metrics.
func buildPipeline(fs afero.Fs, cfg *Config, v *vocab.Vocab, log *logger.Logger, metrics *observability.Metrics) (pipeline.Stage[[]pipeline.Unit, []Batch], error) {
	pc := &cfg.Pipeline
	shuffle := util.DerefOr(cfg.Loader.ShuffleBlocks, true)
	src, err := pipeline.Lines(fs, pc.Corpus, sourceOptions(pc, cfg.Loader.Seed, shuffle)...)
	if err != nil {
		return nil, err
	}

	retry := pc.Retry
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("retrying corpus read", logger.Fields(
			"attempt", attempt,
			logger.FieldError, err.Error(),
			"backoff_ms", backoff.Milliseconds(),
		))
	}
	lines := pipeline.WithRetry[[]pipeline.Unit, []string](src, retry)

	filter := pipeline.Func(func(in [][]string) [][]string { return in })
	if pc.MaxLen > 0 {
		filter = batching.DropLongerThan[[]string](pc.MaxLen)
	}

	pad := pipeline.Func(func(in []Batch) []Batch { return in })
	if pc.Pad {
		pad = pipeline.Map(batching.Pad(vocab.PadIndex))
	}

	tokens := pipeline.Chain3(lines, tokenization.Stage(newTokenizer(pc.Tokenizer)), filter)
	indexes := pipeline.Chain3(tokens, v.IndexStage(), pipeline.SortByKey(func(s []int) int { return len(s) }))
	p := pipeline.Chain3(indexes, pipeline.Batch[[]int](pc.BatchSize), pad)

	var out pipeline.Stage[[]pipeline.Unit, []Batch] = pipeline.WithTracing(p, "corpus")
	out = pipeline.WithLogging(out, "corpus", log)
	if metrics != nil {
		out = pipeline.WithMetrics(out, "corpus", metrics)
	}
	return out, nil
}
