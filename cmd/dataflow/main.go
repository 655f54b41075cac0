// Command dataflow drives a text corpus through a tokenize, index and batch
// pipeline using a prefetching loader, and logs what every epoch produced.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/kbukum/dataflow/config"
	"github.com/kbukum/dataflow/dataloader"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/observability"
	"github.com/kbukum/dataflow/util"
	"github.com/kbukum/dataflow/version"
)

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"pipeline.corpus":        "corpus",
	"pipeline.tokenizer":     "tokenizer",
	"pipeline.vocab":         "vocab",
	"pipeline.batch_size":    "batch-size",
	"pipeline.max_len":       "max-len",
	"pipeline.pad":           "pad",
	"pipeline.epochs":        "epochs",
	"loader.load_block_size": "block-size",
	"loader.buffer_size":     "buffer-size",
	"loader.seed":            "seed",
	"logging.level":          "log-level",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], afero.NewOsFs(), os.Stdout)
	stop()
	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "dataflow: %s\n", err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flags.String("config", "", "path to a config file")
	flags.String("env-file", "", "path to a .env file")
	flags.StringSlice("corpus", nil, "corpus file (repeatable)")
	flags.String("tokenizer", "", "tokenizer: whitespace or alphabet")
	flags.String("vocab", "", "vocab file to read, or to write when it does not exist")
	flags.Int("batch-size", 0, "sentences per batch")
	flags.Int("max-len", 0, "drop sentences with more tokens (0 keeps all)")
	flags.Bool("pad", false, "pad batches to their longest sentence")
	flags.Int("epochs", 0, "epochs to run")
	flags.Int("block-size", 0, "items requested per background load")
	flags.Int("buffer-size", 0, "ready-queue depth")
	flags.Uint64("seed", 0, "shuffle seed (0 picks one)")
	flags.String("log-level", "", "log level")
	flags.Bool("version", false, "print version information and exit")
	return flags
}

func run(ctx context.Context, args []string, fs afero.Fs, stdout io.Writer) error {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return err
	}
	if showVersion, _ := flags.GetBool("version"); showVersion {
		fmt.Fprintln(stdout, version.Get().String())
		return nil
	}

	configFile, _ := flags.GetString("config")
	envFile, _ := flags.GetString("env-file")
	cfg, err := config.Load[Config](serviceName,
		config.WithFs(fs),
		config.WithConfigFile(configFile),
		config.WithEnvFile(envFile),
		config.WithFlags(flags, flagKeys),
	)
	if err != nil {
		return err
	}
	cfg.Version = util.Coalesce(cfg.Version, version.Get().Version)

	logger.Init(cfg.Logging, cfg.Name)
	log := logger.WithComponent("cli")
	log.Info("starting", version.Get().Fields())

	var metrics *observability.Metrics
	if cfg.Telemetry.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.TracerConfig())
		if err != nil {
			return err
		}
		defer shutdown(log, "tracer", tp.Shutdown)

		mp, err := observability.InitMeter(ctx, cfg.MeterConfig())
		if err != nil {
			return err
		}
		defer shutdown(log, "meter", mp.Shutdown)

		if metrics, err = observability.NewMetrics(observability.Meter(serviceName)); err != nil {
			return err
		}
	}

	v, err := loadVocab(ctx, fs, &cfg.Pipeline, newTokenizer(cfg.Pipeline.Tokenizer))
	if err != nil {
		return err
	}
	log.Info("vocab ready", logger.Fields("tokens", v.Len()))

	p, err := buildPipeline(fs, cfg, v, log, metrics)
	if err != nil {
		return err
	}

	opts := []dataloader.Option{
		dataloader.WithConfig(cfg.Loader),
		dataloader.WithLogger(log),
	}
	if metrics != nil {
		opts = append(opts, dataloader.WithMetrics(metrics))
	}
	loader, err := dataloader.New(p, opts...)
	if err != nil {
		return err
	}

	runErr := runEpochs(ctx, loader, cfg.Pipeline.Epochs, log)
	closeErr := loader.Close()

	health := observability.NewServiceHealth(cfg.Name, cfg.Version).Check(ctx, loader)
	log.Info("finished", logger.Fields("status", string(health.Status)))

	return errors.Join(runErr, closeErr)
}

// epochStats summarizes what one epoch delivered.
type epochStats struct {
	Batches   int
	Sentences int
	Tokens    int
	Longest   int
}

func runEpochs(ctx context.Context, loader *dataloader.Loader[Batch], epochs int, log *logger.Logger) error {
	for epoch := range epochs {
		total, err := loader.Len(ctx)
		if err != nil {
			return err
		}

		var stats epochStats
		for batch, err := range loader.Epoch(ctx) {
			if err != nil {
				return err
			}
			stats.add(batch)
		}

		log.Info("epoch done", logger.Fields(
			logger.FieldEpoch, epoch,
			"expected_batches", total,
			"batches", stats.Batches,
			"sentences", stats.Sentences,
			"tokens", stats.Tokens,
			"longest", stats.Longest,
		))
	}
	return nil
}

func (s *epochStats) add(batch Batch) {
	s.Batches++
	s.Sentences += len(batch)
	for _, sentence := range batch {
		s.Tokens += len(sentence)
		s.Longest = max(s.Longest, len(sentence))
	}
}

func shutdown(log *logger.Logger, what string, fn func(context.Context) error) {
	if err := fn(context.Background()); err != nil {
		log.Warn("shutdown failed", logger.ErrorFields(what, err))
	}
}
