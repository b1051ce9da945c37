package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/imishinist/go-callbag"
	ext "github.com/imishinist/go-callbag/extension"
	"github.com/imishinist/go-callbag/flow"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML pipeline file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	zlog := zerolog.New(output).Level(cfg.Level).With().Timestamp().Logger()
	log := zerologr.New(&zlog).WithName("callbag-demo")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, log, cfg); err != nil {
		log.Error(err, "demo failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, log logr.Logger, cfg config) error {
	recorder := &callbag.ViolationRecorder{}

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range cfg.Pipelines {
		p := p
		g.Go(func() error {
			values, err := runPipeline(ctx, log.WithName(p.Name), cfg.Strict, recorder, p)
			if err != nil {
				return fmt.Errorf("pipeline %s: %w", p.Name, err)
			}
			log.Info("pipeline finished", "name", p.Name, "values", values)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return recorder.Err()
}

func runPipeline(ctx context.Context, log logr.Logger, strict bool, recorder *callbag.ViolationRecorder, p pipelineConfig) ([][]int, error) {
	caps := callbag.PushCapable | callbag.PullCapable
	if strict {
		caps = callbag.PullCapable
	}

	src := callbag.Guard(ext.FromSlice(p.Values),
		callbag.WithLogger(log),
		callbag.WithCapabilities(caps),
		callbag.WithViolationHandler(recorder.Handle),
	)
	if p.OnlyEven {
		src = flow.Filter[int](p.Name+"_even", func(v int) bool { return v%2 == 0 })(src)
	}
	if p.Take != nil {
		src = flow.Take[int](p.Name+"_take", uint64(*p.Take))(src)
	}
	src = flow.Map[int, int](p.Name+"_multiply", func(v int) int { return v * p.Multiply })(src)
	batched := callbag.Via(src, flow.Batch[int](p.Name+"_batch", p.BatchSize))

	collector := ext.NewCollector[[]int]()
	batched.Start(collector.Sink())
	return collector.Wait(ctx)
}
