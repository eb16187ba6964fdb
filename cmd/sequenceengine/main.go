// Command sequenceengine loads a control-flow graph from a .seq.hcl file or
// directory and runs it to completion, mirroring the shape of the teacher's
// cmd/cli entrypoint: a thin main that hands off to a testable run function.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/sequenceengine/internal/config"
	"github.com/vk/sequenceengine/internal/ctxlog"
	"github.com/vk/sequenceengine/internal/funcreg"
	"github.com/vk/sequenceengine/internal/graph"
	"github.com/vk/sequenceengine/internal/health"
	"github.com/vk/sequenceengine/internal/hclseq"
	"github.com/vk/sequenceengine/internal/metrics"
	"github.com/vk/sequenceengine/internal/runner"

	"github.com/vk/sequenceengine/modules/env_vars"
	"github.com/vk/sequenceengine/modules/httpfunc"
	"github.com/vk/sequenceengine/modules/print"
	"github.com/vk/sequenceengine/modules/socketio"
)

// coreModules is the set of function packages linked into this binary,
// mirroring the teacher's app.coreModules registration list.
var coreModules = []funcreg.Module{
	print.Module{},
	env_vars.Module{},
	httpfunc.Module{},
	socketio.Module{},
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(context.Background(), os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*config.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// run encapsulates the application logic for easier testing and error
// handling, mirroring the teacher's cmd/cli.run.
func run(ctx context.Context, outW io.Writer, args []string) error {
	cfg, shouldExit, err := config.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := config.NewLogger(cfg, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)

	var healthServer *health.Server
	if cfg.HealthcheckPort > 0 {
		healthServer = health.Start(logger, cfg.HealthcheckPort, registry)
		defer healthServer.Close(context.Background())
	}

	logger.Debug("reading sequence source", "path", cfg.SequencePath)
	source, err := hclseq.New().ReadPath(ctx, cfg.SequencePath)
	if err != nil {
		return fmt.Errorf("failed to read sequence: %w", err)
	}

	g, err := graph.Build(source)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	logger.Debug("graph built", "node_count", g.NodeCount())

	funcs := funcreg.New()
	funcs.Load(coreModules...)
	logger.Debug("function modules registered", "count", len(coreModules))

	r := runner.New(g, funcs, funcs, nil, runner.Options{
		Workers:        cfg.Workers,
		DefaultTimeout: cfg.DefaultTimeout,
		DrainDeadline:  cfg.DrainDeadline,
		Logger:         logger,
		Metrics:        collector,
	})

	logger.Info("starting run")
	outcome := r.Run(ctx)
	logger.Info("run finished", "status", outcome.Status.String())

	switch outcome.Status {
	case runner.StatusCompleted:
		return nil
	case runner.StatusTestFailed:
		for _, f := range outcome.FailedTests {
			logger.Error("test node failed", "node", f.NID)
		}
		return &config.ExitError{Code: 1, Message: fmt.Sprintf("%d test node(s) failed", len(outcome.FailedTests))}
	default:
		msg := "run failed"
		if outcome.Fatal != nil {
			msg = fmt.Sprintf("run failed: %s", outcome.Fatal.Name)
		}
		return &config.ExitError{Code: 2, Message: msg}
	}
}
