// Command dcakeeper watches recurring DCA cycles and executes the trades
// that are due.
//
// Usage:
//
//	dcakeeper -config config.yaml
//	dcakeeper -setup
//	dcakeeper -platform simulate -autoexec -web :8080
//
// Required environment variables for sending transactions on an EVM chain:
//
//	EXECUTOR_PRIVATE_KEY
package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/config"
	"github.com/vadiminshakov/dcakeeper/internal/metrics"
	"github.com/vadiminshakov/dcakeeper/internal/services/eligibility"
	"github.com/vadiminshakov/dcakeeper/internal/services/fee"
	"github.com/vadiminshakov/dcakeeper/internal/services/gasprice"
	"github.com/vadiminshakov/dcakeeper/internal/services/keeper"
	"github.com/vadiminshakov/dcakeeper/internal/services/poller"
	"github.com/vadiminshakov/dcakeeper/internal/services/route"
	"github.com/vadiminshakov/dcakeeper/internal/setup"
	"github.com/vadiminshakov/dcakeeper/internal/storage/decisions"
	"github.com/vadiminshakov/dcakeeper/internal/storage/tasks"
	"github.com/vadiminshakov/dcakeeper/internal/web"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	settings, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}
	if settings.Setup {
		path, err := setup.RunTUI()
		if err != nil {
			log.Fatal(err)
		}
		if settings, err = config.Load(path); err != nil {
			log.Fatal(err)
		}
	}

	logger, err := newLogger(settings.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for _, conf := range settings.Keepers {
		g.Go(func() error {
			l := logger.With(zap.String("keeper", conf.Name), zap.String("platform", conf.Platform))
			if err := run(ctx, l, conf); err != nil && !errors.Is(err, context.Canceled) {
				return errors.Wrapf(err, "keeper %s", conf.Name)
			}
			return nil
		})
		logger.Info("started", zap.String("keeper", conf.Name))
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("keeper stopped", zap.Error(err))
	}
}

func run(ctx context.Context, l *zap.Logger, conf config.Config) error {
	b, err := newBackend(ctx, l, conf)
	if err != nil {
		return err
	}
	defer b.close()

	walDir := filepath.Join(conf.WALDir, conf.Name)
	registry, err := tasks.NewRegistry(filepath.Join(walDir, "tasks"))
	if err != nil {
		return err
	}
	defer registry.Close()
	if registry.Cursor() == 0 && conf.StartBlock > 0 {
		if err := registry.SetCursor(conf.StartBlock); err != nil {
			return err
		}
	}

	decisionStore, err := decisions.NewWALStore(filepath.Join(walDir, "decisions"))
	if err != nil {
		return err
	}
	defer decisionStore.Close()

	var reporter metrics.Reporter = metrics.Nop{}
	if conf.StatsdAddr != "" {
		s, err := metrics.NewStatsd(conf.StatsdAddr, conf.Name)
		if err != nil {
			return err
		}
		defer s.Close()
		reporter = s
	}

	est, err := fee.NewEstimator(fee.Config{
		Mode:       conf.FeeMode,
		Executor:   b.executor,
		Target:     b.chain.Address(),
		IsOutToken: conf.IsOutToken,
	}, b.chain, b.chain, b.gas)
	if err != nil {
		return err
	}

	paths := route.DirectPaths
	if len(conf.Connectors) > 0 {
		paths = route.ViaPaths(conf.Connectors...)
	}

	k := keeper.New(l.Named("keeper"), keeper.Config{Executor: b.executor, CallTimeout: conf.CallTimeout},
		eligibility.NewChecker(b.chain, b.chain),
		route.NewSelector(l.Named("route"), b.chain, b.routers, paths),
		b.chain, est)

	opts := []poller.Option{
		poller.WithDecisions(decisionStore),
		poller.WithMetrics(reporter),
	}
	if !conf.MaxGasPriceGwei.IsZero() {
		opts = append(opts, poller.WithGasCeiling(b.gas, gasprice.NewCeiling(l, conf.MaxGasPriceGwei)))
	}
	if conf.AutoExec {
		if !b.canSend {
			return errors.New("auto_exec needs EXECUTOR_PRIVATE_KEY")
		}
		journal, err := poller.OpenJournal(filepath.Join(walDir, "executions"))
		if err != nil {
			return err
		}
		defer journal.Close()
		for _, intent := range journal.Pending() {
			l.Warn("unresolved execution intent from a previous run",
				zap.String("intent", intent.ID), zap.Stringer("task_id", intent.TaskID), zap.Time("time", intent.Time))
		}
		opts = append(opts, poller.WithExecutor(b.chain, journal))
	}

	p := poller.New(l.Named("poller"), poller.Config{
		Target:      b.chain.Address(),
		Interval:    conf.PollInterval,
		Concurrency: conf.Concurrency,
		AutoExec:    conf.AutoExec,
	}, b.chain, registry, k, opts...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(ctx) })
	g.Go(func() error {
		ticker := time.NewTicker(conf.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				b.tick()
			}
		}
	})
	if conf.WebAddr != "" {
		srv := web.NewServer(l.Named("web"), conf.WebAddr, registry, decisionStore)
		g.Go(func() error {
			if conf.WebDomain != "" {
				return srv.StartWithAutoTLS(ctx, strings.Split(conf.WebDomain, ","), filepath.Join(walDir, "cert-cache"))
			}
			return srv.Start(ctx)
		})
	}
	return g.Wait()
}
