// Package poller tracks cycle store tasks, evaluates them on every tick and
// optionally executes the ones that are ready.
package poller

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/chain"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"github.com/vadiminshakov/dcakeeper/internal/metrics"
	"github.com/vadiminshakov/dcakeeper/pkg/retrier"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

type registry interface {
	Put(t domain.SubmittedTask) error
	Remove(id domain.TaskID) error
	SetCursor(block uint64) error
	Cursor() uint64
	List() []domain.SubmittedTask
}

type evaluator interface {
	CanExec(ctx context.Context, order domain.Order, id domain.TaskID) (domain.Decision, error)
}

type executor interface {
	Exec(ctx context.Context, target common.Address, data domain.FinalPayload, feeToken common.Address) (common.Hash, error)
}

type decisionStore interface {
	Save(typ domain.DecisionType, event domain.DecisionEvent) error
}

type ceiling interface {
	Check(price *big.Int) error
}

// Config holds poller parameters.
type Config struct {
	Target      common.Address
	Interval    time.Duration
	Concurrency int
	AutoExec    bool
}

// Poller drives the keeper over every tracked task.
type Poller struct {
	l   *zap.Logger
	cfg Config

	feed     chain.TaskFeed
	registry registry
	keeper   evaluator

	executor  executor
	journal   *Journal
	gas       chain.GasPricer
	ceiling   ceiling
	decisions decisionStore
	metrics   metrics.Reporter
	retrier   *retrier.Retrier
	now       func() time.Time
}

// Option configures a Poller.
type Option func(*Poller)

// WithExecutor enables sending executable payloads. Intents go to journal.
func WithExecutor(e executor, journal *Journal) Option {
	return func(p *Poller) {
		p.executor = e
		p.journal = journal
	}
}

// WithGasCeiling skips execution while the gas price is above the ceiling.
func WithGasCeiling(gas chain.GasPricer, c ceiling) Option {
	return func(p *Poller) {
		p.gas = gas
		p.ceiling = c
	}
}

// WithDecisions journals every evaluation and execution.
func WithDecisions(s decisionStore) Option {
	return func(p *Poller) { p.decisions = s }
}

// WithMetrics sets the metrics reporter.
func WithMetrics(m metrics.Reporter) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithRetrier overrides the retry policy for feed and evaluation calls.
func WithRetrier(r *retrier.Retrier) Option {
	return func(p *Poller) { p.retrier = r }
}

// WithClock overrides the clock stamped on journal entries.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// New creates a Poller.
func New(l *zap.Logger, cfg Config, feed chain.TaskFeed, reg registry, k evaluator, opts ...Option) *Poller {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	p := &Poller{
		l:        l,
		cfg:      cfg,
		feed:     feed,
		registry: reg,
		keeper:   k,
		metrics:  metrics.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.retrier == nil {
		p.retrier = retrier.New(
			retrier.WithMaxRetries(3),
			retrier.WithInitialInterval(500*time.Millisecond),
			retrier.WithRetryIf(retryable),
			retrier.OnRetry(func(attempt int, err error) {
				l.Warn("retrying chain call", zap.Int("attempt", attempt), zap.Error(err))
			}),
		)
	}
	return p
}

// retryable rejects reverts and cancellation, which do not heal on retry.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var rev *domain.RevertError
	return !errors.As(err, &rev)
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.l.Info("poller started",
		zap.Duration("interval", p.cfg.Interval),
		zap.Int("concurrency", p.cfg.Concurrency),
		zap.Bool("auto_exec", p.cfg.AutoExec))

	if err := p.Tick(ctx); err != nil && ctx.Err() == nil {
		p.l.Error("poll failed", zap.Error(err))
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.metrics.Count(metrics.PollErrors)
				p.l.Error("poll failed", zap.Error(err))
			}
		}
	}
}

// Tick syncs the registry from the task feed and evaluates every tracked task once.
func (p *Poller) Tick(ctx context.Context) error {
	if err := p.sync(ctx); err != nil {
		return errors.Wrap(err, "sync tasks")
	}

	tasks := p.registry.List()
	p.metrics.Gauge(metrics.TrackedTasks, float64(len(tasks)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for _, task := range tasks {
		g.Go(func() error {
			p.process(gctx, task)
			return gctx.Err()
		})
	}
	return g.Wait()
}

func (p *Poller) sync(ctx context.Context) error {
	cursor := p.registry.Cursor()

	var (
		events []domain.SubmittedTask
		next   uint64
	)
	err := p.retrier.Do(ctx, func(ctx context.Context) (err error) {
		events, next, err = p.feed.Tasks(ctx, cursor)
		return err
	})
	if err != nil {
		return err
	}

	for _, ev := range events {
		if ev.Live() {
			if err := p.registry.Put(ev); err != nil {
				return err
			}
			p.l.Debug("task tracked", zap.Stringer("task_id", ev.ID), zap.String("kind", string(ev.Kind)))
			continue
		}
		if err := p.registry.Remove(ev.ID); err != nil {
			return err
		}
		p.l.Info("task cancelled", zap.Stringer("task_id", ev.ID))
	}

	return p.registry.SetCursor(next)
}

func (p *Poller) process(ctx context.Context, task domain.SubmittedTask) {
	l := p.l.With(zap.Stringer("task_id", task.ID))
	start := time.Now()

	d, err := retrier.DoWithData(p.retrier, ctx, func(ctx context.Context) (domain.Decision, error) {
		return p.keeper.CanExec(ctx, task.Order, task.ID)
	})
	p.metrics.Timing(metrics.EvaluationTime, start)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		l.Error("evaluation failed", zap.Error(err))
		p.metrics.Count(metrics.PollErrors)
		ev := domain.NewEvaluationEvent(p.now(), task, domain.Decision{})
		ev.Status = ""
		ev.Error = err.Error()
		p.journalDecision(domain.DecisionTypeEvaluation, ev)
		return
	}

	p.metrics.Count(metrics.Evaluations, "status:"+statusTag(d))
	p.journalDecision(domain.DecisionTypeEvaluation, domain.NewEvaluationEvent(p.now(), task, d))

	if d.Reason == domain.ReasonTaskNotFound {
		if err := p.registry.Remove(task.ID); err != nil {
			l.Error("failed to drop task", zap.Error(err))
		}
		l.Debug("task no longer live")
		return
	}
	if !d.OK() {
		l.Debug("task not executable", zap.String("reason", string(d.Reason)))
		return
	}

	l.Info("task executable", zap.String("payload", d.Payload.Hex()))
	if !p.cfg.AutoExec || p.executor == nil {
		return
	}
	p.execute(ctx, l, task, d)
}

func (p *Poller) execute(ctx context.Context, l *zap.Logger, task domain.SubmittedTask, d domain.Decision) {
	if p.ceiling != nil && p.gas != nil {
		price, err := p.gas.GasPrice(ctx)
		if err != nil {
			l.Error("failed to read gas price", zap.Error(err))
			return
		}
		if err := p.ceiling.Check(price); err != nil {
			l.Info("execution deferred", zap.Error(err))
			return
		}
	}

	feeToken := domain.FeeAsset(task.Order, false)
	if d.Fee != nil {
		feeToken = domain.FeeAsset(task.Order, d.Fee.IsOutToken)
	}

	var intent *Intent
	if p.journal != nil {
		var err error
		intent, err = p.journal.Prepare(task, d, p.now())
		if err != nil {
			l.Error("failed to journal execution intent", zap.Error(err))
			return
		}
	}

	ev := domain.NewEvaluationEvent(p.now(), task, d)
	hash, err := p.executor.Exec(ctx, p.cfg.Target, d.Payload, feeToken)
	if err != nil {
		p.metrics.Count(metrics.ExecFailures)
		if jerr := p.journal.markFailed(intent, err); jerr != nil {
			l.Error("failed to journal execution failure", zap.Error(jerr))
		}
		ev.Status = ""
		ev.Error = err.Error()
		p.journalDecision(domain.DecisionTypeExecution, ev)
		l.Error("execution failed", zap.Error(err))
		return
	}

	if jerr := p.journal.markDone(intent, hash.Hex()); jerr != nil {
		l.Error("failed to journal execution", zap.Error(jerr))
	}
	if err := p.registry.Remove(task.ID); err != nil {
		l.Error("failed to drop executed task", zap.Error(err))
	}
	p.metrics.Count(metrics.Executions)
	ev.TxHash = hash.Hex()
	p.journalDecision(domain.DecisionTypeExecution, ev)
	l.Info("task executed", zap.String("tx", hash.Hex()))
}

func (p *Poller) journalDecision(typ domain.DecisionType, ev domain.DecisionEvent) {
	if p.decisions == nil {
		return
	}
	if err := p.decisions.Save(typ, ev); err != nil {
		p.l.Error("failed to journal decision", zap.Stringer("task_id", ev.TaskID), zap.Error(err))
	}
}

func (j *Journal) markFailed(intent *Intent, err error) error {
	if j == nil {
		return nil
	}
	return j.MarkFailed(intent, err)
}

func (j *Journal) markDone(intent *Intent, txHash string) error {
	if j == nil {
		return nil
	}
	return j.MarkDone(intent, txHash)
}

func statusTag(d domain.Decision) string {
	if d.OK() {
		return "ok"
	}
	return string(d.Reason)
}
