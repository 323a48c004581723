package batch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/AlexZinkM/faucetbot/internal/common"
	"github.com/AlexZinkM/faucetbot/internal/events"
	"github.com/AlexZinkM/faucetbot/internal/metrics"
	"github.com/AlexZinkM/faucetbot/internal/model"
	"github.com/AlexZinkM/faucetbot/internal/proxy"
	"github.com/AlexZinkM/faucetbot/internal/wallet"

	"go.uber.org/zap"
)

// SleepFunc waits d or until cancel is closed. It reports whether the
// full duration elapsed.
type SleepFunc func(cancel <-chan struct{}, d time.Duration) bool

type Options struct {
	// Inter-wallet wait bounds, drawn in whole seconds.
	DelayMin time.Duration
	DelayMax time.Duration

	ExplorerTxURL      string
	BalanceConcurrency int

	Generate wallet.Generator
	Sleep    SleepFunc
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Orchestrator runs the batch workflows. Only one workflow runs at a time.
type Orchestrator struct {
	store   AccountStore
	proxies ProxyPool
	faucet  FaucetClient
	chain   ChainClient
	sink    *events.Sink

	opts    Options
	metrics *metrics.Metrics
	logger  *zap.Logger

	machine machine
}

func New(store AccountStore, proxies ProxyPool, faucet FaucetClient, chain ChainClient, sink *events.Sink, opts Options) *Orchestrator {
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.Generate == nil {
		opts.Generate = wallet.NewEVMAccount
	}
	if opts.BalanceConcurrency < 1 {
		opts.BalanceConcurrency = 1
	}
	if opts.DelayMax < opts.DelayMin {
		opts.DelayMax = opts.DelayMin
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.MustNew()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Orchestrator{
		store:   store,
		proxies: proxies,
		faucet:  faucet,
		chain:   chain,
		sink:    sink,
		opts:    opts,
		metrics: opts.Metrics,
		logger:  opts.Logger.Named("batch"),
	}
}

func (o *Orchestrator) Sink() *events.Sink {
	return o.sink
}

func (o *Orchestrator) Metrics() *metrics.Metrics {
	return o.metrics
}

func (o *Orchestrator) Status() model.BatchStatus {
	return o.machine.status()
}

// Cancel asks the running workflow to stop at its next safe point. Work
// already in flight is not interrupted.
func (o *Orchestrator) Cancel() bool {
	if !o.machine.cancel() {
		o.sink.Systemf("No process is running.")
		return false
	}
	o.sink.Systemf("Stopping process...")
	return true
}

// SetActiveProxy pins endpoint for all following operations; "" clears the
// pin. The pin cannot change while a batch is running.
func (o *Orchestrator) SetActiveProxy(endpoint string) error {
	if st, _ := o.machine.state(); st != StateIdle {
		o.sink.Errorf("Cannot change proxy while a process is running.")
		return model.ErrAlreadyRunning
	}
	if err := o.proxies.SetActive(endpoint); err != nil {
		o.sink.Errorf("Invalid proxy: %v", err)
		return fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}
	if endpoint == "" {
		o.sink.Systemf("Proxy selection cleared, rotating through the pool.")
	} else {
		o.sink.Systemf("Active proxy set to %s", o.proxies.DescribeActive())
	}
	o.publishProxy()
	return nil
}

func (o *Orchestrator) ClearLogs() {
	o.sink.Clear()
}

// start moves the machine to Running and runs fn on its own goroutine.
func (o *Orchestrator) start(ctx context.Context, workflow string, fn func(ctx context.Context, b *Batch, r *model.Report)) (*Batch, error) {
	b, err := o.machine.begin(workflow)
	if err != nil {
		o.sink.Errorf("A process is already running. Stop it before starting another.")
		return nil, err
	}
	o.metrics.BatchStarted()
	o.logger.Info("batch started", zap.String("id", b.ID), zap.String("workflow", workflow))

	go func() {
		r := model.Report{ID: b.ID, Workflow: workflow}
		defer func() {
			if p := recover(); p != nil {
				o.logger.Error("batch panicked", zap.String("id", b.ID), zap.Any("panic", p))
				o.sink.Errorf("Unexpected error: %v", p)
				r.Err = fmt.Errorf("unexpected error: %v", p)
			}
			o.complete(b, r)
		}()
		fn(ctx, b, &r)
	}()
	return b, nil
}

func (o *Orchestrator) complete(b *Batch, r model.Report) {
	result := metrics.ResultSuccess
	switch {
	case r.Cancelled:
		result = metrics.ResultCancelled
	case r.Err != nil:
		result = metrics.ResultFailure
		r.Error = r.Err.Error()
	}
	o.metrics.BatchFinished(b.Workflow, result)
	o.logger.Info("batch finished",
		zap.String("id", b.ID),
		zap.String("workflow", b.Workflow),
		zap.String("result", result),
		zap.Int("processed", r.Processed),
		zap.Int("succeeded", r.Succeeded),
		zap.Int("failed", r.Failed),
		zap.Int("skipped", r.Skipped),
	)
	o.machine.finish(b, r)
}

// checkpoint reports whether the batch may continue. It logs the
// cancellation the first time it is observed.
func (o *Orchestrator) checkpoint(b *Batch, r *model.Report) bool {
	if !b.cancelled() {
		return true
	}
	if !r.Cancelled {
		r.Cancelled = true
		o.sink.Systemf("Process cancelled.")
	}
	return false
}

// pause waits a random delay between wallets.
func (o *Orchestrator) pause(b *Batch, r *model.Report) bool {
	d := o.randomDelay()
	o.sink.Systemf("Waiting %d seconds before the next wallet...", int(d/time.Second))
	if !o.opts.Sleep(b.cancel, d) {
		o.sink.Systemf("Wait cancelled.")
	}
	return o.checkpoint(b, r)
}

func (o *Orchestrator) randomDelay() time.Duration {
	lo := int(o.opts.DelayMin / time.Second)
	hi := int(o.opts.DelayMax / time.Second)
	return time.Duration(lo+rand.IntN(hi-lo+1)) * time.Second
}

func (o *Orchestrator) txLink(hash string) string {
	if o.opts.ExplorerTxURL == "" || hash == "" {
		return hash
	}
	return o.opts.ExplorerTxURL + hash
}

func (o *Orchestrator) describeProxy(endpoint string) string {
	if endpoint == "" {
		return proxy.NoProxy
	}
	return proxy.Redact(endpoint)
}

func short(address string) string {
	return common.ShortAddress(address)
}

func sleep(cancel <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-cancel:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-cancel:
		return false
	}
}
