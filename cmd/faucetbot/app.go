package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/AlexZinkM/faucetbot/internal/batch"
	"github.com/AlexZinkM/faucetbot/internal/client"
	"github.com/AlexZinkM/faucetbot/internal/config"
	"github.com/AlexZinkM/faucetbot/internal/console"
	"github.com/AlexZinkM/faucetbot/internal/events"
	"github.com/AlexZinkM/faucetbot/internal/logging"
	"github.com/AlexZinkM/faucetbot/internal/metrics"
	"github.com/AlexZinkM/faucetbot/internal/proxy"
	"github.com/AlexZinkM/faucetbot/internal/store"
	"github.com/AlexZinkM/faucetbot/internal/wallet"

	"go.uber.org/zap"
)

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.AccountStore
	pool     *proxy.Pool
	orch     *batch.Orchestrator
	renderer *console.Renderer
	prompter *console.Prompter

	closers []func()
}

type chainCloser interface {
	batch.ChainClient
	Close()
}

// newApp wires the configured network. logStderr mirrors the process log to
// stderr, used by serve where there is no terminal renderer.
func newApp(ctx context.Context, activeProxy string, logStderr bool) (*app, error) {
	if err := config.Init(); err != nil {
		return nil, err
	}
	cfg := config.Get()

	logger, logCloser, err := logging.New(logging.Options{
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Level:      cfg.LogLevel,
		Stderr:     logStderr,
	})
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store.NewAccountStore(cfg.AccountFile),
		renderer: console.NewRenderer(os.Stdout, console.IsTerminal(os.Stdout)),
		closers:  []func(){func() { logger.Sync(); logCloser.Close() }},
	}

	sink := events.NewSink(cfg.LogCapacity, logger)

	pool, err := proxy.Load(cfg.ProxyFile, cfg.ProxyDefaultScheme)
	if err != nil {
		logger.Warn("proxy file has unusable entries", zap.String("file", cfg.ProxyFile), zap.Error(err))
		sink.Errorf("Some proxies were skipped: %v", err)
	}
	a.pool = pool

	chain, faucet, generate, err := dialNetwork(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, chain.Close)
	a.prompter = &console.Prompter{Symbol: chain.Symbol()}

	m, err := metrics.New()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	lo, hi := cfg.DelayRange()
	a.orch = batch.New(a.store, pool, faucet, chain, sink, batch.Options{
		DelayMin:           lo,
		DelayMax:           hi,
		ExplorerTxURL:      cfg.ExplorerTxURL,
		BalanceConcurrency: cfg.BalanceConcurrency,
		Generate:           generate,
		Metrics:            m,
		Logger:             logger,
	})

	if activeProxy != "" {
		if err := a.orch.SetActiveProxy(activeProxy); err != nil {
			a.Close()
			return nil, err
		}
	}

	logger.Info("faucetbot started",
		zap.String("network", cfg.Network),
		zap.String("rpc", cfg.RPCURL),
		zap.Int("proxies", pool.Len()),
	)
	return a, nil
}

func dialNetwork(ctx context.Context, cfg *config.Config) (chainCloser, batch.FaucetClient, wallet.Generator, error) {
	lookup := client.NewIPLookup(cfg.IPEchoURL, cfg.HTTPTimeout)

	switch cfg.Network {
	case config.NetworkSolana:
		sc := client.NewSolanaClient(cfg.RPCURL, cfg.TokenSymbol, cfg.ConfirmPollInterval)
		lamports, err := sc.ParseAmount(cfg.SolanaAirdropAmount)
		if err != nil {
			sc.Close()
			return nil, nil, nil, fmt.Errorf("invalid SOLANA_AIRDROP_AMOUNT: %w", err)
		}
		faucet := client.NewAirdropFaucet(cfg.RPCURL, lamports.Uint64(), lookup, cfg.HTTPTimeout)
		return sc, faucet, wallet.NewSolanaAccount, nil
	default:
		ec, err := client.DialEVM(ctx, cfg.RPCURL, cfg.ChainID, cfg.TokenSymbol, cfg.ConfirmPollInterval)
		if err != nil {
			return nil, nil, nil, err
		}
		faucet := client.NewHTTPFaucet(cfg.FaucetURL, cfg.FaucetOrigin, lookup, cfg.HTTPTimeout)
		return ec, faucet, wallet.NewEVMAccount, nil
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// runBatch starts a workflow, streams its log entries to the terminal and
// blocks until it is back to idle. The first interrupt cancels the batch,
// the second one exits.
func (a *app) runBatch(start func() (*batch.Batch, error)) error {
	entries, unsubscribe := a.orch.Sink().Subscribe(256)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.renderer.Follow(context.Background(), entries)
	}()
	flush := func() {
		unsubscribe()
		wg.Wait()
	}

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	b, err := start()
	if err != nil {
		flush()
		return err
	}

	interrupted := false
	for done := false; !done; {
		select {
		case <-b.Done():
			done = true
		case <-sigs:
			if interrupted {
				flush()
				a.Close()
				os.Exit(130)
			}
			interrupted = true
			a.orch.Cancel()
		}
	}

	report := b.Wait()
	flush()
	a.renderer.RenderSummary(a.orch.Sink().Summary())
	a.logger.Info("command finished", zap.String("batch", report.ID), zap.Bool("cancelled", report.Cancelled))
	return report.Err
}

func printProxies(w io.Writer, pool *proxy.Pool) {
	active := pool.Active()
	list := pool.List()
	if len(list) == 0 {
		fmt.Fprintln(w, "No proxies configured, using a direct connection.")
	}
	for i, ep := range list {
		marker := " "
		if ep == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %3d  %s\n", marker, i, proxy.Redact(ep))
	}
	fmt.Fprintf(w, "Active proxy: %s\n", pool.DescribeActive())
}
