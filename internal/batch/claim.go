package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexZinkM/faucetbot/internal/model"

	"go.uber.org/zap"
)

// ClaimAll claims the faucet for every stored account, sequentially and
// with the same inter-wallet delay as GenerateAndClaim.
func (o *Orchestrator) ClaimAll(ctx context.Context) (*Batch, error) {
	if err := o.requireAccounts(nil); err != nil {
		return nil, err
	}

	return o.start(ctx, WorkflowClaimAll, func(ctx context.Context, b *Batch, r *model.Report) {
		accounts, err := o.loadAccounts()
		if err != nil {
			r.Err = err
			return
		}
		if len(accounts) == 0 {
			o.sink.Errorf("No accounts stored.")
			r.Err = fmt.Errorf("%w: no accounts stored", model.ErrInvalidInput)
			return
		}

		o.sink.Systemf("Claiming the faucet for %d wallets...", len(accounts))
		for i, acc := range accounts {
			if !o.checkpoint(b, r) {
				break
			}
			o.sink.Progressf("Processing wallet %d/%d: %s", i+1, len(accounts), short(acc.Address))
			r.Processed++

			if o.claimWallet(ctx, acc.Address, o.proxies.Select()) {
				r.Succeeded++
			} else {
				r.Failed++
			}
			o.RefreshSummary(ctx)

			if i < len(accounts)-1 && !o.pause(b, r) {
				break
			}
		}

		if !r.Cancelled {
			o.sink.Systemf("Process completed.")
		}
	})
}

// ClaimOne claims the faucet for the account chosen by selector.
func (o *Orchestrator) ClaimOne(ctx context.Context, selector Selector) (*Batch, error) {
	if selector == nil {
		o.sink.Errorf("No wallet selector available.")
		return nil, fmt.Errorf("%w: no account selector", model.ErrInvalidInput)
	}
	if err := o.requireAccounts(selector); err != nil {
		return nil, err
	}

	return o.start(ctx, WorkflowClaimOne, func(ctx context.Context, b *Batch, r *model.Report) {
		acc, ok := o.selectAccount(ctx, selector, r)
		if !ok || !o.checkpoint(b, r) {
			return
		}

		r.Processed++
		if o.claimWallet(ctx, acc.Address, o.proxies.Select()) {
			r.Succeeded++
		} else {
			r.Failed++
		}
		o.RefreshSummary(ctx)
	})
}

// requireAccounts rejects a workflow before it starts when the store is
// unreadable or empty, or when a StaticSelector points past its end.
func (o *Orchestrator) requireAccounts(selector Selector) error {
	accounts, err := o.loadAccounts()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		o.sink.Errorf("No accounts stored.")
		return fmt.Errorf("%w: no accounts stored", model.ErrInvalidInput)
	}
	if s, ok := selector.(StaticSelector); ok && (s.Index < 0 || s.Index >= len(accounts)) {
		o.sink.Errorf("Invalid wallet selection: %d", s.Index)
		return fmt.Errorf("%w: wallet index %d out of range [0, %d)", model.ErrInvalidInput, s.Index, len(accounts))
	}
	return nil
}

// selectAccount resolves the selector against the stored accounts. It
// records why in r when no account was chosen.
func (o *Orchestrator) selectAccount(ctx context.Context, selector Selector, r *model.Report) (model.Account, bool) {
	accounts, err := o.loadAccounts()
	if err != nil {
		r.Err = err
		return model.Account{}, false
	}
	if len(accounts) == 0 {
		o.sink.Errorf("No accounts stored.")
		r.Err = fmt.Errorf("%w: no accounts stored", model.ErrInvalidInput)
		return model.Account{}, false
	}

	list := o.accountBalances(accounts, o.fetchBalances(ctx, accounts))
	idx, err := selector.Select(ctx, list)
	switch {
	case errors.Is(err, model.ErrCancelled):
		o.sink.Systemf("Selection cancelled.")
		r.Cancelled = true
		return model.Account{}, false
	case err != nil:
		o.sink.Errorf("Wallet selection failed: %v", err)
		r.Err = err
		return model.Account{}, false
	case idx < 0 || idx >= len(accounts):
		o.sink.Errorf("Invalid wallet selection: %d", idx)
		r.Err = fmt.Errorf("%w: wallet index %d out of range [0, %d)", model.ErrInvalidInput, idx, len(accounts))
		return model.Account{}, false
	}
	return accounts[idx], true
}

// claimWallet runs one faucet claim and logs its outcome.
func (o *Orchestrator) claimWallet(ctx context.Context, address, endpoint string) bool {
	o.sink.Systemf("Using proxy: %s", o.describeProxy(endpoint))

	ip, err := o.faucet.EgressIP(ctx, endpoint)
	if err != nil {
		o.logger.Debug("egress ip lookup failed", zap.Error(err))
		ip = "Unavailable"
	}
	o.sink.Systemf("Using IP: %s", ip)

	out := o.faucet.Claim(ctx, address, endpoint)
	o.metrics.Claim(out.Succeeded)
	if out.Succeeded {
		o.sink.Successf("Faucet claimed for %s, tx: %s", short(address), o.txLink(out.Detail))
		return true
	}
	o.sink.Errorf("Faucet error for %s: %s", short(address), out.Detail)
	return false
}
