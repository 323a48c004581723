package batch

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/AlexZinkM/faucetbot/internal/metrics"
	"github.com/AlexZinkM/faucetbot/internal/model"
)

type transfer struct {
	recipient string
	amount    *big.Int
	display   string
}

// parseTransfer validates the recipient and amount before any state change.
func (o *Orchestrator) parseTransfer(recipient, amount string) (transfer, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		o.sink.Errorf("Recipient address must not be empty.")
		return transfer{}, fmt.Errorf("%w: recipient address is required", model.ErrInvalidInput)
	}
	if err := o.chain.ValidateAddress(recipient); err != nil {
		o.sink.Errorf("Invalid recipient address: %s", recipient)
		return transfer{}, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}

	value, err := o.chain.ParseAmount(strings.TrimSpace(amount))
	if err != nil {
		o.sink.Errorf("Invalid amount: %q", amount)
		return transfer{}, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}
	return transfer{recipient: recipient, amount: value, display: o.chain.FormatAmount(value)}, nil
}

// SendAllSufficient sends amount from every wallet holding at least amount.
// After confirmer agrees, all transfers are issued at once and the batch
// finishes when every one of them has settled.
func (o *Orchestrator) SendAllSufficient(ctx context.Context, recipient, amount string, confirmer Confirmer) (*Batch, error) {
	t, err := o.parseTransfer(recipient, amount)
	if err != nil {
		return nil, err
	}
	if confirmer == nil {
		o.sink.Errorf("No confirmation available.")
		return nil, fmt.Errorf("%w: no confirmer", model.ErrInvalidInput)
	}

	return o.start(ctx, WorkflowSendAll, func(ctx context.Context, b *Batch, r *model.Report) {
		accounts, err := o.loadAccounts()
		if err != nil {
			r.Err = err
			return
		}

		balances := o.fetchBalances(ctx, accounts)
		eligible := sufficient(accounts, balances, t.amount)
		o.sink.Systemf("%d wallets have a sufficient balance.", len(eligible))
		if len(eligible) == 0 || !o.checkpoint(b, r) {
			return
		}

		o.sink.Systemf("Confirming transfer...")
		prompt := fmt.Sprintf("Send %s %s from each of %d wallets to %s?", t.display, o.chain.Symbol(), len(eligible), t.recipient)
		ok, err := confirmer.Confirm(ctx, prompt)
		if err != nil || !ok {
			o.sink.Systemf("Transfer cancelled.")
			r.Cancelled = true
			r.Skipped = len(eligible)
			return
		}

		results := make(chan string, len(eligible))
		var wg sync.WaitGroup
		for i, acc := range eligible {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if b.cancelled() {
					o.sink.Systemf("Transfer for wallet %s cancelled.", short(acc.Address))
					results <- metrics.ResultCancelled
					return
				}
				res := o.transferFrom(ctx, acc, t)
				if res == metrics.ResultSuccess {
					o.sink.Systemf("Transfer %d/%d done.", i+1, len(eligible))
				}
				results <- res
			}()
		}
		wg.Wait()
		close(results)

		for res := range results {
			switch res {
			case metrics.ResultCancelled:
				r.Skipped++
			case metrics.ResultSuccess:
				r.Processed++
				r.Succeeded++
			default:
				r.Processed++
				r.Failed++
			}
		}
		if r.Skipped > 0 {
			r.Cancelled = true
		}

		o.RefreshSummary(ctx)
		o.sink.Systemf("Balances updated. Transfers finished.")
	})
}

// SendOne sends amount from the wallet chosen by selector after checking
// its balance.
func (o *Orchestrator) SendOne(ctx context.Context, selector Selector, recipient, amount string) (*Batch, error) {
	t, err := o.parseTransfer(recipient, amount)
	if err != nil {
		return nil, err
	}
	if selector == nil {
		o.sink.Errorf("No wallet selector available.")
		return nil, fmt.Errorf("%w: no account selector", model.ErrInvalidInput)
	}
	if err := o.requireAccounts(selector); err != nil {
		return nil, err
	}

	return o.start(ctx, WorkflowSendOne, func(ctx context.Context, b *Batch, r *model.Report) {
		acc, ok := o.selectAccount(ctx, selector, r)
		if !ok || !o.checkpoint(b, r) {
			return
		}

		balance, err := o.chain.GetBalance(ctx, acc.Address)
		if err != nil {
			o.sink.Errorf("Failed to get balance for %s: %v", short(acc.Address), err)
			r.Err = err
			return
		}
		if balance.Cmp(t.amount) < 0 {
			o.sink.Errorf("Insufficient balance in wallet %s.", short(acc.Address))
			r.Skipped++
			r.Err = fmt.Errorf("%w: %s holds %s %s", model.ErrInsufficientBalance, acc.Address, o.chain.FormatAmount(balance), o.chain.Symbol())
			return
		}

		r.Processed++
		if o.transferFrom(ctx, acc, t) == metrics.ResultSuccess {
			r.Succeeded++
		} else {
			r.Failed++
		}
		o.RefreshSummary(ctx)
	})
}

// transferFrom submits one transfer, logs the hash as soon as it is known
// and then logs the confirmation result.
func (o *Orchestrator) transferFrom(ctx context.Context, acc model.Account, t transfer) string {
	o.sink.Systemf("Sending %s %s from wallet %s", t.display, o.chain.Symbol(), short(acc.Address))

	hash, err := o.chain.SendTransfer(ctx, acc, t.recipient, t.amount)
	if err != nil {
		o.sink.Errorf("Transfer from %s failed: %v", short(acc.Address), err)
		o.metrics.Transfer(metrics.ResultFailure)
		return metrics.ResultFailure
	}
	o.sink.Successf("Tx sent: %s", o.txLink(hash))

	confirmed, err := o.chain.WaitConfirmed(ctx, hash)
	switch {
	case err != nil:
		o.sink.Errorf("Failed to confirm tx %s: %v", hash, err)
		o.metrics.Transfer(metrics.ResultFailure)
		return metrics.ResultFailure
	case !confirmed:
		o.sink.Errorf("Transfer reverted, tx: %s", o.txLink(hash))
		o.metrics.Transfer(metrics.ResultReverted)
		return metrics.ResultReverted
	}
	o.sink.Successf("Transfer confirmed, tx: %s", o.txLink(hash))
	o.metrics.Transfer(metrics.ResultSuccess)
	return metrics.ResultSuccess
}

// sufficient keeps the accounts whose balance read succeeded and is at
// least amount, preserving order.
func sufficient(accounts []model.Account, balances []balanceResult, amount *big.Int) []model.Account {
	var out []model.Account
	for i, acc := range accounts {
		res := balances[i]
		if res.err != nil || res.balance == nil {
			continue
		}
		if res.balance.Cmp(amount) >= 0 {
			out = append(out, acc)
		}
	}
	return out
}
