package batch

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/AlexZinkM/faucetbot/internal/model"

	"golang.org/x/sync/errgroup"
)

type balanceResult struct {
	balance *big.Int
	err     error
}

// fetchBalances reads every balance concurrently. A failed read never
// cancels the others; it is kept per account so callers can tell it apart
// from a zero balance.
func (o *Orchestrator) fetchBalances(ctx context.Context, accounts []model.Account) []balanceResult {
	results := make([]balanceResult, len(accounts))

	var g errgroup.Group
	g.SetLimit(o.opts.BalanceConcurrency)
	for i, acc := range accounts {
		g.Go(func() error {
			bal, err := o.chain.GetBalance(ctx, acc.Address)
			results[i] = balanceResult{balance: bal, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if res.err != nil {
			o.sink.Errorf("Failed to get balance for %s: %v", short(accounts[i].Address), res.err)
		}
	}
	return results
}

func (o *Orchestrator) loadAccounts() ([]model.Account, error) {
	accounts, err := o.store.Load()
	if err != nil {
		o.sink.Errorf("Failed to read accounts: %v", err)
	}
	return accounts, err
}

// RefreshSummary recomputes the wallet count, the total balance and the
// active proxy, and publishes the result to the sink.
func (o *Orchestrator) RefreshSummary(ctx context.Context) model.Summary {
	accounts, _ := o.loadAccounts()
	balances := o.fetchBalances(ctx, accounts)

	total := new(big.Int)
	for _, res := range balances {
		if res.err == nil && res.balance != nil {
			total.Add(total, res.balance)
		}
	}

	sum := model.Summary{
		TotalWallets: len(accounts),
		TotalBalance: o.chain.FormatAmount(total),
		Symbol:       o.chain.Symbol(),
		ActiveProxy:  o.proxies.DescribeActive(),
		UpdatedAt:    time.Now(),
	}
	o.sink.SetSummary(sum)
	return sum
}

// ListAccounts returns the secret-free view of every account with its
// current balance.
func (o *Orchestrator) ListAccounts(ctx context.Context) ([]model.AccountBalance, error) {
	accounts, err := o.loadAccounts()
	if err != nil {
		return []model.AccountBalance{}, err
	}
	return o.accountBalances(accounts, o.fetchBalances(ctx, accounts)), nil
}

// AccountAddress returns the address stored at index without reading any
// balance.
func (o *Orchestrator) AccountAddress(index int) (string, error) {
	accounts, err := o.store.Load()
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(accounts) {
		return "", fmt.Errorf("%w: wallet index %d out of range [0, %d)", model.ErrInvalidInput, index, len(accounts))
	}
	return accounts[index].Address, nil
}

func (o *Orchestrator) accountBalances(accounts []model.Account, balances []balanceResult) []model.AccountBalance {
	list := make([]model.AccountBalance, len(accounts))
	for i, acc := range accounts {
		list[i] = model.AccountBalance{Index: i, Address: acc.Address}
		if res := balances[i]; res.err != nil {
			list[i].Error = res.err.Error()
		} else {
			list[i].Balance = o.chain.FormatAmount(res.balance)
		}
	}
	return list
}

func (o *Orchestrator) publishProxy() {
	sum := o.sink.Summary()
	sum.ActiveProxy = o.proxies.DescribeActive()
	sum.Symbol = o.chain.Symbol()
	sum.UpdatedAt = time.Now()
	o.sink.SetSummary(sum)
}
