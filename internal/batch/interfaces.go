package batch

import (
	"context"
	"math/big"

	"github.com/AlexZinkM/faucetbot/internal/model"
)

// FaucetClient requests test tokens for an address through an egress proxy.
// An empty proxy means a direct connection.
type FaucetClient interface {
	// EgressIP reports the public IP the faucet will see for proxy.
	EgressIP(ctx context.Context, proxy string) (string, error)
	// Claim never returns an error; failures come back as a failed Outcome.
	Claim(ctx context.Context, address, proxy string) model.Outcome
}

// ChainClient reads balances and moves funds. Amounts are minor units.
type ChainClient interface {
	Symbol() string
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	SendTransfer(ctx context.Context, from model.Account, to string, amount *big.Int) (txHash string, err error)
	WaitConfirmed(ctx context.Context, txHash string) (bool, error)
	ParseAmount(amount string) (*big.Int, error)
	FormatAmount(amount *big.Int) string
	ValidateAddress(address string) error
}

type AccountStore interface {
	Load() ([]model.Account, error)
	Append(account model.Account) error
}

type ProxyPool interface {
	Select() string
	SetActive(endpoint string) error
	DescribeActive() string
}

// Selector picks one account for the single-wallet workflows. It returns
// model.ErrCancelled when the user backs out.
type Selector interface {
	Select(ctx context.Context, accounts []model.AccountBalance) (int, error)
}

// Confirmer gates fund-moving batch actions behind an explicit yes.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// StaticSelector always picks Index. Used where the choice arrives with the
// request instead of through an interactive prompt.
type StaticSelector struct {
	Index int
}

func (s StaticSelector) Select(_ context.Context, accounts []model.AccountBalance) (int, error) {
	return s.Index, nil
}

// StaticConfirmer answers every confirmation with Answer.
type StaticConfirmer struct {
	Answer bool
}

func (c StaticConfirmer) Confirm(context.Context, string) (bool, error) {
	return c.Answer, nil
}
