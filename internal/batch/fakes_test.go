package batch

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/faucetbot/internal/common"
	"github.com/AlexZinkM/faucetbot/internal/model"
)

type memStore struct {
	mu        sync.Mutex
	accounts  []model.Account
	appendErr error
	loadErr   error
}

func (s *memStore) Load() ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return []model.Account{}, s.loadErr
	}
	return append([]model.Account{}, s.accounts...), nil
}

func (s *memStore) Append(acc model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.accounts = append(s.accounts, acc)
	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

type claimCall struct {
	address string
	proxy   string
}

type fakeFaucet struct {
	mu      sync.Mutex
	claims  []claimCall
	ipErr   error
	outcome func(address string) model.Outcome

	// When set, Claim signals entered and blocks until release is closed.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeFaucet) EgressIP(_ context.Context, proxy string) (string, error) {
	if f.ipErr != nil {
		return "", f.ipErr
	}
	return "203.0.113.1", nil
}

func (f *fakeFaucet) Claim(_ context.Context, address, proxy string) model.Outcome {
	f.mu.Lock()
	f.claims = append(f.claims, claimCall{address: address, proxy: proxy})
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	if f.outcome != nil {
		return f.outcome(address)
	}
	return model.Outcome{Succeeded: true, Detail: "0xhash-" + address}
}

func (f *fakeFaucet) calls() []claimCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]claimCall{}, f.claims...)
}

type sendCall struct {
	from   string
	to     string
	amount *big.Int
}

// fakeChain works in integer units so balances read naturally in tests.
type fakeChain struct {
	mu          sync.Mutex
	balances    map[string]*big.Int
	balanceErrs map[string]error
	sends       []sendCall
	sendErr     error
	reverted    bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{balances: map[string]*big.Int{}, balanceErrs: map[string]error{}}
}

func (c *fakeChain) Symbol() string { return "MARS" }

func (c *fakeChain) GetBalance(_ context.Context, address string) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.balanceErrs[address]; err != nil {
		return nil, err
	}
	if b, ok := c.balances[address]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (c *fakeChain) SendTransfer(_ context.Context, from model.Account, to string, amount *big.Int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return "", c.sendErr
	}
	c.sends = append(c.sends, sendCall{from: from.Address, to: to, amount: amount})
	return fmt.Sprintf("0xtx%d", len(c.sends)), nil
}

func (c *fakeChain) WaitConfirmed(context.Context, string) (bool, error) {
	return !c.reverted, nil
}

func (c *fakeChain) ParseAmount(amount string) (*big.Int, error) {
	return common.ParsePositiveUnits(amount, 0)
}

func (c *fakeChain) FormatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

func (c *fakeChain) ValidateAddress(address string) error {
	if !strings.HasPrefix(address, "0x") {
		return errors.New("address must start with 0x")
	}
	return nil
}

func (c *fakeChain) sent() []sendCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sendCall{}, c.sends...)
}

// sequentialGenerator yields 0x…01, 0x…02, …
func sequentialGenerator() func() (model.Account, error) {
	var mu sync.Mutex
	n := 0
	return func() (model.Account, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return model.Account{
			Address:        fmt.Sprintf("0x%040d", n),
			PrivateKey:     fmt.Sprintf("key-%d", n),
			MnemonicPhrase: "words",
		}, nil
	}
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(cancel <-chan struct{}, d time.Duration) bool {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	select {
	case <-cancel:
		return false
	default:
		return true
	}
}

func (s *sleepRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}

type selectorFunc func(ctx context.Context, accounts []model.AccountBalance) (int, error)

func (f selectorFunc) Select(ctx context.Context, accounts []model.AccountBalance) (int, error) {
	return f(ctx, accounts)
}

type countingConfirmer struct {
	answer bool
	mu     sync.Mutex
	calls  int
	prompt string
}

func (c *countingConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.prompt = prompt
	return c.answer, nil
}
