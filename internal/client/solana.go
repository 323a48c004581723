package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/AlexZinkM/faucetbot/internal/common"
	"github.com/AlexZinkM/faucetbot/internal/model"
	"github.com/AlexZinkM/faucetbot/internal/proxy"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// SolanaClient is a ChainClient for Solana RPC, amounts in lamports
type SolanaClient struct {
	rpcClient    *rpc.Client
	symbol       string
	pollInterval time.Duration
}

// NewSolanaClient creates a new Solana client for rpcURL.
func NewSolanaClient(rpcURL, symbol string, pollInterval time.Duration) *SolanaClient {
	return &SolanaClient{
		rpcClient:    rpc.New(rpcURL),
		symbol:       symbol,
		pollInterval: pollInterval,
	}
}

func (c *SolanaClient) Close() {
	_ = c.rpcClient.Close()
}

func (c *SolanaClient) Symbol() string {
	return c.symbol
}

// GetBalance gets SOL balance in lamports
func (c *SolanaClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid Solana address: %w", model.ErrInvalidInput, err)
	}

	balance, err := c.rpcClient.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get SOL balance: %w", model.ErrNetworkFailure, err)
	}
	return new(big.Int).SetUint64(balance.Value), nil
}

// SendTransfer creates, signs and sends a SOL transfer. It returns the
// transaction signature.
func (c *SolanaClient) SendTransfer(ctx context.Context, from model.Account, to string, amount *big.Int) (string, error) {
	toPubkey, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("%w: invalid to address: %w", model.ErrInvalidInput, err)
	}
	if amount == nil || amount.Sign() <= 0 || !amount.IsUint64() {
		return "", fmt.Errorf("%w: lamports out of range", model.ErrInvalidAmount)
	}

	wallet, err := solana.PrivateKeyFromBase58(from.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("invalid private key for %s: %w", from.Address, err)
	}
	// Verify wallet matches from address
	if wallet.PublicKey().String() != from.Address {
		return "", fmt.Errorf("private key does not match address %s", from.Address)
	}
	owner := wallet.PublicKey()

	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("%w: failed to get recent blockhash: %w", model.ErrNetworkFailure, err)
	}

	transferInstruction := system.NewTransferInstruction(
		amount.Uint64(),
		owner,
		toPubkey,
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{transferInstruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(owner),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if owner.Equals(key) {
			return &wallet
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentFinalized,
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send transaction: %w", model.ErrNetworkFailure, err)
	}

	return sig.String(), nil
}

// WaitConfirmed polls the signature status until it reaches confirmed
// commitment. A transaction error counts as reverted.
func (c *SolanaClient) WaitConfirmed(ctx context.Context, signature string) (bool, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return false, fmt.Errorf("%w: invalid signature: %w", model.ErrInvalidInput, err)
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		out, err := c.rpcClient.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, fmt.Errorf("%w: failed to get signature status: %w", model.ErrNetworkFailure, err)
		}
		if out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return false, nil
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return true, nil
			}
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ParseAmount converts SOL to lamports
func (c *SolanaClient) ParseAmount(amount string) (*big.Int, error) {
	lamports, err := common.ParsePositiveUnits(amount, common.SOLDecimals)
	if err != nil {
		return nil, err
	}
	if !lamports.IsUint64() {
		return nil, fmt.Errorf("%w: %s SOL exceeds the lamport range", model.ErrInvalidAmount, amount)
	}
	return lamports, nil
}

func (c *SolanaClient) FormatAmount(lamports *big.Int) string {
	return common.FormatUnits(lamports, common.SOLDecimals)
}

func (c *SolanaClient) ValidateAddress(address string) error {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return fmt.Errorf("%w: invalid Solana address %q: %w", model.ErrInvalidInput, address, err)
	}
	return nil
}

// AirdropFaucet claims SOL through the RPC requestAirdrop method, sending
// the request through the chosen egress proxy.
type AirdropFaucet struct {
	*IPLookup

	rpcURL   string
	lamports uint64
	timeout  time.Duration
}

func NewAirdropFaucet(rpcURL string, lamports uint64, lookup *IPLookup, timeout time.Duration) *AirdropFaucet {
	return &AirdropFaucet{
		IPLookup: lookup,
		rpcURL:   rpcURL,
		lamports: lamports,
		timeout:  timeout,
	}
}

func (f *AirdropFaucet) Claim(ctx context.Context, address, endpoint string) model.Outcome {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return failed(fmt.Sprintf("invalid Solana address: %v", err))
	}

	httpClient, err := proxy.NewHTTPClient(endpoint, f.timeout)
	if err != nil {
		return failed(err.Error())
	}
	rpcClient := rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(f.rpcURL, &jsonrpc.RPCClientOpts{
		HTTPClient:    httpClient,
		CustomHeaders: map[string]string{"User-Agent": RandomUserAgent()},
	}))

	sig, err := rpcClient.RequestAirdrop(ctx, owner, f.lamports, rpc.CommitmentConfirmed)
	if err != nil {
		return failed(err.Error())
	}
	return model.Outcome{Succeeded: true, Detail: sig.String()}
}
