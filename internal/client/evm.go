package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/AlexZinkM/faucetbot/internal/common"
	"github.com/AlexZinkM/faucetbot/internal/model"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const transferGas uint64 = 21000

// EVMClient is a ChainClient for EVM networks
type EVMClient struct {
	rpcClient    *ethclient.Client
	chainID      *big.Int
	symbol       string
	pollInterval time.Duration
}

// DialEVM connects to rpcURL. A zero chainID is fetched from the node.
func DialEVM(ctx context.Context, rpcURL string, chainID int64, symbol string, pollInterval time.Duration) (*EVMClient, error) {
	rpcClient, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}

	id := big.NewInt(chainID)
	if chainID == 0 {
		id, err = rpcClient.ChainID(ctx)
		if err != nil {
			rpcClient.Close()
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
	}

	return &EVMClient{
		rpcClient:    rpcClient,
		chainID:      id,
		symbol:       symbol,
		pollInterval: pollInterval,
	}, nil
}

func (c *EVMClient) Close() {
	c.rpcClient.Close()
}

func (c *EVMClient) Symbol() string {
	return c.symbol
}

// GetBalance gets the latest balance in wei
func (c *EVMClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if !ethcommon.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: invalid address %q", model.ErrInvalidInput, address)
	}
	balance, err := c.rpcClient.BalanceAt(ctx, ethcommon.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get balance: %w", model.ErrNetworkFailure, err)
	}
	return balance, nil
}

// SendTransfer signs and submits a legacy value transfer and returns its
// hash without waiting for inclusion.
func (c *EVMClient) SendTransfer(ctx context.Context, from model.Account, to string, amount *big.Int) (string, error) {
	if err := c.ValidateAddress(to); err != nil {
		return "", err
	}
	if amount == nil || amount.Sign() <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", model.ErrInvalidAmount)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(from.PrivateKey, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key for %s: %w", from.Address, err)
	}
	sender := crypto.PubkeyToAddress(key.PublicKey)
	if !strings.EqualFold(sender.Hex(), from.Address) {
		return "", fmt.Errorf("private key does not match address %s", from.Address)
	}
	recipient := ethcommon.HexToAddress(to)

	nonce, err := c.rpcClient.PendingNonceAt(ctx, sender)
	if err != nil {
		return "", fmt.Errorf("%w: failed to get nonce: %w", model.ErrNetworkFailure, err)
	}
	gasPrice, err := c.rpcClient.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: failed to get gas price: %w", model.ErrNetworkFailure, err)
	}
	gas, err := c.rpcClient.EstimateGas(ctx, ethereum.CallMsg{From: sender, To: &recipient, Value: amount})
	if err != nil || gas == 0 {
		gas = transferGas
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &recipient,
		Value:    amount,
		Gas:      gas,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.rpcClient.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("%w: failed to send transaction: %w", model.ErrNetworkFailure, err)
	}
	return signed.Hash().Hex(), nil
}

// WaitConfirmed polls for the receipt of txHash. It reports true for a
// successful receipt and false for a reverted one.
func (c *EVMClient) WaitConfirmed(ctx context.Context, txHash string) (bool, error) {
	hash := ethcommon.HexToHash(txHash)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.rpcClient.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			return receipt.Status == types.ReceiptStatusSuccessful, nil
		case ctx.Err() != nil:
			return false, ctx.Err()
		case !errors.Is(err, ethereum.NotFound):
			return false, fmt.Errorf("%w: failed to get receipt: %w", model.ErrNetworkFailure, err)
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ParseAmount converts a decimal amount in ether units to wei
func (c *EVMClient) ParseAmount(amount string) (*big.Int, error) {
	return common.ParsePositiveUnits(amount, common.EVMDecimals)
}

func (c *EVMClient) FormatAmount(wei *big.Int) string {
	return common.FormatUnits(wei, common.EVMDecimals)
}

// ValidateAddress accepts 0x-prefixed hex addresses. Mixed-case input must
// carry a valid EIP-55 checksum.
func (c *EVMClient) ValidateAddress(address string) error {
	return ValidateEVMAddress(address)
}

func ValidateEVMAddress(address string) error {
	if !strings.HasPrefix(address, "0x") || !ethcommon.IsHexAddress(address) {
		return fmt.Errorf("%w: invalid address %q", model.ErrInvalidInput, address)
	}
	body := address[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if ethcommon.HexToAddress(address).Hex() != address {
			return fmt.Errorf("%w: bad checksum for address %q", model.ErrInvalidInput, address)
		}
	}
	return nil
}
