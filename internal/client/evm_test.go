package client

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/AlexZinkM/faucetbot/internal/model"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainID = 10323

func dialTestEVM(t *testing.T, url string) *EVMClient {
	t.Helper()
	c, err := DialEVM(context.Background(), url, testChainID, "MARS", 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func receiptJSON(hash string, status string) map[string]any {
	return map[string]any{
		"status":            status,
		"cumulativeGasUsed": "0x5208",
		"gasUsed":           "0x5208",
		"logsBloom":         "0x" + strings.Repeat("0", 512),
		"logs":              []any{},
		"transactionHash":   hash,
		"blockNumber":       "0x1",
		"transactionIndex":  "0x0",
		"type":              "0x0",
	}
}

func TestEVMGetBalance(t *testing.T) {
	_, url := newFakeRPC(t, map[string]rpcHandler{
		"eth_getBalance": func(params []json.RawMessage) (any, string) {
			return "0xde0b6b3a7640000", "" // 1 ether
		},
	})
	c := dialTestEVM(t, url)

	bal, err := c.GetBalance(context.Background(), "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", bal.String())
	require.Equal(t, "1.0", c.FormatAmount(bal))

	_, err = c.GetBalance(context.Background(), "nope")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestEVMGetBalanceErrorIsNotZero(t *testing.T) {
	_, url := newFakeRPC(t, map[string]rpcHandler{
		"eth_getBalance": func([]json.RawMessage) (any, string) { return nil, "node down" },
	})
	c := dialTestEVM(t, url)

	bal, err := c.GetBalance(context.Background(), "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")
	require.ErrorIs(t, err, model.ErrNetworkFailure)
	require.Nil(t, bal)
}

func TestEVMGetBalanceKeepsContextError(t *testing.T) {
	_, url := newFakeRPC(t, nil)
	c := dialTestEVM(t, url)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetBalance(ctx, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")
	require.ErrorIs(t, err, model.ErrNetworkFailure)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEVMSendTransferAndWait(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := model.Account{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}
	to := "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"

	var sent *types.Transaction
	receiptPolls := 0
	fake, url := newFakeRPC(t, map[string]rpcHandler{
		"eth_getTransactionCount": func([]json.RawMessage) (any, string) { return "0x7", "" },
		"eth_gasPrice":            func([]json.RawMessage) (any, string) { return "0x3b9aca00", "" },
		"eth_estimateGas":         func([]json.RawMessage) (any, string) { return "0x5208", "" },
		"eth_sendRawTransaction": func(params []json.RawMessage) (any, string) {
			var raw string
			_ = json.Unmarshal(params[0], &raw)
			tx := new(types.Transaction)
			if err := tx.UnmarshalBinary(hexutil.MustDecode(raw)); err != nil {
				return nil, err.Error()
			}
			sent = tx
			return tx.Hash().Hex(), ""
		},
		"eth_getTransactionReceipt": func(params []json.RawMessage) (any, string) {
			receiptPolls++
			if receiptPolls < 3 {
				return nil, ""
			}
			var hash string
			_ = json.Unmarshal(params[0], &hash)
			return receiptJSON(hash, "0x1"), ""
		},
	})
	c := dialTestEVM(t, url)

	amount, err := c.ParseAmount("0.5")
	require.NoError(t, err)

	hash, err := c.SendTransfer(context.Background(), from, to, amount)
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, sent.Hash().Hex(), hash)
	assert.Equal(t, uint64(7), sent.Nonce())
	assert.Equal(t, amount, sent.Value())
	assert.Equal(t, ethcommon.HexToAddress(to), *sent.To())
	assert.Equal(t, big.NewInt(testChainID), sent.ChainId())

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(testChainID)), sent)
	require.NoError(t, err)
	assert.Equal(t, from.Address, sender.Hex())

	ok, err := c.WaitConfirmed(context.Background(), hash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, fake.count("eth_getTransactionReceipt"))
}

func TestEVMWaitConfirmedReverted(t *testing.T) {
	_, url := newFakeRPC(t, map[string]rpcHandler{
		"eth_getTransactionReceipt": func(params []json.RawMessage) (any, string) {
			var hash string
			_ = json.Unmarshal(params[0], &hash)
			return receiptJSON(hash, "0x0"), ""
		},
	})
	c := dialTestEVM(t, url)

	ok, err := c.WaitConfirmed(context.Background(), "0x"+strings.Repeat("ab", 32))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEVMWaitConfirmedHonoursContext(t *testing.T) {
	_, url := newFakeRPC(t, map[string]rpcHandler{
		"eth_getTransactionReceipt": func([]json.RawMessage) (any, string) { return nil, "" },
	})
	c := dialTestEVM(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.WaitConfirmed(ctx, "0x"+strings.Repeat("ab", 32))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEVMSendTransferRejectsMismatchedKey(t *testing.T) {
	_, url := newFakeRPC(t, nil)
	c := dialTestEVM(t, url)

	key, _ := crypto.GenerateKey()
	from := model.Account{
		Address:    "0x9858EfFD232B4033E47d90003D41EC34EcaEda94",
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}
	_, err := c.SendTransfer(context.Background(), from, from.Address, big.NewInt(1))
	require.ErrorContains(t, err, "does not match")
}

func TestEVMParseAmount(t *testing.T) {
	c := &EVMClient{}

	v, err := c.ParseAmount("1.5")
	require.NoError(t, err)
	require.Equal(t, "1500000000000000000", v.String())

	for _, bad := range []string{"abc", "", "0", "-1", "1.0000000000000000001", "1e18"} {
		_, err := c.ParseAmount(bad)
		require.ErrorIs(t, err, model.ErrInvalidAmount, bad)
	}
}

func TestValidateEVMAddress(t *testing.T) {
	require.NoError(t, ValidateEVMAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94"))
	require.NoError(t, ValidateEVMAddress("0x9858effd232b4033e47d90003d41ec34ecaeda94"))
	require.NoError(t, ValidateEVMAddress("0x9858EFFD232B4033E47D90003D41EC34ECAEDA94"))

	for _, bad := range []string{
		"",
		"9858EfFD232B4033E47d90003D41EC34EcaEda94",
		"0x9858EfFD232B4033E47d90003D41EC34EcaEda9",
		"0x9858efFD232B4033E47d90003D41EC34EcaEda94", // checksum broken
	} {
		require.ErrorIs(t, ValidateEVMAddress(bad), model.ErrInvalidInput, bad)
	}
}
