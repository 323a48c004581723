package wallet

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const abandonMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestSeedMatchesReferenceVector(t *testing.T) {
	seed, err := Seed(abandonMnemonic, "TREZOR")
	require.NoError(t, err)
	require.Equal(t,
		"c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04",
		hex.EncodeToString(seed))
}

func TestSeedRejectsInvalidMnemonic(t *testing.T) {
	_, err := Seed("abandon abandon abandon", "")
	require.Error(t, err)
}

func TestEVMAccountFromMnemonic(t *testing.T) {
	acc, err := EVMAccountFromMnemonic(abandonMnemonic)
	require.NoError(t, err)

	require.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", acc.Address)
	require.Equal(t, abandonMnemonic, acc.MnemonicPhrase)

	key, err := crypto.HexToECDSA(strings.TrimPrefix(acc.PrivateKey, "0x"))
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(acc.Address), crypto.PubkeyToAddress(key.PublicKey))
}

func TestNewEVMAccountIsUnique(t *testing.T) {
	a, err := NewEVMAccount()
	require.NoError(t, err)
	b, err := NewEVMAccount()
	require.NoError(t, err)

	require.NotEqual(t, a.Address, b.Address)
	require.Len(t, strings.Fields(a.MnemonicPhrase), 12)
	require.True(t, common.IsHexAddress(a.Address))

	raw, err := hexutil.Decode(a.PrivateKey)
	require.NoError(t, err)
	require.Len(t, raw, 32)
}

func TestSolanaAccountFromMnemonic(t *testing.T) {
	acc, err := SolanaAccountFromMnemonic(abandonMnemonic)
	require.NoError(t, err)

	priv, err := solana.PrivateKeyFromBase58(acc.PrivateKey)
	require.NoError(t, err)
	require.Len(t, []byte(priv), 64)
	require.Equal(t, acc.Address, priv.PublicKey().String())

	seed, err := Seed(abandonMnemonic, "")
	require.NoError(t, err)
	require.True(t, bytes.Equal(seed[:32], priv[:32]))

	again, err := SolanaAccountFromMnemonic(abandonMnemonic)
	require.NoError(t, err)
	require.Equal(t, acc, again)
}

func TestNewSolanaAccount(t *testing.T) {
	acc, err := NewSolanaAccount()
	require.NoError(t, err)
	_, err = solana.PublicKeyFromBase58(acc.Address)
	require.NoError(t, err)
}

func TestDerivationIsPathSensitive(t *testing.T) {
	seed, err := Seed(abandonMnemonic, "")
	require.NoError(t, err)

	k0, err := DeriveECDSA(seed, EVMPath)
	require.NoError(t, err)

	next := append([]uint32{}, EVMPath...)
	next[len(next)-1] = 1
	k1, err := DeriveECDSA(seed, next)
	require.NoError(t, err)

	assert.NotEqual(t, crypto.FromECDSA(k0), crypto.FromECDSA(k1))
}

func TestWriteAddressQR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addr.png")
	require.NoError(t, WriteAddressQR("0x9858EfFD232B4033E47d90003D41EC34EcaEda94", path, 0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}
