package wallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/AlexZinkM/faucetbot/internal/model"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

// Generator creates one fresh account.
type Generator func() (model.Account, error)

// NewEVMAccount generates a mnemonic-backed secp256k1 account.
func NewEVMAccount() (model.Account, error) {
	mnemonic, err := NewMnemonic()
	if err != nil {
		return model.Account{}, err
	}
	return EVMAccountFromMnemonic(mnemonic)
}

// EVMAccountFromMnemonic derives the account at EVMPath.
func EVMAccountFromMnemonic(mnemonic string) (model.Account, error) {
	seed, err := Seed(mnemonic, "")
	if err != nil {
		return model.Account{}, err
	}
	defer clear(seed)

	key, err := DeriveECDSA(seed, EVMPath)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to derive key: %w", err)
	}

	return model.Account{
		Address:        crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey:     hexutil.Encode(crypto.FromECDSA(key)),
		MnemonicPhrase: mnemonic,
	}, nil
}

// NewSolanaAccount generates a mnemonic-backed ed25519 account.
func NewSolanaAccount() (model.Account, error) {
	mnemonic, err := NewMnemonic()
	if err != nil {
		return model.Account{}, err
	}
	return SolanaAccountFromMnemonic(mnemonic)
}

// SolanaAccountFromMnemonic uses the first 32 seed bytes as the ed25519
// seed, matching solana-keygen.
func SolanaAccountFromMnemonic(mnemonic string) (model.Account, error) {
	seed, err := Seed(mnemonic, "")
	if err != nil {
		return model.Account{}, err
	}
	defer clear(seed)

	priv := solana.PrivateKey(ed25519.NewKeyFromSeed(seed[:32]))

	return model.Account{
		Address:        priv.PublicKey().String(),
		PrivateKey:     priv.String(),
		MnemonicPhrase: mnemonic,
	}, nil
}
