package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

const entropyBits = 128 // 12 words

// NewMnemonic returns a fresh 12-word English BIP-39 phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("failed to read entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to build mnemonic: %w", err)
	}
	return mnemonic, nil
}

// Seed stretches a mnemonic into the 64-byte BIP-39 seed.
func Seed(mnemonic, passphrase string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	return seed, nil
}
