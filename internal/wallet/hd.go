package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
)

// EVMPath is m/44'/60'/0'/0/0, the first account of the default
// Ethereum derivation used by MetaMask and ethers.
var EVMPath = []uint32{
	44 + bip32.FirstHardenedChild,
	60 + bip32.FirstHardenedChild,
	0 + bip32.FirstHardenedChild,
	0,
	0,
}

// DeriveECDSA walks path from the BIP-32 master key of seed.
func DeriveECDSA(seed []byte, path []uint32) (*ecdsa.PrivateKey, error) {
	k, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}
	for _, index := range path {
		if k, err = k.NewChildKey(index); err != nil {
			return nil, fmt.Errorf("failed to derive child %d: %w", index, err)
		}
	}
	// child scalars can come back shorter than 32 bytes
	return crypto.ToECDSA(common.LeftPadBytes(k.Key, 32))
}
