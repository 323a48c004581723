package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/AlexZinkM/faucetbot/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	keystoreVersion = 1

	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// N=2^18 needs ~256MB and 0.5-2s per derivation.
var scryptN = 1 << 18

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func deriveGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

// EncryptAccount seals account under password and writes the keystore to
// filePath. A non-empty existing file is never overwritten.
// password must be []byte so the caller can zero it after use.
func EncryptAccount(filePath, network string, account model.Account, password []byte) error {
	if len(password) == 0 {
		return fmt.Errorf("%w: password must not be empty", model.ErrInvalidInput)
	}
	if account.Address == "" {
		return fmt.Errorf("%w: account has no address", model.ErrInvalidInput)
	}

	if info, err := os.Stat(filePath); err == nil && info.Size() > 0 {
		return fmt.Errorf("%w: %s: %w", model.ErrPersistenceFailure, filePath, os.ErrExist)
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := deriveGCM(password, salt)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	ks := model.Keystore{
		Version:    keystoreVersion,
		Network:    network,
		Address:    account.Address,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(aesGCM.Seal(nil, nonce, plaintext, nil)),
	}
	fileData, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keystore: %w", err)
	}

	// BOM for proper display in Windows editors
	if err := os.WriteFile(filePath, append(utf8BOM, fileData...), 0600); err != nil {
		return fmt.Errorf("%w: failed to write keystore: %w", model.ErrPersistenceFailure, err)
	}
	return nil
}
