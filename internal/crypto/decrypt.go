package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/faucetbot/internal/model"
)

// ErrWrongPassword is returned when the keystore does not open with the
// given password.
var ErrWrongPassword = errors.New("invalid password")

var errEmptyFile = errors.New("file is empty")

// ReadKeystore reads the keystore header without decrypting it.
func ReadKeystore(filePath string) (*model.Keystore, error) {
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read keystore: %w", model.ErrPersistenceFailure, err)
	}
	fileData = bytes.TrimPrefix(fileData, utf8BOM)
	if len(bytes.TrimSpace(fileData)) == 0 {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrPersistenceFailure, filePath, errEmptyFile)
	}

	var ks model.Keystore
	if err := json.Unmarshal(fileData, &ks); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal keystore: %w", model.ErrPersistenceFailure, err)
	}
	if ks.Version != keystoreVersion {
		return nil, fmt.Errorf("%w: unsupported keystore version %d", model.ErrInvalidInput, ks.Version)
	}
	return &ks, nil
}

// DecryptAccount opens the keystore at filePath.
// password must be []byte so the caller can zero it after use.
func DecryptAccount(filePath string, password []byte) (*model.Keystore, model.Account, error) {
	ks, err := ReadKeystore(filePath)
	if err != nil {
		return nil, model.Account{}, err
	}

	salt, err := base64.StdEncoding.DecodeString(ks.Salt)
	if err != nil {
		return nil, model.Account{}, fmt.Errorf("%w: failed to decode salt: %w", model.ErrInvalidInput, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(ks.Nonce)
	if err != nil {
		return nil, model.Account{}, fmt.Errorf("%w: failed to decode nonce: %w", model.ErrInvalidInput, err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(ks.CipherText)
	if err != nil {
		return nil, model.Account{}, fmt.Errorf("%w: failed to decode ciphertext: %w", model.ErrInvalidInput, err)
	}

	aesGCM, err := deriveGCM(password, salt)
	if err != nil {
		return nil, model.Account{}, err
	}
	if len(nonce) != aesGCM.NonceSize() {
		return nil, model.Account{}, fmt.Errorf("%w: bad nonce length %d", model.ErrInvalidInput, len(nonce))
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, model.Account{}, fmt.Errorf("%w: %w", model.ErrInvalidInput, ErrWrongPassword)
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var account model.Account
	if err := json.Unmarshal(plaintext, &account); err != nil {
		return nil, model.Account{}, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	if account.Address != ks.Address {
		return nil, model.Account{}, fmt.Errorf("%w: keystore address %s does not match its contents", model.ErrInvalidInput, ks.Address)
	}
	return ks, account, nil
}
