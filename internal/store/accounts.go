package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AlexZinkM/faucetbot/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// AccountStore is the durable, append-only registry of generated wallets.
// The whole list is one JSON document that is rewritten on every append.
type AccountStore struct {
	path string
	mu   sync.Mutex
}

func NewAccountStore(path string) *AccountStore {
	return &AccountStore{path: path}
}

func (s *AccountStore) Path() string {
	return s.path
}

// Load returns every stored account in insertion order. A missing file is an
// empty store. On a read or parse failure Load still returns an empty, usable
// slice together with an error wrapping model.ErrPersistenceFailure.
func (s *AccountStore) Load() ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read()
	if err != nil {
		return []model.Account{}, err
	}
	return accounts, nil
}

// Append re-reads the file, adds account at the end and atomically replaces
// the file with the full list. An unreadable file is never overwritten.
func (s *AccountStore) Append(account model.Account) error {
	if account.Address == "" {
		return fmt.Errorf("%w: account has no address", model.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a.Address == account.Address {
			return fmt.Errorf("%w: account %s already stored", model.ErrPersistenceFailure, account.Address)
		}
	}
	accounts = append(accounts, account)

	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal accounts: %v", model.ErrPersistenceFailure, err)
	}
	if err := writeFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistenceFailure, err)
	}
	return nil
}

// read must be called with s.mu held.
func (s *AccountStore) read() ([]model.Account, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Account{}, nil
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", model.ErrPersistenceFailure, s.path, err)
	}

	// Skip UTF-8 BOM if present
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Account{}, nil
	}

	var accounts []model.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", model.ErrPersistenceFailure, s.path, err)
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it over path, so readers see either the old or the new document.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
