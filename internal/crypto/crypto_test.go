package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AlexZinkM/faucetbot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	scryptN = 1 << 10
}

var testAccount = model.Account{
	Address:        "0x9858EfFD232B4033E47d90003D41EC34EcaEda94",
	PrivateKey:     "0x1ab42cc412b618bdea3a599e3c9bae199ebf030895b039e9db1e30dafb12b727",
	MnemonicPhrase: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
}

func TestEncryptDecryptAccount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, EncryptAccount(path, "evm", testAccount, []byte("hunter2")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), testAccount.PrivateKey)
	assert.NotContains(t, string(raw), "abandon")
	assert.Equal(t, utf8BOM, raw[:3])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	ks, acc, err := DecryptAccount(path, []byte("hunter2"))
	require.NoError(t, err)
	assert.Equal(t, testAccount, acc)
	assert.Equal(t, "evm", ks.Network)

	ks, err = ReadKeystore(path)
	require.NoError(t, err)
	assert.Equal(t, testAccount.Address, ks.Address)
}

func TestDecryptWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, EncryptAccount(path, "evm", testAccount, []byte("hunter2")))

	_, _, err := DecryptAccount(path, []byte("hunter3"))
	require.ErrorIs(t, err, ErrWrongPassword)
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestEncryptRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0600))

	err := EncryptAccount(path, "evm", testAccount, []byte("pw"))
	require.ErrorIs(t, err, os.ErrExist)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestEncryptRejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()
	require.ErrorIs(t, EncryptAccount(filepath.Join(dir, "a.json"), "evm", testAccount, nil), model.ErrInvalidInput)
	require.ErrorIs(t, EncryptAccount(filepath.Join(dir, "b.json"), "evm", model.Account{}, []byte("pw")), model.ErrInvalidInput)
}

func TestReadKeystoreErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadKeystore(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, model.ErrPersistenceFailure)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	_, err = ReadKeystore(empty)
	require.ErrorIs(t, err, errEmptyFile)

	future := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(future, []byte(`{"version":9}`), 0600))
	_, err = ReadKeystore(future)
	require.ErrorIs(t, err, model.ErrInvalidInput)
}
