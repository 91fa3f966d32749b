package crypto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestEncryptDecryptWalletKey_RoundTrip(t *testing.T) {
	blob, err := EncryptWalletKey("0x"+testKeyHex, "hunter2")
	require.NoError(t, err)

	got, err := DecryptWalletKey(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestDecryptWalletKey_WrongPassword(t *testing.T) {
	blob, err := EncryptWalletKey(testKeyHex, "right")
	require.NoError(t, err)

	_, err = DecryptWalletKey(blob, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")
}

func TestLoadWalletKey_RawWinsOverFile(t *testing.T) {
	got, err := LoadWalletKey(KeyConfig{RawPrivateKey: "0x" + testKeyHex, EncryptedKeyPath: "/does/not/exist"})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestLoadWalletKey_EncryptedFile(t *testing.T) {
	blob, err := EncryptWalletKey(testKeyHex, "pw")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err := LoadWalletKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestLoadWalletKey_NoSource(t *testing.T) {
	_, err := LoadWalletKey(KeyConfig{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no wallet key source"))
}
