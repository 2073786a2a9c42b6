package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher("test-passphrase")
	require.NoError(t, err)

	for _, plaintext := range []string{
		"sk-abc123",
		"a",
		"ключ з юнікодом 🔑",
		"AIzaSyD-very-long-credential-with-dashes_and_underscores.1234567890",
	} {
		enc, err := c.EncryptString(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, enc)

		dec, err := c.DecryptString(enc)
		require.NoError(t, err)
		assert.Equal(t, plaintext, dec)
	}
}

func TestCipherNoncesDiffer(t *testing.T) {
	c, err := NewCipher("test-passphrase")
	require.NoError(t, err)

	a, err := c.EncryptString("same-secret")
	require.NoError(t, err)
	b, err := c.EncryptString("same-secret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCipherRejectsTamperedCiphertext(t *testing.T) {
	c, err := NewCipher("test-passphrase")
	require.NoError(t, err)

	_, err = c.DecryptString("not base64 at all!!!")
	assert.Error(t, err)

	_, err = c.DecryptString("c2hvcnQ=") // valid base64, shorter than a nonce
	assert.Error(t, err)
}

func TestCipherWrongPassphraseFails(t *testing.T) {
	c1, err := NewCipher("passphrase-one")
	require.NoError(t, err)
	c2, err := NewCipher("passphrase-two")
	require.NoError(t, err)

	enc, err := c1.EncryptString("secret")
	require.NoError(t, err)

	_, err = c2.DecryptString(enc)
	assert.Error(t, err)
}
