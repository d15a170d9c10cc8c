package security

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
}

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)

	sealed, err := s.Seal("shpat_secret")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "shpat_secret")

	again, err := s.Seal("shpat_secret")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	pt, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "shpat_secret", pt)
}

func TestSealerRejectsTampering(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)
	sealed, err := s.Seal("x")
	require.NoError(t, err)

	raw, _ := base64.RawURLEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff
	_, err = s.Open(base64.RawURLEncoding.EncodeToString(raw))
	require.Error(t, err)

	_, err = s.Open("AA")
	require.Error(t, err)
}

func TestNewSealerKeyLength(t *testing.T) {
	_, err := NewSealer(base64.StdEncoding.EncodeToString([]byte("short")))
	require.ErrorContains(t, err, "32 bytes")

	_, err = NewSealer("not base64!")
	require.Error(t, err)
}

func TestNewKey(t *testing.T) {
	k, err := NewKey()
	require.NoError(t, err)
	other, err := NewKey()
	require.NoError(t, err)
	assert.NotEqual(t, k, other)

	_, err = NewSealer(k)
	require.NoError(t, err)
}

func TestVerifyWebhook(t *testing.T) {
	body := []byte(`{"id":820982911946154508,"name":"#1001"}`)
	sig := SignWebhook("hush", body)

	require.NoError(t, VerifyWebhook("hush", body, sig))
	require.NoError(t, VerifyWebhook("hush", body, " "+sig+" "))

	assert.ErrorIs(t, VerifyWebhook("hush", body, ""), ErrMissingSignature)
	assert.ErrorIs(t, VerifyWebhook("other", body, sig), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyWebhook("hush", append(body, ' '), sig), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyWebhook("hush", body, "%%%"), ErrInvalidSignature)
}
