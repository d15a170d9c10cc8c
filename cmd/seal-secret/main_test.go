package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linearclockworks/shopify-serial--webhook/internal/security"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestSealThenOpen(t *testing.T) {
	key, err := security.NewKey()
	require.NoError(t, err)
	t.Setenv("TOKEN_ENC_KEY_B64", key)

	sealed, err := run(t, "shpat_abc\n", "seal")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "shpat_abc")

	plain, err := run(t, "", "open", "--", sealed)
	require.NoError(t, err)
	assert.Equal(t, "shpat_abc", plain)

	s, err := security.NewSealer(key)
	require.NoError(t, err)
	got, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "shpat_abc", got)
}

func TestSealFileWithKeyFlag(t *testing.T) {
	t.Setenv("TOKEN_ENC_KEY_B64", "")
	key, err := security.NewKey()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"service_account"}`+"\n"), 0o600))

	sealed, err := run(t, "", "seal", "--key", key, "--file", path)
	require.NoError(t, err)

	plain, err := run(t, "", "open", "--key", key, "--", sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, plain)
}

func TestSealNeedsKey(t *testing.T) {
	t.Setenv("TOKEN_ENC_KEY_B64", "")
	_, err := run(t, "", "seal", "x")
	require.ErrorContains(t, err, "no key")
}

func TestGenKey(t *testing.T) {
	k, err := run(t, "", "genkey")
	require.NoError(t, err)
	_, err = security.NewSealer(k)
	require.NoError(t, err)
}
