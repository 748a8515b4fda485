package gasless_vault

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasless-labs/vault-server/pkg/solana"
)

func TestGetVaultAddress(t *testing.T) {
	address, bump, err := GetVaultAddress()
	require.NoError(t, err)
	require.Len(t, []byte(address), ed25519.PublicKeySize)

	// The derivation is deterministic and reproducible from the stored bump.
	again, bumpAgain, err := GetVaultAddress()
	require.NoError(t, err)
	assert.EqualValues(t, address, again)
	assert.Equal(t, bump, bumpAgain)

	fromBump, err := solana.CreateProgramAddress(PROGRAM_ID, vaultPrefix, []byte{bump})
	require.NoError(t, err)
	assert.EqualValues(t, address, fromBump)
}

func TestGetWhitelistAddress(t *testing.T) {
	vault, _, err := GetVaultAddress()
	require.NoError(t, err)

	address, bump, err := GetWhitelistAddress(&GetWhitelistAddressArgs{
		Vault: vault,
	})
	require.NoError(t, err)
	assert.NotEqualValues(t, vault, address)

	fromBump, err := solana.CreateProgramAddress(PROGRAM_ID, whitelistPrefix, vault, []byte{bump})
	require.NoError(t, err)
	assert.EqualValues(t, address, fromBump)
}

func TestGetTokenVaultAddress(t *testing.T) {
	vault, _, err := GetVaultAddress()
	require.NoError(t, err)

	mint1 := generateKey(t)
	mint2 := generateKey(t)

	address1, bump, err := GetTokenVaultAddress(&GetTokenVaultAddressArgs{
		Vault: vault,
		Mint:  mint1,
	})
	require.NoError(t, err)

	address2, _, err := GetTokenVaultAddress(&GetTokenVaultAddressArgs{
		Vault: vault,
		Mint:  mint2,
	})
	require.NoError(t, err)

	// Distinct mints map to distinct custody entries.
	assert.NotEqualValues(t, address1, address2)

	fromBump, err := solana.CreateProgramAddress(PROGRAM_ID, tokenVaultPrefix, vault, mint1, []byte{bump})
	require.NoError(t, err)
	assert.EqualValues(t, address1, fromBump)
}

func TestGetBorrowerAccountAddress(t *testing.T) {
	vault, _, err := GetVaultAddress()
	require.NoError(t, err)

	borrower1 := generateKey(t)
	borrower2 := generateKey(t)

	address1, bump, err := GetBorrowerAccountAddress(&GetBorrowerAccountAddressArgs{
		Vault:    vault,
		Borrower: borrower1,
	})
	require.NoError(t, err)

	address2, _, err := GetBorrowerAccountAddress(&GetBorrowerAccountAddressArgs{
		Vault:    vault,
		Borrower: borrower2,
	})
	require.NoError(t, err)

	assert.NotEqualValues(t, address1, address2)

	fromBump, err := solana.CreateProgramAddress(PROGRAM_ID, borrowerPrefix, vault, borrower1, []byte{bump})
	require.NoError(t, err)
	assert.EqualValues(t, address1, fromBump)
}

func generateKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}

func generateKeys(t *testing.T, count int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, count)
	for i := range keys {
		keys[i] = generateKey(t)
	}
	return keys
}
