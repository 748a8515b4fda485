package gasless_vault

import (
	"crypto/ed25519"

	"github.com/gasless-labs/vault-server/pkg/solana"
)

var (
	vaultPrefix      = []byte("vault")
	whitelistPrefix  = []byte("whitelist")
	tokenVaultPrefix = []byte("token_vault")
	borrowerPrefix   = []byte("borrower")
)

func GetVaultAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		vaultPrefix,
	)
}

type GetWhitelistAddressArgs struct {
	Vault ed25519.PublicKey
}

func GetWhitelistAddress(args *GetWhitelistAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		whitelistPrefix,
		args.Vault,
	)
}

type GetTokenVaultAddressArgs struct {
	Vault ed25519.PublicKey
	Mint  ed25519.PublicKey
}

func GetTokenVaultAddress(args *GetTokenVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		tokenVaultPrefix,
		args.Vault,
		args.Mint,
	)
}

type GetBorrowerAccountAddressArgs struct {
	Vault    ed25519.PublicKey
	Borrower ed25519.PublicKey
}

func GetBorrowerAccountAddress(args *GetBorrowerAccountAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		borrowerPrefix,
		args.Vault,
		args.Borrower,
	)
}
