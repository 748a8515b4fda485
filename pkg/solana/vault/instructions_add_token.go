package gasless_vault

import (
	"bytes"
	"crypto/ed25519"
)

var addTokenInstructionDiscriminator = instructionDiscriminator("add_token")

const (
	AddTokenInstructionArgsSize = 0

	AddTokenInstructionSize = (8 + // discriminator
		AddTokenInstructionArgsSize) // args
)

type AddTokenInstructionAccounts struct {
	Authority ed25519.PublicKey
	Vault     ed25519.PublicKey
	Mint      ed25519.PublicKey

	// PDA record binding the mint to its custody account.
	TokenVault ed25519.PublicKey

	// Fresh keypair for the custody token account; must co-sign its own
	// creation.
	TokenAccount ed25519.PublicKey
}

func NewAddTokenInstruction(
	accounts *AddTokenInstructionAccounts,
) Instruction {
	var offset int

	data := make([]byte, AddTokenInstructionSize)

	putDiscriminator(data, addTokenInstructionDiscriminator, &offset)

	return Instruction{
		Program: PROGRAM_ADDRESS,

		Data: data,

		Accounts: []AccountMeta{
			{
				PublicKey:  accounts.Authority,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Mint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.TokenVault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.TokenAccount,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSVAR_RENT_PUBKEY,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func AddTokenInstructionFromBinary(instruction Instruction) (*AddTokenInstructionAccounts, error) {
	if !bytes.Equal(instruction.Program, PROGRAM_ADDRESS) {
		return nil, ErrInvalidProgram
	}

	if len(instruction.Data) < AddTokenInstructionSize {
		return nil, ErrInvalidInstructionData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(instruction.Data, &discriminator, &offset)
	if !bytes.Equal(discriminator, addTokenInstructionDiscriminator) {
		return nil, ErrInvalidInstructionData
	}

	if len(instruction.Accounts) != 8 {
		return nil, ErrInvalidInstructionData
	}

	return &AddTokenInstructionAccounts{
		Authority:    instruction.Accounts[0].PublicKey,
		Vault:        instruction.Accounts[1].PublicKey,
		Mint:         instruction.Accounts[2].PublicKey,
		TokenVault:   instruction.Accounts[3].PublicKey,
		TokenAccount: instruction.Accounts[4].PublicKey,
	}, nil
}
