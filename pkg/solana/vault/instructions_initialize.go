package gasless_vault

import (
	"bytes"
	"crypto/ed25519"
)

var initializeInstructionDiscriminator = instructionDiscriminator("initialize")

const (
	InitializeInstructionArgsSize = 0

	InitializeInstructionSize = (8 + // discriminator
		InitializeInstructionArgsSize) // args
)

type InitializeInstructionAccounts struct {
	Authority ed25519.PublicKey
	Vault     ed25519.PublicKey
	Whitelist ed25519.PublicKey
}

func NewInitializeInstruction(
	accounts *InitializeInstructionAccounts,
) Instruction {
	var offset int

	data := make([]byte, InitializeInstructionSize)

	putDiscriminator(data, initializeInstructionDiscriminator, &offset)

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
				PublicKey:  accounts.Whitelist,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func InitializeInstructionFromBinary(instruction Instruction) (*InitializeInstructionAccounts, error) {
	if !bytes.Equal(instruction.Program, PROGRAM_ADDRESS) {
		return nil, ErrInvalidProgram
	}

	if len(instruction.Data) < InitializeInstructionSize {
		return nil, ErrInvalidInstructionData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(instruction.Data, &discriminator, &offset)
	if !bytes.Equal(discriminator, initializeInstructionDiscriminator) {
		return nil, ErrInvalidInstructionData
	}

	if len(instruction.Accounts) != 4 {
		return nil, ErrInvalidInstructionData
	}

	return &InitializeInstructionAccounts{
		Authority: instruction.Accounts[0].PublicKey,
		Vault:     instruction.Accounts[1].PublicKey,
		Whitelist: instruction.Accounts[2].PublicKey,
	}, nil
}
