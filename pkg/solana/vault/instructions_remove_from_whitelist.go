package gasless_vault

import (
	"bytes"
	"crypto/ed25519"
)

var removeFromWhitelistInstructionDiscriminator = instructionDiscriminator("remove_from_whitelist")

const (
	RemoveFromWhitelistInstructionArgsSize = 32 // address

	RemoveFromWhitelistInstructionSize = (8 + // discriminator
		RemoveFromWhitelistInstructionArgsSize) // args
)

type RemoveFromWhitelistInstructionArgs struct {
	Address ed25519.PublicKey
}

type RemoveFromWhitelistInstructionAccounts struct {
	Authority ed25519.PublicKey
	Vault     ed25519.PublicKey
	Whitelist ed25519.PublicKey
}

func NewRemoveFromWhitelistInstruction(
	accounts *RemoveFromWhitelistInstructionAccounts,
	args *RemoveFromWhitelistInstructionArgs,
) Instruction {
	var offset int

	data := make([]byte, RemoveFromWhitelistInstructionSize)

	putDiscriminator(data, removeFromWhitelistInstructionDiscriminator, &offset)
	putKey(data, args.Address, &offset)

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
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Whitelist,
				IsWritable: true,
				IsSigner:   false,
			},
		},
	}
}

func RemoveFromWhitelistInstructionFromBinary(instruction Instruction) (*RemoveFromWhitelistInstructionArgs, *RemoveFromWhitelistInstructionAccounts, error) {
	if !bytes.Equal(instruction.Program, PROGRAM_ADDRESS) {
		return nil, nil, ErrInvalidProgram
	}

	if len(instruction.Data) < RemoveFromWhitelistInstructionSize {
		return nil, nil, ErrInvalidInstructionData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(instruction.Data, &discriminator, &offset)
	if !bytes.Equal(discriminator, removeFromWhitelistInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args RemoveFromWhitelistInstructionArgs
	getKey(instruction.Data, &args.Address, &offset)

	if len(instruction.Accounts) != 3 {
		return nil, nil, ErrInvalidInstructionData
	}

	accounts := &RemoveFromWhitelistInstructionAccounts{
		Authority: instruction.Accounts[0].PublicKey,
		Vault:     instruction.Accounts[1].PublicKey,
		Whitelist: instruction.Accounts[2].PublicKey,
	}

	return &args, accounts, nil
}
