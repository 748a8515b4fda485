package gasless_vault

import (
	"bytes"
	"crypto/ed25519"
)

var addToWhitelistInstructionDiscriminator = instructionDiscriminator("add_to_whitelist")

const (
	AddToWhitelistInstructionArgsSize = 32 // address

	AddToWhitelistInstructionSize = (8 + // discriminator
		AddToWhitelistInstructionArgsSize) // args
)

type AddToWhitelistInstructionArgs struct {
	Address ed25519.PublicKey
}

type AddToWhitelistInstructionAccounts struct {
	Authority ed25519.PublicKey
	Vault     ed25519.PublicKey
	Whitelist ed25519.PublicKey
}

func NewAddToWhitelistInstruction(
	accounts *AddToWhitelistInstructionAccounts,
	args *AddToWhitelistInstructionArgs,
) Instruction {
	var offset int

	data := make([]byte, AddToWhitelistInstructionSize)

	putDiscriminator(data, addToWhitelistInstructionDiscriminator, &offset)
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

func AddToWhitelistInstructionFromBinary(instruction Instruction) (*AddToWhitelistInstructionArgs, *AddToWhitelistInstructionAccounts, error) {
	if !bytes.Equal(instruction.Program, PROGRAM_ADDRESS) {
		return nil, nil, ErrInvalidProgram
	}

	if len(instruction.Data) < AddToWhitelistInstructionSize {
		return nil, nil, ErrInvalidInstructionData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(instruction.Data, &discriminator, &offset)
	if !bytes.Equal(discriminator, addToWhitelistInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args AddToWhitelistInstructionArgs
	getKey(instruction.Data, &args.Address, &offset)

	if len(instruction.Accounts) != 3 {
		return nil, nil, ErrInvalidInstructionData
	}

	accounts := &AddToWhitelistInstructionAccounts{
		Authority: instruction.Accounts[0].PublicKey,
		Vault:     instruction.Accounts[1].PublicKey,
		Whitelist: instruction.Accounts[2].PublicKey,
	}

	return &args, accounts, nil
}
