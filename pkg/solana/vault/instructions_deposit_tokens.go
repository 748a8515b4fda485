package gasless_vault

import (
	"bytes"
	"crypto/ed25519"
)

var depositTokensInstructionDiscriminator = instructionDiscriminator("deposit_tokens")

const (
	DepositTokensInstructionArgsSize = 8 // amount

	DepositTokensInstructionSize = (8 + // discriminator
		DepositTokensInstructionArgsSize) // args
)

type DepositTokensInstructionArgs struct {
	Amount uint64
}

type DepositTokensInstructionAccounts struct {
	Depositor             ed25519.PublicKey
	Vault                 ed25519.PublicKey
	Mint                  ed25519.PublicKey
	TokenVault            ed25519.PublicKey
	VaultTokenAccount     ed25519.PublicKey
	DepositorTokenAccount ed25519.PublicKey
}

func NewDepositTokensInstruction(
	accounts *DepositTokensInstructionAccounts,
	args *DepositTokensInstructionArgs,
) Instruction {
	var offset int

	data := make([]byte, DepositTokensInstructionSize)

	putDiscriminator(data, depositTokensInstructionDiscriminator, &offset)
	putUint64(data, args.Amount, &offset)

	return Instruction{
		Program: PROGRAM_ADDRESS,

		Data: data,

		Accounts: []AccountMeta{
			{
				PublicKey:  accounts.Depositor,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Mint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.TokenVault,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.VaultTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.DepositorTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func DepositTokensInstructionFromBinary(instruction Instruction) (*DepositTokensInstructionArgs, *DepositTokensInstructionAccounts, error) {
	if !bytes.Equal(instruction.Program, PROGRAM_ADDRESS) {
		return nil, nil, ErrInvalidProgram
	}

	if len(instruction.Data) < DepositTokensInstructionSize {
		return nil, nil, ErrInvalidInstructionData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(instruction.Data, &discriminator, &offset)
	if !bytes.Equal(discriminator, depositTokensInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args DepositTokensInstructionArgs
	getUint64(instruction.Data, &args.Amount, &offset)

	if len(instruction.Accounts) != 7 {
		return nil, nil, ErrInvalidInstructionData
	}

	accounts := &DepositTokensInstructionAccounts{
		Depositor:             instruction.Accounts[0].PublicKey,
		Vault:                 instruction.Accounts[1].PublicKey,
		Mint:                  instruction.Accounts[2].PublicKey,
		TokenVault:            instruction.Accounts[3].PublicKey,
		VaultTokenAccount:     instruction.Accounts[4].PublicKey,
		DepositorTokenAccount: instruction.Accounts[5].PublicKey,
	}

	return &args, accounts, nil
}
