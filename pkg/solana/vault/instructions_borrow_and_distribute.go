package gasless_vault

import (
	"bytes"
	"crypto/ed25519"
)

var borrowAndDistributeInstructionDiscriminator = instructionDiscriminator("borrow_and_distribute")

const (
	BorrowAndDistributeInstructionArgsSize = 8 // amount

	BorrowAndDistributeInstructionSize = (8 + // discriminator
		BorrowAndDistributeInstructionArgsSize) // args
)

type BorrowAndDistributeInstructionArgs struct {
	Amount uint64
}

type BorrowAndDistributeInstructionAccounts struct {
	Borrower          ed25519.PublicKey
	Vault             ed25519.PublicKey
	Whitelist         ed25519.PublicKey
	BorrowerAccount   ed25519.PublicKey
	Mint              ed25519.PublicKey
	TokenVault        ed25519.PublicKey
	VaultTokenAccount ed25519.PublicKey

	// Recipients of the three-way split, chosen by the caller per
	// invocation.
	RecipientTokenAccount1 ed25519.PublicKey
	RecipientTokenAccount2 ed25519.PublicKey
	RecipientTokenAccount3 ed25519.PublicKey

	// Sponsor covering the transaction fee. Holds no asset authority and
	// is never checked against the whitelist.
	FeePayer ed25519.PublicKey
}

func NewBorrowAndDistributeInstruction(
	accounts *BorrowAndDistributeInstructionAccounts,
	args *BorrowAndDistributeInstructionArgs,
) Instruction {
	var offset int

	data := make([]byte, BorrowAndDistributeInstructionSize)

	putDiscriminator(data, borrowAndDistributeInstructionDiscriminator, &offset)
	putUint64(data, args.Amount, &offset)

	return Instruction{
		Program: PROGRAM_ADDRESS,

		Data: data,

		Accounts: []AccountMeta{
			{
				PublicKey:  accounts.Borrower,
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
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.BorrowerAccount,
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
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.VaultTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.RecipientTokenAccount1,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.RecipientTokenAccount2,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.RecipientTokenAccount3,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.FeePayer,
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
		},
	}
}

func BorrowAndDistributeInstructionFromBinary(instruction Instruction) (*BorrowAndDistributeInstructionArgs, *BorrowAndDistributeInstructionAccounts, error) {
	if !bytes.Equal(instruction.Program, PROGRAM_ADDRESS) {
		return nil, nil, ErrInvalidProgram
	}

	if len(instruction.Data) < BorrowAndDistributeInstructionSize {
		return nil, nil, ErrInvalidInstructionData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(instruction.Data, &discriminator, &offset)
	if !bytes.Equal(discriminator, borrowAndDistributeInstructionDiscriminator) {
		return nil, nil, ErrInvalidInstructionData
	}

	var args BorrowAndDistributeInstructionArgs
	getUint64(instruction.Data, &args.Amount, &offset)

	if len(instruction.Accounts) != 13 {
		return nil, nil, ErrInvalidInstructionData
	}

	accounts := &BorrowAndDistributeInstructionAccounts{
		Borrower:               instruction.Accounts[0].PublicKey,
		Vault:                  instruction.Accounts[1].PublicKey,
		Whitelist:              instruction.Accounts[2].PublicKey,
		BorrowerAccount:        instruction.Accounts[3].PublicKey,
		Mint:                   instruction.Accounts[4].PublicKey,
		TokenVault:             instruction.Accounts[5].PublicKey,
		VaultTokenAccount:      instruction.Accounts[6].PublicKey,
		RecipientTokenAccount1: instruction.Accounts[7].PublicKey,
		RecipientTokenAccount2: instruction.Accounts[8].PublicKey,
		RecipientTokenAccount3: instruction.Accounts[9].PublicKey,
		FeePayer:               instruction.Accounts[10].PublicKey,
	}

	return &args, accounts, nil
}
