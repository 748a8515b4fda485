package machine

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vault "github.com/gasless-labs/vault-server/pkg/solana/vault"
)

type testEnv struct {
	machine *Machine

	authority ed25519.PublicKey
	vault     ed25519.PublicKey
	whitelist ed25519.PublicKey

	mint            ed25519.PublicKey
	tokenVault      ed25519.PublicKey
	custodyAccount  ed25519.PublicKey
	depositor       ed25519.PublicKey
	depositorTokens ed25519.PublicKey

	borrower        ed25519.PublicKey
	borrowerAccount ed25519.PublicKey
	feePayer        ed25519.PublicKey
	recipients      []ed25519.PublicKey
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		machine:   New(),
		authority: testKey(t),
		mint:      testKey(t),
		depositor: testKey(t),
		borrower:  testKey(t),
		feePayer:  testKey(t),
	}

	var err error
	env.vault, _, err = vault.GetVaultAddress()
	require.NoError(t, err)
	env.whitelist, _, err = vault.GetWhitelistAddress(&vault.GetWhitelistAddressArgs{Vault: env.vault})
	require.NoError(t, err)
	env.tokenVault, _, err = vault.GetTokenVaultAddress(&vault.GetTokenVaultAddressArgs{Vault: env.vault, Mint: env.mint})
	require.NoError(t, err)
	env.borrowerAccount, _, err = vault.GetBorrowerAccountAddress(&vault.GetBorrowerAccountAddressArgs{Vault: env.vault, Borrower: env.borrower})
	require.NoError(t, err)

	env.custodyAccount = testKey(t)
	env.depositorTokens = testKey(t)

	require.NoError(t, env.machine.Tokens().InitializeMint(env.mint))
	require.NoError(t, env.machine.Tokens().CreateAccount(env.depositorTokens, env.mint, env.depositor))

	env.recipients = make([]ed25519.PublicKey, 3)
	for i := range env.recipients {
		env.recipients[i] = testKey(t)
		require.NoError(t, env.machine.Tokens().CreateAccount(env.recipients[i], env.mint, testKey(t)))
	}

	return env
}

func (env *testEnv) initialize(t *testing.T) {
	require.NoError(t, env.machine.Execute(
		NewInitialize(env),
		env.authority,
	))
}

func NewInitialize(env *testEnv) vault.Instruction {
	return vault.NewInitializeInstruction(&vault.InitializeInstructionAccounts{
		Authority: env.authority,
		Vault:     env.vault,
		Whitelist: env.whitelist,
	})
}

func (env *testEnv) addToken(t *testing.T) {
	require.NoError(t, env.machine.Execute(
		vault.NewAddTokenInstruction(&vault.AddTokenInstructionAccounts{
			Authority:    env.authority,
			Vault:        env.vault,
			Mint:         env.mint,
			TokenVault:   env.tokenVault,
			TokenAccount: env.custodyAccount,
		}),
		env.authority, env.custodyAccount,
	))
}

func (env *testEnv) deposit(t *testing.T, amount uint64) {
	require.NoError(t, env.machine.Tokens().MintTo(env.depositorTokens, amount))
	require.NoError(t, env.machine.Execute(
		env.depositInstruction(amount),
		env.depositor,
	))
}

func (env *testEnv) depositInstruction(amount uint64) vault.Instruction {
	return vault.NewDepositTokensInstruction(
		&vault.DepositTokensInstructionAccounts{
			Depositor:             env.depositor,
			Vault:                 env.vault,
			Mint:                  env.mint,
			TokenVault:            env.tokenVault,
			VaultTokenAccount:     env.custodyAccount,
			DepositorTokenAccount: env.depositorTokens,
		},
		&vault.DepositTokensInstructionArgs{Amount: amount},
	)
}

func (env *testEnv) whitelistBorrower(t *testing.T) {
	require.NoError(t, env.machine.Execute(
		env.addToWhitelistInstruction(env.borrower),
		env.authority,
	))
}

func (env *testEnv) addToWhitelistInstruction(address ed25519.PublicKey) vault.Instruction {
	return vault.NewAddToWhitelistInstruction(
		&vault.AddToWhitelistInstructionAccounts{
			Authority: env.authority,
			Vault:     env.vault,
			Whitelist: env.whitelist,
		},
		&vault.AddToWhitelistInstructionArgs{Address: address},
	)
}

func (env *testEnv) removeFromWhitelistInstruction(address ed25519.PublicKey) vault.Instruction {
	return vault.NewRemoveFromWhitelistInstruction(
		&vault.RemoveFromWhitelistInstructionAccounts{
			Authority: env.authority,
			Vault:     env.vault,
			Whitelist: env.whitelist,
		},
		&vault.RemoveFromWhitelistInstructionArgs{Address: address},
	)
}

func (env *testEnv) borrowInstruction(amount uint64) vault.Instruction {
	return vault.NewBorrowAndDistributeInstruction(
		&vault.BorrowAndDistributeInstructionAccounts{
			Borrower:               env.borrower,
			Vault:                  env.vault,
			Whitelist:              env.whitelist,
			BorrowerAccount:        env.borrowerAccount,
			Mint:                   env.mint,
			TokenVault:             env.tokenVault,
			VaultTokenAccount:      env.custodyAccount,
			RecipientTokenAccount1: env.recipients[0],
			RecipientTokenAccount2: env.recipients[1],
			RecipientTokenAccount3: env.recipients[2],
			FeePayer:               env.feePayer,
		},
		&vault.BorrowAndDistributeInstructionArgs{Amount: amount},
	)
}

func (env *testEnv) borrow(t *testing.T, amount uint64) error {
	return env.machine.Execute(env.borrowInstruction(amount), env.borrower, env.feePayer)
}

func (env *testEnv) custodyBalance(t *testing.T) uint64 {
	balance, err := env.machine.Tokens().Balance(env.custodyAccount)
	require.NoError(t, err)
	return balance
}

func (env *testEnv) recipientBalance(t *testing.T, i int) uint64 {
	balance, err := env.machine.Tokens().Balance(env.recipients[i])
	require.NoError(t, err)
	return balance
}

func testKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}

func TestMachine_Initialize(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	vaultAccount, err := env.machine.GetVault(env.vault)
	require.NoError(t, err)
	assert.EqualValues(t, env.authority, vaultAccount.Authority)
	assert.EqualValues(t, 0, vaultAccount.TokenCount)

	whitelist, err := env.machine.GetWhitelist(env.whitelist)
	require.NoError(t, err)
	assert.Empty(t, whitelist.Addresses)
	assert.EqualValues(t, env.vault, whitelist.Vault)

	assert.Equal(t, ErrAlreadyInitialized, env.machine.Execute(NewInitialize(env), env.authority))
}

func TestMachine_Initialize_MissingSignature(t *testing.T) {
	env := newTestEnv(t)

	err := env.machine.Execute(NewInitialize(env))
	assert.Equal(t, ErrMissingSignature, err)

	_, err = env.machine.GetVault(env.vault)
	assert.Equal(t, ErrAccountNotFound, err)
}

func TestMachine_Whitelist(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.whitelistBorrower(t)

	whitelist, err := env.machine.GetWhitelist(env.whitelist)
	require.NoError(t, err)
	assert.True(t, whitelist.Contains(env.borrower))

	// Duplicate add is rejected rather than silently duplicated.
	err = env.machine.Execute(env.addToWhitelistInstruction(env.borrower), env.authority)
	assert.Equal(t, vault.ErrAlreadyWhitelisted, err)

	// Removing a non-member is a no-op.
	require.NoError(t, env.machine.Execute(env.removeFromWhitelistInstruction(testKey(t)), env.authority))

	whitelist, err = env.machine.GetWhitelist(env.whitelist)
	require.NoError(t, err)
	require.Len(t, whitelist.Addresses, 1)

	require.NoError(t, env.machine.Execute(env.removeFromWhitelistInstruction(env.borrower), env.authority))

	whitelist, err = env.machine.GetWhitelist(env.whitelist)
	require.NoError(t, err)
	assert.False(t, whitelist.Contains(env.borrower))
}

func TestMachine_Whitelist_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	mallory := testKey(t)
	instruction := vault.NewAddToWhitelistInstruction(
		&vault.AddToWhitelistInstructionAccounts{
			Authority: mallory,
			Vault:     env.vault,
			Whitelist: env.whitelist,
		},
		&vault.AddToWhitelistInstructionArgs{Address: mallory},
	)

	err := env.machine.Execute(instruction, mallory)
	assert.Equal(t, vault.ErrUnauthorized, err)

	whitelist, err := env.machine.GetWhitelist(env.whitelist)
	require.NoError(t, err)
	assert.Empty(t, whitelist.Addresses)
}

func TestMachine_Whitelist_Capacity(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	for i := 0; i < vault.MaxWhitelistedAddresses; i++ {
		require.NoError(t, env.machine.Execute(env.addToWhitelistInstruction(testKey(t)), env.authority))
	}

	err := env.machine.Execute(env.addToWhitelistInstruction(testKey(t)), env.authority)
	assert.Equal(t, vault.ErrWhitelistFull, err)
}

func TestMachine_AddToken(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)

	vaultAccount, err := env.machine.GetVault(env.vault)
	require.NoError(t, err)
	assert.EqualValues(t, 1, vaultAccount.TokenCount)

	tokenVault, err := env.machine.GetTokenVault(env.tokenVault)
	require.NoError(t, err)
	assert.EqualValues(t, env.mint, tokenVault.Mint)
	assert.EqualValues(t, env.custodyAccount, tokenVault.TokenAccount)

	// Custody is owned by the token vault PDA.
	custody, err := env.machine.Tokens().GetAccount(env.custodyAccount)
	require.NoError(t, err)
	assert.EqualValues(t, env.tokenVault, custody.Owner)
	assert.EqualValues(t, 0, custody.Amount)
}

func TestMachine_AddToken_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	mallory := testKey(t)
	instruction := vault.NewAddTokenInstruction(&vault.AddTokenInstructionAccounts{
		Authority:    mallory,
		Vault:        env.vault,
		Mint:         env.mint,
		TokenVault:   env.tokenVault,
		TokenAccount: env.custodyAccount,
	})

	err := env.machine.Execute(instruction, mallory, env.custodyAccount)
	assert.Equal(t, vault.ErrUnauthorized, err)

	vaultAccount, err := env.machine.GetVault(env.vault)
	require.NoError(t, err)
	assert.EqualValues(t, 0, vaultAccount.TokenCount)
}

func TestMachine_AddToken_AlreadyRegistered(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)

	instruction := vault.NewAddTokenInstruction(&vault.AddTokenInstructionAccounts{
		Authority:    env.authority,
		Vault:        env.vault,
		Mint:         env.mint,
		TokenVault:   env.tokenVault,
		TokenAccount: testKey(t),
	})

	err := env.machine.Execute(instruction, env.authority, instruction.Accounts[4].PublicKey)
	assert.Equal(t, ErrAlreadyRegistered, err)

	vaultAccount, err := env.machine.GetVault(env.vault)
	require.NoError(t, err)
	assert.EqualValues(t, 1, vaultAccount.TokenCount)
}

func TestMachine_DepositTokens(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)

	env.deposit(t, 500_000_000)
	assert.EqualValues(t, 500_000_000, env.custodyBalance(t))

	depositorBalance, err := env.machine.Tokens().Balance(env.depositorTokens)
	require.NoError(t, err)
	assert.EqualValues(t, 0, depositorBalance)
}

func TestMachine_DepositTokens_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)

	err := env.machine.Execute(env.depositInstruction(0), env.depositor)
	assert.Equal(t, vault.ErrInvalidAmount, err)

	// Source balance below the requested amount.
	require.NoError(t, env.machine.Tokens().MintTo(env.depositorTokens, 100))
	err = env.machine.Execute(env.depositInstruction(101), env.depositor)
	assert.Equal(t, vault.ErrInsufficientFunds, err)

	assert.EqualValues(t, 0, env.custodyBalance(t))
}

func TestMachine_BorrowAndDistribute(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)
	env.deposit(t, 500_000_000)
	env.whitelistBorrower(t)

	require.NoError(t, env.borrow(t, 300_000))

	assert.EqualValues(t, 499_700_000, env.custodyBalance(t))
	for i := 0; i < 3; i++ {
		assert.EqualValues(t, 100_000, env.recipientBalance(t, i))
	}

	borrowerAccount, err := env.machine.GetBorrowerAccount(env.borrowerAccount)
	require.NoError(t, err)
	require.NotNil(t, borrowerAccount.RecordFor(env.mint))
	assert.EqualValues(t, 300_000, borrowerAccount.RecordFor(env.mint).Amount)

	// A second draw accumulates on the same ledger entry.
	require.NoError(t, env.borrow(t, 30_000))

	assert.EqualValues(t, 499_670_000, env.custodyBalance(t))
	for i := 0; i < 3; i++ {
		assert.EqualValues(t, 110_000, env.recipientBalance(t, i))
	}

	borrowerAccount, err = env.machine.GetBorrowerAccount(env.borrowerAccount)
	require.NoError(t, err)
	assert.EqualValues(t, 330_000, borrowerAccount.RecordFor(env.mint).Amount)
	require.Len(t, borrowerAccount.BorrowedAmounts, 1)

	// Removal from the whitelist blocks further draws, however small.
	require.NoError(t, env.machine.Execute(env.removeFromWhitelistInstruction(env.borrower), env.authority))

	err = env.borrow(t, 30)
	assert.Equal(t, vault.ErrNotWhitelisted, err)
	assert.EqualValues(t, 499_670_000, env.custodyBalance(t))
}

func TestMachine_BorrowAndDistribute_Conservation(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)
	env.deposit(t, 3_000_000)
	env.whitelistBorrower(t)

	for _, amount := range []uint64{3, 300, 999_999} {
		custodyBefore := env.custodyBalance(t)
		var recipientsBefore uint64
		for i := 0; i < 3; i++ {
			recipientsBefore += env.recipientBalance(t, i)
		}

		require.NoError(t, env.borrow(t, amount))

		var recipientsAfter uint64
		for i := 0; i < 3; i++ {
			recipientsAfter += env.recipientBalance(t, i)
		}

		assert.Equal(t, custodyBefore-amount, env.custodyBalance(t))
		assert.Equal(t, recipientsBefore+amount, recipientsAfter)
	}
}

func TestMachine_BorrowAndDistribute_InvalidAmounts(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)
	env.deposit(t, 1_000_000)
	env.whitelistBorrower(t)

	err := env.borrow(t, 0)
	assert.Equal(t, vault.ErrInvalidAmount, err)

	for _, amount := range []uint64{1, 2, 100, 1_000_000} {
		if amount%3 == 0 {
			continue
		}
		err := env.borrow(t, amount)
		assert.Equal(t, vault.ErrInvalidDistributionAmount, err)
	}

	// No partial effects from any rejected call.
	assert.EqualValues(t, 1_000_000, env.custodyBalance(t))
	for i := 0; i < 3; i++ {
		assert.EqualValues(t, 0, env.recipientBalance(t, i))
	}
	_, err = env.machine.GetBorrowerAccount(env.borrowerAccount)
	assert.Equal(t, ErrAccountNotFound, err)
}

func TestMachine_BorrowAndDistribute_AmountCheckedBeforeWhitelist(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)
	env.deposit(t, 1_000_000)

	// Borrower is not whitelisted; the divisibility failure surfaces first.
	err := env.borrow(t, 100)
	assert.Equal(t, vault.ErrInvalidDistributionAmount, err)

	err = env.borrow(t, 300)
	assert.Equal(t, vault.ErrNotWhitelisted, err)
}

func TestMachine_BorrowAndDistribute_InsufficientCustody(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)
	env.deposit(t, 300)
	env.whitelistBorrower(t)

	err := env.borrow(t, 3_000)
	assert.Equal(t, vault.ErrInsufficientFunds, err)

	assert.EqualValues(t, 300, env.custodyBalance(t))
	_, err = env.machine.GetBorrowerAccount(env.borrowerAccount)
	assert.Equal(t, ErrAccountNotFound, err)
}

func TestMachine_BorrowAndDistribute_MissingSignatures(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)
	env.deposit(t, 3_000)
	env.whitelistBorrower(t)

	// Without the fee payer.
	err := env.machine.Execute(env.borrowInstruction(300), env.borrower)
	assert.Equal(t, ErrMissingSignature, err)

	// Without the borrower.
	err = env.machine.Execute(env.borrowInstruction(300), env.feePayer)
	assert.Equal(t, ErrMissingSignature, err)

	assert.EqualValues(t, 3_000, env.custodyBalance(t))
}

func TestMachine_History(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)
	env.deposit(t, 3_000)
	env.whitelistBorrower(t)
	require.NoError(t, env.borrow(t, 300))

	// Rejected instructions never land in history.
	require.Error(t, env.borrow(t, 100))

	history := env.machine.History()
	require.Len(t, history, 5)

	signatures := make(map[string]struct{})
	for i, committed := range history {
		assert.EqualValues(t, i+1, committed.Slot)
		signatures[committed.Signature] = struct{}{}
	}
	assert.Len(t, signatures, 5)

	command, err := vault.GetCommand(history[len(history)-1].Instruction.Data)
	require.NoError(t, err)
	assert.Equal(t, vault.CommandBorrowAndDistribute, command)
}

func TestMachine_BorrowAndDistribute_ClearedSignerFlags(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)
	env.addToken(t)
	env.whitelistBorrower(t)
	env.deposit(t, 3_000)

	// An instruction with every signer flag cleared must be rejected even
	// though Execute has no flagged metas to check signatures for.
	instruction := env.borrowInstruction(300)
	for i := range instruction.Accounts {
		instruction.Accounts[i].IsSigner = false
	}
	err := env.machine.Execute(instruction)
	assert.Equal(t, ErrMissingSignature, err)

	// Providing the signatures anyway doesn't help
	err = env.machine.Execute(instruction, env.borrower, env.feePayer)
	assert.Equal(t, ErrMissingSignature, err)

	// Clearing just the fee payer's flag fails the same way
	instruction = env.borrowInstruction(300)
	instruction.Accounts[10].IsSigner = false
	err = env.machine.Execute(instruction, env.borrower, env.feePayer)
	assert.Equal(t, ErrMissingSignature, err)

	assert.EqualValues(t, 3_000, env.custodyBalance(t))
	for i := range env.recipients {
		assert.EqualValues(t, 0, env.recipientBalance(t, i))
	}
	_, err = env.machine.GetBorrowerAccount(env.borrowerAccount)
	assert.Equal(t, ErrAccountNotFound, err)
}

func TestMachine_Whitelist_ClearedSignerFlags(t *testing.T) {
	env := newTestEnv(t)
	env.initialize(t)

	instruction := env.addToWhitelistInstruction(env.borrower)
	instruction.Accounts[0].IsSigner = false
	err := env.machine.Execute(instruction, env.authority)
	assert.Equal(t, ErrMissingSignature, err)

	whitelist, err := env.machine.GetWhitelist(env.whitelist)
	require.NoError(t, err)
	assert.False(t, whitelist.Contains(env.borrower))
}
