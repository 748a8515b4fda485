package indexer

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasless-labs/vault-server/pkg/custody/data/borrowing"
	borrowingmemory "github.com/gasless-labs/vault-server/pkg/custody/data/borrowing/memory"
	"github.com/gasless-labs/vault-server/pkg/custody/data/deposit"
	depositmemory "github.com/gasless-labs/vault-server/pkg/custody/data/deposit/memory"
	vault "github.com/gasless-labs/vault-server/pkg/solana/vault"
	"github.com/gasless-labs/vault-server/pkg/solana/vault/machine"
)

type testEnv struct {
	indexer *Indexer

	deposits   deposit.Store
	borrowings borrowing.Store

	program *machine.Machine

	authority       ed25519.PublicKey
	vault           ed25519.PublicKey
	whitelist       ed25519.PublicKey
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
		deposits:   depositmemory.New(),
		borrowings: borrowingmemory.New(),

		program: machine.New(),

		authority: testKey(t),
		mint:      testKey(t),
		depositor: testKey(t),
		borrower:  testKey(t),
		feePayer:  testKey(t),
	}
	env.indexer = New(env.deposits, env.borrowings)

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

	require.NoError(t, env.program.Tokens().InitializeMint(env.mint))
	require.NoError(t, env.program.Tokens().CreateAccount(env.depositorTokens, env.mint, env.depositor))

	env.recipients = make([]ed25519.PublicKey, 3)
	for i := range env.recipients {
		env.recipients[i] = testKey(t)
		require.NoError(t, env.program.Tokens().CreateAccount(env.recipients[i], env.mint, testKey(t)))
	}

	require.NoError(t, env.program.Execute(
		vault.NewInitializeInstruction(&vault.InitializeInstructionAccounts{
			Authority: env.authority,
			Vault:     env.vault,
			Whitelist: env.whitelist,
		}),
		env.authority,
	))
	require.NoError(t, env.program.Execute(
		vault.NewAddTokenInstruction(&vault.AddTokenInstructionAccounts{
			Authority:    env.authority,
			Vault:        env.vault,
			Mint:         env.mint,
			TokenVault:   env.tokenVault,
			TokenAccount: env.custodyAccount,
		}),
		env.authority, env.custodyAccount,
	))
	require.NoError(t, env.program.Execute(
		vault.NewAddToWhitelistInstruction(
			&vault.AddToWhitelistInstructionAccounts{
				Authority: env.authority,
				Vault:     env.vault,
				Whitelist: env.whitelist,
			},
			&vault.AddToWhitelistInstructionArgs{Address: env.borrower},
		),
		env.authority,
	))

	return env
}

func (env *testEnv) deposit(t *testing.T, amount uint64) {
	require.NoError(t, env.program.Tokens().MintTo(env.depositorTokens, amount))
	require.NoError(t, env.program.Execute(
		vault.NewDepositTokensInstruction(
			&vault.DepositTokensInstructionAccounts{
				Depositor:             env.depositor,
				Vault:                 env.vault,
				Mint:                  env.mint,
				TokenVault:            env.tokenVault,
				VaultTokenAccount:     env.custodyAccount,
				DepositorTokenAccount: env.depositorTokens,
			},
			&vault.DepositTokensInstructionArgs{Amount: amount},
		),
		env.depositor,
	))
}

func (env *testEnv) borrow(t *testing.T, amount uint64) {
	require.NoError(t, env.program.Execute(
		vault.NewBorrowAndDistributeInstruction(
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
		),
		env.borrower, env.feePayer,
	))
}

func testKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}

func TestIndexer_Process(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	env.deposit(t, 500_000_000)
	env.borrow(t, 300_000)
	env.borrow(t, 30_000)

	history := env.program.History()
	require.Len(t, history, 5)
	require.NoError(t, env.indexer.Process(ctx, history))

	depositRecord, err := env.deposits.Get(ctx, history[3].Signature, base58.Encode(env.custodyAccount))
	require.NoError(t, err)
	assert.EqualValues(t, 500_000_000, depositRecord.Amount)
	assert.Equal(t, base58.Encode(env.depositor), depositRecord.Depositor)
	assert.Equal(t, base58.Encode(env.mint), depositRecord.Mint)
	assert.Equal(t, history[3].Slot, depositRecord.Slot)

	totalDeposited, err := env.deposits.GetTotalDeposited(ctx, base58.Encode(env.vault), base58.Encode(env.mint))
	require.NoError(t, err)
	assert.EqualValues(t, 500_000_000, totalDeposited)

	borrowingRecord, err := env.borrowings.Get(ctx, base58.Encode(env.vault), base58.Encode(env.borrower), base58.Encode(env.mint))
	require.NoError(t, err)
	assert.EqualValues(t, 330_000, borrowingRecord.TotalAmount)
	assert.Equal(t, history[4].Signature, borrowingRecord.LastSignature)
	assert.Equal(t, history[4].Slot, borrowingRecord.LastSlot)

	totalBorrowed, err := env.borrowings.GetTotalBorrowed(ctx, base58.Encode(env.vault), base58.Encode(env.mint))
	require.NoError(t, err)
	assert.EqualValues(t, 330_000, totalBorrowed)
}

func TestIndexer_Replay(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	env.deposit(t, 500_000_000)
	env.borrow(t, 300_000)

	history := env.program.History()
	require.NoError(t, env.indexer.Process(ctx, history))

	// Same consumer sees the same history again
	require.NoError(t, env.indexer.Process(ctx, history))

	// A brand new consumer replays from the start against warm stores
	fresh := New(env.deposits, env.borrowings)
	require.NoError(t, fresh.Process(ctx, history))

	borrowingRecord, err := env.borrowings.Get(ctx, base58.Encode(env.vault), base58.Encode(env.borrower), base58.Encode(env.mint))
	require.NoError(t, err)
	assert.EqualValues(t, 300_000, borrowingRecord.TotalAmount)

	totalDeposited, err := env.deposits.GetTotalDeposited(ctx, base58.Encode(env.vault), base58.Encode(env.mint))
	require.NoError(t, err)
	assert.EqualValues(t, 500_000_000, totalDeposited)
}

func TestIndexer_ResumesMidHistory(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t)
	env.deposit(t, 900)
	require.NoError(t, env.indexer.Process(ctx, env.program.History()))

	env.borrow(t, 300)
	env.borrow(t, 30)
	require.NoError(t, env.indexer.Process(ctx, env.program.History()))

	borrowingRecord, err := env.borrowings.Get(ctx, base58.Encode(env.vault), base58.Encode(env.borrower), base58.Encode(env.mint))
	require.NoError(t, err)
	assert.EqualValues(t, 330, borrowingRecord.TotalAmount)
}
