package indexer

import (
	"context"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gasless-labs/vault-server/pkg/custody/data/borrowing"
	"github.com/gasless-labs/vault-server/pkg/custody/data/deposit"
	vault "github.com/gasless-labs/vault-server/pkg/solana/vault"
	"github.com/gasless-labs/vault-server/pkg/solana/vault/machine"
)

// Indexer builds the off-chain read models from the program's committed
// instruction history. Processing is idempotent against replays of slots
// that were already consumed.
type Indexer struct {
	log *logrus.Entry

	deposits   deposit.Store
	borrowings borrowing.Store

	nextSlot uint64
}

func New(deposits deposit.Store, borrowings borrowing.Store) *Indexer {
	return &Indexer{
		log: logrus.StandardLogger().WithField("type", "custody/indexer"),

		deposits:   deposits,
		borrowings: borrowings,
	}
}

// Process consumes committed history in order. Instructions other than
// deposits and borrows mutate no token balances, so they index to nothing.
func (i *Indexer) Process(ctx context.Context, history []machine.Committed) error {
	for _, committed := range history {
		if committed.Slot < i.nextSlot {
			continue
		}

		log := i.log.WithFields(logrus.Fields{
			"slot":      committed.Slot,
			"signature": committed.Signature,
		})

		command, err := vault.GetCommand(committed.Instruction.Data)
		if err != nil {
			log.WithError(err).Warn("skipping instruction with unknown discriminator")
			i.nextSlot = committed.Slot + 1
			continue
		}

		switch command {
		case vault.CommandDepositTokens:
			err = i.indexDeposit(ctx, committed)
		case vault.CommandBorrowAndDistribute:
			err = i.indexBorrow(ctx, committed)
		}
		if err != nil {
			log.WithError(err).Warn("failure indexing instruction")
			return err
		}

		i.nextSlot = committed.Slot + 1
	}
	return nil
}

func (i *Indexer) indexDeposit(ctx context.Context, committed machine.Committed) error {
	args, accounts, err := vault.DepositTokensInstructionFromBinary(committed.Instruction)
	if err != nil {
		return errors.Wrap(err, "error decoding deposit instruction")
	}

	record := &deposit.Record{
		Signature: committed.Signature,

		Vault:       base58.Encode(accounts.Vault),
		Mint:        base58.Encode(accounts.Mint),
		Destination: base58.Encode(accounts.VaultTokenAccount),
		Depositor:   base58.Encode(accounts.Depositor),

		Amount: args.Amount,

		Slot: committed.Slot,
	}

	err = i.deposits.Save(ctx, record)
	if err == deposit.ErrDepositExists {
		// Seen before, nothing to do
		return nil
	}
	return err
}

func (i *Indexer) indexBorrow(ctx context.Context, committed machine.Committed) error {
	args, accounts, err := vault.BorrowAndDistributeInstructionFromBinary(committed.Instruction)
	if err != nil {
		return errors.Wrap(err, "error decoding borrow instruction")
	}

	vaultAddress := base58.Encode(accounts.Vault)
	borrowerAddress := base58.Encode(accounts.Borrower)
	mintAddress := base58.Encode(accounts.Mint)

	record, err := i.borrowings.Get(ctx, vaultAddress, borrowerAddress, mintAddress)
	if err == borrowing.ErrRecordNotFound {
		record = &borrowing.Record{
			Vault:    vaultAddress,
			Borrower: borrowerAddress,
			Mint:     mintAddress,
		}
	} else if err != nil {
		return errors.Wrap(err, "error getting borrowing record")
	} else if record.LastSlot >= committed.Slot {
		// Already applied
		return nil
	}

	record.TotalAmount += args.Amount
	record.LastSignature = committed.Signature
	record.LastSlot = committed.Slot

	err = i.borrowings.Save(ctx, record)
	if err == borrowing.ErrStaleRecord {
		// Another consumer got further than us, nothing to do
		return nil
	}
	return err
}
