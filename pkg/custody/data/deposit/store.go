package deposit

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDepositNotFound = errors.New("deposit not found")
	ErrDepositExists   = errors.New("deposit already exists")
)

// Note: Only captures deposits into vault custody at the transaction level
type Record struct {
	Id uint64

	Signature string

	Vault       string
	Mint        string
	Destination string
	Depositor   string

	Amount uint64

	Slot uint64

	CreatedAt time.Time
}

type Store interface {
	// Save saves a deposit record. Deposits are immutable, so saving a
	// record with an existing (signature, destination) pair fails with
	// ErrDepositExists.
	Save(ctx context.Context, record *Record) error

	// Get gets a deposit record for a signature and custody account
	Get(ctx context.Context, signature, destination string) (*Record, error)

	// GetTotalDeposited gets the total amount deposited for a mint in a vault
	GetTotalDeposited(ctx context.Context, vault, mint string) (uint64, error)
}

func (r *Record) Validate() error {
	if len(r.Signature) == 0 {
		return errors.New("signature is required")
	}

	if len(r.Vault) == 0 {
		return errors.New("vault is required")
	}

	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}

	if len(r.Destination) == 0 {
		return errors.New("destination is required")
	}

	if len(r.Depositor) == 0 {
		return errors.New("depositor is required")
	}

	if r.Amount == 0 {
		return errors.New("amount is required")
	}

	if r.Slot == 0 {
		return errors.New("slot is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		Signature: r.Signature,

		Vault:       r.Vault,
		Mint:        r.Mint,
		Destination: r.Destination,
		Depositor:   r.Depositor,

		Amount: r.Amount,

		Slot: r.Slot,

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Signature = r.Signature

	dst.Vault = r.Vault
	dst.Mint = r.Mint
	dst.Destination = r.Destination
	dst.Depositor = r.Depositor

	dst.Amount = r.Amount

	dst.Slot = r.Slot

	dst.CreatedAt = r.CreatedAt
}
