package borrowing

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRecordNotFound = errors.New("borrowing record not found")

	// The on-chain ledger only ever accumulates, so a save that would
	// lower the total is a replay of stale state.
	ErrStaleRecord = errors.New("borrowing record is stale")
)

// Record mirrors one on-chain borrower ledger entry: the cumulative amount
// a borrower has drawn from a vault for one mint.
type Record struct {
	Id uint64

	Vault    string
	Borrower string
	Mint     string

	TotalAmount uint64

	LastSignature string
	LastSlot      uint64

	CreatedAt time.Time
}

type Store interface {
	// Save upserts the record keyed by (vault, borrower, mint). The total
	// amount is monotonic; a save below the stored total fails with
	// ErrStaleRecord.
	Save(ctx context.Context, record *Record) error

	// Get gets the record for a (vault, borrower, mint).
	Get(ctx context.Context, vault, borrower, mint string) (*Record, error)

	// GetAllByBorrower gets all records for a borrower against a vault.
	GetAllByBorrower(ctx context.Context, vault, borrower string) ([]*Record, error)

	// GetTotalBorrowed gets the sum drawn by all borrowers for a mint.
	GetTotalBorrowed(ctx context.Context, vault, mint string) (uint64, error)
}

func (r *Record) Validate() error {
	if len(r.Vault) == 0 {
		return errors.New("vault is required")
	}

	if len(r.Borrower) == 0 {
		return errors.New("borrower is required")
	}

	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}

	if r.TotalAmount == 0 {
		return errors.New("total amount is required")
	}

	if len(r.LastSignature) == 0 {
		return errors.New("last signature is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		Vault:    r.Vault,
		Borrower: r.Borrower,
		Mint:     r.Mint,

		TotalAmount: r.TotalAmount,

		LastSignature: r.LastSignature,
		LastSlot:      r.LastSlot,

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Vault = r.Vault
	dst.Borrower = r.Borrower
	dst.Mint = r.Mint

	dst.TotalAmount = r.TotalAmount

	dst.LastSignature = r.LastSignature
	dst.LastSlot = r.LastSlot

	dst.CreatedAt = r.CreatedAt
}
