package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gasless-labs/vault-server/pkg/custody/data/borrowing"
	pgutil "github.com/gasless-labs/vault-server/pkg/database/postgres"
)

const (
	tableName = "gaslessvault__core_borrowing"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Vault    string `db:"vault"`
	Borrower string `db:"borrower"`
	Mint     string `db:"mint"`

	TotalAmount uint64 `db:"total_amount"`

	LastSignature string `db:"last_signature"`
	LastSlot      uint64 `db:"last_slot"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *borrowing.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Vault:    obj.Vault,
		Borrower: obj.Borrower,
		Mint:     obj.Mint,

		TotalAmount: obj.TotalAmount,

		LastSignature: obj.LastSignature,
		LastSlot:      obj.LastSlot,

		CreatedAt: obj.CreatedAt,
	}, nil
}

func fromModel(obj *model) *borrowing.Record {
	return &borrowing.Record{
		Id: uint64(obj.Id.Int64),

		Vault:    obj.Vault,
		Borrower: obj.Borrower,
		Mint:     obj.Mint,

		TotalAmount: obj.TotalAmount,

		LastSignature: obj.LastSignature,
		LastSlot:      obj.LastSlot,

		CreatedAt: obj.CreatedAt,
	}
}

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	query := `INSERT INTO ` + tableName + `
		(vault, borrower, mint, total_amount, last_signature, last_slot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)

		ON CONFLICT(vault, borrower, mint)
		DO UPDATE
			SET total_amount = $4, last_signature = $5, last_slot = $6
			WHERE ` + tableName + `.total_amount <= $4

		RETURNING id, vault, borrower, mint, total_amount, last_signature, last_slot, created_at`

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	err := db.QueryRowxContext(
		ctx,
		query,
		m.Vault,
		m.Borrower,
		m.Mint,
		m.TotalAmount,
		m.LastSignature,
		m.LastSlot,
		m.CreatedAt,
	).StructScan(m)

	// The conditional upsert returns no row when the stored total is
	// already ahead of this one.
	return pgutil.CheckNoRows(err, borrowing.ErrStaleRecord)
}

func dbGet(ctx context.Context, db *sqlx.DB, vault, borrower, mint string) (*model, error) {
	var res model

	query := `SELECT id, vault, borrower, mint, total_amount, last_signature, last_slot, created_at FROM ` + tableName + `
		WHERE vault = $1 AND borrower = $2 AND mint = $3
	`

	err := db.GetContext(ctx, &res, query, vault, borrower, mint)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, borrowing.ErrRecordNotFound)
	}
	return &res, nil
}

func dbGetAllByBorrower(ctx context.Context, db *sqlx.DB, vault, borrower string) ([]*model, error) {
	var res []*model

	query := `SELECT id, vault, borrower, mint, total_amount, last_signature, last_slot, created_at FROM ` + tableName + `
		WHERE vault = $1 AND borrower = $2
		ORDER BY id
	`

	err := db.SelectContext(ctx, &res, query, vault, borrower)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, borrowing.ErrRecordNotFound)
	}

	if len(res) == 0 {
		return nil, borrowing.ErrRecordNotFound
	}
	return res, nil
}

func dbGetTotalBorrowed(ctx context.Context, db *sqlx.DB, vault, mint string) (uint64, error) {
	var res sql.NullInt64

	query := `SELECT SUM(total_amount) FROM ` + tableName + `
		WHERE vault = $1 AND mint = $2
	`

	err := pgutil.ExecuteInTx(ctx, db, sql.LevelRepeatableRead, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &res, query, vault, mint)
	})
	if err != nil {
		return 0, err
	}

	if !res.Valid {
		return 0, nil
	}
	return uint64(res.Int64), nil
}
