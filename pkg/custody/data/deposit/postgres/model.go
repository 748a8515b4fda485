package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gasless-labs/vault-server/pkg/custody/data/deposit"
	pgutil "github.com/gasless-labs/vault-server/pkg/database/postgres"
)

const (
	tableName = "gaslessvault__core_deposit"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Signature string `db:"signature"`

	Vault       string `db:"vault"`
	Mint        string `db:"mint"`
	Destination string `db:"destination"`
	Depositor   string `db:"depositor"`

	Amount uint64 `db:"amount"`

	Slot uint64 `db:"slot"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *deposit.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Signature: obj.Signature,

		Vault:       obj.Vault,
		Mint:        obj.Mint,
		Destination: obj.Destination,
		Depositor:   obj.Depositor,

		Amount: obj.Amount,

		Slot: obj.Slot,

		CreatedAt: obj.CreatedAt,
	}, nil
}

func fromModel(obj *model) *deposit.Record {
	return &deposit.Record{
		Id: uint64(obj.Id.Int64),

		Signature: obj.Signature,

		Vault:       obj.Vault,
		Mint:        obj.Mint,
		Destination: obj.Destination,
		Depositor:   obj.Depositor,

		Amount: obj.Amount,

		Slot: obj.Slot,

		CreatedAt: obj.CreatedAt,
	}
}

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	query := `INSERT INTO ` + tableName + `
		(signature, vault, mint, destination, depositor, amount, slot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, signature, vault, mint, destination, depositor, amount, slot, created_at`

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	err := db.QueryRowxContext(
		ctx,
		query,
		m.Signature,
		m.Vault,
		m.Mint,
		m.Destination,
		m.Depositor,
		m.Amount,
		m.Slot,
		m.CreatedAt,
	).StructScan(m)

	return pgutil.CheckUniqueViolation(err, deposit.ErrDepositExists)
}

func dbGet(ctx context.Context, db *sqlx.DB, signature, destination string) (*model, error) {
	var res model

	query := `SELECT id, signature, vault, mint, destination, depositor, amount, slot, created_at FROM ` + tableName + `
		WHERE signature = $1 AND destination = $2
	`

	err := db.GetContext(ctx, &res, query, signature, destination)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, deposit.ErrDepositNotFound)
	}
	return &res, nil
}

func dbGetTotalDeposited(ctx context.Context, db *sqlx.DB, vault, mint string) (uint64, error) {
	var res sql.NullInt64

	query := `SELECT SUM(amount) FROM ` + tableName + `
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
