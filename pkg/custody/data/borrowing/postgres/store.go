package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/gasless-labs/vault-server/pkg/custody/data/borrowing"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed borrowing.Store
func New(db *sql.DB) borrowing.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements borrowing.Store.Save
func (s *store) Save(ctx context.Context, record *borrowing.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	err = model.dbSave(ctx, s.db)
	if err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// Get implements borrowing.Store.Get
func (s *store) Get(ctx context.Context, vault, borrower, mint string) (*borrowing.Record, error) {
	model, err := dbGet(ctx, s.db, vault, borrower, mint)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllByBorrower implements borrowing.Store.GetAllByBorrower
func (s *store) GetAllByBorrower(ctx context.Context, vault, borrower string) ([]*borrowing.Record, error) {
	models, err := dbGetAllByBorrower(ctx, s.db, vault, borrower)
	if err != nil {
		return nil, err
	}

	res := make([]*borrowing.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// GetTotalBorrowed implements borrowing.Store.GetTotalBorrowed
func (s *store) GetTotalBorrowed(ctx context.Context, vault, mint string) (uint64, error) {
	return dbGetTotalBorrowed(ctx, s.db, vault, mint)
}
