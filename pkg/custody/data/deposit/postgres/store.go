package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/gasless-labs/vault-server/pkg/custody/data/deposit"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed deposit.Store
func New(db *sql.DB) deposit.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements deposit.Store.Save
func (s *store) Save(ctx context.Context, record *deposit.Record) error {
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

// Get implements deposit.Store.Get
func (s *store) Get(ctx context.Context, signature, destination string) (*deposit.Record, error) {
	model, err := dbGet(ctx, s.db, signature, destination)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetTotalDeposited implements deposit.Store.GetTotalDeposited
func (s *store) GetTotalDeposited(ctx context.Context, vault, mint string) (uint64, error) {
	return dbGetTotalDeposited(ctx, s.db, vault, mint)
}
