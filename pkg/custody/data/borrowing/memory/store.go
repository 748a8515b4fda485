package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gasless-labs/vault-server/pkg/custody/data/borrowing"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*borrowing.Record
}

// New returns a new in memory borrowing.Store
func New() borrowing.Store {
	return &store{}
}

// Save implements borrowing.Store.Save
func (s *store) Save(_ context.Context, data *borrowing.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(data.Vault, data.Borrower, data.Mint); item != nil {
		if data.TotalAmount < item.TotalAmount {
			return borrowing.ErrStaleRecord
		}

		item.TotalAmount = data.TotalAmount
		item.LastSignature = data.LastSignature
		item.LastSlot = data.LastSlot

		item.CopyTo(data)

		return nil
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// Get implements borrowing.Store.Get
func (s *store) Get(_ context.Context, vault, borrower, mint string) (*borrowing.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(vault, borrower, mint)
	if item == nil {
		return nil, borrowing.ErrRecordNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAllByBorrower implements borrowing.Store.GetAllByBorrower
func (s *store) GetAllByBorrower(_ context.Context, vault, borrower string) ([]*borrowing.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*borrowing.Record
	for _, item := range s.records {
		if item.Vault == vault && item.Borrower == borrower {
			cloned := item.Clone()
			res = append(res, &cloned)
		}
	}

	if len(res) == 0 {
		return nil, borrowing.ErrRecordNotFound
	}
	return res, nil
}

// GetTotalBorrowed implements borrowing.Store.GetTotalBorrowed
func (s *store) GetTotalBorrowed(_ context.Context, vault, mint string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res uint64
	for _, item := range s.records {
		if item.Vault == vault && item.Mint == mint {
			res += item.TotalAmount
		}
	}
	return res, nil
}

func (s *store) find(vault, borrower, mint string) *borrowing.Record {
	for _, item := range s.records {
		if item.Vault == vault && item.Borrower == borrower && item.Mint == mint {
			return item
		}
	}
	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
	s.records = nil
}
