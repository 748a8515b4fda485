package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gasless-labs/vault-server/pkg/custody/data/deposit"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*deposit.Record
}

// New returns a new in memory deposit.Store
func New() deposit.Store {
	return &store{}
}

// Save implements deposit.Store.Save
func (s *store) Save(_ context.Context, data *deposit.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findBySignatureAndDestination(data.Signature, data.Destination); item != nil {
		return deposit.ErrDepositExists
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

// Get implements deposit.Store.Get
func (s *store) Get(_ context.Context, signature, destination string) (*deposit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findBySignatureAndDestination(signature, destination)
	if item == nil {
		return nil, deposit.ErrDepositNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetTotalDeposited implements deposit.Store.GetTotalDeposited
func (s *store) GetTotalDeposited(_ context.Context, vault, mint string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res uint64
	for _, item := range s.records {
		if item.Vault == vault && item.Mint == mint {
			res += item.Amount
		}
	}
	return res, nil
}

func (s *store) findBySignatureAndDestination(signature, destination string) *deposit.Record {
	for _, item := range s.records {
		if item.Signature == signature && item.Destination == destination {
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
