package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasless-labs/vault-server/pkg/custody/data/borrowing"
)

func RunTests(t *testing.T, s borrowing.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s borrowing.Store){
		testRoundTrip,
		testMonotonicTotal,
		testGetAllByBorrower,
		testGetTotalBorrowed,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s borrowing.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()

		record := &borrowing.Record{
			Vault:         "vault",
			Borrower:      "borrower",
			Mint:          "mint",
			TotalAmount:   300_000,
			LastSignature: "sig1",
			LastSlot:      5,
		}
		cloned := record.Clone()

		_, err := s.Get(ctx, record.Vault, record.Borrower, record.Mint)
		assert.Equal(t, borrowing.ErrRecordNotFound, err)

		require.NoError(t, s.Save(ctx, record))
		assert.True(t, record.Id > 0)
		assert.True(t, record.CreatedAt.After(start))

		actual, err := s.Get(ctx, cloned.Vault, cloned.Borrower, cloned.Mint)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		record.TotalAmount = 330_000
		record.LastSignature = "sig2"
		record.LastSlot = 6
		cloned = record.Clone()

		require.NoError(t, s.Save(ctx, record))

		actual, err = s.Get(ctx, cloned.Vault, cloned.Borrower, cloned.Mint)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
	})
}

func testMonotonicTotal(t *testing.T, s borrowing.Store) {
	t.Run("testMonotonicTotal", func(t *testing.T) {
		ctx := context.Background()

		record := &borrowing.Record{
			Vault:         "vault",
			Borrower:      "borrower",
			Mint:          "mint",
			TotalAmount:   300_000,
			LastSignature: "sig1",
			LastSlot:      5,
		}
		require.NoError(t, s.Save(ctx, record))

		stale := &borrowing.Record{
			Vault:         "vault",
			Borrower:      "borrower",
			Mint:          "mint",
			TotalAmount:   299_999,
			LastSignature: "sig0",
			LastSlot:      4,
		}
		assert.Equal(t, borrowing.ErrStaleRecord, s.Save(ctx, stale))

		actual, err := s.Get(ctx, record.Vault, record.Borrower, record.Mint)
		require.NoError(t, err)
		assert.EqualValues(t, 300_000, actual.TotalAmount)
		assert.Equal(t, "sig1", actual.LastSignature)
	})
}

func testGetAllByBorrower(t *testing.T, s borrowing.Store) {
	t.Run("testGetAllByBorrower", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByBorrower(ctx, "vault", "borrower1")
		assert.Equal(t, borrowing.ErrRecordNotFound, err)

		records := []*borrowing.Record{
			{Vault: "vault", Borrower: "borrower1", Mint: "mint1", TotalAmount: 3, LastSignature: "sig1", LastSlot: 1},
			{Vault: "vault", Borrower: "borrower1", Mint: "mint2", TotalAmount: 30, LastSignature: "sig2", LastSlot: 2},
			{Vault: "vault", Borrower: "borrower2", Mint: "mint1", TotalAmount: 300, LastSignature: "sig3", LastSlot: 3},
		}
		for _, record := range records {
			require.NoError(t, s.Save(ctx, record))
		}

		actual, err := s.GetAllByBorrower(ctx, "vault", "borrower1")
		require.NoError(t, err)
		require.Len(t, actual, 2)

		actual, err = s.GetAllByBorrower(ctx, "vault", "borrower2")
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.EqualValues(t, 300, actual[0].TotalAmount)
	})
}

func testGetTotalBorrowed(t *testing.T, s borrowing.Store) {
	t.Run("testGetTotalBorrowed", func(t *testing.T) {
		ctx := context.Background()

		total, err := s.GetTotalBorrowed(ctx, "vault", "mint1")
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)

		records := []*borrowing.Record{
			{Vault: "vault", Borrower: "borrower1", Mint: "mint1", TotalAmount: 100, LastSignature: "sig1", LastSlot: 1},
			{Vault: "vault", Borrower: "borrower2", Mint: "mint1", TotalAmount: 1_000, LastSignature: "sig2", LastSlot: 2},
			{Vault: "vault", Borrower: "borrower1", Mint: "mint2", TotalAmount: 10_000, LastSignature: "sig3", LastSlot: 3},
		}
		for _, record := range records {
			require.NoError(t, s.Save(ctx, record))
		}

		total, err = s.GetTotalBorrowed(ctx, "vault", "mint1")
		require.NoError(t, err)
		assert.EqualValues(t, 1_100, total)

		total, err = s.GetTotalBorrowed(ctx, "vault", "mint2")
		require.NoError(t, err)
		assert.EqualValues(t, 10_000, total)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *borrowing.Record) {
	assert.Equal(t, obj1.Vault, obj2.Vault)
	assert.Equal(t, obj1.Borrower, obj2.Borrower)
	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.Equal(t, obj1.TotalAmount, obj2.TotalAmount)
	assert.Equal(t, obj1.LastSignature, obj2.LastSignature)
	assert.Equal(t, obj1.LastSlot, obj2.LastSlot)
}
