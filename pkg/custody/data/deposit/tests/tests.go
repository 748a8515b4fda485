package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasless-labs/vault-server/pkg/custody/data/deposit"
)

func RunTests(t *testing.T, s deposit.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s deposit.Store){
		testRoundTrip,
		testImmutability,
		testGetTotalDeposited,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s deposit.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()

		record := &deposit.Record{
			Signature:   "sig1",
			Vault:       "vault",
			Mint:        "mint",
			Destination: "custody",
			Depositor:   "depositor",
			Amount:      500_000_000,
			Slot:        12345,
		}
		cloned := record.Clone()

		_, err := s.Get(ctx, record.Signature, record.Destination)
		assert.Equal(t, deposit.ErrDepositNotFound, err)

		require.NoError(t, s.Save(ctx, record))
		assert.True(t, record.Id > 0)
		assert.True(t, record.CreatedAt.After(start))

		actual, err := s.Get(ctx, cloned.Signature, cloned.Destination)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
	})
}

func testImmutability(t *testing.T, s deposit.Store) {
	t.Run("testImmutability", func(t *testing.T) {
		ctx := context.Background()

		record := &deposit.Record{
			Signature:   "sig1",
			Vault:       "vault",
			Mint:        "mint",
			Destination: "custody",
			Depositor:   "depositor",
			Amount:      100,
			Slot:        1,
		}
		require.NoError(t, s.Save(ctx, record))

		replay := record.Clone()
		replay.Id = 0
		replay.Amount = 200
		assert.Equal(t, deposit.ErrDepositExists, s.Save(ctx, &replay))

		actual, err := s.Get(ctx, record.Signature, record.Destination)
		require.NoError(t, err)
		assert.EqualValues(t, 100, actual.Amount)

		// Same signature landing in a different custody account is a
		// distinct deposit.
		other := record.Clone()
		other.Id = 0
		other.Destination = "custody2"
		require.NoError(t, s.Save(ctx, &other))
	})
}

func testGetTotalDeposited(t *testing.T, s deposit.Store) {
	t.Run("testGetTotalDeposited", func(t *testing.T) {
		ctx := context.Background()

		total, err := s.GetTotalDeposited(ctx, "vault", "mint1")
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)

		records := []*deposit.Record{
			{Signature: "sig1", Vault: "vault", Mint: "mint1", Destination: "custody1", Depositor: "depositor1", Amount: 100, Slot: 1},
			{Signature: "sig2", Vault: "vault", Mint: "mint1", Destination: "custody1", Depositor: "depositor2", Amount: 1_000, Slot: 2},
			{Signature: "sig3", Vault: "vault", Mint: "mint2", Destination: "custody2", Depositor: "depositor1", Amount: 10_000, Slot: 3},
		}
		for _, record := range records {
			require.NoError(t, s.Save(ctx, record))
		}

		total, err = s.GetTotalDeposited(ctx, "vault", "mint1")
		require.NoError(t, err)
		assert.EqualValues(t, 1_100, total)

		total, err = s.GetTotalDeposited(ctx, "vault", "mint2")
		require.NoError(t, err)
		assert.EqualValues(t, 10_000, total)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *deposit.Record) {
	assert.Equal(t, obj1.Signature, obj2.Signature)
	assert.Equal(t, obj1.Vault, obj2.Vault)
	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.Equal(t, obj1.Destination, obj2.Destination)
	assert.Equal(t, obj1.Depositor, obj2.Depositor)
	assert.Equal(t, obj1.Amount, obj2.Amount)
	assert.Equal(t, obj1.Slot, obj2.Slot)
}
