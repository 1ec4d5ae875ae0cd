package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral"
)

func RunTests(t *testing.T, s referral.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s referral.Store){
		testHappyPath,
		testAddSolReceived,
		testInvalidRecords,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s referral.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetByWallet(ctx, "wallet1")
		assert.Equal(t, referral.ErrNotFound, err)
		_, err = s.GetByCode(ctx, "CODE0001")
		assert.Equal(t, referral.ErrNotFound, err)

		start := time.Now()

		expected := &referral.Record{
			WalletAddress: "wallet1",
			Code:          "CODE0001",
		}
		cloned := expected.Clone()

		require.NoError(t, s.Put(ctx, expected))
		assert.EqualValues(t, 1, expected.Id)
		assert.True(t, expected.CreatedAt.After(start))

		actual, err := s.GetByWallet(ctx, "wallet1")
		require.NoError(t, err)
		assertEquivalentRecords(t, actual, &cloned)

		actual, err = s.GetByCode(ctx, "CODE0001")
		require.NoError(t, err)
		assertEquivalentRecords(t, actual, &cloned)

		// same wallet or same code can't be registered twice
		assert.Equal(t, referral.ErrAlreadyExists, s.Put(ctx, &referral.Record{
			WalletAddress: "wallet1",
			Code:          "CODE0002",
		}))
		assert.Equal(t, referral.ErrAlreadyExists, s.Put(ctx, &referral.Record{
			WalletAddress: "wallet2",
			Code:          "CODE0001",
		}))
	})
}

func testAddSolReceived(t *testing.T, s referral.Store) {
	t.Run("testAddSolReceived", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.AddSolReceived(ctx, "wallet1", 0.5)
		assert.Equal(t, referral.ErrNotFound, err)

		require.NoError(t, s.Put(ctx, &referral.Record{
			WalletAddress: "wallet1",
			Code:          "CODE0001",
		}))

		updated, err := s.AddSolReceived(ctx, "wallet1", 0.5)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, updated.SolReceived, 1e-9)

		updated, err = s.AddSolReceived(ctx, "wallet1", 0.25)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, updated.SolReceived, 1e-9)

		actual, err := s.GetByWallet(ctx, "wallet1")
		require.NoError(t, err)
		assert.InDelta(t, 0.75, actual.SolReceived, 1e-9)
		assert.False(t, actual.UpdatedAt.Before(actual.CreatedAt))
	})
}

func testInvalidRecords(t *testing.T, s referral.Store) {
	t.Run("testInvalidRecords", func(t *testing.T) {
		ctx := context.Background()

		assert.Error(t, s.Put(ctx, &referral.Record{Code: "CODE0001"}))
		assert.Error(t, s.Put(ctx, &referral.Record{WalletAddress: "wallet1", Code: "short"}))
		assert.Error(t, s.Put(ctx, &referral.Record{
			WalletAddress: "wallet1",
			Code:          "CODE0001",
			SolReceived:   -1,
		}))
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *referral.Record) {
	assert.Equal(t, obj1.WalletAddress, obj2.WalletAddress)
	assert.Equal(t, obj1.Code, obj2.Code)
	assert.InDelta(t, obj1.SolReceived, obj2.SolReceived, 1e-9)
}
