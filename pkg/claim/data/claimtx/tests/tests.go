package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx"
)

func RunTests(t *testing.T, s claimtx.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s claimtx.Store){
		testHappyPath,
		testGetRecent,
		testGetTotals,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s claimtx.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		records, err := s.GetRecent(ctx, 20)
		require.NoError(t, err)
		assert.Empty(t, records)

		start := time.Now()

		expected := &claimtx.Record{
			WalletAddress:  "wallet1",
			TransactionId:  "signature1",
			SolReceived:    0.00132,
			SolShared:      0.0002,
			AccountsClosed: 3,
		}
		cloned := expected.Clone()

		require.NoError(t, s.Put(ctx, expected))
		assert.EqualValues(t, 1, expected.Id)
		assert.True(t, expected.ClaimedAt.After(start))

		records, err = s.GetRecent(ctx, 20)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assertEquivalentRecords(t, records[0], &cloned)

		assert.Equal(t, claimtx.ErrAlreadyExists, s.Put(ctx, expected))

		assert.Error(t, s.Put(ctx, &claimtx.Record{TransactionId: "signature2", AccountsClosed: 1}))
		assert.Error(t, s.Put(ctx, &claimtx.Record{WalletAddress: "wallet2", AccountsClosed: 1}))
	})
}

func testGetRecent(t *testing.T, s claimtx.Store) {
	t.Run("testGetRecent", func(t *testing.T) {
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			require.NoError(t, s.Put(ctx, &claimtx.Record{
				WalletAddress:  "wallet1",
				TransactionId:  fmt.Sprintf("signature%d", i),
				SolReceived:    0.001,
				AccountsClosed: 1,
				ClaimedAt:      time.Now().Add(time.Duration(i) * time.Minute),
			}))
		}

		records, err := s.GetRecent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, records, 3)

		// newest first
		assert.Equal(t, "signature4", records[0].TransactionId)
		assert.Equal(t, "signature3", records[1].TransactionId)
		assert.Equal(t, "signature2", records[2].TransactionId)

		records, err = s.GetRecent(ctx, 20)
		require.NoError(t, err)
		assert.Len(t, records, 5)
	})
}

func testGetTotals(t *testing.T, s claimtx.Store) {
	t.Run("testGetTotals", func(t *testing.T) {
		ctx := context.Background()

		totals, err := s.GetTotals(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, totals.TotalAccountsClosed)
		assert.Zero(t, totals.TotalSolClaimed)
		assert.Zero(t, totals.TotalSolShared)

		for i := 0; i < 3; i++ {
			require.NoError(t, s.Put(ctx, &claimtx.Record{
				WalletAddress:  "wallet1",
				TransactionId:  fmt.Sprintf("signature%d", i),
				SolReceived:    0.5,
				SolShared:      0.1,
				AccountsClosed: 2,
			}))
		}

		totals, err = s.GetTotals(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 6, totals.TotalAccountsClosed)
		assert.InDelta(t, 1.5, totals.TotalSolClaimed, 1e-9)
		assert.InDelta(t, 0.3, totals.TotalSolShared, 1e-9)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *claimtx.Record) {
	assert.Equal(t, obj1.WalletAddress, obj2.WalletAddress)
	assert.Equal(t, obj1.TransactionId, obj2.TransactionId)
	assert.InDelta(t, obj1.SolReceived, obj2.SolReceived, 1e-9)
	assert.InDelta(t, obj1.SolShared, obj2.SolShared, 1e-9)
	assert.Equal(t, obj1.AccountsClosed, obj2.AccountsClosed)
}
