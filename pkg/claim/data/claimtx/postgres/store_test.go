package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx/tests"

	pgutil "github.com/awais-3/BetterClaimSQL-Backend/pkg/database/postgres"
	postgrestest "github.com/awais-3/BetterClaimSQL-Backend/pkg/database/postgres/test"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	// Used for testing ONLY, the table and migrations are external to this repository
	tableCreate = `
	CREATE TABLE betterclaim__claimtransaction (
		id serial NOT NULL PRIMARY KEY,

		wallet_address TEXT NOT NULL,
		transaction_id TEXT NOT NULL,

		sol_received NUMERIC(18, 9) NOT NULL DEFAULT 0,
		sol_shared NUMERIC(18, 9) NOT NULL DEFAULT 0,
		accounts_closed INTEGER NOT NULL,

		claimed_at TIMESTAMP WITH TIME ZONE NOT NULL,

		CONSTRAINT betterclaim__claimtransaction__uniq__transaction_id UNIQUE (transaction_id)
	);
	`

	// Used for testing ONLY, the table and migrations are external to this repository
	tableDestroy = `
		DROP TABLE betterclaim__claimtransaction;
	`
)

var (
	testStore claimtx.Store
	teardown  func()
)

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	testPool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	var cleanUpFunc func()
	db, cleanUpFunc, err := postgrestest.StartPostgresDB(testPool)
	if err != nil {
		log.WithError(err).Error("Error starting postgres image")
		os.Exit(1)
	}
	defer db.Close()

	if err := createTestTables(db); err != nil {
		logrus.StandardLogger().WithError(err).Error("Error creating test tables")
		cleanUpFunc()
		os.Exit(1)
	}

	testStore = New(db)
	teardown = func() {
		if pc := recover(); pc != nil {
			cleanUpFunc()
			panic(pc)
		}

		if err := resetTestTables(db); err != nil {
			logrus.StandardLogger().WithError(err).Error("Error resetting test tables")
			cleanUpFunc()
			os.Exit(1)
		}
	}

	code := m.Run()
	cleanUpFunc()
	os.Exit(code)
}

func TestClaimTxPostgresStore(t *testing.T) {
	tests.RunTests(t, testStore, teardown)
}

// Settlement recording and referral payout accounting happen together, so
// store writes must be scopeable to a caller-owned transaction.
func TestClaimTxPostgresStore_ScopedTx(t *testing.T) {
	defer teardown()

	ctx := context.Background()
	db := testStore.(*store).db

	newRecord := func(transactionId string) *claimtx.Record {
		return &claimtx.Record{
			WalletAddress:  "wallet1",
			TransactionId:  transactionId,
			SolReceived:    0.001,
			AccountsClosed: 1,
		}
	}

	// an error from the scoped fn rolls back every write inside it
	induced := errors.New("induced failure")
	err := pgutil.ExecuteTxWithinCtx(ctx, db, sql.LevelDefault, func(ctx context.Context) error {
		if err := testStore.Put(ctx, newRecord("signature1")); err != nil {
			return err
		}
		if err := testStore.Put(ctx, newRecord("signature2")); err != nil {
			return err
		}
		return induced
	})
	assert.Equal(t, induced, err)

	records, err := testStore.GetRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	// on success both writes commit atomically
	require.NoError(t, pgutil.ExecuteTxWithinCtx(ctx, db, sql.LevelDefault, func(ctx context.Context) error {
		if err := testStore.Put(ctx, newRecord("signature1")); err != nil {
			return err
		}
		return testStore.Put(ctx, newRecord("signature2"))
	}))

	records, err = testStore.GetRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// nesting is rejected
	err = pgutil.ExecuteTxWithinCtx(ctx, db, sql.LevelDefault, func(ctx context.Context) error {
		return pgutil.ExecuteTxWithinCtx(ctx, db, sql.LevelDefault, func(context.Context) error {
			return nil
		})
	})
	assert.Equal(t, pgutil.ErrAlreadyInTx, err)
}

func createTestTables(db *sql.DB) error {
	_, err := db.Exec(tableCreate)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not create test tables")
		return err
	}
	return nil
}

func resetTestTables(db *sql.DB) error {
	_, err := db.Exec(tableDestroy)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not drop test tables")
		return err
	}

	return createTestTables(db)
}
