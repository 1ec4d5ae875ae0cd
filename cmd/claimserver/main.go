package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/common"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/config"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx"
	claimtx_memory "github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx/memory"
	claimtx_postgres "github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx/postgres"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral"
	referral_memory "github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral/memory"
	referral_postgres "github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral/postgres"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/server"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/split"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/transaction"
	pg "github.com/awais-3/BetterClaimSQL-Backend/pkg/database/postgres"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana"
)

func main() {
	log := logrus.StandardLogger().WithField("type", "claimserver/main")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	operator, err := common.NewOperatorFromSecret(cfg.SolanaKeypair)
	if err != nil {
		log.WithError(err).Fatal("failed to parse operator keypair")
	}
	log.WithField("operator", operator.PublicKey().ToBase58()).Info("operator keypair loaded")

	var referrals referral.Store
	var claims claimtx.Store
	if len(cfg.DatabaseURL) > 0 {
		db, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to postgres")
		}
		defer db.Close()

		referrals = referral_postgres.New(db)
		claims = claimtx_postgres.New(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		referrals = referral_memory.New()
		claims = claimtx_memory.New()
	}

	solanaClient := solana.New(cfg.SolanaRPCURL)

	composer := transaction.NewComposer(
		transaction.NewRPCLedger(solanaClient),
		server.NewReferralDirectory(referrals),
		operator,
		split.DefaultParams(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(cfg.ListenAddress, composer, solanaClient, referrals, claims)
	if err := srv.Run(ctx); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}

	log.Info("shutdown complete")
}
