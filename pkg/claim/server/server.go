package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/transaction"
	rate_limit "github.com/awais-3/BetterClaimSQL-Backend/pkg/rate"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana"
)

// Settlement composition hits the RPC node several times per request, so the
// compose endpoints are limited per client IP.
const composeRateLimit = 5

// Server exposes the settlement composer and its stores over HTTP. Clients
// receive base64 serialized transactions to co-sign and broadcast; the
// server never broadcasts anything itself.
type Server struct {
	log *logrus.Entry

	composer  *transaction.Composer
	sc        solana.Client
	referrals referral.Store
	claims    claimtx.Store
	limiter   rate_limit.Limiter

	srv *http.Server
}

func New(
	listenAddress string,
	composer *transaction.Composer,
	sc solana.Client,
	referrals referral.Store,
	claims claimtx.Store,
) *Server {
	s := &Server{
		log: logrus.StandardLogger().WithField("type", "claim/server"),

		composer:  composer,
		sc:        sc,
		referrals: referrals,
		claims:    claims,
		limiter:   rate_limit.NewLocalRateLimiter(composeRateLimit),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(corsMiddleware)

	router.Route("/api/accounts", func(r chi.Router) {
		r.With(s.rateLimitMiddleware).Post("/close-account", s.handleCloseAccount)
		r.With(s.rateLimitMiddleware).Post("/close-accounts-bunch", s.handleCloseAccountsBunch)
		r.With(s.rateLimitMiddleware).Post("/close-account-with-balance", s.handleCloseAccountWithBalance)
		r.Get("/get-accounts-without-balance-list", s.handleAccountsWithoutBalanceList)
		r.Get("/get-accounts-with-balance-list", s.handleAccountsWithBalanceList)
		r.Get("/get-wallet-balance", s.handleWalletBalance)
	})

	router.Route("/api/affiliation", func(r chi.Router) {
		r.Get("/wallet-info", s.handleWalletInfo)
		r.Get("/affiliated-wallet", s.handleAffiliatedWallet)
		r.Get("/check-referral-code", s.handleCheckReferralCode)
		r.Post("/affiliated-wallet/update", s.handleUpdateAffiliatedWallet)
	})

	router.Route("/api/claim-transactions", func(r chi.Router) {
		r.Get("/", s.handleRecentClaimTransactions)
		r.Get("/info", s.handleClaimTransactionTotals)
		r.Post("/store", s.handleStoreClaimTransaction)
	})

	router.Get("/healthz", s.handleHealth)

	s.srv = &http.Server{
		Addr:         listenAddress,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the configured routes, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves HTTP until the context is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	s.log.WithField("address", s.srv.Addr).Info("server started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		allowed, err := s.limiter.Allow(host)
		if err != nil {
			s.log.WithError(err).Warn("rate limiter failure, allowing request")
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
