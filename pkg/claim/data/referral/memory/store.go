package memory

import (
	"context"
	"sync"
	"time"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/referral"
)

type store struct {
	mu      sync.Mutex
	records []*referral.Record
	last    uint64
}

// New returns a new in memory referral.Store
func New() referral.Store {
	return &store{}
}

// Put implements referral.Store.Put
func (s *store) Put(_ context.Context, data *referral.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	if item := s.find(data); item != nil {
		return referral.ErrAlreadyExists
	}

	if data.Id == 0 {
		data.Id = s.last
	}
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}
	if data.UpdatedAt.IsZero() {
		data.UpdatedAt = data.CreatedAt
	}
	c := data.Clone()
	s.records = append(s.records, &c)

	return nil
}

// GetByWallet implements referral.Store.GetByWallet
func (s *store) GetByWallet(_ context.Context, walletAddress string) (*referral.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByWallet(walletAddress); item != nil {
		cloned := item.Clone()
		return &cloned, nil
	}
	return nil, referral.ErrNotFound
}

// GetByCode implements referral.Store.GetByCode
func (s *store) GetByCode(_ context.Context, code string) (*referral.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.records {
		if item.Code == code {
			cloned := item.Clone()
			return &cloned, nil
		}
	}
	return nil, referral.ErrNotFound
}

// AddSolReceived implements referral.Store.AddSolReceived
func (s *store) AddSolReceived(_ context.Context, walletAddress string, amount float64) (*referral.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByWallet(walletAddress)
	if item == nil {
		return nil, referral.ErrNotFound
	}

	item.SolReceived += amount
	item.UpdatedAt = time.Now()

	cloned := item.Clone()
	return &cloned, nil
}

func (s *store) find(data *referral.Record) *referral.Record {
	for _, item := range s.records {
		if item.Id == data.Id {
			return item
		}
		if item.WalletAddress == data.WalletAddress {
			return item
		}
		if item.Code == data.Code {
			return item
		}
	}
	return nil
}

func (s *store) findByWallet(walletAddress string) *referral.Record {
	for _, item := range s.records {
		if item.WalletAddress == walletAddress {
			return item
		}
	}
	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
