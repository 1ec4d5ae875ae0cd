package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/data/claimtx"
)

type store struct {
	mu      sync.Mutex
	records []*claimtx.Record
	last    uint64
}

// New returns a new in memory claimtx.Store
func New() claimtx.Store {
	return &store{}
}

// Put implements claimtx.Store.Put
func (s *store) Put(_ context.Context, data *claimtx.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	for _, item := range s.records {
		if item.TransactionId == data.TransactionId {
			return claimtx.ErrAlreadyExists
		}
	}

	if data.Id == 0 {
		data.Id = s.last
	}
	if data.ClaimedAt.IsZero() {
		data.ClaimedAt = time.Now()
	}
	c := data.Clone()
	s.records = append(s.records, &c)

	return nil
}

// GetRecent implements claimtx.Store.GetRecent
func (s *store) GetRecent(_ context.Context, limit uint64) ([]*claimtx.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]*claimtx.Record, len(s.records))
	copy(sorted, s.records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ClaimedAt.After(sorted[j].ClaimedAt)
	})

	if uint64(len(sorted)) > limit {
		sorted = sorted[:limit]
	}

	res := make([]*claimtx.Record, len(sorted))
	for i, item := range sorted {
		cloned := item.Clone()
		res[i] = &cloned
	}
	return res, nil
}

// GetTotals implements claimtx.Store.GetTotals
func (s *store) GetTotals(_ context.Context) (*claimtx.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := &claimtx.Totals{}
	for _, item := range s.records {
		totals.TotalAccountsClosed += uint64(item.AccountsClosed)
		totals.TotalSolClaimed += item.SolReceived
		totals.TotalSolShared += item.SolShared
	}
	return totals, nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
