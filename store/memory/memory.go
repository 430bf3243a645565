// Package memory provides an in-memory workpackage.Source (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/workpackage"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	contracts map[string]workpackage.Contract
	worklogs  map[string][]workpackage.WorklogDetail
	reviews   map[string][]workpackage.ReviewRequest
}

var _ workpackage.Source = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		contracts: make(map[string]workpackage.Contract),
		worklogs:  make(map[string][]workpackage.WorklogDetail),
		reviews:   make(map[string][]workpackage.ReviewRequest),
	}
}

// PutContract stores (or replaces) a contract with its nested records.
func (m *Memory) PutContract(c workpackage.Contract) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = c
}

// AddWorklogs appends worklogs to a contract, kept ordered by start date.
func (m *Memory) AddWorklogs(contractID string, worklogs ...workpackage.WorklogDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wls := append(m.worklogs[contractID], worklogs...)
	sort.SliceStable(wls, func(i, j int) bool {
		return wls[i].StartDate.Before(wls[j].StartDate)
	})
	m.worklogs[contractID] = wls
}

// AddReviewRequests appends review requests to a contract.
func (m *Memory) AddReviewRequests(contractID string, reqs ...workpackage.ReviewRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[contractID] = append(m.reviews[contractID], reqs...)
}

func (m *Memory) GetContract(_ context.Context, id string) (*workpackage.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contracts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) ListContracts(_ context.Context) ([]workpackage.ContractSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]workpackage.ContractSummary, 0, len(m.contracts))
	for _, c := range m.contracts {
		result = append(result, workpackage.ContractSummary{ID: c.ID, Name: c.Name, Client: c.Client, Type: c.Type})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) WorklogsInRange(_ context.Context, contractID string, from, to generic.TimePoint) ([]workpackage.WorklogDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []workpackage.WorklogDetail
	for _, w := range m.worklogs[contractID] {
		day := generic.DateOf(w.StartDate.UTC())
		if from.BeforeOrEqual(day) && day.BeforeOrEqual(to) {
			result = append(result, w)
		}
	}
	return result, nil
}

func (m *Memory) ReviewRequests(_ context.Context, contractID string) ([]workpackage.ReviewRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]workpackage.ReviewRequest, len(m.reviews[contractID]))
	copy(result, m.reviews[contractID])
	return result, nil
}
