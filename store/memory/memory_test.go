package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workpackage-engine/generic"
	"github.com/warp/workpackage-engine/workpackage"
)

func TestMemory_Contracts(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.PutContract(workpackage.Contract{ID: "b", Name: "Zeta", Type: workpackage.ContractStandard})
	m.PutContract(workpackage.Contract{ID: "a", Name: "Alpha", Type: workpackage.ContractEventos})

	got, err := m.GetContract(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alpha", got.Name)

	missing, err := m.GetContract(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := m.ListContracts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestMemory_WorklogsInRangeIsInclusiveByDay(t *testing.T) {
	m := NewMemory()
	hour := decimal.NewFromInt(1)
	m.AddWorklogs("c",
		workpackage.WorklogDetail{ID: "late", StartDate: time.Date(2025, time.January, 31, 23, 0, 0, 0, time.UTC), TimeSpentHours: hour},
		workpackage.WorklogDetail{ID: "early", StartDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), TimeSpentHours: hour},
		workpackage.WorklogDetail{ID: "out", StartDate: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), TimeSpentHours: hour},
	)

	got, err := m.WorklogsInRange(context.Background(), "c",
		generic.NewTimePoint(2025, time.January, 1), generic.NewTimePoint(2025, time.January, 31))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "early", got[0].ID, "kept in start order")
	assert.Equal(t, "late", got[1].ID)
}

func TestMemory_ReviewRequestsReturnsCopy(t *testing.T) {
	m := NewMemory()
	m.AddReviewRequests("c", workpackage.ReviewRequest{ID: "rr-1", Status: workpackage.ReviewPending})

	got, err := m.ReviewRequests(context.Background(), "c")
	require.NoError(t, err)
	got[0].Status = workpackage.ReviewApproved

	again, err := m.ReviewRequests(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, workpackage.ReviewPending, again[0].Status)
}
