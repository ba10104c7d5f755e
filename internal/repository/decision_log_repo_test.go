package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drl-go-api/internal/models"
)

func TestDecisionLogListFiltersAndPages(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDecisionLogRepository(db)
	ctx := context.Background()

	activity := seedActivity(t, db, nil)
	other := seedActivity(t, db, nil)

	entries := []models.DecisionLog{
		{ActorID: 1, ActorRole: "admin", Action: "approve", ActivityID: activity.ID},
		{ActorID: 1, ActorRole: "admin", Action: "reject", ActivityID: activity.ID},
		{ActorID: 2, ActorRole: "teacher", Action: "approve", ActivityID: activity.ID},
		{ActorID: 1, ActorRole: "admin", Action: "approve", ActivityID: other.ID},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	results, total, err := repo.List(ctx, DecisionLogFilter{ActivityID: &activity.ID})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, results, 3)

	actor := uint(1)
	results, total, err = repo.List(ctx, DecisionLogFilter{ActivityID: &activity.ID, ActorID: &actor, Action: "approve"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	require.Equal(t, uint(1), results[0].ActorID)

	results, total, err = repo.List(ctx, DecisionLogFilter{ActivityID: &activity.ID, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total, "total counts all matches, not the page")
	require.Len(t, results, 1)
}
