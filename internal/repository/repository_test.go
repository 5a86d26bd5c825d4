package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rakeback-manager/internal/database"
	"rakeback-manager/internal/domain"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "rakeback.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedClub(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	repo := NewClubRepository(db, zerolog.Nop())
	require.NoError(t, repo.Create(context.Background(), &domain.Club{ID: id, DisplayName: id, CreatedAt: time.Now()}))
}

func seedWeek(t *testing.T, db *sql.DB, clubID, id string, number int) {
	t.Helper()
	repo := NewWeekRepository(db, zerolog.Nop())
	require.NoError(t, repo.Create(context.Background(), &domain.Week{
		ID: id, ClubID: clubID, WeekNumber: number, StartDate: "2025-01-06", EndDate: "2025-01-12",
		Status: domain.WeekActive, CreatedAt: time.Now(),
	}))
}

func TestClubRepository(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	repo := NewClubRepository(db, zerolog.Nop())

	seedClub(t, db, "round-table")
	seedClub(t, db, "aces-table")

	err := repo.Create(ctx, &domain.Club{ID: "round-table", DisplayName: "again", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrConflict)

	clubs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, clubs, 2)
	assert.Equal(t, "aces-table", clubs[0].ID)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "aces-table"))
	assert.ErrorIs(t, repo.Delete(ctx, "aces-table"), domain.ErrNotFound)
}

func TestEntityRepository(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	seedClub(t, db, "round-table")
	repo := NewEntityRepository(db, zerolog.Nop())

	now := time.Now()
	agent := &domain.Entity{
		ID: "e1", ClubID: "round-table", Tier: domain.TierAgent,
		EntityConfig: domain.EntityConfig{
			Nickname:     "Shark",
			RakebackType: domain.RakebackThreshold,
			Thresholds:   []domain.Threshold{{Start: 0, End: 500, Percentage: 10}},
			TaxRebate:    true,
			Routing:      []domain.RoutingEntry{{Type: domain.TierPlayer, Username: "fish", Percentage: 5}},
		},
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, agent))

	dup := *agent
	dup.ID = "e2"
	dup.Nickname = "SHARK"
	assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrConflict)

	sameNameOtherTier := dup
	sameNameOtherTier.Tier = domain.TierPlayer
	require.NoError(t, repo.Create(ctx, &sameNameOtherTier))

	got, err := repo.Get(ctx, "round-table", domain.TierAgent, "e1")
	require.NoError(t, err)
	assert.Equal(t, agent.EntityConfig, got.EntityConfig)

	got.Rakeback = 25
	got.RakebackType = domain.RakebackFlat
	got.UpdatedAt = time.Now()
	require.NoError(t, repo.Update(ctx, got))

	configs, err := repo.Configs(ctx, "round-table", domain.TierAgent)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, 25.0, configs[0].Rakeback)

	_, err = repo.Get(ctx, "round-table", domain.TierSuperAgent, "e1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	orphan := *agent
	orphan.ID = "e3"
	orphan.ClubID = "nowhere"
	assert.ErrorIs(t, repo.Create(ctx, &orphan), domain.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "round-table", domain.TierAgent, "e1"))
	assert.ErrorIs(t, repo.Delete(ctx, "round-table", domain.TierAgent, "e1"), domain.ErrNotFound)
}

func TestWeekRowsAndProcessing(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	seedClub(t, db, "round-table")
	seedWeek(t, db, "round-table", "w1", 1)

	weeks := NewWeekRepository(db, zerolog.Nop())
	data := NewWeekDataRepository(db, zerolog.Nop())

	upload := domain.WeekUpload{
		Rows: []domain.RakeRow{
			{Nickname: "P1", Agent: "A1", SuperAgent: "-", Rake: 1000, PL: -200},
			{Nickname: "P2", Agent: "-", SuperAgent: "SA1", Rake: 50.5, PL: 10},
		},
		Overview: &domain.ClubOverview{ClubName: "Round Table", TotalFee: 1050.5, ActivePlayers: 2},
	}
	require.NoError(t, weeks.ReplaceRows(ctx, "round-table", "w1", upload))

	rows, overview, err := weeks.Rows(ctx, "round-table", "w1")
	require.NoError(t, err)
	assert.Equal(t, upload.Rows, rows)
	require.NotNil(t, overview)
	assert.Equal(t, "Round Table", overview.ClubName)

	w, err := weeks.Get(ctx, "round-table", "w1")
	require.NoError(t, err)
	assert.True(t, w.HasData)
	assert.False(t, w.Processed)

	wd := &domain.WeekData{
		ID: "d1", ClubID: "round-table", WeekID: "w1", WeekNumber: 1,
		StartDate: w.StartDate, EndDate: w.EndDate, Rows: rows,
		Result:    domain.WeekResult{Summary: domain.WeekSummary{GrandTotal: 150}},
		CreatedAt: time.Now(),
	}
	require.NoError(t, data.SaveProcessed(ctx, wd))

	second := *wd
	second.ID = "d2"
	assert.ErrorIs(t, data.SaveProcessed(ctx, &second), domain.ErrAlreadyProcessed)
	assert.ErrorIs(t, weeks.ReplaceRows(ctx, "round-table", "w1", upload), domain.ErrAlreadyProcessed)

	stored, err := data.Get(ctx, "round-table", "d1")
	require.NoError(t, err)
	assert.Equal(t, 150.0, stored.Result.Summary.GrandTotal)
	assert.Len(t, stored.Rows, 2)

	require.NoError(t, data.Delete(ctx, "round-table", "d1"))
	w, err = weeks.Get(ctx, "round-table", "w1")
	require.NoError(t, err)
	assert.False(t, w.Processed)

	assert.ErrorIs(t, weeks.ReplaceRows(ctx, "round-table", "missing", upload), domain.ErrNotFound)
}

func TestDeletingClubCascades(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	seedClub(t, db, "round-table")
	seedWeek(t, db, "round-table", "w1", 1)

	weeks := NewWeekRepository(db, zerolog.Nop())
	require.NoError(t, weeks.ReplaceRows(ctx, "round-table", "w1", domain.WeekUpload{
		Rows: []domain.RakeRow{{Nickname: "P1", Agent: "-", SuperAgent: "-", Rake: 1}},
	}))

	require.NoError(t, NewClubRepository(db, zerolog.Nop()).Delete(ctx, "round-table"))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM week_rows`).Scan(&n))
	assert.Equal(t, 0, n)
}
