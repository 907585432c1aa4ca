package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRepositoryContract(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "bets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	runRepositoryContract(t, repo)
}

func TestPostgresRepositoryContract(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	repo, err := NewPostgresRepository(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	runRepositoryContract(t, repo)
}

// runRepositoryContract exercises the storage contract every Repository
// implementation must satisfy. Aggregate assertions are written as deltas so
// the suite also holds against a database that already carries rows.
func runRepositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()

	contractBet := func(placedAt string) Bet {
		b := testBet()
		b.Status = StatusPending
		b.PlacedAt = placedAt
		return b
	}

	t.Run("insert and get round-trip", func(t *testing.T) {
		id, err := repo.Insert(ctx, contractBet("2024-11-10T12:00:00Z"))
		require.NoError(t, err)
		require.Positive(t, id)

		stored, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, stored.ID)
		assert.Equal(t, "Jon Jones", stored.Fighter)
		assert.Equal(t, "Tom Aspinall", stored.Opponent)
		assert.Equal(t, 150, stored.Odds)
		assert.Equal(t, 50.0, stored.Amount)
		assert.Equal(t, StatusPending, stored.Status)
		assert.Nil(t, stored.ResultAmount)
		assert.Nil(t, stored.SettledAt)
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 1<<40)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("settlement writes once", func(t *testing.T) {
		id, err := repo.Insert(ctx, contractBet("2024-11-10T12:00:00Z"))
		require.NoError(t, err)

		amount := 125.0
		require.NoError(t, repo.UpdateSettlement(ctx, id, StatusWon, &amount, "2024-11-17T12:00:00Z"))

		err = repo.UpdateSettlement(ctx, id, StatusLost, nil, "2024-11-18T12:00:00Z")
		assert.ErrorIs(t, err, ErrBetSettled)

		stored, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StatusWon, stored.Status)
		require.NotNil(t, stored.ResultAmount)
		assert.Equal(t, 125.0, *stored.ResultAmount)
		require.NotNil(t, stored.SettledAt)
		assert.Equal(t, "2024-11-17T12:00:00Z", *stored.SettledAt)
	})

	t.Run("settle unknown id", func(t *testing.T) {
		amount := 125.0
		err := repo.UpdateSettlement(ctx, 1<<40, StatusWon, &amount, "2024-11-17T12:00:00Z")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("recent newest first", func(t *testing.T) {
		// Timestamps far in the future so these two sort ahead of anything
		// the database already holds
		older, err := repo.Insert(ctx, contractBet("2030-01-01T00:00:00Z"))
		require.NoError(t, err)
		newer, err := repo.Insert(ctx, contractBet("2030-01-02T00:00:00Z"))
		require.NoError(t, err)

		bets, err := repo.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, bets, 2)
		assert.Equal(t, newer, bets[0].ID)
		assert.Equal(t, older, bets[1].ID)
	})

	t.Run("totals track settlement", func(t *testing.T) {
		before, err := repo.Totals(ctx)
		require.NoError(t, err)

		id, err := repo.Insert(ctx, contractBet("2024-11-10T12:00:00Z"))
		require.NoError(t, err)
		amount := 125.0
		require.NoError(t, repo.UpdateSettlement(ctx, id, StatusWon, &amount, "2024-11-17T12:00:00Z"))

		after, err := repo.Totals(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.TotalBets+1, after.TotalBets)
		assert.Equal(t, before.WonBets+1, after.WonBets)
		assert.InDelta(t, before.TotalWagered+50.0, after.TotalWagered, 1e-9)
		assert.InDelta(t, before.TotalReturned+125.0, after.TotalReturned, 1e-9)
		assert.InDelta(t, before.TotalRisked+50.0, after.TotalRisked, 1e-9)
	})
}
