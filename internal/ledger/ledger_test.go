package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "bets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return New(repo)
}

func testBet() Bet {
	return Bet{
		Fighter:          "Jon Jones",
		Opponent:         "Tom Aspinall",
		Book:             "DraftKings",
		Odds:             150,
		Amount:           50.0,
		Units:            5.0,
		EVPercentage:     7.98,
		ConfidenceScore:  80.0,
		KellyRecommended: 5.0,
		FightDate:        "2024-11-16",
	}
}

func TestPlaceAssignsPendingAndTimestamp(t *testing.T) {
	led := newTestLedger(t)
	led.now = func() time.Time { return time.Date(2024, 11, 10, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	// Caller-set lifecycle fields must be ignored
	bet := testBet()
	bet.Status = StatusWon
	settled := "2024-01-01T00:00:00Z"
	bet.SettledAt = &settled

	id, err := led.Place(ctx, bet)
	require.NoError(t, err)
	require.Positive(t, id)

	stored, err := led.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, "2024-11-10T12:00:00Z", stored.PlacedAt)
	assert.Nil(t, stored.ResultAmount)
	assert.Nil(t, stored.SettledAt)
	assert.Equal(t, "Jon Jones", stored.Fighter)
	assert.Equal(t, 150, stored.Odds)
}

func TestPlaceRejectsInvalidBets(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	zeroOdds := testBet()
	zeroOdds.Odds = 0
	_, err := led.Place(ctx, zeroOdds)
	assert.Error(t, err, "zero odds cannot compute a payout")

	freeBet := testBet()
	freeBet.Amount = 0
	_, err = led.Place(ctx, freeBet)
	assert.Error(t, err, "stake must be positive")
}

func TestSettleWonComputesPayout(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	// $50 at +150 returns stake plus 1.5x: $125
	id, err := led.Place(ctx, testBet())
	require.NoError(t, err)

	bet, err := led.Settle(ctx, id, StatusWon)
	require.NoError(t, err)

	assert.Equal(t, StatusWon, bet.Status)
	require.NotNil(t, bet.ResultAmount)
	assert.InDelta(t, 125.0, *bet.ResultAmount, 1e-9)
	require.NotNil(t, bet.SettledAt)
}

func TestSettleWonOnFavorite(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	// $50 at -200 returns stake plus 0.5x: $75
	fav := testBet()
	fav.Odds = -200
	id, err := led.Place(ctx, fav)
	require.NoError(t, err)

	bet, err := led.Settle(ctx, id, StatusWon)
	require.NoError(t, err)
	require.NotNil(t, bet.ResultAmount)
	assert.InDelta(t, 75.0, *bet.ResultAmount, 1e-9)
}

func TestSettleLostZeroesReturn(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	id, err := led.Place(ctx, testBet())
	require.NoError(t, err)

	bet, err := led.Settle(ctx, id, StatusLost)
	require.NoError(t, err)

	assert.Equal(t, StatusLost, bet.Status)
	require.NotNil(t, bet.ResultAmount)
	assert.Zero(t, *bet.ResultAmount)
}

func TestSettleCancelledLeavesNoAmount(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	id, err := led.Place(ctx, testBet())
	require.NoError(t, err)

	bet, err := led.Settle(ctx, id, StatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, bet.Status)
	assert.Nil(t, bet.ResultAmount, "a cancelled stake was never at risk")
	assert.NotNil(t, bet.SettledAt)
}

func TestSettleTwiceIsHardError(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	id, err := led.Place(ctx, testBet())
	require.NoError(t, err)

	first, err := led.Settle(ctx, id, StatusWon)
	require.NoError(t, err)

	_, err = led.Settle(ctx, id, StatusLost)
	assert.ErrorIs(t, err, ErrBetSettled)

	// First settlement stands untouched
	stored, err := led.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, stored.Status)
	require.NotNil(t, stored.ResultAmount)
	assert.Equal(t, *first.ResultAmount, *stored.ResultAmount)
	assert.Equal(t, *first.SettledAt, *stored.SettledAt)
}

func TestSettleUnknownBet(t *testing.T) {
	led := newTestLedger(t)

	_, err := led.Settle(context.Background(), 9999, StatusWon)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettleRejectsInvalidResult(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	id, err := led.Place(ctx, testBet())
	require.NoError(t, err)

	_, err = led.Settle(ctx, id, StatusPending)
	assert.Error(t, err)

	_, err = led.Settle(ctx, id, Status("voided"))
	assert.Error(t, err)

	// The bet is still pending and settleable
	bet, err := led.Settle(ctx, id, StatusWon)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, bet.Status)
}

func TestRecentNewestFirst(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	// Identical timestamps: ordering falls back to id descending
	led.now = func() time.Time { return time.Date(2024, 11, 10, 12, 0, 0, 0, time.UTC) }

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := led.Place(ctx, testBet())
		require.NoError(t, err)
		ids = append(ids, id)
	}

	bets, err := led.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, bets, 3)
	assert.Equal(t, ids[2], bets[0].ID)
	assert.Equal(t, ids[1], bets[1].ID)
	assert.Equal(t, ids[0], bets[2].ID)
}

func TestRecentDefaultLimit(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := led.Place(ctx, testBet())
		require.NoError(t, err)
	}

	bets, err := led.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, bets, 20)

	bets, err = led.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, bets, 5)
}

func TestStats(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	place := func(amount float64, odds int) int64 {
		b := testBet()
		b.Amount = amount
		b.Odds = odds
		id, err := led.Place(ctx, b)
		require.NoError(t, err)
		return id
	}

	// won $50 at +150 (returns 125), lost $30, pending $20, cancelled $10
	wonID := place(50, 150)
	lostID := place(30, -110)
	place(20, 120)
	cancelledID := place(10, -150)

	_, err := led.Settle(ctx, wonID, StatusWon)
	require.NoError(t, err)
	_, err = led.Settle(ctx, lostID, StatusLost)
	require.NoError(t, err)
	_, err = led.Settle(ctx, cancelledID, StatusCancelled)
	require.NoError(t, err)

	stats, err := led.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalBets)
	assert.Equal(t, 1, stats.WonBets)
	assert.Equal(t, 1, stats.LostBets)
	assert.Equal(t, 1, stats.PendingBets)
	assert.Equal(t, 1, stats.CancelledBets)

	// Win rate over settled (won+lost) bets only
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9)

	// Wagered counts every stake; risk and profit only won+lost
	assert.InDelta(t, 110.0, stats.TotalWagered, 1e-9)
	assert.InDelta(t, 45.0, stats.NetProfit, 1e-9) // 125 returned - 80 risked
	assert.InDelta(t, 56.3, stats.ROI, 1e-9)       // 45/80, rounded to one place
	assert.InDelta(t, 27.5, stats.AvgBetSize, 1e-9)
}

func TestStatsEmptyLedger(t *testing.T) {
	led := newTestLedger(t)

	stats, err := led.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}
