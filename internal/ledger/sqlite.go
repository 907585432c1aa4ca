package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository is the default Repository, backed by a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the bet database at path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS placed_bets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fighter TEXT NOT NULL,
		opponent TEXT NOT NULL,
		book TEXT NOT NULL,
		odds INTEGER NOT NULL,
		bet_amount REAL NOT NULL,
		unit_size REAL NOT NULL,
		ev_percentage REAL NOT NULL,
		confidence_score REAL NOT NULL,
		kelly_recommended REAL NOT NULL,
		placed_date TEXT NOT NULL,
		fight_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		result_amount REAL,
		settled_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_placed_bets_status ON placed_bets(status);
	CREATE INDEX IF NOT EXISTS idx_placed_bets_placed ON placed_bets(placed_date);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Insert stores a new bet and returns its assigned id.
func (r *SQLiteRepository) Insert(ctx context.Context, bet Bet) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO placed_bets
		(fighter, opponent, book, odds, bet_amount, unit_size, ev_percentage,
		 confidence_score, kelly_recommended, placed_date, fight_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, bet.Fighter, bet.Opponent, bet.Book, bet.Odds, bet.Amount, bet.Units,
		bet.EVPercentage, bet.ConfidenceScore, bet.KellyRecommended,
		bet.PlacedAt, bet.FightDate, string(bet.Status))
	if err != nil {
		return 0, fmt.Errorf("inserting bet: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a bet, or ErrNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (Bet, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, fighter, opponent, book, odds, bet_amount, unit_size,
		       ev_percentage, confidence_score, kelly_recommended,
		       placed_date, fight_date, status, result_amount, settled_date
		FROM placed_bets WHERE id = ?
	`, id)

	bet, err := scanBet(row)
	if err == sql.ErrNoRows {
		return Bet{}, fmt.Errorf("bet %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Bet{}, fmt.Errorf("scanning bet: %w", err)
	}
	return bet, nil
}

// UpdateSettlement writes the settlement fields, guarded by a transaction so
// only one settle can ever observe the pending state.
func (r *SQLiteRepository) UpdateSettlement(ctx context.Context, id int64, status Status, resultAmount *float64, settledAt string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning settlement: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM placed_bets WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("bet %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking bet status: %w", err)
	}
	if Status(current) != StatusPending {
		return fmt.Errorf("bet %d is %s: %w", id, current, ErrBetSettled)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE placed_bets SET status = ?, result_amount = ?, settled_date = ?
		WHERE id = ?
	`, string(status), nullFloat(resultAmount), settledAt, id)
	if err != nil {
		return fmt.Errorf("updating settlement: %w", err)
	}

	return tx.Commit()
}

// Recent lists bets newest-first.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]Bet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, fighter, opponent, book, odds, bet_amount, unit_size,
		       ev_percentage, confidence_score, kelly_recommended,
		       placed_date, fight_date, status, result_amount, settled_date
		FROM placed_bets
		ORDER BY placed_date DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent bets: %w", err)
	}
	defer rows.Close()

	var bets []Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bet row: %w", err)
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}

// Totals aggregates the raw counters in one pass.
func (r *SQLiteRepository) Totals(ctx context.Context) (Totals, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'won' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'lost' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(bet_amount), 0),
		       COALESCE(SUM(CASE WHEN status IN ('won', 'lost') THEN result_amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status IN ('won', 'lost') THEN bet_amount ELSE 0 END), 0)
		FROM placed_bets
	`)

	var t Totals
	err := row.Scan(&t.TotalBets, &t.WonBets, &t.LostBets, &t.PendingBets,
		&t.CancelledBets, &t.TotalWagered, &t.TotalReturned, &t.TotalRisked)
	if err != nil {
		return Totals{}, fmt.Errorf("scanning totals: %w", err)
	}
	return t, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBet(s scanner) (Bet, error) {
	var bet Bet
	var status string
	var resultAmount sql.NullFloat64
	var settledAt sql.NullString

	err := s.Scan(&bet.ID, &bet.Fighter, &bet.Opponent, &bet.Book, &bet.Odds,
		&bet.Amount, &bet.Units, &bet.EVPercentage, &bet.ConfidenceScore,
		&bet.KellyRecommended, &bet.PlacedAt, &bet.FightDate, &status,
		&resultAmount, &settledAt)
	if err != nil {
		return Bet{}, err
	}

	bet.Status = Status(status)
	if resultAmount.Valid {
		bet.ResultAmount = &resultAmount.Float64
	}
	if settledAt.Valid {
		bet.SettledAt = &settledAt.String
	}
	return bet, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
