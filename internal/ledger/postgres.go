package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresRepository implements Repository on Postgres, for deployments
// where the ledger outlives a single host. Same contract as SQLite; row
// locking replaces the file lock.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository connects with a lib/pq connection string.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := createPostgresSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresRepository{db: db}, nil
}

func createPostgresSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS placed_bets (
		id BIGSERIAL PRIMARY KEY,
		fighter TEXT NOT NULL,
		opponent TEXT NOT NULL,
		book TEXT NOT NULL,
		odds INTEGER NOT NULL,
		bet_amount DOUBLE PRECISION NOT NULL,
		unit_size DOUBLE PRECISION NOT NULL,
		ev_percentage DOUBLE PRECISION NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL,
		kelly_recommended DOUBLE PRECISION NOT NULL,
		placed_date TEXT NOT NULL,
		fight_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		result_amount DOUBLE PRECISION,
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

// Close closes the connection pool.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Insert stores a new bet and returns its assigned id.
func (r *PostgresRepository) Insert(ctx context.Context, bet Bet) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO placed_bets
		(fighter, opponent, book, odds, bet_amount, unit_size, ev_percentage,
		 confidence_score, kelly_recommended, placed_date, fight_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, bet.Fighter, bet.Opponent, bet.Book, bet.Odds, bet.Amount, bet.Units,
		bet.EVPercentage, bet.ConfidenceScore, bet.KellyRecommended,
		bet.PlacedAt, bet.FightDate, string(bet.Status)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting bet: %w", err)
	}
	return id, nil
}

// GetByID retrieves a bet, or ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (Bet, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, fighter, opponent, book, odds, bet_amount, unit_size,
		       ev_percentage, confidence_score, kelly_recommended,
		       placed_date, fight_date, status, result_amount, settled_date
		FROM placed_bets WHERE id = $1
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

// UpdateSettlement writes the settlement fields under a row lock so two
// concurrent settles of the same id serialize.
func (r *PostgresRepository) UpdateSettlement(ctx context.Context, id int64, status Status, resultAmount *float64, settledAt string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning settlement: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM placed_bets WHERE id = $1 FOR UPDATE`, id).Scan(&current)
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
		UPDATE placed_bets SET status = $1, result_amount = $2, settled_date = $3
		WHERE id = $4
	`, string(status), nullFloat(resultAmount), settledAt, id)
	if err != nil {
		return fmt.Errorf("updating settlement: %w", err)
	}

	return tx.Commit()
}

// Recent lists bets newest-first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]Bet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, fighter, opponent, book, odds, bet_amount, unit_size,
		       ev_percentage, confidence_score, kelly_recommended,
		       placed_date, fight_date, status, result_amount, settled_date
		FROM placed_bets
		ORDER BY placed_date DESC, id DESC
		LIMIT $1
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
func (r *PostgresRepository) Totals(ctx context.Context) (Totals, error) {
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
