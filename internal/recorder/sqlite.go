package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"PortfolioSentinel/internal/logging"
	"PortfolioSentinel/internal/model"
)

// SQLiteRecorder persists records to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logging.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
// dbPath may be ":memory:".
func NewSQLiteRecorder(dbPath string, logger *logging.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	r, err := NewSQLiteRecorderFromDB(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

// NewSQLiteRecorderFromDB wraps an already opened database and runs migrations.
func NewSQLiteRecorderFromDB(db *sql.DB, logger *logging.Logger) (*SQLiteRecorder, error) {
	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS investors (
			id           TEXT PRIMARY KEY,
			first_name   TEXT,
			last_name    TEXT,
			address      TEXT,
			phone_number TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS price_points (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			open   TEXT,
			high   TEXT,
			low    TEXT,
			close  TEXT NOT NULL,
			volume TEXT,
			UNIQUE (symbol, date)
		)`,

		`CREATE TABLE IF NOT EXISTS purchases (
			id             TEXT PRIMARY KEY,
			investor_id    TEXT NOT NULL REFERENCES investors(id),
			symbol         TEXT NOT NULL,
			purchase_date  TEXT NOT NULL,
			shares         TEXT NOT NULL,
			purchase_price TEXT,
			current_value  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_investor ON purchases(investor_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) SavePricePoints(ctx context.Context, points []model.PricePoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO price_points
		(symbol, date, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range points {
		res, err := stmt.ExecContext(ctx,
			p.Symbol, p.Date, p.Open.String(), p.High.String(), p.Low.String(),
			p.Close.String(), p.Volume.String(),
		)
		if err != nil {
			return 0, fmt.Errorf("insert %s %s: %w", p.Symbol, p.Date, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *SQLiteRecorder) LoadPricePoints(ctx context.Context, symbol string) ([]model.PricePoint, error) {
	query := `SELECT symbol, date, open, high, low, close, volume FROM price_points`
	var args []any
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY symbol, date`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select price points: %w", err)
	}
	defer rows.Close()

	var points []model.PricePoint
	for rows.Next() {
		var p model.PricePoint
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *SQLiteRecorder) SaveInvestor(ctx context.Context, inv *model.Investor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO investors
		(id, first_name, last_name, address, phone_number)
		VALUES (?,?,?,?,?)`,
		inv.ID, inv.FirstName, inv.LastName, inv.Address, inv.Phone,
	)
	if err != nil {
		return fmt.Errorf("insert investor: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) GetInvestor(ctx context.Context, id string) (*model.Investor, error) {
	var inv model.Investor
	err := r.db.QueryRowContext(ctx, `SELECT id, first_name, last_name, address, phone_number
		FROM investors WHERE id = ?`, id).
		Scan(&inv.ID, &inv.FirstName, &inv.LastName, &inv.Address, &inv.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("investor %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select investor: %w", err)
	}
	return &inv, nil
}

func (r *SQLiteRecorder) ListInvestors(ctx context.Context) ([]model.Investor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, first_name, last_name, address, phone_number
		FROM investors ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("select investors: %w", err)
	}
	defer rows.Close()

	var out []model.Investor
	for rows.Next() {
		var inv model.Investor
		if err := rows.Scan(&inv.ID, &inv.FirstName, &inv.LastName, &inv.Address, &inv.Phone); err != nil {
			return nil, fmt.Errorf("scan investor: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) SavePurchases(ctx context.Context, purchases []model.PurchaseRecord) error {
	if len(purchases) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO purchases
		(id, investor_id, symbol, purchase_date, shares, purchase_price, current_value)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range purchases {
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.InvestorID, p.Symbol, p.PurchaseDate,
			p.Shares.String(), p.PurchasePrice.String(), p.RecordedCurrentValue.String(),
		); err != nil {
			return fmt.Errorf("insert purchase %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) ListPurchases(ctx context.Context, investorID string) ([]model.PurchaseRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, investor_id, symbol, purchase_date, shares, purchase_price, current_value
		FROM purchases WHERE investor_id = ? ORDER BY purchase_date, symbol`, investorID)
	if err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	defer rows.Close()

	var out []model.PurchaseRecord
	for rows.Next() {
		var p model.PurchaseRecord
		if err := rows.Scan(&p.ID, &p.InvestorID, &p.Symbol, &p.PurchaseDate,
			&p.Shares, &p.PurchasePrice, &p.RecordedCurrentValue); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
