/*
Package sqlite provides a SQLite-backed implementation of the planning stores.

PURPOSE:
  Implements planning.BudgetStore and planning.DebtStore using SQLite, so a
  session survives restarts of the planner server.

INTERFACES IMPLEMENTED:
  planning.BudgetStore: monthly budget entries
  planning.DebtStore:   debt CRUD

KEY TABLES:
  budget_entries: one row per (year, month, category), amount as decimal text
  debts:          one row per debt, balance and rate as decimal text

Amounts are stored as TEXT so decimals round-trip exactly.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging): multiple readers
  don't block the single writer.

MIGRATION:
  Versioned migrations live in migrations/*.sql, embedded in the binary and
  applied by golang-migrate on New().

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  session := planning.NewSession(cfg, store, store)

SEE ALSO:
  - planning/store.go: Interface definitions
  - planning/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/planning"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements the planning storage interfaces using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the embedded migrations on the store's own connection.
// The migrate instance is not closed: that would close s.db.
func (s *Store) migrate() error {
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	defer src.Close()

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// =============================================================================
// BUDGET STORE
// =============================================================================

// ListBudgets returns every stored month ordered by (year, month), entries
// in the order they were first saved.
func (s *Store) ListBudgets(ctx context.Context) ([]planning.BudgetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT year, month, category, kind, amount
		FROM budget_entries
		ORDER BY year ASC, month ASC, position ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var records []planning.BudgetRecord
	for rows.Next() {
		var (
			year, month    int
			category, kind string
			amount         string
		)
		if err := rows.Scan(&year, &month, &category, &kind, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan budget entry: %w", err)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q for %s: %w", amount, category, err)
		}

		n := len(records)
		if n == 0 || records[n-1].Year != year || records[n-1].Month != month {
			records = append(records, planning.BudgetRecord{Year: year, Month: month})
			n++
		}
		records[n-1].Entries = append(records[n-1].Entries, planning.BudgetEntry{
			Category: category,
			Kind:     planning.RowKind(kind),
			Amount:   value,
		})
	}
	return records, rows.Err()
}

// SaveMonth upserts one entry. Categories are matched case-insensitively.
func (s *Store) SaveMonth(ctx context.Context, year, month int, entry planning.BudgetEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveEntry(ctx, s.db, year, month, entry)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) saveEntry(ctx context.Context, db execer, year, month int, entry planning.BudgetEntry) error {
	query := `
		INSERT INTO budget_entries (year, month, category, kind, amount, position, updated_at)
		VALUES (?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM budget_entries WHERE year = ? AND month = ?),
			?)
		ON CONFLICT (year, month, category) DO UPDATE SET
			kind = excluded.kind,
			amount = excluded.amount,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		year, month, entry.Category, string(entry.Kind), entry.Amount.String(),
		year, month,
		s.now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save budget entry %d-%02d %s: %w", year, month, entry.Category, err)
	}
	return nil
}

// PutBudget replaces a whole monthly record atomically.
func (s *Store) PutBudget(ctx context.Context, rec planning.BudgetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_entries WHERE year = ? AND month = ?`, rec.Year, rec.Month); err != nil {
		return fmt.Errorf("failed to clear budget %d-%02d: %w", rec.Year, rec.Month, err)
	}
	for _, e := range rec.Entries {
		if err := s.saveEntry(ctx, tx, rec.Year, rec.Month, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// DEBT STORE
// =============================================================================

// ListDebts returns debts in creation order.
func (s *Store) ListDebts(ctx context.Context) ([]planning.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, balance, annual_rate, kind
		FROM debts
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []planning.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

func (s *Store) CreateDebt(ctx context.Context, in planning.DebtInput) (planning.Debt, error) {
	if err := in.Validate(); err != nil {
		return planning.Debt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := planning.Debt{
		ID:                uuid.New().String(),
		Name:              in.Name,
		Balance:           in.Balance,
		AnnualRatePercent: in.AnnualRatePercent,
		Kind:              in.Kind,
	}
	now := s.now().Format(time.RFC3339)

	query := `
		INSERT INTO debts (id, name, balance, annual_rate, kind, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM debts), ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.Name, d.Balance.String(), d.AnnualRatePercent.String(), d.Kind, now, now)
	if err != nil {
		return planning.Debt{}, fmt.Errorf("failed to create debt: %w", err)
	}
	return d, nil
}

func (s *Store) UpdateDebt(ctx context.Context, id string, in planning.DebtInput) (planning.Debt, error) {
	if err := in.Validate(); err != nil {
		return planning.Debt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE debts SET name = ?, balance = ?, annual_rate = ?, kind = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		in.Name, in.Balance.String(), in.AnnualRatePercent.String(), in.Kind,
		s.now().Format(time.RFC3339), id)
	if err != nil {
		return planning.Debt{}, fmt.Errorf("failed to update debt: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return planning.Debt{}, err
	}
	return planning.Debt{
		ID:                id,
		Name:              in.Name,
		Balance:           in.Balance,
		AnnualRatePercent: in.AnnualRatePercent,
		Kind:              in.Kind,
	}, nil
}

func (s *Store) DeleteDebt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	return requireAffected(res)
}

func scanDebt(rows *sql.Rows) (planning.Debt, error) {
	var (
		d             planning.Debt
		balance, rate string
	)
	if err := rows.Scan(&d.ID, &d.Name, &balance, &rate, &d.Kind); err != nil {
		return planning.Debt{}, fmt.Errorf("failed to scan debt: %w", err)
	}
	var err error
	if d.Balance, err = decimal.NewFromString(balance); err != nil {
		return planning.Debt{}, fmt.Errorf("failed to parse balance of debt %s: %w", d.ID, err)
	}
	if d.AnnualRatePercent, err = decimal.NewFromString(rate); err != nil {
		return planning.Debt{}, fmt.Errorf("failed to parse rate of debt %s: %w", d.ID, err)
	}
	return d, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"budget_entries", "debts"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return planning.ErrDebtNotFound
	}
	return nil
}
