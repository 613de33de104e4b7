// Package sqlitestore provides a SQLite-backed implementation of database.Store.
// The connection is instrumented with otelsql so every query becomes a span.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"shotlog/internal/database"

	sq "github.com/Masterminds/squirrel"
	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements database.Store on a SQL database.
type Store struct {
	db *sql.DB
	sq sq.StatementBuilderType
}

var _ database.Store = (*Store)(nil)

// Open opens the SQLite database at dbPath, applies migrations, and returns
// the store.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("make db dir: %w", err)
		}
	}

	dsn := "file:" + dbPath +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := otelsql.Open("sqlite", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "sqlite")),
	)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db, migrationsFS); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, sq: sq.StatementBuilder}, nil
}

// applyMigrations runs the .sql files under migrations/ in fsys in name
// order, skipping those already recorded in schema_migrations.
func applyMigrations(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL UNIQUE,
        applied_at TEXT NOT NULL
    )`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		applied, err := isApplied(db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := applyMigration(db, name, string(b)); err != nil {
			return err
		}
	}
	return nil
}

// applyMigration runs one migration and records it in the same transaction.
func applyMigration(db *sql.DB, name, stmts string) error {
	return runTx(context.Background(), db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(stmts); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(name, applied_at) VALUES (?, ?)`, name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		return nil
	})
}

func isApplied(db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE name = ?`, name).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return true, nil
}

// withTx runs fn within a transaction.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return runTx(ctx, s.db, fn)
}

func runTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RegisterUser records an alias. Existing aliases are left untouched.
func (s *Store) RegisterUser(ctx context.Context, userID string) error {
	query, args, err := s.sq.Insert("users").
		Columns("id", "registered_at").
		Values(userID, formatTime(time.Now().UTC())).
		Suffix("ON CONFLICT(id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

// Stats counts users, beans and shot entries.
func (s *Store) Stats(ctx context.Context) (database.Stats, error) {
	var st database.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM beans),
			(SELECT COUNT(*) FROM shots)
	`).Scan(&st.Users, &st.Beans, &st.Entries)
	if err != nil {
		return database.Stats{}, fmt.Errorf("read stats: %w", err)
	}
	return st, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
