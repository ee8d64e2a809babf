package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	// PostgreSQL driver for shared deployments.
	_ "github.com/lib/pq"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store holds the database handle and provides access to repositories.
type Store struct {
	db     *sqlx.DB
	driver string
	locks  *KeyedMutex
}

// Open connects to the database identified by driver and dsn, applies
// driver-specific settings and runs auto-migration.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)

	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		// One connection keeps pragmas and in-memory databases consistent
		// and serializes writers.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if err := migrate(ctx, entsql.OpenDB(entDialect(driver), db)); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{
		db:     sqlx.NewDb(db, sqlxDriverName(driver)),
		driver: driver,
		locks:  NewKeyedMutex(),
	}, nil
}

// OpenSQLite opens a SQLite database file at path.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	return Open(ctx, DriverSQLite, path)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db.DB
}

// Driver reports which SQL backend the store is connected to.
func (s *Store) Driver() string {
	return s.driver
}

// Locks returns the per-learner lock shared by every service built on
// this store.
func (s *Store) Locks() *KeyedMutex {
	return s.locks
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ItemRepo returns an ItemRepo backed by this store.
func (s *Store) ItemRepo() ItemRepo {
	return &itemRepo{db: s.db}
}

// TopicRepo returns a TopicRepo backed by this store.
func (s *Store) TopicRepo() TopicRepo {
	return &topicRepo{db: s.db}
}

// ProfileRepo returns a ProfileRepo backed by this store.
func (s *Store) ProfileRepo() ProfileRepo {
	return &profileRepo{db: s.db}
}

// AttemptRepo returns an AttemptRepo backed by this store.
func (s *Store) AttemptRepo() AttemptRepo {
	return &attemptRepo{db: s.db}
}

// ConversationRepo returns a ConversationRepo backed by this store.
func (s *Store) ConversationRepo() ConversationRepo {
	return &conversationRepo{db: s.db}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db}
}

func entDialect(driver string) string {
	if driver == DriverPostgres {
		return dialect.Postgres
	}
	return dialect.SQLite
}

func sqlxDriverName(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the SQLite file path in priority order:
// 1. SPRACHIZ_DB environment variable
// 2. $XDG_DATA_HOME/sprachiz/sprachiz.db
// 3. ~/.local/share/sprachiz/sprachiz.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("SPRACHIZ_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "sprachiz", "sprachiz.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
