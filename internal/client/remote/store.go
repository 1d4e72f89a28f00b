package remote

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/remote/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Store bundles the remote collections over one connection pool.
type Store struct {
	db        *sql.DB
	Words     *WordsRepository
	Sentences *SentencesRepository
}

// NewStore wraps an open pool.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		Words:     NewWordsRepository(db),
		Sentences: NewSentencesRepository(db),
	}
}

// Open connects to the remote store through the pgx stdlib driver. The pool
// is created lazily, so an unreachable server does not fail Open.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(time.Minute)
	return NewStore(db), nil
}

func (s *Store) Conn() *sql.DB { return s.db }

// Ping reports whether the remote store answers. It is the connectivity
// probe used by the monitor.
func (s *Store) Ping(ctx context.Context) error {
	return mapError(s.db.PingContext(ctx))
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RunMigrations applies the embedded schema to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// gooseUpContext is a seam for tests.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}
