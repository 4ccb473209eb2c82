package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/event"
	mintstore "github.com/xraph/mintledger/store"
	"github.com/xraph/mintledger/types"
)

// compile-time interface check
var _ mintstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	mu  sync.Mutex
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("mintledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("mintledger/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Event Store ====================

// AppendEvent inserts e. The sequence is the primary key, so a second
// insert of the same sequence fails.
func (s *Store) AppendEvent(ctx context.Context, e *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.LastSequence(ctx)
	if err != nil {
		return err
	}
	if e.Seq <= last {
		return fmt.Errorf("%w: seq %d not after %d", mintledger.ErrSequenceConflict, e.Seq, last)
	}

	m, err := toEventModel(e)
	if err != nil {
		return fmt.Errorf("mintledger/sqlite: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: seq %d", mintledger.ErrSequenceConflict, e.Seq)
		}
		return fmt.Errorf("mintledger/sqlite: append event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.sdb.NewSelect(&models).Where("seq > ?", int64(opts.AfterSeq))

	if !types.IsZeroAddress(opts.Account) {
		addr := opts.Account.Hex()
		q = q.Where("(caller = ? OR from_addr = ? OR to_addr = ?)", addr, addr, addr)
	}
	if len(opts.Kinds) > 0 {
		args := make([]any, len(opts.Kinds))
		for i, k := range opts.Kinds {
			args[i] = string(k)
		}
		q = q.Where("kind IN ("+placeholders(len(args))+")", args...)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("seq ASC")

	if err := q.Scan(ctx); err != nil {
		if isNoRows(err) {
			return []*event.Event{}, nil
		}
		return nil, fmt.Errorf("mintledger/sqlite: list events: %w", err)
	}

	result := make([]*event.Event, len(models))
	for i := range models {
		e, err := fromEventModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("%w: seq %d: %v", mintledger.ErrJournalCorrupt, models[i].Seq, err)
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) LastSequence(ctx context.Context) (uint64, error) {
	var last int64
	err := s.sdb.NewRaw(`SELECT COALESCE(MAX(seq), 0) FROM mintledger_events`).Scan(ctx, &last)
	if err != nil {
		return 0, fmt.Errorf("mintledger/sqlite: last sequence: %w", err)
	}
	return uint64(last), nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
