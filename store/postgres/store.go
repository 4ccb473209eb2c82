package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/event"
	mintstore "github.com/xraph/mintledger/store"
	"github.com/xraph/mintledger/types"
)

// compile-time interface check
var _ mintstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	mu sync.Mutex
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("mintledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("mintledger/postgres: migration failed: %w", err)
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

// AppendEvent inserts e. Another writer that raced us to the same
// sequence trips the primary key and surfaces as ErrSequenceConflict.
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

	m := toEventModel(e)
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: seq %d", mintledger.ErrSequenceConflict, e.Seq)
		}
		return fmt.Errorf("mintledger/postgres: append event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	argIdx := 1
	q := s.pg.NewSelect(&models).Where(fmt.Sprintf("seq > $%d", argIdx), int64(opts.AfterSeq))

	if !types.IsZeroAddress(opts.Account) {
		argIdx++
		addr := opts.Account.Hex()
		q = q.Where(fmt.Sprintf("(caller = $%d OR from_addr = $%d OR to_addr = $%d)", argIdx, argIdx, argIdx), addr)
	}
	if len(opts.Kinds) > 0 {
		marks := make([]string, len(opts.Kinds))
		args := make([]any, len(opts.Kinds))
		for i, k := range opts.Kinds {
			argIdx++
			marks[i] = fmt.Sprintf("$%d", argIdx)
			args[i] = string(k)
		}
		q = q.Where("kind IN ("+strings.Join(marks, ", ")+")", args...)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("seq ASC")

	if err := q.Scan(ctx); err != nil {
		if isNoRows(err) {
			return []*event.Event{}, nil
		}
		return nil, fmt.Errorf("mintledger/postgres: list events: %w", err)
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
	err := s.pg.NewRaw(`SELECT COALESCE(MAX(seq), 0) FROM mintledger_events`).Scan(ctx, &last)
	if err != nil {
		return 0, fmt.Errorf("mintledger/postgres: last sequence: %w", err)
	}
	return uint64(last), nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
