package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/event"
	mintstore "github.com/xraph/mintledger/store"
	"github.com/xraph/mintledger/types"
)

// Collection name constants.
const (
	colEvents = "mintledger_events"
)

// compile-time interface check
var _ mintstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
// The event sequence doubles as the document _id.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all mintledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("mintledger/mongo: migrate %s indexes: %w", col, err)
		}
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

func (s *Store) AppendEvent(ctx context.Context, e *event.Event) error {
	last, err := s.LastSequence(ctx)
	if err != nil {
		return err
	}
	if e.Seq <= last {
		return fmt.Errorf("%w: seq %d not after %d", mintledger.ErrSequenceConflict, e.Seq, last)
	}

	m := toEventModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: seq %d", mintledger.ErrSequenceConflict, e.Seq)
		}
		return fmt.Errorf("mintledger/mongo: append event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	filter := bson.M{"_id": bson.M{"$gt": int64(opts.AfterSeq)}}

	if !types.IsZeroAddress(opts.Account) {
		addr := opts.Account.Hex()
		filter["$or"] = bson.A{
			bson.M{"caller": addr},
			bson.M{"from": addr},
			bson.M{"to": addr},
		}
	}
	if len(opts.Kinds) > 0 {
		filter["kind"] = bson.M{"$in": opts.KindStrings()}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []*event.Event{}, nil
		}
		return nil, fmt.Errorf("mintledger/mongo: list events: %w", err)
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
	var m eventModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("mintledger/mongo: last sequence: %w", err)
	}
	return uint64(m.Seq), nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

// migrationIndexes returns the index definitions for all mintledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colEvents: {
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "caller", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "from", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "to", Value: 1}, {Key: "_id", Value: 1}}},
		},
	}
}
