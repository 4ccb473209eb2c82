// Package leveldb provides a journal store on an embedded LevelDB.
//
// Events are stored under "evt:" followed by the big-endian sequence
// number so that iteration order equals sequence order. Values are the
// JSON encoding of event.Event.
package leveldb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/store"
)

const (
	eventKeyPrefix = "evt:"
	lastSeqKey     = "meta:last_seq"
)

var _ store.Store = (*Store)(nil)

// Store is a LevelDB-backed journal store.
type Store struct {
	mu sync.Mutex
	db *leveldb.DB
}

// Open opens (or creates) a LevelDB database at path.
func Open(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("mintledger/leveldb: path required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("mintledger/leveldb: resolve path: %w", err)
	}
	db, err := leveldb.OpenFile(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("mintledger/leveldb: open %s: %w", abs, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a LevelDB instance backed by memory storage.
func OpenInMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("mintledger/leveldb: open memory storage: %w", err)
	}
	return &Store{db: db}, nil
}

func eventKey(seq uint64) []byte {
	key := make([]byte, len(eventKeyPrefix)+8)
	copy(key, eventKeyPrefix)
	binary.BigEndian.PutUint64(key[len(eventKeyPrefix):], seq)
	return key
}

func encodeSeq(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

// AppendEvent writes e and advances the last-sequence marker in one batch.
func (s *Store) AppendEvent(_ context.Context, e *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventKey(e.Seq)
	exists, err := s.db.Has(key, nil)
	if err != nil {
		return s.wrap("check event", err)
	}
	if exists {
		return fmt.Errorf("%w: seq %d", mintledger.ErrSequenceConflict, e.Seq)
	}

	last, err := s.lastSequence()
	if err != nil {
		return err
	}
	if e.Seq <= last {
		return fmt.Errorf("%w: seq %d not after %d", mintledger.ErrSequenceConflict, e.Seq, last)
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("mintledger/leveldb: encode event: %w", err)
	}

	batch := new(leveldb.Batch)
	batch.Put(key, raw)
	batch.Put([]byte(lastSeqKey), encodeSeq(e.Seq))
	if err := s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return s.wrap("append event", err)
	}
	return nil
}

// ListEvents iterates the journal from opts.AfterSeq+1 in sequence order.
func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(eventKeyPrefix)), nil)
	defer iter.Release()

	result := make([]*event.Event, 0)
	for ok := iter.Seek(eventKey(opts.AfterSeq + 1)); ok; ok = iter.Next() {
		if opts.Full(len(result)) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var e event.Event
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("%w: decode key %x: %v", mintledger.ErrJournalCorrupt, iter.Key(), err)
		}
		if opts.Match(&e) {
			result = append(result, &e)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, s.wrap("list events", err)
	}
	return result, nil
}

// LastSequence returns the highest stored sequence, zero when empty.
func (s *Store) LastSequence(_ context.Context) (uint64, error) {
	return s.lastSequence()
}

func (s *Store) lastSequence() (uint64, error) {
	raw, err := s.db.Get([]byte(lastSeqKey), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, s.wrap("load last sequence", err)
	case len(raw) != 8:
		return 0, fmt.Errorf("%w: last sequence marker has %d bytes", mintledger.ErrJournalCorrupt, len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

// Migrate is a no-op; LevelDB has no schema.
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping checks that the database is still open.
func (s *Store) Ping(_ context.Context) error {
	if _, err := s.db.GetProperty("leveldb.num-files-at-level0"); err != nil {
		return s.wrap("ping", err)
	}
	return nil
}

// Close releases the underlying LevelDB resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil && !errors.Is(err, leveldb.ErrClosed) {
		return s.wrap("close", err)
	}
	return nil
}

func (s *Store) wrap(op string, err error) error {
	if errors.Is(err, leveldb.ErrClosed) {
		return fmt.Errorf("mintledger/leveldb: %s: %w", op, mintledger.ErrStoreClosed)
	}
	return fmt.Errorf("mintledger/leveldb: %s: %w", op, err)
}
