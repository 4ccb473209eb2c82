package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/id"
	"github.com/xraph/mintledger/types"
)

type eventModel struct {
	grove.BaseModel `grove:"table:mintledger_events"`

	Seq       int64  `grove:"seq,pk"`
	ID        string `grove:"id"`
	Kind      string `grove:"kind"`
	Caller    string `grove:"caller"`
	FromAddr  string `grove:"from_addr"`
	ToAddr    string `grove:"to_addr"`
	Amount    string `grove:"amount"`
	Payment   string `grove:"payment"`
	Day       int64  `grove:"day"`
	Params    string `grove:"params"`
	Timestamp string `grove:"timestamp"`
	CreatedAt string `grove:"created_at"`
}

func toEventModel(e *event.Event) (*eventModel, error) {
	m := &eventModel{
		Seq:       int64(e.Seq),
		ID:        e.ID.String(),
		Kind:      string(e.Kind),
		Caller:    e.Caller.Hex(),
		FromAddr:  e.From.Hex(),
		ToAddr:    e.To.Hex(),
		Amount:    e.Amount.String(),
		Payment:   e.Payment.String(),
		Day:       e.Day,
		Timestamp: formatTime(e.Timestamp),
		CreatedAt: formatTime(now()),
	}
	if e.Params != nil {
		raw, err := json.Marshal(e.Params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		m.Params = string(raw)
	}
	return m, nil
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	e := &event.Event{
		Seq:  uint64(m.Seq),
		Kind: event.Kind(m.Kind),
		Day:  m.Day,
	}

	var err error
	if e.Timestamp, err = time.Parse(time.RFC3339Nano, m.Timestamp); err != nil {
		return nil, fmt.Errorf("decode timestamp: %w", err)
	}
	e.Timestamp = e.Timestamp.UTC()
	if m.ID != "" {
		if e.ID, err = id.ParseEventID(m.ID); err != nil {
			return nil, err
		}
	}
	if e.Caller, err = types.ParseAddress(m.Caller); err != nil {
		return nil, err
	}
	if e.From, err = types.ParseAddress(m.FromAddr); err != nil {
		return nil, err
	}
	if e.To, err = types.ParseAddress(m.ToAddr); err != nil {
		return nil, err
	}
	if e.Amount, err = types.ParseAmount(m.Amount); err != nil {
		return nil, err
	}
	if e.Payment, err = types.ParseAmount(m.Payment); err != nil {
		return nil, err
	}
	if m.Params != "" {
		e.Params = new(event.Params)
		if err := json.Unmarshal([]byte(m.Params), e.Params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
	}
	return e, nil
}

// Times are stored as RFC 3339 text in UTC; the driver hands TEXT columns
// back as strings.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
