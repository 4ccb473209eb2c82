package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/id"
	"github.com/xraph/mintledger/types"
)

const (
	paramRatio = "eth_to_token_ratio"
	paramLimit = "max_daily_mint_per_account"
)

type eventModel struct {
	grove.BaseModel `grove:"table:mintledger_events"`

	Seq       int64             `grove:"seq,pk"`
	ID        string            `grove:"id"`
	Kind      string            `grove:"kind"`
	Caller    string            `grove:"caller"`
	FromAddr  string            `grove:"from_addr"`
	ToAddr    string            `grove:"to_addr"`
	Amount    string            `grove:"amount"`
	Payment   string            `grove:"payment"`
	Day       int64             `grove:"day"`
	Params    map[string]string `grove:"params,type:jsonb"`
	Timestamp time.Time         `grove:"timestamp"`
	CreatedAt time.Time         `grove:"created_at"`
}

func toEventModel(e *event.Event) *eventModel {
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
		Timestamp: e.Timestamp.UTC(),
		CreatedAt: now(),
	}
	if e.Params != nil {
		m.Params = map[string]string{
			paramRatio: e.Params.EthToTokenRatio.String(),
			paramLimit: e.Params.MaxDailyMintPerAccount.String(),
		}
	}
	return m
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	e := &event.Event{
		Seq:       uint64(m.Seq),
		Kind:      event.Kind(m.Kind),
		Day:       m.Day,
		Timestamp: m.Timestamp.UTC(),
	}

	var err error
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
	if len(m.Params) > 0 {
		e.Params = new(event.Params)
		if e.Params.EthToTokenRatio, err = types.ParseAmount(m.Params[paramRatio]); err != nil {
			return nil, err
		}
		if e.Params.MaxDailyMintPerAccount, err = types.ParseAmount(m.Params[paramLimit]); err != nil {
			return nil, err
		}
	}
	return e, nil
}
