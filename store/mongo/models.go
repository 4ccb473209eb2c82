package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/id"
	"github.com/xraph/mintledger/types"
)

type eventModel struct {
	grove.BaseModel `grove:"table:mintledger_events"`

	Seq       int64        `grove:"seq,pk"     bson:"_id"`
	ID        string       `grove:"id"         bson:"event_id"`
	Kind      string       `grove:"kind"       bson:"kind"`
	Caller    string       `grove:"caller"     bson:"caller"`
	From      string       `grove:"from_addr"  bson:"from"`
	To        string       `grove:"to_addr"    bson:"to"`
	Amount    string       `grove:"amount"     bson:"amount"`
	Payment   string       `grove:"payment"    bson:"payment"`
	Day       int64        `grove:"day"        bson:"day,omitempty"`
	Params    *paramsModel `grove:"params"     bson:"params,omitempty"`
	Timestamp time.Time    `grove:"timestamp"  bson:"timestamp"`
	CreatedAt time.Time    `grove:"created_at" bson:"created_at"`
}

type paramsModel struct {
	EthToTokenRatio        string `bson:"eth_to_token_ratio"`
	MaxDailyMintPerAccount string `bson:"max_daily_mint_per_account"`
}

func toEventModel(e *event.Event) *eventModel {
	m := &eventModel{
		Seq:       int64(e.Seq),
		ID:        e.ID.String(),
		Kind:      string(e.Kind),
		Caller:    e.Caller.Hex(),
		From:      e.From.Hex(),
		To:        e.To.Hex(),
		Amount:    e.Amount.String(),
		Payment:   e.Payment.String(),
		Day:       e.Day,
		Timestamp: e.Timestamp.UTC(),
		CreatedAt: now(),
	}
	if e.Params != nil {
		m.Params = &paramsModel{
			EthToTokenRatio:        e.Params.EthToTokenRatio.String(),
			MaxDailyMintPerAccount: e.Params.MaxDailyMintPerAccount.String(),
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
	if e.From, err = types.ParseAddress(m.From); err != nil {
		return nil, err
	}
	if e.To, err = types.ParseAddress(m.To); err != nil {
		return nil, err
	}
	if e.Amount, err = types.ParseAmount(m.Amount); err != nil {
		return nil, err
	}
	if e.Payment, err = types.ParseAmount(m.Payment); err != nil {
		return nil, err
	}
	if m.Params != nil {
		e.Params = new(event.Params)
		if e.Params.EthToTokenRatio, err = types.ParseAmount(m.Params.EthToTokenRatio); err != nil {
			return nil, err
		}
		if e.Params.MaxDailyMintPerAccount, err = types.ParseAmount(m.Params.MaxDailyMintPerAccount); err != nil {
			return nil, err
		}
	}
	return e, nil
}
