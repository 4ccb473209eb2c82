package mintledger

import (
	"fmt"
	"time"

	"github.com/xraph/mintledger/account"
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/types"
)

// state is the in-memory projection of the journal. It is not safe for
// concurrent use; Engine guards it.
//
// Every event goes through prepare, which validates it against the current
// projection and returns the mutation to run once the event is durable.
// Live commits and journal replay share this path, so a replayed journal is
// checked by exactly the rules that admitted it.
type state struct {
	owner       types.Address
	balances    map[types.Address]types.Amount
	records     map[types.Address]account.MintRecord
	entities    map[types.Address]types.Entity
	totalSupply types.Amount
	ratio       types.Amount
	limit       types.Amount
	treasury    types.Amount
	seq         uint64

	// lastWithdrawal is the seq of the most recent withdrawal and
	// withdrawn its amount. A reversal must directly follow it.
	lastWithdrawal uint64
	withdrawn      types.Amount
}

func newState() *state {
	return &state{
		balances: make(map[types.Address]types.Amount),
		records:  make(map[types.Address]account.MintRecord),
		entities: make(map[types.Address]types.Entity),
	}
}

// initialized reports whether the genesis grant has been applied.
func (s *state) initialized() bool {
	return s.seq > 0
}

// admitMint runs the mint checks in their fixed order and returns the
// units the payment buys.
func (s *state) admitMint(caller types.Address, payment types.Amount, day int64) (types.Amount, error) {
	if types.IsZeroAddress(caller) {
		return types.Zero, fmt.Errorf("%w: cannot mint to the zero address", ErrInvalidRecipient)
	}

	units, ok := payment.Mul(s.ratio)
	if !ok {
		return types.Zero, fmt.Errorf("%w: payment %s at ratio %s", ErrArithmeticOverflow, payment, s.ratio)
	}
	if units.GreaterThan(s.limit) {
		return units, fmt.Errorf("%w: %s units requested, ceiling is %s", ErrExceedsDailyMintLimit, units, s.limit)
	}
	if s.records[caller].MintedOn(day) {
		return units, fmt.Errorf("%w: last mint on day %d", ErrAlreadyMintedToday, day)
	}
	if _, ok := s.balances[caller].Add(units); !ok {
		return units, fmt.Errorf("%w: balance of %s", ErrArithmeticOverflow, caller.Hex())
	}
	if _, ok := s.totalSupply.Add(units); !ok {
		return units, fmt.Errorf("%w: total supply", ErrArithmeticOverflow)
	}
	if _, ok := s.treasury.Add(payment); !ok {
		return units, fmt.Errorf("%w: treasury", ErrArithmeticOverflow)
	}
	return units, nil
}

// prepare validates e against the projection and returns the mutation
// that applies it. Nothing is changed until the returned func runs.
func (s *state) prepare(e *event.Event) (func(), error) {
	if e.Seq != s.seq+1 {
		return nil, fmt.Errorf("%w: got seq %d, want %d", ErrSequenceConflict, e.Seq, s.seq+1)
	}
	if e.IsGenesis() {
		return s.prepareGenesis(e)
	}
	if !s.initialized() {
		return nil, fmt.Errorf("%w: first event must be the genesis grant, got %s", ErrJournalCorrupt, e.Kind)
	}

	switch e.Kind {
	case event.KindTransfer:
		return s.prepareTransfer(e)
	case event.KindMint:
		return s.prepareMint(e)
	case event.KindRatioChanged, event.KindLimitChanged:
		return s.prepareConfig(e)
	case event.KindWithdrawal:
		return s.prepareWithdrawal(e)
	case event.KindWithdrawalReverted:
		return s.prepareWithdrawalReverted(e)
	default:
		return nil, fmt.Errorf("%w: unknown event kind %q", ErrJournalCorrupt, e.Kind)
	}
}

func (s *state) prepareGenesis(e *event.Event) (func(), error) {
	if s.initialized() {
		return nil, fmt.Errorf("%w: second genesis grant at seq %d", ErrJournalCorrupt, e.Seq)
	}
	if types.IsZeroAddress(e.To) {
		return nil, fmt.Errorf("%w: genesis owner is the zero address", ErrInvalidGenesis)
	}

	return func() {
		s.owner = e.To
		s.balances[e.To] = e.Amount
		s.totalSupply = e.Amount
		s.ratio = e.Params.EthToTokenRatio
		s.limit = e.Params.MaxDailyMintPerAccount
		s.touch(e.To, e.Timestamp)
		s.seq = e.Seq
	}, nil
}

func (s *state) prepareTransfer(e *event.Event) (func(), error) {
	if e.Caller != e.From {
		return nil, fmt.Errorf("%w: transfer caller %s is not the sender %s", ErrInvalidInput, e.Caller.Hex(), e.From.Hex())
	}
	if types.IsZeroAddress(e.From) {
		return nil, fmt.Errorf("%w: cannot transfer from the zero address", ErrInvalidInput)
	}
	if types.IsZeroAddress(e.To) {
		return nil, fmt.Errorf("%w: cannot transfer to the zero address", ErrInvalidRecipient)
	}

	debited, ok := s.balances[e.From].Sub(e.Amount)
	if !ok {
		return nil, fmt.Errorf("%w: balance %s, transfer %s", ErrInsufficientBalance, s.balances[e.From], e.Amount)
	}

	if e.From == e.To {
		return func() {
			s.touch(e.From, e.Timestamp)
			s.seq = e.Seq
		}, nil
	}

	credited, ok := s.balances[e.To].Add(e.Amount)
	if !ok {
		return nil, fmt.Errorf("%w: balance of %s", ErrArithmeticOverflow, e.To.Hex())
	}

	return func() {
		s.balances[e.From] = debited
		s.balances[e.To] = credited
		s.touch(e.From, e.Timestamp)
		s.touch(e.To, e.Timestamp)
		s.seq = e.Seq
	}, nil
}

func (s *state) prepareMint(e *event.Event) (func(), error) {
	if e.Caller != e.To {
		return nil, fmt.Errorf("%w: mint caller %s is not the recipient %s", ErrInvalidInput, e.Caller.Hex(), e.To.Hex())
	}

	units, err := s.admitMint(e.Caller, e.Payment, e.Day)
	if err != nil {
		return nil, err
	}
	if !units.Equal(e.Amount) {
		return nil, fmt.Errorf("%w: mint of %s units recorded, ratio yields %s", ErrJournalCorrupt, e.Amount, units)
	}

	// admitMint has already ruled out overflow on all three sums.
	balance, _ := s.balances[e.To].Add(units)
	supply, _ := s.totalSupply.Add(units)
	vault, _ := s.treasury.Add(e.Payment)

	return func() {
		s.balances[e.To] = balance
		s.totalSupply = supply
		s.treasury = vault
		s.records[e.To] = account.MintRecord{LastMintDay: e.Day, MintedToday: units, Minted: true}
		s.touch(e.To, e.Timestamp)
		s.seq = e.Seq
	}, nil
}

func (s *state) prepareConfig(e *event.Event) (func(), error) {
	if e.Caller != s.owner {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, e.Caller.Hex())
	}

	return func() {
		if e.Kind == event.KindRatioChanged {
			s.ratio = e.Amount
		} else {
			s.limit = e.Amount
		}
		s.seq = e.Seq
	}, nil
}

func (s *state) prepareWithdrawal(e *event.Event) (func(), error) {
	if e.Caller != s.owner {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, e.Caller.Hex())
	}
	if e.To != s.owner {
		return nil, fmt.Errorf("%w: withdrawal recipient %s is not the owner", ErrInvalidInput, e.To.Hex())
	}
	remaining, ok := s.treasury.Sub(e.Amount)
	if !ok {
		return nil, fmt.Errorf("%w: withdrawal of %s, treasury holds %s", ErrJournalCorrupt, e.Amount, s.treasury)
	}

	return func() {
		s.treasury = remaining
		s.lastWithdrawal = e.Seq
		s.withdrawn = e.Amount
		s.seq = e.Seq
	}, nil
}

func (s *state) prepareWithdrawalReverted(e *event.Event) (func(), error) {
	if e.Caller != s.owner {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, e.Caller.Hex())
	}
	if s.lastWithdrawal == 0 || s.lastWithdrawal != s.seq {
		return nil, fmt.Errorf("%w: reversal at seq %d does not follow a withdrawal", ErrJournalCorrupt, e.Seq)
	}
	if e.To != s.owner || !e.Amount.Equal(s.withdrawn) {
		return nil, fmt.Errorf("%w: reversal of %s does not match withdrawal of %s", ErrJournalCorrupt, e.Amount, s.withdrawn)
	}
	restored, ok := s.treasury.Add(e.Amount)
	if !ok {
		return nil, fmt.Errorf("%w: treasury", ErrArithmeticOverflow)
	}

	return func() {
		s.treasury = restored
		s.lastWithdrawal = 0
		s.withdrawn = types.Zero
		s.seq = e.Seq
	}, nil
}

func (s *state) touch(addr types.Address, t time.Time) {
	if types.IsZeroAddress(addr) {
		return
	}
	ent, ok := s.entities[addr]
	if !ok {
		s.entities[addr] = types.NewEntityAt(t)
		return
	}
	ent.Touch(t)
	s.entities[addr] = ent
}

// account returns a snapshot of addr.
func (s *state) account(addr types.Address) account.Account {
	return account.Account{
		Entity:  s.entities[addr],
		Address: addr,
		Balance: s.balances[addr],
		Mint:    s.records[addr],
	}
}

// holders returns the number of accounts with a non-zero balance.
func (s *state) holders() int {
	n := 0
	for _, b := range s.balances {
		if !b.IsZero() {
			n++
		}
	}
	return n
}
