package mintledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/xraph/mintledger/account"
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/id"
	"github.com/xraph/mintledger/plugin"
	"github.com/xraph/mintledger/store"
	"github.com/xraph/mintledger/treasury"
	"github.com/xraph/mintledger/types"
)

// DefaultReplayPageSize is the number of events loaded per page on start.
const DefaultReplayPageSize = 1000

// Engine is the token ledger. All state lives in one Engine; every
// mutation is serialized by a single lock and journaled before it is
// applied.
type Engine struct {
	mu      sync.RWMutex
	st      *state
	started bool

	store    store.Store
	genesis  Genesis
	plugins  *plugin.Registry
	logger   *slog.Logger
	clock    clockwork.Clock
	payout   treasury.Payout
	pageSize int
}

// New creates an Engine over s. g seeds the journal on first start.
func New(s store.Store, g Genesis, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidInput)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGenesis, err)
	}

	e := &Engine{
		st:       newState(),
		store:    s,
		genesis:  g,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		clock:    clockwork.NewRealClock(),
		payout:   treasury.NewVault(),
		pageSize: DefaultReplayPageSize,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the clock that decides the mint day and event timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithPayout sets how treasury withdrawals are settled.
func WithPayout(p treasury.Payout) Option {
	return func(e *Engine) {
		e.payout = p
	}
}

// WithReplayPageSize sets how many events are loaded per page on start.
func WithReplayPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry {
	return e.plugins
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Start migrates the store, replays the journal and, for an empty journal,
// commits the genesis grant.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.start(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)
	return nil
}

func (e *Engine) start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return ErrAlreadyStarted
	}

	if err := e.store.Migrate(ctx); err != nil {
		return fmt.Errorf("mintledger: migrate store: %w", err)
	}

	st, err := e.replay(ctx)
	if err != nil {
		return err
	}
	replayed := st.seq
	e.st = st

	if !st.initialized() {
		if _, err := e.commit(ctx, e.genesisEvent()); err != nil {
			e.st = newState()
			return fmt.Errorf("mintledger: commit genesis: %w", err)
		}
	} else if st.owner != e.genesis.Owner {
		e.logger.Warn("journal owner differs from configured genesis owner, journal wins",
			"journal_owner", st.owner.Hex(),
			"genesis_owner", e.genesis.Owner.Hex(),
		)
	}

	e.started = true

	e.logger.Info("mintledger started",
		"owner", e.st.owner.Hex(),
		"total_supply", e.st.totalSupply.String(),
		"ratio", e.st.ratio.String(),
		"daily_limit", e.st.limit.String(),
		"replayed", replayed,
		"seq", e.st.seq,
	)

	return nil
}

// replay rebuilds state from the journal, page by page.
func (e *Engine) replay(ctx context.Context) (*state, error) {
	st := newState()
	opts := event.ListOpts{Limit: e.pageSize}

	for {
		page, err := e.store.ListEvents(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("mintledger: load journal: %w", err)
		}

		for _, evt := range page {
			apply, err := st.prepare(evt)
			if err != nil {
				return nil, fmt.Errorf("%w: seq %d (%s): %w", ErrJournalCorrupt, evt.Seq, evt.Kind, err)
			}
			apply()
		}

		if len(page) < e.pageSize {
			return st, nil
		}
		opts.AfterSeq = page[len(page)-1].Seq
	}
}

func (e *Engine) genesisEvent() *event.Event {
	g := e.genesis
	evt := e.newEvent(event.KindTransfer, g.Owner, e.clock.Now())
	evt.To = g.Owner
	evt.Amount = g.TotalSupply
	evt.Params = g.Params()
	return evt
}

// Stop notifies plugins and closes the store.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return ErrNotStarted
	}
	e.started = false
	e.mu.Unlock()

	e.plugins.EmitShutdown(ctx)

	e.logger.Info("mintledger stopped")
	return e.store.Close()
}

// Started reports whether the engine is accepting operations.
func (e *Engine) Started() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.started
}

// Ping checks the underlying store.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// ──────────────────────────────────────────────────
// Commit protocol
// ──────────────────────────────────────────────────

func (e *Engine) newEvent(kind event.Kind, caller types.Address, now time.Time) *event.Event {
	return &event.Event{
		ID:        id.NewEventID(),
		Seq:       e.st.seq + 1,
		Kind:      kind,
		Caller:    caller,
		Timestamp: now.UTC(),
	}
}

// commit validates evt, journals it and applies it. The caller must hold
// the write lock. A failed append leaves state untouched.
func (e *Engine) commit(ctx context.Context, evt *event.Event) (*event.Event, error) {
	apply, err := e.st.prepare(evt)
	if err != nil {
		return nil, err
	}

	if err := e.store.AppendEvent(ctx, evt); err != nil {
		e.logger.Error("failed to append event",
			"seq", evt.Seq,
			"kind", evt.Kind,
			"error", err,
		)
		return nil, fmt.Errorf("mintledger: append %s event: %w", evt.Kind, err)
	}

	apply()
	return evt, nil
}

// ──────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────

// Transfer moves amount units from caller to to.
func (e *Engine) Transfer(ctx context.Context, caller, to types.Address, amount types.Amount) (*event.Event, error) {
	evt, err := e.transfer(ctx, caller, to, amount)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitTransfer(ctx, evt)
	return evt, nil
}

func (e *Engine) transfer(ctx context.Context, caller, to types.Address, amount types.Amount) (*event.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil, ErrNotStarted
	}

	evt := e.newEvent(event.KindTransfer, caller, e.clock.Now())
	evt.From = caller
	evt.To = to
	evt.Amount = amount

	if _, err := e.commit(ctx, evt); err != nil {
		return nil, err
	}

	e.logger.Debug("transfer committed",
		"from", caller.Hex(),
		"to", to.Hex(),
		"amount", amount.String(),
		"seq", evt.Seq,
	)
	return evt, nil
}

// BalanceOf returns the units held by addr; unknown accounts hold zero.
func (e *Engine) BalanceOf(addr types.Address) types.Amount {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.balances[addr]
}

// TotalSupply returns the sum of all balances.
func (e *Engine) TotalSupply() types.Amount {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.totalSupply
}

// Account returns a snapshot of addr's balance and mint record.
func (e *Engine) Account(addr types.Address) account.Account {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.account(addr)
}

// MintRecordOf returns addr's most recent mint record.
func (e *Engine) MintRecordOf(addr types.Address) account.MintRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.records[addr]
}

// Holders returns the number of accounts with a non-zero balance.
func (e *Engine) Holders() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.holders()
}

// Sequence returns the sequence number of the last committed event.
func (e *Engine) Sequence() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.seq
}

// Events reads the journal.
func (e *Engine) Events(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	return e.store.ListEvents(ctx, opts)
}

// ──────────────────────────────────────────────────
// Configuration
// ──────────────────────────────────────────────────

// Owner returns the privileged address fixed at genesis.
func (e *Engine) Owner() types.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.owner
}

// EthToTokenRatio returns the units minted per unit of payment.
func (e *Engine) EthToTokenRatio() types.Amount {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.ratio
}

// MaxDailyMintPerAccount returns the per-request mint ceiling.
func (e *Engine) MaxDailyMintPerAccount() types.Amount {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.limit
}

// SetEthToTokenRatio replaces the exchange ratio. Owner only.
func (e *Engine) SetEthToTokenRatio(ctx context.Context, caller types.Address, ratio types.Amount) (*event.Event, error) {
	return e.configure(ctx, event.KindRatioChanged, caller, ratio)
}

// SetDailyMintLimit replaces the per-request mint ceiling. Owner only.
func (e *Engine) SetDailyMintLimit(ctx context.Context, caller types.Address, limit types.Amount) (*event.Event, error) {
	return e.configure(ctx, event.KindLimitChanged, caller, limit)
}

func (e *Engine) configure(ctx context.Context, kind event.Kind, caller types.Address, value types.Amount) (*event.Event, error) {
	evt, err := e.configureLocked(ctx, kind, caller, value)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			e.logger.Warn("unauthorized configuration attempt",
				"caller", caller.Hex(),
				"kind", kind,
			)
		}
		return nil, err
	}

	e.plugins.EmitConfigChanged(ctx, evt)
	return evt, nil
}

func (e *Engine) configureLocked(ctx context.Context, kind event.Kind, caller types.Address, value types.Amount) (*event.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil, ErrNotStarted
	}

	evt := e.newEvent(kind, caller, e.clock.Now())
	evt.Amount = value

	if _, err := e.commit(ctx, evt); err != nil {
		return nil, err
	}

	e.logger.Info("configuration changed",
		"kind", kind,
		"value", value.String(),
		"seq", evt.Seq,
	)
	return evt, nil
}

// ──────────────────────────────────────────────────
// Treasury
// ──────────────────────────────────────────────────

// TreasuryBalance returns the payment currency held by the ledger.
func (e *Engine) TreasuryBalance() types.Amount {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.treasury
}

// WithdrawETH pays the whole treasury out to the owner. Owner only.
//
// The withdrawal is journaled before the payout runs, so a settled payout is
// always on record. If the payout fails a withdrawal_reverted event returns
// the funds to the treasury and ErrTransferFailed is returned. If the
// reversal cannot be journaled either, the treasury stays drained as the
// journal says and both errors are returned.
func (e *Engine) WithdrawETH(ctx context.Context, caller types.Address) (*event.Event, error) {
	evt, err := e.withdraw(ctx, caller)
	if err != nil {
		if errors.Is(err, ErrTransferFailed) && evt != nil {
			e.plugins.EmitWithdrawalFailed(ctx, evt, err)
		}
		return nil, err
	}

	e.plugins.EmitWithdrawal(ctx, evt)
	return evt, nil
}

func (e *Engine) withdraw(ctx context.Context, caller types.Address) (*event.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil, ErrNotStarted
	}

	evt := e.newEvent(event.KindWithdrawal, caller, e.clock.Now())
	evt.To = e.st.owner
	evt.Amount = e.st.treasury

	if _, err := e.commit(ctx, evt); err != nil {
		return nil, err
	}

	payment := treasury.Payment{
		Reference: evt.ID.String(),
		To:        evt.To,
		Amount:    evt.Amount,
	}
	if err := e.payout.Pay(ctx, payment); err != nil {
		e.logger.Error("treasury payout failed",
			"reference", payment.Reference,
			"amount", payment.Amount.String(),
			"error", err,
		)
		failed := fmt.Errorf("%w: %w", ErrTransferFailed, err)
		if rerr := e.revertWithdrawal(ctx, evt); rerr != nil {
			return evt, errors.Join(failed, rerr)
		}
		return evt, failed
	}

	e.logger.Info("treasury withdrawn",
		"owner", evt.To.Hex(),
		"amount", evt.Amount.String(),
		"seq", evt.Seq,
	)
	return evt, nil
}

// revertWithdrawal journals the return of w's funds to the treasury.
func (e *Engine) revertWithdrawal(ctx context.Context, w *event.Event) error {
	rev := e.newEvent(event.KindWithdrawalReverted, w.Caller, e.clock.Now())
	rev.To = w.To
	rev.Amount = w.Amount

	if _, err := e.commit(ctx, rev); err != nil {
		e.logger.Error("withdrawal reversal not journaled",
			"withdrawal", w.ID.String(),
			"amount", w.Amount.String(),
			"error", err,
		)
		return err
	}
	return nil
}
