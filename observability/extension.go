// Package observability provides a metrics extension for mintledger that
// records state transition counts via a MetricFactory.
package observability

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/plugin"
	"github.com/xraph/mintledger/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnTransfer         = (*MetricsExtension)(nil)
	_ plugin.OnMint             = (*MetricsExtension)(nil)
	_ plugin.OnMintRejected     = (*MetricsExtension)(nil)
	_ plugin.OnConfigChanged    = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawal       = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalFailed = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger metrics.
// Register it as a mintledger plugin to track activity automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Token metrics
	Transfers      Counter
	TransferVolume Histogram

	// Mint metrics
	Mints        Counter
	MintUnits    Histogram
	MintPayments Histogram
	MintRejected Counter

	// Configuration metrics
	RatioChanges Counter
	LimitChanges Counter

	// Treasury metrics
	Withdrawals        Counter
	WithdrawalFailures Counter
	WithdrawnAmount    Histogram

	mu       sync.Mutex
	byReason map[string]Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		Transfers:      factory.Counter("mintledger.token.transfers"),
		TransferVolume: factory.Histogram("mintledger.token.transfer_amount"),

		Mints:        factory.Counter("mintledger.mint.accepted"),
		MintUnits:    factory.Histogram("mintledger.mint.units"),
		MintPayments: factory.Histogram("mintledger.mint.payment"),
		MintRejected: factory.Counter("mintledger.mint.rejected"),

		RatioChanges: factory.Counter("mintledger.config.ratio_changes"),
		LimitChanges: factory.Counter("mintledger.config.limit_changes"),

		Withdrawals:        factory.Counter("mintledger.treasury.withdrawals"),
		WithdrawalFailures: factory.Counter("mintledger.treasury.withdrawal_failures"),
		WithdrawnAmount:    factory.Histogram("mintledger.treasury.withdrawn_amount"),

		byReason: make(map[string]Counter),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Token hooks
// ──────────────────────────────────────────────────

// OnTransfer implements plugin.OnTransfer.
func (m *MetricsExtension) OnTransfer(_ context.Context, e *event.Event) error {
	m.Transfers.Inc()
	m.TransferVolume.Observe(toFloat(e.Amount))
	return nil
}

// OnMint implements plugin.OnMint.
func (m *MetricsExtension) OnMint(_ context.Context, e *event.Event) error {
	m.Mints.Inc()
	m.MintUnits.Observe(toFloat(e.Amount))
	m.MintPayments.Observe(toFloat(e.Payment))
	return nil
}

// OnMintRejected implements plugin.OnMintRejected.
func (m *MetricsExtension) OnMintRejected(_ context.Context, _ types.Address, _ types.Amount, reason string) error {
	m.MintRejected.Inc()
	m.reasonCounter(reason).Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Configuration hooks
// ──────────────────────────────────────────────────

// OnConfigChanged implements plugin.OnConfigChanged.
func (m *MetricsExtension) OnConfigChanged(_ context.Context, e *event.Event) error {
	switch e.Kind {
	case event.KindRatioChanged:
		m.RatioChanges.Inc()
	case event.KindLimitChanged:
		m.LimitChanges.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Treasury hooks
// ──────────────────────────────────────────────────

// OnWithdrawal implements plugin.OnWithdrawal.
func (m *MetricsExtension) OnWithdrawal(_ context.Context, e *event.Event) error {
	m.Withdrawals.Inc()
	m.WithdrawnAmount.Observe(toFloat(e.Amount))
	return nil
}

// OnWithdrawalFailed implements plugin.OnWithdrawalFailed.
func (m *MetricsExtension) OnWithdrawalFailed(_ context.Context, _ *event.Event, _ error) error {
	m.WithdrawalFailures.Inc()
	return nil
}

// reasonCounter returns the per-reason rejection counter, creating it on
// first use.
func (m *MetricsExtension) reasonCounter(reason string) Counter {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byReason[reason]
	if !ok {
		c = m.factory.Counter("mintledger.mint.rejected." + strings.ToLower(reason))
		m.byReason[reason] = c
	}
	return c
}

// toFloat converts a token amount to a float for histogram observation.
// Values above 2^53 lose precision.
func toFloat(a types.Amount) float64 {
	f, _ := new(big.Float).SetInt(a.Big()).Float64()
	return f
}
