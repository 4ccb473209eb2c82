package audithook

// Action constants for audit events.
const (
	// Token actions
	ActionTokenTransferred = "token.transferred"
	ActionTokenMinted      = "token.minted"
	ActionMintRejected     = "mint.rejected"

	// Configuration actions
	ActionRatioChanged = "config.ratio_changed"
	ActionLimitChanged = "config.limit_changed"

	// Treasury actions
	ActionTreasuryWithdrawn      = "treasury.withdrawn"
	ActionTreasuryWithdrawFailed = "treasury.withdraw_failed"
)

// Resource constants for audit events.
const (
	ResourceAccount  = "account"
	ResourceConfig   = "config"
	ResourceTreasury = "treasury"
)

// Category constants for audit events.
const (
	CategoryLedger   = "ledger"
	CategoryMint     = "mint"
	CategoryAdmin    = "admin"
	CategoryTreasury = "treasury"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
