package extension

import (
	"time"

	"github.com/xraph/mintledger/api"
	"github.com/xraph/mintledger/treasury"
)

// Config holds the mintledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.mintledger" or "mintledger" keys).
type Config struct {
	// DisableRoutes prevents construction of the HTTP API handler.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// BasePath is the URL prefix for mintledger routes (default: "/mintledger").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// Owner is the hex address that receives the genesis supply and holds
	// the privileged role. Required unless a journal already exists.
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// TotalSupply is the genesis supply (default: "10000").
	TotalSupply string `json:"total_supply" mapstructure:"total_supply" yaml:"total_supply"`

	// MaxDailyMintPerAccount is the initial per-request mint ceiling (default: "10").
	MaxDailyMintPerAccount string `json:"max_daily_mint_per_account" mapstructure:"max_daily_mint_per_account" yaml:"max_daily_mint_per_account"`

	// EthToTokenRatio is the initial payment-to-units ratio (default: "1").
	EthToTokenRatio string `json:"eth_to_token_ratio" mapstructure:"eth_to_token_ratio" yaml:"eth_to_token_ratio"`

	// Store selects the journal backend when no store was provided
	// programmatically: "memory" (default), "leveldb", "sqlite",
	// "postgres" or "mongo".
	Store string `json:"store" mapstructure:"store" yaml:"store"`

	// LevelDBPath is the journal directory for the leveldb backend.
	LevelDBPath string `json:"leveldb_path" mapstructure:"leveldb_path" yaml:"leveldb_path"`

	// DSN is the connection string for the sqlite, postgres and mongo
	// backends, e.g. "file:journal.sqlite" or "mongodb://host:27017/ledger".
	DSN string `json:"dsn" mapstructure:"dsn" yaml:"dsn"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the journal is built on that database and Store is ignored;
	// the backend follows the grove driver (sqlite, pg or mongo).
	// When empty and WithGroveDatabase was called, the default (unnamed) DB is used.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// ReplayPageSize is the number of events read per page on start (default: 1000).
	ReplayPageSize int `json:"replay_page_size" mapstructure:"replay_page_size" yaml:"replay_page_size"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// Payout configures the HTTP treasury payout. When Endpoint is empty
	// withdrawals settle into an in-process vault.
	Payout treasury.HTTPConfig `json:"payout" mapstructure:"payout" yaml:"payout"`

	// API configures the HTTP handler.
	API api.Config `json:"api" mapstructure:"api" yaml:"api"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// Store backend names.
const (
	StoreMemory   = "memory"
	StoreLevelDB  = "leveldb"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:               "/mintledger",
		TotalSupply:            "10000",
		MaxDailyMintPerAccount: "10",
		EthToTokenRatio:        "1",
		Store:                  StoreMemory,
		ReplayPageSize:         1000,
		PluginTimeout:          5 * time.Second,
		Payout:                 treasury.DefaultHTTPConfig(),
		API:                    api.DefaultConfig(),
	}
}
