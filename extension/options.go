package extension

import (
	"time"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/plugin"
	"github.com/xraph/mintledger/store"
	"github.com/xraph/mintledger/treasury"
)

// Option configures the mintledger Forge extension.
type Option func(*Extension)

// WithStore sets the journal store, overriding the configured backend.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPayout sets the treasury payout, overriding the configured endpoint.
func WithPayout(p treasury.Payout) Option {
	return func(e *Extension) {
		e.payout = p
	}
}

// WithEngineOption passes a mintledger.Option through to the underlying engine.
func WithEngineOption(opt mintledger.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a mintledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, mintledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP handler construction.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithBasePath sets the URL prefix for mintledger routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithOwner sets the genesis owner address.
func WithOwner(owner string) Option {
	return func(e *Extension) { e.config.Owner = owner }
}

// WithLevelDB selects the leveldb journal at path.
func WithLevelDB(path string) Option {
	return func(e *Extension) {
		e.config.Store = StoreLevelDB
		e.config.LevelDBPath = path
	}
}

// WithGroveStore selects a grove-backed journal: backend is StoreSQLite,
// StorePostgres or StoreMongo and dsn its connection string.
func WithGroveStore(backend, dsn string) Option {
	return func(e *Extension) {
		e.config.Store = backend
		e.config.DSN = dsn
	}
}

// WithGroveDatabase sets the name of the grove.DB to resolve from the DI container.
// The journal backend (sqlite, postgres or mongo) is chosen automatically
// based on the grove driver type. Pass an empty string to use the default (unnamed) grove.DB.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
