// Package extension provides the Forge extension adapter for mintledger.
//
// It implements the forge.Extension interface to integrate the token
// ledger into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.mintledger" or
// "mintledger" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/vessel"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/api"
	"github.com/xraph/mintledger/store"
	"github.com/xraph/mintledger/store/leveldb"
	"github.com/xraph/mintledger/store/memory"
	"github.com/xraph/mintledger/store/mongo"
	"github.com/xraph/mintledger/store/postgres"
	"github.com/xraph/mintledger/store/sqlite"
	"github.com/xraph/mintledger/treasury"
	"github.com/xraph/mintledger/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "mintledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Payment-backed token ledger with daily mint limits"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts mintledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *mintledger.Engine
	store      store.Store
	payout     treasury.Payout
	engineOpts []mintledger.Option
	useGrove   bool
}

// New creates a new mintledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *mintledger.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil && (e.useGrove || e.config.GroveDatabase != "") {
		db, err := e.resolveGroveDB(fapp)
		if err != nil {
			return err
		}
		s, err := storeFromGrove(db)
		if err != nil {
			return err
		}
		e.store = s
	}

	if err := e.Build(context.Background()); err != nil {
		return err
	}

	return vessel.Provide(fapp.Container(), func() (*mintledger.Engine, error) {
		return e.engine, nil
	})
}

// Build opens the store and constructs the engine from the resolved config.
// Register calls it; call it directly to run the engine outside Forge.
func (e *Extension) Build(ctx context.Context) error {
	e.config = mergeWithDefaults(e.config)

	g, err := genesisFromConfig(e.config)
	if err != nil {
		return err
	}

	if e.store == nil {
		s, err := openStore(ctx, e.config)
		if err != nil {
			return err
		}
		e.store = s
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	eng, err := mintledger.New(e.store, g, opts...)
	if err != nil {
		return err
	}
	e.engine = eng
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("mintledger: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(ctx context.Context) error {
	if e.engine != nil && e.engine.Started() {
		if err := e.engine.Stop(ctx); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("mintledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// Handler returns the HTTP API mounted under the configured base path, or
// nil when routes are disabled or the engine is not built.
func (e *Extension) Handler() http.Handler {
	if e.config.DisableRoutes || e.engine == nil {
		return nil
	}
	r := chi.NewRouter()
	r.Mount(e.config.BasePath, api.NewServer(e.engine, e.config.API))
	return r
}

// buildEngineOpts constructs mintledger.Option values from the resolved config.
func (e *Extension) buildEngineOpts() ([]mintledger.Option, error) {
	opts := make([]mintledger.Option, 0, len(e.engineOpts)+3)

	if e.config.ReplayPageSize > 0 {
		opts = append(opts, mintledger.WithReplayPageSize(e.config.ReplayPageSize))
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, mintledger.WithPluginTimeout(e.config.PluginTimeout))
	}

	switch {
	case e.payout != nil:
		opts = append(opts, mintledger.WithPayout(e.payout))
	case e.config.Payout.Endpoint != "":
		p, err := treasury.NewHTTPPayout(e.config.Payout)
		if err != nil {
			return nil, fmt.Errorf("mintledger: payout: %w", err)
		}
		opts = append(opts, mintledger.WithPayout(p))
	}

	// Pass-through engine options win over config-derived ones.
	opts = append(opts, e.engineOpts...)

	return opts, nil
}

// genesisFromConfig parses the genesis fields of cfg.
func genesisFromConfig(cfg Config) (mintledger.Genesis, error) {
	var errs mintledger.MultiError

	owner, err := types.ParseAddress(cfg.Owner)
	if err != nil {
		errs.Add(mintledger.ValidationError{Field: "owner", Message: err.Error()})
	}
	supply, err := types.ParseAmount(cfg.TotalSupply)
	if err != nil {
		errs.Add(mintledger.ValidationError{Field: "total_supply", Message: err.Error()})
	}
	limit, err := types.ParseAmount(cfg.MaxDailyMintPerAccount)
	if err != nil {
		errs.Add(mintledger.ValidationError{Field: "max_daily_mint_per_account", Message: err.Error()})
	}
	ratio, err := types.ParseAmount(cfg.EthToTokenRatio)
	if err != nil {
		errs.Add(mintledger.ValidationError{Field: "eth_to_token_ratio", Message: err.Error()})
	}
	if err := errs.ErrOrNil(); err != nil {
		return mintledger.Genesis{}, fmt.Errorf("%w: %w", mintledger.ErrInvalidGenesis, err)
	}

	return mintledger.Genesis{
		Owner:                  owner,
		TotalSupply:            supply,
		MaxDailyMintPerAccount: limit,
		EthToTokenRatio:        ratio,
	}, nil
}

// openStore constructs the journal backend named by cfg.Store.
func openStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch strings.ToLower(cfg.Store) {
	case "", StoreMemory:
		return memory.New(), nil
	case StoreLevelDB:
		s, err := leveldb.Open(cfg.LevelDBPath)
		if err != nil {
			return nil, fmt.Errorf("mintledger: open leveldb journal: %w", err)
		}
		return s, nil
	case StoreSQLite, StorePostgres, StoreMongo:
		if cfg.DSN == "" {
			return nil, mintledger.ValidationError{Field: "dsn", Message: fmt.Sprintf("required for the %s backend", cfg.Store)}
		}
		db, err := openGroveDB(ctx, strings.ToLower(cfg.Store), cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("mintledger: open %s journal: %w", cfg.Store, err)
		}
		return storeFromGrove(db)
	default:
		return nil, mintledger.ValidationError{Field: "store", Message: fmt.Sprintf("unknown backend %q", cfg.Store)}
	}
}

// openGroveDB connects the grove driver for backend and wraps it.
func openGroveDB(ctx context.Context, backend, dsn string) (*grove.DB, error) {
	var drv grove.GroveDriver
	switch backend {
	case StoreSQLite:
		sdb := sqlitedriver.New()
		if err := sdb.Open(ctx, dsn); err != nil {
			return nil, err
		}
		drv = sdb
	case StorePostgres:
		pdb := pgdriver.New()
		if err := pdb.Open(ctx, dsn); err != nil {
			return nil, err
		}
		drv = pdb
	default:
		mdb := mongodriver.New()
		if err := mdb.Open(ctx, dsn); err != nil {
			return nil, err
		}
		drv = mdb
	}
	return grove.Open(drv)
}

// storeFromGrove picks the journal implementation for db's driver.
func storeFromGrove(db *grove.DB) (store.Store, error) {
	switch name := db.Driver().Name(); name {
	case "sqlite":
		return sqlite.New(db), nil
	case "pg":
		return postgres.New(db), nil
	case "mongo":
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("mintledger: unsupported grove driver %q", name)
	}
}

// resolveGroveDB resolves the configured grove.DB from the DI container.
func (e *Extension) resolveGroveDB(fapp forge.App) (*grove.DB, error) {
	var (
		db  *grove.DB
		err error
	)
	if e.config.GroveDatabase != "" {
		db, err = vessel.InjectNamed[*grove.DB](fapp.Container(), e.config.GroveDatabase)
	} else {
		db, err = vessel.Inject[*grove.DB](fapp.Container())
	}
	if err != nil {
		return nil, fmt.Errorf("mintledger: resolve grove database %q: %w", e.config.GroveDatabase, err)
	}
	return db, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("mintledger: configuration is required but not found in config files; " +
				"ensure 'extensions.mintledger' or 'mintledger' key exists in your config")
		}

		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("mintledger: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("base_path", e.config.BasePath),
		forge.F("owner", e.config.Owner),
		forge.F("store", e.config.Store),
		forge.F("grove_database", e.config.GroveDatabase),
		forge.F("replay_page_size", e.config.ReplayPageSize),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("payout_endpoint", e.config.Payout.Endpoint),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.mintledger" first (namespaced pattern).
	if cm.IsSet("extensions.mintledger") {
		if err := cm.Bind("extensions.mintledger", &cfg); err == nil {
			e.Logger().Debug("mintledger: loaded config from file",
				forge.F("key", "extensions.mintledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("mintledger: failed to bind extensions.mintledger config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "mintledger" key.
	if cm.IsSet("mintledger") {
		if err := cm.Bind("mintledger", &cfg); err == nil {
			e.Logger().Debug("mintledger: loaded config from file",
				forge.F("key", "mintledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("mintledger: failed to bind mintledger config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.TotalSupply == "" {
		cfg.TotalSupply = defaults.TotalSupply
	}
	if cfg.MaxDailyMintPerAccount == "" {
		cfg.MaxDailyMintPerAccount = defaults.MaxDailyMintPerAccount
	}
	if cfg.EthToTokenRatio == "" {
		cfg.EthToTokenRatio = defaults.EthToTokenRatio
	}
	if cfg.Store == "" {
		cfg.Store = defaults.Store
	}
	if cfg.ReplayPageSize == 0 {
		cfg.ReplayPageSize = defaults.ReplayPageSize
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.Payout.MaxRetries == 0 {
		cfg.Payout.MaxRetries = defaults.Payout.MaxRetries
	}
	if cfg.Payout.RetryDelay == 0 {
		cfg.Payout.RetryDelay = defaults.Payout.RetryDelay
	}
	if cfg.API.RateLimit.RequestsPerMinute == 0 {
		cfg.API.RateLimit = defaults.API.RateLimit
	}
	if cfg.API.Auth.ClockSkew == 0 {
		cfg.API.Auth.ClockSkew = defaults.API.Auth.ClockSkew
	}
	if cfg.API.MaxEventsPage == 0 {
		cfg.API.MaxEventsPage = defaults.API.MaxEventsPage
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}

	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	fill(&yamlConfig.BasePath, programmaticConfig.BasePath)
	fill(&yamlConfig.Owner, programmaticConfig.Owner)
	fill(&yamlConfig.TotalSupply, programmaticConfig.TotalSupply)
	fill(&yamlConfig.MaxDailyMintPerAccount, programmaticConfig.MaxDailyMintPerAccount)
	fill(&yamlConfig.EthToTokenRatio, programmaticConfig.EthToTokenRatio)
	fill(&yamlConfig.Store, programmaticConfig.Store)
	fill(&yamlConfig.LevelDBPath, programmaticConfig.LevelDBPath)
	fill(&yamlConfig.DSN, programmaticConfig.DSN)
	fill(&yamlConfig.GroveDatabase, programmaticConfig.GroveDatabase)
	fill(&yamlConfig.Payout.Endpoint, programmaticConfig.Payout.Endpoint)
	fill(&yamlConfig.Payout.Token, programmaticConfig.Payout.Token)
	fill(&yamlConfig.API.Auth.HMACSecret, programmaticConfig.API.Auth.HMACSecret)

	if yamlConfig.ReplayPageSize == 0 && programmaticConfig.ReplayPageSize != 0 {
		yamlConfig.ReplayPageSize = programmaticConfig.ReplayPageSize
	}
	if yamlConfig.PluginTimeout == 0 && programmaticConfig.PluginTimeout != 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	return mergeWithDefaults(yamlConfig)
}
