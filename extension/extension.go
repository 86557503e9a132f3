// Package extension provides the Forge extension adapter for Mint.
//
// It implements the forge.Extension interface to integrate Mint
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.mint" or "mint" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/mint"
	"github.com/xraph/mint/store"
	"github.com/xraph/mint/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "mint"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Embeddable token-issuance engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Mint as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config   Config
	engine   *mint.Mint
	store    store.Store
	mintOpts []mint.Option
}

// New creates a new Mint Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Mint instance.
// This is nil until Register is called.
func (e *Extension) Engine() *mint.Mint { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the mint engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Build mint options from resolved config.
	opts := e.buildMintOpts()

	eng := mint.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*mint.Mint, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("mint: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
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
		return errors.New("mint: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildMintOpts constructs mint.Option values from the resolved config.
func (e *Extension) buildMintOpts() []mint.Option {
	opts := make([]mint.Option, 0, len(e.mintOpts)+2)

	// Apply config-derived options.
	if e.config.JournalBatchSize > 0 || e.config.JournalFlushInterval > 0 {
		batchSize := e.config.JournalBatchSize
		flushInterval := e.config.JournalFlushInterval
		defaults := DefaultConfig()
		if batchSize == 0 {
			batchSize = defaults.JournalBatchSize
		}
		if flushInterval == 0 {
			flushInterval = defaults.JournalFlushInterval
		}
		opts = append(opts, mint.WithJournalConfig(batchSize, flushInterval))
	}

	if e.config.DisableMigrate {
		opts = append(opts, mint.WithAutoMigrate(false))
	}

	// Append any pass-through mint options.
	opts = append(opts, e.mintOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("mint: configuration is required but not found in config files; " +
				"ensure 'extensions.mint' or 'mint' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("mint: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("journal_batch_size", e.config.JournalBatchSize),
		forge.F("journal_flush_interval", e.config.JournalFlushInterval),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.mint" first (namespaced pattern).
	if cm.IsSet("extensions.mint") {
		if err := cm.Bind("extensions.mint", &cfg); err == nil {
			e.Logger().Debug("mint: loaded config from file",
				forge.F("key", "extensions.mint"),
			)
			return cfg, true
		}
		e.Logger().Warn("mint: failed to bind extensions.mint config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "mint" key.
	if cm.IsSet("mint") {
		if err := cm.Bind("mint", &cfg); err == nil {
			e.Logger().Debug("mint: loaded config from file",
				forge.F("key", "mint"),
			)
			return cfg, true
		}
		e.Logger().Warn("mint: failed to bind mint config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.JournalBatchSize == 0 {
		cfg.JournalBatchSize = defaults.JournalBatchSize
	}
	if cfg.JournalFlushInterval == 0 {
		cfg.JournalFlushInterval = defaults.JournalFlushInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.JournalBatchSize == 0 && programmaticConfig.JournalBatchSize != 0 {
		yamlConfig.JournalBatchSize = programmaticConfig.JournalBatchSize
	}
	if yamlConfig.JournalFlushInterval == 0 && programmaticConfig.JournalFlushInterval != 0 {
		yamlConfig.JournalFlushInterval = programmaticConfig.JournalFlushInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
