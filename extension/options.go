package extension

import (
	"time"

	"github.com/xraph/mint"
	"github.com/xraph/mint/plugin"
	"github.com/xraph/mint/store"
	"github.com/xraph/mint/token"
	"github.com/xraph/mint/treasury"
)

// Option configures the Mint Forge extension.
type Option func(*Extension)

// WithStore sets the store for the mint engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithMintOption passes a mint.Option through to the underlying engine.
func WithMintOption(opt mint.Option) Option {
	return func(e *Extension) {
		e.mintOpts = append(e.mintOpts, opt)
	}
}

// WithPlugin registers a mint plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.mintOpts = append(e.mintOpts, mint.WithPlugin(p))
	}
}

// WithRegistry sets the ownership registry collaborator.
func WithRegistry(r token.Registry) Option {
	return func(e *Extension) {
		e.mintOpts = append(e.mintOpts, mint.WithRegistry(r))
	}
}

// WithReceiver sets the fund receiver collaborator for withdrawals.
func WithReceiver(r treasury.Receiver) Option {
	return func(e *Extension) {
		e.mintOpts = append(e.mintOpts, mint.WithReceiver(r))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithJournalBatchSize sets the number of journal events to buffer before flushing.
func WithJournalBatchSize(size int) Option {
	return func(e *Extension) { e.config.JournalBatchSize = size }
}

// WithJournalFlushInterval sets how frequently the journal buffer is flushed.
func WithJournalFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.JournalFlushInterval = d }
}
