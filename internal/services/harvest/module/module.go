// Package module wires the harvest service into the modkit registry
package module

import (
	"breachwatch/internal/core/vocab"
	"breachwatch/internal/modkit"
	phttp "breachwatch/internal/platform/net/http"
	"breachwatch/internal/services/harvest/domain"
	"breachwatch/internal/services/harvest/repo"
	"breachwatch/internal/services/harvest/service"
)

// Options configure the harvest module
type Options struct {
	Channel      string
	ExportPath   string
	StorePath    string
	VocabPath    string // empty means the embedded pack
	MessageLimit int
	Archive      bool
}

// FromConfig builds Options from the HARVEST_ env namespace
func FromConfig(deps modkit.Deps) Options {
	cfg := deps.Cfg.Prefix("HARVEST_")
	return Options{
		Channel:      cfg.MayString("CHANNEL", "breachdetector"),
		ExportPath:   cfg.MustString("EXPORT_PATH"),
		StorePath:    cfg.MayString("STORE_PATH", "data.json"),
		VocabPath:    cfg.MayString("VOCAB_PATH", ""),
		MessageLimit: cfg.MayInt("MESSAGE_LIMIT", 500),
		Archive:      cfg.MayBool("ARCHIVE", false),
	}
}

// Module is the harvest batch module. It mounts no routes
type Module struct {
	opts   Options
	runner domain.RunnerPort
	store  *repo.FileStore
}

// Ports exposed by the harvest module
type Ports struct {
	Runner domain.RunnerPort
}

// New builds the module: vocabulary, file store, optional archive
func New(deps modkit.Deps, opts Options) (*Module, error) {
	var (
		pack *vocab.Pack
		err  error
	)
	if opts.VocabPath != "" {
		pack, err = vocab.LoadFile(opts.VocabPath)
	} else {
		pack, err = vocab.Load()
	}
	if err != nil {
		return nil, err
	}

	store := repo.NewFileStore(opts.StorePath)
	svcOpts := service.Options{
		Channel:      opts.Channel,
		MessageLimit: opts.MessageLimit,
	}
	if opts.Archive && deps.PG != nil {
		svcOpts.PG = deps.PG
		svcOpts.Archive = repo.NewArchiveBinder()
	}

	return &Module{
		opts:   opts,
		runner: service.New(pack, store, svcOpts),
		store:  store,
	}, nil
}

// Name implements module.Module
func (m *Module) Name() string { return "harvest" }

// MountRoutes implements module.Module; harvest is batch-only
func (m *Module) MountRoutes(phttp.Router) {}

// Ports implements module.Module
func (m *Module) Ports() any { return Ports{Runner: m.runner} }

// ExportPath returns the configured channel export location
func (m *Module) ExportPath() string { return m.opts.ExportPath }

// Store returns the file store, shared with the read API
func (m *Module) Store() *repo.FileStore { return m.store }
