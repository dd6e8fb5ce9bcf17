// Package module wires the records read API into the modkit registry
package module

import (
	"breachwatch/internal/modkit"
	phttp "breachwatch/internal/platform/net/http"
	"breachwatch/internal/services/api/records/domain"
	recordshttp "breachwatch/internal/services/api/records/http"
	"breachwatch/internal/services/api/records/service"
	"breachwatch/internal/services/harvest/repo"
)

// Options configure the records module
type Options struct {
	StorePath string
}

// FromConfig builds Options from the HARVEST_ env namespace; the API reads
// the same store the harvest job writes
func FromConfig(deps modkit.Deps) Options {
	return Options{
		StorePath: deps.Cfg.Prefix("HARVEST_").MayString("STORE_PATH", "data.json"),
	}
}

// Module serves the read-only records API
type Module struct {
	port domain.RecordsPort
}

// Ports exposed by the records module
type Ports struct {
	Records domain.RecordsPort
}

// New builds the module over the shared file store
func New(deps modkit.Deps, opts Options) *Module {
	return &Module{
		port: service.New(repo.NewFileStore(opts.StorePath)),
	}
}

// Name implements module.Module
func (m *Module) Name() string { return "records" }

// MountRoutes implements module.Module
func (m *Module) MountRoutes(r phttp.Router) {
	recordshttp.MountRoutes(r, m.port)
}

// Ports implements module.Module
func (m *Module) Ports() any { return Ports{Records: m.port} }
