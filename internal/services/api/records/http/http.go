// Package http mounts the records API routes
package http

import (
	stdhttp "net/http"

	phttp "breachwatch/internal/platform/net/http"
	"breachwatch/internal/services/api/records/domain"
)

// MountRoutes registers the records endpoints on r
func MountRoutes(r phttp.Router, port domain.RecordsPort) {
	r.Route("/records", func(rr phttp.Router) {
		phttp.PostJSON(rr, "/search", func(req *stdhttp.Request, in domain.SearchInput) (any, error) {
			return port.Search(req.Context(), in)
		})
		phttp.GetJSON(rr, "/stats", func(req *stdhttp.Request) (any, error) {
			return port.Stats(req.Context())
		})
	})
}
