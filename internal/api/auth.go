package api

import (
	"net/http"

	"github.com/yaroslaff/sashimidb/internal/auth"
	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/registry"
)

// requireProjectAuth enforces spec §4.5 for a project-scoped request (no
// dataset named): effective tokens/trusted_ips come from the project
// config chain (which already includes master, via StringListInherited).
func requireProjectAuth(r *http.Request, proj *registry.Project) error {
	return checkAuth(r, proj.Config)
}

// requireDatasetAuth enforces spec §4.5 for a dataset-scoped request:
// effective tokens/trusted_ips = project ∪ dataset, which falls out
// naturally from resolving against the dataset's own config node (its
// parent chain already includes the project and master).
func requireDatasetAuth(r *http.Request, cfg *config.Node) error {
	return checkAuth(r, cfg)
}

func checkAuth(r *http.Request, cfg *config.Node) error {
	ipHeader, _ := cfg.String("ip_header")
	clientIP, err := auth.ClientIP(r, ipHeader)
	if err != nil {
		return errUnauthorized(err.Error())
	}

	tokens := cfg.StringListInherited("tokens")
	trustedIPs := cfg.StringListInherited("trusted_ips")
	token := auth.BearerToken(r)

	if err := auth.Authorize(tokens, trustedIPs, clientIP, token); err != nil {
		return errUnauthorized(err.Error())
	}
	return nil
}
