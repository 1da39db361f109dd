// Package auth implements the Authorization component (spec §4.5): a
// bearer-token check against the effective token list and a trusted-IP
// check with an optional proxy header, evaluated in a fixed order ahead
// of any mutating or privileged work. It has no teacher equivalent —
// sapcc-limes delegates authentication/authorization to OpenStack
// Keystone plus a Rego policy document (github.com/open-policy-agent/opa,
// github.com/databus23/goslo.policy), neither of which applies to this
// spec's flat token + CIDR model (see SPEC_FULL.md's unbound-deps table).
package auth

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the request's client address per spec §4.5 step 2: if
// ipHeader is configured, read that header and take its first
// (left-most) comma-separated address; otherwise fall back to the
// socket peer. A value that doesn't parse as an IP is a hard error
// (mapped to 401 by the facade), never silently ignored.
func ClientIP(r *http.Request, ipHeader string) (string, error) {
	if ipHeader != "" {
		raw := r.Header.Get(ipHeader)
		if raw == "" {
			return "", fmt.Errorf("missing %s header", ipHeader)
		}
		first := strings.TrimSpace(strings.Split(raw, ",")[0])
		if net.ParseIP(first) == nil {
			return "", fmt.Errorf("cannot parse client IP from %s header: %q", ipHeader, raw)
		}
		return first, nil
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr // RemoteAddr had no port (e.g. in unit tests)
	}
	if net.ParseIP(host) == nil {
		return "", fmt.Errorf("cannot parse socket peer address %q", r.RemoteAddr)
	}
	return host, nil
}

// CheckTrustedIP enforces spec §4.5 step 3: an empty trustedIPs list
// means no IP restriction was configured for this project/dataset, so
// the check passes; a non-empty list requires ip to fall within at
// least one of the CIDR blocks.
func CheckTrustedIP(trustedIPs []string, ip string) error {
	if len(trustedIPs) == 0 {
		return nil
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return fmt.Errorf("cannot parse client IP %q", ip)
	}
	for _, cidr := range trustedIPs {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if block.Contains(parsed) {
			return nil
		}
	}
	return fmt.Errorf("client IP %s is not in the trusted list", ip)
}

// CheckToken enforces spec §4.5 step 4: the bearer credential must
// appear verbatim in tokens.
func CheckToken(tokens []string, token string) error {
	for _, t := range tokens {
		if t != "" && t == token {
			return nil
		}
	}
	return fmt.Errorf("bearer token not recognized")
}

// BearerToken extracts the credential from a request's Authorization
// header ("Bearer <token>"), tolerating a bare token with no scheme
// prefix (several original clients send one or the other).
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("bearer "):])
	}
	return strings.TrimSpace(h)
}

// Authorize runs the trusted-IP and bearer-token checks (spec §4.5 steps
// 2-4; the caller has already resolved tokens/trustedIPs to the
// effective project∪dataset set and ip/token from the request). Dataset
// operation gating (allowed_operations for update/delete/reload, step
// "Permissions") is enforced separately by dataset.Dataset's own
// CheckAllowedOperation, invoked once Authorize has cleared the request.
func Authorize(tokens, trustedIPs []string, ip, token string) error {
	if err := CheckTrustedIP(trustedIPs, ip); err != nil {
		return err
	}
	return CheckToken(tokens, token)
}
