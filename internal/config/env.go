package config

import (
	"fmt"
	"os"
	"strings"
)

// DatasetBootstrap is one `name:location` pair parsed from
// SASHIMI_DATASET, where location is a URL (http:// or https://) or a
// local file path.
type DatasetBootstrap struct {
	Name     string
	Location string
	IsURL    bool
}

// EnvOverrides captures everything the master config can pick up from the
// environment, per spec §4.3.
type EnvOverrides struct {
	ConfigPath string
	Datasets   []DatasetBootstrap
	Tokens     []string
	TrustedIPs []string
	IPHeader   string
}

// ReadEnvOverrides reads SASHIMI_CONFIG, SASHIMI_DATASET, SASHIMI_TOKEN,
// SASHIMI_TRUSTED_IP and SASHIMI_IP_HEADER from the process environment.
func ReadEnvOverrides() EnvOverrides {
	var eo EnvOverrides
	eo.ConfigPath = os.Getenv("SASHIMI_CONFIG")
	eo.IPHeader = os.Getenv("SASHIMI_IP_HEADER")

	if raw := os.Getenv("SASHIMI_DATASET"); raw != "" {
		for _, pair := range strings.Fields(raw) {
			name, location, ok := strings.Cut(pair, ":")
			if !ok {
				continue
			}
			eo.Datasets = append(eo.Datasets, DatasetBootstrap{
				Name:     name,
				Location: location,
				IsURL:    strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"),
			})
		}
	}

	if raw := os.Getenv("SASHIMI_TOKEN"); raw != "" {
		eo.Tokens = append(eo.Tokens, raw)
	}
	if raw := os.Getenv("SASHIMI_TRUSTED_IP"); raw != "" {
		eo.TrustedIPs = append(eo.TrustedIPs, strings.Fields(raw)...)
	}

	return eo
}

// Apply appends this EnvOverrides' tokens, trusted IPs and ip_header onto
// master's own values (master has no parent to inherit further, so the
// environment acts as one more source at the root level).
func (eo EnvOverrides) Apply(master *Node) {
	if len(eo.Tokens) > 0 {
		master.Set("tokens", appendStrings(master.Values["tokens"], eo.Tokens))
	}
	if len(eo.TrustedIPs) > 0 {
		master.Set("trusted_ips", appendStrings(master.Values["trusted_ips"], eo.TrustedIPs))
	}
	if eo.IPHeader != "" {
		master.Set("ip_header", eo.IPHeader)
	}
}

func appendStrings(existing any, extra []string) []any {
	out := toAnyList(existing)
	for _, s := range extra {
		out = append(out, s)
	}
	return out
}

// String renders a DatasetBootstrap for logging.
func (d DatasetBootstrap) String() string {
	kind := "file"
	if d.IsURL {
		kind = "url"
	}
	return fmt.Sprintf("%s:%s (%s)", d.Name, d.Location, kind)
}
