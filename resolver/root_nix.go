//go:build !windows
// +build !windows

package resolver

import (
	"context"
	"fmt"

	"github.com/miekg/dns"
)

// discoverSystemServers parses /etc/resolv.conf for the name servers the
// operating system itself would use, and the port to use for them
// (spec.md §4.1: "If SetSystemServers has not been called ... Resolver will
// attempt to discover the operating system's resolver(s) ... on *nix
// systems, /etc/resolv.conf is parsed.").
func discoverSystemServers(ctx context.Context) ([]string, error) {
	config, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return nil, fmt.Errorf("cannot determine system name servers: %w", err)
	}

	addrs := make([]string, 0, len(config.Servers))
	for _, srv := range config.Servers {
		addrs = append(addrs, srv+":"+config.Port)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("cannot determine system name servers: resolv.conf has no servers")
	}

	return addrs, nil
}
