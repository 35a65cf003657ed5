package config

import (
	"strconv"
	"time"

	"github.com/dynamicvmod/dynamic/acl"
	"github.com/dynamicvmod/dynamic/backend"
	"github.com/dynamicvmod/dynamic/resolver"
)

// FromParams maps a string-keyed parameter set - the shape a VCL-to-Go
// parameter bridge would supply - into a Params, performing the same
// validation spec.md's error-kinds table requires (the result is checked
// with Build before it is returned). Recognised keys: port, host_header, share, ttl,
// connect_timeout, first_byte_timeout, between_bytes_timeout,
// domain_usage_timeout, first_lookup_timeout, max_connections, proxy_header,
// ttl_from, whitelist (comma-separated CIDRs). probe is not read from the
// map. rsv, if non-nil, is wired in as the "resolver" parameter; a host that
// configures a resolver handle supplies it directly rather than through the
// string map.
func FromParams(values map[string]string, rsv resolver.Adapter) (Params, error) {
	p := Defaults()
	p.Resolver = rsv

	if v, ok := values["port"]; ok && v != "" {
		p.Port = v
	}
	if v, ok := values["host_header"]; ok {
		p.HostHeader = v
	}
	if v, ok := values["share"]; ok && v != "" {
		switch v {
		case "DIRECTOR":
			p.Share = backend.ScopeDirector
		case "HOST":
			p.Share = backend.ScopeHost
		default:
			return Params{}, configErrorf("invalid share %q", v)
		}
	}
	if v, ok := values["whitelist"]; ok && v != "" {
		cidrs, err := splitCIDRs(v)
		if err != nil {
			return Params{}, err
		}
		p.Whitelist = acl.New(cidrs...)
	}

	var err error
	if p.TTL, err = durationParam(values, "ttl", p.TTL); err != nil {
		return Params{}, err
	}
	if p.ConnectTimeout, err = durationParam(values, "connect_timeout", p.ConnectTimeout); err != nil {
		return Params{}, err
	}
	if p.FirstByteTimeout, err = durationParam(values, "first_byte_timeout", p.FirstByteTimeout); err != nil {
		return Params{}, err
	}
	if p.BetweenBytesTimeout, err = durationParam(values, "between_bytes_timeout", p.BetweenBytesTimeout); err != nil {
		return Params{}, err
	}
	if p.DomainUsageTimeout, err = durationParam(values, "domain_usage_timeout", p.DomainUsageTimeout); err != nil {
		return Params{}, err
	}
	if p.FirstLookupTimeout, err = durationParam(values, "first_lookup_timeout", p.FirstLookupTimeout); err != nil {
		return Params{}, err
	}

	if v, ok := values["max_connections"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, configErrorf("invalid max_connections %q", v)
		}
		p.MaxConnections = n
	}

	if v, ok := values["proxy_header"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, configErrorf("invalid proxy_header %q", v)
		}
		p.ProxyHeaderVersion = n
	}

	if v, ok := values["ttl_from"]; ok && v != "" {
		switch v {
		case "cfg":
			p.TTLFrom = TTLFromCfg
		case "dns":
			p.TTLFrom = TTLFromDNS
		case "min":
			p.TTLFrom = TTLFromMin
		case "max":
			p.TTLFrom = TTLFromMax
		default:
			return Params{}, configErrorf("invalid ttl_from %q", v)
		}
	}

	if _, err := p.Build(); err != nil {
		return Params{}, err
	}

	return p, nil
}

func durationParam(values map[string]string, key string, dflt time.Duration) (time.Duration, error) {
	v, ok := values[key]
	if !ok || v == "" {
		return dflt, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, configErrorf("invalid %s %q", key, v)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func splitCIDRs(v string) (out []string, err error) {
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out, nil
}
