//go:build windows
// +build windows

package resolver

import (
	"context"
	"errors"
)

func discoverSystemServers(ctx context.Context) ([]string, error) {
	// TODO: This seems to be, erm, interesting, on Windows:
	// - https://gist.github.com/moloch--/9fb1c8497b09b45c840fe93dd23b1e98
	// - https://github.com/miekg/dns/issues/334
	return nil, errors.New("system resolver discovery is unimplemented on windows")
}
