package config

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the sentinel for spec.md §7's configuration-error kind:
// "rejected at load ... fatal to config load." dynamic.ErrConfiguration is
// an alias of this value so callers can errors.Is against either package.
var ErrConfiguration = errors.New("configuration error")

// ErrInitPhaseClosed is returned by a ResolverInit setter called after
// Build, per spec.md §9 "attempting setters on the runtime handle fails with
// configuration-error."
var ErrInitPhaseClosed = fmt.Errorf("resolver init phase already closed: %w", ErrConfiguration)

func configErrorf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConfiguration)...)
}
