package dynamic

import (
	"errors"

	"github.com/dynamicvmod/dynamic/config"
)

// ErrConfiguration is an alias of config.ErrConfiguration so callers can
// errors.Is against either package without importing config directly.
var ErrConfiguration = config.ErrConfiguration

// ErrColdTimeout is spec.md §7's cold-timeout kind: first_lookup_timeout
// elapsed before the first successful resolve.
var ErrColdTimeout = errors.New("cold timeout")

// ErrNoHealthyBackend is spec.md §7's no-healthy-backend kind: the Address
// Set is non-empty but no member is currently eligible.
var ErrNoHealthyBackend = errors.New("no healthy backend")

// ErrEmptyAddressSet is spec.md §7's empty-address-set kind: a resolve
// succeeded but returned nothing, or the whitelist rejected everything. It
// is logged distinctly from a resolver failure but propagated the same way.
var ErrEmptyAddressSet = errors.New("empty address set")

// ErrUnsupportedOperation is spec.md §7's unsupported-operation kind:
// .service() called against a director with no SRV-capable resolver.
var ErrUnsupportedOperation = errors.New("unsupported operation")
