package request

import "fmt"

// FetchPolicy decides how a query balances cached state against the network.
type FetchPolicy int

const (
	// PolicyDefault defers to the client's configured default policy.
	PolicyDefault FetchPolicy = iota

	// CacheFirst returns sufficient cached state without fetching and goes
	// to the network only on a cache miss.
	CacheFirst

	// CacheOnly never fetches; a cache miss resolves to absent data.
	CacheOnly

	// CacheAndNetwork surfaces cached state immediately and always fetches
	// a fresh result as well.
	CacheAndNetwork

	// NoCache always fetches and keeps the result scoped to the caller:
	// nothing is read from or written to shared state.
	NoCache
)

var policyNames = map[FetchPolicy]string{
	PolicyDefault:   "default",
	CacheFirst:      "cache-first",
	CacheOnly:       "cache-only",
	CacheAndNetwork: "cache-and-network",
	NoCache:         "no-cache",
}

func (p FetchPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("fetch-policy(%d)", int(p))
}

// ParsePolicy resolves a policy name as used in configuration.
func ParsePolicy(name string) (FetchPolicy, error) {
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return PolicyDefault, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}
