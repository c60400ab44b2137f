// Package rollout provides deterministic user bucketing for feature flag
// rollouts. It assigns users to buckets (0-99) based on a 32-bit murmur3
// hash of flag key and user key, so that:
//   - The same user always gets the same result for a flag (deterministic
//     across restarts and server instances)
//   - Buckets are evenly distributed across the population
//   - The hash is bit-for-bit reproducible in other SDK languages
//   - Progressive rollouts are safe: raising the percentage from 10 to 20
//     only adds users, never removes them
package rollout

import (
	"github.com/spaolacci/murmur3"
)

// Bucket returns a deterministic bucket (0-99) for the given user and flag.
// The hash input is the flag key followed by the user key, with murmur3
// seed 0; this exact construction is a cross-language compatibility contract
// and must not change.
func Bucket(userKey, flagKey string) int {
	hash := murmur3.Sum32([]byte(flagKey + userKey))
	return int(hash % 100)
}
