package rollout

// InRollout determines if a user is included in a percentage rollout.
//
// Algorithm:
//  1. Hash(flagKey + userKey) -> bucket (0-99)
//  2. If bucket < percentage, the user is included
//
// Note the argument order: user key first, flag key second, while the hash
// input is flag key then user key. Concretely,
//
//	InRollout("user-42", "new-checkout", 25)
//
// buckets by murmur3_32("new-checkout" + "user-42") and includes user-42
// when that bucket is below 25. Transposing the arguments buckets against a
// different hash input and silently reshuffles every user.
//
// Special cases, checked before hashing so the boundaries are exact:
//   - percentage <= 0: always false (rolled out to no one)
//   - percentage >= 100: always true (rolled out to everyone)
//
// The userKey is never empty in practice: contexts without an explicit user
// ID derive a stable anonymous identity from their attributes.
func InRollout(userKey, flagKey string, percentage int) bool {
	if percentage >= 100 {
		return true
	}
	if percentage <= 0 {
		return false
	}
	return Bucket(userKey, flagKey) < percentage
}
