// Package request defines what gets fetched: the descriptor, its identity,
// fetch policies, and the merge of per-call descriptors over client
// defaults.
//
// Two descriptors with equal identity fields denote the same request and are
// deduplicated against each other, no matter how their behavior fields
// differ. Identity is a digest over the canonicalized method, path,
// parameters, and body, so map ordering never splits an identity in two.
package request
