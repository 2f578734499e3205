package request

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// identityHashLen is how much of the digest survives into the key. 16 hex
// characters keep keys short while making accidental collisions a non-issue
// at client scale.
const identityHashLen = 16

// Identity derives the deduplication key of a descriptor. Equal identity
// fields always produce equal keys: parameters and body are canonicalized
// through JSON, which sorts object keys at every level, before hashing.
//
// The key is "req:<METHOD>:<path>:<hash>", readable enough to recognize in
// logs and extracted state. Failures mean the params or body cannot be
// represented as JSON, which is a bug in the descriptor, not a runtime
// condition.
func Identity(d Descriptor) (string, error) {
	method := CanonicalMethod(d.Method)

	payload := map[string]any{
		"method": method,
		"path":   d.Path,
	}
	if d.Params != nil {
		payload["params"] = d.Params
	}
	if d.Body != nil {
		payload["body"] = d.Body
	}

	canonical, err := canonicalize(payload)
	if err != nil {
		return "", fmt.Errorf("request: identity for %s %s: %w", method, d.Path, err)
	}
	sum := sha256.Sum256(canonical)
	hash := hex.EncodeToString(sum[:])[:identityHashLen]
	return fmt.Sprintf("req:%s:%s:%s", method, d.Path, hash), nil
}

// CanonicalMethod normalizes an HTTP verb for identity purposes. Empty
// means GET.
func CanonicalMethod(method string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return http.MethodGet
	}
	return method
}

// canonicalize round-trips v through JSON so struct field order, map
// iteration order, and equivalent numeric types all collapse to one byte
// form.
func canonicalize(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}
