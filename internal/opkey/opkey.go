// Package opkey derives the deterministic operation key used to identify a
// planned write operation. The key doubles as the idempotency fingerprint and,
// in its short form, as the human-facing confirmation token.
//
// Determinism is the whole point: the key is a pure function of
// (tenant, action, parameters) over a canonical JSON serialization, so a
// re-submitted identical request maps to the same logical operation. No
// timestamps, salts, or environment data ever enter the digest.
package opkey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ShortLen is the length in hex characters of the human-facing token.
const ShortLen = 8

// Key is the operation fingerprint in full and short form.
type Key struct {
	// Full is the 64-character hex SHA-256 digest.
	Full string
	// Short is the first ShortLen characters of Full; it is what users type
	// back to confirm and what the pending-operation store is keyed by.
	Short string
}

// payload fixes the field order of the serialized triple. Map keys inside
// Params are sorted by encoding/json, which makes the serialization canonical
// regardless of insertion order.
type payload struct {
	Tenant string         `json:"tenant"`
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// New computes the operation key for (tenantID, actionID, params).
func New(tenantID, actionID string, params map[string]any) (Key, error) {
	b, err := json.Marshal(payload{Tenant: tenantID, Action: actionID, Params: params})
	if err != nil {
		return Key{}, err
	}
	sum := sha256.Sum256(b)
	full := hex.EncodeToString(sum[:])
	return Key{Full: full, Short: full[:ShortLen]}, nil
}
