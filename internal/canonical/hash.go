package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints.
const (
	DomainTrigger = "effectcheck/trigger/v1"
	DomainRun     = "effectcheck/run/v1"
)

// Hash computes SHA256(domain + 0x00 + data) as lowercase hex.
// The separator keeps domain and data boundaries unambiguous.
func Hash(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes the canonical JSON of v under domain.
func Fingerprint(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return Hash(domain, data), nil
}
