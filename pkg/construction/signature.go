package construction

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Signature digests the structural shape of the system: the canonical
// wire form of every polynomial plus the kept variable pair. Numeric
// positions never enter the digest, so dragging a free point leaves the
// signature unchanged while any structural edit changes it.
func (s *System) Signature() string {
	payload := struct {
		Polynomials []string `json:"polynomials"`
		Keep        []string `json:"keep"`
	}{Polynomials: s.Strings(), Keep: s.Keep}
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
