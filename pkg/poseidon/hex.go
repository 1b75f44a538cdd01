package poseidon

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// DecodeField parses a hex-encoded field element. The 0x prefix is
// optional. Bytes are interpreted as a big-endian integer and reduced
// mod the field order, matching what the circuit does with its witness
// inputs.
func DecodeField(s string) (fr.Element, error) {
	clean := strings.TrimPrefix(s, "0x")

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return fr.Element{}, fmt.Errorf("invalid hex %q: %w", s, err)
	}

	var e fr.Element
	e.SetBytes(raw)
	return e, nil
}

// EncodeField renders a field element as exactly 64 lowercase hex
// characters, zero-padded, big-endian. No 0x prefix; the padding is
// part of the wire contract and must not be trimmed.
func EncodeField(e fr.Element) string {
	b := e.Bytes()
	return hex.EncodeToString(b[:])
}
