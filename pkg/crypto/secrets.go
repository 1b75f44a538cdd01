package crypto

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

// GenerateSecret draws a 32-byte claim secret from the operating
// system's CSPRNG. Claim secrets gate redemption, so nothing weaker
// (timestamps, math/rand) is acceptable here.
func GenerateSecret() ([32]byte, error) {
	var secret [32]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return [32]byte{}, errors.Wrap(err, "failed to read from system random source")
	}
	return secret, nil
}
