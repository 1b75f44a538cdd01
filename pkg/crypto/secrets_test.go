package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGenerateSecret verifies secrets are nonzero and distinct
func TestGenerateSecret(t *testing.T) {
	seen := make(map[[32]byte]struct{})
	for i := 0; i < 32; i++ {
		secret, err := GenerateSecret()
		require.NoError(t, err)
		require.NotEqual(t, [32]byte{}, secret)

		_, dup := seen[secret]
		require.False(t, dup, "generated a duplicate secret")
		seen[secret] = struct{}{}
	}
}
