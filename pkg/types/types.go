package types

// RecipientEntry is one row of an airdrop distribution: who gets paid,
// how much, and the secret that lets them claim privately.
//
// Entries are immutable once handed to the tree builder. Identifier must
// be unique within one distribution; the builder rejects duplicates.
type RecipientEntry struct {
	// Identifier is a stable external account reference (e.g. a wallet
	// address), hashed into the leaf and used for proof lookups.
	Identifier string

	// Amount is the claimable amount in whole tokens. It is scaled by
	// 1e9 and truncated to an integer unit count before hashing.
	Amount float64

	// Secret is the recipient's 32-byte claim secret. It must come from
	// a cryptographically secure random source (see pkg/crypto).
	Secret [32]byte
}
