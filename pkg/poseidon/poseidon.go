// Package poseidon implements the production hash primitive for the
// commitment tree: a Poseidon2 sponge over the BN254 scalar field,
// compatible with the Noir circuit's sponge construction.
//
// Two and three inputs are absorbed into a width-4 state
// [a, b, 0, iv] / [a, b, c, iv] with iv = arity * 2^64, the permutation
// is applied, and the first state element is the digest. The IV encodes
// the arity so two- and three-input hashes can never collide.
package poseidon

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
)

// Permutation parameters for BN254 at width 4. The downstream circuit
// must be configured with the same width and round counts.
const (
	stateWidth    = 4
	fullRounds    = 8
	partialRounds = 56
)

// iv2 and iv3 are the sponge IVs for arity 2 and 3: arity * 2^64.
var iv2, iv3 fr.Element

func init() {
	iv2.SetBigInt(new(big.Int).Lsh(big.NewInt(2), 64))
	iv3.SetBigInt(new(big.Int).Lsh(big.NewInt(3), 64))
}

// Poseidon2 is a two/three-arity compression function over the BN254
// scalar field. It satisfies the tree builder's Hasher contract.
// Safe for concurrent use; the permutation holds no per-call state.
type Poseidon2 struct {
	perm *poseidon2.Permutation
}

// NewPoseidon2 constructs the hasher with the fixed width-4 parameters.
func NewPoseidon2() *Poseidon2 {
	return &Poseidon2{
		perm: poseidon2.NewPermutation(stateWidth, fullRounds, partialRounds),
	}
}

// Hash2 absorbs two field elements: permute([a, b, 0, iv2])[0].
func (p *Poseidon2) Hash2(a, b fr.Element) fr.Element {
	state := []fr.Element{a, b, {}, iv2}
	p.permute(state)
	return state[0]
}

// Hash3 absorbs three field elements: permute([a, b, c, iv3])[0].
func (p *Poseidon2) Hash3(a, b, c fr.Element) fr.Element {
	state := []fr.Element{a, b, c, iv3}
	p.permute(state)
	return state[0]
}

// Combine2 hashes two byte strings, each interpreted as a big-endian
// integer reduced mod the field order. The digest is the output element
// serialized big-endian.
func (p *Poseidon2) Combine2(a, b []byte) [32]byte {
	var ea, eb fr.Element
	ea.SetBytes(a)
	eb.SetBytes(b)
	h := p.Hash2(ea, eb)
	return h.Bytes()
}

// Combine3 hashes three byte strings, reduced the same way as Combine2.
func (p *Poseidon2) Combine3(a, b, c []byte) [32]byte {
	var ea, eb, ec fr.Element
	ea.SetBytes(a)
	eb.SetBytes(b)
	ec.SetBytes(c)
	h := p.Hash3(ea, eb, ec)
	return h.Bytes()
}

func (p *Poseidon2) permute(state []fr.Element) {
	// The state width is fixed at construction; the permutation only
	// errors on a width mismatch.
	if err := p.perm.Permutation(state); err != nil {
		panic(err)
	}
}
