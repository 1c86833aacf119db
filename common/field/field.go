// Package field implements arithmetic in the 127-bit prime field used by
// the commitment scheme's secret-sharing polynomials, along with
// coefficient-form Lagrange interpolation over that field.
package field

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Mod is the Mersenne prime 2^127 - 1 that all arithmetic in this
// package is performed modulo.
var Mod = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))

// Elem is an element of Z/ModZ. The zero value is the field element 0.
type Elem struct {
	v *big.Int
}

// Zero is the additive identity.
func Zero() Elem { return Elem{v: big.NewInt(0)} }

// One is the multiplicative identity.
func One() Elem { return Elem{v: big.NewInt(1)} }

// FromInt64 builds an Elem from a small signed integer, reducing modulo Mod.
func FromInt64(n int64) Elem {
	return reduce(big.NewInt(n))
}

// FromBigInt builds an Elem from a big.Int, reducing modulo Mod. The
// input is copied; the caller's value is never mutated or aliased.
func FromBigInt(n *big.Int) Elem {
	return reduce(new(big.Int).Set(n))
}

// FromString parses a base-10 or 0x-prefixed hex string into an Elem.
func FromString(s string) (Elem, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return Elem{}, fmt.Errorf("field: invalid integer literal %q", s)
	}
	if n.Sign() < 0 {
		return Elem{}, fmt.Errorf("field: negative literal %q not allowed", s)
	}
	return reduce(n), nil
}

func reduce(n *big.Int) Elem {
	n.Mod(n, Mod)
	return Elem{v: n}
}

// IsZero reports whether e is the additive identity.
func (e Elem) IsZero() bool {
	return e.v == nil || e.v.Sign() == 0
}

// Equal reports whether e and o represent the same field element.
func (e Elem) Equal(o Elem) bool {
	return e.big().Cmp(o.big()) == 0
}

// Cmp compares the canonical big.Int representations of e and o, useful
// for deterministic sorting of field elements (e.g. stored x-coordinates).
func (e Elem) Cmp(o Elem) int {
	return e.big().Cmp(o.big())
}

func (e Elem) big() *big.Int {
	if e.v == nil {
		return big.NewInt(0)
	}
	return e.v
}

// BigInt returns a copy of the canonical representative in [0, Mod).
func (e Elem) BigInt() *big.Int {
	return new(big.Int).Set(e.big())
}

// String renders the canonical decimal representation.
func (e Elem) String() string {
	return e.big().String()
}

// Add returns e + o mod Mod.
func (e Elem) Add(o Elem) Elem {
	return reduce(new(big.Int).Add(e.big(), o.big()))
}

// Sub returns e - o mod Mod.
func (e Elem) Sub(o Elem) Elem {
	return reduce(new(big.Int).Sub(e.big(), o.big()))
}

// Mul returns e * o mod Mod.
func (e Elem) Mul(o Elem) Elem {
	return reduce(new(big.Int).Mul(e.big(), o.big()))
}

// Inverse returns the multiplicative inverse of e via Fermat's little
// theorem (e^(Mod-2) mod Mod). e must be nonzero; the zero element has
// no inverse and callers must never reach this with a zero divisor
// (interpolation callers check for a zero denominator first).
func (e Elem) Inverse() Elem {
	if e.IsZero() {
		panic("field: inverse of zero")
	}
	exp := new(big.Int).Sub(Mod, big.NewInt(2))
	return Elem{v: new(big.Int).Exp(e.big(), exp, Mod)}
}

// Neg returns -e mod Mod.
func (e Elem) Neg() Elem {
	return reduce(new(big.Int).Neg(e.big()))
}

// MarshalJSON renders e as a decimal-string JSON value, matching the
// wire contract's "decimal-string field pairs" encoding.
func (e Elem) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// UnmarshalJSON parses a decimal-string (or 0x-prefixed hex) JSON value.
func (e *Elem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
