// Package matrix implements the 2x2 integer-matrix algebra that underlies
// the tree's positional encoding (Dan Hazel's rational-numbers keying of
// nested sets). A Matrix is an immutable value: every operation returns a
// fresh Matrix rather than mutating its receiver.
//
// Values are held as *big.Int rather than a machine word because a deep
// path folds one segment matrix per level into a running product, and the
// entries grow without bound as the tree deepens.
package matrix

import (
	"fmt"
	"math/big"
)

// Matrix is the immutable 2x2 integer matrix (a b; c d).
type Matrix struct {
	a, b, c, d *big.Int
}

// New builds a Matrix from plain ints, for literals and tests.
func New(a, b, c, d int64) Matrix {
	return Matrix{
		a: big.NewInt(a),
		b: big.NewInt(b),
		c: big.NewInt(c),
		d: big.NewInt(d),
	}
}

// NewFromBig builds a Matrix from existing big.Int values without copying
// the caller's pointers into the result (the values are cloned, preserving
// immutability).
func NewFromBig(a, b, c, d *big.Int) Matrix {
	return Matrix{
		a: new(big.Int).Set(a),
		b: new(big.Int).Set(b),
		c: new(big.Int).Set(c),
		d: new(big.Int).Set(d),
	}
}

// A, B, C, D return copies of the matrix's cells so callers cannot mutate
// the Matrix's internal state through the returned pointer.
func (m Matrix) A() *big.Int { return new(big.Int).Set(m.a) }
func (m Matrix) B() *big.Int { return new(big.Int).Set(m.b) }
func (m Matrix) C() *big.Int { return new(big.Int).Set(m.c) }
func (m Matrix) D() *big.Int { return new(big.Int).Set(m.d) }

// Int64 returns the four cells as int64, for call sites (tests, display)
// that are known to stay within machine-word range.
func (m Matrix) Int64() (a, b, c, d int64) {
	return m.a.Int64(), m.b.Int64(), m.c.Int64(), m.d.Int64()
}

// Multiply returns m * other, the standard non-commutative 2x2 product.
func (m Matrix) Multiply(other Matrix) Matrix {
	a := new(big.Int).Add(mul(m.a, other.a), mul(m.b, other.c))
	b := new(big.Int).Add(mul(m.a, other.b), mul(m.b, other.d))
	c := new(big.Int).Add(mul(m.c, other.a), mul(m.d, other.c))
	d := new(big.Int).Add(mul(m.c, other.b), mul(m.d, other.d))
	return Matrix{a: a, b: b, c: c, d: d}
}

// MultiplyScalar returns the component-wise product of m with the integer
// k. Inverse uses it with k = -1 to divide the adjugate by a determinant
// of -1; the non-unit-determinant fallback does not use it.
func (m Matrix) MultiplyScalar(k int64) Matrix {
	s := big.NewInt(k)
	return Matrix{
		a: mul(m.a, s),
		b: mul(m.b, s),
		c: mul(m.c, s),
		d: mul(m.d, s),
	}
}

// Adjugate returns (d, -b, -c, a).
func (m Matrix) Adjugate() Matrix {
	return Matrix{
		a: new(big.Int).Set(m.d),
		b: new(big.Int).Neg(m.b),
		c: new(big.Int).Neg(m.c),
		d: new(big.Int).Set(m.a),
	}
}

// Determinant returns a*d - b*c.
func (m Matrix) Determinant() *big.Int {
	return new(big.Int).Sub(mul(m.a, m.d), mul(m.b, m.c))
}

// Transpose returns (a, c, b, d).
func (m Matrix) Transpose() Matrix {
	return Matrix{
		a: new(big.Int).Set(m.a),
		b: new(big.Int).Set(m.c),
		c: new(big.Int).Set(m.b),
		d: new(big.Int).Set(m.d),
	}
}

// Inverse returns the multiplicative inverse of m.
//
// When det(m) is +1 or -1 the inverse is exact integer arithmetic: the
// adjugate divided component-wise by det. This is the hot path — every
// node matrix in a reachable forest has det = -1, so production code never
// leaves the integers.
//
// For any other determinant, Inverse falls back to floating arithmetic
// (adjugate scaled by 1/det). That path is reserved for defensive tooling
// outside the core algebra and must never be reached by PathCodec or
// MoveMatrixBuilder on a well-formed tree.
func (m Matrix) Inverse() (Matrix, error) {
	det := m.Determinant()
	adj := m.Adjugate()

	if det.IsInt64() {
		switch det.Int64() {
		case 1:
			return adj, nil
		case -1:
			return adj.MultiplyScalar(-1), nil
		}
	}

	if det.Sign() == 0 {
		return Matrix{}, fmt.Errorf("matrix: singular matrix has no inverse")
	}

	detF := new(big.Float).SetInt(det)
	a := divFloat(adj.a, detF)
	b := divFloat(adj.b, detF)
	c := divFloat(adj.c, detF)
	d := divFloat(adj.d, detF)
	return Matrix{a: a, b: b, c: c, d: d}, nil
}

// Equal reports whether m and other have identical cells.
func (m Matrix) Equal(other Matrix) bool {
	return m.a.Cmp(other.a) == 0 && m.b.Cmp(other.b) == 0 &&
		m.c.Cmp(other.c) == 0 && m.d.Cmp(other.d) == 0
}

// String renders the matrix as "(a, b, c, d)" for diagnostics.
func (m Matrix) String() string {
	return fmt.Sprintf("(%s, %s, %s, %s)", m.a, m.b, m.c, m.d)
}

func mul(x, y *big.Int) *big.Int {
	return new(big.Int).Mul(x, y)
}

// divFloat performs an exact-as-possible division for the defensive
// non-integer-determinant fallback. Rounding here is a deliberate
// departure from exactness and only affects inverses of matrices that
// should never occur in the core algebra.
func divFloat(numerator *big.Int, denominator *big.Float) *big.Int {
	nf := new(big.Float).SetInt(numerator)
	qf := new(big.Float).Quo(nf, denominator)
	qi, _ := qf.Int(nil)
	return qi
}
