package field

// EvalAt evaluates the polynomial with coefficients coeffs[0..degree]
// (coeffs[j] is the coefficient of x^j) at the point x, using the
// degree+1 leading coefficients of coeffs. degree must be < len(coeffs).
//
// f(x) = sum_{j=0}^{degree} coeffs[j] * x^j
func EvalAt(coeffs []Elem, degree int, x Elem) Elem {
	y := Zero()
	xPow := One()
	for j := 0; j <= degree; j++ {
		term := coeffs[j].Mul(xPow)
		y = y.Add(term)
		xPow = xPow.Mul(x)
	}
	return y
}

// Point is a single (x, y) sample of a polynomial.
type Point struct {
	X, Y Elem
}

// IsSentinel reports whether p is the (0,0) "no data" marker used for
// noise levels in a commitment's point vector.
func (p Point) IsSentinel() bool {
	return p.X.IsZero() && p.Y.IsZero()
}

// SentinelPoint is the canonical (0,0) noise marker.
func SentinelPoint() Point {
	return Point{X: Zero(), Y: Zero()}
}

// RecoverCoefficients recovers the coefficient vector [c_0, ..., c_{k-1}]
// of the unique polynomial of degree < k that passes through the given
// k points (which must have pairwise-distinct x-coordinates), using
// Lagrange interpolation expanded into coefficient form:
//
//	L_j(x) = prod_{i != j} (x - x_i)              (explicit coefficient list)
//	f(x)   = sum_j y_j * L_j(x) / L_j(x_j)
//
// It returns an error if any two points share an x-coordinate (the
// corresponding denominator would be zero and the system has no unique
// solution).
func RecoverCoefficients(points []Point) ([]Elem, error) {
	k := len(points)
	if k == 0 {
		return nil, nil
	}

	final := make([]Elem, k)
	for i := range final {
		final[i] = Zero()
	}

	for j := 0; j < k; j++ {
		xj, yj := points[j].X, points[j].Y

		denom := One()
		for i := 0; i < k; i++ {
			if i == j {
				continue
			}
			diff := xj.Sub(points[i].X)
			if diff.IsZero() {
				return nil, errDuplicateX
			}
			denom = denom.Mul(diff)
		}

		invDenom := denom.Inverse()
		scaler := yj.Mul(invDenom)

		// current holds the coefficients of prod_{i != j} (x - x_i),
		// built up one linear factor at a time.
		current := make([]Elem, 1, k)
		current[0] = One()
		for i := 0; i < k; i++ {
			if i == j {
				continue
			}
			xi := points[i].X
			next := make([]Elem, len(current)+1)
			for d := range next {
				next[d] = Zero()
			}
			for d, coeff := range current {
				next[d+1] = next[d+1].Add(coeff)
				next[d] = next[d].Sub(xi.Mul(coeff))
			}
			current = next
		}

		for d, coeff := range current {
			final[d] = final[d].Add(coeff.Mul(scaler))
		}
	}

	return final, nil
}

var errDuplicateX = recoveryError("field: duplicate x-coordinate in interpolation set")

type recoveryError string

func (e recoveryError) Error() string { return string(e) }
