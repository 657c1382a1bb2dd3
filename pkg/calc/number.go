package calc

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// precision of a float64 mantissa; arithmetic at this precision with
// big.ToNearestEven yields the same results as IEEE-754 doubles.
const precision = 53

var numeric = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func newNumber() *big.Float {
	return new(big.Float).SetPrec(precision)
}

func strip(s string) string {
	return strings.NewReplacer(",", "", string(Separator), "").Replace(s)
}

// parseNumber reads a display value with separators removed.
func parseNumber(s string) (*big.Float, bool) {
	s = strip(s)
	if !numeric.MatchString(s) {
		return nil, false
	}

	mant, exp, hasExp := strings.Cut(strings.ToLower(s), "e")
	mant = strings.TrimSuffix(mant, ".")
	if i := strings.IndexByte(mant, '.'); i == 0 || i == 1 && (mant[0] == '-' || mant[0] == '+') {
		mant = mant[:i] + "0" + mant[i:]
	}
	if hasExp {
		mant += "e" + exp
	}

	x, ok := newNumber().SetString(mant)
	if !ok || x.IsInf() {
		return nil, false
	}
	return x, true
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func scale(r *big.Rat, n int) *big.Rat {
	if n >= 0 {
		return new(big.Rat).Mul(r, new(big.Rat).SetInt(pow10(n)))
	}
	return new(big.Rat).Quo(r, new(big.Rat).SetInt(pow10(-n)))
}

// roundHalfUp returns floor(r + 1/2) for r >= 0.
func roundHalfUp(r *big.Rat) *big.Int {
	num := new(big.Int).Lsh(r.Num(), 1)
	num.Add(num, r.Denom())
	den := new(big.Int).Lsh(r.Denom(), 1)
	return num.Quo(num, den)
}

func absRat(x *big.Float) (*big.Rat, bool) {
	r, _ := x.Rat(nil)
	if r == nil {
		return new(big.Rat), false
	}
	neg := r.Sign() < 0
	return r.Abs(r), neg
}

// toFixed renders x with exactly digits fractional digits. Ties round
// away from zero on the exact binary value of x.
func toFixed(x *big.Float, digits int) string {
	r, neg := absRat(x)
	n := roundHalfUp(scale(r, digits))

	s := n.String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}

	if neg && n.Sign() != 0 {
		s = "-" + s
	}
	return s
}

// toPrecision renders x with p significant digits, switching to
// exponent form when the decimal exponent is below -6 or at least p.
func toPrecision(x *big.Float, p int) string {
	r, neg := absRat(x)
	if r.Sign() == 0 {
		if p == 1 {
			return "0"
		}
		return "0." + strings.Repeat("0", p-1)
	}

	e := exponent10(r)
	n := roundHalfUp(scale(r, p-1-e))
	if len(n.String()) > p {
		n.Quo(n, big.NewInt(10))
		e++
	}
	digits := n.String()

	var s string
	switch {
	case e < -6 || e >= p:
		s = digits[:1]
		if p > 1 {
			s += "." + digits[1:]
		}
		if e < 0 {
			s += "e-" + strconv.Itoa(-e)
		} else {
			s += "e+" + strconv.Itoa(e)
		}
	case e >= 0:
		s = digits[:e+1]
		if e+1 < p {
			s += "." + digits[e+1:]
		}
	default:
		s = "0." + strings.Repeat("0", -e-1) + digits
	}

	if neg {
		s = "-" + s
	}
	return s
}

// exponent10 returns floor(log10(r)) for r > 0.
func exponent10(r *big.Rat) int {
	one := big.NewRat(1, 1)
	if r.Cmp(one) >= 0 {
		ip := new(big.Int).Quo(r.Num(), r.Denom())
		return len(ip.String()) - 1
	}

	e := -1
	for scale(r, -e).Cmp(one) < 0 {
		e--
	}
	return e
}

// trimZeros drops trailing fractional zeros and a dangling point.
func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
}
