// Package calc implements a keypad calculator: a display string built up
// from key presses and a single pending binary operation.
//
// Nothing in the package fails loudly. Malformed input is ignored or
// truncated, and arithmetic errors surface as sentinel display values
// (ErrorToken, DivisionByZeroToken).
package calc

import (
	"errors"
	"math/big"
	"strings"
)

var ErrUnsupported = errors.New("unsupported input format")

type Operator rune

const (
	None     Operator = 0
	Add      Operator = '+'
	Subtract Operator = '-'
	Multiply Operator = '*'
	Divide   Operator = '/'
	Equals   Operator = '='
)

func (op Operator) String() string {
	if op == None {
		return ""
	}
	return string(op)
}

// Calculator is not safe for concurrent use. Every method runs to
// completion and leaves the display in a renderable state.
type Calculator struct {
	display  string
	operand  *big.Float
	operator Operator
	fresh    bool
	active   Operator
}

func NewCalculator() *Calculator {
	c := new(Calculator)
	c.Clear()
	return c
}

func (c *Calculator) Display() string {
	return c.display
}

// Active returns the operator the UI should highlight, or None.
func (c *Calculator) Active() Operator {
	return c.active
}

// Pending returns the operator awaiting its right-hand operand.
func (c *Calculator) Pending() (Operator, bool) {
	return c.operator, c.operator != None
}

// Input appends a digit or decimal point to the number being typed.
func (c *Calculator) Input(r rune) error {
	switch {
	case r == '.':
		c.inputDecimal()
	case '0' <= r && r <= '9':
		c.inputDigit(r)
	default:
		return ErrUnsupported
	}

	c.active = None
	return nil
}

func (c *Calculator) inputDecimal() {
	current := strip(c.display)
	switch {
	case current == "" || c.fresh:
		c.display = "0."
		c.fresh = false
	case strings.Contains(current, "."):
		// one point per number
	case IsValidNumber(current + "."):
		c.display += "."
	}
}

func (c *Calculator) inputDigit(r rune) {
	digit := string(r)
	current := strip(c.display)

	var next string
	switch {
	case c.fresh:
		next = digit
		c.fresh = false
	case current == "0" && digit == "0":
		return
	case current == "0":
		next = digit
	default:
		next = current + digit
	}

	if IsValidNumber(next) {
		c.display = FormatNumber(next)
	}
}

// ChooseOperator starts a binary operation with the displayed value as the
// left-hand operand. An operation still pending with a typed right-hand
// operand is evaluated first, so operations chain left to right.
// Equals evaluates the pending operation.
func (c *Calculator) ChooseOperator(op Operator) error {
	switch op {
	case Add, Subtract, Multiply, Divide:
	case Equals:
		c.Evaluate()
		return nil
	default:
		return ErrUnsupported
	}

	if c.operator != None && !c.fresh {
		c.Evaluate()
	}

	operand, ok := parseNumber(c.display)
	if !ok {
		c.active = None
		return nil
	}

	c.operand = operand
	c.operator = op
	c.fresh = true
	c.active = op
	return nil
}

func (c *Calculator) Evaluate() {
	if c.operator == None {
		return
	}

	if operand, ok := parseNumber(c.display); !ok {
		c.display = ErrorToken
	} else if result, ok := c.apply(operand); !ok {
		c.display = DivisionByZeroToken
	} else {
		c.display = formatResult(result)
	}

	c.operand = nil
	c.operator = None
	c.active = None
	c.fresh = true
}

func (c *Calculator) apply(operand *big.Float) (*big.Float, bool) {
	result := newNumber()
	switch c.operator {
	case Add:
		result.Add(c.operand, operand)
	case Subtract:
		result.Sub(c.operand, operand)
	case Multiply:
		result.Mul(c.operand, operand)
	case Divide:
		if operand.Sign() == 0 {
			return nil, false
		}
		result.Quo(c.operand, operand)
	}
	return result, true
}

// formatResult renders up to ten fractional digits without trailing zeros.
// The ten significant digit fallback only applies when grouping still
// leaves more than MaxDigits raw characters; FormatNumber already caps its
// output, so this is a backstop and both paths are lossy for results that
// do not fit the display.
func formatResult(x *big.Float) string {
	s := FormatNumber(trimZeros(toFixed(x, 10)))
	if displayLen(s) > MaxDigits {
		s = FormatNumber(toPrecision(x, 10))
	}
	return s
}

func (c *Calculator) Clear() {
	c.display = "0"
	c.operand = nil
	c.operator = None
	c.fresh = true
	c.active = None
}

// ClearEntry discards the number being typed but keeps the pending
// operation.
func (c *Calculator) ClearEntry() {
	c.display = "0"
	c.fresh = true
}

// ToggleSign negates the displayed value, rounded to one decimal place.
func (c *Calculator) ToggleSign() {
	x, ok := parseNumber(c.display)
	if !ok {
		return
	}

	x.Neg(x)
	c.display = FormatNumber(strings.TrimSuffix(toFixed(x, 1), ".0"))
}

// Percent divides the displayed value by 100, rounded to two decimal
// places.
func (c *Calculator) Percent() {
	x, ok := parseNumber(c.display)
	if !ok {
		return
	}

	x = newNumber().Quo(x, newNumber().SetInt64(100))
	c.display = FormatNumber(strings.TrimSuffix(toFixed(x, 2), ".00"))
	if displayLen(c.display) > MaxDigits {
		c.display = FormatNumber(toPrecision(x, 10))
	}
}
