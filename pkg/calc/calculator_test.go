package calc

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

// press feeds every rune of keys to the calculator as a separate key.
func press(t *testing.T, c *Calculator, keys string) {
	t.Helper()
	for _, r := range keys {
		if err := c.Press(string(r)); err != nil {
			t.Fatalf("Press(%q) failed: %v", r, err)
		}
	}
}

func TestNewCalculator(t *testing.T) {
	c := NewCalculator()
	if c.Display() != "0" {
		t.Errorf("Expected display %q, got %q", "0", c.Display())
	}
	if op, ok := c.Pending(); ok {
		t.Errorf("Expected no pending operator, got %q", op)
	}
}

func TestInput(t *testing.T) {
	tests := []struct {
		name string
		keys string
		want string
	}{
		{"digits", "123", "123"},
		{"grouping", "1234567", "1 234 567"},
		{"full width", "1234567890", "1 234 567 890"},
		{"eleventh digit rejected", "12345678901", "1 234 567 890"},
		{"point past width rejected", "1234567890.", "1 234 567 890"},
		{"second zero rejected", "00", "0"},
		{"zero replaced", "05", "5"},
		{"leading zeros", "000123", "123"},
		{"leading point", ".", "0."},
		{"leading point digit", ".5", "0.5"},
		{"second point rejected", "1..5", "1.5"},
		{"point after fraction rejected", "1.2.3", "1.23"},
		{"zero fraction", "0.0", "0.0"},
		{"grouped fraction", "1234567.89", "1 234 567.89"},
		{"fraction past width rejected", "123456789.5", "123 456 789."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCalculator()
			press(t, c, tt.keys)
			if got := c.Display(); got != tt.want {
				t.Errorf("After %q expected display %q, got %q", tt.keys, tt.want, got)
			}
		})
	}
}

func TestInputKeepsTypedDigits(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	c := NewCalculator()

	for i := 0; i < 200; i++ {
		var b strings.Builder
		b.WriteByte(byte('1' + rnd.Intn(9)))
		for n := rnd.Intn(15); n > 0; n-- {
			b.WriteByte(byte('0' + rnd.Intn(10)))
		}
		digits := b.String()

		c.Clear()
		press(t, c, digits)

		want := digits
		if len(want) > MaxDigits {
			want = want[:MaxDigits]
		}
		if got := strip(c.Display()); got != want {
			t.Fatalf("After %q expected digits %q, got %q", digits, want, got)
		}
	}
}

func TestInputUnsupported(t *testing.T) {
	c := NewCalculator()
	if err := c.Input('a'); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		keys string
		want string
	}{
		{"add", "2+3=", "5"},
		{"subtract below zero", "5-8=", "-3"},
		{"multiply fraction", "1.5*2=", "3"},
		{"divide", "10/4=", "2.5"},
		{"repeating fraction", "1/3=", "0.33333333"},
		{"binary rounding", "0.1+0.2=", "0.3"},
		{"chained", "2+3*4=", "20"},
		{"operand reused", "2+=", "4"},
		{"operator replaced", "6+-2=", "4"},
		{"overflow truncates", "9999999999*9999999999=", "9 999 999 998"},
		{"grouped result", "999*1001=", "999 999"},
		{"new number after result", "2+3=7", "7"},
		{"result as operand", "2+3=+1=", "6"},
		{"divide by zero", "6/0=", DivisionByZeroToken},
		{"no pending operation", "42=", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCalculator()
			press(t, c, tt.keys)
			if got := c.Display(); got != tt.want {
				t.Errorf("After %q expected display %q, got %q", tt.keys, tt.want, got)
			}
		})
	}
}

func TestEvaluateClearsPending(t *testing.T) {
	c := NewCalculator()
	press(t, c, "6/0")
	if op, ok := c.Pending(); !ok || op != Divide {
		t.Fatalf("Expected pending %q, got %q", Divide, op)
	}

	c.Evaluate()
	if c.Display() != DivisionByZeroToken {
		t.Errorf("Expected display %q, got %q", DivisionByZeroToken, c.Display())
	}
	if op, ok := c.Pending(); ok {
		t.Errorf("Expected no pending operator, got %q", op)
	}
	if c.Active() != None {
		t.Errorf("Expected no active operator, got %q", c.Active())
	}
}

func TestOperatorAfterSentinel(t *testing.T) {
	c := NewCalculator()
	press(t, c, "6/0=+")

	if c.Display() != DivisionByZeroToken {
		t.Errorf("Expected display %q, got %q", DivisionByZeroToken, c.Display())
	}
	if _, ok := c.Pending(); ok {
		t.Error("Expected operator to be ignored on a non-numeric display")
	}

	press(t, c, "5")
	if c.Display() != "5" {
		t.Errorf("Expected display %q, got %q", "5", c.Display())
	}
}

func TestActiveOperator(t *testing.T) {
	c := NewCalculator()
	press(t, c, "2+")
	if c.Active() != Add {
		t.Errorf("Expected active %q, got %q", Add, c.Active())
	}

	press(t, c, "3")
	if c.Active() != None {
		t.Errorf("Expected marker cleared by input, got %q", c.Active())
	}
	if op, ok := c.Pending(); !ok || op != Add {
		t.Errorf("Expected pending %q, got %q", Add, op)
	}
}

func TestChooseOperatorUnsupported(t *testing.T) {
	c := NewCalculator()
	if err := c.ChooseOperator('x'); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestClear(t *testing.T) {
	for _, keys := range []string{"", "123", "2+", "2+3", "6/0=", "9.5*"} {
		c := NewCalculator()
		press(t, c, keys)
		c.Clear()

		if c.Display() != "0" {
			t.Errorf("After %q and clear expected display %q, got %q", keys, "0", c.Display())
		}
		if op, ok := c.Pending(); ok {
			t.Errorf("After %q and clear expected no pending operator, got %q", keys, op)
		}
		if c.Active() != None {
			t.Errorf("After %q and clear expected no active operator, got %q", keys, c.Active())
		}
	}

	c := NewCalculator()
	press(t, c, "2+3")
	c.Clear()
	press(t, c, "4=")
	if c.Display() != "4" {
		t.Errorf("Expected cleared operation to stay cleared, got %q", c.Display())
	}
}

func TestClearEntry(t *testing.T) {
	c := NewCalculator()
	press(t, c, "2+3")
	c.ClearEntry()
	if c.Display() != "0" {
		t.Errorf("Expected display %q, got %q", "0", c.Display())
	}

	press(t, c, "4=")
	if c.Display() != "6" {
		t.Errorf("Expected display %q, got %q", "6", c.Display())
	}
}

func TestToggleSign(t *testing.T) {
	tests := []struct {
		keys string
		want string
	}{
		{"5", "-5"},
		{"1234", "-1 234"},
		{"0", "0"},
		{"0.", "0"},
		{"1.25", "-1.3"},
		{"6/0=", DivisionByZeroToken},
	}

	for _, tt := range tests {
		c := NewCalculator()
		press(t, c, tt.keys)
		c.ToggleSign()
		if got := c.Display(); got != tt.want {
			t.Errorf("After %q and toggle expected display %q, got %q", tt.keys, tt.want, got)
		}
	}

	c := NewCalculator()
	press(t, c, "5")
	c.ToggleSign()
	c.ToggleSign()
	if c.Display() != "5" {
		t.Errorf("Expected double toggle to restore %q, got %q", "5", c.Display())
	}
}

func TestToggleSignKeepsPending(t *testing.T) {
	c := NewCalculator()
	press(t, c, "2+3")
	c.ToggleSign()
	press(t, c, "=")
	if c.Display() != "-1" {
		t.Errorf("Expected display %q, got %q", "-1", c.Display())
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		keys string
		want string
	}{
		{"50", "0.50"},
		{"5", "0.05"},
		{"200", "2"},
		{"12.5", "0.13"},
		{"1234567890", "12 345 678.9"},
		{"6/0=", DivisionByZeroToken},
	}

	for _, tt := range tests {
		c := NewCalculator()
		press(t, c, tt.keys)
		c.Percent()
		if got := c.Display(); got != tt.want {
			t.Errorf("After %q and percent expected display %q, got %q", tt.keys, tt.want, got)
		}
	}

	c := NewCalculator()
	press(t, c, "200+10")
	c.Percent()
	press(t, c, "=")
	if c.Display() != "200.1" {
		t.Errorf("Expected display %q, got %q", "200.1", c.Display())
	}
}

func TestPress(t *testing.T) {
	c := NewCalculator()
	for _, key := range []string{"7", "÷", "2", "="} {
		if err := c.Press(key); err != nil {
			t.Fatalf("Press(%q) failed: %v", key, err)
		}
	}
	if c.Display() != "3.5" {
		t.Errorf("Expected display %q, got %q", "3.5", c.Display())
	}

	for key, want := range map[string]string{
		"±":           "-3.5",
		KeyToggleSign: "3.5",
		"%":           "0.04",
		"C":           "0",
		KeyClear:      "0",
	} {
		c := NewCalculator()
		press(t, c, "3.5")
		if key == KeyToggleSign {
			c.ToggleSign()
		}
		if err := c.Press(key); err != nil {
			t.Fatalf("Press(%q) failed: %v", key, err)
		}
		if c.Display() != want {
			t.Errorf("Press(%q) expected display %q, got %q", key, want, c.Display())
		}
	}

	for _, key := range []string{"", "x", "12", "bogus", "\xff"} {
		if err := c.Press(key); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Press(%q) expected ErrUnsupported, got %v", key, err)
		}
	}
}
