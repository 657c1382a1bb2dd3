package calc

import "unicode/utf8"

// Command keys understood by Press besides digits, "." and operators.
const (
	KeyClear      = "clear"
	KeyClearEntry = "clear-entry"
	KeyToggleSign = "toggle-sign"
	KeyPercent    = "percent"
)

var aliases = map[string]string{
	"AC": KeyClear,
	"C":  KeyClearEntry,
	"±":  KeyToggleSign,
	"T":  KeyToggleSign,
	"%":  KeyPercent,
	"÷":  "/",
	"×":  "*",
}

// Press routes a single UI key to the calculator.
func (c *Calculator) Press(key string) error {
	if alias, ok := aliases[key]; ok {
		key = alias
	}

	switch key {
	case KeyClear:
		c.Clear()
		return nil
	case KeyClearEntry:
		c.ClearEntry()
		return nil
	case KeyToggleSign:
		c.ToggleSign()
		return nil
	case KeyPercent:
		c.Percent()
		return nil
	}

	r, size := utf8.DecodeRuneInString(key)
	if size == 0 || size != len(key) {
		return ErrUnsupported
	}

	if r == '.' || '0' <= r && r <= '9' {
		return c.Input(r)
	}
	return c.ChooseOperator(Operator(r))
}
