package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidCheckout = errors.New("invalid checkout payload")

var (
	// DefaultAmount is charged when the checkout carries no amount at all.
	DefaultAmount = decimal.NewFromInt(100)

	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

const UnknownOrderID = "unknown"

// Intent is a payment derived from one Creatium checkout webhook.
type Intent struct {
	Amount     decimal.Decimal
	MinorUnits int64
	OrderID    string
	PaymentID  string
}

// AmountNumber renders the ruble amount as a JSON number ("250.00" -> 250).
func (i Intent) AmountNumber() json.Number {
	return json.Number(i.Amount.String())
}

type checkoutPayload struct {
	Payment struct {
		Amount flexAmount `json:"amount"`
		ID     flexString `json:"id"`
	} `json:"payment"`
	Cart struct {
		Subtotal flexAmount `json:"subtotal"`
	} `json:"cart"`
	Order struct {
		ID flexString `json:"id"`
	} `json:"order"`
}

// ParseCheckout builds an Intent from a Creatium checkout body. An empty body
// yields the defaults. now is used to mint a payment id when none is given.
func ParseCheckout(body []byte, now time.Time) (Intent, error) {
	var payload checkoutPayload
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return Intent{}, fmt.Errorf("%w: %v", ErrInvalidCheckout, err)
		}
	}

	amount := DefaultAmount
	switch {
	case payload.Payment.Amount.set():
		amount = payload.Payment.Amount.value
	case payload.Cart.Subtotal.set():
		amount = payload.Cart.Subtotal.value
	}

	intent, err := NewIntent(amount)
	if err != nil {
		return Intent{}, err
	}
	intent.PaymentID = string(payload.Payment.ID)
	if intent.PaymentID == "" {
		intent.PaymentID = "creatium_" + strconv.FormatInt(now.UnixMilli(), 10)
	}
	intent.OrderID = string(payload.Order.ID)
	if intent.OrderID == "" {
		intent.OrderID = UnknownOrderID
	}
	return intent, nil
}

// NewIntent validates a ruble amount and computes its minor units.
func NewIntent(amount decimal.Decimal) (Intent, error) {
	if amount.IsNegative() {
		return Intent{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidCheckout)
	}
	if amount.IsZero() {
		amount = DefaultAmount
	}
	minor, err := ToMinorUnits(amount)
	if err != nil {
		return Intent{}, err
	}
	return Intent{Amount: amount, MinorUnits: minor}, nil
}

// ParseAmount parses a ruble amount from a query string value.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return DefaultAmount, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q", ErrInvalidCheckout, raw)
	}
	return d, nil
}

// ToMinorUnits converts rubles to kopecks, rounding half away from zero.
// The result must be at least one kopeck and fit in int64.
func ToMinorUnits(rubles decimal.Decimal) (int64, error) {
	minor := rubles.Mul(hundred).Round(0)
	if minor.Sign() <= 0 {
		return 0, fmt.Errorf("%w: amount %s is below one kopeck", ErrInvalidCheckout, rubles)
	}
	if minor.GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: amount %s is too large", ErrInvalidCheckout, rubles)
	}
	return minor.IntPart(), nil
}

// flexAmount accepts a JSON number or numeric string. Zero, "" and null
// count as absent.
type flexAmount struct {
	value decimal.Decimal
	ok    bool
}

func (a flexAmount) set() bool {
	return a.ok && !a.value.IsZero()
}

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) || bytes.Equal(data, []byte("false")) {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("amount %s: %w", data, err)
	}
	a.value, a.ok = d, true
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*s = flexString(n.String())
	return nil
}
