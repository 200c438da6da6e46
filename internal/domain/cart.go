package domain

import "github.com/shopspring/decimal"

type Frequency string

const (
	FrequencyOneTime Frequency = "onetime"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOneTime, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Key identifies a line item. Amounts compare by value, so 25 and 25.00 are
// the same pledge.
type Key struct {
	AppealID  string
	Amount    decimal.Decimal
	Frequency Frequency
}

func (k Key) Matches(other Key) bool {
	return k.AppealID == other.AppealID &&
		k.Frequency == other.Frequency &&
		k.Amount.Equal(other.Amount)
}

type LineItem struct {
	AppealID  string          `json:"appeal_id"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency Frequency       `json:"frequency"`
	Quantity  int             `json:"quantity"`
	Appeal    Appeal          `json:"appeal"`
}

func (i LineItem) Key() Key {
	return Key{AppealID: i.AppealID, Amount: i.Amount, Frequency: i.Frequency}
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.Amount.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type CartState struct {
	Items []LineItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// ItemCount counts distinct line items, not units.
func (s CartState) ItemCount() int {
	return len(s.Items)
}

func (s CartState) IsEmpty() bool {
	return len(s.Items) == 0
}
