package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodPayPal PaymentMethod = "paypal"
	PaymentMethodBank   PaymentMethod = "bank"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodPayPal, PaymentMethodBank:
		return true
	}
	return false
}

type DonationStatus string

const (
	DonationStatusCompleted DonationStatus = "COMPLETED"
)

func (s DonationStatus) String() string {
	return string(s)
}

type Donor struct {
	Name      string `json:"name" bson:"name"`
	Email     string `json:"email" bson:"email"`
	Anonymous bool   `json:"anonymous" bson:"anonymous"`
}

type Card struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

type BillingAddress struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	ZipCode string `json:"zip_code" bson:"zip_code"`
}

type CheckoutRequest struct {
	Donor          Donor          `json:"donor"`
	PaymentMethod  PaymentMethod  `json:"payment_method"`
	Card           *Card          `json:"card,omitempty"`
	BillingAddress BillingAddress `json:"billing_address"`
}

type DonationItem struct {
	AppealID    string    `json:"appeal_id" bson:"appeal_id"`
	AppealTitle string    `json:"appeal_title" bson:"appeal_title"`
	Amount      string    `json:"amount" bson:"amount"`
	Frequency   Frequency `json:"frequency" bson:"frequency"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	Subtotal    string    `json:"subtotal" bson:"subtotal"`
}

// Donation is a completed checkout. Amounts are stored as decimal strings.
type Donation struct {
	ID             string         `json:"id" bson:"_id"`
	SessionID      string         `json:"-" bson:"session_id"`
	Items          []DonationItem `json:"items" bson:"items"`
	Total          string         `json:"total" bson:"total"`
	Currency       string         `json:"currency" bson:"currency"`
	Donor          Donor          `json:"donor" bson:"donor"`
	BillingAddress BillingAddress `json:"billing_address" bson:"billing_address"`
	PaymentMethod  PaymentMethod  `json:"payment_method" bson:"payment_method"`
	CardLast4      string         `json:"card_last4,omitempty" bson:"card_last4,omitempty"`
	Status         DonationStatus `json:"status" bson:"status"`
	CompletedAt    time.Time      `json:"completed_at" bson:"completed_at"`
	// Published is set once the completion event reached the broker.
	Published bool `json:"-" bson:"published"`
}

// NewDonationItems flattens cart line items into their recorded form.
func NewDonationItems(items []LineItem) []DonationItem {
	out := make([]DonationItem, len(items))
	for i, item := range items {
		out[i] = DonationItem{
			AppealID:    item.AppealID,
			AppealTitle: item.Appeal.Title,
			Amount:      item.Amount.StringFixed(2),
			Frequency:   item.Frequency,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal().StringFixed(2),
		}
	}
	return out
}

func TotalOf(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
