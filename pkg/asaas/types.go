package asaas

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// brt is the provider's wall-clock zone. Brazil has not observed daylight
// saving since 2019.
var brt = time.FixedZone("BRT", -3*60*60)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Date is a calendar date encoded as "YYYY-MM-DD".
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	t = t.In(brt)
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, brt)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.In(brt).Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, brt)
	if err != nil {
		return fmt.Errorf("asaas: invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// DateTime is a timestamp encoded as "YYYY-MM-DD HH:MM:SS" in Brasília time.
type DateTime struct {
	time.Time
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.In(brt).Format(dateTimeLayout))
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.ParseInLocation(dateTimeLayout, s, brt)
	if err != nil {
		// Some payloads carry RFC 3339 timestamps.
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			d.Time = t2
			return nil
		}
		return fmt.Errorf("asaas: invalid timestamp %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// Cents converts a decimal BRL amount to centavos.
func Cents(value float64) int64 {
	return int64(math.Round(value * 100))
}

// BillingType is the payment method of a charge.
type BillingType string

const (
	BillingUndefined  BillingType = "UNDEFINED"
	BillingBoleto     BillingType = "BOLETO"
	BillingCreditCard BillingType = "CREDIT_CARD"
	BillingPix        BillingType = "PIX"
)

// Cycle is the recurrence of a subscription.
type Cycle string

const (
	CycleWeekly       Cycle = "WEEKLY"
	CycleBiweekly     Cycle = "BIWEEKLY"
	CycleMonthly      Cycle = "MONTHLY"
	CycleBimonthly    Cycle = "BIMONTHLY"
	CycleQuarterly    Cycle = "QUARTERLY"
	CycleSemiannually Cycle = "SEMIANNUALLY"
	CycleYearly       Cycle = "YEARLY"
)

// Cycles lists every subscription cycle the provider supports.
var Cycles = []Cycle{
	CycleWeekly, CycleBiweekly, CycleMonthly, CycleBimonthly,
	CycleQuarterly, CycleSemiannually, CycleYearly,
}

// Customer is a billing customer.
type Customer struct {
	ID                string `json:"id,omitempty"`
	Name              string `json:"name"`
	CpfCnpj           string `json:"cpfCnpj"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	MobilePhone       string `json:"mobilePhone,omitempty"`
	PostalCode        string `json:"postalCode,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
	Deleted           bool   `json:"deleted,omitempty"`
}

// Payment is a charge as the provider reports it, both in API responses and
// in webhook notifications.
type Payment struct {
	ID                    string      `json:"id"`
	Customer              string      `json:"customer"`
	Subscription          string      `json:"subscription,omitempty"`
	Value                 float64     `json:"value"`
	NetValue              float64     `json:"netValue,omitempty"`
	BillingType           BillingType `json:"billingType"`
	Status                string      `json:"status"`
	DueDate               Date        `json:"dueDate"`
	PaymentDate           *Date       `json:"paymentDate,omitempty"`
	Description           string      `json:"description,omitempty"`
	InvoiceURL            string      `json:"invoiceUrl,omitempty"`
	BankSlipURL           string      `json:"bankSlipUrl,omitempty"`
	TransactionReceiptURL string      `json:"transactionReceiptUrl,omitempty"`
	ExternalReference     string      `json:"externalReference,omitempty"`
	Deleted               bool        `json:"deleted,omitempty"`
}

// PaymentRequest creates a one-off charge.
type PaymentRequest struct {
	Customer          string      `json:"customer"`
	BillingType       BillingType `json:"billingType"`
	Value             float64     `json:"value"`
	DueDate           Date        `json:"dueDate"`
	Description       string      `json:"description,omitempty"`
	ExternalReference string      `json:"externalReference,omitempty"`
}

// Subscription is a recurring charge.
type Subscription struct {
	ID                string      `json:"id,omitempty"`
	Customer          string      `json:"customer"`
	BillingType       BillingType `json:"billingType"`
	Value             float64     `json:"value"`
	NextDueDate       Date        `json:"nextDueDate"`
	Cycle             Cycle       `json:"cycle"`
	Description       string      `json:"description,omitempty"`
	Status            string      `json:"status,omitempty"`
	ExternalReference string      `json:"externalReference,omitempty"`
	Deleted           bool        `json:"deleted,omitempty"`
}

// PixQRCode is the PIX copy-and-paste payload of a charge.
type PixQRCode struct {
	EncodedImage   string   `json:"encodedImage"`
	Payload        string   `json:"payload"`
	ExpirationDate DateTime `json:"expirationDate"`
}

// WebhookConfig registers the notification endpoint.
type WebhookConfig struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Email       string   `json:"email"`
	Enabled     bool     `json:"enabled"`
	Interrupted bool     `json:"interrupted"`
	APIVersion  int      `json:"apiVersion"`
	AuthToken   string   `json:"authToken,omitempty"`
	SendType    string   `json:"sendType"`
	Events      []string `json:"events"`
}

// WebhookEvent is the body of a payment notification.
type WebhookEvent struct {
	ID          string   `json:"id,omitempty"`
	Event       string   `json:"event"`
	DateCreated DateTime `json:"dateCreated"`
	Payment     *Payment `json:"payment"`
}

type listResponse[T any] struct {
	HasMore    bool `json:"hasMore"`
	TotalCount int  `json:"totalCount"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Data       []T  `json:"data"`
}

type deleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
