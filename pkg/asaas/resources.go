package asaas

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
)

var nonDigits = regexp.MustCompile(`\D`)

// OnlyDigits strips formatting from a document or phone number.
func OnlyDigits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// CreateCustomer registers a billing customer.
func (c *Client) CreateCustomer(ctx context.Context, in Customer) (*Customer, error) {
	in.CpfCnpj = OnlyDigits(in.CpfCnpj)
	in.MobilePhone = OnlyDigits(in.MobilePhone)
	in.Phone = OnlyDigits(in.Phone)
	var out Customer
	if err := c.do(ctx, http.MethodPost, "/customers", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	if id == "" {
		return nil, ErrMissingIdentifier
	}
	var out Customer
	if err := c.do(ctx, http.MethodGet, "/customers/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindCustomerByDocument returns the first active customer with the given
// CPF or CNPJ, or ErrNotFound.
func (c *Client) FindCustomerByDocument(ctx context.Context, cpfCnpj string) (*Customer, error) {
	doc := OnlyDigits(cpfCnpj)
	if doc == "" {
		return nil, ErrMissingIdentifier
	}
	var out listResponse[Customer]
	if err := c.do(ctx, http.MethodGet, "/customers", url.Values{"cpfCnpj": {doc}}, nil, &out); err != nil {
		return nil, err
	}
	for _, cust := range out.Data {
		if !cust.Deleted {
			return &cust, nil
		}
	}
	return nil, ErrNotFound
}

// CreatePayment creates a one-off charge.
func (c *Client) CreatePayment(ctx context.Context, in PaymentRequest) (*Payment, error) {
	if in.Customer == "" {
		return nil, ErrMissingIdentifier
	}
	var out Payment
	if err := c.do(ctx, http.MethodPost, "/payments", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	if id == "" {
		return nil, ErrMissingIdentifier
	}
	var out Payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPayments returns the charges of a customer, following pagination.
func (c *Client) ListPayments(ctx context.Context, customerID string) ([]Payment, error) {
	if customerID == "" {
		return nil, ErrMissingIdentifier
	}
	const pageSize = 100
	var all []Payment
	for offset := 0; ; offset += pageSize {
		q := url.Values{
			"customer": {customerID},
			"offset":   {strconv.Itoa(offset)},
			"limit":    {strconv.Itoa(pageSize)},
		}
		var page listResponse[Payment]
		if err := c.do(ctx, http.MethodGet, "/payments", q, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasMore || len(page.Data) == 0 {
			return all, nil
		}
	}
}

// PixQRCode returns the PIX payload of a charge.
func (c *Client) PixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error) {
	if paymentID == "" {
		return nil, ErrMissingIdentifier
	}
	var out PixQRCode
	if err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID)+"/pixQrCode", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubscription creates a recurring charge.
func (c *Client) CreateSubscription(ctx context.Context, in Subscription) (*Subscription, error) {
	if in.Customer == "" {
		return nil, ErrMissingIdentifier
	}
	var out Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	if id == "" {
		return nil, ErrMissingIdentifier
	}
	var out Subscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelSubscription removes a subscription. Pending charges are removed by
// the provider.
func (c *Client) CancelSubscription(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingIdentifier
	}
	var out deleteResponse
	if err := c.do(ctx, http.MethodDelete, "/subscriptions/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return err
	}
	if !out.Deleted {
		return ErrInvalidResponse
	}
	return nil
}

// PaymentEvents lists the notifications the dispatcher understands.
var PaymentEvents = []string{
	"PAYMENT_CREATED",
	"PAYMENT_UPDATED",
	"PAYMENT_CONFIRMED",
	"PAYMENT_RECEIVED",
	"PAYMENT_OVERDUE",
	"PAYMENT_DELETED",
	"PAYMENT_RESTORED",
	"PAYMENT_REFUNDED",
	"PAYMENT_CHARGEBACK_REQUESTED",
	"PAYMENT_CHARGEBACK_DISPUTE",
	"PAYMENT_AWAITING_CHARGEBACK_REVERSAL",
	"PAYMENT_CHECKOUT_VIEWED",
	"PAYMENT_BANK_SLIP_VIEWED",
}

// ConfigureWebhook registers the notification endpoint. Empty Events default
// to PaymentEvents.
func (c *Client) ConfigureWebhook(ctx context.Context, in WebhookConfig) (*WebhookConfig, error) {
	if in.URL == "" {
		return nil, ErrMissingIdentifier
	}
	if len(in.Events) == 0 {
		in.Events = PaymentEvents
	}
	if in.SendType == "" {
		in.SendType = "SEQUENTIALLY"
	}
	if in.APIVersion == 0 {
		in.APIVersion = 3
	}
	var out WebhookConfig
	if err := c.do(ctx, http.MethodPost, "/webhooks", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
