package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/pkg/asaas"
	"github.com/autovitrine/marketplace/pkg/logger"
	"github.com/autovitrine/marketplace/pkg/qrcode"
	"github.com/autovitrine/marketplace/pkg/validator"
)

type createCustomerRequest struct {
	AccountID   uuid.UUID `json:"account_id"`
	Name        string    `json:"name"`
	CpfCnpj     string    `json:"cpf_cnpj"`
	Email       string    `json:"email"`
	MobilePhone string    `json:"mobile_phone"`
	PostalCode  string    `json:"postal_code"`
}

func (req createCustomerRequest) validate() error {
	rules := []validator.Rule{
		validator.RequiredUUID("account_id", req.AccountID),
		validator.Required("name", req.Name),
		validator.MaxLen("name", req.Name, 100),
		validator.ValidCPFOrCNPJ("cpf_cnpj", req.CpfCnpj),
	}
	rules = append(rules, validator.When(req.Email != "", validator.ValidEmail("email", req.Email))...)
	rules = append(rules, validator.When(req.MobilePhone != "", validator.ValidPhoneBR("mobile_phone", req.MobilePhone))...)
	return validator.Apply(rules...)
}

type customerView struct {
	AccountID  uuid.UUID `json:"account_id"`
	CustomerID string    `json:"customer_id"`
	Created    bool      `json:"created"`
}

// createCustomer links the account to a billing customer, reusing an active
// provider customer with the same document before creating one. Input is
// validated before any provider call.
func (rt *Router) createCustomer(r *http.Request) (Response, error) {
	var req createCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if rt.deps.Billing == nil {
		return nil, errBillingUnavailable
	}

	ctx := r.Context()
	acc, err := rt.deps.Accounts.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if acc.ProviderCustomerID != nil && *acc.ProviderCustomerID != "" {
		return JSON(customerView{AccountID: acc.ID, CustomerID: *acc.ProviderCustomerID}), nil
	}

	start := rt.now()
	cust, err := rt.deps.Billing.FindCustomerByDocument(ctx, req.CpfCnpj)
	rt.observeProvider("find_customer", err, start)
	created := false
	if errors.Is(err, asaas.ErrNotFound) {
		start = rt.now()
		cust, err = rt.deps.Billing.CreateCustomer(ctx, asaas.Customer{
			Name:              strings.TrimSpace(req.Name),
			CpfCnpj:           req.CpfCnpj,
			Email:             req.Email,
			MobilePhone:       req.MobilePhone,
			PostalCode:        req.PostalCode,
			ExternalReference: acc.ID.String(),
		})
		rt.observeProvider("create_customer", err, start)
		created = true
	}
	if err != nil {
		return nil, err
	}

	if err := rt.deps.Accounts.SetProviderCustomerID(ctx, acc.ID, cust.ID); err != nil {
		return nil, err
	}
	rt.log.InfoContext(ctx, "billing customer linked", logger.AccountID(acc.ID), logger.CustomerID(cust.ID))

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return JSON(customerView{AccountID: acc.ID, CustomerID: cust.ID, Created: created}, WithStatus(status)), nil
}

type createPaymentRequest struct {
	AccountID   uuid.UUID         `json:"account_id"`
	Amount      int64             `json:"amount"`
	BillingType asaas.BillingType `json:"billing_type"`
	DueDate     string            `json:"due_date"`
	Description string            `json:"description"`
}

var billingTypes = []asaas.BillingType{
	asaas.BillingPix, asaas.BillingBoleto, asaas.BillingCreditCard, asaas.BillingUndefined,
}

type chargeView struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Amount      int64             `json:"amount"`
	BillingType asaas.BillingType `json:"billing_type"`
	DueDate     string            `json:"due_date"`
	InvoiceURL  string            `json:"invoice_url,omitempty"`
	BankSlipURL string            `json:"bank_slip_url,omitempty"`
}

// createPayment issues a one-off charge. The account id travels as the
// charge's external reference so notifications resolve back to it.
func (rt *Router) createPayment(r *http.Request) (Response, error) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	var due asaas.Date
	dueErr := due.UnmarshalJSON([]byte(req.DueDate))
	rules := []validator.Rule{
		validator.RequiredUUID("account_id", req.AccountID),
		validator.Positive("amount", req.Amount),
		validator.InList("billing_type", req.BillingType, billingTypes),
		validator.Required("due_date", req.DueDate),
		validator.ValidDate("due_date", req.DueDate, time.DateOnly),
		validator.MaxLen("description", req.Description, 500),
	}
	rules = append(rules, validator.When(dueErr == nil && req.DueDate != "",
		validator.NotBefore("due_date", due.Time, asaas.NewDate(rt.now()).Time))...)
	if err := validator.Apply(rules...); err != nil {
		return nil, err
	}
	if rt.deps.Billing == nil {
		return nil, errBillingUnavailable
	}

	ctx := r.Context()
	acc, err := rt.deps.Accounts.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if acc.ProviderCustomerID == nil || *acc.ProviderCustomerID == "" {
		return nil, errNoCustomer
	}

	start := rt.now()
	p, err := rt.deps.Billing.CreatePayment(ctx, asaas.PaymentRequest{
		Customer:          *acc.ProviderCustomerID,
		BillingType:       req.BillingType,
		Value:             float64(req.Amount) / 100,
		DueDate:           due,
		Description:       req.Description,
		ExternalReference: acc.ID.String(),
	})
	rt.observeProvider("create_payment", err, start)
	if err != nil {
		return nil, err
	}
	rt.log.InfoContext(ctx, "charge created", logger.AccountID(acc.ID), logger.PaymentID(p.ID))

	return JSON(chargeView{
		ID:          p.ID,
		Status:      p.Status,
		Amount:      asaas.Cents(p.Value),
		BillingType: p.BillingType,
		DueDate:     p.DueDate.Format(time.DateOnly),
		InvoiceURL:  p.InvoiceURL,
		BankSlipURL: p.BankSlipURL,
	}, WithStatus(http.StatusCreated)), nil
}

type pixView struct {
	PaymentID string    `json:"payment_id"`
	Payload   string    `json:"payload"`
	Image     string    `json:"image"`
	ExpiresAt time.Time `json:"expires_at"`
}

// paymentPix returns the PIX copy-and-paste code of a charge with a QR image
// rendered locally from the verified payload.
func (rt *Router) paymentPix(r *http.Request) (Response, error) {
	if rt.deps.Billing == nil {
		return nil, errBillingUnavailable
	}
	paymentID := chi.URLParam(r, "paymentID")

	start := rt.now()
	qr, err := rt.deps.Billing.PixQRCode(r.Context(), paymentID)
	rt.observeProvider("pix_qrcode", err, start)
	if err != nil {
		return nil, err
	}

	image, err := qrcode.GeneratePix(qr.Payload, intQuery(r, "size", 256))
	if err != nil {
		rt.log.WarnContext(r.Context(), "provider returned an unusable pix payload",
			logger.PaymentID(paymentID), logger.Error(err))
		return nil, HTTPError{Status: http.StatusBadGateway, Code: "invalid_pix_payload", Message: "billing provider returned an invalid PIX code"}
	}
	return JSON(pixView{PaymentID: paymentID, Payload: qr.Payload, Image: image, ExpiresAt: qr.ExpirationDate.Time}), nil
}

func (rt *Router) observeProvider(op string, err error, start time.Time) {
	if rt.metrics == nil {
		return
	}
	if errors.Is(err, asaas.ErrNotFound) {
		err = nil
	}
	rt.metrics.ObserveProviderCall(op, err, rt.now().Sub(start))
}
