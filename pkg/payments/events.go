package payments

// EventName is a provider notification type.
type EventName string

const (
	EventCreated                    EventName = "PAYMENT_CREATED"
	EventUpdated                    EventName = "PAYMENT_UPDATED"
	EventReceived                   EventName = "PAYMENT_RECEIVED"
	EventConfirmed                  EventName = "PAYMENT_CONFIRMED"
	EventOverdue                    EventName = "PAYMENT_OVERDUE"
	EventDeleted                    EventName = "PAYMENT_DELETED"
	EventRestored                   EventName = "PAYMENT_RESTORED"
	EventRefunded                   EventName = "PAYMENT_REFUNDED"
	EventChargebackRequested        EventName = "PAYMENT_CHARGEBACK_REQUESTED"
	EventChargebackDispute          EventName = "PAYMENT_CHARGEBACK_DISPUTE"
	EventAwaitingChargebackReversal EventName = "PAYMENT_AWAITING_CHARGEBACK_REVERSAL"
	EventCheckoutViewed             EventName = "PAYMENT_CHECKOUT_VIEWED"
	EventBankSlipViewed             EventName = "PAYMENT_BANK_SLIP_VIEWED"
)

// Status mirrors the provider's payment status vocabulary.
type Status string

const (
	StatusPending                    Status = "PENDING"
	StatusReceived                   Status = "RECEIVED"
	StatusConfirmed                  Status = "CONFIRMED"
	StatusOverdue                    Status = "OVERDUE"
	StatusDeleted                    Status = "DELETED"
	StatusRefunded                   Status = "REFUNDED"
	StatusChargebackRequested        Status = "CHARGEBACK_REQUESTED"
	StatusChargebackDispute          Status = "CHARGEBACK_DISPUTE"
	StatusAwaitingChargebackReversal Status = "AWAITING_CHARGEBACK_REVERSAL"
)

// Action is the side effect a transition has on the account's subscription.
type Action string

const (
	ActionNone       Action = "none"
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
	ActionGrace      Action = "grace"
)

type transition struct {
	status      Status
	fromPayload bool
	action      Action
	logOnly     bool
}

var transitions = map[EventName]transition{
	EventCreated:                    {status: StatusPending},
	EventUpdated:                    {fromPayload: true},
	EventReceived:                   {status: StatusReceived, action: ActionActivate},
	EventConfirmed:                  {status: StatusConfirmed, action: ActionActivate},
	EventOverdue:                    {status: StatusOverdue, action: ActionGrace},
	EventDeleted:                    {status: StatusDeleted},
	EventRestored:                   {status: StatusPending},
	EventRefunded:                   {status: StatusRefunded, action: ActionDeactivate},
	EventChargebackRequested:        {status: StatusChargebackRequested},
	EventChargebackDispute:          {status: StatusChargebackDispute},
	EventAwaitingChargebackReversal: {status: StatusAwaitingChargebackReversal},
	EventCheckoutViewed:             {logOnly: true},
	EventBankSlipViewed:             {logOnly: true},
}

// Known reports whether the dispatcher handles e.
func (e EventName) Known() bool {
	_, ok := transitions[e]
	return ok
}

// Events returns every handled event name.
func Events() []EventName {
	out := make([]EventName, 0, len(transitions))
	for e := range transitions {
		out = append(out, e)
	}
	return out
}
