package logger

import "log/slog"

// Error records err under "error". Nil errors produce an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// AccountID records the owner account under "account_id".
func AccountID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("account_id", id)
}

// PaymentID records the billing provider payment id under "payment_id".
func PaymentID(id string) slog.Attr {
	return slog.String("payment_id", id)
}

// CustomerID records the billing provider customer id under "customer_id".
func CustomerID(id string) slog.Attr {
	return slog.String("customer_id", id)
}

func PlanID(id string) slog.Attr {
	return slog.String("plan_id", id)
}

func Resource(name string) slog.Attr {
	return slog.String("resource", name)
}

// Event records a webhook event name under "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func Status(status string) slog.Attr {
	return slog.String("status", status)
}

func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
