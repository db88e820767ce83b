package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/autovitrine/marketplace/pkg/asaas"
	"github.com/autovitrine/marketplace/pkg/logger"
	"github.com/autovitrine/marketplace/pkg/payments"
)

// WebhookTokenHeader carries the token configured on the provider's webhook.
const WebhookTokenHeader = "asaas-access-token"

// billingWebhook accepts a payment notification. Malformed bodies are
// rejected before anything is stored; every well-formed notification is
// acknowledged with 200 so the provider does not pause the queue, even when
// applying it failed.
func (rt *Router) billingWebhook(r *http.Request) (Response, error) {
	if rt.webhookToken != "" {
		got := r.Header.Get(WebhookTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(rt.webhookToken)) != 1 {
			return nil, errUnauthorized
		}
	}

	var evt asaas.WebhookEvent
	if err := decodeJSON(r, &evt); err != nil {
		rt.recordWebhook("", "invalid")
		return nil, err
	}
	n := payments.NotificationFromWebhook(evt)
	if err := n.Validate(); err != nil {
		rt.recordWebhook(n.Event, "invalid")
		return nil, HTTPError{Status: http.StatusBadRequest, Code: "invalid_notification", Message: err.Error()}
	}

	res, err := rt.deps.Dispatcher.Dispatch(r.Context(), n)
	if err != nil {
		rt.recordWebhook(n.Event, "invalid")
		return nil, HTTPError{Status: http.StatusBadRequest, Code: "invalid_notification", Message: err.Error()}
	}
	rt.recordWebhook(n.Event, string(res.Outcome))
	rt.log.DebugContext(r.Context(), "billing notification handled",
		logger.Event(string(n.Event)), logger.PaymentID(n.Payment.ID), slog.String("outcome", string(res.Outcome)))

	return Raw(http.StatusOK, map[string]bool{"received": true}), nil
}

// recordWebhook folds unrecognized event names into one label value.
func (rt *Router) recordWebhook(event payments.EventName, outcome string) {
	if rt.metrics == nil {
		return
	}
	label := string(event)
	if !event.Known() {
		label = "unknown"
	}
	rt.metrics.RecordWebhook(label, outcome)
}
