package checkout

import (
	"encoding/json"
	"time"
)

const EventCheckoutCompleted = "CheckoutCompleted"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // txn_id
	Payload       json.RawMessage `json:"payload"`
}

type PurchasedItem struct {
	ProjectID  string `json:"project_id"`
	PriceCents int    `json:"price_cents"`
}

type CheckoutCompletedPayload struct {
	TxnID      string          `json:"txn_id"`
	UserID     string          `json:"user_id"`
	Items      []PurchasedItem `json:"items"`
	TotalCents int             `json:"total_cents"`
}
