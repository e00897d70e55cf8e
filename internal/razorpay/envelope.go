package razorpay

import (
	"encoding/json"
	"errors"
	"strings"
)

// Event names delivered by the payment processor that this service acts on.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

var (
	// ErrMissingNotes is returned when the payment entity carries no notes.
	ErrMissingNotes = errors.New("missing notes in payment entity")
	// ErrMissingOrderIDs is returned when notes carry no usable order ids.
	ErrMissingOrderIDs = errors.New("missing orderIds in notes")
)

// Envelope is the signed webhook payload. Fields the reconciler does not
// consume are left unmodeled; presence of notes is checked explicitly so
// "missing notes" and "missing orderIds" stay distinct failures.
type Envelope struct {
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}

type Payload struct {
	Payment Payment `json:"payment"`
}

type Payment struct {
	Entity Entity `json:"entity"`
}

type Entity struct {
	Notes *Notes `json:"notes"`
}

// Notes is processor-passthrough metadata set by this system at checkout.
type Notes struct {
	OrderIDs string `json:"orderIds"`
	UserID   string `json:"userId"`
	AppID    string `json:"appId"`
}

// ParseEnvelope decodes a verified raw body into an Envelope.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Notes extracts the notes block, enforcing presence of notes and at
// least one order id.
func (e *Envelope) Notes() (*Notes, error) {
	notes := e.Payload.Payment.Entity.Notes
	if notes == nil {
		return nil, ErrMissingNotes
	}
	if len(notes.OrderIDList()) == 0 {
		return nil, ErrMissingOrderIDs
	}
	return notes, nil
}

// OrderIDList splits the comma-separated order id list, trimming
// whitespace and dropping empty entries.
func (n *Notes) OrderIDList() []string {
	var ids []string
	for _, part := range strings.Split(n.OrderIDs, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
