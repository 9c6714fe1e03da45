package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"debiti/internal/core"
	"debiti/internal/ledger"
)

// PaymentRecordedMessage announces a committed payment. Consumers load the
// payment itself from the store by id.
type PaymentRecordedMessage struct {
	MessageID    string      `json:"message_id"`
	PaymentID    int64       `json:"payment_id"`
	ObligationID int64       `json:"obligation_id"`
	AmountFils   int64       `json:"amount_fils"`
	Date         string      `json:"date"`
	Period       string      `json:"period"`
	Decremented  bool        `json:"decremented"`
	Remaining    *int        `json:"remaining,omitempty"`
	Status       core.Status `json:"status"`
	Timestamp    time.Time   `json:"timestamp"`
}

func NewPaymentRecordedMessage(p core.Payment, res ledger.PaymentResult) *PaymentRecordedMessage {
	return &PaymentRecordedMessage{
		MessageID:    uuid.NewString(),
		PaymentID:    p.ID,
		ObligationID: p.ObligationID,
		AmountFils:   p.Amount.Fils,
		Date:         p.Date.String(),
		Period:       res.Period.String(),
		Decremented:  res.Decremented,
		Remaining:    res.Remaining,
		Status:       res.Status,
		Timestamp:    time.Now(),
	}
}

func (m *PaymentRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PaymentRecordedMessageFromJSON(data []byte) (*PaymentRecordedMessage, error) {
	var msg PaymentRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.PaymentID <= 0 {
		return nil, fmt.Errorf("payment message %q has no payment id", msg.MessageID)
	}
	return &msg, nil
}

// ReminderDueMessage asks a notification service to nudge the user.
type ReminderDueMessage struct {
	MessageID      string    `json:"message_id"`
	ReminderID     int64     `json:"reminder_id"`
	ObligationID   int64     `json:"obligation_id"`
	ObligationName string    `json:"obligation_name"`
	DueDate        string    `json:"due_date"`
	Amount         string    `json:"amount"`
	AmountFils     int64     `json:"amount_fils"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewReminderDueMessage(r core.Reminder, o core.Obligation) *ReminderDueMessage {
	return &ReminderDueMessage{
		MessageID:      uuid.NewString(),
		ReminderID:     r.ID,
		ObligationID:   o.ID,
		ObligationName: o.Name,
		DueDate:        r.DueDate.String(),
		Amount:         o.InstallmentAmount.String(),
		AmountFils:     o.InstallmentAmount.Fils,
		Timestamp:      time.Now(),
	}
}

func (m *ReminderDueMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReminderDueMessageFromJSON(data []byte) (*ReminderDueMessage, error) {
	var msg ReminderDueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
