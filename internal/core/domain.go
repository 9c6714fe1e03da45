package core

import (
	"strings"
	"time"
)

const (
	EntityBank     EntityKind = "bank"
	EntityBNPL     EntityKind = "bnpl"
	EntityRetailer EntityKind = "retailer"
	EntityPerson   EntityKind = "person"
)

const (
	KindLoan     ObligationKind = "loan"
	KindBNPL     ObligationKind = "bnpl"
	KindPersonal ObligationKind = "personal"
	KindOneOff   ObligationKind = "one_off"
)

const (
	StatusActive  Status = "active"
	StatusOverdue Status = "overdue"
	StatusClosed  Status = "closed"
	StatusPaused  Status = "paused"
)

const (
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodWallet       PaymentMethod = "wallet"
	MethodOther        PaymentMethod = "other"
)

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
	ReminderSnoozed ReminderStatus = "snoozed"
	ReminderDone    ReminderStatus = "done"
)

type (
	EntityKind     string
	ObligationKind string
	Status         string
	PaymentMethod  string
	ReminderStatus string

	Money struct {
		Fils int64
	}

	// Entity is a counterparty: a bank, BNPL provider, retailer or person.
	Entity struct {
		ID        int64
		Kind      EntityKind
		Name      string
		Phone     string
		Note      string
		CreatedAt time.Time
	}

	// Obligation is a recurring or one-off liability owed to an Entity.
	Obligation struct {
		ID                    int64
		EntityID              int64
		Kind                  ObligationKind
		Name                  string
		Principal             Money
		APR                   float64 // percent
		FeeFixed              Money
		StartDate             Date
		DueDay                int  // 1-31, clamped per month
		TotalInstallments     *int // nil for open-ended
		RemainingInstallments *int
		InstallmentAmount     Money
		Status                Status
		Penalty               PenaltyPolicy
		RelationshipFactor    float64 // 0-1, personal debts only
		Tags                  []string
		CreatedAt             time.Time
	}

	// Payment applies money against one Obligation. Payments are never edited.
	Payment struct {
		ID           int64
		ObligationID int64
		Amount       Money
		Date         Date
		Method       PaymentMethod
		Note         string
		CreatedAt    time.Time
	}

	// Reminder asks an external notifier to nudge the user about a due date.
	Reminder struct {
		ID           int64
		ObligationID int64
		DueDate      Date
		RemindAt     time.Time
		Status       ReminderStatus
	}

	// Holiday is a date excluded from business-day computation.
	Holiday struct {
		Date Date
		Name string
	}
)

func (k EntityKind) Valid() bool {
	switch k {
	case EntityBank, EntityBNPL, EntityRetailer, EntityPerson:
		return true
	}
	return false
}

func (k ObligationKind) Valid() bool {
	switch k {
	case KindLoan, KindBNPL, KindPersonal, KindOneOff:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusOverdue, StatusClosed, StatusPaused:
		return true
	}
	return false
}

// Live reports whether the status still produces due dates.
func (s Status) Live() bool {
	return s == StatusActive || s == StatusOverdue
}

// CanTransition reports whether an explicit status change from s to next is
// allowed. Closed is terminal; paused is entered from active only and only
// returns to active. An overdue obligation leaves overdue through a covering
// payment, never by hand.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusActive:
		return next == StatusOverdue || next == StatusPaused || next == StatusClosed
	case StatusOverdue:
		return next == StatusClosed
	case StatusPaused:
		return next == StatusActive
	default:
		return false
	}
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodBankTransfer, MethodWallet, MethodOther:
		return true
	}
	return false
}

func (s ReminderStatus) Valid() bool {
	switch s {
	case ReminderPending, ReminderSent, ReminderSnoozed, ReminderDone:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Fils <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Entity) Validate() error {
	if !e.Kind.Valid() {
		return invalid("kind", ErrInvalidKind, "unknown entity kind "+string(e.Kind))
	}
	if strings.TrimSpace(e.Name) == "" {
		return invalid("name", ErrEmptyName, "name is required")
	}
	if len(e.Name) > 200 {
		return invalid("name", ErrEmptyName, "name too long (max 200 characters)")
	}
	return nil
}

// Validate checks every field rule an obligation must satisfy before it is stored.
func (o Obligation) Validate() error {
	if !o.Kind.Valid() {
		return invalid("kind", ErrInvalidKind, "unknown obligation kind "+string(o.Kind))
	}
	if o.DueDay < 1 || o.DueDay > 31 {
		return invalid("due_day", ErrInvalidDueDay, "due day must be between 1 and 31")
	}
	if !o.Principal.IsPositive() {
		return invalid("principal", ErrInvalidAmount, "principal must be positive")
	}
	if !o.InstallmentAmount.IsPositive() {
		return invalid("installment_amount", ErrInvalidAmount, "installment amount must be positive")
	}
	if o.APR < 0 {
		return invalid("apr", ErrInvalidRate, "apr cannot be negative")
	}
	if o.FeeFixed.Fils < 0 {
		return invalid("fee_fixed", ErrInvalidAmount, "fixed fee cannot be negative")
	}
	if o.RelationshipFactor < 0 || o.RelationshipFactor > 1 {
		return invalid("relationship_factor", ErrInvalidRate, "relationship factor must be between 0 and 1")
	}
	if o.TotalInstallments != nil && *o.TotalInstallments < 1 {
		return invalid("total_installments", ErrInvalidInstallment, "total installments must be at least 1")
	}
	if o.TotalInstallments != nil && o.RemainingInstallments != nil {
		if r := *o.RemainingInstallments; r < 0 || r > *o.TotalInstallments {
			return invalid("remaining_installments", ErrInvalidInstallment, "remaining installments out of range")
		}
	}
	if err := o.StartDate.Validate(); err != nil {
		return invalid("start_date", err, "start date is required")
	}
	if err := o.Penalty.Validate(); err != nil {
		return invalid("penalty_policy", ErrInvalidPenalty, err.Error())
	}
	if o.Status != "" && !o.Status.Valid() {
		return invalid("status", ErrInvalidStatus, "unknown status "+string(o.Status))
	}
	return nil
}

// IsOpenEnded reports whether the obligation has no installment count.
func (o Obligation) IsOpenEnded() bool {
	return o.TotalInstallments == nil
}

// Started reports whether the obligation had started by d.
func (o Obligation) Started(d Date) bool {
	return !o.StartDate.After(d)
}

func (p Payment) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Reason: "payment amount must be positive", ObligationID: p.ObligationID, Err: err}
	}
	if err := p.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Reason: "payment date is required", ObligationID: p.ObligationID, Err: err}
	}
	if p.Method != "" && !p.Method.Valid() {
		return &ValidationError{Field: "method", Reason: "unknown payment method " + string(p.Method), ObligationID: p.ObligationID, Err: ErrInvalidKind}
	}
	if len(p.Note) > 500 {
		return &ValidationError{Field: "note", Reason: "note too long (max 500 characters)", ObligationID: p.ObligationID}
	}
	return nil
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
