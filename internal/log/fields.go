package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRunID        = "run_id"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldEntityID     = "entity_id"
	FieldObligationID = "obligation_id"
	FieldPaymentID    = "payment_id"
	FieldReminderID   = "reminder_id"
	FieldMessageID    = "message_id"
	FieldAmountFils   = "amount_fils"
	FieldPeriod       = "period"
	FieldStatus       = "status"
	FieldDueDate      = "due_date"
	FieldSheetsRef    = "sheets_ref"
	FieldCount        = "count"
	FieldDuration     = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentReminders = "reminders"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpSchedule = "schedule"
	OpDispatch = "dispatch"
	OpSweep    = "sweep"
	OpSync     = "sync"
	OpBackfill = "backfill"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithPayment adds the identifiers of a recorded payment.
func (f LogFields) WithPayment(paymentID, obligationID, amountFils int64) LogFields {
	f[FieldPaymentID] = paymentID
	f[FieldObligationID] = obligationID
	f[FieldAmountFils] = amountFils
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
