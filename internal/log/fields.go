package log

// Field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldMonth       = "month"
	FieldCategory    = "category"
	FieldAmount      = "amount"
	FieldLimit       = "limit"
	FieldPercentUsed = "percent_used"
	FieldStatus      = "status"
	FieldScore       = "score"
	FieldLevel       = "level"
	FieldCount       = "count"
	FieldDuration    = "duration_ms"
	FieldBackend     = "backend"
	FieldMessageID   = "message_id"
	FieldSource      = "source"
)

// Component names
const (
	ComponentApp     = "app"
	ComponentEngine  = "engine"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentMonitor = "monitor"
	ComponentReceipt = "receipt"
	ComponentBackend = "backend"
	ComponentMetrics = "metrics"
	ComponentCLI     = "cli"
)

// Operation names
const (
	OpSetBudget      = "set_budget"
	OpBudgetStatus   = "budget_status"
	OpRiskAssessment = "risk_assessment"
	OpRepeatSpending = "repeat_spending"
	OpExtractReceipt = "extract_receipt"
	OpScanReceipt    = "scan_receipt"
	OpSummary        = "summary"
	OpAddTransaction = "add_transaction"
	OpEvaluate       = "evaluate"
	OpPublish        = "publish"
	OpStartup        = "startup"
	OpShutdown       = "shutdown"
)

// Error categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeDependency    = "dependency_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeInternal      = "internal_error"
)

// Fields is a small builder for slog key/value pairs.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) WithUser(userID string) Fields {
	f[FieldUserID] = userID
	return f
}

func (f Fields) WithMonth(month string) Fields {
	f[FieldMonth] = month
	return f
}

// WithError records err and its category. A nil err is ignored.
func (f Fields) WithError(err error, errorType string) Fields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = errorType
	}
	return f
}

func (f Fields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
