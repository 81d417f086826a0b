package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID     = "user_id"
	FieldExpenseID  = "expense_id"
	FieldGoalID     = "goal_id"
	FieldGroupID    = "group_id"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldPeriod     = "period"
	FieldRange      = "range"
	FieldEvent      = "event"
	FieldQueue      = "queue"
	FieldRecipient  = "recipient"
	FieldInvitation = "invitation_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentMail      = "mail"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentExpense   = "expense"
	ComponentGroup     = "group"
	ComponentAnalytics = "analytics"
	ComponentExport    = "export"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpReview   = "review"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpSend     = "send"
	OpExport   = "export"
	OpMigrate  = "migrate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
