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
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldDate       = "date"
	FieldClientID   = "client_id"
	FieldEntryID    = "entry_id"
	FieldInvoiceID  = "invoice_id"
	FieldHours      = "hours"
	FieldSynced     = "synced"
	FieldRemoved    = "removed"
	FieldViewMode   = "view_mode"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentStorage    = "storage"
	ComponentReconciler = "reconciler"
	ComponentProjection = "projection"
	ComponentGrid       = "grid"
	ComponentInvoice    = "invoice"
	ComponentAMQP       = "amqp"
	ComponentMailer     = "mailer"
	ComponentExport     = "export"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSync     = "sync"
	OpUpsert   = "upsert"
	OpExport   = "export"
	OpSend     = "send"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
