package logging

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldMonth      = "month"
	FieldCategory   = "category"
	FieldStrategy   = "strategy"
	FieldDebtID     = "debt_id"
	FieldGeneration = "generation"
	FieldBackend    = "backend"
	FieldAddr       = "addr"
	FieldScenario   = "scenario"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentSession   = "session"
	ComponentStore     = "store"
	ComponentHTTP      = "http"
	ComponentScheduler = "scheduler"
	ComponentCLI       = "cli"
)
