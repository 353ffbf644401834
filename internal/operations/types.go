package operations

import "time"

// Stage identifiers
const (
	StageIDScraping       = "scraping"
	StageIDCleaning       = "cleaning"
	StageIDTransformation = "transformation"
	StageIDAnalytics      = "analytics"
	StageIDTraining       = "training"
	StageIDExport         = "export"
)

// StageOrder lists the pipeline stages in execution order.
var StageOrder = []string{
	StageIDScraping,
	StageIDCleaning,
	StageIDTransformation,
	StageIDAnalytics,
	StageIDTraining,
	StageIDExport,
}

// Stage names
const (
	StageNameScraping       = "Data Collection"
	StageNameCleaning       = "Data Cleaning"
	StageNameTransformation = "Data Transformation"
	StageNameAnalytics      = "Analytics"
	StageNameTraining       = "Model Training"
	StageNameExport         = "BI Export"
)

// WebSocket event types
const (
	EventTypeOperationStatus   = "operation:status"
	EventTypeOperationProgress = "operation:progress"
	EventTypeOperationComplete = "operation:complete"
	EventTypeOperationError    = "operation:error"
)

// Default timeouts
const (
	DefaultStageTimeout    = 30 * time.Minute
	DefaultScrapingTimeout = 60 * time.Minute
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest represents a request to execute an operation. Step
// names the single stage to run; empty means the full pipeline.
type OperationRequest struct {
	ID         string                 `json:"id"`
	Step       string                 `json:"step,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse represents the result of an operation execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}
