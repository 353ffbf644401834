package operations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PipelineManifest records what each pipeline run produced so the
// dashboard can report data availability without rescanning.
type PipelineManifest struct {
	mu sync.RWMutex

	OperationID     string               `json:"operation_id"`
	StartTime       time.Time            `json:"start_time"`
	Status          string               `json:"status"`
	LastUpdated     time.Time            `json:"last_updated"`
	AvailableData   map[string]*DataInfo `json:"available_data"`
	CompletedStages []StageExecution     `json:"completed_stages"`
}

// DataInfo tracks one dataset a stage produced
type DataInfo struct {
	Location  string    `json:"location"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// StageExecution tracks the execution of a single stage
type StageExecution struct {
	StageID   string    `json:"stage_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// NewPipelineManifest creates a manifest for one operation
func NewPipelineManifest(operationID string) *PipelineManifest {
	now := time.Now()
	return &PipelineManifest{
		OperationID:   operationID,
		StartTime:     now,
		Status:        "pending",
		LastUpdated:   now,
		AvailableData: make(map[string]*DataInfo),
	}
}

// RecordData registers a dataset produced by a stage
func (m *PipelineManifest) RecordData(dataType, location string, rows int, stageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AvailableData[dataType] = &DataInfo{
		Location:  location,
		RowCount:  rows,
		CreatedAt: time.Now(),
		CreatedBy: stageID,
	}
	m.LastUpdated = time.Now()
}

// RecordStage appends one stage execution
func (m *PipelineManifest) RecordStage(exec StageExecution) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompletedStages = append(m.CompletedStages, exec)
	m.LastUpdated = time.Now()
}

// SetStatus updates the overall status
func (m *PipelineManifest) SetStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Status = status
	m.LastUpdated = time.Now()
}

// GetData returns the info for a dataset, if recorded
func (m *PipelineManifest) GetData(dataType string) (*DataInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.AvailableData[dataType]
	return info, ok
}

// Save writes the manifest as JSON under the given directory
func (m *PipelineManifest) Save(dir string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a previously saved manifest
func LoadManifest(dir string) (*PipelineManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m := &PipelineManifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.AvailableData == nil {
		m.AvailableData = make(map[string]*DataInfo)
	}
	return m, nil
}
