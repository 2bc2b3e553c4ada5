package store

import (
	"time"
)

// Run status values.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusDenied    = "denied"
)

// WorkflowRecord is the persisted form of a workflow. Definition holds the
// full graph as a JSON document.
type WorkflowRecord struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Name       string    `gorm:"size:255;index" json:"name"`
	Definition string    `gorm:"type:text" json:"definition"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName keeps the table name stable across naming strategies.
func (WorkflowRecord) TableName() string { return "workflows" }

// RunRecord captures the outcome of one workflow run.
type RunRecord struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	WorkflowID    string    `gorm:"size:64;index" json:"workflow_id"`
	Status        string    `gorm:"size:32;index" json:"status"`
	Result        string    `gorm:"type:text" json:"result"`
	Log           string    `gorm:"type:text" json:"log"`
	Error         string    `gorm:"type:text" json:"error"`
	NodesExecuted int       `json:"nodes_executed"`
	NodesSkipped  int       `json:"nodes_skipped"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName keeps the table name stable across naming strategies.
func (RunRecord) TableName() string { return "workflow_runs" }
