package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/canvasflow/canvasflow/engine"
)

// ErrNotFound reports a missing workflow or run.
var ErrNotFound = errors.New("not found")

// Store persists workflows and runs on a gorm connection.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New wraps an open gorm connection. Open is the usual entrypoint; New
// exists for callers that manage their own connection.
func New(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:     db,
		logger: logger.With(zap.String("component", "store")),
	}, nil
}

// Migrate creates or updates the backing tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&WorkflowRecord{}, &RunRecord{}); err != nil {
		return fmt.Errorf("migrate store tables: %w", err)
	}
	return nil
}

// DB exposes the underlying connection for collaborators such as the
// database executor.
func (s *Store) DB() *gorm.DB { return s.db }

// SaveWorkflow upserts a workflow definition.
func (s *Store) SaveWorkflow(ctx context.Context, wf *engine.Workflow) error {
	if wf == nil || wf.ID == "" {
		return fmt.Errorf("workflow must have an id")
	}
	definition, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("encode workflow %s: %w", wf.ID, err)
	}

	record := WorkflowRecord{
		ID:         wf.ID,
		Name:       wf.Name,
		Definition: string(definition),
	}
	err = s.db.WithContext(ctx).Save(&record).Error
	if err != nil {
		return fmt.Errorf("save workflow %s: %w", wf.ID, err)
	}

	s.logger.Debug("workflow saved", zap.String("workflow_id", wf.ID))
	return nil
}

// GetWorkflow loads a workflow definition by ID.
func (s *Store) GetWorkflow(ctx context.Context, id string) (*engine.Workflow, error) {
	var record WorkflowRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load workflow %s: %w", id, err)
	}

	var wf engine.Workflow
	if err := json.Unmarshal([]byte(record.Definition), &wf); err != nil {
		return nil, fmt.Errorf("decode workflow %s: %w", id, err)
	}
	return &wf, nil
}

// DeleteWorkflow removes a workflow definition. Past runs are kept.
func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&WorkflowRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete workflow %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListWorkflows returns all stored workflows, newest first.
func (s *Store) ListWorkflows(ctx context.Context) ([]WorkflowRecord, error) {
	var records []WorkflowRecord
	err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return records, nil
}

// SaveRun records the outcome of a finished run.
func (s *Store) SaveRun(ctx context.Context, workflowID string, res *engine.RunResult, runErr error) error {
	if res == nil {
		return fmt.Errorf("run result cannot be nil")
	}

	record := RunRecord{
		ID:            res.RunID,
		WorkflowID:    workflowID,
		Status:        RunStatusCompleted,
		NodesExecuted: res.Summary.NodesExecuted,
		NodesSkipped:  res.Summary.NodesSkipped,
		DurationMS:    res.Summary.Duration.Milliseconds(),
		CreatedAt:     time.Now().UTC(),
	}
	if runErr != nil {
		record.Status = RunStatusFailed
		record.Error = runErr.Error()
		if runErr.Error() == engine.ErrConfirmDenied {
			record.Status = RunStatusDenied
		}
	}
	if res.Result != nil {
		encoded, err := json.Marshal(res.Result)
		if err != nil {
			return fmt.Errorf("encode run result %s: %w", res.RunID, err)
		}
		record.Result = string(encoded)
	}
	if len(res.Log) > 0 {
		encoded, err := json.Marshal(res.Log)
		if err != nil {
			return fmt.Errorf("encode run log %s: %w", res.RunID, err)
		}
		record.Log = string(encoded)
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("save run %s: %w", res.RunID, err)
	}

	s.logger.Debug("run saved",
		zap.String("run_id", res.RunID),
		zap.String("workflow_id", workflowID),
		zap.String("status", record.Status),
	)
	return nil
}

// GetRun loads one run record by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	var record RunRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return &record, nil
}

// ListRuns returns recent runs for a workflow, newest first.
func (s *Store) ListRuns(ctx context.Context, workflowID string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []RunRecord
	err := s.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", workflowID, err)
	}
	return records, nil
}
