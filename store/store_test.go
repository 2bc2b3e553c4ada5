package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/canvasflow/canvasflow/engine"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Driver: "sqlite", DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleWorkflow(id string) *engine.Workflow {
	return &engine.Workflow{
		ID:   id,
		Name: "sample",
		Nodes: []engine.Node{
			{ID: "start", Type: "start"},
			{ID: "end", Type: "end"},
		},
		Edges: []engine.Edge{
			{ID: "e1", Source: "start", Target: "end"},
		},
	}
}

func TestStore_WorkflowRoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	wf := sampleWorkflow("wf-1")
	require.NoError(t, s.SaveWorkflow(ctx, wf))

	loaded, err := s.GetWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, wf.ID, loaded.ID)
	assert.Equal(t, wf.Name, loaded.Name)
	assert.Len(t, loaded.Nodes, 2)
	assert.Len(t, loaded.Edges, 1)
}

func TestStore_SaveWorkflowUpserts(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	wf := sampleWorkflow("wf-1")
	require.NoError(t, s.SaveWorkflow(ctx, wf))

	wf.Name = "renamed"
	require.NoError(t, s.SaveWorkflow(ctx, wf))

	loaded, err := s.GetWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", loaded.Name)

	records, err := s.ListWorkflows(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStore_GetWorkflowNotFound(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	_, err := s.GetWorkflow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteWorkflow(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWorkflow(ctx, sampleWorkflow("wf-1")))
	require.NoError(t, s.DeleteWorkflow(ctx, "wf-1"))

	_, err := s.GetWorkflow(ctx, "wf-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteWorkflow(ctx, "wf-1"), ErrNotFound)
}

func TestStore_SaveRunCompleted(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	res := &engine.RunResult{
		RunID:  "run-1",
		Result: map[string]any{"total": 3},
		Log: []engine.LogEntry{
			{NodeID: "start", NodeType: "start"},
			{NodeID: "end", NodeType: "end"},
		},
		Summary: engine.RunSummary{NodesExecuted: 2, Duration: 120 * time.Millisecond},
	}
	require.NoError(t, s.SaveRun(ctx, "wf-1", res, nil))

	record, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, record.Status)
	assert.Equal(t, "wf-1", record.WorkflowID)
	assert.Equal(t, 2, record.NodesExecuted)
	assert.Equal(t, int64(120), record.DurationMS)
	assert.Contains(t, record.Result, `"total":3`)
	assert.Empty(t, record.Error)
}

func TestStore_SaveRunFailed(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	res := &engine.RunResult{RunID: "run-2"}
	runErr := &engine.NodeError{NodeID: "fetch", NodeType: "http_request", Err: assert.AnError}
	require.NoError(t, s.SaveRun(ctx, "wf-1", res, runErr))

	record, err := s.GetRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, record.Status)
	assert.Contains(t, record.Error, "fetch")
}

func TestStore_ListRuns(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, s.SaveRun(ctx, "wf-1", &engine.RunResult{RunID: id}, nil))
	}
	require.NoError(t, s.SaveRun(ctx, "wf-other", &engine.RunResult{RunID: "run-4"}, nil))

	records, err := s.ListRuns(ctx, "wf-1", 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "wf-1", r.WorkflowID)
	}
}

func TestStore_GetRunNotFound(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{Driver: "oracle", DSN: "x"}, nil)
	assert.Error(t, err)
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *gorm.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{Conn: mockDB})
	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return mockDB, mock, gormDB
}

func TestStore_SaveRunSQL(t *testing.T) {
	mockDB, mock, gormDB := setupMockDB(t)
	defer mockDB.Close()

	s, err := New(gormDB, nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "workflow_runs"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res := &engine.RunResult{RunID: "run-1"}
	require.NoError(t, s.SaveRun(context.Background(), "wf-1", res, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
