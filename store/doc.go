// Package store persists workflow definitions and run outcomes behind a
// small gorm-backed API. Workflows are stored as JSON documents so the
// graph model can evolve without schema migrations; runs keep the final
// result, execution log and summary counters for later inspection.
package store
