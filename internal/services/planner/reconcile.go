package planner

import (
	"context"

	"go.uber.org/zap"

	"github.com/benvon/calendar-todo/internal/models"
	"github.com/benvon/calendar-todo/internal/queue"
)

// ReconcileReport counts the repairs made to the deadline index
type ReconcileReport struct {
	OrphansRemoved      int `json:"orphans_removed"`
	DuplicatesRemoved   int `json:"duplicates_removed"`
	EmptyBucketsRemoved int `json:"empty_buckets_removed"`
}

// Changed reports whether any repair was made
func (r ReconcileReport) Changed() bool {
	return r.OrphansRemoved+r.DuplicatesRemoved+r.EmptyBucketsRemoved > 0
}

// repairIndex drops ids with no task, keeps each id only in its earliest
// bucket and drops empty buckets
func repairIndex(tasks []models.Task, index models.Deadlines) (models.Deadlines, ReconcileReport) {
	exists := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		exists[t.ID] = true
	}

	var report ReconcileReport
	seen := make(map[int64]bool)
	repaired := make(models.Deadlines, len(index))
	for _, date := range index.Dates() {
		var kept []int64
		for _, id := range index[date] {
			switch {
			case !exists[id]:
				report.OrphansRemoved++
			case seen[id]:
				report.DuplicatesRemoved++
			default:
				seen[id] = true
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			if len(index[date]) == 0 {
				report.EmptyBucketsRemoved++
			}
			continue
		}
		repaired[date] = kept
	}
	return repaired, report
}

// Reconcile repairs the deadline index against the task list and persists it when changed
func (m *Manager) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	err := m.mutate(ctx, "reconcile", func(ctx context.Context) ([]*queue.Event, error) {
		var repaired models.Deadlines
		repaired, report = repairIndex(m.tasks, m.deadlines)
		if !report.Changed() {
			return nil, nil
		}
		if err := m.commit(ctx, "reconcile", change{deadlines: repaired}); err != nil {
			return nil, err
		}

		m.logger.Info("index_reconciled",
			zap.Int("orphans_removed", report.OrphansRemoved),
			zap.Int("duplicates_removed", report.DuplicatesRemoved),
			zap.Int("empty_buckets_removed", report.EmptyBucketsRemoved),
		)
		e := queue.NewEvent(queue.EventIndexReconciled)
		e.Metadata = map[string]any{
			"orphans_removed":       report.OrphansRemoved,
			"duplicates_removed":    report.DuplicatesRemoved,
			"empty_buckets_removed": report.EmptyBucketsRemoved,
		}
		return []*queue.Event{e}, nil
	})
	return report, err
}
