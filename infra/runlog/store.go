// Package runlog keeps a history of evaluation runs so validation scores can
// be compared across model revisions.
package runlog

import (
	"context"
	"sort"
	"time"
)

// Record captures one evaluation run.
type Record struct {
	ID        string        `json:"id"`
	Mode      string        `json:"mode"`
	Model     string        `json:"model"`
	Input     string        `json:"input"`
	Samples   int           `json:"samples"`
	Batches   int           `json:"batches"`
	MAE       *float64      `json:"mae,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Query filters records. Zero values match everything; Limit <= 0 is unlimited.
type Query struct {
	Mode  string
	Since time.Time
	Limit int
}

func (q Query) match(r Record) bool {
	if q.Mode != "" && r.Mode != q.Mode {
		return false
	}
	if !q.Since.IsZero() && r.StartedAt.Before(q.Since) {
		return false
	}
	return true
}

// newestFirst orders records by start time, latest first, and applies the limit.
func newestFirst(res []Record, limit int) []Record {
	sort.SliceStable(res, func(i, j int) bool { return res[i].StartedAt.After(res[j].StartedAt) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
