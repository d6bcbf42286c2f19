// Package query runs the SQL an element declares against the dataset before
// the element is processed. The dataset is always the sole table and is
// referenced positionally as "FROM ?".
package query

import (
	"context"

	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
)

// Executor runs query over rows and returns the resulting rows.
type Executor interface {
	Execute(ctx context.Context, query string, rows []dataset.Row) ([]dataset.Row, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, query string, rows []dataset.Row) ([]dataset.Row, error)

func (f ExecutorFunc) Execute(ctx context.Context, query string, rows []dataset.Row) ([]dataset.Row, error) {
	return f(ctx, query, rows)
}
