package metrics

import "context"

// Collector reports how many books each category holds.
// Every storage adapter implements it.
type Collector interface {
	CountByCategory(ctx context.Context) (map[string]int64, error)
}

// CollectorFunc adapts a plain function to Collector
type CollectorFunc func(ctx context.Context) (map[string]int64, error)

func (f CollectorFunc) CountByCategory(ctx context.Context) (map[string]int64, error) {
	return f(ctx)
}
