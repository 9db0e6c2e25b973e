package store

import (
	"context"
	"fmt"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter hands out the global ordering number stamped on every
// appended event. Row ids reset when a table is pruned; the sequence
// never does.
type sequenceCounter struct {
	mu  sync.Mutex
	drv dialect.Driver
}

// newSequenceCounter seeds the single counter row if it is missing.
func newSequenceCounter(ctx context.Context, drv dialect.Driver) (*sequenceCounter, error) {
	err := execQuery(ctx, drv, builder().Insert(GlobalSequenceTable.Name).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithIgnore()))
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequenceCounter{drv: drv}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	next, err := scanInt(ctx, sc.drv, builder().Update(GlobalSequenceTable.Name).
		Add("next_val", 1).
		Where(entsql.EQ("id", 1)).
		Returning("next_val"))
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return int64(next - 1), nil
}
