// Package thread holds the in-memory thread graph: the append-only record of
// previously sent messages that replies and forwards originate from.
//
// The graph is appended to only by the campaign control goroutine after a
// batch completes, so it needs no locking. The in-memory view is
// authoritative during a run; persistence is a periodic checkpoint through
// the store.
package thread

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/nhle/mailseed/internal/model"
	"github.com/nhle/mailseed/internal/store"
)

// Graph is the append-only thread graph for one campaign run.
type Graph struct {
	store   store.Store
	records []model.ThreadRecord

	// pending counts records appended since the last checkpoint flush.
	pending int
}

// Load rebuilds the graph from the store's persisted records.
func Load(ctx context.Context, s store.Store) (*Graph, error) {
	records, err := s.LoadThreadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading thread graph: %w", err)
	}
	return &Graph{store: s, records: records}, nil
}

// Append adds records for a batch's successful sends. Records are visible to
// sampling immediately; they reach the store on the next Flush.
func (g *Graph) Append(records ...model.ThreadRecord) {
	g.records = append(g.records, records...)
	g.pending += len(records)
}

// Flush persists records appended since the last flush. A flush after every
// batch keeps the durable graph at the same granularity as the campaign
// state.
func (g *Graph) Flush(ctx context.Context) error {
	if g.pending == 0 {
		return nil
	}
	unflushed := g.records[len(g.records)-g.pending:]
	if err := g.store.AppendThreadRecords(ctx, unflushed); err != nil {
		return fmt.Errorf("flushing thread graph: %w", err)
	}
	g.pending = 0
	return nil
}

// Sample returns one record drawn uniformly at random. Returns false when
// the graph is empty.
func (g *Graph) Sample(rng *rand.Rand) (model.ThreadRecord, bool) {
	if len(g.records) == 0 {
		return model.ThreadRecord{}, false
	}
	return g.records[rng.Intn(len(g.records))], true
}

// Len returns the number of records in the graph.
func (g *Graph) Len() int {
	return len(g.records)
}
