package store

import (
	"context"

	"github.com/nhle/mailseed/internal/model"
)

// Store defines the persistence interface for campaign state and the thread
// graph. Both are written only by the single campaign control goroutine.
type Store interface {
	// SaveState overwrites the whole campaign state document atomically.
	SaveState(ctx context.Context, state model.CampaignState) error

	// LoadState returns the persisted campaign state, or nil when no
	// campaign has been persisted yet.
	LoadState(ctx context.Context) (*model.CampaignState, error)

	// AppendThreadRecords appends a batch of thread records. Records
	// already present (same message id) are ignored, so replaying a
	// checkpoint flush after a crash is harmless.
	AppendThreadRecords(ctx context.Context, records []model.ThreadRecord) error

	// LoadThreadRecords returns all persisted thread records in insertion
	// order.
	LoadThreadRecords(ctx context.Context) ([]model.ThreadRecord, error)
}
