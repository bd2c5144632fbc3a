package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhle/mailseed/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadStateEmpty(t *testing.T) {
	s := newTestStore(t)

	state, err := s.LoadState(context.Background())
	require.NoError(t, err)
	require.Nil(t, state)
}

func TestSaveAndLoadState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := model.NewCampaignState(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	state.Phase = model.PhaseReply
	state.New = model.KindCounter{Attempted: 50, Succeeded: 48}
	state.EstimatedBytes = 123456
	state.FoldersProvisioned = true

	require.NoError(t, s.SaveState(ctx, state))

	got, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, state, *got)
}

func TestSaveStateOverwritesWholeDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := model.NewCampaignState(time.Now().UTC())
	first.New = model.KindCounter{Attempted: 10, Succeeded: 10}
	require.NoError(t, s.SaveState(ctx, first))

	second := first
	second.Phase = model.PhaseForward
	second.Forward = model.KindCounter{Attempted: 4, Succeeded: 3}
	require.NoError(t, s.SaveState(ctx, second))

	got, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.Equal(t, second, *got)

	// Exactly one row regardless of how many saves happened.
	var count int
	require.NoError(t, s.db.Get(&count, "SELECT COUNT(*) FROM campaign_state"))
	require.Equal(t, 1, count)
}

func TestLoadStateIgnoresUnknownFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A document written by a newer version with extra fields must load.
	doc := `{"phase":"new","new":{"attempted":3,"succeeded":2},"estimated_bytes":99,"future_field":{"x":1}}`
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO campaign_state (id, doc, updated_at) VALUES (1, ?, ?)", doc, time.Now().UTC())
	require.NoError(t, err)

	got, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.Equal(t, model.PhaseNew, got.Phase)
	require.Equal(t, 3, got.New.Attempted)
	require.Equal(t, int64(99), got.EstimatedBytes)
}

func TestAppendAndLoadThreadRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch1 := []model.ThreadRecord{
		{MessageID: "a@test", Subject: "first", SenderAddr: "x@test", RecipientAddr: "y@test"},
		{MessageID: "b@test", Subject: "second", SenderAddr: "y@test", RecipientAddr: "z@test"},
	}
	require.NoError(t, s.AppendThreadRecords(ctx, batch1))

	batch2 := []model.ThreadRecord{
		{MessageID: "c@test", Subject: "third", SenderAddr: "z@test", RecipientAddr: "x@test"},
	}
	require.NoError(t, s.AppendThreadRecords(ctx, batch2))

	got, err := s.LoadThreadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Insertion order is preserved across batches.
	require.Equal(t, "a@test", got[0].MessageID)
	require.Equal(t, "b@test", got[1].MessageID)
	require.Equal(t, "c@test", got[2].MessageID)
}

func TestAppendThreadRecordsIgnoresDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []model.ThreadRecord{
		{MessageID: "dup@test", Subject: "s", SenderAddr: "a@test", RecipientAddr: "b@test"},
	}
	require.NoError(t, s.AppendThreadRecords(ctx, records))

	// A re-flushed checkpoint after a crash replays the same records.
	require.NoError(t, s.AppendThreadRecords(ctx, records))

	got, err := s.LoadThreadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestAppendThreadRecordsEmptyBatch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AppendThreadRecords(context.Background(), nil))
}
