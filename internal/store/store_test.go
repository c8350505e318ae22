package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"PromptKeeper/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "library.sqlite"))
	require.NoError(t, err)
	return s
}

func testItem(id string, kind model.Kind) model.DataItem {
	ts := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	return model.DataItem{
		ID:      id,
		Kind:    kind,
		Title:   "t-" + id,
		Content: map[string]any{"text": "body of " + id},
		Metadata: model.ItemMetadata{
			CreatedAt:     ts,
			UpdatedAt:     ts,
			Version:       1,
			OwnerDeviceID: "d1",
			Checksum:      "sum-" + id,
			Tags:          []string{"tag1"},
		},
	}
}

func TestApplyChangesThenExport(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	items := []model.DataItem{
		testItem("c1", model.KindCategory),
		testItem("p1", model.KindPrompt),
		testItem("p2", model.KindPrompt),
		testItem("s1", model.KindSetting),
	}
	require.NoError(t, s.ApplyChanges(ctx, items))

	ds, err := s.ExportAll()
	require.NoError(t, err)
	assert.Len(t, ds.Categories, 1)
	assert.Len(t, ds.Prompts, 2)
	assert.Len(t, ds.Settings, 1)
	assert.Len(t, ds.All(), 4)

	got := ds.Prompts[0]
	assert.Equal(t, "body of p1", got.Content["text"])
	assert.Equal(t, []string{"tag1"}, got.Metadata.Tags)
	assert.Equal(t, int64(1), got.Metadata.Version)
	assert.True(t, got.Metadata.UpdatedAt.Equal(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)))
}

func TestApplyChanges_IdempotentUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	it := testItem("p1", model.KindPrompt)
	require.NoError(t, s.ApplyChanges(ctx, []model.DataItem{it}))
	require.NoError(t, s.ApplyChanges(ctx, []model.DataItem{it}))

	ds, err := s.ExportAll()
	require.NoError(t, err)
	assert.Len(t, ds.All(), 1)

	// Upsert with new content replaces, still one row.
	it.Content = map[string]any{"text": "edited"}
	it.Metadata.Version = 2
	require.NoError(t, s.ApplyChanges(ctx, []model.DataItem{it}))

	ds, err = s.ExportAll()
	require.NoError(t, err)
	require.Len(t, ds.Prompts, 1)
	assert.Equal(t, "edited", ds.Prompts[0].Content["text"])
	assert.Equal(t, int64(2), ds.Prompts[0].Metadata.Version)
}

func TestApplyChanges_TombstoneRetained(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	it := testItem("p1", model.KindPrompt)
	require.NoError(t, s.ApplyChanges(ctx, []model.DataItem{it}))

	it.Metadata.Deleted = true
	it.Metadata.Version = 2
	require.NoError(t, s.ApplyChanges(ctx, []model.DataItem{it}))

	ds, err := s.ExportAll()
	require.NoError(t, err)
	require.Len(t, ds.Prompts, 1, "tombstone must stay exported")
	assert.True(t, ds.Prompts[0].Metadata.Deleted)
}

func TestApplyChanges_EmptyIsNoop(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.ApplyChanges(context.Background(), nil))

	ds, err := s.ExportAll()
	require.NoError(t, err)
	assert.Empty(t, ds.All())
}
