package engine

import (
	"testing"
	"time"

	"PromptKeeper/internal/model"
	"PromptKeeper/internal/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSnapshots_UnionNeverLosesIdentifiers(t *testing.T) {
	r := NewResolver("d1")
	local := snapOf("d1", t0,
		liveItem("a", model.KindPrompt, map[string]any{"text": "a"}, t0, 1),
		liveItem("b", model.KindPrompt, map[string]any{"text": "b"}, t0, 1),
	)
	remote := snapOf("d2", t0,
		liveItem("b", model.KindPrompt, map[string]any{"text": "b"}, t0, 1),
		liveItem("c", model.KindPrompt, map[string]any{"text": "c"}, t0, 1),
		liveItem("d", model.KindPrompt, map[string]any{"text": "d"}, t0, 1),
	)

	res := r.MergeSnapshots(local, remote)

	ids := make([]string, 0, len(res.Merged.Items))
	for _, it := range res.Merged.Items {
		ids = append(ids, it.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, ids)
	assert.GreaterOrEqual(t, len(res.Merged.Items), len(remote.Items))
}

func TestMergeSnapshots_ClassifiesChanges(t *testing.T) {
	r := NewResolver("d1")
	local := snapOf("d1", t0,
		liveItem("same", model.KindPrompt, map[string]any{"text": "same"}, t0, 1),
		liveItem("edited", model.KindPrompt, map[string]any{"text": "old"}, t0, 1),
		liveItem("localonly", model.KindPrompt, map[string]any{"text": "mine"}, t0, 1),
	)
	remote := snapOf("d2", t0,
		liveItem("same", model.KindPrompt, map[string]any{"text": "same"}, t0, 1),
		liveItem("edited", model.KindPrompt, map[string]any{"text": "newer remote text"}, t0.Add(time.Minute), 2),
		liveItem("remoteonly", model.KindPrompt, map[string]any{"text": "theirs"}, t0, 1),
		deletedItem("remotetomb", map[string]any{"text": "gone"}, t0, 2),
	)

	res := r.MergeSnapshots(local, remote)

	require.Len(t, res.LocalChanges.Added, 1)
	assert.Equal(t, "remoteonly", res.LocalChanges.Added[0].ID)
	require.Len(t, res.LocalChanges.Modified, 1)
	assert.Equal(t, "edited", res.LocalChanges.Modified[0].ID)
	require.Len(t, res.LocalChanges.Deleted, 1)
	assert.Equal(t, "remotetomb", res.LocalChanges.Deleted[0].ID)

	assert.Equal(t, res.Counts, res.LocalChanges.Summarize(len(res.Conflicts)))
	// "localonly" is carried over, not reported as a local change.
	for _, it := range res.LocalChanges.All() {
		assert.NotEqual(t, "localonly", it.ID)
	}
}

func TestMergeSnapshots_SyncIDLineage(t *testing.T) {
	r := NewResolver("d1")
	local := snapOf("d1", t0, liveItem("a", model.KindPrompt, map[string]any{"text": "a"}, t0, 1))
	remote := snapOf("d2", t0)

	res := r.MergeSnapshots(local, remote)
	assert.NotEmpty(t, res.Merged.Metadata.SyncID)
	assert.NotEqual(t, local.Metadata.SyncID, res.Merged.Metadata.SyncID)
	assert.Equal(t, local.Metadata.SyncID, res.Merged.Metadata.PreviousSyncID)
	assert.Equal(t, local.DeviceID, res.Merged.DeviceID)
}

func TestMergeSnapshots_ConflictsAttachedToSnapshot(t *testing.T) {
	r := NewResolver("d1")
	local := snapOf("d1", t0,
		liveItem("p1", model.KindPrompt, map[string]any{"text": "local", "tags": []any{"a"}}, t0.Add(time.Minute), 1))
	remote := snapOf("d2", t0,
		liveItem("p1", model.KindPrompt, map[string]any{"text": "remote longer", "tags": []any{"b"}}, t0, 1))

	res := r.MergeSnapshots(local, remote)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "p1", res.Conflicts[0].ItemID)
	assert.Equal(t, res.Conflicts, res.Merged.Metadata.ConflictsResolved)
	assert.Equal(t, 1, res.Counts.Conflicts)
}

func TestMergeSnapshots_MetadataConsistent(t *testing.T) {
	r := NewResolver("d1")
	local := snapOf("d1", t0,
		liveItem("a", model.KindPrompt, map[string]any{"text": "a"}, t0, 1))
	remote := snapOf("d2", t0,
		liveItem("b", model.KindPrompt, map[string]any{"text": "b"}, t0, 1))

	res := r.MergeSnapshots(local, remote)
	assert.Equal(t, len(res.Merged.Items), res.Merged.Metadata.TotalItems)
	assert.Equal(t, snapshot.DataHash(res.Merged.Items), res.Merged.Metadata.Checksum)
	assert.Equal(t, model.SchemaVersion, res.Merged.SchemaVersion)
}

func TestMergeSnapshots_InputsNotMutated(t *testing.T) {
	r := NewResolver("d1")
	localItem := liveItem("p1", model.KindPrompt, map[string]any{"text": "local", "tags": []any{"a"}}, t0.Add(time.Minute), 1)
	remoteItem := liveItem("p1", model.KindPrompt, map[string]any{"text": "remote longer", "tags": []any{"b"}}, t0, 1)
	local := snapOf("d1", t0, localItem)
	remote := snapOf("d2", t0, remoteItem)

	_ = r.MergeSnapshots(local, remote)

	assert.Equal(t, "local", local.Items[0].Content["text"])
	assert.Equal(t, int64(1), local.Items[0].Metadata.Version)
	assert.Equal(t, "remote longer", remote.Items[0].Content["text"])
}
