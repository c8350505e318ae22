// Package snapshot assembles immutable dataset snapshots for exchange
// between replicas.
package snapshot

import (
	"runtime"
	"time"

	"PromptKeeper/internal/canonical"
	"PromptKeeper/internal/model"

	"github.com/google/uuid"
)

// DataHash computes the dataset-level content hash used for change
// detection: item identity, payload and tombstone flag, with volatile
// timestamp fields stripped by canonicalization. Item order is irrelevant.
func DataHash(items []model.DataItem) string {
	view := make([]any, 0, len(items))
	for _, it := range items {
		view = append(view, map[string]any{
			"id":      it.ID,
			"kind":    string(it.Kind),
			"title":   it.Title,
			"content": it.Content,
			"deleted": it.Metadata.Deleted,
		})
	}
	return canonical.Hash(map[string]any{"items": view})
}

// Build assembles a snapshot from the exported dataset. Per-item checksums
// are recomputed so every snapshot carries checksums consistent with its
// own content, whatever the exporter supplied.
func Build(ds model.Dataset, device model.DeviceInfo) model.Snapshot {
	items := ds.All()
	for i := range items {
		items[i].Metadata.Checksum = canonical.Checksum(items[i].Content)
	}
	di := device
	if di.Platform == "" {
		di.Platform = runtime.GOOS
	}
	return model.Snapshot{
		Timestamp:     time.Now().UTC(),
		SchemaVersion: model.SchemaVersion,
		DeviceID:      device.DeviceID,
		Items:         items,
		Metadata: model.SnapshotMetadata{
			TotalItems: len(items),
			Checksum:   DataHash(items),
			SyncID:     uuid.NewString(),
			DeviceInfo: di,
		},
	}
}
