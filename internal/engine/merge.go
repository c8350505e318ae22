package engine

import (
	"sort"
	"time"

	"PromptKeeper/internal/model"
	"PromptKeeper/internal/snapshot"

	"github.com/google/uuid"
)

// MergeResult is everything a merge produces: the new snapshot to upload,
// the changes to apply locally, and the conflict audit trail.
type MergeResult struct {
	Merged       model.Snapshot
	LocalChanges model.ChangeSet
	Conflicts    []model.ConflictResolution
	Counts       model.Counts
}

// MergeSnapshots merges the union of record ids from both snapshots.
// Records on both sides go through Resolve; one-sided records are carried
// over (local-only) or classified as incoming changes (remote-only). The
// result is a new snapshot with a fresh syncId whose previousSyncId points
// at the local input; neither input is mutated.
func (r Resolver) MergeSnapshots(local, remote model.Snapshot) MergeResult {
	localByID := indexByID(local.Items)
	remoteByID := indexByID(remote.Items)

	ids := make([]string, 0, len(localByID)+len(remoteByID))
	for id := range localByID {
		ids = append(ids, id)
	}
	for id := range remoteByID {
		if _, dup := localByID[id]; !dup {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var (
		merged    = make([]model.DataItem, 0, len(ids))
		changes   model.ChangeSet
		conflicts []model.ConflictResolution
	)
	for _, id := range ids {
		l, haveLocal := localByID[id]
		rm, haveRemote := remoteByID[id]

		switch {
		case haveLocal && haveRemote:
			winner, conflict := r.Resolve(l, rm)
			merged = append(merged, winner)
			if conflict != nil {
				conflicts = append(conflicts, *conflict)
			}
			switch {
			case winner.Metadata.Deleted && !l.Metadata.Deleted:
				changes.Deleted = append(changes.Deleted, winner)
			case checksumOf(winner) != checksumOf(l) || winner.Metadata.Deleted != l.Metadata.Deleted:
				changes.Modified = append(changes.Modified, winner)
			}

		case haveRemote:
			merged = append(merged, rm)
			if rm.Metadata.Deleted {
				changes.Deleted = append(changes.Deleted, rm)
			} else {
				changes.Added = append(changes.Added, rm)
			}

		default:
			// Local-only records survive the merge untouched.
			merged = append(merged, l)
		}
	}

	snap := model.Snapshot{
		Timestamp:     time.Now().UTC(),
		SchemaVersion: model.SchemaVersion,
		DeviceID:      local.DeviceID,
		Items:         merged,
		Metadata: model.SnapshotMetadata{
			TotalItems:        len(merged),
			Checksum:          snapshot.DataHash(merged),
			SyncID:            uuid.NewString(),
			PreviousSyncID:    local.Metadata.SyncID,
			ConflictsResolved: conflicts,
			DeviceInfo:        local.Metadata.DeviceInfo,
		},
	}

	return MergeResult{
		Merged:       snap,
		LocalChanges: changes,
		Conflicts:    conflicts,
		Counts:       changes.Summarize(len(conflicts)),
	}
}

func indexByID(items []model.DataItem) map[string]model.DataItem {
	out := make(map[string]model.DataItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out
}
