package model

import "time"

// SchemaVersion is bumped when the snapshot wire format changes shape.
// Readers must ignore unknown fields rather than reject them.
const SchemaVersion = 1

// Snapshot is a complete, timestamped view of the dataset as exchanged
// between replicas. Snapshots are immutable values once built; a merge
// produces a new snapshot rather than mutating either input.
type Snapshot struct {
	Timestamp     time.Time        `json:"timestamp"`
	SchemaVersion int              `json:"schemaVersion"`
	DeviceID      string           `json:"deviceId"`
	Items         []DataItem       `json:"items"`
	Metadata      SnapshotMetadata `json:"metadata"`
}

// SnapshotMetadata describes the snapshot itself.
type SnapshotMetadata struct {
	TotalItems        int                  `json:"totalItems"`
	Checksum          string               `json:"checksum"`
	SyncID            string               `json:"syncId"`
	PreviousSyncID    string               `json:"previousSyncId,omitempty"`
	ConflictsResolved []ConflictResolution `json:"conflictsResolved,omitempty"`
	DeviceInfo        DeviceInfo           `json:"deviceInfo"`
}

// DeviceInfo identifies the replica that produced a snapshot.
type DeviceInfo struct {
	DeviceID  string `json:"deviceId"`
	SyncCount int64  `json:"syncCount"`
	Platform  string `json:"platform,omitempty"`
	AppVer    string `json:"appVersion,omitempty"`
}

// Strategy names how a per-item conflict was resolved.
type Strategy string

const (
	StrategyLocalWins       Strategy = "local_wins"
	StrategyRemoteWins      Strategy = "remote_wins"
	StrategyMerge           Strategy = "merge"
	StrategyCreateDuplicate Strategy = "create_duplicate"
)

// ConflictResolution is an append-only audit record attached to the
// snapshot that resolved the conflict.
type ConflictResolution struct {
	ItemID    string    `json:"itemId"`
	Strategy  Strategy  `json:"strategy"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`
}

// ChangeSet lists the local mutations a merge or download requires.
// Deleted entries are tombstoned items, not physical removals.
type ChangeSet struct {
	Added    []DataItem
	Modified []DataItem
	Deleted  []DataItem
}

// Counts summarizes a change set for result reporting.
type Counts struct {
	Added     int `json:"added"`
	Modified  int `json:"modified"`
	Deleted   int `json:"deleted"`
	Conflicts int `json:"conflicts"`
}

// Summarize returns the counts of a change set plus a conflict total.
func (c ChangeSet) Summarize(conflicts int) Counts {
	return Counts{
		Added:     len(c.Added),
		Modified:  len(c.Modified),
		Deleted:   len(c.Deleted),
		Conflicts: conflicts,
	}
}

// All returns every item in the change set, added first.
func (c ChangeSet) All() []DataItem {
	out := make([]DataItem, 0, len(c.Added)+len(c.Modified)+len(c.Deleted))
	out = append(out, c.Added...)
	out = append(out, c.Modified...)
	out = append(out, c.Deleted...)
	return out
}

// Empty reports whether the change set requires no local writes.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}
