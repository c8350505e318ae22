// Package engine holds the pure sync logic: the ordered decision rules, the
// per-item merge resolver and the snapshot merger. Nothing here performs I/O
// or returns errors; all inputs are in-memory values.
package engine

import (
	"fmt"
	"time"

	"PromptKeeper/internal/model"
	"PromptKeeper/internal/snapshot"
)

// Action is the outcome class of a sync decision.
type Action string

const (
	ActionUpload   Action = "upload_only"
	ActionDownload Action = "download_only"
	ActionMerge    Action = "merge"
	ActionConflict Action = "conflict_detected"
)

// Strategy says which side the decision favors.
type Strategy string

const (
	StrategyLocalWins  Strategy = "local_wins"
	StrategyRemoteWins Strategy = "remote_wins"
	StrategyMergeBoth  Strategy = "merge"
	StrategyNone       Strategy = "none"   // content identical, timestamp refresh only
	StrategyManual     Strategy = "manual" // needs user intervention
)

// Decision is the engine's verdict. Reason is human-readable, consumed for
// logging and audit only, never for control flow.
type Decision struct {
	Action   Action   `json:"action"`
	Strategy Strategy `json:"strategy"`
	Reason   string   `json:"reason"`
}

const (
	// recordCountGap: remote must lead by more than this many records
	// before count alone forces a download.
	recordCountGap = 5

	// syncCountGap: sync-history depth difference that breaks a tie.
	syncCountGap = 5

	// largeTimeGap: beyond this the newer snapshot is assumed authoritative.
	largeTimeGap = 5 * time.Minute

	// mergeWindow: within this the two edits are treated as concurrent.
	mergeWindow = time.Minute
)

// Decide applies the ordered rule set; the first matching rule wins.
// remote and remoteMeta are nil when the remote side has never been written.
func Decide(local model.Snapshot, localMeta model.SyncMetadata, localHash string, remote *model.Snapshot, remoteMeta *model.SyncMetadata) Decision {
	// Rule 1: nothing on the remote yet.
	if remote == nil || remoteMeta == nil {
		return Decision{ActionUpload, StrategyLocalWins, "first sync: remote snapshot or metadata absent"}
	}

	// Rule 2: empty-local bootstrap.
	if len(local.Items) == 0 && len(remote.Items) >= 1 {
		return Decision{ActionDownload, StrategyRemoteWins,
			fmt.Sprintf("local dataset empty, remote has %d records", len(remote.Items))}
	}

	// Rule 3: content identical; only the timestamp needs refreshing.
	if localHash == snapshot.DataHash(remote.Items) {
		return Decision{ActionUpload, StrategyNone, "local and remote content identical (no-op)"}
	}

	// Rules 4-5: record-count drift.
	diff := localMeta.TotalRecords - remoteMeta.TotalRecords
	if diff > 0 {
		return Decision{ActionUpload, StrategyLocalWins,
			fmt.Sprintf("local gained %d records over remote", diff)}
	}
	if diff < -recordCountGap {
		return Decision{ActionDownload, StrategyRemoteWins,
			fmt.Sprintf("remote has %d more records than local", -diff)}
	}

	// Rules 6-7: same device on both sides means serialized history.
	if localMeta.DeviceID == remoteMeta.DeviceID {
		switch {
		case localMeta.SyncCount > remoteMeta.SyncCount:
			return Decision{ActionUpload, StrategyLocalWins,
				fmt.Sprintf("same device, local sync count %d ahead of remote %d", localMeta.SyncCount, remoteMeta.SyncCount)}
		case localMeta.SyncCount < remoteMeta.SyncCount:
			return Decision{ActionDownload, StrategyRemoteWins,
				fmt.Sprintf("same device, remote sync count %d ahead of local %d", remoteMeta.SyncCount, localMeta.SyncCount)}
		default:
			// Unsynced local edits always win over this device's own
			// last-pushed state.
			return Decision{ActionUpload, StrategyLocalWins,
				"same device and sync count but content differs: unsynced local change"}
		}
	}

	// Rules 8-9: different devices, compare snapshot ages.
	dt := local.Timestamp.Sub(remote.Timestamp)
	abs := dt
	if abs < 0 {
		abs = -abs
	}
	if abs > largeTimeGap {
		if dt > 0 {
			return Decision{ActionUpload, StrategyLocalWins,
				fmt.Sprintf("local snapshot newer by %s", abs.Round(time.Second))}
		}
		return Decision{ActionDownload, StrategyRemoteWins,
			fmt.Sprintf("remote snapshot newer by %s", abs.Round(time.Second))}
	}
	if abs < mergeWindow {
		return Decision{ActionMerge, StrategyMergeBoth,
			fmt.Sprintf("concurrent edits %s apart on different devices", abs.Round(time.Second))}
	}

	// Rule 10: tie-break via sync history depth.
	cd := localMeta.SyncCount - remoteMeta.SyncCount
	if cd > syncCountGap {
		return Decision{ActionUpload, StrategyLocalWins,
			fmt.Sprintf("local sync history deeper by %d", cd)}
	}
	if cd < -syncCountGap {
		return Decision{ActionDownload, StrategyRemoteWins,
			fmt.Sprintf("remote sync history deeper by %d", -cd)}
	}

	// Rule 11: cannot auto-resolve.
	return Decision{ActionConflict, StrategyManual,
		fmt.Sprintf("ambiguous state: devices %s/%s, %s apart, sync counts %d/%d",
			localMeta.DeviceID, remoteMeta.DeviceID, abs.Round(time.Second),
			localMeta.SyncCount, remoteMeta.SyncCount)}
}
