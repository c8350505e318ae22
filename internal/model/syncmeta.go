package model

import "time"

// SyncMetadata is the per-device bookkeeping persisted next to the remote
// snapshot and mirrored locally. Created on first run; mutated only by the
// orchestrator after a successful action; never deleted.
type SyncMetadata struct {
	LastSyncTime time.Time `json:"lastSyncTime"`
	SyncCount    int64     `json:"syncCount"`
	DeviceID     string    `json:"deviceId"`
	TotalRecords int       `json:"totalRecords"`
	DataHash     string    `json:"dataHash"`
}
