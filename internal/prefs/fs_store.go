// Package prefs persists the small per-installation state the sync engine
// needs between runs: device identity and last-sync bookkeeping.
package prefs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Data is everything the store holds. Zero values mean "not set yet".
type Data struct {
	DeviceID     string    `json:"deviceId,omitempty"`
	SyncCount    int64     `json:"syncCount,omitempty"`
	LastSyncTime time.Time `json:"lastSyncTime,omitempty"`
	TotalRecords int       `json:"totalRecords,omitempty"`
	DataHash     string    `json:"dataHash,omitempty"`
}

// Store is the persisted preferences contract consumed by the device
// identity provider and the orchestrator.
type Store interface {
	Get() (Data, error)
	Set(Data) error
}

// FSStore keeps preferences in a JSON file under the user config dir.
type FSStore struct{}

var _ Store = FSStore{}

func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "PromptKeeper")
	if err := os.MkdirAll(p, 0o700); err != nil {
		return "", err
	}
	return p, nil
}

func prefsPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sync_meta.json"), nil
}

// Get reads the stored preferences. A missing file is not an error: it
// returns zero Data so first run can proceed.
func (FSStore) Get() (Data, error) {
	p, err := prefsPath()
	if err != nil {
		return Data{}, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Data{}, nil
		}
		return Data{}, err
	}
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		// A corrupt prefs file degrades to first-run state rather than
		// blocking sync; the device id will be regenerated.
		return Data{}, nil
	}
	return d, nil
}

// Set replaces the stored preferences atomically (write temp, rename).
func (FSStore) Set(d Data) error {
	p, err := prefsPath()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
