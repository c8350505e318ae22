package model

import "time"

// Kind is the closed set of record categories. The kind decides which
// content-merge rule applies when both replicas edited the same record.
type Kind string

const (
	KindCategory Kind = "category"
	KindPrompt   Kind = "prompt"
	KindAIConfig Kind = "ai-config"
	KindSetting  Kind = "setting"
	KindHistory  Kind = "history-entry"
)

// DataItem is a single synchronizable record. The ID is a UUID, stable
// across devices and never reused; it is the join key for the merge.
type DataItem struct {
	ID       string         `json:"id"`
	Kind     Kind           `json:"kind"`
	Title    string         `json:"title,omitempty"`
	Content  map[string]any `json:"content"`
	Metadata ItemMetadata   `json:"metadata"`
}

// ItemMetadata carries provenance and conflict-resolution inputs.
// UpdatedAt is the authority for "who is newer". A record with Deleted=true
// is a tombstone: it stays in the dataset so delete-vs-recreate races can be
// resolved by timestamp.
type ItemMetadata struct {
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
	Version                int64     `json:"version"`
	OwnerDeviceID          string    `json:"ownerDeviceId"`
	LastModifiedByDeviceID string    `json:"lastModifiedByDeviceId"`
	Checksum               string    `json:"checksum"`
	Deleted                bool      `json:"deleted"`
	Tags                   []string  `json:"tags,omitempty"`
}

// Dataset groups items by kind, exactly as the local exporter hands them over.
type Dataset struct {
	Categories []DataItem `json:"categories"`
	Prompts    []DataItem `json:"prompts"`
	AIConfigs  []DataItem `json:"aiConfigs"`
	Settings   []DataItem `json:"settings"`
	History    []DataItem `json:"history"`
}

// All flattens the dataset into a single slice, kinds in declaration order.
func (d Dataset) All() []DataItem {
	out := make([]DataItem, 0, len(d.Categories)+len(d.Prompts)+len(d.AIConfigs)+len(d.Settings)+len(d.History))
	out = append(out, d.Categories...)
	out = append(out, d.Prompts...)
	out = append(out, d.AIConfigs...)
	out = append(out, d.Settings...)
	out = append(out, d.History...)
	return out
}

// GroupByKind rebuilds a Dataset from a flat item slice.
func GroupByKind(items []DataItem) Dataset {
	var d Dataset
	for _, it := range items {
		switch it.Kind {
		case KindCategory:
			d.Categories = append(d.Categories, it)
		case KindPrompt:
			d.Prompts = append(d.Prompts, it)
		case KindAIConfig:
			d.AIConfigs = append(d.AIConfigs, it)
		case KindSetting:
			d.Settings = append(d.Settings, it)
		default:
			d.History = append(d.History, it)
		}
	}
	return d
}
