package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"PromptKeeper/internal/canonical"
	"PromptKeeper/internal/model"
)

// Resolver merges two versions of the same record deterministically.
// DeviceID stamps lastModifiedByDeviceId on records the resolver rewrites.
type Resolver struct {
	DeviceID string

	// now is swappable in tests; zero value falls back to time.Now.
	now func() time.Time
}

func NewResolver(deviceID string) Resolver {
	return Resolver{DeviceID: deviceID}
}

func (r Resolver) timestamp() time.Time {
	if r.now != nil {
		return r.now().UTC()
	}
	return time.Now().UTC()
}

// Resolve applies the deletion/timestamp/content decision matrix to a record
// present on both sides and returns the winner plus an optional audit
// record. Calling it twice with the same inputs returns the same outcome.
func (r Resolver) Resolve(local, remote model.DataItem) (model.DataItem, *model.ConflictResolution) {
	lsum := checksumOf(local)
	rsum := checksumOf(remote)

	// Identical content and identical tombstone state: keep local as-is.
	// The tombstone guard matters: a deletion does not change the content
	// checksum, and skipping it here would let each replica keep its own
	// flag and never converge.
	if lsum == rsum && local.Metadata.Deleted == remote.Metadata.Deleted {
		return local, nil
	}

	lDel, rDel := local.Metadata.Deleted, remote.Metadata.Deleted
	switch {
	case lDel && rDel:
		// Both tombstoned: the later delete time wins.
		if remote.Metadata.UpdatedAt.After(local.Metadata.UpdatedAt) {
			return remote, nil
		}
		return local, nil

	case lDel && !rDel:
		if remote.Metadata.UpdatedAt.After(local.Metadata.UpdatedAt) {
			// Remote edited after the local delete: resurrect.
			winner := r.rewrite(remote, local, remote.Content)
			return winner, r.conflict(local.ID, model.StrategyRemoteWins,
				"remote edit is newer than local deletion: record resurrected")
		}
		return local, r.conflict(local.ID, model.StrategyLocalWins,
			"local deletion is newer than remote edit: deletion stands")

	case !lDel && rDel:
		if local.Metadata.UpdatedAt.After(remote.Metadata.UpdatedAt) {
			winner := r.rewrite(local, remote, local.Content)
			return winner, r.conflict(local.ID, model.StrategyLocalWins,
				"local edit is newer than remote deletion: record resurrected")
		}
		return remote, r.conflict(local.ID, model.StrategyRemoteWins,
			"remote deletion is newer than local edit: deletion stands")
	}

	// Both live. Equal timestamps with differing content tie-break to local.
	if local.Metadata.UpdatedAt.Equal(remote.Metadata.UpdatedAt) {
		return local, r.conflict(local.ID, model.StrategyLocalWins,
			"identical update time with differing content: local wins by default")
	}

	base, other := local, remote
	if remote.Metadata.UpdatedAt.After(local.Metadata.UpdatedAt) {
		base, other = remote, local
	}

	merged := mergeContent(base.Kind, base.Content, other.Content)
	if canonical.Checksum(merged) == canonical.Checksum(base.Content) {
		// The older side added nothing: newer side wins outright.
		return base, nil
	}

	winner := r.rewrite(base, other, merged)
	winner.Metadata.Tags = unionStrings(base.Metadata.Tags, other.Metadata.Tags)
	return winner, r.conflict(local.ID, model.StrategyMerge,
		fmt.Sprintf("both sides changed %q: field-level merge applied", local.ID))
}

// rewrite produces the winning record with bumped version lineage, a fresh
// checksum and this device stamped as the last modifier.
func (r Resolver) rewrite(base, other model.DataItem, content map[string]any) model.DataItem {
	out := base
	out.Content = content
	out.Metadata.Version = maxInt64(base.Metadata.Version, other.Metadata.Version) + 1
	out.Metadata.LastModifiedByDeviceID = r.DeviceID
	out.Metadata.Checksum = canonical.Checksum(content)
	out.Metadata.Deleted = false
	return out
}

func (r Resolver) conflict(itemID string, s model.Strategy, reason string) *model.ConflictResolution {
	return &model.ConflictResolution{
		ItemID:    itemID,
		Strategy:  s,
		Timestamp: r.timestamp(),
		Reason:    reason,
	}
}

// mergeContent merges the older side's content into the base by kind.
// History entries are immutable events, so the newer side wins whole; all
// other kinds get the generic field-level merge.
func mergeContent(kind model.Kind, base, other map[string]any) map[string]any {
	if kind == model.KindHistory {
		return base
	}
	return mergeObjects(base, other)
}

// mergeObjects walks the union of keys. Arrays are unioned with
// de-duplication (never drop information), diverging strings keep the longer
// value, scalars prefer the non-empty side, ties break toward the base.
func mergeObjects(base, other map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, ov := range other {
		bv, ok := out[k]
		if !ok {
			out[k] = ov
			continue
		}
		out[k] = mergeValue(bv, ov)
	}
	return out
}

func mergeValue(base, other any) any {
	switch b := base.(type) {
	case []any:
		if o, ok := other.([]any); ok {
			return unionArrays(b, o)
		}
	case map[string]any:
		if o, ok := other.(map[string]any); ok {
			return mergeObjects(b, o)
		}
	case string:
		if o, ok := other.(string); ok {
			if len(o) > len(b) {
				return o
			}
			return b
		}
	}
	if isEmptyValue(base) && !isEmptyValue(other) {
		return other
	}
	return base
}

// unionArrays keeps base order and appends elements of other not already
// present, comparing by canonical serialized form.
func unionArrays(base, other []any) []any {
	seen := make(map[string]struct{}, len(base))
	out := make([]any, 0, len(base)+len(other))
	for _, v := range base {
		seen[serialize(v)] = struct{}{}
		out = append(out, v)
	}
	for _, v := range other {
		key := serialize(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func unionStrings(base, other []string) []string {
	if len(base) == 0 && len(other) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(base))
	out := make([]string, 0, len(base)+len(other))
	for _, s := range base {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range other {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func serialize(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case bool:
		return !t
	}
	return false
}

// checksumOf trusts a precomputed checksum and only recomputes when the
// snapshot builder did not run (e.g. hand-built test fixtures).
func checksumOf(it model.DataItem) string {
	if it.Metadata.Checksum != "" {
		return it.Metadata.Checksum
	}
	return canonical.Checksum(it.Content)
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
