// Package syncer is the orchestrator: it owns the full sync run from
// export through decision to execution and bookkeeping. All I/O lives
// here; the rule logic itself stays in the engine package.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"PromptKeeper/internal/device"
	"PromptKeeper/internal/engine"
	"PromptKeeper/internal/journal"
	"PromptKeeper/internal/model"
	"PromptKeeper/internal/prefs"
	"PromptKeeper/internal/remote"
	"PromptKeeper/internal/snapshot"
	"PromptKeeper/internal/store"

	"go.uber.org/zap"
)

// Well-known remote layout. Every client reads and writes the same two
// objects inside the app folder.
const (
	syncFolder       = "PromptKeeper"
	snapshotObject   = syncFolder + "/snapshot.json"
	metadataObject   = syncFolder + "/snapshot-metadata.json"
	defaultCallLimit = 30 * time.Second
)

// Service runs sync cycles. A single instance guards a single local
// dataset; concurrent SyncNow calls beyond the first are rejected with
// ErrSyncInProgress, never queued.
type Service struct {
	backend string
	data    store.DataStore
	objects remote.ObjectStore
	prefs   prefs.Store
	device  *device.Provider
	journal *journal.Journal
	log     *zap.SugaredLogger

	callLimit time.Duration
	now       func() time.Time

	state atomic.Int32
}

// New wires a sync service. journal may be nil (audit trail disabled).
// backend is a label for logs and the journal, for example "webdav".
func New(backend string, data store.DataStore, objects remote.ObjectStore, pf prefs.Store, dev *device.Provider, jr *journal.Journal, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		backend:   backend,
		data:      data,
		objects:   objects,
		prefs:     pf,
		device:    dev,
		journal:   jr,
		log:       log,
		callLimit: defaultCallLimit,
		now:       time.Now,
	}
}

// State reports the current phase of the service.
func (s *Service) State() State {
	return State(s.state.Load())
}

// SyncNow performs one full sync cycle. If a cycle is already running the
// call returns ErrSyncInProgress immediately.
func (s *Service) SyncNow(ctx context.Context) (Result, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateFetching)) &&
		!s.state.CompareAndSwap(int32(StateFailed), int32(StateFetching)) {
		return Result{Success: false, Message: "sync already in progress"}, ErrSyncInProgress
	}

	started := s.now().UTC()
	res, err := s.run(ctx)
	if err != nil {
		s.state.Store(int32(StateFailed))
		res.Success = false
		res.Errors = append(res.Errors, err.Error())
		s.log.Errorw("sync failed", "backend", s.backend, "action", res.Action, "err", err)
	} else {
		res.Success = true
		s.state.Store(int32(StateIdle))
		s.log.Infow("sync finished", "backend", s.backend, "action", res.Action,
			"strategy", res.Strategy, "added", res.Counts.Added,
			"modified", res.Counts.Modified, "deleted", res.Counts.Deleted,
			"conflicts", res.Counts.Conflicts)
	}
	s.record(started, res)
	return res, err
}

// RunTimer syncs every interval until ctx is cancelled. Overlapping runs
// are skipped via the same single-flight guard as SyncNow; failures are
// logged and the timer keeps going.
func (s *Service) RunTimer(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.SyncNow(ctx); err != nil {
				if errors.Is(err, ErrSyncInProgress) {
					continue
				}
				s.log.Warnw("scheduled sync failed", "err", err)
			}
		}
	}
}

func (s *Service) run(ctx context.Context) (Result, error) {
	// Local side first: export, snapshot, dataset hash.
	ds, err := s.data.ExportAll()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrLocalExport, err)
	}
	deviceID := s.device.DeviceID()
	nextCount := s.device.NextSyncCount()
	local := snapshot.Build(ds, model.DeviceInfo{DeviceID: deviceID, SyncCount: nextCount})
	localHash := local.Metadata.Checksum

	persisted, err := s.prefs.Get()
	if err != nil {
		// Missing bookkeeping degrades to first-sync behaviour.
		persisted = prefs.Data{}
	}
	localMeta := model.SyncMetadata{
		LastSyncTime: persisted.LastSyncTime,
		SyncCount:    persisted.SyncCount,
		DeviceID:     deviceID,
		TotalRecords: len(local.Items),
		DataHash:     localHash,
	}

	remoteSnap, remoteMeta, err := s.fetchRemote(ctx)
	if err != nil {
		return Result{}, err
	}

	s.state.Store(int32(StateDeciding))
	d := engine.Decide(local, localMeta, localHash, remoteSnap, remoteMeta)
	s.log.Infow("sync decided", "action", d.Action, "strategy", d.Strategy, "reason", d.Reason)

	s.state.Store(int32(StateExecuting))
	res := Result{Action: d.Action, Strategy: d.Strategy, Reason: d.Reason}
	switch d.Action {
	case engine.ActionUpload:
		// An identical-content verdict only refreshes the remote
		// bookkeeping; the snapshot body is untouched.
		metaOnly := d.Strategy == engine.StrategyNone
		if err := s.upload(ctx, local, nextCount, metaOnly); err != nil {
			return res, err
		}
		res.Message = "uploaded local snapshot"
		if metaOnly {
			res.Message = "already in sync"
		}

	case engine.ActionDownload:
		if remoteSnap == nil {
			return res, fmt.Errorf("%w: download decided without remote snapshot", ErrRemoteDataCorrupt)
		}
		changes := incomingChanges(local.Items, remoteSnap.Items)
		if err := s.apply(ctx, remoteSnap.Items); err != nil {
			return res, err
		}
		res.Counts = changes.Summarize(0)
		res.Message = "applied remote snapshot"
		if err := s.commit(deviceID, nextCount, remoteSnap.Items); err != nil {
			return res, err
		}
		return res, nil

	case engine.ActionMerge:
		if remoteSnap == nil {
			return res, fmt.Errorf("%w: merge decided without remote snapshot", ErrRemoteDataCorrupt)
		}
		mr := engine.NewResolver(deviceID).MergeSnapshots(local, *remoteSnap)
		if err := s.apply(ctx, mr.LocalChanges.All()); err != nil {
			return res, err
		}
		if err := s.upload(ctx, mr.Merged, nextCount, false); err != nil {
			return res, err
		}
		res.Counts = mr.Counts
		res.Conflicts = mr.Conflicts
		res.Message = fmt.Sprintf("merged snapshots (%d conflicts resolved)", len(mr.Conflicts))
		if err := s.commit(deviceID, nextCount, mr.Merged.Items); err != nil {
			return res, err
		}
		return res, nil

	case engine.ActionConflict:
		// Nothing was written on either side.
		return res, fmt.Errorf("%w: %s", ErrUnresolvableConflict, d.Reason)

	default:
		return res, fmt.Errorf("unknown sync action %q", d.Action)
	}

	if err := s.commit(deviceID, nextCount, local.Items); err != nil {
		return res, err
	}
	return res, nil
}

// fetchRemote loads the remote snapshot pair. Absence of either object is
// a valid first-sync state (nil, nil); a present but unparsable object is a
// hard error and never treated as absent.
func (s *Service) fetchRemote(ctx context.Context) (*model.Snapshot, *model.SyncMetadata, error) {
	cctx, cancel := context.WithTimeout(ctx, s.callLimit)
	defer cancel()

	ok, err := s.objects.Exists(cctx, snapshotObject)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if !ok {
		return nil, nil, nil
	}

	snapB, err := s.objects.ReadBytes(cctx, snapshotObject)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			// Deleted between the Exists probe and the read.
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(snapB, &snap); err != nil {
		return nil, nil, fmt.Errorf("%w: snapshot: %v", ErrRemoteDataCorrupt, err)
	}

	metaB, err := s.objects.ReadBytes(cctx, metadataObject)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			// Snapshot without metadata: treat the pair as absent so the
			// decision falls back to a plain upload that rewrites both.
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	var meta model.SyncMetadata
	if err := json.Unmarshal(metaB, &meta); err != nil {
		return nil, nil, fmt.Errorf("%w: metadata: %v", ErrRemoteDataCorrupt, err)
	}
	return &snap, &meta, nil
}

// upload writes the snapshot and then its metadata. Metadata goes last so
// a half-finished upload leaves the previous metadata pointing at itself
// rather than metadata describing a snapshot that never landed.
func (s *Service) upload(ctx context.Context, snap model.Snapshot, count int64, metaOnly bool) error {
	cctx, cancel := context.WithTimeout(ctx, s.callLimit)
	defer cancel()

	if err := s.objects.EnsureDirectory(cctx, syncFolder); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if !metaOnly {
		b, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		if err := s.objects.WriteBytes(cctx, snapshotObject, b); err != nil {
			return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
	}
	meta := model.SyncMetadata{
		LastSyncTime: s.now().UTC(),
		SyncCount:    count,
		DeviceID:     snap.DeviceID,
		TotalRecords: len(snap.Items),
		DataHash:     snap.Metadata.Checksum,
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := s.objects.WriteBytes(cctx, metadataObject, b); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

func (s *Service) apply(ctx context.Context, items []model.DataItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.data.ApplyChanges(ctx, items); err != nil {
		return fmt.Errorf("%w: %v", ErrLocalImport, err)
	}
	return nil
}

// commit persists the post-run bookkeeping. It runs only after every write
// succeeded; a run that fails earlier leaves the previous state untouched
// so the next run re-evaluates from scratch.
func (s *Service) commit(deviceID string, count int64, items []model.DataItem) error {
	d, err := s.prefs.Get()
	if err != nil {
		d = prefs.Data{}
	}
	d.DeviceID = deviceID
	d.SyncCount = count
	d.LastSyncTime = s.now().UTC()
	d.TotalRecords = len(items)
	d.DataHash = snapshot.DataHash(items)
	if err := s.prefs.Set(d); err != nil {
		return fmt.Errorf("persist sync state: %w", err)
	}
	return nil
}

func (s *Service) record(started time.Time, res Result) {
	if s.journal == nil {
		return
	}
	run := journal.Run{
		StartedAt: started,
		Backend:   s.backend,
		Action:    string(res.Action),
		Strategy:  string(res.Strategy),
		Reason:    res.Reason,
		Added:     res.Counts.Added,
		Modified:  res.Counts.Modified,
		Deleted:   res.Counts.Deleted,
		Conflicts: res.Counts.Conflicts,
		Success:   res.Success,
		Message:   res.Message,
	}
	if !res.Success && run.Message == "" && len(res.Errors) > 0 {
		run.Message = res.Errors[0]
	}
	if _, err := s.journal.RecordRun(run, res.Conflicts); err != nil {
		s.log.Warnw("journal write failed", "err", err)
	}
}

// incomingChanges classifies what a download-only run changes locally,
// for reporting. Remote tombstones unknown locally are not counted.
func incomingChanges(local, incoming []model.DataItem) model.ChangeSet {
	byID := make(map[string]model.DataItem, len(local))
	for _, it := range local {
		byID[it.ID] = it
	}
	var cs model.ChangeSet
	for _, it := range incoming {
		prev, ok := byID[it.ID]
		switch {
		case !ok && it.Metadata.Deleted:
			// no local counterpart to delete
		case !ok:
			cs.Added = append(cs.Added, it)
		case it.Metadata.Deleted && !prev.Metadata.Deleted:
			cs.Deleted = append(cs.Deleted, it)
		case it.Metadata.Checksum != prev.Metadata.Checksum || it.Metadata.Deleted != prev.Metadata.Deleted:
			cs.Modified = append(cs.Modified, it)
		}
	}
	return cs
}
