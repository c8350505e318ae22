package syncer

import "errors"

// The error taxonomy of a sync run. Everything an orchestrator run can fail
// with wraps one of these sentinels, so callers branch with errors.Is.
var (
	// ErrRemoteUnavailable: the object store could not be reached. Retry is
	// the caller's decision (a later timer tick), never done internally.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrRemoteDataCorrupt: the remote snapshot exists but does not parse.
	// This is a hard error: corrupt-but-present data is never treated as
	// absent, since uploading over it could destroy a valid dataset written
	// by a newer app version.
	ErrRemoteDataCorrupt = errors.New("remote snapshot corrupt")

	// ErrLocalExport / ErrLocalImport: the dataset store failed; the
	// underlying error is wrapped verbatim.
	ErrLocalExport = errors.New("local export failed")
	ErrLocalImport = errors.New("local import failed")

	// ErrSyncInProgress: a run was requested while another is active.
	// A control signal, not an algorithm failure. Callers are rejected,
	// never queued.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrUnresolvableConflict: decision rule fell through to manual
	// resolution. No local or remote data was touched.
	ErrUnresolvableConflict = errors.New("unresolvable sync conflict")
)
