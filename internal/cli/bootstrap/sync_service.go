// Package bootstrap assembles the client-side sync service from config.
package bootstrap

import (
	"fmt"
	"strings"

	fsrepo "PromptKeeper/internal/cli/repo/fs"
	"PromptKeeper/internal/config"
	"PromptKeeper/internal/device"
	"PromptKeeper/internal/journal"
	"PromptKeeper/internal/prefs"
	"PromptKeeper/internal/remote"
	"PromptKeeper/internal/store"
	"PromptKeeper/internal/syncer"

	"go.uber.org/zap"
)

// OpenSyncService wires the dataset store, journal, preferences, device
// identity and the configured remote adapter into a sync service. The
// returned cleanup must be called once the service is no longer needed.
func OpenSyncService(cfg *config.Config, logger *zap.SugaredLogger) (*syncer.Service, func() error, error) {
	ds, err := store.Open(cfg.ClientDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open client db: %w", err)
	}
	jr, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal db: %w", err)
	}

	obj, err := openRemote(cfg)
	if err != nil {
		_ = jr.Close()
		return nil, nil, err
	}

	pf := prefs.FSStore{}
	svc := syncer.New(cfg.RemoteKind, ds, obj, pf, device.NewProvider(pf), jr, logger)
	cleanup := func() error { return jr.Close() }
	return svc, cleanup, nil
}

func openRemote(cfg *config.Config) (remote.ObjectStore, error) {
	switch strings.ToLower(cfg.RemoteKind) {
	case "webdav", "":
		user, password := cfg.RemoteUser, cfg.RemotePassword
		if user == "" {
			// Fall back to the login stored by a previous `pkcli login`.
			if login, err := (fsrepo.AuthFSStore{}).LoadLogin(); err == nil {
				user = login
			}
		}
		return remote.NewWebDAV(strings.TrimRight(cfg.ServerURL, "/")+"/store", user, password), nil
	case "cloud-drive":
		token := cfg.RemoteToken
		if token == "" {
			if tok, err := (fsrepo.AuthFSStore{}).Load(); err == nil {
				token = tok
			}
		}
		return remote.NewCloudDrive(cfg.ServerURL, token), nil
	default:
		return nil, fmt.Errorf("unknown remote backend %q", cfg.RemoteKind)
	}
}
