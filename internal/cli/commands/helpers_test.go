package commands

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"

	"PromptKeeper/internal/config"
	"PromptKeeper/internal/handlers"
	"PromptKeeper/internal/repo"
	"PromptKeeper/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setTempCfg redirects the user config dir into a temp dir so prefs and the
// auth store never touch the real home.
func setTempCfg(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if runtime.GOOS == "windows" {
		t.Setenv("APPDATA", dir)
	} else {
		t.Setenv("XDG_CONFIG_HOME", dir)
	}
	return dir
}

// captureOut swaps the command output writer for the duration of the test.
func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := Out
	buf := &bytes.Buffer{}
	Out = buf
	t.Cleanup(func() { Out = old })
	return buf
}

// startDevServer runs the full dev sync server and returns it together with
// its object repository for assertions.
func startDevServer(t *testing.T) (*httptest.Server, repo.ObjectRepository) {
	t.Helper()
	db, err := repo.InitDB(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	objects, err := repo.NewObjectRepository(t.TempDir())
	require.NoError(t, err)

	userService := service.NewUserService(repo.NewUserRepository(db))
	cfg := &config.Config{AuthSecret: "test-secret"}
	h := handlers.NewHandler(userService, objects, zap.NewNop().Sugar(), cfg)

	srv := httptest.NewServer(h.Router)
	t.Cleanup(srv.Close)
	return srv, objects
}

func clientConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ServerURL:    serverURL,
		RemoteKind:   "webdav",
		ClientDBPath: filepath.Join(dir, "pkcli.db"),
		JournalPath:  filepath.Join(dir, "journal.db"),
	}
}
