package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	StoreDir   string `env:"STORE_DIR"`
	AuthSecret string `env:"AUTH_SECRET"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL      string        `env:"-"`
	RemoteKind     string        `env:"REMOTE_KIND"` // webdav or cloud-drive
	RemoteUser     string        `env:"REMOTE_USER"`
	RemotePassword string        `env:"REMOTE_PASSWORD"`
	RemoteToken    string        `env:"REMOTE_TOKEN"`
	ClientDBPath   string        `env:"CLIENT_DB_PATH"`
	JournalPath    string        `env:"JOURNAL_PATH"`
	SyncInterval   time.Duration `env:"SYNC_INTERVAL"`
	Version        bool          `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// Flags apply only when the matching env variable is unset.
	// Server flags
	flag.StringVar(&cfg.StoreDir, "store-dir", cfg.StoreDir, "object storage root directory")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "secret for signing JWT")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the sync server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.RemoteKind, "remote", cfg.RemoteKind, "remote backend: webdav or cloud-drive")
	flag.StringVar(&cfg.RemoteUser, "remote-user", cfg.RemoteUser, "WebDAV username")
	flag.StringVar(&cfg.RemotePassword, "remote-password", cfg.RemotePassword, "WebDAV password")
	flag.StringVar(&cfg.RemoteToken, "remote-token", cfg.RemoteToken, "cloud drive access token")
	flag.StringVar(&cfg.ClientDBPath, "client-db", cfg.ClientDBPath, "path to client SQLite DB")
	flag.StringVar(&cfg.JournalPath, "journal-db", cfg.JournalPath, "path to sync journal DB")
	flag.DurationVar(&cfg.SyncInterval, "sync-interval", cfg.SyncInterval, "interval for scheduled sync (watch mode)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.RemoteKind == "" {
		cfg.RemoteKind = "webdav"
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 5 * time.Minute
	}
	// validate BaseURL: must be "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	// Fill remaining defaults if empty
	home, _ := os.UserHomeDir()
	if cfg.StoreDir == "" {
		cfg.StoreDir = filepath.Join(home, "promptkeeper-store")
	}
	if cfg.ClientDBPath == "" {
		cfg.ClientDBPath = filepath.Join(home, "pkcli.db")
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = filepath.Join(home, "pkcli-journal.db")
	}

	return cfg
}
