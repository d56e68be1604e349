package config

import (
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host string
	Port int
}

type Tokens struct {
	RootFile        string
	SessionFile     string
	RotationSeconds int
	SessionSeconds  int
}

type Storage struct {
	DBPath        string
	UploadDir     string
	TranscriptDir string
}

type Config struct {
	HTTP    HTTP
	Tokens  Tokens
	Storage Storage
	// OfflineTimeout is how long a client may stay silent before it reads
	// as offline. CommandTimeout is the executing-age threshold reported
	// by the timed-out listing.
	OfflineTimeout time.Duration
	CommandTimeout time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5566)
	v.SetDefault("server.tokens.root_file", "tokens.json")
	v.SetDefault("server.tokens.session_file", ".session_tokens.json")
	v.SetDefault("server.tokens.rotation_seconds", 604800) // 7 days
	v.SetDefault("server.tokens.session_seconds", 3600)    // 1 hour
	v.SetDefault("server.storage.db_path", "pt1.db")
	v.SetDefault("server.storage.upload_dir", "uploads/files")
	v.SetDefault("server.storage.transcript_dir", "uploads/transcripts")
	v.SetDefault("server.offline_timeout_seconds", 300)
	v.SetDefault("server.command_timeout_seconds", 120)
	// Config file is optional; defaults cover a local run.
	_ = v.ReadInConfig()

	rotation := v.GetInt("server.tokens.rotation_seconds")
	if rotation <= 0 {
		rotation = 604800
	}
	session := v.GetInt("server.tokens.session_seconds")
	if session <= 0 {
		session = 3600
	}

	cfg := &Config{
		HTTP: HTTP{Host: v.GetString("server.host"), Port: v.GetInt("server.port")},
		Tokens: Tokens{
			RootFile:        v.GetString("server.tokens.root_file"),
			SessionFile:     v.GetString("server.tokens.session_file"),
			RotationSeconds: rotation,
			SessionSeconds:  session,
		},
		Storage: Storage{
			DBPath:        v.GetString("server.storage.db_path"),
			UploadDir:     v.GetString("server.storage.upload_dir"),
			TranscriptDir: v.GetString("server.storage.transcript_dir"),
		},
		OfflineTimeout: time.Duration(v.GetInt("server.offline_timeout_seconds")) * time.Second,
		CommandTimeout: time.Duration(v.GetInt("server.command_timeout_seconds")) * time.Second,
	}
	if cfg.OfflineTimeout <= 0 {
		cfg.OfflineTimeout = 300 * time.Second
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 120 * time.Second
	}
	return cfg, nil
}
