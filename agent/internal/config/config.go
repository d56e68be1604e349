package config

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type AppConfig struct {
	ServerHost    string
	ServerPort    int
	RootToken     string
	ClientID      string
	PollInterval  time.Duration
	LogPath       string
	TranscriptDir string
	OutboxDir     string
}

var cfg AppConfig

func Init(path string) AppConfig {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// defaults
	v.SetDefault("agent.server.host", "127.0.0.1")
	v.SetDefault("agent.server.port", 5566)
	v.SetDefault("agent.poll_interval_seconds", 5)
	_ = v.ReadInConfig()

	cfg = AppConfig{
		ServerHost:    v.GetString("agent.server.host"),
		ServerPort:    v.GetInt("agent.server.port"),
		RootToken:     v.GetString("agent.root_token"),
		ClientID:      v.GetString("agent.client_id"),
		PollInterval:  time.Duration(v.GetInt("agent.poll_interval_seconds")) * time.Second,
		LogPath:       v.GetString("agent.log_path"),
		TranscriptDir: v.GetString("agent.transcript_dir"),
		OutboxDir:     v.GetString("agent.outbox_dir"),
	}
	if cfg.RootToken == "" {
		cfg.RootToken = os.Getenv("PT1_API_TOKEN")
	}
	if cfg.ClientID == "" {
		host, _ := os.Hostname()
		cfg.ClientID = host + "-" + uuid.NewString()[:8]
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return cfg
}

func Get() AppConfig { return cfg }

func ServerURL() string {
	return fmt.Sprintf("http://%s:%d", cfg.ServerHost, cfg.ServerPort)
}
